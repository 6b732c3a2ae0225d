package consulta

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Result is the outcome of a portal lookup. The zero fields are omitted
// so the response mirrors the shape the callers already consume.
type Result struct {
	Result  string `json:"result,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Date    string `json:"date,omitempty"`
}

const (
	ResultDescarte  = "descarte"
	ResultPesquisar = "pesquisar"
)

// retirementCutoff splits the pre- and post-2003 pension regimes.
var retirementCutoff = time.Date(2003, time.December, 1, 0, 0, 0, 0, time.UTC)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Data da aposentadoria[:\s]*(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`(?i)Data de início do vínculo[:\s]*(\d{2}/\d{2}/\d{4})`),
}

// blockedDomains are analytics and tracking hosts that only slow the
// portal down.
var blockedDomains = []string{
	"google-analytics.com",
	"googletagmanager.com",
	"facebook.net",
	"doubleclick.net",
	"analytics",
	"hotjar.com",
	"clarity.ms",
}

var blockedResourceTypes = map[string]bool{
	"image":     true,
	"media":     true,
	"font":      true,
	"websocket": true,
	"manifest":  true,
}

func shouldBlockRequest(resourceType, requestURL string) bool {
	if blockedResourceTypes[strings.ToLower(resourceType)] {
		return true
	}
	lowered := strings.ToLower(requestURL)
	for _, domain := range blockedDomains {
		if strings.Contains(lowered, domain) {
			return true
		}
	}
	return false
}

// searchURL builds the direct query URL so no form interaction is needed.
func searchURL(cpf string) string {
	params := url.Values{}
	params.Set("paginacaoSimples", "true")
	params.Set("tamanhoPagina", "")
	params.Set("offset", "")
	params.Set("direcaoOrdenacao", "asc")
	params.Set("cpf", cpf)
	params.Set("colunasSelecionadas", "detalhar,tipo,cpf,nome,orgaoServidorLotacao,matricula,situacao,funcao,cargo,quantidade")
	return fmt.Sprintf("https://portaldatransparencia.gov.br/servidores/consulta?%s", params.Encode())
}

func parseDate(dateStr string) (time.Time, error) {
	return time.Parse("02/01/2006", dateStr)
}

// scanRetirementDate pulls the first dd/mm/yyyy retirement date out of
// the detail page HTML, preferring the explicit retirement field over
// the start-of-contract fallback.
func scanRetirementDate(html string) (string, bool) {
	for _, pattern := range datePatterns {
		if match := pattern.FindStringSubmatch(html); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// classifyRetirement applies the cutoff rule to a scanned date string.
func classifyRetirement(dateStr string) Result {
	dateValue, err := parseDate(dateStr)
	if err != nil {
		return Result{Status: "error", Message: "Could not parse date"}
	}
	if dateValue.After(retirementCutoff) {
		return Result{Result: ResultDescarte, Date: dateStr}
	}
	return Result{Result: ResultPesquisar, Date: dateStr}
}
