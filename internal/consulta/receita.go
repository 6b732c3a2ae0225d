package consulta

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/dlemos/cpf-extractor/internal/config"
)

// ReceitaResult is the outcome of a Receita Federal registration status
// lookup. A failed lookup still carries the CPF and timestamp, with
// Success false and the reason in Error.
type ReceitaResult struct {
	CPF               string `json:"cpf"`
	SituacaoCadastral string `json:"situacao_cadastral,omitempty"`
	Nome              string `json:"nome,omitempty"`
	IsDeceased        bool   `json:"is_deceased"`
	DataConsulta      string `json:"data_consulta"`
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
}

const receitaURL = "https://servicos.receita.fazenda.gov.br/Servicos/CPF/ConsultaSituacao/ConsultaPublica.asp"

var (
	situacaoMarkupPattern = regexp.MustCompile(`(?i)Situação Cadastral[:\s]*<[^>]*>([^<]+)`)
	situacaoTextPattern   = regexp.MustCompile(`(?i)Situação Cadastral[:\s]*([\p{L}\p{N}_]+(?:\s+[\p{L}\p{N}_]+)*)`)
	nomePattern           = regexp.MustCompile(`(?i)Nome[:\s]*<[^>]*>([^<]+)`)
)

// classifySituacao scans the result page for the registration status.
// Known status strings take precedence over the markup patterns so a
// stray label elsewhere on the page does not win.
func classifySituacao(pageContent string) (string, bool) {
	upper := strings.ToUpper(pageContent)
	switch {
	case strings.Contains(upper, "TITULAR FALECIDO"):
		return "TITULAR FALECIDO", true
	case strings.Contains(upper, "CANCELADA POR ÓBITO"):
		return "CANCELADA POR ÓBITO", true
	case strings.Contains(upper, "REGULAR") && strings.Contains(upper, "SITUAÇÃO CADASTRAL"):
		return "REGULAR", true
	case strings.Contains(upper, "PENDENTE"):
		return "PENDENTE DE REGULARIZAÇÃO", true
	case strings.Contains(upper, "SUSPENSA"):
		return "SUSPENSA", true
	case strings.Contains(upper, "NULA"):
		return "NULA", true
	}
	if match := situacaoMarkupPattern.FindStringSubmatch(pageContent); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	if match := situacaoTextPattern.FindStringSubmatch(pageContent); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	return "", false
}

func scanNome(pageContent string) string {
	if match := nomePattern.FindStringSubmatch(pageContent); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}

func isDeceasedStatus(situacao string) bool {
	upper := strings.ToUpper(situacao)
	return upper == "TITULAR FALECIDO" || upper == "CANCELADA POR ÓBITO"
}

func isNotFoundPage(pageContent string) bool {
	return strings.Contains(pageContent, "CPF não encontrado") ||
		strings.Contains(strings.ToLower(pageContent), "dados informados não conferem")
}

// ConsultarReceita checks the CPF registration status on the Receita
// Federal public form. The cpf argument must already be 11 bare digits
// and dataNascimento must be dd/mm/yyyy. Flow errors come back inside
// the result rather than as an error so callers always get the CPF and
// timestamp.
func (s *Service) ConsultarReceita(ctx context.Context, cpf, dataNascimento string) (ReceitaResult, error) {
	s.mu.RLock()
	b := s.browser
	s.mu.RUnlock()
	if b == nil {
		return ReceitaResult{}, fmt.Errorf("consulta: browser not started")
	}

	result := ReceitaResult{
		CPF:          cpf,
		DataConsulta: time.Now().Format(time.RFC3339),
	}

	s.logger.Info("Consulting Receita Federal", "cpf", cpf)

	page, err := stealth.Page(b)
	if err != nil {
		result.Error = fmt.Sprintf("open tab: %v", err)
		return result, nil
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.logger.Warn("Tab close failed", "error", err)
		}
	}()
	page = page.Context(ctx)

	pageContent, err := s.runReceitaForm(ctx, page, cpf, dataNascimento)
	if err != nil {
		s.logger.Error("Receita Federal lookup failed", "cpf", cpf, "error", err)
		result.Error = err.Error()
		return result, nil
	}

	situacao, found := classifySituacao(pageContent)
	if !found {
		if isNotFoundPage(pageContent) {
			result.Error = "CPF não encontrado ou dados não conferem"
		} else {
			result.Error = "Could not extract status from page"
		}
		return result, nil
	}

	s.logger.Info("Receita Federal result", "cpf", cpf, "situacao", situacao)
	result.SituacaoCadastral = situacao
	result.Nome = scanNome(pageContent)
	result.IsDeceased = isDeceasedStatus(situacao)
	result.Success = true
	return result, nil
}

// runReceitaForm drives the public form and returns the result page HTML.
func (s *Service) runReceitaForm(ctx context.Context, page *rod.Page, cpf, dataNascimento string) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, config.BrowserNavTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(receitaURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.Warn("Wait load timeout", "error", err)
	}

	cpfField, err := page.Timeout(config.BrowserActionTimeout).Element(`input[name="txtCPF"]`)
	if err != nil {
		return "", fmt.Errorf("cpf field: %w", err)
	}
	if err := cpfField.Input(cpf); err != nil {
		return "", fmt.Errorf("fill cpf: %w", err)
	}

	dateField, err := page.Timeout(config.BrowserActionTimeout).Element(`input[name="txtDataNascimento"]`)
	if err != nil {
		return "", fmt.Errorf("birth date field: %w", err)
	}
	if err := dateField.Input(dataNascimento); err != nil {
		return "", fmt.Errorf("fill birth date: %w", err)
	}

	s.clickCaptchaCheckbox(page)

	submit, err := page.Timeout(config.BrowserActionTimeout).
		Element(`input[type="submit"], button[type="submit"], input[value*="Consultar"]`)
	if err != nil {
		return "", fmt.Errorf("submit button: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}

	if err := page.Timeout(config.BrowserNavTimeout).WaitLoad(); err != nil {
		s.logger.Warn("Result page load timeout", "error", err)
	}
	time.Sleep(time.Second) //result content renders client side

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read result page: %w", err)
	}
	return html, nil
}

// clickCaptchaCheckbox is best effort; the form sometimes submits
// without the checkbox resolved.
func (s *Service) clickCaptchaCheckbox(page *rod.Page) {
	frameEl, err := page.Timeout(10 * time.Second).
		Element(`iframe[title*="captcha"], iframe[src*="hcaptcha"], iframe[src*="recaptcha"]`)
	if err != nil {
		s.logger.Warn("Captcha frame not found", "error", err)
		return
	}
	frame, err := frameEl.Frame()
	if err != nil {
		s.logger.Warn("Captcha frame unavailable", "error", err)
		return
	}
	checkbox, err := frame.Timeout(10 * time.Second).Element(`div[role="checkbox"], .check`)
	if err != nil {
		s.logger.Warn("Captcha checkbox not found", "error", err)
		return
	}
	if err := checkbox.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.logger.Warn("Captcha click failed", "error", err)
		return
	}
	time.Sleep(2 * time.Second) //captcha resolves client side
}
