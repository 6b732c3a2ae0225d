package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
)

// The character classes and thresholds below are behavioral contracts:
// changing them changes which records come out of real documents.
var (
	//flexible CPF: optional grouping dots/dash, optional space before the check digits
	cpfPattern = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\s?\d{2}`)

	nonDigit = regexp.MustCompile(`\D`)

	//leading row index column, e.g. "12  JOAO ..."
	rowIndexPrefix = regexp.MustCompile(`^\s*\d+\s+`)

	//keep unicode word chars and whitespace in name candidates
	nonNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// ParseLine inspects one line of document text and returns the record
// embedded in it, if any. Header rows are suppressed, the first
// CPF-shaped substring wins, and a line never yields more than one
// record.
func ParseLine(line string) (commonModels.Record, bool) {
	if isHeaderLine(line) {
		return commonModels.Record{}, false
	}

	loc := cpfPattern.FindStringIndex(line)
	if loc == nil {
		return commonModels.Record{}, false
	}

	cpf := nonDigit.ReplaceAllString(line[loc[0]:loc[1]], "")
	if len(cpf) != 11 {
		//a CPF-shaped run with the wrong digit count disqualifies the
		//whole line, we do not search for a second match
		return commonModels.Record{}, false
	}

	name := cleanNameCandidate(line[:loc[0]])
	if utf8.RuneCountInString(name) > config.MinNameLength && !isNumeric(name) {
		return commonModels.Record{Name: name, CPF: cpf}, true
	}
	return commonModels.Record{Name: commonModels.NameNotIdentified, CPF: cpf}, true
}

// isHeaderLine detects table header rows: a matriculation marker, or a
// name marker together with a document marker.
func isHeaderLine(line string) bool {
	upper := strings.ToUpper(line)
	if strings.Contains(upper, "MATRIC") {
		return true
	}
	return strings.Contains(upper, "NOME") && strings.Contains(upper, "CIC")
}

func cleanNameCandidate(segment string) string {
	segment = rowIndexPrefix.ReplaceAllString(segment, "")
	segment = nonNameChars.ReplaceAllString(segment, "")
	return strings.TrimSpace(segment)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ParseText runs every line of a page's text through ParseLine,
// appending hits to records in line order.
func ParseText(text string, records []commonModels.Record) []commonModels.Record {
	for _, line := range strings.Split(text, "\n") {
		if rec, ok := ParseLine(line); ok {
			records = append(records, rec)
		}
	}
	return records
}
