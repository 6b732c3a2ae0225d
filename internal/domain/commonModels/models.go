package commonModels

import (
	"errors"
	"fmt"
)

// Record is one (name, CPF) pair recognised in a document line. CPF is
// always exactly 11 digits after normalization; Name is never empty -
// when the heuristics cannot produce one, it carries NameNotIdentified.
type Record struct {
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

// NameNotIdentified is the sentinel emitted when a line has a valid CPF
// but no usable name segment. Downstream consumers match on this exact
// string, keep it byte for byte.
const NameNotIdentified = "Nome não identificado"

type ExtractionMode string

const (
	ModeTextLayer ExtractionMode = "TextLayer"
	ModeOCR       ExtractionMode = "OCR"
)

// ErrDocumentUnreadable marks a document whose container cannot be
// opened. It is the only fatal extraction error.
var ErrDocumentUnreadable = errors.New("document unreadable")

// FetchError reports a failed remote document download.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download PDF: %d", e.StatusCode)
	}
	return fmt.Sprintf("failed to download PDF: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
