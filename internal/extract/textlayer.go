package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dslipak/pdf"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
)

// pagedDocument is what the mode selector and the text-layer extractor
// need from an open document. The pdf-backed implementation below is
// the only production one; tests provide fakes.
type pagedDocument interface {
	pageCount() int
	pageText(number int) (string, error) //1-based
}

type pdfDocument struct {
	reader *pdf.Reader
}

func openDocument(raw []byte) (*pdfDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonModels.ErrDocumentUnreadable, err)
	}
	return &pdfDocument{reader: reader}, nil
}

func (d *pdfDocument) pageCount() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) pageText(number int) (string, error) {
	page := d.reader.Page(number)
	if page.V.IsNull() {
		return "", nil
	}
	return protectExtract(page)
}

// protectExtract guards GetPlainText with a timeout - malformed content
// streams can make it spin.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractGuard):
		return "", errors.New("page extraction timeout")
	}
}

// selectMode samples up to the first 5 pages. A page counts as textual
// when its trimmed text exceeds 50 characters; zero textual pages means
// the document is a scan and the whole document goes through OCR. The
// decision is made once, never per page.
func selectMode(doc pagedDocument) commonModels.ExtractionMode {
	sample := doc.pageCount()
	if sample > config.ModeSamplePages {
		sample = config.ModeSamplePages
	}

	pagesWithText := 0
	for i := 1; i <= sample; i++ {
		text, err := doc.pageText(i)
		if err != nil {
			continue
		}
		if len(strings.TrimSpace(text)) > config.TextualPageChars {
			pagesWithText++
		}
	}

	if pagesWithText == 0 {
		return commonModels.ModeOCR
	}
	return commonModels.ModeTextLayer
}

// extractTextLayer walks every page in document order. Pages without
// text are skipped, not errors.
func extractTextLayer(doc pagedDocument, records []commonModels.Record) []commonModels.Record {
	total := doc.pageCount()
	for i := 1; i <= total; i++ {
		text, err := doc.pageText(i)
		if err != nil {
			logger.Warn("skipping unreadable page", "page", i, "error", err)
			continue
		}
		if text == "" {
			continue
		}
		records = ParseText(text, records)
	}
	return records
}
