package extract

import (
	"context"

	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	"github.com/dlemos/cpf-extractor/internal/metrics"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

var logger = logger_i.NewLogger("Extraction")

// PageOCR turns a rasterized document into per-page text. On failure it
// returns the pages recognised so far together with the error.
type PageOCR interface {
	ExtractPages(ctx context.Context, raw []byte) ([]string, error)
}

// Extractor is the document-to-records pipeline: mode selection, then
// either the text layer or OCR, feeding the same line parser.
type Extractor struct {
	ocr PageOCR
}

func NewExtractor(ocr PageOCR) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract runs the whole pipeline over raw document bytes. An empty
// result is a valid success; the only error is an unreadable document.
// OCR failures degrade to whatever was accumulated before the failure.
func (e *Extractor) Extract(ctx context.Context, raw []byte) ([]commonModels.Record, error) {
	doc, err := openDocument(raw)
	if err != nil {
		logger.Error("failed opening of pdf document", "error", err)
		return nil, err
	}

	totalPages := doc.pageCount()
	logger.Info("Processing PDF", "pages", totalPages)

	records := make([]commonModels.Record, 0)

	if selectMode(doc) == commonModels.ModeTextLayer {
		records = extractTextLayer(doc, records)
		logger.Info("Extracted records via text layer", "count", len(records))
		metrics.CountExtractedRecords(string(commonModels.ModeTextLayer), len(records))
		return records, nil
	}

	logger.Info("No text found in first pages, switching to OCR mode", "pages", totalPages)
	pages, ocrErr := e.ocr.ExtractPages(ctx, raw)
	for _, text := range pages {
		if text == "" {
			continue
		}
		records = ParseText(text, records)
	}
	if ocrErr != nil {
		//best effort: a failed OCR batch must not fail the request
		logger.Error("OCR processing failed", "error", ocrErr, "recordsSoFar", len(records))
	}

	logger.Info("Extracted records via OCR", "count", len(records))
	metrics.CountExtractedRecords(string(commonModels.ModeOCR), len(records))
	return records, nil
}
