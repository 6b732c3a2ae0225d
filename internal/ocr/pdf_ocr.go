// Package ocr rasterizes PDF pages and runs tesseract over each one.
// Both steps go through external binaries (pdftoppm and tesseract), the
// same way the rest of the toolchain around this service ships them.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

type Config struct {
	Pdftoppm  string //binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string //binary name or absolute path; if empty -> "tesseract"

	Language string //tesseract language, default "por"
	DPI      int    //rasterization DPI, default 150 - tuned for speed over fidelity
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *logger_i.Logger
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger_i.NewLogger("OCR")}
}

// ExtractPages rasterizes every page of the document and OCRs them in
// page order. On any failure it returns the page texts recognised so
// far along with the error - the caller decides how much of a partial
// batch is still useful.
func (e *Extractor) ExtractPages(ctx context.Context, raw []byte) ([]string, error) {
	tmpDir, err := os.MkdirTemp("", "cpfx-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("ocr temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", err)
		}
	}()

	docPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(docPath, raw, 0600); err != nil {
		return nil, fmt.Errorf("ocr write document: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <doc.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", docPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("rasterization failed: %s: %w", truncate(string(errb), 512), err)
	}

	//pdftoppm zero-pads page numbers so a string sort keeps page order
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if len(images) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}
	e.logger.Info("Converted pages to images for OCR", "pages", len(images))

	var pages []string
	for i, img := range images {
		// tesseract <img> - -l <lang>
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, img, "-", "-l", e.cfg.Language)
		if err != nil {
			return pages, fmt.Errorf("tesseract page %d: %s: %w", i+1, truncate(string(errb), 512), err)
		}
		pages = append(pages, string(out))

		if (i+1)%10 == 0 {
			e.logger.Info("OCR progress", "processed", i+1, "total", len(images))
		}
	}
	return pages, nil
}
