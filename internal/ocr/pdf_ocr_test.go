package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

// stubRunner fakes pdftoppm (by dropping image files where the real
// binary would) and tesseract (by returning canned text per image).
type stubRunner struct {
	pageCount    int
	rasterErr    error
	textForImage func(img string) (string, error)
	tessLangs    []string
}

func (s *stubRunner) Run(ctx context.Context, name string, logger *logger_i.Logger, args ...string) ([]byte, []byte, error) {
	if strings.Contains(name, "pdftoppm") {
		if s.rasterErr != nil {
			return nil, []byte("Syntax Error: couldn't read xref table"), s.rasterErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= s.pageCount; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%02d.png", prefix, i), []byte("png"), 0600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}

	// tesseract <img> - -l <lang>
	s.tessLangs = append(s.tessLangs, args[3])
	text, err := s.textForImage(args[0])
	if err != nil {
		return nil, []byte("Error in pixReadStream"), err
	}
	return []byte(text), nil, nil
}

func newTestExtractor(runner Runner) *Extractor {
	e := NewExtractor(Config{Language: "por", DPI: 150})
	e.runner = runner
	return e
}

func TestExtractPages_PageOrder(t *testing.T) {
	runner := &stubRunner{
		pageCount: 12, //two digit counts exercise the zero-padded sort
		textForImage: func(img string) (string, error) {
			return "texto da imagem " + img, nil
		},
	}

	pages, err := newTestExtractor(runner).ExtractPages(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("extract pages: %v", err)
	}
	if len(pages) != 12 {
		t.Fatalf("expected 12 pages, got %d", len(pages))
	}
	for i, text := range pages {
		want := fmt.Sprintf("-%02d.png", i+1)
		if !strings.Contains(text, want) {
			t.Errorf("page %d out of order: %q", i+1, text)
		}
	}
	for _, lang := range runner.tessLangs {
		if lang != "por" {
			t.Errorf("expected tesseract language por, got %q", lang)
		}
	}
}

func TestExtractPages_MidBatchFailureReturnsPartial(t *testing.T) {
	boom := errors.New("exit status 1")
	runner := &stubRunner{
		pageCount: 3,
		textForImage: func(img string) (string, error) {
			if strings.Contains(img, "-02") {
				return "", boom
			}
			return "pagina ok", nil
		},
	}

	pages, err := newTestExtractor(runner).ExtractPages(context.Background(), []byte("%PDF-1.4"))
	if err == nil {
		t.Fatal("expected the tesseract failure to surface")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped runner error, got %v", err)
	}
	if len(pages) != 1 {
		t.Errorf("expected the one page recognised before the failure, got %d", len(pages))
	}
}

func TestExtractPages_RasterizationFailure(t *testing.T) {
	runner := &stubRunner{rasterErr: errors.New("exit status 3")}

	pages, err := newTestExtractor(runner).ExtractPages(context.Background(), []byte("not a pdf"))
	if err == nil {
		t.Fatal("expected rasterization error")
	}
	if pages != nil {
		t.Errorf("expected no pages, got %v", pages)
	}
}

func TestExtractPages_NoImagesProduced(t *testing.T) {
	runner := &stubRunner{pageCount: 0}

	_, err := newTestExtractor(runner).ExtractPages(context.Background(), []byte("%PDF-1.4"))
	if err == nil || !strings.Contains(err.Error(), "no images") {
		t.Errorf("expected a no-images error, got %v", err)
	}
}
