// Package fetch downloads remote documents before extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

type Fetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *logger_i.Logger
}

// NewFetcher builds a redirect-following client with a generous timeout
// on top of the shared pooled transport.
func NewFetcher(transport http.RoundTripper) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout:   config.FetchTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= config.FetchMaxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		maxBytes: config.MaxDocumentBytes,
		logger:   logger_i.NewLogger("Fetcher"),
	}
}

// Download retrieves the document at url. Any network failure, timeout
// or non-2xx status comes back as a *commonModels.FetchError - the job
// turns it into an error delivery, never a crash.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	f.logger.Info("Downloading PDF from URL", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &commonModels.FetchError{Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &commonModels.FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &commonModels.FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, &commonModels.FetchError{Err: err}
	}
	return body, nil
}
