package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlemos/cpf-extractor/internal/domain/commonModels"
)

func TestDownload_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%PDF-1.4 conteudo")
	}))
	defer server.Close()

	raw, err := NewFetcher(nil).Download(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(raw) != "%PDF-1.4 conteudo" {
		t.Errorf("unexpected body: %q", raw)
	}
}

func TestDownload_Non2xxIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(nil).Download(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error on 404")
	}

	var fetchErr *commonModels.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fetchErr.StatusCode)
	}
	if fetchErr.Error() != "failed to download PDF: 404" {
		t.Errorf("unexpected message: %q", fetchErr.Error())
	}
}

func TestDownload_NetworkErrorIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := NewFetcher(nil).Download(context.Background(), server.URL)
	var fetchErr *commonModels.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("expected no status code for network error, got %d", fetchErr.StatusCode)
	}
}

func TestDownload_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := NewFetcher(nil).Download(context.Background(), server.URL)
	var fetchErr *commonModels.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError for redirect loop, got %v", err)
	}
}
