package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlemos/cpf-extractor/internal/api"
	"github.com/dlemos/cpf-extractor/internal/config"
)

func TestWrap_UnauthorizedWritesSingleResponse(t *testing.T) {
	savedBypass, savedToken := config.NoAuthBypass, config.AuthToken
	config.NoAuthBypass = false
	config.AuthToken = "secret-token"
	defer func() {
		config.NoAuthBypass = savedBypass
		config.AuthToken = savedToken
	}()

	handlerCalled := false
	wrapped := Wrap(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	if handlerCalled {
		t.Error("wrapped handler must not run for an unauthorized request")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// a duplicated error write would leave two JSON objects in the body
	var errResp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("body is not a single JSON object: %v\n%s", err, rec.Body.String())
	}
	if errResp.Status != "error" {
		t.Errorf("unexpected body: %+v", errResp)
	}
}

func TestWrap_ValidTokenReachesHandler(t *testing.T) {
	savedBypass, savedToken := config.NoAuthBypass, config.AuthToken
	config.NoAuthBypass = false
	config.AuthToken = "secret-token"
	defer func() {
		config.NoAuthBypass = savedBypass
		config.AuthToken = savedToken
	}()

	handlerCalled := false
	wrapped := Wrap(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	wrapped(rec, req)

	if !handlerCalled {
		t.Fatal("expected the wrapped handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
