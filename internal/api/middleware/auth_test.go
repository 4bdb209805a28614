package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/refdata-io/refdata/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(httptest.NewRecorder().Body, nil))
}

func TestAuthenticateAdmin_MissingKeyReturns401(t *testing.T) {
	hash, err := store.HashAPIKey("super-secret")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	called := false
	handler := AuthenticateAdmin(hash, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/watermark", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if called {
		t.Fatal("expected handler not to be called without an API key")
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticateAdmin_WrongKeyReturns401(t *testing.T) {
	hash, err := store.HashAPIKey("super-secret")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	handler := AuthenticateAdmin(hash, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/watermark", nil)
	req.Header.Set("X-Api-Key", "wrong-key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json content type, got %q", ct)
	}
}

func TestAuthenticateAdmin_CorrectKeyPasses(t *testing.T) {
	hash, err := store.HashAPIKey("super-secret")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	called := false
	handler := AuthenticateAdmin(hash, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/watermark", nil)
	req.Header.Set("X-Api-Key", "super-secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to run with a correct API key")
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticateAdmin_BearerFallback(t *testing.T) {
	hash, err := store.HashAPIKey("super-secret")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	called := false
	handler := AuthenticateAdmin(hash, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/watermark", nil)
	req.Header.Set("Authorization", "Bearer super-secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected Authorization: Bearer fallback to authenticate")
	}
}

func TestExtractAPIKey_RejectsHeaderInjection(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/watermark", nil)
	req.Header.Set("X-Api-Key", "key\r\nwith-injection")

	if _, ok := extractAPIKey(req); ok {
		t.Fatal("expected key containing CRLF to be rejected")
	}
}
