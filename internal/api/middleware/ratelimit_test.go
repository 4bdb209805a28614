package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInMemoryRateLimiter_AllowsWithinBurst(t *testing.T) {
	limiter := NewInMemoryRateLimiter(&Config{GlobalRPS: 10, DefaultRPS: 10})

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("expected request %d within burst to be allowed", i)
		}
	}
}

func TestInMemoryRateLimiter_RejectsBeyondBurst(t *testing.T) {
	limiter := NewInMemoryRateLimiter(&Config{GlobalRPS: 1, DefaultRPS: 1, GlobalBurst: 1, DefaultBurst: 1})

	if !limiter.Allow() {
		t.Fatal("expected first request to be allowed")
	}

	if limiter.Allow() {
		t.Fatal("expected second immediate request to be rejected")
	}
}

func TestRateLimit_Returns429OnExhaustion(t *testing.T) {
	limiter := NewInMemoryRateLimiter(&Config{GlobalRPS: 1, DefaultRPS: 1, GlobalBurst: 1, DefaultBurst: 1})
	handler := RateLimit(limiter, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/segments", nil)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)

	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)

	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
}
