package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finflow/muleguard/internal/engine"
)

func TestRouterServesHealthzAndMetrics(t *testing.T) {
	handler := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)
	router := NewRouter(discardLogger(), RouterDependencies{Handler: handler})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestRouterRejectsDisallowedOriginOnPreflight(t *testing.T) {
	handler := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)
	router := NewRouter(discardLogger(), RouterDependencies{
		Handler:        handler,
		AllowedOrigins: []string{"https://allowed.example"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://not-allowed.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disallowed origin preflight, got %d", rec.Code)
	}
}

func TestRouterAllowsConfiguredOrigin(t *testing.T) {
	handler := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)
	router := NewRouter(discardLogger(), RouterDependencies{
		Handler:        handler,
		AllowedOrigins: []string{"https://allowed.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://allowed.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://allowed.example" {
		t.Errorf("expected CORS header to echo allowed origin, got %q", got)
	}
}
