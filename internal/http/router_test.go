package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voltcity/internal/metrics"
)

func TestRouterMethodGuard(t *testing.T) {
	router := NewRouter(Routes{
		Health: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
		t.Fatalf("expected Allow: GET, got %q", allow)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouterRecordsLatencyPerEndpoint(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	router := NewRouter(Routes{
		StationsList: ok,
		WalletMe:     ok,
		Metrics:      metrics.Handler(),
		Health:       ok,
	})

	for _, path := range []string{"/stations", "/wallet/me", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, endpoint := range []string{"/stations", "/wallet/me", "/health"} {
		want := `voltcity_http_request_duration_seconds_count{endpoint="` + endpoint + `",method="GET"}`
		if !strings.Contains(body, want) {
			t.Fatalf("latency histogram missing sample for %s", endpoint)
		}
	}
}
