package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/supplytrack/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

func probe(t *testing.T, checks ...httpx.HealthCheck) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	httpx.HealthHandler(checks...).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, resp
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	code, resp := probe(t,
		httpx.HealthCheck{Name: "store", Checker: &stubChecker{}},
		httpx.HealthCheck{Name: "redis", Checker: &stubChecker{}},
		httpx.HealthCheck{Name: "event_bus", Checker: &stubChecker{}},
	)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["status"] != "ok" {
		t.Errorf("status: got %q, want %q", resp["status"], "ok")
	}
}

func TestHealthHandler_StoreDown(t *testing.T) {
	code, resp := probe(t,
		httpx.HealthCheck{Name: "store", Checker: &stubChecker{err: errors.New("no such directory")}},
		httpx.HealthCheck{Name: "event_bus", Checker: &stubChecker{}},
	)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp["status"] != "degraded" || resp["store"] != "unreachable" || resp["event_bus"] != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthHandler_RedisDown(t *testing.T) {
	code, resp := probe(t,
		httpx.HealthCheck{Name: "store", Checker: &stubChecker{}},
		httpx.HealthCheck{Name: "redis", Checker: &stubChecker{err: errors.New("timeout")}},
	)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp["redis"] != "unreachable" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthHandler_DisabledDependencyIsHealthy(t *testing.T) {
	code, resp := probe(t,
		httpx.HealthCheck{Name: "store", Checker: &stubChecker{}},
		httpx.HealthCheck{Name: "redis"},
	)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if resp["redis"] != "disabled" {
		t.Errorf("redis: got %q, want disabled", resp["redis"])
	}
}

func TestHealthHandler_AllDown(t *testing.T) {
	code, resp := probe(t,
		httpx.HealthCheck{Name: "store", Checker: &stubChecker{err: errors.New("down")}},
		httpx.HealthCheck{Name: "redis", Checker: &stubChecker{err: errors.New("down")}},
		httpx.HealthCheck{Name: "event_bus", Checker: &stubChecker{err: errors.New("down")}},
	)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if resp["store"] != "unreachable" || resp["redis"] != "unreachable" || resp["event_bus"] != "unreachable" {
		t.Errorf("expected all services unreachable: %+v", resp)
	}
}

func TestHealthHandler_ContentType(t *testing.T) {
	h := httpx.HealthHandler(httpx.HealthCheck{Name: "store", Checker: &stubChecker{}})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	ct := rr.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json; charset=utf-8")
	}
}
