package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (item store, RedisClient, EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency probed by the health endpoint. A nil
// Checker marks an optional dependency that is not configured.
type HealthCheck struct {
	Name    string
	Checker HealthChecker
}

// Probe states reported per dependency.
const (
	HealthOK          = "ok"
	HealthUnreachable = "unreachable"
	HealthDisabled    = "disabled"
)

// HealthHandler returns an http.HandlerFunc that probes every check and
// reports degraded status (503) if any configured dependency fails.
// The body is a flat object: {"status": "...", "<name>": "ok|unreachable|disabled"}.
func HealthHandler(checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := map[string]string{"status": "ok"}
		for _, c := range checks {
			switch {
			case c.Checker == nil:
				resp[c.Name] = HealthDisabled
			case c.Checker.Ping(ctx) != nil:
				resp["status"] = "degraded"
				resp[c.Name] = HealthUnreachable
			default:
				resp[c.Name] = HealthOK
			}
		}

		status := http.StatusOK
		if resp["status"] != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
