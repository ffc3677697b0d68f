package health

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
)

// RetryAfterSeconds is sent with every 503 so load balancers back off while
// the first campus snapshot loads or the store reconnects.
const RetryAfterSeconds = 5

// HTTPHandler serves /health. A degraded campus, such as a snapshot without
// buildings, still answers 200.
func (hc *HealthChecker) HTTPHandler() http.HandlerFunc {
	return hc.serve(hc.Check, StatusHealthy, StatusDegraded)
}

// ReadinessHandler serves /ready. The server takes route traffic only when
// every readiness check is healthy.
func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return hc.serve(hc.CheckReadiness, StatusHealthy)
}

// LivenessHandler serves /live
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return hc.serve(hc.CheckLiveness, StatusHealthy)
}

func (hc *HealthChecker) serve(run func() Response, passing ...Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := run()

		h := w.Header()
		h.Set("Content-Type", "application/json")
		h.Set("Cache-Control", "no-store")

		code := http.StatusOK
		if !slices.Contains(passing, resp.Status) {
			code = http.StatusServiceUnavailable
			h.Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
