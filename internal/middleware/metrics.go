package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voxscribe/internal/metrics"
)

// Metrics records request counts and latencies labelled by the chi route
// pattern, which keeps label cardinality bounded.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapWriter(w)
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			m.RecordHTTPRequest(r.Method, route, rw.status, time.Since(start).Seconds())
		})
	}
}
