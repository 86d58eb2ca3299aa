package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Middleware returns an HTTP middleware that records request metrics. If
// Metrics is nil, it returns a pass-through middleware.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.activeRequests.Inc()
		next.ServeHTTP(ww, r)
		m.activeRequests.Dec()

		labels := []string{
			r.Method,
			getRoutePattern(r),
			strconv.Itoa(ww.Status()),
		}
		m.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(labels...).Inc()
	})
}

// getRoutePattern extracts the chi route pattern, e.g.
// "/wait-for-second-party/{id}" rather than the concrete URL, to keep label
// cardinality bounded. Returns a constant for unmatched requests.
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unknown_route"
}
