package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/toybox/toybox-api/internal/pkg/metrics"
)

// Metrics records request count and latency per route pattern.
// Uses the chi route pattern instead of the raw path to keep label
// cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}

		metrics.ObserveHTTP(r.Method, pattern, strconv.Itoa(wrapped.statusCode), time.Since(start).Seconds())
	})
}
