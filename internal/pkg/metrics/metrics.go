package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toybox",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toybox",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "toybox",
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	bookingsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toybox",
			Name:      "bookings_completed_total",
			Help:      "Bookings completed, by trigger (return, status, sweep).",
		},
		[]string{"trigger"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "toybox",
			Name:      "booking_conflicts_total",
			Help:      "Booking creation attempts rejected due to overlap.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingsCreated, bookingsCompleted, bookingConflicts)
	})
}

// ObserveHTTP records a served request.
func ObserveHTTP(method, path, status string, seconds float64) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(path).Observe(seconds)
}

// IncBookingCreated increments the bookings-created counter.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncBookingCompleted increments the completion counter for a trigger label.
func IncBookingCompleted(trigger string) {
	bookingsCompleted.WithLabelValues(trigger).Inc()
}

// IncBookingConflict increments the overlap-rejection counter.
func IncBookingConflict() {
	bookingConflicts.Inc()
}
