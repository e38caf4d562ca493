package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BookingsCreated counts stored bookings by how they were admitted (paid or manual).
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "bookings_created_total",
			Help:      "The total number of bookings written to the ledger",
		},
		[]string{"kind"},
	)

	// AdmissionsRejected counts rejected booking requests by error code.
	AdmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "admissions_rejected_total",
			Help:      "The total number of rejected booking requests",
		},
		[]string{"code"},
	)

	// PaidButUnbooked counts captured payments that ended without a booking.
	PaidButUnbooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "paid_but_unbooked_total",
			Help:      "The total number of verified payments that could not be booked",
		},
	)

	// UnbookedOpen is the number of unresolved paid-but-unbooked incidents.
	UnbookedOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reservations",
			Name:      "unbooked_payments_open",
			Help:      "Unresolved payments that were captured without a booking",
		},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "booking_transitions_total",
			Help:      "The total number of booking status changes",
		},
		[]string{"from", "to"},
	)

	// PaymentVerifyDuration observes the time spent in the payment gate.
	PaymentVerifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reservations",
			Name:      "payment_verify_duration_seconds",
			Help:      "Time spent verifying payments with the processor",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "The total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "http",
			Name:       "request_duration_seconds",
			Help:       "The time spent serving HTTP requests",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"method", "route"},
	)
)

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.With(prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}).Inc()
		HTTPRequestDuration.With(prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
		}).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
