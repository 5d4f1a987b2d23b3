package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"aidat-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Auth metrics
	LoginCounter     prometheus.Counter
	RegisterCounter  prometheus.Counter
	AuthErrorCounter *prometheus.CounterVec

	// Domain lifecycle metrics
	InviteCounter        *prometheus.CounterVec
	PaymentCounter       *prometheus.CounterVec
	DueCreatedCounter    prometheus.Counter
	PasswordResetCounter *prometheus.CounterVec
	RateLimitedCounter   *prometheus.CounterVec
	EmailCounter         *prometheus.CounterVec

	// Request metrics
	HTTPRequestCounter *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec

	// Database operation metrics
	DBOperationDuration *prometheus.HistogramVec

	// System info
	InfoGauge *prometheus.GaugeVec

	// Namespace prefix for metrics
	namespace string
)

// InitMetrics initializes all Prometheus metrics
func InitMetrics(cfg *config.Config) {
	namespace = cfg.Metrics.Prefix

	LoginCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_total",
		Help:      "Total number of login attempts",
	})

	RegisterCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "register_total",
		Help:      "Total number of admin registrations",
	})

	AuthErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_errors_total",
			Help:      "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "login_failure", "invalid_token", "db_error" etc.
	)

	InviteCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_total",
			Help:      "Total number of invite operations",
		},
		[]string{"operation"}, // operation can be "created", "validated", "accepted"
	)

	PaymentCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Total number of payment operations",
		},
		[]string{"operation"}, // operation can be "uploaded", "reuploaded", "approved", "rejected"
	)

	DueCreatedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dues_created_total",
		Help:      "Total number of dues published",
	})

	PasswordResetCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Total number of password reset operations",
		},
		[]string{"operation"}, // operation can be "requested", "completed"
	)

	RateLimitedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
		[]string{"action"},
	)

	EmailCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Total number of outbound email attempts",
		},
		[]string{"kind", "outcome"}, // kind: "invite", "payment_status", "password_reset"; outcome: "sent", "failed"
	)

	HTTPRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_operation_duration_seconds",
			Help:      "Duration of database operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)

	InfoGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "info",
			Help:      "Information about the dues service",
		},
		[]string{"version"},
	)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordInviteOperation records an invite lifecycle operation
func RecordInviteOperation(operation string) {
	InviteCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordPaymentOperation records a payment lifecycle operation
func RecordPaymentOperation(operation string) {
	PaymentCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordPasswordReset records a password reset operation
func RecordPasswordReset(operation string) {
	PasswordResetCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordRateLimited records a request rejected by the rate limiter
func RecordRateLimited(action string) {
	RateLimitedCounter.With(prometheus.Labels{"action": action}).Inc()
}

// RecordEmail records an outbound email attempt
func RecordEmail(kind string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	EmailCounter.With(prometheus.Labels{"kind": kind, "outcome": outcome}).Inc()
}
