// Package metrics exposes Prometheus metrics for the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "grc"
	subsystem = "auth"
)

// Login outcomes.
const (
	LoginSuccess        = "success"
	LoginInvalidInput   = "invalid_input"
	LoginRateLimited    = "rate_limited"
	LoginLocked         = "locked"
	LoginBadCredentials = "bad_credentials"
	LoginInactive       = "inactive"
	LoginLicenseDenied  = "license_denied"
	LoginError          = "error"
)

// Refresh outcomes.
const (
	RefreshSuccess     = "success"
	RefreshRateLimited = "rate_limited"
	RefreshRejected    = "rejected"
	RefreshError       = "error"
)

// Gate decisions.
const (
	GateBypass  = "bypass"
	GateBearer  = "bearer"
	GateSession = "session"
	GateReject  = "reject"
	GateError   = "error"
)

var (
	// LoginAttempts counts login attempts by outcome
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Lockouts counts usernames that crossed the failure threshold
	Lockouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lockouts_total",
			Help:      "Total number of username lockouts",
		},
	)

	// TokenRefreshes counts refresh exchanges by outcome
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "token_refresh_total",
			Help:      "Total number of refresh token exchanges by outcome",
		},
		[]string{"outcome"},
	)

	// GateDecisions counts request gate outcomes
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gate_decisions_total",
			Help:      "Total number of request gate decisions",
		},
		[]string{"decision"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
)

// RecordLogin counts one login attempt.
func RecordLogin(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

// RecordRefresh counts one refresh exchange.
func RecordRefresh(outcome string) {
	TokenRefreshes.WithLabelValues(outcome).Inc()
}

// RecordGate counts one gate decision.
func RecordGate(decision string) {
	GateDecisions.WithLabelValues(decision).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Middleware records request durations. route maps a request onto a low
// cardinality label; requests it cannot place are labelled "unmatched".
func Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			label := ""
			if route != nil {
				label = route(r)
			}
			if label == "" {
				label = "unmatched"
			}

			next.ServeHTTP(rw, r)

			HTTPRequestDuration.
				WithLabelValues(r.Method, label, strconv.Itoa(rw.statusCode)).
				Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
