package middleware

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/folio/pkg/auth"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "folio").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for call duration.
	// Default: buckets covering the simulated login latency.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "folio",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 0.8, 1, 1.25, 1.5, 2, 5},
		Registry:    prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for folio.
type metrics struct {
	loginsTotal   *prometheus.CounterVec
	loginDuration prometheus.Histogram
	loginErrors   *prometheus.CounterVec
	resetsTotal   *prometheus.CounterVec
	activeClients prometheus.Gauge
	commandsSent  prometheus.Counter
	wsErrors      *prometheus.CounterVec
}

// globalMetrics is the singleton metrics instance.
// Created on first call to Prometheus().
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

// initMetrics initializes the Prometheus metrics.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		loginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "logins_total",
			Help:        "Total number of login attempts by result status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		loginDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "login_duration_seconds",
			Help:        "Login backend call duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		loginErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "login_errors_total",
			Help:        "Total number of login backend errors",
			ConstLabels: config.ConstLabels,
		}, []string{"error_type"}),

		resetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "password_resets_total",
			Help:        "Total number of password reset requests by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		activeClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_clients",
			Help:        "Number of connected websocket clients",
			ConstLabels: config.ConstLabels,
		}),

		commandsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dom_commands_sent_total",
			Help:        "Total number of DOM commands sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for the
// auth backend.
//
// Metrics collected:
//   - folio_logins_total: Counter of login attempts by status (200, 400, 401, 404, 500)
//   - folio_login_duration_seconds: Histogram of backend login duration
//   - folio_login_errors_total: Counter of backend errors by type
//   - folio_password_resets_total: Counter of reset requests by result
//   - folio_active_clients: Gauge of connected clients (RecordClientConnect)
//   - folio_dom_commands_sent_total: Counter of DOM commands (RecordCommands)
//   - folio_websocket_errors_total: Counter of WebSocket errors
//
// Example:
//
//	api := middleware.Chain(auth.NewMockAPI(),
//	    middleware.Prometheus(middleware.WithNamespace("folio")),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Initialize metrics once
	globalMetricsMu.Lock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
	m := globalMetrics
	globalMetricsMu.Unlock()

	return func(next auth.API) auth.API {
		return Funcs{
			LoginFunc: func(ctx context.Context, identifier, password string) (auth.LoginResult, error) {
				start := time.Now()
				res, err := next.Login(ctx, identifier, password)
				m.loginDuration.Observe(time.Since(start).Seconds())

				status := strconv.Itoa(res.Status)
				if err != nil {
					status = "error"
					m.loginErrors.WithLabelValues(categorizeError(err)).Inc()
				}
				m.loginsTotal.WithLabelValues(status).Inc()
				return res, err
			},
			ResetFunc: func(ctx context.Context, email string) (auth.ResetResult, error) {
				res, err := next.RequestPasswordReset(ctx, email)

				result := "sent"
				switch {
				case err != nil:
					result = "error"
				case !res.Success:
					result = "unknown_account"
				}
				m.resetsTotal.WithLabelValues(result).Inc()
				return res, err
			},
		}
	}
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "canceled"):
		return "canceled"
	case strings.Contains(errStr, "panic"):
		return "panic"
	case strings.Contains(errStr, "connection"):
		return "connection"
	default:
		return "internal"
	}
}

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordClientConnect records a websocket client connecting.
func RecordClientConnect() {
	if m := current(); m != nil {
		m.activeClients.Inc()
	}
}

// RecordClientDisconnect records a websocket client going away.
func RecordClientDisconnect() {
	if m := current(); m != nil {
		m.activeClients.Dec()
	}
}

// RecordCommands records the number of DOM commands sent.
func RecordCommands(count int) {
	if m := current(); m != nil {
		m.commandsSent.Add(float64(count))
	}
}

// RecordWebSocketError records a WebSocket error.
func RecordWebSocketError(errorType string) {
	if m := current(); m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

func current() *metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	return globalMetrics
}
