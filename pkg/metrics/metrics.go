// Package metrics exposes Prometheus collectors for the reconciler.
//
// Metrics collected (default namespace "vtree"):
//   - vtree_renders_total: Counter of renders by mode and status
//   - vtree_render_duration_seconds: Histogram of render duration by mode
//   - vtree_render_errors_total: Counter of failed renders by error code
//   - vtree_nodes_total: Counter of node operations (mounted, patched, moved, removed, replaced)
//   - vtree_props_applied_total: Counter of property changes pushed to the surface
//   - vtree_containers: Gauge of containers holding a rendered tree
//
// Example:
//
//	m := metrics.New(metrics.WithNamespace("myapp"))
//	r := reconcile.New(surf, reconcile.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.Handler())
//
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vtree/internal/errors"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "vtree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vtree",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the reconciler collectors.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	nodesTotal     *prometheus.CounterVec
	propsApplied   prometheus.Counter
	containers     prometheus.Gauge
}

// New registers the collectors. Like promauto, it panics if the collectors
// are already registered with the chosen registry.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of render calls",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of failed renders by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		nodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_total",
			Help:        "Total number of node operations by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		propsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "props_applied_total",
			Help:        "Total number of property changes applied to the surface",
			ConstLabels: config.ConstLabels,
		}),

		containers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "containers",
			Help:        "Number of containers holding a rendered tree",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveRender records one render call.
func (m *Metrics) ObserveRender(mode string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		code := errors.CodeOf(err)
		if code == "" {
			code = "unknown"
		}
		m.renderErrors.WithLabelValues(code).Inc()
	}
	m.rendersTotal.WithLabelValues(mode, status).Inc()
	m.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// AddNodes records n node operations of the given kind.
func (m *Metrics) AddNodes(op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.nodesTotal.WithLabelValues(op).Add(float64(n))
}

// AddProps records n property changes.
func (m *Metrics) AddProps(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.propsApplied.Add(float64(n))
}

// SetContainers records the number of live containers.
func (m *Metrics) SetContainers(n int) {
	if m == nil {
		return
	}
	m.containers.Set(float64(n))
}
