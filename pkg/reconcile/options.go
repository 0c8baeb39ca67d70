package reconcile

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/pkg/metrics"
)

// DefaultTracerName is the instrumentation name used when no tracer is set.
const DefaultTracerName = "github.com/vango-dev/vtree/pkg/reconcile"

// KeyPolicy decides how duplicate keys among siblings are handled.
type KeyPolicy uint8

const (
	// KeysFirstMatch lets every old child be matched at most once. A repeated
	// key in the new list binds the next unused old child with that key, or
	// is mounted fresh when none is left.
	KeysFirstMatch KeyPolicy = iota

	// KeysStrict rejects sibling lists with duplicate keys with R004 before
	// any of the siblings is touched.
	KeysStrict
)

// String returns the configuration spelling of the policy.
func (p KeyPolicy) String() string {
	switch p {
	case KeysFirstMatch:
		return "first-match"
	case KeysStrict:
		return "strict"
	default:
		return fmt.Sprintf("KeyPolicy(%d)", uint8(p))
	}
}

// ParseKeyPolicy parses "first-match" or "strict". The empty string selects
// KeysFirstMatch.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch s {
	case "", "first-match":
		return KeysFirstMatch, nil
	case "strict":
		return KeysStrict, nil
	default:
		return KeysFirstMatch, fmt.Errorf("unknown key policy %q", s)
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for debug traces of node operations and render
// failures. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records render outcomes and node operation counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for render spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Renderer) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithTracerName resolves the tracer from the global provider under name.
func WithTracerName(name string) Option {
	return func(r *Renderer) {
		r.tracer = otel.Tracer(name)
	}
}

// WithKeyPolicy sets the duplicate key policy.
func WithKeyPolicy(p KeyPolicy) Option {
	return func(r *Renderer) {
		r.keyPolicy = p
	}
}
