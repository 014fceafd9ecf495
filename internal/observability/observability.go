// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the gateway. Both are optional and nil-safe.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/mfateev/ptygw/internal/config"
)

// Observability bundles the optional components. Any field may be nil.
type Observability struct {
	Metrics *Metrics
	Tracing *TracerSetup
}

// New builds metrics (always) and tracing (when enabled in cfg).
func New(ctx context.Context, cfg *config.Config) (*Observability, error) {
	obs := &Observability{Metrics: NewMetrics()}
	if cfg == nil {
		return obs, nil
	}

	ts, err := NewTracerSetup(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	obs.Tracing = ts
	return obs, nil
}

// Tracer returns the configured tracer or a no-op one.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil {
		return (*TracerSetup)(nil).Tracer()
	}
	return o.Tracing.Tracer()
}

// MetricsOrNil returns the collectors or nil.
func (o *Observability) MetricsOrNil() *Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}

// Shutdown releases observability resources.
func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	_ = o.Tracing.Shutdown(ctx)
}
