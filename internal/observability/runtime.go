package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Netlighter/messenger/internal/config"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime bundles the telemetry providers the chat server starts with
// so main can shut them both down with one call after the HTTP
// listener drains.
type Runtime struct {
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

// InitRuntime starts metrics first, then tracing. If tracing fails the
// already-running meter provider is shut down again so a half-built
// runtime never leaks an exporter goroutine.
func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	mp, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		if mp != nil {
			err = errors.Join(err, mp.Shutdown(ctx))
		}
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return &Runtime{MeterProvider: mp, TracerProvider: tp}, nil
}

// Shutdown flushes traces before metrics: ending the last request spans
// still bumps the auth and repository counters, and the final metric
// export should carry those increments. Safe on a nil receiver so main
// can defer it unconditionally.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
