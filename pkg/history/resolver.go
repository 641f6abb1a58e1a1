package history

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/noahsabaj/hearth-docs/pkg/history")

// Resolver performs one-shot lookups that wait out the simulated latency
type Resolver struct {
	source Source
	opts   options
}

// NewResolver creates a resolver over source
func NewResolver(source Source, opts ...Option) *Resolver {
	return &Resolver{
		source: source,
		opts:   buildOptions(opts),
	}
}

// Resolve waits for the latency and then looks up sectionID.
// A nil record means the section is unknown. The only error is the context's:
// a cancelled context abandons the invocation without a result.
func (r *Resolver) Resolve(ctx context.Context, sectionID string) (*Record, error) {
	ctx, span := tracer.Start(ctx, "history.Resolve",
		trace.WithAttributes(attribute.String("history.section", sectionID)),
	)
	defer span.End()

	timer := r.opts.clock.NewTimer(r.opts.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		r.opts.recorder.RecordCancelled(CancelContext)
		span.SetAttributes(attribute.Bool("history.cancelled", true))
		return nil, ctx.Err()
	case <-timer.Chan():
	}

	rec := lookup(ctx, r.source, sectionID, r.opts)
	if err := ctx.Err(); err != nil {
		r.opts.recorder.RecordCancelled(CancelContext)
		span.SetAttributes(attribute.Bool("history.cancelled", true))
		return nil, err
	}
	span.SetAttributes(attribute.Bool("history.found", rec != nil))
	return rec, nil
}

// Latency returns the configured simulated latency
func (r *Resolver) Latency() time.Duration {
	return r.opts.latency
}

// Resolve is a one-shot convenience for NewResolver(source, opts...).Resolve
func Resolve(ctx context.Context, source Source, sectionID string, opts ...Option) (*Record, error) {
	return NewResolver(source, opts...).Resolve(ctx, sectionID)
}
