package history

import (
	"context"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
)

// DefaultLatency is the simulated delay before a lookup resolves
const DefaultLatency = 100 * time.Millisecond

// Source resolves a section id to its record.
// A nil record with a nil error means the section is unknown.
type Source interface {
	Lookup(ctx context.Context, sectionID string) (*Record, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context, sectionID string) (*Record, error)

// Lookup calls f(ctx, sectionID)
func (f SourceFunc) Lookup(ctx context.Context, sectionID string) (*Record, error) {
	return f(ctx, sectionID)
}

// TableSource serves lookups from an immutable Table
type TableSource struct {
	table *Table
}

// NewTableSource creates a Source backed by table
func NewTableSource(table *Table) *TableSource {
	return &TableSource{table: table}
}

// Lookup returns a fresh copy of the record, or nil when the section is unknown
func (s *TableSource) Lookup(ctx context.Context, sectionID string) (*Record, error) {
	rec, ok := s.table.Lookup(sectionID)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Table returns the backing table
func (s *TableSource) Table() *Table {
	return s.table
}

// Lookup outcomes reported to a Recorder
const (
	OutcomeFound  = "found"
	OutcomeAbsent = "absent"
	OutcomeError  = "error"
)

// Reasons a pending resolution was abandoned
const (
	CancelSuperseded = "superseded"
	CancelClosed     = "closed"
	CancelContext    = "context"
)

// Recorder receives lookup telemetry.
// observability.Metrics implements it.
type Recorder interface {
	RecordLookup(outcome string, duration time.Duration)
	RecordCancelled(reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLookup(string, time.Duration) {}
func (nopRecorder) RecordCancelled(string)             {}

type options struct {
	clock    clockwork.Clock
	latency  time.Duration
	logger   *observability.Logger
	recorder Recorder
}

// Option configures a Watcher or Resolver
type Option func(*options)

// WithClock sets the clock used for the simulated latency
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLatency sets the simulated latency. Negative values are treated as zero.
func WithLatency(latency time.Duration) Option {
	return func(o *options) {
		if latency < 0 {
			latency = 0
		}
		o.latency = latency
	}
}

// WithLogger sets the logger used for lookup failures
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the telemetry recorder
func WithRecorder(recorder Recorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		clock:    clockwork.NewRealClock(),
		latency:  DefaultLatency,
		logger:   observability.NewLogger(observability.InfoLevel, io.Discard),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// lookup runs a source lookup and folds errors into an absent result.
// Failures are logged and counted, never surfaced.
func lookup(ctx context.Context, source Source, sectionID string, o options) *Record {
	if sectionID == "" {
		o.recorder.RecordLookup(OutcomeAbsent, 0)
		return nil
	}

	start := o.clock.Now()
	rec, err := source.Lookup(ctx, sectionID)
	elapsed := o.clock.Since(start)

	switch {
	case err != nil && ctx.Err() != nil:
		// Abandoned mid-lookup; the caller counts the cancellation
		return nil
	case err != nil:
		o.recorder.RecordLookup(OutcomeError, elapsed)
		o.logger.WithField("section", sectionID).WithError(err).Warn("history lookup failed, resolving as absent")
		return nil
	case rec == nil:
		o.recorder.RecordLookup(OutcomeAbsent, elapsed)
		return nil
	default:
		o.recorder.RecordLookup(OutcomeFound, elapsed)
		return rec
	}
}
