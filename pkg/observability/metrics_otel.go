package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments mirroring the
// Prometheus history and cache metrics. With OTel disabled the global meter
// provider is a no-op, so recording is always safe.
type OTelMetrics struct {
	lookupsTotal   metric.Int64Counter
	lookupDuration metric.Float64Histogram
	cancelledTotal metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheErrors    metric.Int64Counter
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	return NewOTelMetricsWithProvider(otel.GetMeterProvider())
}

// NewOTelMetricsWithProvider creates instruments on provider
func NewOTelMetricsWithProvider(provider metric.MeterProvider) (*OTelMetrics, error) {
	meter := provider.Meter("github.com/noahsabaj/hearth-docs")

	m := &OTelMetrics{}
	var err error

	m.lookupsTotal, err = meter.Int64Counter(
		"history.lookups",
		metric.WithDescription("Section history lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history.lookups counter: %w", err)
	}

	m.lookupDuration, err = meter.Float64Histogram(
		"history.lookup.duration",
		metric.WithDescription("Time spent in the history source"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history.lookup.duration histogram: %w", err)
	}

	m.cancelledTotal, err = meter.Int64Counter(
		"history.cancelled",
		metric.WithDescription("Pending resolutions abandoned before delivery"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history.cancelled counter: %w", err)
	}

	m.cacheHits, err = meter.Int64Counter("cache.hits", metric.WithDescription("Cache hits by tier"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.hits counter: %w", err)
	}
	m.cacheMisses, err = meter.Int64Counter("cache.misses", metric.WithDescription("Cache misses by tier"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.misses counter: %w", err)
	}
	m.cacheErrors, err = meter.Int64Counter("cache.errors", metric.WithDescription("Cache backend errors by tier"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache.errors counter: %w", err)
	}

	return m, nil
}

// RecordLookup records a history lookup
func (m *OTelMetrics) RecordLookup(outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.lookupsTotal.Add(context.Background(), 1, attrs)
	m.lookupDuration.Record(context.Background(), duration.Seconds(), attrs)
}

// RecordCancelled records an abandoned resolution
func (m *OTelMetrics) RecordCancelled(reason string) {
	m.cancelledTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// CacheHit records a hit in tier
func (m *OTelMetrics) CacheHit(tier string) {
	m.cacheHits.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// CacheMiss records a miss in tier
func (m *OTelMetrics) CacheMiss(tier string) {
	m.cacheMisses.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// CacheError records a backend error in tier
func (m *OTelMetrics) CacheError(tier string) {
	m.cacheErrors.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tier", tier)))
}
