// Package otel exports cache.Metrics through an OpenTelemetry MeterProvider.
package otel

import (
	"context"
	"fmt"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/IvanBrykalov/stripecache/cache"
)

const (
	defaultInstrumentationName = "github.com/IvanBrykalov/stripecache"

	metricHits      = "cache.hits"
	metricMisses    = "cache.misses"
	metricEvictions = "cache.evictions"
	metricSize      = "cache.size"
)

type config struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
	attrs               []attribute.KeyValue
}

// Option configures an Adapter.
type Option func(*config)

// WithInstrumentationName sets the meter name. Empty keeps the default.
func WithInstrumentationName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider sets the MeterProvider. nil keeps the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithAttributes attaches static attributes (e.g. cache name, policy) to
// every measurement.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(cfg *config) {
		cfg.attrs = append(cfg.attrs, attrs...)
	}
}

// Adapter implements cache.Metrics with OTel instruments.
type Adapter struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	evicts metric.Int64Counter
	size   metric.Int64Gauge

	addOpt    metric.AddOption
	recordOpt metric.RecordOption
}

// New creates the instruments on the configured meter.
func New(opts ...Option) (*Adapter, error) {
	cfg := &config{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otelapi.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	counter := func(name, desc string) (metric.Int64Counter, error) {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{entry}"))
		if err != nil {
			return nil, fmt.Errorf("otel: create counter %s: %w", name, err)
		}
		return c, nil
	}

	a := &Adapter{}
	var err error
	if a.hits, err = counter(metricHits, "cache lookups that found the key"); err != nil {
		return nil, err
	}
	if a.misses, err = counter(metricMisses, "cache lookups that missed"); err != nil {
		return nil, err
	}
	if a.evicts, err = counter(metricEvictions, "entries evicted by the replacement policy"); err != nil {
		return nil, err
	}
	a.size, err = meter.Int64Gauge(metricSize,
		metric.WithDescription("resident entries"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return nil, fmt.Errorf("otel: create gauge %s: %w", metricSize, err)
	}

	set := attribute.NewSet(cfg.attrs...)
	a.addOpt = metric.WithAttributeSet(set)
	a.recordOpt = metric.WithAttributeSet(set)
	return a, nil
}

// Hit records a cache hit.
func (a *Adapter) Hit() { a.hits.Add(context.Background(), 1, a.addOpt) }

// Miss records a cache miss.
func (a *Adapter) Miss() { a.misses.Add(context.Background(), 1, a.addOpt) }

// Evict records one eviction.
func (a *Adapter) Evict() { a.evicts.Add(context.Background(), 1, a.addOpt) }

// Size records the current number of entries.
func (a *Adapter) Size(entries int) {
	a.size.Record(context.Background(), int64(entries), a.recordOpt)
}

var _ cache.Metrics = (*Adapter)(nil)
