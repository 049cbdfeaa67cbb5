// Package observe provides observability primitives for Rostra: OpenTelemetry
// metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Rostra metrics.
const meterName = "github.com/rostralabs/rostra"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranscriptionDuration tracks speech-to-text latency per take.
	TranscriptionDuration metric.Float64Histogram

	// GenerationDuration tracks synthesis call latency. Use with attribute:
	//   attribute.String("kind", "curate"|"livesync"|"fullscript")
	GenerationDuration metric.Float64Histogram

	// TakesRecorded counts committed takes. Use with attribute:
	//   attribute.String("mode", ...)
	TakesRecorded metric.Int64Counter

	// SynthesisCalls counts synthesis invocations. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	SynthesisCalls metric.Int64Counter

	// ProviderErrors counts external capability failures. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// ActiveCaptureSessions tracks live-listening streams; at most one is
	// expected at a time.
	ActiveCaptureSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// batch transcription and LLM round trips.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("rostra.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("rostra.generation.duration",
		metric.WithDescription("Latency of text-generation synthesis calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TakesRecorded, err = m.Int64Counter("rostra.takes.recorded",
		metric.WithDescription("Total committed takes by practice mode."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisCalls, err = m.Int64Counter("rostra.synthesis.calls",
		metric.WithDescription("Total synthesis invocations by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("rostra.provider.errors",
		metric.WithDescription("Total external capability errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveCaptureSessions, err = m.Int64UpDownCounter("rostra.active_capture_sessions",
		metric.WithDescription("Number of live audio-capture sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTake records a committed take.
func (m *Metrics) RecordTake(ctx context.Context, mode string) {
	m.TakesRecorded.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", mode)),
	)
}

// RecordSynthesis records one synthesis invocation outcome.
func (m *Metrics) RecordSynthesis(ctx context.Context, kind, status string) {
	m.SynthesisCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records one external capability failure.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
