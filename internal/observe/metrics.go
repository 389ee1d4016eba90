// Package observe provides observability primitives for the voice-assistant
// core: OpenTelemetry metric instruments and a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped via
// the standard /metrics endpoint using [InitProvider]. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxassist metrics.
const meterName = "github.com/fintora/voxassist"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// UtteranceDuration tracks wall-clock playback time per spoken utterance.
	UtteranceDuration metric.Float64Histogram

	// UtterancesSpoken counts utterances that reached the engine. Use with
	// attributes: attribute.String("language", ...), attribute.String("priority", ...)
	UtterancesSpoken metric.Int64Counter

	// UtterancesDropped counts speak requests that never played. Use with
	// attribute: attribute.String("reason", "empty"|"debounce"|"preempted"|"cleared")
	UtterancesDropped metric.Int64Counter

	// SpeechQueueDepth tracks the number of pending utterances in the
	// scheduler queue.
	SpeechQueueDepth metric.Int64UpDownCounter

	// LanguageSwitches counts committed language switches. Use with
	// attributes: attribute.String("to", ...), attribute.String("trigger", "auto"|"command")
	LanguageSwitches metric.Int64Counter

	// DialogueOutcomes counts how pending prompts resolved. Use with
	// attributes: attribute.String("flow", "clarification"|"confirmation"),
	// attribute.String("outcome", "matched"|"cancelled"|"no_match"|"timeout")
	DialogueOutcomes metric.Int64Counter

	// EngineErrors counts synthesis-engine failures that were not caused by
	// deliberate interruption.
	EngineErrors metric.Int64Counter
}

// durationBuckets defines histogram bucket boundaries (in seconds) sized for
// spoken utterances, which run from sub-second acks to long explanations.
var durationBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.UtteranceDuration, err = m.Float64Histogram("voxassist.speech.utterance.duration",
		metric.WithDescription("Playback duration of spoken utterances."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.UtterancesSpoken, err = m.Int64Counter("voxassist.speech.utterances.spoken",
		metric.WithDescription("Total utterances handed to the synthesis engine, by language and priority."),
	); err != nil {
		return nil, err
	}
	if met.UtterancesDropped, err = m.Int64Counter("voxassist.speech.utterances.dropped",
		metric.WithDescription("Total speak requests dropped before playback, by reason."),
	); err != nil {
		return nil, err
	}
	if met.SpeechQueueDepth, err = m.Int64UpDownCounter("voxassist.speech.queue.depth",
		metric.WithDescription("Number of utterances waiting in the speech queue."),
	); err != nil {
		return nil, err
	}
	if met.LanguageSwitches, err = m.Int64Counter("voxassist.lang.switches",
		metric.WithDescription("Total committed language switches, by target language and trigger."),
	); err != nil {
		return nil, err
	}
	if met.DialogueOutcomes, err = m.Int64Counter("voxassist.dialogue.outcomes",
		metric.WithDescription("Resolved dialogue prompts, by flow and outcome."),
	); err != nil {
		return nil, err
	}
	if met.EngineErrors, err = m.Int64Counter("voxassist.speech.engine.errors",
		metric.WithDescription("Synthesis engine errors not caused by deliberate interruption."),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDrop increments the dropped-utterance counter with the given reason.
// Safe to call on a nil receiver.
func (m *Metrics) RecordDrop(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.UtterancesDropped.Add(ctx, 1, metric.WithAttributes(Attr("reason", reason)))
}

// RecordSpoken increments the spoken-utterance counter. Safe to call on a nil
// receiver.
func (m *Metrics) RecordSpoken(ctx context.Context, language, priority string) {
	if m == nil {
		return
	}
	m.UtterancesSpoken.Add(ctx, 1, metric.WithAttributes(
		Attr("language", language),
		Attr("priority", priority),
	))
}

// RecordOutcome increments the dialogue-outcome counter. Safe to call on a
// nil receiver.
func (m *Metrics) RecordOutcome(ctx context.Context, flow, outcome string) {
	if m == nil {
		return
	}
	m.DialogueOutcomes.Add(ctx, 1, metric.WithAttributes(
		Attr("flow", flow),
		Attr("outcome", outcome),
	))
}

// RecordSwitch increments the language-switch counter. Safe to call on a nil
// receiver.
func (m *Metrics) RecordSwitch(ctx context.Context, to, trigger string) {
	if m == nil {
		return
	}
	m.LanguageSwitches.Add(ctx, 1, metric.WithAttributes(
		Attr("to", to),
		Attr("trigger", trigger),
	))
}

// AddQueueDepth adjusts the queue-depth gauge by delta. Safe to call on a nil
// receiver.
func (m *Metrics) AddQueueDepth(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.SpeechQueueDepth.Add(ctx, delta)
}

// RecordEngineError increments the engine-error counter. Safe to call on a
// nil receiver.
func (m *Metrics) RecordEngineError(ctx context.Context) {
	if m == nil {
		return
	}
	m.EngineErrors.Add(ctx, 1)
}
