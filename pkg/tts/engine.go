// Package tts defines the Engine interface for platform speech synthesis
// backends.
//
// An Engine wraps a speech synthesis service (e.g., a local Piper instance or
// an operating-system voice) and presents a uniform asynchronous contract:
// utterances are handed over with [Engine.Enqueue] and their lifecycle is
// reported back through [Events] callbacks. The speech scheduler in
// internal/speech owns all queueing and ordering decisions; an Engine only
// ever holds the single utterance most recently enqueued.
//
// Implementations must be safe for concurrent use.
package tts

import "errors"

// ErrInterrupted is reported through [Events.Error] when synthesis stops
// because of a deliberate [Engine.Cancel] call. Callers that cancelled on
// purpose should treat it as a normal end of playback, not a failure.
var ErrInterrupted = errors.New("tts: synthesis interrupted")

// Voice describes a synthesis voice advertised by an [Engine].
type Voice struct {
	// Name is the human-readable voice name (e.g., "Paulina", "en_US-lessac").
	// Gender is not reported explicitly by most platforms and is inferred
	// from the name by the scheduler.
	Name string

	// Locale is the BCP-47 language tag of the voice (e.g., "es-MX", "en").
	Locale string

	// LocalService reports whether the voice is hosted locally rather than
	// streamed from a remote service. Local voices are preferred when no
	// gender-specific match exists.
	LocalService bool

	// Default marks the platform's default voice.
	Default bool
}

// Events carries the lifecycle callbacks for one enqueued utterance.
// Any field may be nil. Implementations must invoke callbacks from at most
// one goroutine per utterance and never concurrently for the same utterance.
type Events struct {
	// Start fires when audio output actually begins.
	Start func()

	// End fires when the utterance finished playing normally.
	End func()

	// Word fires on word boundaries during playback, when the backend
	// supports boundary reporting.
	Word func(word string)

	// Error fires when synthesis fails or is cancelled. Cancellation is
	// reported as [ErrInterrupted].
	Error func(err error)
}

// Utterance is a single synthesis request handed to an [Engine].
type Utterance struct {
	// ID is the scheduler-assigned identifier, carried through for logging.
	ID string

	// Text is the sanitized text to synthesise.
	Text string

	// Voice selects a specific voice. When nil the engine uses its default
	// voice for Lang.
	Voice *Voice

	// Lang is the BCP-47 language tag to synthesise in (e.g., "es-MX").
	Lang string

	// Rate is the speaking rate multiplier (1.0 = default).
	Rate float64

	// Pitch is the pitch multiplier (1.0 = default).
	Pitch float64

	// Volume is the output volume in [0, 1].
	Volume float64

	// Events receives lifecycle notifications for this utterance.
	Events Events
}

// Engine is the abstraction over a platform text-to-speech backend.
//
// Enqueue must not block on synthesis; lifecycle progress is reported through
// [Utterance.Events]. Cancel discards any queued or playing audio — affected
// utterances receive an [ErrInterrupted] error event.
type Engine interface {
	// Enqueue submits an utterance for synthesis and playback.
	Enqueue(u Utterance)

	// Cancel stops current playback and discards pending engine-level audio.
	// Cancelling an idle engine is a no-op.
	Cancel()

	// Pause suspends current playback. A no-op when nothing is playing.
	Pause()

	// Resume continues paused playback. A no-op when not paused.
	Resume()

	// Voices returns the voices currently available from this engine.
	// The list may change over time; see OnVoicesChanged.
	Voices() []Voice

	// OnVoicesChanged registers fn to be invoked whenever the voice list
	// changes. Only one callback may be active at a time; subsequent calls
	// replace the previous registration.
	OnVoicesChanged(fn func())
}
