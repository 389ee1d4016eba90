// Package mock provides a test double for the tts.Engine interface.
//
// Use Engine to verify what the speech scheduler hands to the platform
// backend and to drive utterance lifecycles by hand:
//
//	eng := &mock.Engine{VoicesResult: []tts.Voice{{Name: "Paulina", Locale: "es-MX"}}}
//	sched := speech.New(eng, speech.WithDelays(0, 0))
//	sched.Speak("hola", speech.Options{})
//	eng.FireStart()
//	eng.FireEnd()
package mock

import (
	"sync"

	"github.com/fintora/voxassist/pkg/tts"
)

// Engine is a mock implementation of [tts.Engine]. The zero value is usable.
//
// Enqueued utterances are recorded; lifecycle events are fired manually via
// FireStart, FireEnd, FireWord, and FireError so tests control timing exactly.
// Cancel fires an [tts.ErrInterrupted] error event for the pending utterance,
// matching real platform behaviour.
type Engine struct {
	mu sync.Mutex

	// VoicesResult is returned by Voices.
	VoicesResult []tts.Voice

	// --- Recorded calls ---

	// Enqueued holds every utterance handed over via Enqueue, in order.
	Enqueued []tts.Utterance

	// CancelCount, PauseCount, and ResumeCount count the respective calls.
	CancelCount int
	PauseCount  int
	ResumeCount int

	pending         *tts.Utterance // last enqueued, not yet ended or cancelled
	onVoicesChanged func()
}

var _ tts.Engine = (*Engine)(nil)

// Enqueue records u and marks it as the pending utterance.
func (e *Engine) Enqueue(u tts.Utterance) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Enqueued = append(e.Enqueued, u)
	e.pending = &u
}

// Cancel discards the pending utterance and fires its Error callback with
// [tts.ErrInterrupted], mirroring how platform engines report cancellation.
func (e *Engine) Cancel() {
	e.mu.Lock()
	e.CancelCount++
	p := e.pending
	e.pending = nil
	e.mu.Unlock()

	if p != nil && p.Events.Error != nil {
		p.Events.Error(tts.ErrInterrupted)
	}
}

// Pause increments PauseCount.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PauseCount++
}

// Resume increments ResumeCount.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ResumeCount++
}

// Voices returns VoicesResult.
func (e *Engine) Voices() []tts.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.VoicesResult
}

// OnVoicesChanged stores fn; trigger it with ChangeVoices.
func (e *Engine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onVoicesChanged = fn
}

// ChangeVoices replaces the advertised voice list and notifies the registered
// voices-changed callback, if any.
func (e *Engine) ChangeVoices(voices []tts.Voice) {
	e.mu.Lock()
	e.VoicesResult = voices
	fn := e.onVoicesChanged
	e.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Pending returns the utterance currently held by the engine, or nil.
func (e *Engine) Pending() *tts.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// FireStart fires the Start event of the pending utterance.
func (e *Engine) FireStart() {
	if u := e.Pending(); u != nil && u.Events.Start != nil {
		u.Events.Start()
	}
}

// FireWord fires a word-boundary event of the pending utterance.
func (e *Engine) FireWord(word string) {
	if u := e.Pending(); u != nil && u.Events.Word != nil {
		u.Events.Word(word)
	}
}

// FireEnd completes the pending utterance and fires its End event.
func (e *Engine) FireEnd() {
	e.mu.Lock()
	p := e.pending
	e.pending = nil
	e.mu.Unlock()

	if p != nil && p.Events.End != nil {
		p.Events.End()
	}
}

// FireError fails the pending utterance with err.
func (e *Engine) FireError(err error) {
	e.mu.Lock()
	p := e.pending
	e.pending = nil
	e.mu.Unlock()

	if p != nil && p.Events.Error != nil {
		p.Events.Error(err)
	}
}
