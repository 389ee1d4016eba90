// Package null provides a tts.Engine that produces no audio but drives the
// full utterance lifecycle. Useful for development and dry runs where no
// synthesis backend is available.
package null

import (
	"strings"
	"sync"
	"time"

	"github.com/fintora/voxassist/pkg/tts"
)

// wordInterval paces the simulated playback: one word boundary event per
// interval, scaled by the utterance rate.
const wordInterval = 150 * time.Millisecond

// Engine simulates playback by firing Start, one Word event per whitespace
// token, and End, paced by [wordInterval].
type Engine struct {
	mu              sync.Mutex
	stop            chan struct{}
	paused          bool
	unpause         chan struct{}
	onVoicesChanged func()
}

var _ tts.Engine = (*Engine)(nil)

// New creates a null engine.
func New() *Engine {
	return &Engine{unpause: make(chan struct{})}
}

// Enqueue simulates playback of u in a background goroutine, cancelling any
// in-flight utterance first.
func (e *Engine) Enqueue(u tts.Utterance) {
	e.mu.Lock()
	if e.stop != nil {
		close(e.stop)
	}
	stop := make(chan struct{})
	e.stop = stop
	e.mu.Unlock()

	go e.play(u, stop)
}

// Cancel stops the in-flight utterance; its Error callback fires with
// tts.ErrInterrupted.
func (e *Engine) Cancel() {
	e.mu.Lock()
	stop := e.stop
	e.stop = nil
	e.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// Pause suspends simulated playback until [Engine.Resume].
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		e.paused = true
		e.unpause = make(chan struct{})
	}
}

// Resume continues simulated playback.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		e.paused = false
		close(e.unpause)
	}
}

// Voices reports two built-in placeholder voices, one per supported language.
func (e *Engine) Voices() []tts.Voice {
	return []tts.Voice{
		{Name: "Null English", Locale: "en-US", LocalService: true, Default: true},
		{Name: "Null Spanish", Locale: "es-ES", LocalService: true},
	}
}

// OnVoicesChanged registers the voices-changed callback. The null engine's
// voice list never changes, so the callback never fires.
func (e *Engine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	e.onVoicesChanged = fn
	e.mu.Unlock()
}

func (e *Engine) play(u tts.Utterance, stop chan struct{}) {
	interval := wordInterval
	if u.Rate > 0 {
		interval = time.Duration(float64(wordInterval) / u.Rate)
	}

	if u.Events.Start != nil {
		u.Events.Start()
	}

	for _, word := range strings.Fields(u.Text) {
		if !e.waitResumed(stop) {
			e.interrupted(u)
			return
		}
		select {
		case <-stop:
			e.interrupted(u)
			return
		case <-time.After(interval):
		}
		if u.Events.Word != nil {
			u.Events.Word(word)
		}
	}

	if u.Events.End != nil {
		u.Events.End()
	}
}

// waitResumed blocks while paused. It reports false if the utterance was
// cancelled while waiting.
func (e *Engine) waitResumed(stop chan struct{}) bool {
	e.mu.Lock()
	paused := e.paused
	unpause := e.unpause
	e.mu.Unlock()

	if !paused {
		return true
	}
	select {
	case <-stop:
		return false
	case <-unpause:
		return true
	}
}

func (e *Engine) interrupted(u tts.Utterance) {
	if u.Events.Error != nil {
		u.Events.Error(tts.ErrInterrupted)
	}
}
