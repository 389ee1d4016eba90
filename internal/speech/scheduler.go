// Package speech implements the single-voice speech output scheduler.
//
// The scheduler accepts speak requests, sanitizes their text, deduplicates
// rapid-fire repeats, and queues them by priority band with stable FIFO
// ordering inside each band. Exactly one utterance is ever active on the
// underlying [tts.Engine]; a critical request preempts whatever is playing
// and flushes the queue. Lifecycle progress is reported through per-request
// callbacks, and engine failures never stall the queue — playback always
// advances to the next pending utterance.
//
// A Scheduler is constructed explicitly by the application's composition
// root and passed by reference to anything that needs to speak; the
// single-audio-channel guarantee comes from constructing exactly one, not
// from hidden global state.
//
// All exported methods are safe for concurrent use.
package speech

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fintora/voxassist/internal/observe"
	"github.com/fintora/voxassist/pkg/tts"
)

// Priority is the scheduling band of a speak request.
// The zero value is treated as [PriorityNormal].
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the band name for logging and metric attributes.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

const (
	// DefaultDebounce is the window within which an identical sanitized text
	// is silently dropped as a duplicate.
	DefaultDebounce = 300 * time.Millisecond

	// defaultGuardDelay is the pause between dequeuing an utterance and
	// handing it to the engine, letting a prior engine-level cancel land.
	defaultGuardDelay = 80 * time.Millisecond

	// defaultGraceDelay is the pause between an utterance finishing (or
	// failing) and the next dequeue.
	defaultGraceDelay = 120 * time.Millisecond
)

// Options is the per-request options bag for [Scheduler.Speak].
type Options struct {
	// Language is the BCP-47 tag to synthesise in (e.g., "es-MX").
	// Empty falls back to the scheduler's default language.
	Language string

	// Rate, Pitch, and Volume adjust delivery; zero values take the
	// scheduler defaults (1.0, 1.0, 1.0).
	Rate   float64
	Pitch  float64
	Volume float64

	// VoiceName selects a specific engine voice by name, bypassing
	// locale/gender resolution.
	VoiceName string

	// Gender is the preferred voice gender when no VoiceName is given.
	Gender Gender

	// Priority selects the scheduling band; zero means normal.
	Priority Priority

	// Lifecycle callbacks. All optional; invoked without any scheduler
	// lock held, so they may call back into the scheduler.
	OnStart func(id string)
	OnEnd   func(id string)
	OnError func(id string, err error)
	OnWord  func(id, word string)
}

// Scheduler serialises spoken output onto one [tts.Engine].
type Scheduler struct {
	engine  tts.Engine
	metrics *observe.Metrics
	now     func() time.Time

	debounce   time.Duration
	guardDelay time.Duration
	graceDelay time.Duration

	defaultLang   string
	defaultRate   float64
	defaultPitch  float64
	defaultVolume float64

	mu       sync.Mutex
	queue    utteranceHeap
	seq      uint64
	lastID   uint64
	current  *queued // dequeued and dispatched (or dispatching), not yet ended
	guard    *time.Timer
	speaking bool
	paused   bool

	// Dedup state: the previous sanitized text and when it was accepted.
	lastText string
	lastAt   time.Time

	voiceCache map[string]*tts.Voice
}

// SchedulerOption configures a [Scheduler] during construction.
type SchedulerOption func(*Scheduler)

// WithDebounce sets the duplicate-suppression window. Zero disables
// deduplication entirely.
func WithDebounce(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithDelays sets the guard delay (before engine dispatch) and grace delay
// (before the queue resumes after an utterance ends). Zero values make both
// transitions synchronous, which tests rely on for determinism.
func WithDelays(guard, grace time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.guardDelay = guard
		s.graceDelay = grace
	}
}

// WithDefaults sets the fallback language and delivery parameters applied
// when a speak request leaves them zero.
func WithDefaults(language string, rate, pitch, volume float64) SchedulerOption {
	return func(s *Scheduler) {
		if language != "" {
			s.defaultLang = language
		}
		if rate > 0 {
			s.defaultRate = rate
		}
		if pitch > 0 {
			s.defaultPitch = pitch
		}
		if volume > 0 {
			s.defaultVolume = volume
		}
	}
}

// WithClock overrides the time source used for deduplication and duration
// metrics. Used in tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics attaches metric instruments.
func WithMetrics(met *observe.Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = met
	}
}

// New creates a Scheduler bound to engine. The scheduler registers itself
// for the engine's voices-changed notifications so the voice cache is
// rebuilt whenever the available voices change.
func New(engine tts.Engine, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine:        engine,
		now:           time.Now,
		debounce:      DefaultDebounce,
		guardDelay:    defaultGuardDelay,
		graceDelay:    defaultGraceDelay,
		defaultLang:   "en-US",
		defaultRate:   1.0,
		defaultPitch:  1.0,
		defaultVolume: 1.0,
		voiceCache:    make(map[string]*tts.Voice),
	}
	for _, opt := range opts {
		opt(s)
	}
	engine.OnVoicesChanged(s.invalidateVoices)
	return s
}

// Speak schedules text for spoken output and returns the utterance id, or ""
// when the request was dropped (empty text, or a duplicate inside the
// debounce window).
//
// A critical-priority request issued while something is playing forcibly
// stops playback and flushes the queue first; an utterance that was dequeued
// but had not yet started producing audio is returned to the queue rather
// than lost.
func (s *Scheduler) Speak(text string, opts Options) string {
	clean := Sanitize(text)
	if clean == "" {
		s.metrics.RecordDrop(context.Background(), "empty")
		return ""
	}

	pri := opts.Priority
	if pri == 0 {
		pri = PriorityNormal
	}

	s.mu.Lock()
	now := s.now()
	if s.debounce > 0 && clean == s.lastText && now.Sub(s.lastAt) < s.debounce {
		s.mu.Unlock()
		s.metrics.RecordDrop(context.Background(), "debounce")
		slog.Debug("speech: duplicate dropped", "text_len", len(clean))
		return ""
	}
	s.lastText, s.lastAt = clean, now

	needCancel := false
	if pri == PriorityCritical && s.current != nil {
		s.preemptLocked(true)
		needCancel = true
	}

	s.lastID++
	s.seq++
	q := &queued{
		id:       fmt.Sprintf("utt-%d", s.lastID),
		text:     clean,
		opts:     opts,
		priority: pri,
		seq:      s.seq,
	}
	heap.Push(&s.queue, q)
	s.metrics.AddQueueDepth(context.Background(), 1)
	s.mu.Unlock()

	if needCancel {
		s.engine.Cancel()
	}
	s.processQueue()
	return q.id
}

// Interrupt is sugar for [Scheduler.Speak] with the priority forced to
// critical.
func (s *Scheduler) Interrupt(text string, opts Options) string {
	opts.Priority = PriorityCritical
	return s.Speak(text, opts)
}

// Stop cancels engine audio, flushes the queue, and resets all playback
// state, including the dedup record — a deliberate restart of the same text
// is never debounced.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.preemptLocked(false)
	s.lastText = ""
	s.lastAt = time.Time{}
	s.mu.Unlock()

	s.engine.Cancel()
}

// Skip cancels only the current utterance and resumes queue processing;
// pending utterances are kept.
func (s *Scheduler) Skip() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.detachCurrentLocked()
	s.mu.Unlock()

	s.engine.Cancel()
	s.resumeAfterGrace()
}

// Pause suspends current playback. A no-op unless something is speaking and
// not already paused.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if !s.speaking || s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = true
	s.mu.Unlock()

	s.engine.Pause()
}

// Resume continues paused playback. A no-op unless paused.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	s.mu.Unlock()

	s.engine.Resume()
}

// ClearQueue drops all pending utterances without touching current playback.
func (s *Scheduler) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainQueueLocked()
}

// IsSpeaking reports whether an utterance is currently producing audio
// (paused playback still counts as speaking).
func (s *Scheduler) IsSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// IsPaused reports whether playback is paused.
func (s *Scheduler) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// QueueLength returns the number of pending utterances, excluding the one
// currently playing.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// preemptLocked stops the current utterance (if any) and flushes the queue.
// When requeuePending is true, a current utterance that had not yet started
// producing audio is pushed back with its original band and seq so it plays
// after the preempting request instead of being lost. The caller is
// responsible for the engine-level Cancel, which must happen outside the
// lock. Must be called with s.mu held.
func (s *Scheduler) preemptLocked(requeuePending bool) {
	cur := s.current
	wasSpeaking := s.speaking
	s.detachCurrentLocked()
	s.drainQueueLocked()

	if cur == nil {
		return
	}
	if requeuePending && !wasSpeaking {
		heap.Push(&s.queue, cur)
		s.metrics.AddQueueDepth(context.Background(), 1)
		return
	}
	s.metrics.RecordDrop(context.Background(), "preempted")
}

// detachCurrentLocked clears the current utterance and all playback flags,
// stopping a pending guard timer. Must be called with s.mu held.
func (s *Scheduler) detachCurrentLocked() {
	if s.guard != nil {
		s.guard.Stop()
		s.guard = nil
	}
	s.current = nil
	s.speaking = false
	s.paused = false
}

// drainQueueLocked empties the pending queue. Must be called with s.mu held.
func (s *Scheduler) drainQueueLocked() {
	if n := s.queue.Len(); n > 0 {
		s.metrics.AddQueueDepth(context.Background(), int64(-n))
		for i := 0; i < n; i++ {
			s.metrics.RecordDrop(context.Background(), "cleared")
		}
	}
	s.queue = s.queue[:0]
}

// processQueue dequeues the head utterance and hands it to playback. The
// call is mutually exclusive: when something is already dispatching or
// speaking it is a no-op, so exactly one utterance is ever active.
func (s *Scheduler) processQueue() {
	s.mu.Lock()
	if s.current != nil || s.queue.Len() == 0 {
		s.mu.Unlock()
		return
	}
	q := heap.Pop(&s.queue).(*queued)
	s.current = q
	s.metrics.AddQueueDepth(context.Background(), -1)

	locale := q.opts.Language
	if locale == "" {
		locale = s.defaultLang
	}
	voice := s.resolveVoiceLocked(locale, q.opts.VoiceName, q.opts.Gender)

	if s.guardDelay <= 0 {
		s.mu.Unlock()
		s.dispatch(q, voice, locale)
		return
	}
	s.guard = time.AfterFunc(s.guardDelay, func() {
		s.mu.Lock()
		if s.current != q {
			s.mu.Unlock()
			return
		}
		s.guard = nil
		s.mu.Unlock()
		s.dispatch(q, voice, locale)
	})
	s.mu.Unlock()
}

// dispatch hands q to the engine. Cancelling first clears any engine-level
// leftover audio; the guard delay before this call gives that cancel time to
// land on real platforms.
func (s *Scheduler) dispatch(q *queued, voice *tts.Voice, locale string) {
	s.engine.Cancel()

	rate, pitch, volume := q.opts.Rate, q.opts.Pitch, q.opts.Volume
	if rate <= 0 {
		rate = s.defaultRate
	}
	if pitch <= 0 {
		pitch = s.defaultPitch
	}
	if volume <= 0 {
		volume = s.defaultVolume
	}

	slog.Debug("speech: dispatch",
		"id", q.id,
		"priority", q.priority,
		"lang", locale,
		"text_len", len(q.text),
	)

	s.engine.Enqueue(tts.Utterance{
		ID:     q.id,
		Text:   q.text,
		Voice:  voice,
		Lang:   locale,
		Rate:   rate,
		Pitch:  pitch,
		Volume: volume,
		Events: tts.Events{
			Start: func() { s.handleStart(q, locale) },
			End:   func() { s.handleEnd(q) },
			Word:  func(w string) { s.handleWord(q, w) },
			Error: func(err error) { s.handleError(q, err) },
		},
	})
}

func (s *Scheduler) handleStart(q *queued, locale string) {
	s.mu.Lock()
	if s.current != q {
		s.mu.Unlock()
		return
	}
	s.speaking = true
	s.paused = false
	q.started = true
	q.startAt = s.now().UnixNano()
	s.mu.Unlock()

	s.metrics.RecordSpoken(context.Background(), locale, q.priority.String())
	if q.opts.OnStart != nil {
		q.opts.OnStart(q.id)
	}
}

func (s *Scheduler) handleEnd(q *queued) {
	s.mu.Lock()
	if s.current != q {
		s.mu.Unlock()
		return
	}
	s.detachCurrentLocked()
	var dur time.Duration
	if q.started {
		dur = time.Duration(s.now().UnixNano() - q.startAt)
	}
	s.mu.Unlock()

	if s.metrics != nil && q.started {
		s.metrics.UtteranceDuration.Record(context.Background(), dur.Seconds())
	}
	if q.opts.OnEnd != nil {
		q.opts.OnEnd(q.id)
	}
	s.resumeAfterGrace()
}

func (s *Scheduler) handleWord(q *queued, word string) {
	s.mu.Lock()
	active := s.current == q
	s.mu.Unlock()

	if active && q.opts.OnWord != nil {
		q.opts.OnWord(q.id, word)
	}
}

// handleError processes an engine error event. Errors caused by this
// scheduler's own cancels surface as [tts.ErrInterrupted] and are treated as
// a silent end of playback. Real failures are reported through OnError — and
// the queue still advances, so one bad utterance never stalls the rest.
func (s *Scheduler) handleError(q *queued, err error) {
	s.mu.Lock()
	if s.current != q {
		s.mu.Unlock()
		return
	}
	s.detachCurrentLocked()
	s.mu.Unlock()

	if errors.Is(err, tts.ErrInterrupted) {
		s.resumeAfterGrace()
		return
	}

	slog.Warn("speech: engine error", "id", q.id, "error", err)
	s.metrics.RecordEngineError(context.Background())
	if q.opts.OnError != nil {
		q.opts.OnError(q.id, err)
	}
	s.resumeAfterGrace()
}

// resumeAfterGrace schedules the next dequeue, giving the engine a short
// breather after the previous utterance ended or failed.
func (s *Scheduler) resumeAfterGrace() {
	if s.graceDelay <= 0 {
		s.processQueue()
		return
	}
	time.AfterFunc(s.graceDelay, s.processQueue)
}
