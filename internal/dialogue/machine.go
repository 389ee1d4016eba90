package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fintora/voxassist/internal/lang"
	"github.com/fintora/voxassist/internal/observe"
)

// DefaultTimeout is how long a clarification or confirmation prompt waits
// for a matching response before resetting to idle.
const DefaultTimeout = 30 * time.Second

// Machine is the dialogue state machine. It owns the single pending
// [Context], the conversational [Status], and the one timeout timer that can
// force-expire an unanswered prompt.
//
// All exported methods are safe for concurrent use.
type Machine struct {
	mu      sync.Mutex
	status  Status
	ctx     *Context
	timeout time.Duration
	now     func() time.Time
	metrics *observe.Metrics

	// timer is the single-slot expiry timer. gen guards against a stale
	// timer firing after its context was already replaced or resolved.
	timer *time.Timer
	gen   uint64
}

// MachineOption configures a [Machine] during construction.
type MachineOption func(*Machine)

// WithTimeout overrides the prompt expiry duration. Values <= 0 keep
// [DefaultTimeout].
func WithTimeout(d time.Duration) MachineOption {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock overrides the time source. Used in tests; the expiry timer still
// runs on the wall clock.
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMetrics attaches metric instruments for dialogue outcomes.
func WithMetrics(met *observe.Metrics) MachineOption {
	return func(m *Machine) {
		m.metrics = met
	}
}

// NewMachine creates an idle [Machine].
func NewMachine(opts ...MachineOption) *Machine {
	m := &Machine{
		status:  StatusIdle,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current conversational status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Context returns a copy of the pending conversation context, or nil when
// idle.
func (m *Machine) Context() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return nil
	}
	cp := *m.ctx
	cp.Options = append([]Option(nil), m.ctx.Options...)
	return &cp
}

// StartClarification installs a new clarification context with options in
// caller-supplied order, cancels any previously pending prompt and its
// timeout, and arms a fresh expiry timer.
func (m *Machine) StartClarification(originalQuery, detectedIntent string, options []Option) {
	m.start(StatusAwaitingClarification, &Context{
		OriginalQuery:  originalQuery,
		DetectedIntent: detectedIntent,
		Options:        append([]Option(nil), options...),
	})
}

// StartConfirmation installs a new binary yes/no context with the same
// replace-and-cancel and timeout mechanics as [Machine.StartClarification].
func (m *Machine) StartConfirmation(originalQuery, detectedIntent string) {
	m.start(StatusAwaitingConfirmation, &Context{
		OriginalQuery:  originalQuery,
		DetectedIntent: detectedIntent,
	})
}

func (m *Machine) start(status Status, ctx *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearTimerLocked()
	ctx.CreatedAt = m.now()
	m.ctx = ctx
	m.status = status

	gen := m.gen
	m.timer = time.AfterFunc(m.timeout, func() { m.expire(gen) })

	slog.Debug("dialogue: prompt started",
		"status", status,
		"intent", ctx.DetectedIntent,
		"options", len(ctx.Options),
	)
}

// Reset clears the pending context, cancels the timeout, and returns the
// machine to idle. Resetting an idle machine is a no-op.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.clearTimerLocked()
	m.ctx = nil
	m.status = StatusIdle
}

// clearTimerLocked invalidates and stops the pending expiry timer, if any.
// Bumping gen first makes an already-fired timer callback a no-op.
func (m *Machine) clearTimerLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// expire is the timer callback. It resets the machine only if the context
// that armed the timer is still the pending one.
func (m *Machine) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.status == StatusIdle {
		return
	}

	flow := "clarification"
	if m.status == StatusAwaitingConfirmation {
		flow = "confirmation"
	}
	slog.Info("dialogue: prompt expired", "status", m.status)
	m.metrics.RecordOutcome(context.Background(), flow, "timeout")

	m.resetLocked()
}

// RemainingTime returns how long the pending prompt has left before expiry,
// clamped to [0, timeout]. It is a pure read: it never starts, stops, or
// renews the timer. Returns 0 when no prompt is pending.
func (m *Machine) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx == nil {
		return 0
	}
	rem := m.timeout - m.now().Sub(m.ctx.CreatedAt)
	if rem < 0 {
		return 0
	}
	if rem > m.timeout {
		return m.timeout
	}
	return rem
}

// ProcessClarificationResponse classifies userResponse against the pending
// clarification context in language l.
//
// Matches are attempted in fixed priority order: cancellation phrase, bare
// numeric index, ordinal phrase, fuzzy label overlap, action keyword. The
// first success selects an option and resets the machine to idle. No match
// returns a language-appropriate fallback message and leaves both the state
// and the original timeout untouched.
//
// When no clarification is pending the call is a no-op returning
// Result{Matched: false}.
func (m *Machine) ProcessClarificationResponse(userResponse string, l lang.Language) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAwaitingClarification {
		return Result{}
	}

	opt, ok := matchOption(userResponse, m.ctx.Options, l)
	if !ok {
		m.metrics.RecordOutcome(context.Background(), "clarification", "no_match")
		return Result{FallbackMessage: fallbackMessage(l)}
	}

	outcome := "matched"
	if opt.Action == ActionCancel {
		outcome = "cancelled"
	}
	m.metrics.RecordOutcome(context.Background(), "clarification", outcome)
	slog.Debug("dialogue: clarification resolved", "option", opt.ID, "action", opt.Action)

	resolved := m.ctx
	resolved.Selected = opt
	m.resetLocked()
	return Result{Matched: true, Option: opt, Context: resolved}
}

// ProcessConfirmationResponse classifies userResponse against the pending
// confirmation in language l. A yes or no match resolves the prompt and
// resets to idle; anything else returns a clarifying nudge without changing
// state. When no confirmation is pending, the result is neutral
// (Confirmed nil, no message).
func (m *Machine) ProcessConfirmationResponse(userResponse string, l lang.Language) ConfirmResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusAwaitingConfirmation {
		return ConfirmResult{}
	}

	confirmed, ok := matchYesNo(userResponse, l)
	if !ok {
		m.metrics.RecordOutcome(context.Background(), "confirmation", "no_match")
		return ConfirmResult{Message: confirmNudge(l)}
	}

	outcome := "matched"
	if !confirmed {
		outcome = "cancelled"
	}
	m.metrics.RecordOutcome(context.Background(), "confirmation", outcome)
	slog.Debug("dialogue: confirmation resolved", "confirmed", confirmed)

	m.resetLocked()
	return ConfirmResult{Confirmed: &confirmed}
}
