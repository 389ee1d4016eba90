// Package dialogue implements the conversational state machine that turns a
// single user utterance into a multi-turn exchange: clarification prompts
// with an ordered option list, binary confirmation prompts, and automatic
// expiry of prompts the user never answers.
//
// The machine holds at most one pending conversation context at a time.
// Starting a new prompt atomically discards the previous context and cancels
// its timeout. Responses are classified against the pending context through a
// fixed-priority match chain (cancellation phrase, numeric index, ordinal
// phrase, fuzzy label overlap, action keyword); an unmatched response leaves
// the state and its original timeout untouched, so the user may retry until
// the prompt expires.
package dialogue

import "time"

// Action describes what the orchestration layer should do when an option is
// selected. Opaque to this package beyond keyword matching.
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionExplain  Action = "explain"
	ActionBoth     Action = "both"
	ActionCancel   Action = "cancel"
)

// Status is the machine's conversational state.
type Status string

const (
	StatusIdle                  Status = "idle"
	StatusAwaitingClarification Status = "awaiting_clarification"
	StatusAwaitingConfirmation  Status = "awaiting_confirmation"

	// StatusTutorialActive is reserved for the guided-tutorial flow and is
	// never produced by this package.
	StatusTutorialActive Status = "tutorial_active"
)

// Option is one selectable choice in a clarification prompt. Order within
// the prompt's option list is significant: it defines 1-based numeric and
// ordinal addressing.
type Option struct {
	// ID uniquely identifies the option within its prompt.
	ID string

	// Label is the human-readable text, also used for fuzzy matching.
	Label string

	// Action tells the caller what selecting this option means.
	Action Action

	// Target and Route are opaque hints consumed by the orchestration layer.
	Target string
	Route  string
}

// Context is the pending conversation state. At most one Context exists at a
// time; it is owned exclusively by the [Machine].
type Context struct {
	// OriginalQuery is the utterance that triggered the prompt.
	OriginalQuery string

	// DetectedIntent is an opaque label supplied by the caller.
	DetectedIntent string

	// Options is the ordered option list. Empty for confirmation prompts.
	Options []Option

	// Selected is the option chosen by the user, once matched.
	Selected *Option

	// CreatedAt is when the prompt was started; it anchors the timeout.
	CreatedAt time.Time
}

// Result is the outcome of classifying one clarification response.
type Result struct {
	// Matched reports whether the response selected an option.
	Matched bool

	// Option is the selected option when Matched is true. A cancellation
	// match yields a synthetic option with [ActionCancel].
	Option *Option

	// Context is the resolved conversation context when Matched is true,
	// with Selected filled in. The machine itself is back to idle by the
	// time the caller sees it.
	Context *Context

	// FallbackMessage carries a language-appropriate retry prompt when the
	// response matched nothing. Empty when Matched is true or when no
	// clarification was pending.
	FallbackMessage string
}

// ConfirmResult is the outcome of classifying one confirmation response.
type ConfirmResult struct {
	// Confirmed is true for yes, false for no, and nil when the response
	// matched neither or no confirmation was pending.
	Confirmed *bool

	// Message carries a clarifying nudge when Confirmed is nil and a
	// confirmation is still pending.
	Message string
}
