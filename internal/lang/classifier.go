// Package lang implements heuristic language detection for the two languages
// the assistant speaks: English and Spanish.
//
// Detection scores an utterance against weighted indicator word lists (exact
// token matches, multi-word phrase substrings, and Spanish-only diacritics)
// and reports a best guess with a confidence share. Committed language
// switches go through hysteresis — two consecutive consistent detections —
// so a single mixed-language utterance (a brand name, a borrowed word) never
// flips the active language. Explicit "switch to Spanish" style commands
// bypass hysteresis entirely.
package lang

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/fintora/voxassist/internal/observe"
)

// Language identifies one of the two supported languages by ISO-639-1 code.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// IsValid reports whether l is a supported language.
func (l Language) IsValid() bool {
	return l == English || l == Spanish
}

// Other returns the opposite supported language.
func (l Language) Other() Language {
	if l == Spanish {
		return English
	}
	return Spanish
}

const (
	// switchConfidence is the minimum detection confidence required before a
	// switch is even proposed.
	switchConfidence = 0.65

	// switchMinMatches is the minimum raw indicator-match count required to
	// propose a switch. Guards against one-word false positives.
	switchMinMatches = 3

	// switchStreak is the number of consecutive consistent detections
	// required to commit an automatic switch.
	switchStreak = 2
)

// Detection is the result of scoring one utterance.
type Detection struct {
	// Language is the best-guess language. When the utterance carries no
	// indicators at all, this is the current active language.
	Language Language

	// Confidence is the detected language's share of the total score, in
	// [0, 1]. Zero for uninformative input; 0.5 on an exact tie.
	Confidence float64

	// ShouldSwitch reports whether this detection, on its own evidence,
	// argues for switching away from the current language.
	ShouldSwitch bool
}

// Switch is the result of one AutoSwitch call.
type Switch struct {
	// Switched reports whether the active language changed on this call.
	Switched bool

	// NewLanguage is the active language after the call.
	NewLanguage Language

	// Message is a user-facing confirmation in the new language. Empty when
	// no switch was committed.
	Message string
}

// Command is a recognised explicit language-switch request.
type Command struct {
	// Target is the language the user asked for.
	Target Language
}

// Classifier scores utterances against per-language indicator lists and
// owns the active-language state, including switch hysteresis.
//
// All exported methods are safe for concurrent use.
type Classifier struct {
	mu      sync.Mutex
	current Language
	metrics *observe.Metrics

	words   map[Language]map[string]struct{}
	phrases map[Language][]string

	// Hysteresis state: the language proposed by the most recent
	// ShouldSwitch detections and how many consecutive times it was proposed.
	pendingLang  Language
	pendingCount int
}

// Option configures a [Classifier] during construction.
type Option func(*Classifier)

// WithWordLists replaces the built-in indicator lists. Languages absent from
// lists keep their defaults.
func WithWordLists(lists map[Language]WordList) Option {
	return func(c *Classifier) {
		c.setWordListsLocked(lists)
	}
}

// WithMetrics attaches metric instruments for committed language switches.
func WithMetrics(met *observe.Metrics) Option {
	return func(c *Classifier) {
		c.metrics = met
	}
}

// New creates a Classifier with initial as the active language.
// Invalid initial values fall back to English.
func New(initial Language, opts ...Option) *Classifier {
	if !initial.IsValid() {
		initial = English
	}
	c := &Classifier{current: initial}
	c.setWordListsLocked(nil)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Current returns the active language.
func (c *Classifier) Current() Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetCurrent forces the active language and clears hysteresis state.
func (c *Classifier) SetCurrent(l Language) {
	if !l.IsValid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = l
	c.resetPendingLocked()
}

// SetWordLists replaces the indicator lists at runtime. Used by config hot
// reload; languages absent from lists revert to the built-in defaults.
func (c *Classifier) SetWordLists(lists map[Language]WordList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setWordListsLocked(lists)
}

// Detect scores text and returns the best-guess language with confidence.
//
// Scoring: +1 per token exactly matching an indicator word, +2 per indicator
// phrase found as a substring of the normalized text, +2 to Spanish for any
// Spanish-only diacritic anywhere in the text. A total score of zero keeps
// the current language at confidence 0 and never proposes a switch; an exact
// tie keeps the current language at confidence 0.5.
func (c *Classifier) Detect(text string) Detection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detectLocked(text)
}

func (c *Classifier) detectLocked(text string) Detection {
	normalized := strings.ToLower(strings.TrimSpace(text))

	scores := map[Language]int{English: 0, Spanish: 0}
	matches := 0 // raw indicator-match count, diacritic bonus excluded

	for _, token := range strings.Fields(normalized) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if token == "" {
			continue
		}
		for l, set := range c.words {
			if _, ok := set[token]; ok {
				scores[l]++
				matches++
			}
		}
	}

	for l, phraseList := range c.phrases {
		for _, phrase := range phraseList {
			if strings.Contains(normalized, phrase) {
				scores[l] += 2
				matches++
			}
		}
	}

	if strings.ContainsAny(normalized, spanishDiacritics) {
		scores[Spanish] += 2
	}

	total := scores[English] + scores[Spanish]
	if total == 0 {
		return Detection{Language: c.current, Confidence: 0}
	}

	detected := English
	if scores[Spanish] > scores[English] {
		detected = Spanish
	} else if scores[Spanish] == scores[English] {
		// Exact tie: stay put.
		return Detection{Language: c.current, Confidence: 0.5}
	}

	confidence := float64(scores[detected]) / float64(total)

	d := Detection{
		Language:   detected,
		Confidence: confidence,
		ShouldSwitch: detected != c.current &&
			confidence >= switchConfidence &&
			matches >= switchMinMatches,
	}

	slog.Debug("lang: detection",
		"text_len", len(text),
		"en_score", scores[English],
		"es_score", scores[Spanish],
		"matches", matches,
		"detected", d.Language,
		"confidence", d.Confidence,
		"should_switch", d.ShouldSwitch,
	)
	return d
}

func (c *Classifier) setWordListsLocked(lists map[Language]WordList) {
	defaults := defaultWordLists()
	c.words = make(map[Language]map[string]struct{}, len(defaults))
	c.phrases = make(map[Language][]string, len(defaults))

	for l, wl := range defaults {
		if override, ok := lists[l]; ok {
			wl = override
		}
		set := make(map[string]struct{}, len(wl.Words))
		for _, w := range wl.Words {
			set[strings.ToLower(w)] = struct{}{}
		}
		c.words[l] = set

		phrases := make([]string, 0, len(wl.Phrases))
		for _, p := range wl.Phrases {
			phrases = append(phrases, strings.ToLower(p))
		}
		c.phrases[l] = phrases
	}
}

func (c *Classifier) resetPendingLocked() {
	c.pendingLang = ""
	c.pendingCount = 0
}
