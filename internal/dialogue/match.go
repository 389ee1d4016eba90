package dialogue

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/fintora/voxassist/internal/lang"
)

// significantWordLen is the minimum rune length (exclusive) for a label word
// to count toward fuzzy matching.
const significantWordLen = 3

var bareNumberRe = regexp.MustCompile(`^\d+$`)

// ordinalPatterns maps ordinal phrases to option indices 0–3, per language.
// Spanish includes gendered and accent-stripped forms.
var ordinalPatterns = map[lang.Language][]struct {
	re    *regexp.Regexp
	index int
}{
	lang.English: {
		{regexp.MustCompile(`\b(first|1st)\b`), 0},
		{regexp.MustCompile(`\b(second|2nd)\b`), 1},
		{regexp.MustCompile(`\b(third|3rd)\b`), 2},
		{regexp.MustCompile(`\b(fourth|4th)\b`), 3},
	},
	lang.Spanish: {
		{regexp.MustCompile(`\b(primero|primera|primer)\b`), 0},
		{regexp.MustCompile(`\b(segundo|segunda)\b`), 1},
		{regexp.MustCompile(`\b(tercero|tercera|tercer)\b`), 2},
		{regexp.MustCompile(`\b(cuarto|cuarta)\b`), 3},
	},
}

// cancellationPhrases are matched by substring against the normalized
// response. Any hit resolves the prompt as a cancel.
var cancellationPhrases = map[lang.Language][]string{
	lang.English: {"cancel", "nevermind", "never mind", "forget it", "stop"},
	lang.Spanish: {"cancelar", "cancela", "olvídalo", "olvidalo", "déjalo", "dejalo", "no importa"},
}

// actionKeywords map response substrings to the action they imply. Actions
// are checked in actionOrder so that a response hitting keywords of two
// different actions always resolves the same way.
var actionOrder = []Action{ActionNavigate, ActionExplain, ActionBoth}

var actionKeywords = map[lang.Language]map[Action][]string{
	lang.English: {
		ActionNavigate: {"take me", "go to", "navigate", "show me", "open"},
		ActionExplain:  {"explain", "tell me", "describe", "here", "what is"},
		ActionBoth:     {"both", "everything", "all of it"},
	},
	lang.Spanish: {
		ActionNavigate: {"llévame", "llevame", "ir a", "navega", "muéstrame", "muestrame", "abre", "abrir"},
		ActionExplain:  {"explica", "explícame", "explicame", "dime", "aquí", "aqui", "qué es", "que es"},
		ActionBoth:     {"ambos", "ambas", "todo", "las dos"},
	},
}

// cancelOption builds the synthetic option returned for a cancellation match.
func cancelOption(l lang.Language) *Option {
	label := "Cancel"
	if l == lang.Spanish {
		label = "Cancelar"
	}
	return &Option{ID: "cancel", Label: label, Action: ActionCancel}
}

// matchOption classifies response against options in fixed priority order:
//
//  1. cancellation phrase
//  2. bare numeric index (1-based; out of range falls through)
//  3. ordinal phrase
//  4. fuzzy label overlap on significant words
//  5. action keyword
//
// Returns (nil, false) when nothing matches.
func matchOption(response string, options []Option, l lang.Language) (*Option, bool) {
	if !l.IsValid() {
		l = lang.English
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	if normalized == "" {
		return nil, false
	}

	// 1. Cancellation.
	for _, phrase := range cancellationPhrases[l] {
		if strings.Contains(normalized, phrase) {
			return cancelOption(l), true
		}
	}

	// 2. Bare numeric index.
	if bareNumberRe.MatchString(normalized) {
		if n, err := strconv.Atoi(normalized); err == nil && n >= 1 && n <= len(options) {
			return &options[n-1], true
		}
		// Out of range: fall through to the remaining strategies.
	}

	// 3. Ordinal phrase.
	for _, p := range ordinalPatterns[l] {
		if p.re.MatchString(normalized) && p.index < len(options) {
			return &options[p.index], true
		}
	}

	// 4. Fuzzy label overlap.
	if opt := matchFuzzyLabel(normalized, options); opt != nil {
		return opt, true
	}

	// 5. Action keyword.
	for _, action := range actionOrder {
		for _, kw := range actionKeywords[l][action] {
			if !strings.Contains(normalized, kw) {
				continue
			}
			for i := range options {
				if options[i].Action == action {
					return &options[i], true
				}
			}
		}
	}

	return nil, false
}

// matchFuzzyLabel applies the significant-word overlap rule: an option
// matches when at least two significant words of its label (words longer
// than three runes) appear in the response, or when the label has exactly
// one significant word and that word appears.
//
// When several options pass the rule, the one whose full label is most
// similar to the response by Jaro-Winkler wins.
func matchFuzzyLabel(normalized string, options []Option) *Option {
	var (
		best      *Option
		bestScore float64
	)

	for i := range options {
		label := strings.ToLower(options[i].Label)
		var significant []string
		for _, w := range strings.Fields(label) {
			if utf8.RuneCountInString(w) > significantWordLen {
				significant = append(significant, w)
			}
		}

		hits := 0
		for _, w := range significant {
			if strings.Contains(normalized, w) {
				hits++
			}
		}

		matched := hits >= 2 || (len(significant) == 1 && hits == 1)
		if !matched {
			continue
		}

		score := matchr.JaroWinkler(normalized, label, false)
		if best == nil || score > bestScore {
			best = &options[i]
			bestScore = score
		}
	}
	return best
}

// yes/no keyword lists for the confirmation flow. Single words are matched
// against response tokens; multi-word phrases by substring.
var (
	yesKeywords = map[lang.Language][]string{
		lang.English: {"yes", "yeah", "yep", "sure", "ok", "okay", "confirm", "correct", "right", "do it"},
		lang.Spanish: {"sí", "si", "claro", "vale", "dale", "correcto", "confirmo", "hazlo", "por supuesto"},
	}
	noKeywords = map[lang.Language][]string{
		lang.English: {"no", "nope", "nah", "don't", "do not", "wrong", "cancel"},
		lang.Spanish: {"no", "nada", "cancela", "cancelar", "incorrecto", "mejor no"},
	}
)

// matchYesNo classifies response as an affirmative or negative answer.
// No is checked first so that "no, do it later" never reads as a yes.
func matchYesNo(response string, l lang.Language) (confirmed bool, ok bool) {
	if !l.IsValid() {
		l = lang.English
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	if normalized == "" {
		return false, false
	}
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(normalized) {
		tokens[strings.Trim(t, ".,!?¿¡")] = struct{}{}
	}

	if containsKeyword(normalized, tokens, noKeywords[l]) {
		return false, true
	}
	if containsKeyword(normalized, tokens, yesKeywords[l]) {
		return true, true
	}
	return false, false
}

func containsKeyword(normalized string, tokens map[string]struct{}, keywords []string) bool {
	for _, kw := range keywords {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(normalized, kw) {
				return true
			}
			continue
		}
		if _, ok := tokens[kw]; ok {
			return true
		}
	}
	return false
}
