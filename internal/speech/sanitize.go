package speech

import (
	"regexp"
	"strings"
)

// Sanitization strips everything a synthesis engine would read out loud as
// noise: markdown markers, list prefixes, and emoji. The patterns run in a
// fixed order (structure first, then inline markers, then symbols) and the
// whole transform is idempotent — sanitizing already-clean text is a no-op.
var (
	linkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	codeRe     = regexp.MustCompile("`{1,3}([^`]*)`{1,3}")
	headingRe  = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	orderedRe  = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	emphasisRe = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)

	// emojiRe covers the emoji and pictograph blocks plus variation
	// selectors and the zero-width joiner used in emoji sequences.
	emojiRe = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}]|[\x{2600}-\x{27BF}]|[\x{2190}-\x{21FF}]|[\x{2B00}-\x{2BFF}]|[\x{FE00}-\x{FE0F}]|\x{200D}`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitize returns text reduced to what should actually be spoken: markdown
// link targets, code fences, heading markers, list prefixes, emphasis
// markers, and emoji are removed, and all whitespace runs collapse to single
// spaces. Returns "" for input that is empty or reduces to nothing.
func Sanitize(text string) string {
	s := linkRe.ReplaceAllString(text, "$1")
	s = codeRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")
	s = orderedRe.ReplaceAllString(s, "")
	s = emphasisRe.ReplaceAllString(s, "$2")
	s = emojiRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
