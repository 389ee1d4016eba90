package speech

import (
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "You spent 42 dollars this month.", "You spent 42 dollars this month."},
		{"emoji and bold", "🎉 **Great!**", "Great!"},
		{"markdown link keeps label", "See [your budget](https://app.example.com/budget) for details", "See your budget for details"},
		{"inline code", "Run `voxassist --watch` to reload", "Run voxassist --watch to reload"},
		{"heading marker", "## Summary", "Summary"},
		{"bullet list", "- first item\n- second item", "first item second item"},
		{"ordered list", "1. save\n2) spend less", "save spend less"},
		{"italics and underscores", "_really_ *important*", "really important"},
		{"whitespace collapse", "too   many\n\nspaces", "too many spaces"},
		{"emoji only reduces to empty", "🎉 🚀 ✨", ""},
		{"empty input", "", ""},
		{"spanish punctuation survives", "¿Cuánto gasté?", "¿Cuánto gasté?"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"🎉 **Great!**",
		"See [your budget](https://example.com) for details",
		"## Summary\n- one\n- two",
		"You spent 42 dollars this month.",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}
