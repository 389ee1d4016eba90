package lang

import (
	"context"
	"log/slog"
	"strings"
)

// MatchExplicitCommand checks text for a literal language-switch request
// ("switch to spanish", "cambia a inglés", ...) in either language. The match
// is non-probabilistic and, when present, always wins over detection.
func (c *Classifier) MatchExplicitCommand(text string) (Command, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Command{}, false
	}
	for phrase, target := range switchCommands {
		if strings.Contains(normalized, phrase) {
			return Command{Target: target}, true
		}
	}
	return Command{}, false
}

// AutoSwitch runs text through explicit-command matching and then detection
// with hysteresis, committing a language switch when warranted.
//
// An explicit command switches immediately. Otherwise a switch is committed
// only after the same newly detected language has been the ShouldSwitch
// result on two consecutive calls; a differing proposal in between restarts
// the streak at 1, and an uninformative or non-switching detection clears it.
func (c *Classifier) AutoSwitch(text string) Switch {
	if cmd, ok := c.MatchExplicitCommand(text); ok {
		c.mu.Lock()
		switched := cmd.Target != c.current
		c.current = cmd.Target
		c.resetPendingLocked()
		c.mu.Unlock()

		if switched {
			slog.Info("lang: explicit switch", "to", cmd.Target)
			c.metrics.RecordSwitch(context.Background(), string(cmd.Target), "command")
			return Switch{Switched: true, NewLanguage: cmd.Target, Message: switchedMessage(cmd.Target)}
		}
		return Switch{NewLanguage: cmd.Target}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.detectLocked(text)
	if !d.ShouldSwitch {
		c.resetPendingLocked()
		return Switch{NewLanguage: c.current}
	}

	if d.Language == c.pendingLang {
		c.pendingCount++
	} else {
		c.pendingLang = d.Language
		c.pendingCount = 1
	}

	if c.pendingCount < switchStreak {
		return Switch{NewLanguage: c.current}
	}

	from := c.current
	c.current = d.Language
	c.resetPendingLocked()

	slog.Info("lang: auto switch", "from", from, "to", c.current, "confidence", d.Confidence)
	c.metrics.RecordSwitch(context.Background(), string(c.current), "auto")
	return Switch{Switched: true, NewLanguage: c.current, Message: switchedMessage(c.current)}
}
