package speech

import (
	"regexp"
	"strings"

	"github.com/fintora/voxassist/pkg/tts"
)

// Gender expresses a voice-gender preference for synthesis.
type Gender string

const (
	GenderAny    Gender = ""
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// Platforms rarely tag voices with a gender, so it is inferred from the
// voice name. The female pattern is checked first; "\bmale\b" does not match
// inside "female" thanks to the word boundary.
var (
	femaleNameRe = regexp.MustCompile(`(?i)\b(female|woman|mujer|samantha|victoria|karen|moira|tessa|fiona|monica|mónica|paulina|lucia|lucía|sofia|sofía|helena|zira)\b`)
	maleNameRe   = regexp.MustCompile(`(?i)\b(male|man|hombre|daniel|diego|jorge|juan|carlos|david|fred|alex|pablo|miguel)\b`)
)

// resolveVoiceLocked picks a synthesis voice for the given locale, explicit
// voice name, and gender preference. Resolution walks a specificity ladder:
// exact regional locale, then any regional variant of the base language,
// then any voice whose locale starts with the base language. Within the
// chosen tier a gendered voice is preferred, falling back to a locally
// hosted voice and finally the first candidate. Results are memoized per
// (locale, gender) until the engine's voice list changes.
//
// Returns nil when the engine advertises no usable voice at all; the engine
// then synthesises with its platform default.
//
// Must be called with s.mu held.
func (s *Scheduler) resolveVoiceLocked(locale, voiceName string, gender Gender) *tts.Voice {
	voices := s.engine.Voices()
	if len(voices) == 0 {
		return nil
	}

	// An explicit voice name wins outright and is not cached.
	if voiceName != "" {
		for i := range voices {
			if voices[i].Name == voiceName {
				return &voices[i]
			}
		}
	}

	key := locale + "|" + string(gender)
	if v, ok := s.voiceCache[key]; ok {
		return v
	}

	base, _, _ := strings.Cut(locale, "-")

	var exact, regional, anyBase []tts.Voice
	for _, v := range voices {
		switch {
		case v.Locale == locale:
			exact = append(exact, v)
		case strings.HasPrefix(v.Locale, base+"-"):
			regional = append(regional, v)
		case v.Locale == base || strings.HasPrefix(v.Locale, base):
			anyBase = append(anyBase, v)
		}
	}

	tier := exact
	if len(tier) == 0 {
		tier = regional
	}
	if len(tier) == 0 {
		tier = anyBase
	}
	if len(tier) == 0 {
		// No voice for this language at all: fall back to the platform
		// default so playback never fails outright.
		for i := range voices {
			if voices[i].Default {
				v := &voices[i]
				s.voiceCache[key] = v
				return v
			}
		}
		return nil
	}

	v := pickVoice(tier, gender)
	s.voiceCache[key] = v
	return v
}

// pickVoice chooses from a non-empty candidate tier: gender match first,
// then a locally hosted voice, then the first candidate.
func pickVoice(tier []tts.Voice, gender Gender) *tts.Voice {
	if gender != GenderAny {
		re := femaleNameRe
		if gender == GenderMale {
			re = maleNameRe
		}
		for i := range tier {
			if re.MatchString(tier[i].Name) {
				return &tier[i]
			}
		}
	}
	for i := range tier {
		if tier[i].LocalService {
			return &tier[i]
		}
	}
	return &tier[0]
}

// invalidateVoices drops all memoized voice resolutions. Registered as the
// engine's voices-changed callback.
func (s *Scheduler) invalidateVoices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceCache = make(map[string]*tts.Voice)
}
