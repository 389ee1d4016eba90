package speech

import (
	"testing"

	"github.com/fintora/voxassist/pkg/tts"
	"github.com/fintora/voxassist/pkg/tts/mock"
)

func testVoices() []tts.Voice {
	return []tts.Voice{
		{Name: "Alex", Locale: "en-US", LocalService: true, Default: true},
		{Name: "Samantha", Locale: "en-US", LocalService: true},
		{Name: "Daniel", Locale: "en-GB"},
		{Name: "Paulina", Locale: "es-MX", LocalService: true},
		{Name: "Jorge", Locale: "es-ES"},
		{Name: "Mónica", Locale: "es-ES", LocalService: true},
	}
}

// resolve is a test shim over the locked resolver.
func resolve(s *Scheduler, locale, name string, gender Gender) *tts.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveVoiceLocked(locale, name, gender)
}

func TestResolveVoiceExactLocale(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{VoicesResult: testVoices()}
	s := newTestScheduler(eng)

	v := resolve(s, "es-MX", "", GenderAny)
	if v == nil || v.Name != "Paulina" {
		t.Fatalf("resolved %+v, want Paulina", v)
	}
}

func TestResolveVoiceRegionalFallback(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{VoicesResult: testVoices()}
	s := newTestScheduler(eng)

	// No es-AR voice exists; any es-* regional variant serves.
	v := resolve(s, "es-AR", "", GenderAny)
	if v == nil || v.Locale[:2] != "es" {
		t.Fatalf("resolved %+v, want a spanish voice", v)
	}
}

func TestResolveVoiceGenderPreference(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{VoicesResult: testVoices()}
	s := newTestScheduler(eng)

	if v := resolve(s, "en-US", "", GenderFemale); v == nil || v.Name != "Samantha" {
		t.Errorf("female en-US = %+v, want Samantha", v)
	}
	if v := resolve(s, "es-ES", "", GenderMale); v == nil || v.Name != "Jorge" {
		t.Errorf("male es-ES = %+v, want Jorge", v)
	}
	// No male voice in the exact tier still returns something usable.
	if v := resolve(s, "es-MX", "", GenderMale); v == nil {
		t.Error("male es-MX resolved to nil")
	}
}

func TestResolveVoiceExplicitNameWins(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{VoicesResult: testVoices()}
	s := newTestScheduler(eng)

	v := resolve(s, "en-US", "Mónica", GenderFemale)
	if v == nil || v.Name != "Mónica" {
		t.Fatalf("resolved %+v, want the explicitly named voice", v)
	}
}

func TestResolveVoiceUnknownLanguageFallsBackToDefault(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{VoicesResult: testVoices()}
	s := newTestScheduler(eng)

	v := resolve(s, "fr-FR", "", GenderAny)
	if v == nil || !v.Default {
		t.Fatalf("resolved %+v, want the platform default", v)
	}
}

func TestResolveVoiceNoVoicesAtAll(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	if v := resolve(s, "en-US", "", GenderAny); v != nil {
		t.Fatalf("resolved %+v, want nil", v)
	}
}

func TestVoiceCacheInvalidatedOnVoicesChanged(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{VoicesResult: testVoices()}
	s := newTestScheduler(eng)

	if v := resolve(s, "en-US", "", GenderAny); v == nil || v.Name != "Alex" {
		t.Fatalf("initial resolution = %+v, want Alex", v)
	}

	// The voice list shrinks to a single Spanish voice; the cached en-US
	// resolution must not survive.
	eng.ChangeVoices([]tts.Voice{{Name: "Paulina", Locale: "es-MX", Default: true}})

	if v := resolve(s, "en-US", "", GenderAny); v == nil || v.Name != "Paulina" {
		t.Fatalf("post-change resolution = %+v, want Paulina", v)
	}
}
