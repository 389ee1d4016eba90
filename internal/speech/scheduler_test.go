package speech

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fintora/voxassist/pkg/tts/mock"
)

// newTestScheduler builds a scheduler with synchronous transitions so tests
// drive the engine lifecycle by hand.
func newTestScheduler(eng *mock.Engine, opts ...SchedulerOption) *Scheduler {
	return New(eng, append([]SchedulerOption{WithDelays(0, 0)}, opts...)...)
}

// playAll fires start+end for each pending engine utterance until the engine
// runs dry, returning the texts in the order they started.
func playAll(eng *mock.Engine) []string {
	var played []string
	for {
		u := eng.Pending()
		if u == nil {
			return played
		}
		played = append(played, u.Text)
		eng.FireStart()
		eng.FireEnd()
	}
}

func TestSpeakDispatchesImmediatelyWhenIdle(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	id := s.Speak("hello there", Options{})
	if id == "" {
		t.Fatal("Speak returned empty id")
	}

	if len(eng.Enqueued) != 1 {
		t.Fatalf("enqueued %d utterances, want 1", len(eng.Enqueued))
	}
	if got := eng.Enqueued[0].Text; got != "hello there" {
		t.Errorf("Text = %q", got)
	}
	if eng.Enqueued[0].Rate != 1.0 || eng.Enqueued[0].Volume != 1.0 {
		t.Errorf("defaults not applied: rate=%v volume=%v", eng.Enqueued[0].Rate, eng.Enqueued[0].Volume)
	}
	if s.QueueLength() != 0 {
		t.Errorf("QueueLength() = %d, want 0", s.QueueLength())
	}
}

func TestSpeakEmptyAfterSanitizeIsDropped(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	for _, in := range []string{"", "   ", "🎉 🚀"} {
		if id := s.Speak(in, Options{}); id != "" {
			t.Errorf("Speak(%q) = %q, want dropped", in, id)
		}
	}
	if len(eng.Enqueued) != 0 {
		t.Errorf("enqueued %d utterances, want 0", len(eng.Enqueued))
	}
}

func TestSpeakDeduplicatesWithinWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	eng := &mock.Engine{}
	s := newTestScheduler(eng, WithClock(func() time.Time { return now }))

	first := s.Speak("watch your budget", Options{})
	dup := s.Speak("watch your budget", Options{})
	if first == "" || dup != "" {
		t.Fatalf("ids = (%q, %q), want (accepted, dropped)", first, dup)
	}

	// Markdown decoration does not defeat the dedup: it compares sanitized text.
	if id := s.Speak("**watch your budget**", Options{}); id != "" {
		t.Errorf("decorated duplicate accepted as %q", id)
	}

	// Past the window the same text is accepted again.
	now = now.Add(DefaultDebounce + time.Millisecond)
	if id := s.Speak("watch your budget", Options{}); id == "" {
		t.Error("text re-issued after the window was dropped")
	}
}

func TestSpeakPriorityOrdering(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Speak("normal", Options{Priority: PriorityNormal})
	s.Speak("critical", Options{Priority: PriorityCritical})
	s.Speak("low", Options{Priority: PriorityLow})

	played := playAll(eng)
	want := []string{"critical", "normal", "low"}
	if len(played) != len(want) {
		t.Fatalf("played %v, want %v", played, want)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Fatalf("played %v, want %v", played, want)
		}
	}
}

func TestSpeakFIFOWithinBand(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Speak("first", Options{})
	s.Speak("second", Options{})
	s.Speak("third", Options{})

	played := playAll(eng)
	want := []string{"first", "second", "third"}
	for i := range want {
		if played[i] != want[i] {
			t.Fatalf("played %v, want %v", played, want)
		}
	}
}

func TestCriticalPreemptsActivePlayback(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Speak("long announcement", Options{})
	eng.FireStart() // audio is audibly playing

	s.Speak("fire alarm", Options{Priority: PriorityCritical})

	if u := eng.Pending(); u == nil || u.Text != "fire alarm" {
		t.Fatalf("pending = %+v, want the critical utterance", u)
	}

	// The audible utterance was dropped, not requeued.
	played := playAll(eng)
	if len(played) != 1 || played[0] != "fire alarm" {
		t.Errorf("played %v, want [fire alarm]", played)
	}
}

func TestInterruptForcesCritical(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Speak("background info", Options{})
	s.Interrupt("urgent", Options{Priority: PriorityLow}) // priority is overridden

	if u := eng.Pending(); u == nil || u.Text != "urgent" {
		t.Fatalf("pending = %+v, want the interrupt", u)
	}
}

func TestStopFlushesEverythingAndClearsDedup(t *testing.T) {
	t.Parallel()

	now := time.Now()
	eng := &mock.Engine{}
	s := newTestScheduler(eng, WithClock(func() time.Time { return now }))

	s.Speak("a", Options{})
	eng.FireStart()
	s.Speak("b", Options{})
	s.Speak("c", Options{})

	s.Stop()

	if s.IsSpeaking() {
		t.Error("IsSpeaking() after Stop")
	}
	if got := s.QueueLength(); got != 0 {
		t.Errorf("QueueLength() = %d, want 0", got)
	}

	// Dedup state is gone: the same text restarts immediately.
	if id := s.Speak("a", Options{}); id == "" {
		t.Error("restart of the stopped text was debounced")
	}
}

func TestSkipAdvancesToNextUtterance(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Speak("boring", Options{})
	eng.FireStart()
	s.Speak("next up", Options{})

	s.Skip()

	if u := eng.Pending(); u == nil || u.Text != "next up" {
		t.Fatalf("pending = %+v, want the queued utterance", u)
	}
	if eng.CancelCount == 0 {
		t.Error("Skip never cancelled the engine")
	}
}

func TestSkipWhileIdleIsNoOp(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Skip()
	if eng.CancelCount != 0 {
		t.Errorf("CancelCount = %d, want 0", eng.CancelCount)
	}
}

func TestPauseResume(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	// Pause with nothing speaking is a no-op.
	s.Pause()
	if eng.PauseCount != 0 || s.IsPaused() {
		t.Fatal("pause applied while idle")
	}

	s.Speak("hold on", Options{})
	eng.FireStart()

	s.Pause()
	s.Pause() // second call is a no-op
	if eng.PauseCount != 1 || !s.IsPaused() {
		t.Errorf("PauseCount = %d, IsPaused = %v", eng.PauseCount, s.IsPaused())
	}
	if !s.IsSpeaking() {
		t.Error("paused playback no longer counts as speaking")
	}

	s.Resume()
	s.Resume()
	if eng.ResumeCount != 1 || s.IsPaused() {
		t.Errorf("ResumeCount = %d, IsPaused = %v", eng.ResumeCount, s.IsPaused())
	}
}

func TestClearQueueKeepsCurrent(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	s.Speak("keep talking", Options{})
	eng.FireStart()
	s.Speak("queued one", Options{})
	s.Speak("queued two", Options{})

	s.ClearQueue()

	if got := s.QueueLength(); got != 0 {
		t.Errorf("QueueLength() = %d, want 0", got)
	}
	if !s.IsSpeaking() {
		t.Error("current playback was stopped by ClearQueue")
	}
}

func TestEngineErrorAdvancesQueue(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	var gotErr error
	var mu sync.Mutex

	s := newTestScheduler(eng)
	s.Speak("will fail", Options{
		OnError: func(_ string, err error) {
			mu.Lock()
			gotErr = err
			mu.Unlock()
		},
	})
	s.Speak("survivor", Options{})

	boom := errors.New("synthesis backend gone")
	eng.FireError(boom)

	mu.Lock()
	if !errors.Is(gotErr, boom) {
		t.Errorf("OnError got %v, want %v", gotErr, boom)
	}
	mu.Unlock()

	if u := eng.Pending(); u == nil || u.Text != "survivor" {
		t.Fatalf("pending = %+v, want the next utterance", u)
	}
}

func TestLifecycleCallbacks(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng)

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	s.Speak("two words", Options{
		OnStart: func(string) { record("start") },
		OnWord:  func(_, w string) { record("word:" + w) },
		OnEnd:   func(string) { record("end") },
	})

	eng.FireStart()
	eng.FireWord("two")
	eng.FireWord("words")
	eng.FireEnd()

	want := []string{"start", "word:two", "word:words", "end"}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestSpeakAppliesPerRequestOverrides(t *testing.T) {
	t.Parallel()

	eng := &mock.Engine{}
	s := newTestScheduler(eng, WithDefaults("en-US", 1.0, 1.0, 1.0))

	s.Speak("hola", Options{Language: "es-MX", Rate: 1.5, Volume: 0.4})

	u := eng.Enqueued[0]
	if u.Lang != "es-MX" {
		t.Errorf("Lang = %q, want es-MX", u.Lang)
	}
	if u.Rate != 1.5 || u.Volume != 0.4 {
		t.Errorf("rate=%v volume=%v, want 1.5/0.4", u.Rate, u.Volume)
	}
	if u.Pitch != 1.0 {
		t.Errorf("Pitch = %v, want default 1.0", u.Pitch)
	}
}
