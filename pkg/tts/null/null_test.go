package null

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fintora/voxassist/pkg/tts"
)

func TestPlaybackLifecycle(t *testing.T) {
	t.Parallel()

	e := New()

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(ev string) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	done := make(chan struct{})

	e.Enqueue(tts.Utterance{
		ID:   "utt-1",
		Text: "hello world",
		Rate: 10, // keep the simulated playback fast
		Events: tts.Events{
			Start: func() { record("start") },
			Word:  func(w string) { record("word:" + w) },
			End:   func() { record("end"); close(done) },
			Error: func(err error) { t.Errorf("unexpected error: %v", err) },
		},
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("playback never finished")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"start", "word:hello", "word:world", "end"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestCancelInterrupts(t *testing.T) {
	t.Parallel()

	e := New()
	errc := make(chan error, 1)

	e.Enqueue(tts.Utterance{
		ID:   "utt-1",
		Text: "a very long announcement that keeps going and going",
		Events: tts.Events{
			Error: func(err error) { errc <- err },
		},
	})
	e.Cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, tts.ErrInterrupted) {
			t.Fatalf("error = %v, want ErrInterrupted", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancel never surfaced")
	}
}

func TestPauseHoldsPlayback(t *testing.T) {
	t.Parallel()

	e := New()
	e.Pause()

	started := make(chan struct{})
	done := make(chan struct{})
	e.Enqueue(tts.Utterance{
		ID:   "utt-1",
		Text: "one",
		Rate: 10,
		Events: tts.Events{
			Start: func() { close(started) },
			End:   func() { close(done) },
		},
	})

	<-started
	select {
	case <-done:
		t.Fatal("playback finished while paused")
	case <-time.After(100 * time.Millisecond):
	}

	e.Resume()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("playback never resumed")
	}
}
