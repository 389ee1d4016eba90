// Command voxassist runs the bilingual voice-assistant core: it reads user
// transcripts from stdin, detects the active language, drives clarification
// and confirmation dialogues, and speaks responses through the configured
// speech engine. Health and metrics endpoints are served over HTTP.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fintora/voxassist/internal/config"
	"github.com/fintora/voxassist/internal/dialogue"
	"github.com/fintora/voxassist/internal/health"
	"github.com/fintora/voxassist/internal/lang"
	"github.com/fintora/voxassist/internal/observe"
	"github.com/fintora/voxassist/internal/speech"
	"github.com/fintora/voxassist/pkg/tts"
	"github.com/fintora/voxassist/pkg/tts/null"
	"github.com/fintora/voxassist/pkg/tts/piper"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	watch := flag.Bool("watch", false, "hot-reload language word lists when the config file changes")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("config file not found, using defaults", "path", *configPath)
			cfg = config.Default()
		} else {
			fmt.Fprintf(os.Stderr, "voxassist: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voxassist starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"engine", cfg.Speech.Engine,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics provider ──────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics provider shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Speech engine ─────────────────────────────────────────────────────────
	engine, checker, err := buildEngine(cfg)
	if err != nil {
		slog.Error("failed to build speech engine", "err", err)
		return 1
	}

	// ── Core components ───────────────────────────────────────────────────────
	classifier := lang.New(lang.Language(cfg.Languages.Default),
		lang.WithWordLists(cfg.Languages.WordLists()),
		lang.WithMetrics(metrics),
	)
	machine := dialogue.NewMachine(
		dialogue.WithTimeout(cfg.Conversation.PromptTimeout),
		dialogue.WithMetrics(metrics),
	)
	scheduler := speech.New(engine,
		speech.WithDebounce(cfg.Speech.Debounce),
		speech.WithMetrics(metrics),
		speech.WithDefaults(locale(lang.Language(cfg.Languages.Default)),
			cfg.Speech.Rate, cfg.Speech.Pitch, cfg.Speech.Volume),
	)

	// ── Config watcher (word-list hot reload) ─────────────────────────────────
	if *watch {
		watcher, err := config.NewWatcher(*configPath, func(_, next *config.Config) {
			classifier.SetWordLists(next.Languages.WordLists())
			slog.Info("language word lists reloaded")
		})
		if err != nil {
			slog.Error("failed to start config watcher", "err", err)
			return 1
		}
		defer watcher.Stop()
	}

	// ── HTTP server: health + metrics ─────────────────────────────────────────
	hh := health.New(func() map[string]any {
		return map[string]any{
			"language":       string(classifier.Current()),
			"dialogue_state": string(machine.Status()),
			"queue_depth":    scheduler.QueueLength(),
			"speaking":       scheduler.IsSpeaking(),
		}
	}, checker)

	mux := http.NewServeMux()
	hh.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// ── Transcript loop ───────────────────────────────────────────────────────
	assistant := &assistant{
		classifier: classifier,
		machine:    machine,
		scheduler:  scheduler,
		gender:     speech.Gender(cfg.Speech.Gender),
	}
	g.Go(func() error {
		assistant.loop(gctx, os.Stdin)
		stop() // stdin closed: begin shutdown
		return nil
	})

	slog.Info("ready — type a transcript line, Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	scheduler.Stop()
	machine.Reset()
	slog.Info("goodbye")
	return 0
}

// buildEngine constructs the configured speech engine and its readiness check.
func buildEngine(cfg *config.Config) (tts.Engine, health.Checker, error) {
	switch cfg.Speech.Engine {
	case config.EnginePiper:
		e := piper.New(cfg.Speech.PiperAddr, piper.WithVoices(cfg.Speech.PiperVoices))
		return e, health.Checker{Name: "piper", Check: e.Ping}, nil
	case config.EngineNull:
		e := null.New()
		return e, health.Checker{Name: "engine", Check: func(context.Context) error { return nil }}, nil
	default:
		return nil, health.Checker{}, fmt.Errorf("unknown speech engine %q", cfg.Speech.Engine)
	}
}

// ── Assistant wiring ──────────────────────────────────────────────────────────

// assistant connects the language classifier, dialogue machine, and speech
// scheduler into a transcript-in, speech-out loop.
type assistant struct {
	classifier *lang.Classifier
	machine    *dialogue.Machine
	scheduler  *speech.Scheduler
	gender     speech.Gender
}

// loop reads transcript lines from r until EOF or ctx cancellation.
func (a *assistant) loop(ctx context.Context, r *os.File) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			a.handle(line)
		}
	}
}

// handle processes one user transcript.
func (a *assistant) handle(text string) {
	// Language detection runs on every utterance, including dialogue answers.
	if sw := a.classifier.AutoSwitch(text); sw.Switched {
		a.say(sw.Message, speech.PriorityHigh)
	}
	language := a.classifier.Current()

	switch a.machine.Status() {
	case dialogue.StatusAwaitingClarification:
		res := a.machine.ProcessClarificationResponse(text, language)
		a.speakClarificationResult(res, language)
		return
	case dialogue.StatusAwaitingConfirmation:
		res := a.machine.ProcessConfirmationResponse(text, language)
		a.speakConfirmationResult(res, language)
		return
	}

	a.handleCommand(text, language)
}

// handleCommand interprets a fresh (non-dialogue) transcript. The intent
// detection here is a deliberately small keyword demo; real deployments feed
// the dialogue machine from their own NLU layer.
func (a *assistant) handleCommand(text string, language lang.Language) {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "spend", "spent", "expense", "gast", "cuánto", "cuanto"):
		options := expenseOptions(language)
		a.machine.StartClarification(text, "expenses.query", options)
		a.say(clarifyPrompt(language), speech.PriorityHigh)

	case containsAny(lower, "delete", "remove", "eliminar", "borrar"):
		a.machine.StartConfirmation(text, "record.delete")
		a.say(confirmPrompt(language), speech.PriorityHigh)

	default:
		a.say(echoReply(language, text), speech.PriorityNormal)
	}
}

func (a *assistant) speakClarificationResult(res dialogue.Result, language lang.Language) {
	switch {
	case res.Matched && res.Option != nil:
		a.say(optionAck(language, *res.Option), speech.PriorityHigh)
	case res.FallbackMessage != "":
		a.say(res.FallbackMessage, speech.PriorityHigh)
	}
}

func (a *assistant) speakConfirmationResult(res dialogue.ConfirmResult, language lang.Language) {
	switch {
	case res.Confirmed != nil && *res.Confirmed:
		a.say(confirmDone(language), speech.PriorityHigh)
	case res.Confirmed != nil:
		a.say(confirmCancelled(language), speech.PriorityHigh)
	case res.Message != "":
		a.say(res.Message, speech.PriorityHigh)
	}
}

func (a *assistant) say(text string, pri speech.Priority) {
	a.scheduler.Speak(text, speech.Options{
		Language: locale(a.classifier.Current()),
		Gender:   a.gender,
		Priority: pri,
		OnEnd:    func(id string) { slog.Debug("utterance finished", "utterance", id) },
	})
}

// ── Demo dialogue content ─────────────────────────────────────────────────────

func expenseOptions(l lang.Language) []dialogue.Option {
	if l == lang.Spanish {
		return []dialogue.Option{
			{ID: "nav", Label: "Llévame a Gastos", Action: dialogue.ActionNavigate, Target: "expenses", Route: "/expenses"},
			{ID: "explain", Label: "Explícalo aquí", Action: dialogue.ActionExplain, Target: "expenses"},
		}
	}
	return []dialogue.Option{
		{ID: "nav", Label: "Take me to Expenses", Action: dialogue.ActionNavigate, Target: "expenses", Route: "/expenses"},
		{ID: "explain", Label: "Explain it here", Action: dialogue.ActionExplain, Target: "expenses"},
	}
}

func clarifyPrompt(l lang.Language) string {
	if l == lang.Spanish {
		return "Puedo llevarte a la página de Gastos o explicarlo aquí. ¿Qué prefieres? Di uno o dos."
	}
	return "I can take you to the Expenses page or explain it here. Which would you prefer? Say one or two."
}

func confirmPrompt(l lang.Language) string {
	if l == lang.Spanish {
		return "¿Seguro que quieres eliminarlo? Di sí o no."
	}
	return "Are you sure you want to delete it? Say yes or no."
}

func confirmDone(l lang.Language) string {
	if l == lang.Spanish {
		return "Hecho."
	}
	return "Done."
}

func confirmCancelled(l lang.Language) string {
	if l == lang.Spanish {
		return "De acuerdo, no haré nada."
	}
	return "Okay, I won't do anything."
}

func optionAck(l lang.Language, opt dialogue.Option) string {
	switch opt.Action {
	case dialogue.ActionCancel:
		if l == lang.Spanish {
			return "De acuerdo, cancelado."
		}
		return "Okay, cancelled."
	case dialogue.ActionNavigate:
		if l == lang.Spanish {
			return "Abriendo " + opt.Label + "."
		}
		return "Opening " + opt.Label + "."
	default:
		if l == lang.Spanish {
			return "Claro: " + opt.Label + "."
		}
		return "Sure: " + opt.Label + "."
	}
}

func echoReply(l lang.Language, text string) string {
	if l == lang.Spanish {
		return "Dijiste: " + text
	}
	return "You said: " + text
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// locale maps a detected language to the default speech locale.
func locale(l lang.Language) string {
	if l == lang.Spanish {
		return "es-ES"
	}
	return "en-US"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
