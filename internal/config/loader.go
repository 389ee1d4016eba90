package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fintora/voxassist/internal/lang"
	"gopkg.in/yaml.v3"
)

// Default returns a configuration with all defaults applied and no overrides.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and validates
// the result. Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Conversation.PromptTimeout == 0 {
		cfg.Conversation.PromptTimeout = 30 * time.Second
	}
	if cfg.Speech.Engine == "" {
		cfg.Speech.Engine = EngineNull
	}
	if cfg.Speech.Debounce == 0 {
		cfg.Speech.Debounce = 300 * time.Millisecond
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = 1.0
	}
	if cfg.Speech.Pitch == 0 {
		cfg.Speech.Pitch = 1.0
	}
	if cfg.Speech.Volume == 0 {
		cfg.Speech.Volume = 1.0
	}
	if cfg.Languages.Default == "" {
		cfg.Languages.Default = string(lang.English)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Conversation
	if cfg.Conversation.PromptTimeout < 0 {
		errs = append(errs, fmt.Errorf("conversation.prompt_timeout %s must not be negative", cfg.Conversation.PromptTimeout))
	}

	// Speech
	if !cfg.Speech.Engine.IsValid() {
		errs = append(errs, fmt.Errorf("speech.engine %q is invalid; valid values: null, piper", cfg.Speech.Engine))
	}
	if cfg.Speech.Engine == EnginePiper && cfg.Speech.PiperAddr == "" {
		errs = append(errs, fmt.Errorf("speech.piper_addr is required when speech.engine is piper"))
	}
	if cfg.Speech.Debounce < 0 {
		errs = append(errs, fmt.Errorf("speech.debounce %s must not be negative", cfg.Speech.Debounce))
	}
	if cfg.Speech.Rate < 0.5 || cfg.Speech.Rate > 2.0 {
		errs = append(errs, fmt.Errorf("speech.rate %.2f is out of range [0.5, 2.0]", cfg.Speech.Rate))
	}
	if cfg.Speech.Pitch < 0.5 || cfg.Speech.Pitch > 2.0 {
		errs = append(errs, fmt.Errorf("speech.pitch %.2f is out of range [0.5, 2.0]", cfg.Speech.Pitch))
	}
	if cfg.Speech.Volume < 0 || cfg.Speech.Volume > 1.0 {
		errs = append(errs, fmt.Errorf("speech.volume %.2f is out of range [0, 1]", cfg.Speech.Volume))
	}
	switch cfg.Speech.Gender {
	case "", "female", "male":
	default:
		errs = append(errs, fmt.Errorf("speech.gender %q is invalid; valid values: female, male", cfg.Speech.Gender))
	}

	// Languages
	if !lang.Language(cfg.Languages.Default).IsValid() {
		errs = append(errs, fmt.Errorf("languages.default %q is invalid; valid values: en, es", cfg.Languages.Default))
	}
	for code, wl := range cfg.Languages.Overrides {
		if !lang.Language(code).IsValid() {
			errs = append(errs, fmt.Errorf("languages.overrides[%q]: unsupported language; valid values: en, es", code))
			continue
		}
		if len(wl.Words) == 0 && len(wl.Phrases) == 0 {
			slog.Warn("language override has no words or phrases; detection for this language will rely on diacritics only", "language", code)
		}
	}

	return errors.Join(errs...)
}
