// Package config provides the configuration schema, loader, and file watcher
// for the voxassist daemon.
package config

import (
	"time"

	"github.com/fintora/voxassist/internal/lang"
)

// LogLevel controls log verbosity for the voxassist daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// EngineKind selects the speech synthesis backend.
type EngineKind string

const (
	// EngineNull discards audio but drives the full utterance lifecycle.
	// Useful for development and dry runs.
	EngineNull EngineKind = "null"

	// EnginePiper synthesises through a Piper Wyoming-protocol server.
	EnginePiper EngineKind = "piper"
)

// IsValid reports whether e is a recognised engine kind.
func (e EngineKind) IsValid() bool {
	return e == EngineNull || e == EnginePiper
}

// Config is the root configuration structure for voxassist.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Conversation ConversationConfig `yaml:"conversation"`
	Speech       SpeechConfig       `yaml:"speech"`
	Languages    LanguagesConfig    `yaml:"languages"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the health/metrics server listens on
	// (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// ConversationConfig tunes the dialogue state machine.
type ConversationConfig struct {
	// PromptTimeout is how long a clarification or confirmation prompt
	// waits for an answer before silently resetting. Default: 30s.
	PromptTimeout time.Duration `yaml:"prompt_timeout"`
}

// SpeechConfig tunes the speech output scheduler and its engine.
type SpeechConfig struct {
	// Engine selects the synthesis backend.
	Engine EngineKind `yaml:"engine"`

	// PiperAddr is the host:port of the Piper Wyoming server.
	// Required when Engine is "piper".
	PiperAddr string `yaml:"piper_addr"`

	// PiperVoices overrides the per-language Piper voice models,
	// keyed by ISO-639-1 code.
	PiperVoices map[string]string `yaml:"piper_voices"`

	// Debounce is the duplicate-suppression window. Default: 300ms.
	Debounce time.Duration `yaml:"debounce"`

	// Rate, Pitch, and Volume are the default delivery parameters.
	// Defaults: 1.0 each.
	Rate   float64 `yaml:"rate"`
	Pitch  float64 `yaml:"pitch"`
	Volume float64 `yaml:"volume"`

	// Gender is the preferred voice gender ("", "female", "male").
	Gender string `yaml:"gender"`
}

// LanguagesConfig configures language detection.
type LanguagesConfig struct {
	// Default is the active language at startup ("en" or "es").
	Default string `yaml:"default"`

	// Overrides replaces the built-in indicator word lists per language.
	// Hot-reloaded by the config [Watcher].
	Overrides map[string]WordListConfig `yaml:"overrides"`
}

// WordListConfig is a YAML-friendly mirror of [lang.WordList].
type WordListConfig struct {
	Words   []string `yaml:"words"`
	Phrases []string `yaml:"phrases"`
}

// WordLists converts the configured overrides into the classifier's form,
// dropping entries for unsupported languages.
func (l LanguagesConfig) WordLists() map[lang.Language]lang.WordList {
	if len(l.Overrides) == 0 {
		return nil
	}
	out := make(map[lang.Language]lang.WordList, len(l.Overrides))
	for code, wl := range l.Overrides {
		language := lang.Language(code)
		if !language.IsValid() {
			continue
		}
		out[language] = lang.WordList{Words: wl.Words, Phrases: wl.Phrases}
	}
	return out
}
