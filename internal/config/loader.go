package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":      {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt":      {"elevenlabs", "deepgram", "whisper"},
	"stt.live": {"deepgram"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
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

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Practice.Temperature < 0 || cfg.Practice.Temperature > 2 {
		errs = append(errs, fmt.Errorf("practice.temperature %.2f is out of range [0.0, 2.0]", cfg.Practice.Temperature))
	}

	// Provider name validation — warn for unknown names; a third-party
	// provider registered at runtime is still legitimate.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Draft.Name)
	validateProviderName("stt", cfg.Providers.STT.Final.Name)
	validateProviderName("stt.live", cfg.Providers.STT.Live.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; script synthesis and live comparison will be unavailable")
	}
	if cfg.Providers.STT.Draft.Name == "" && cfg.Providers.STT.Final.Name == "" {
		slog.Warn("no batch STT provider configured; recorded takes cannot be transcribed")
	}
	if cfg.Providers.STT.Live.Name == "" {
		slog.Warn("no live STT provider configured; realtime listening will be unavailable")
	}

	return errors.Join(errs...)
}

// applyDefaults fills in values the schema leaves optional.
func applyDefaults(cfg *Config) {
	if cfg.Practice.Language == "" {
		cfg.Practice.Language = "ko"
	}
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
