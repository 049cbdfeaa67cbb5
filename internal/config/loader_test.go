package config

import (
	"strings"
	"testing"
)

const validYAML = `
server:
  log_level: info
providers:
  llm:
    name: deepseek
    api_key: sk-test
    base_url: https://api.deepseek.com
    model: deepseek-chat
  stt:
    draft:
      name: whisper
      model: models/ggml-base.bin
    final:
      name: elevenlabs
      api_key: el-test
      model: scribe_v1
    live:
      name: deepgram
      api_key: dg-test
      model: nova-3
practice:
  language: ko
  temperature: 0.35
  phonetic_correction: true
storage:
  postgres_dsn: postgres://localhost:5432/rostra
`

func TestLoadFromReaderValid(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Providers.LLM.Name != "deepseek" || cfg.Providers.LLM.Model != "deepseek-chat" {
		t.Errorf("LLM entry = %+v", cfg.Providers.LLM)
	}
	if cfg.Providers.STT.Final.Model != "scribe_v1" {
		t.Errorf("final STT model = %q", cfg.Providers.STT.Final.Model)
	}
	if cfg.Providers.STT.Live.Name != "deepgram" {
		t.Errorf("live STT = %+v", cfg.Providers.STT.Live)
	}
	if cfg.Practice.Temperature != 0.35 || !cfg.Practice.PhoneticCorrection {
		t.Errorf("practice = %+v", cfg.Practice)
	}
}

func TestLoadFromReaderUnknownField(t *testing.T) {
	t.Parallel()

	yml := "server:\n  log_level: info\n  listen_port: 8080\n"
	if _, err := LoadFromReader(strings.NewReader(yml)); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestLoadFromReaderDefaultsLanguage(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader("server:\n  log_level: debug\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Practice.Language != "ko" {
		t.Errorf("Language = %q, want default ko", cfg.Practice.Language)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Server:   ServerConfig{LogLevel: "verbose"},
		Practice: PracticeConfig{Temperature: 3.5},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, want := range []string{"log_level", "temperature"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load("/nonexistent/rostra.yaml"); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("%q reported invalid", l)
		}
	}
	if LogLevel("trace").IsValid() {
		t.Error("trace reported valid")
	}
}

func TestValidateAllowsEmptyConfig(t *testing.T) {
	t.Parallel()

	// Missing providers produce warnings, not errors.
	if err := Validate(&Config{}); err != nil {
		t.Errorf("Validate(empty) = %v", err)
	}
}
