// Command rostra is the main entry point for the Rostra rehearsal engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rostralabs/rostra/internal/app"
	"github.com/rostralabs/rostra/internal/config"
	"github.com/rostralabs/rostra/internal/observe"
	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/pkg/provider/llm"
	"github.com/rostralabs/rostra/pkg/provider/llm/anyllm"
	openaillm "github.com/rostralabs/rostra/pkg/provider/llm/openai"
	"github.com/rostralabs/rostra/pkg/provider/stt"
	"github.com/rostralabs/rostra/pkg/provider/stt/deepgram"
	"github.com/rostralabs/rostra/pkg/provider/stt/elevenlabs"
	"github.com/rostralabs/rostra/pkg/provider/stt/whisper"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "rostra: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "rostra: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("rostra starting",
		"config", *configPath,
		"log_level", cfg.Server.LogLevel,
		"language", cfg.Practice.Language,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "rostra"})
	if err != nil {
		slog.Error("failed to initialise metrics provider", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Warn("metrics provider shutdown error", "err", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsSrv = serveMetrics(cfg.Server.MetricsAddr)
	}

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	store, pool, err := buildStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise storage", "err", err)
		return 1
	}
	if pool != nil {
		defer pool.Close()
	}

	application := app.New(providers,
		app.WithLogger(logger),
		app.WithStore(store),
		app.WithLanguage(cfg.Practice.Language),
		app.WithTemperature(cfg.Practice.Temperature),
		app.WithPhoneticCorrection(cfg.Practice.PhoneticCorrection),
	)
	registerProviderClosers(application, providers)

	slog.Info("rostra ready — press Ctrl+C to shut down")
	<-ctx.Done()
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", "err", err)
		}
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// newLogger builds the process logger at the configured level.
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

// serveMetrics exposes the Prometheus /metrics endpoint on addr.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()
	return srv
}

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// openai goes through the official SDK directly; a BaseURL override
	// points it at any OpenAI-compatible endpoint.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, openaillm.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openaillm.WithOrganization(org))
		}
		return openaillm.New(entry.APIKey, entry.Model, opts...)
	})

	// anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile all
	// share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	reg.RegisterSTT("elevenlabs", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, elevenlabs.WithLanguage(lang))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		return newDeepgram(entry)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(modelPath, opts...)
	})

	reg.RegisterStream("deepgram", func(entry config.ProviderEntry) (stt.StreamProvider, error) {
		return newDeepgram(entry)
	})
}

func newDeepgram(entry config.ProviderEntry) (*deepgram.Provider, error) {
	var opts []deepgram.Option
	if entry.Model != "" {
		opts = append(opts, deepgram.WithModel(entry.Model))
	}
	if lang := optString(entry.Options, "language"); lang != "" {
		opts = append(opts, deepgram.WithLanguage(lang))
	}
	if rate := optInt(entry.Options, "sample_rate"); rate != 0 {
		opts = append(opts, deepgram.WithSampleRate(rate))
	}
	return deepgram.New(entry.APIKey, opts...)
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to consume.
func buildProviders(cfg *config.Config, reg *config.Registry) (app.Providers, error) {
	var ps app.Providers

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "llm", "name", name)
		} else if err != nil {
			return app.Providers{}, fmt.Errorf("create llm provider %q: %w", name, err)
		} else {
			ps.LLM = p
			slog.Info("provider created", "kind", "llm", "name", name)
		}
	}

	sttTiers := []struct {
		kind  string
		entry config.ProviderEntry
		dst   *stt.Provider
	}{
		{"stt.draft", cfg.Providers.STT.Draft, &ps.STTDraft},
		{"stt.final", cfg.Providers.STT.Final, &ps.STTFinal},
	}
	for _, tier := range sttTiers {
		if tier.entry.Name == "" {
			continue
		}
		p, err := reg.CreateSTT(tier.entry)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", tier.kind, "name", tier.entry.Name)
		} else if err != nil {
			return app.Providers{}, fmt.Errorf("create %s provider %q: %w", tier.kind, tier.entry.Name, err)
		} else {
			*tier.dst = p
			slog.Info("provider created", "kind", tier.kind, "name", tier.entry.Name)
		}
	}

	if name := cfg.Providers.STT.Live.Name; name != "" {
		p, err := reg.CreateStream(cfg.Providers.STT.Live)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "stt.live", "name", name)
		} else if err != nil {
			return app.Providers{}, fmt.Errorf("create stt.live provider %q: %w", name, err)
		} else {
			ps.Live = p
			slog.Info("provider created", "kind", "stt.live", "name", name)
		}
	}

	return ps, nil
}

// buildStore returns the presentation store: PostgreSQL when a DSN is
// configured, in-memory otherwise. The returned pool is nil for the
// in-memory case.
func buildStore(ctx context.Context, cfg *config.Config) (presentation.Store, *pgxpool.Pool, error) {
	if cfg.Storage.PostgresDSN == "" {
		slog.Info("using in-memory presentation store")
		return presentation.NewMemStore(), nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	store := presentation.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("using postgres presentation store")
	return store, pool, nil
}

// registerProviderClosers hands providers that hold releasable resources
// (e.g. a loaded whisper model) to the application for shutdown.
func registerProviderClosers(application *app.App, ps app.Providers) {
	for _, candidate := range []any{ps.LLM, ps.STTDraft, ps.STTFinal, ps.Live} {
		if c, ok := candidate.(io.Closer); ok {
			application.AddCloser(c)
		}
	}
}

func optString(opts map[string]any, key string) string {
	if v, ok := opts[key].(string); ok {
		return v
	}
	return ""
}

func optInt(opts map[string]any, key string) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
