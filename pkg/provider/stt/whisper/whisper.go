// Package whisper provides a local whisper.cpp-backed batch STT provider
// using the CGO bindings. The whisper.cpp static library (libwhisper.a) and
// headers (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once at startup and shared across all transcription
// calls; each call creates its own whisper context, so concurrent calls are
// safe. Because inference runs fully offline this provider is well suited to
// the low-stakes draft tier where round-trip latency matters less than cost.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/rostralabs/rostra/pkg/provider/stt"
	"github.com/rostralabs/rostra/pkg/types"
)

const (
	defaultLanguage = "ko"
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the language code for transcription (e.g., "ko", "en").
// Defaults to "ko".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithChannels sets the channel count of incoming PCM audio. Multi-channel
// audio is down-mixed to mono before inference. Defaults to 1.
func WithChannels(n int) Option {
	return func(p *Provider) { p.channels = n }
}

// Provider implements stt.Provider using whisper.cpp Go bindings (CGO).
type Provider struct {
	model    whisperlib.Model
	modelRef string
	language string
	channels int
}

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// New creates a Provider that loads the whisper.cpp model from the given file
// path. The caller must call Close when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{
		model:    model,
		modelRef: modelPath,
		language: defaultLanguage,
		channels: 1,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe implements stt.Provider. audio must be raw 16-bit signed
// little-endian PCM at 16 kHz (whisper.cpp's required input rate).
func (p *Provider) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (types.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return types.Transcript{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	if len(audio) == 0 {
		return types.Transcript{}, fmt.Errorf("whisper: %w", stt.ErrEmptyResult)
	}

	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}

	samples := pcmToFloat32Mono(audio, p.channels)

	// Each context is NOT thread-safe, but the model can be shared across
	// goroutines, so a fresh context per call keeps Transcribe concurrent-safe.
	wctx, err := p.model.NewContext()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(lang); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", lang, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return types.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	text := strings.Join(parts, " ")
	if text == "" {
		return types.Transcript{}, fmt.Errorf("whisper: %w", stt.ErrEmptyResult)
	}

	return types.Transcript{
		Text:    text,
		IsFinal: true,
		ModelID: p.modelRef,
	}, nil
}
