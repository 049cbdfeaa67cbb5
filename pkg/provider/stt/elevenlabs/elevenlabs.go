// Package elevenlabs provides an ElevenLabs Scribe-backed batch STT provider
// using the speech-to-text REST API. It implements the stt.Provider interface.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rostralabs/rostra/pkg/provider/stt"
	"github.com/rostralabs/rostra/pkg/types"
)

const (
	sttEndpoint     = "https://api.elevenlabs.io/v1/speech-to-text"
	defaultModel    = "scribe_v1"
	defaultLanguage = "ko"
	defaultTimeout  = 60 * time.Second
)

// Option is a functional option for configuring the ElevenLabs Provider.
type Option func(*Provider)

// WithModel sets the transcription model ID (e.g., "scribe_v1").
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithLanguage sets the default language code sent with each request.
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithBaseURL overrides the default API endpoint. Useful for tests.
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.endpoint = strings.TrimRight(url, "/") + "/v1/speech-to-text"
	}
}

// WithTimeout sets the per-request HTTP timeout. Default: 60 s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements stt.Provider backed by the ElevenLabs speech-to-text API.
type Provider struct {
	apiKey     string
	model      string
	language   string
	endpoint   string
	httpClient *http.Client
}

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// New creates a new ElevenLabs Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		model:      defaultModel,
		language:   defaultLanguage,
		endpoint:   sttEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// sttResponse is the JSON structure returned by the speech-to-text endpoint.
// Depending on model and options the transcript arrives either as a single
// text field or as an utterance list; both shapes are accepted and joined.
type sttResponse struct {
	Text         string  `json:"text"`
	LanguageCode string  `json:"language_code"`
	Confidence   float64 `json:"language_probability"`
	Utterances   []struct {
		Text string `json:"text"`
	} `json:"utterances"`
}

// Transcribe implements stt.Provider. audio is a complete recorded utterance
// in any container format the API accepts (webm, wav, mp3).
func (p *Provider) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (types.Transcript, error) {
	if len(audio) == 0 {
		return types.Transcript{}, fmt.Errorf("elevenlabs: %w", stt.ErrEmptyResult)
	}

	model := cfg.ModelID
	if model == "" {
		model = p.model
	}
	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}

	body, contentType, err := buildForm(audio, model, lang)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("elevenlabs: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("elevenlabs: new request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("elevenlabs: request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return types.Transcript{}, fmt.Errorf("elevenlabs: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Transcript{}, fmt.Errorf("elevenlabs: transcription failed: status %d: %s", resp.StatusCode, truncate(payload, 200))
	}

	var parsed sttResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return types.Transcript{}, fmt.Errorf("elevenlabs: decode response: %w", err)
	}

	text := parsed.Text
	if text == "" && len(parsed.Utterances) > 0 {
		parts := make([]string, 0, len(parsed.Utterances))
		for _, u := range parsed.Utterances {
			if u.Text != "" {
				parts = append(parts, u.Text)
			}
		}
		text = strings.Join(parts, " ")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Transcript{}, fmt.Errorf("elevenlabs: %w", stt.ErrEmptyResult)
	}

	return types.Transcript{
		Text:       text,
		IsFinal:    true,
		Confidence: parsed.Confidence,
		ModelID:    model,
	}, nil
}

// buildForm assembles the multipart request body for one transcription call.
func buildForm(audio []byte, model, language string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", "audio.webm")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model_id", model); err != nil {
		return nil, "", err
	}
	if language != "" {
		if err := w.WriteField("language_code", language); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// truncate shortens an error payload for inclusion in error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
