package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/pkg/provider/llm"
)

// ErrNoScriptedSlides is returned when no slide has a curated script to
// aggregate.
var ErrNoScriptedSlides = errors.New("no slide has a curated script")

const fullScriptSystemPrompt = `당신은 발표 대본 편집자입니다. 슬라이드별로 확정된 대본들이 주어집니다. 슬라이드 사이의 전환이 자연스럽게 이어지도록 하나의 완성된 발표 대본으로 엮어 주세요. 각 슬라이드의 핵심 내용은 그대로 유지하고, 연결 문장만 보강합니다. 대본 본문만 출력하세요.`

// slideDelimiter separates slide sections inside the aggregation prompt.
const slideDelimiter = "\n\n---\n\n"

// FullScriptResult is a successful full-script composition.
type FullScriptResult struct {
	Script      string
	GeneratedAt time.Time

	// Pages lists which slides contributed a section, in page order.
	Pages []int
}

// FullScript aggregates per-slide curated scripts into one narrative.
type FullScript struct {
	provider    llm.Provider
	temperature float64
	logger      *slog.Logger
}

// FullScriptOption configures a [FullScript].
type FullScriptOption func(*FullScript)

// WithFullScriptTemperature overrides the sampling temperature.
func WithFullScriptTemperature(t float64) FullScriptOption {
	return func(f *FullScript) { f.temperature = t }
}

// WithFullScriptLogger sets the logger. Defaults to [slog.Default].
func WithFullScriptLogger(logger *slog.Logger) FullScriptOption {
	return func(f *FullScript) { f.logger = logger }
}

// NewFullScript returns a FullScript backed by the given provider.
func NewFullScript(provider llm.Provider, opts ...FullScriptOption) *FullScript {
	f := &FullScript{
		provider:    provider,
		temperature: defaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Compose builds one narrative from every slide that has a curated script, in
// page order. Slides without one are silently omitted; if none has one, it
// fails with [ErrNoScriptedSlides] and performs no call.
func (f *FullScript) Compose(ctx context.Context, p presentation.Presentation) (FullScriptResult, error) {
	prompt, pages := BuildFullScriptPrompt(p)
	if len(pages) == 0 {
		return FullScriptResult{}, fmt.Errorf("synthesis: full script: %w", ErrNoScriptedSlides)
	}

	resp, err := f.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: fullScriptSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature:    f.temperature,
		ResponseFormat: llm.FormatText,
	})
	if err != nil {
		return FullScriptResult{}, fmt.Errorf("synthesis: full script: %w", err)
	}

	script := strings.TrimSpace(resp.Content)
	if script == "" {
		return FullScriptResult{}, fmt.Errorf("synthesis: full script: %w", ErrEmptyGeneration)
	}

	f.logger.Info("full script composed",
		"presentation", p.ID,
		"slides", len(pages),
		"tokens", resp.Usage.TotalTokens,
	)
	return FullScriptResult{Script: script, GeneratedAt: time.Now(), Pages: pages}, nil
}

// BuildFullScriptPrompt concatenates the curated-script sections in page
// order and returns the contributing pages. An empty page list means no slide
// had a curated script.
func BuildFullScriptPrompt(p presentation.Presentation) (string, []int) {
	var sections []string
	var pages []int
	for _, sl := range p.Slides {
		if strings.TrimSpace(sl.CuratedScript) == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("Slide %d:\n%s", sl.Page, sl.CuratedScript))
		pages = append(pages, sl.Page)
	}
	return strings.Join(sections, slideDelimiter), pages
}
