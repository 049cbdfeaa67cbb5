package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/pkg/provider/llm"
)

var (
	// ErrNothingToSynthesize is returned when the slide has no takes and no
	// explicit selection resolves to any.
	ErrNothingToSynthesize = errors.New("nothing to synthesize")

	// ErrEmptyGeneration is returned when the model produced no usable
	// content, even after falling back to the raw response text.
	ErrEmptyGeneration = errors.New("generation produced no content")
)

// defaultTemperature keeps synthesis output stable across retries while
// leaving room for rephrasing.
const defaultTemperature = 0.35

const curatorSystemPrompt = `당신은 발표 연습 코치입니다. 같은 슬라이드에 대한 여러 번의 발표 시도 녹취록이 주어집니다. 이를 종합해 중복 없이 매끄럽게 다듬은 하나의 발표 대본을 만들어 주세요. 말버릇과 군더더기는 제거하고, 시도들에 공통으로 등장하는 핵심 내용은 반드시 유지합니다.

반드시 다음 필드를 가진 JSON 객체 하나로만 답하세요:
{"script": "다듬어진 대본", "keyPoints": ["핵심 포인트"], "coachingNote": "한 줄 코칭"}`

// takeDelimiter separates takes inside the synthesis prompt.
const takeDelimiter = "\n---\n"

// noTranscriptPlaceholder stands in for takes whose transcription never
// produced text.
const noTranscriptPlaceholder = "(인식된 텍스트 없음)"

// CuratedResult is a successful synthesis, ready to be committed to the slide
// as its curated script.
type CuratedResult struct {
	Script       string
	KeyPoints    []string
	CoachingNote string

	// SourceTakeIDs snapshots every take id present on the slide at call
	// time, not just the selected ones.
	SourceTakeIDs []string

	GeneratedAt time.Time
}

// Curator synthesizes a curated script for one slide from its takes.
type Curator struct {
	provider    llm.Provider
	temperature float64
	logger      *slog.Logger
}

// CuratorOption configures a [Curator].
type CuratorOption func(*Curator)

// WithCuratorTemperature overrides the sampling temperature.
func WithCuratorTemperature(t float64) CuratorOption {
	return func(c *Curator) { c.temperature = t }
}

// WithCuratorLogger sets the logger. Defaults to [slog.Default].
func WithCuratorLogger(logger *slog.Logger) CuratorOption {
	return func(c *Curator) { c.logger = logger }
}

// NewCurator returns a Curator backed by the given provider.
func NewCurator(provider llm.Provider, opts ...CuratorOption) *Curator {
	c := &Curator{
		provider:    provider,
		temperature: defaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize combines the slide's takes into one curated script. takeIDs
// narrows the selection; nil or empty means every take on the slide. Unknown
// ids in the selection are ignored.
//
// On any failure the caller's existing curated script must stay untouched;
// Synthesize signals this by returning an error and no result.
func (c *Curator) Synthesize(ctx context.Context, sl presentation.Slide, takeIDs []string) (CuratedResult, error) {
	selected := selectTakes(sl.Takes, takeIDs)
	if len(selected) == 0 {
		return CuratedResult{}, fmt.Errorf("synthesis: slide %d: %w", sl.Page, ErrNothingToSynthesize)
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: curatorSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildCuratorPrompt(selected)},
		},
		Temperature:    c.temperature,
		ResponseFormat: llm.FormatJSON,
	})
	if err != nil {
		return CuratedResult{}, fmt.Errorf("synthesis: curate slide %d: %w", sl.Page, err)
	}

	result := parseCuratedResponse(resp.Content, c.logger)
	if result.Script == "" {
		return CuratedResult{}, fmt.Errorf("synthesis: curate slide %d: %w", sl.Page, ErrEmptyGeneration)
	}

	result.GeneratedAt = time.Now()
	for _, t := range sl.Takes {
		result.SourceTakeIDs = append(result.SourceTakeIDs, t.ID)
	}

	c.logger.Info("curated script synthesized",
		"page", sl.Page,
		"takes", len(selected),
		"tokens", resp.Usage.TotalTokens,
	)
	return result, nil
}

// selectTakes returns the takes matching ids in slide order, or all takes
// when ids is empty.
func selectTakes(takes []presentation.Take, ids []string) []presentation.Take {
	if len(ids) == 0 {
		return takes
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var selected []presentation.Take
	for _, t := range takes {
		if _, ok := want[t.ID]; ok {
			selected = append(selected, t)
		}
	}
	return selected
}

func buildCuratorPrompt(takes []presentation.Take) string {
	sections := make([]string, len(takes))
	for i, t := range takes {
		header := fmt.Sprintf("테이크 %d (%s", t.TakeNumber, modeLabel(t.Mode))
		if t.ModelID != "" {
			header += ", " + t.ModelID
		}
		header += ")"

		transcript := strings.TrimSpace(t.Transcript)
		if transcript == "" {
			transcript = noTranscriptPlaceholder
		}
		sections[i] = header + "\n" + transcript
	}
	return strings.Join(sections, takeDelimiter)
}

func modeLabel(m presentation.Mode) string {
	if m == presentation.ModeFinal {
		return "최종"
	}
	return "초안"
}

// parseCuratedResponse extracts and parses the JSON object from the model's
// reply. If extraction or parsing fails, or the script field is missing, the
// entire raw response is used as the script.
func parseCuratedResponse(content string, logger *slog.Logger) CuratedResult {
	if block, ok := extractJSONObject(content); ok {
		var parsed struct {
			Script       string       `json:"script"`
			KeyPoints    stringOrList `json:"keyPoints"`
			CoachingNote string       `json:"coachingNote"`
		}
		if err := json.Unmarshal([]byte(block), &parsed); err != nil {
			logger.Warn("curated response not parseable, falling back to raw text", "error", err)
		} else if strings.TrimSpace(parsed.Script) != "" {
			return CuratedResult{
				Script:       strings.TrimSpace(parsed.Script),
				KeyPoints:    parsed.KeyPoints,
				CoachingNote: strings.TrimSpace(parsed.CoachingNote),
			}
		}
	}
	return CuratedResult{Script: strings.TrimSpace(content)}
}
