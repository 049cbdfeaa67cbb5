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
	// ErrEmptyUtterance is returned when there is no spoken text to compare.
	ErrEmptyUtterance = errors.New("nothing to compare: empty utterance")

	// ErrNoCuratedScript is returned when the slide has no curated script to
	// compare against.
	ErrNoCuratedScript = errors.New("nothing to compare: no curated script")
)

const liveSyncSystemPrompt = `당신은 발표 리허설 코치입니다. 확정된 발표 대본과 방금 말한 내용이 주어집니다. 둘을 비교해 짧게 피드백해 주세요.

반드시 다음 필드를 가진 JSON 객체 하나로만 답하세요:
{"alignmentSummary": "한두 문장 요약", "missingPoints": ["빠뜨린 내용"], "nextLines": ["이어서 말할 대본 문장"]}`

// SyncResult is a successful live comparison.
type SyncResult struct {
	// Preview is the slide's new live-sync preview, replacing the previous
	// one wholesale.
	Preview presentation.LiveSyncPreview

	// Feedback is the combined human-readable message: the summary plus the
	// missing points when present.
	Feedback string
}

// LiveSync compares a spoken utterance against a curated script and produces
// coaching deltas.
type LiveSync struct {
	provider    llm.Provider
	temperature float64
	logger      *slog.Logger
}

// LiveSyncOption configures a [LiveSync].
type LiveSyncOption func(*LiveSync)

// WithLiveSyncTemperature overrides the sampling temperature.
func WithLiveSyncTemperature(t float64) LiveSyncOption {
	return func(l *LiveSync) { l.temperature = t }
}

// WithLiveSyncLogger sets the logger. Defaults to [slog.Default].
func WithLiveSyncLogger(logger *slog.Logger) LiveSyncOption {
	return func(l *LiveSync) { l.logger = logger }
}

// NewLiveSync returns a LiveSync backed by the given provider.
func NewLiveSync(provider llm.Provider, opts ...LiveSyncOption) *LiveSync {
	l := &LiveSync{
		provider:    provider,
		temperature: defaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Compare asks the model how the spoken utterance tracks the curated script.
// It never writes anything itself; the caller commits the returned preview.
// Returns [ErrEmptyUtterance] or [ErrNoCuratedScript] without calling the
// model when a precondition fails.
func (l *LiveSync) Compare(ctx context.Context, spoken, curatedScript string) (SyncResult, error) {
	if strings.TrimSpace(spoken) == "" {
		return SyncResult{}, fmt.Errorf("synthesis: %w", ErrEmptyUtterance)
	}
	if strings.TrimSpace(curatedScript) == "" {
		return SyncResult{}, fmt.Errorf("synthesis: %w", ErrNoCuratedScript)
	}

	prompt := fmt.Sprintf("확정 대본:\n%s\n\n방금 말한 내용:\n%s", curatedScript, spoken)
	resp, err := l.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: liveSyncSystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature:    l.temperature,
		ResponseFormat: llm.FormatJSON,
	})
	if err != nil {
		return SyncResult{}, fmt.Errorf("synthesis: live sync: %w", err)
	}

	preview, ok := parseSyncResponse(resp.Content)
	if !ok {
		return SyncResult{}, fmt.Errorf("synthesis: live sync: %w", ErrEmptyGeneration)
	}
	preview.GeneratedAt = time.Now()

	l.logger.Info("live sync compared",
		"missing", len(preview.MissingPoints),
		"tokens", resp.Usage.TotalTokens,
	)
	return SyncResult{Preview: preview, Feedback: composeFeedback(preview)}, nil
}

// parseSyncResponse tolerates the field-name variants models emit for the
// comparison object. When no JSON object can be extracted, the raw response
// text becomes the summary; an entirely empty response fails.
func parseSyncResponse(content string) (presentation.LiveSyncPreview, bool) {
	block, ok := extractJSONObject(content)
	if !ok {
		summary := strings.TrimSpace(content)
		return presentation.LiveSyncPreview{AlignmentSummary: summary}, summary != ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		summary := strings.TrimSpace(content)
		return presentation.LiveSyncPreview{AlignmentSummary: summary}, summary != ""
	}

	preview := presentation.LiveSyncPreview{
		AlignmentSummary: firstString(fields, "alignmentSummary", "alignment_summary", "summary"),
		MissingPoints:    firstList(fields, "missingPoints", "missing_points", "missing"),
		NextLines:        firstList(fields, "nextLines", "next_lines", "next"),
	}
	if preview.AlignmentSummary == "" && len(preview.MissingPoints) == 0 && len(preview.NextLines) == 0 {
		return presentation.LiveSyncPreview{}, false
	}
	return preview, true
}

func composeFeedback(p presentation.LiveSyncPreview) string {
	feedback := p.AlignmentSummary
	if len(p.MissingPoints) > 0 {
		if feedback != "" {
			feedback += " "
		}
		feedback += "빠뜨린 내용: " + strings.Join(p.MissingPoints, ", ")
	}
	return feedback
}
