package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/pkg/provider/llm"
	"github.com/rostralabs/rostra/pkg/provider/llm/mock"
)

func TestFullScriptOmitsScriptlessSlides(t *testing.T) {
	t.Parallel()

	// Five slides, only 1 and 3 carry curated scripts: the prompt holds
	// exactly those two sections and no error is raised for the rest.
	p := presentation.New("발표", "", 5)
	p.Slides[0].CuratedScript = "첫 슬라이드 대본"
	p.Slides[2].CuratedScript = "셋째 슬라이드 대본"

	provider := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "이어 붙인 전체 대본"},
	}
	f := NewFullScript(provider, WithFullScriptLogger(discardLogger()))

	result, err := f.Compose(context.Background(), p)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if result.Script != "이어 붙인 전체 대본" {
		t.Errorf("Script = %q", result.Script)
	}
	if len(result.Pages) != 2 || result.Pages[0] != 1 || result.Pages[1] != 3 {
		t.Errorf("Pages = %v, want [1 3]", result.Pages)
	}

	req := provider.Calls()[0].Req
	if req.ResponseFormat != llm.FormatText {
		t.Errorf("ResponseFormat = %q, want text", req.ResponseFormat)
	}
	prompt := req.Messages[0].Content
	if !strings.Contains(prompt, "Slide 1:\n첫 슬라이드 대본") || !strings.Contains(prompt, "Slide 3:\n셋째 슬라이드 대본") {
		t.Errorf("prompt sections wrong:\n%s", prompt)
	}
	for _, absent := range []string{"Slide 2:", "Slide 4:", "Slide 5:"} {
		if strings.Contains(prompt, absent) {
			t.Errorf("prompt contains %q for a slide without a script", absent)
		}
	}
	if got := strings.Count(prompt, slideDelimiter); got != 1 {
		t.Errorf("prompt has %d delimiters, want 1", got)
	}
}

func TestFullScriptNoScriptedSlides(t *testing.T) {
	t.Parallel()

	provider := &mock.Provider{}
	f := NewFullScript(provider, WithFullScriptLogger(discardLogger()))

	_, err := f.Compose(context.Background(), presentation.New("빈 발표", "", 3))
	if !errors.Is(err, ErrNoScriptedSlides) {
		t.Fatalf("Compose = %v, want ErrNoScriptedSlides", err)
	}
	if len(provider.Calls()) != 0 {
		t.Error("model called despite having nothing to aggregate")
	}
}

func TestFullScriptEmptyGeneration(t *testing.T) {
	t.Parallel()

	p := presentation.New("발표", "", 1)
	p.Slides[0].CuratedScript = "대본"

	provider := &mock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "  "},
	}
	f := NewFullScript(provider, WithFullScriptLogger(discardLogger()))

	if _, err := f.Compose(context.Background(), p); !errors.Is(err, ErrEmptyGeneration) {
		t.Errorf("Compose = %v, want ErrEmptyGeneration", err)
	}
}
