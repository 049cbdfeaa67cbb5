package transcript

import (
	"strings"
	"testing"

	"github.com/rostralabs/rostra/pkg/types"
)

// stubMatcher corrects words by table lookup.
type stubMatcher struct {
	replacements map[string]string
}

func (m stubMatcher) Match(word string, vocabulary []string) (string, float64, bool) {
	if corrected, ok := m.replacements[strings.ToLower(word)]; ok {
		return corrected, 0.9, true
	}
	return word, 0, false
}

func TestKeywordCorrectorReplacesWords(t *testing.T) {
	t.Parallel()

	c := NewKeywordCorrector(stubMatcher{replacements: map[string]string{
		"그라파나": "Grafana",
	}})

	got := c.Correct(types.Transcript{Text: "대시보드는 그라파나 기반입니다"}, []string{"Grafana"})
	if got.Text != "대시보드는 Grafana 기반입니다" {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.Corrections) != 1 || got.Corrections[0].Original != "그라파나" {
		t.Errorf("Corrections = %+v", got.Corrections)
	}
}

func TestKeywordCorrectorKeepsPunctuation(t *testing.T) {
	t.Parallel()

	c := NewKeywordCorrector(stubMatcher{replacements: map[string]string{
		"그라파나": "Grafana",
	}})

	got := c.Correct(types.Transcript{Text: "마지막으로, 그라파나."}, []string{"Grafana"})
	if got.Text != "마지막으로, Grafana." {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestKeywordCorrectorRespectsWordConfidence(t *testing.T) {
	t.Parallel()

	c := NewKeywordCorrector(stubMatcher{replacements: map[string]string{
		"그라파나": "Grafana",
	}})
	vocab := []string{"Grafana"}

	t.Run("confident word untouched", func(t *testing.T) {
		t.Parallel()
		got := c.Correct(types.Transcript{
			Text:  "그라파나 대시보드",
			Words: []types.WordDetail{{Word: "그라파나", Confidence: 0.95}, {Word: "대시보드", Confidence: 0.9}},
		}, vocab)
		if got.Text != "그라파나 대시보드" {
			t.Errorf("Text = %q, want unchanged", got.Text)
		}
	})

	t.Run("uncertain word corrected", func(t *testing.T) {
		t.Parallel()
		got := c.Correct(types.Transcript{
			Text:  "그라파나 대시보드",
			Words: []types.WordDetail{{Word: "그라파나", Confidence: 0.2}, {Word: "대시보드", Confidence: 0.9}},
		}, vocab)
		if got.Text != "Grafana 대시보드" {
			t.Errorf("Text = %q", got.Text)
		}
	})
}

func TestKeywordCorrectorNoVocabulary(t *testing.T) {
	t.Parallel()

	c := NewKeywordCorrector(stubMatcher{})
	got := c.Correct(types.Transcript{Text: "그대로 유지"}, nil)
	if got.Text != "그대로 유지" || got.Corrections != nil {
		t.Errorf("got %+v, want untouched", got)
	}
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	notes := "- Grafana\n* Kubernetes\n\n  매출 목표\nGrafana\n"
	got := Keywords(notes)
	want := []string{"Grafana", "Kubernetes", "매출 목표"}
	if len(got) != len(want) {
		t.Fatalf("Keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keywords[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
