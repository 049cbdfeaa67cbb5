package align

import (
	"strings"
	"testing"
)

func TestScoreNoGuide(t *testing.T) {
	t.Parallel()

	s := NewScorer()

	for _, guide := range []string{"", "   ", "\n\t"} {
		fb := s.Score("아무 말이나 합니다", guide)
		if fb.HasGuide {
			t.Errorf("guide %q: HasGuide = true, want false", guide)
		}
		if fb.Message != msgNoGuide {
			t.Errorf("guide %q: Message = %q, want the no-guide prompt", guide, fb.Message)
		}
	}
}

func TestScoreGuideWithoutTokens(t *testing.T) {
	t.Parallel()

	s := NewScorer()

	// Punctuation-only guide survives the whitespace check but normalizes to nothing.
	fb := s.Score("안녕하세요", "... !!! ???")
	if fb.HasGuide {
		t.Error("HasGuide = true, want false")
	}
	if fb.Message != msgGuideEmpty {
		t.Errorf("Message = %q, want the empty-guide prompt", fb.Message)
	}
}

func TestScoreIdenticalText(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	guide := "오늘은 3분기 실적을 말씀드리겠습니다. 핵심은 수익성 개선입니다."

	fb := s.Score(guide, guide)
	if fb.Coverage != 100 {
		t.Errorf("Coverage = %d, want 100", fb.Coverage)
	}
	if len(fb.Missing) != 0 {
		t.Errorf("Missing = %v, want empty", fb.Missing)
	}
	if fb.Delta != 0 {
		t.Errorf("Delta = %d, want 0", fb.Delta)
	}
}

func TestScoreCoverageBounds(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	cases := []struct{ spoken, guide string }{
		{"", "가이드 스크립트 내용"},
		{"완전히 다른 이야기", "가이드 스크립트 내용"},
		{"가이드 스크립트 내용 그리고 더 많은 말", "가이드 스크립트 내용"},
		{"hello world", "Hello, world!"},
	}
	for _, tc := range cases {
		fb := s.Score(tc.spoken, tc.guide)
		if fb.Coverage < 0 || fb.Coverage > 100 {
			t.Errorf("Score(%q, %q): Coverage = %d, out of [0,100]", tc.spoken, tc.guide, fb.Coverage)
		}
	}
}

func TestScoreRevenueScenario(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	guide := "오늘은 매출 20% 성장을 발표합니다."
	spoken := "오늘은 매출 성장을 발표합니다."

	fb := s.Score(spoken, guide)

	// The "%" is stripped, so the guide yields five tokens of which four are
	// spoken: 오늘은/매출/성장을/발표합니다 match, the numeric token does not.
	if fb.Coverage != 80 {
		t.Errorf("Coverage = %d, want 80", fb.Coverage)
	}
	if len(fb.Missing) != 1 || fb.Missing[0] != "20" {
		t.Errorf("Missing = %v, want [20]", fb.Missing)
	}
}

func TestScoreLengthClassification(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	guide := "하나 둘 셋"

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		spoken := strings.Repeat("군더더기 ", 9) // 9 tokens vs 3, delta +6
		fb := s.Score(spoken, guide)
		if fb.Delta <= deltaTolerance {
			t.Fatalf("Delta = %d, want > %d", fb.Delta, deltaTolerance)
		}
		if !strings.Contains(fb.Message, msgTooLong) {
			t.Errorf("Message = %q, want too-long classification", fb.Message)
		}
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		longGuide := strings.Repeat("내용 ", 10)
		fb := s.Score("내용", longGuide)
		if fb.Delta >= -deltaTolerance {
			t.Fatalf("Delta = %d, want < -%d", fb.Delta, deltaTolerance)
		}
		if !strings.Contains(fb.Message, msgTooShort) {
			t.Errorf("Message = %q, want too-short classification", fb.Message)
		}
	})

	t.Run("balanced", func(t *testing.T) {
		t.Parallel()
		fb := s.Score("하나 둘 다섯", guide)
		if !strings.Contains(fb.Message, msgBalanced) {
			t.Errorf("Message = %q, want balanced classification", fb.Message)
		}
	})
}

func TestScoreMissingKeywordHints(t *testing.T) {
	t.Parallel()

	s := NewScorer()

	t.Run("truncated to three in first-occurrence order", func(t *testing.T) {
		t.Parallel()
		guide := "첫번째 두번째 세번째 네번째 다섯번째"
		fb := s.Score("", guide)
		want := []string{"첫번째", "두번째", "세번째"}
		if len(fb.Missing) != len(want) {
			t.Fatalf("Missing = %v, want %v", fb.Missing, want)
		}
		for i := range want {
			if fb.Missing[i] != want[i] {
				t.Errorf("Missing[%d] = %q, want %q", i, fb.Missing[i], want[i])
			}
		}
	})

	t.Run("short particles excluded", func(t *testing.T) {
		t.Parallel()
		// Two-rune tokens without digits are not hint material.
		fb := s.Score("발표합니다", "이제 발표합니다")
		if len(fb.Missing) != 0 {
			t.Errorf("Missing = %v, want empty", fb.Missing)
		}
	})

	t.Run("duplicates reported once", func(t *testing.T) {
		t.Parallel()
		fb := s.Score("", "키워드 키워드 키워드")
		if len(fb.Missing) != 1 {
			t.Errorf("Missing = %v, want a single entry", fb.Missing)
		}
	})
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	cases := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"매출 20% 성장", []string{"매출", "20", "성장"}},
		{"  여러   공백  ", []string{"여러", "공백"}},
		{"...", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := s.Tokenize(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("Tokenize(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}
