// Package align implements the lexical alignment engine: offline coverage
// scoring of a spoken attempt against a guide script, and incremental
// sentence-level synchronization for live listening.
//
// Alignment is deliberately lexical — normalized token overlap, no embeddings.
// Both inputs pass through the same normalization: lowercase, strip everything
// except ASCII alphanumerics and the guide language's script range, split on
// whitespace runs.
//
// All exported types are safe for concurrent use.
package align

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Feedback messages are user-facing and fixed; the UI shows them verbatim.
const (
	// msgNoGuide is returned when no guide script is set at all.
	msgNoGuide = "가이드 스크립트가 없습니다. 베스트 테이크를 선택하거나 슬라이드 노트를 작성해 주세요."

	// msgGuideEmpty is returned when the guide script contains no scoreable tokens.
	msgGuideEmpty = "가이드 스크립트에서 비교할 단어를 찾지 못했습니다. 내용을 확인해 주세요."

	msgTooLong  = "가이드보다 길게 말했어요. 핵심만 간결하게 정리해 보세요."
	msgTooShort = "가이드보다 짧게 말했어요. 빠뜨린 내용이 없는지 확인해 보세요."
	msgBalanced = "분량이 가이드와 잘 맞습니다."
)

const (
	// deltaTolerance is the token-count difference beyond which an attempt is
	// classified as too long or too short.
	deltaTolerance = 5

	// hintLimit caps the number of missing keywords surfaced in the feedback.
	hintLimit = 3

	// hintMinRunes excludes short particles and function words from the
	// missing-keyword hint. Digit-bearing tokens are exempt — numbers are
	// content the speaker should not drop, however short.
	hintMinRunes = 3
)

// Feedback is the result of scoring one spoken attempt against one guide.
type Feedback struct {
	// Message is the composed user-facing feedback string.
	Message string

	// HasGuide is false when no guide script was set or the guide normalized
	// to nothing; in that case no scoring was performed and the remaining
	// fields are zero.
	HasGuide bool

	// Coverage is the percentage of guide tokens found in the spoken tokens,
	// in [0, 100].
	Coverage int

	// Delta is len(spokenTokens) - len(guideTokens).
	Delta int

	// Missing lists up to hintLimit guide keywords absent from the attempt,
	// in first-occurrence order.
	Missing []string
}

// Option is a functional option for configuring a Scorer.
type Option func(*Scorer)

// WithScript sets the guide language's script range kept by normalization in
// addition to ASCII alphanumerics. Default: unicode.Hangul.
func WithScript(rt *unicode.RangeTable) Option {
	return func(s *Scorer) {
		s.script = rt
	}
}

// Scorer scores spoken attempts against guide scripts. It is read-only after
// construction and therefore safe for concurrent use.
type Scorer struct {
	script *unicode.RangeTable
}

// NewScorer returns a Scorer configured with the supplied options.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{script: unicode.Hangul}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score compares a spoken attempt against a guide script and returns composed
// feedback. It is a pure function: no side effects, deterministic for given
// inputs.
func (s *Scorer) Score(spoken, guide string) Feedback {
	if strings.TrimSpace(guide) == "" {
		return Feedback{Message: msgNoGuide}
	}

	guideTokens := s.Tokenize(guide)
	if len(guideTokens) == 0 {
		return Feedback{Message: msgGuideEmpty}
	}

	spokenTokens := s.Tokenize(spoken)
	spokenSet := make(map[string]struct{}, len(spokenTokens))
	for _, t := range spokenTokens {
		spokenSet[t] = struct{}{}
	}

	matched := 0
	for _, t := range guideTokens {
		if _, ok := spokenSet[t]; ok {
			matched++
		}
	}
	coverage := int(math.Round(100 * float64(matched) / float64(len(guideTokens))))
	coverage = min(max(coverage, 0), 100)

	delta := len(spokenTokens) - len(guideTokens)
	var lengthMsg string
	switch {
	case delta > deltaTolerance:
		lengthMsg = msgTooLong
	case delta < -deltaTolerance:
		lengthMsg = msgTooShort
	default:
		lengthMsg = msgBalanced
	}

	missing := missingKeywords(guideTokens, spokenSet)

	msg := fmt.Sprintf("가이드 일치율 %d%%. %s", coverage, lengthMsg)
	if len(missing) > 0 {
		msg += " 누락된 키워드: " + strings.Join(missing, ", ")
	}

	return Feedback{
		Message:  msg,
		HasGuide: true,
		Coverage: coverage,
		Delta:    delta,
		Missing:  missing,
	}
}

// Tokenize normalizes text into comparison tokens: lowercase, strip all runes
// outside ASCII alphanumerics and the configured script range (stripped runes
// are removed, not replaced, matching how "20%" becomes "20"), then split on
// whitespace runs.
func (s *Scorer) Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(s.script, r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// missingKeywords returns the deduplicated guide tokens eligible as hints that
// are absent from the spoken set, preserving first-occurrence order, truncated
// to hintLimit.
func missingKeywords(guideTokens []string, spokenSet map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(guideTokens))
	var missing []string
	for _, t := range guideTokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if !hintEligible(t) {
			continue
		}
		if _, ok := spokenSet[t]; ok {
			continue
		}
		missing = append(missing, t)
		if len(missing) == hintLimit {
			break
		}
	}
	return missing
}

// hintEligible reports whether a guide token is substantial enough to surface
// as a missing-keyword hint.
func hintEligible(token string) bool {
	runes := 0
	hasDigit := false
	for _, r := range token {
		runes++
		if r >= '0' && r <= '9' {
			hasDigit = true
		}
	}
	return runes >= hintMinRunes || hasDigit
}
