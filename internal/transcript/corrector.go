// Package transcript post-processes raw speech-to-text output before it
// becomes a take. The only stage is phonetic keyword correction: terms the
// speaker keeps on their slide notes (product names, jargon) are recovered
// when the recognizer mangles them.
package transcript

import (
	"strings"
	"unicode"

	"github.com/rostralabs/rostra/pkg/types"
)

// defaultMinConfidence is the per-word STT confidence below which a word is
// considered a correction candidate when word-level detail is available.
const defaultMinConfidence = 0.5

// Matcher finds the vocabulary term closest to a spoken word.
// internal/transcript/phonetic provides the implementation.
type Matcher interface {
	// Match returns the best-matching term, its similarity score and whether
	// a match cleared the thresholds. When matched is false, corrected must
	// equal word unchanged.
	Match(word string, vocabulary []string) (corrected string, confidence float64, matched bool)
}

// Correction records one replaced word.
type Correction struct {
	Original   string
	Corrected  string
	Confidence float64
}

// Result is a corrected transcript with the applied corrections.
type Result struct {
	Text        string
	Corrections []Correction
}

// Option is a functional option for configuring a [KeywordCorrector].
type Option func(*KeywordCorrector)

// WithMinConfidence sets the word-confidence threshold: words the recognizer
// was at least this sure about are left alone. Only applies when the
// transcript carries word-level detail. Default: 0.5.
func WithMinConfidence(threshold float64) Option {
	return func(c *KeywordCorrector) {
		c.minConfidence = threshold
	}
}

// KeywordCorrector corrects transcripts against a vocabulary using a phonetic
// [Matcher]. It is read-only after construction and safe for concurrent use.
type KeywordCorrector struct {
	matcher       Matcher
	minConfidence float64
}

// NewKeywordCorrector returns a corrector backed by the given matcher.
func NewKeywordCorrector(matcher Matcher, opts ...Option) *KeywordCorrector {
	c := &KeywordCorrector{
		matcher:       matcher,
		minConfidence: defaultMinConfidence,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct replaces mangled vocabulary terms in the transcript text. When the
// transcript has word-level detail, only words below the confidence threshold
// are touched; without detail every word is a candidate. Punctuation attached
// to a word survives the replacement.
func (c *KeywordCorrector) Correct(t types.Transcript, vocabulary []string) Result {
	if c.matcher == nil || len(vocabulary) == 0 || strings.TrimSpace(t.Text) == "" {
		return Result{Text: t.Text}
	}

	confident := confidentWords(t.Words, c.minConfidence)

	words := strings.Fields(t.Text)
	var corrections []Correction
	changed := false

	for i, word := range words {
		core, prefix, suffix := trimPunct(word)
		if core == "" {
			continue
		}
		if _, ok := confident[strings.ToLower(core)]; ok {
			continue
		}

		corrected, score, matched := c.matcher.Match(core, vocabulary)
		if !matched || corrected == core {
			continue
		}
		words[i] = prefix + corrected + suffix
		changed = true
		corrections = append(corrections, Correction{
			Original:   core,
			Corrected:  corrected,
			Confidence: score,
		})
	}

	if !changed {
		return Result{Text: t.Text}
	}
	return Result{Text: strings.Join(words, " "), Corrections: corrections}
}

// Keywords extracts the vocabulary from slide notes: one term per line,
// leading bullet markers stripped, blanks dropped, duplicates removed.
func Keywords(notes string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, line := range strings.Split(notes, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, line)
	}
	return keywords
}

// confidentWords collects words whose recognition confidence clears the
// threshold. An empty details slice yields an empty set, making every word a
// correction candidate.
func confidentWords(details []types.WordDetail, threshold float64) map[string]struct{} {
	confident := make(map[string]struct{}, len(details))
	for _, d := range details {
		if d.Confidence >= threshold {
			confident[strings.ToLower(d.Word)] = struct{}{}
		}
	}
	return confident
}

// trimPunct splits leading and trailing punctuation off a word.
func trimPunct(word string) (core, prefix, suffix string) {
	trimmedLeft := strings.TrimLeftFunc(word, isPunct)
	prefix = word[:len(word)-len(trimmedLeft)]
	core = strings.TrimRightFunc(trimmedLeft, isPunct)
	suffix = trimmedLeft[len(core):]
	return core, prefix, suffix
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
