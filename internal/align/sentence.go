package align

import (
	"strings"
	"sync"

	"github.com/rostralabs/rostra/pkg/types"
)

// Synchronizer tracks which guide sentence is currently being spoken during a
// live-listening session. It consumes accumulated partial-transcript events
// and re-derives the highlighted sentence on every update; the index is not
// guaranteed to move monotonically forward — an earlier sentence can win back
// the highlight if the running transcript matches it better.
//
// Stale events are discarded by sequence number. All methods are safe for
// concurrent use.
//
// One Synchronizer serves one slide-practice session; construct a fresh one
// whenever the active slide or practice mode changes.
type Synchronizer struct {
	mu        sync.Mutex
	scorer    *Scorer
	sentences []string
	tokens    [][]string
	current   int
	lastSeq   uint64
	seen      bool
}

// NewSynchronizer segments guide into sentences and returns a Synchronizer
// positioned at the first sentence. opts configure the normalization (see
// WithScript).
func NewSynchronizer(guide string, opts ...Option) *Synchronizer {
	scorer := NewScorer(opts...)
	sentences := SplitSentences(guide)
	tokens := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens[i] = scorer.Tokenize(sent)
	}
	return &Synchronizer{
		scorer:    scorer,
		sentences: sentences,
		tokens:    tokens,
	}
}

// Sentences returns the guide segmented into sentences, terminal punctuation
// retained. A guide without any boundary yields a single sentence.
func (s *Synchronizer) Sentences() []string {
	out := make([]string, len(s.sentences))
	copy(out, s.sentences)
	return out
}

// Current returns the index of the sentence to highlight. Before any
// transcript has arrived this is 0.
func (s *Synchronizer) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Observe processes one transcript event and returns the updated highlight
// index. Events whose sequence number is not strictly greater than the last
// accepted one are discarded and leave the index unchanged.
func (s *Synchronizer) Observe(ev types.PartialResult) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen && ev.Sequence <= s.lastSeq {
		return s.current
	}
	s.seen = true
	s.lastSeq = ev.Sequence

	spoken := s.scorer.Tokenize(ev.Text)
	if len(spoken) == 0 || len(s.tokens) == 0 {
		return s.current
	}
	spokenSet := make(map[string]struct{}, len(spoken))
	for _, t := range spoken {
		spokenSet[t] = struct{}{}
	}

	// Strict > keeps the earliest sentence that reaches a given score; a later
	// equal-scoring sentence does not displace it.
	best, bestScore := 0, -1
	for i, sentTokens := range s.tokens {
		score := 0
		for _, t := range sentTokens {
			if _, ok := spokenSet[t]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	s.current = best
	return s.current
}

// Reset returns the highlight to the first sentence and forgets all previously
// observed events. Call it when a new practice run starts on the same guide.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = 0
	s.lastSeq = 0
	s.seen = false
}

// SplitSentences segments a guide script into sentences. Sentence-terminal
// punctuation (., !, ?) and newlines are boundaries; terminal punctuation is
// retained on its sentence. A script with no boundary at all is returned as a
// single sentence. Empty segments are dropped.
func SplitSentences(script string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		if sent := strings.TrimSpace(b.String()); sent != "" {
			sentences = append(sentences, sent)
		}
		b.Reset()
	}

	for _, r := range script {
		switch r {
		case '.', '!', '?':
			b.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return sentences
}
