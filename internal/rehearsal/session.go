package rehearsal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rostralabs/rostra/internal/align"
	"github.com/rostralabs/rostra/internal/presentation"
)

var (
	// ErrSlideNotFound is returned when an operation addresses a page
	// outside the presentation.
	ErrSlideNotFound = errors.New("slide not found")

	// ErrInvalidMode is returned when a capture carries an unknown
	// practice mode.
	ErrInvalidMode = errors.New("invalid practice mode")
)

// Session owns one presentation for the duration of a rehearsal. Every
// mutation is applied under a single lock against the latest committed state,
// so two operations completing out of order can never build on the same stale
// snapshot and silently drop each other's writes.
//
// The session is the authority for the presentation's state. After each
// committed mutation the snapshot is persisted best-effort: a store failure
// is logged and the in-memory state stays authoritative.
type Session struct {
	mu      sync.Mutex
	current presentation.Presentation

	// latest caches the most recent transcript per page for quick access
	// by the manual live-sync path.
	latest map[int]string

	scorer *align.Scorer
	store  presentation.Store
	logger *slog.Logger
}

// Option configures a [Session].
type Option func(*Session)

// WithStore sets the store that committed snapshots are persisted to.
// Without it the session keeps state in memory only.
func WithStore(store presentation.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithScorer replaces the alignment scorer used for final-mode feedback.
func WithScorer(scorer *align.Scorer) Option {
	return func(s *Session) { s.scorer = scorer }
}

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a session owning a copy of p.
func NewSession(p presentation.Presentation, opts ...Option) *Session {
	s := &Session{
		current: p.Clone(),
		latest:  make(map[int]string),
		scorer:  align.NewScorer(),
		logger:  slog.Default(),
	}
	// Sessions rebuilt from a stored snapshot still know each slide's most
	// recent transcript.
	for _, sl := range s.current.Slides {
		if take, ok := sl.LatestTake(); ok && take.Transcript != "" {
			s.latest[sl.Page] = take.Transcript
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Presentation returns a copy of the current committed state.
func (s *Session) Presentation() presentation.Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Slide returns a copy of the slide for the given 1-based page.
func (s *Session) Slide(page int) (presentation.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.current.Slide(page)
	if !ok {
		return presentation.Slide{}, fmt.Errorf("rehearsal: page %d: %w", page, ErrSlideNotFound)
	}
	return sl.Clone(), nil
}

// LatestTranscript returns the cached most-recent transcript for a page.
func (s *Session) LatestTranscript(page int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.latest[page]
	return text, ok
}

// RecordResult is what a committed [Session.RecordTake] produced.
type RecordResult struct {
	Take presentation.Take

	// Slide is the committed slide state including the new take. The
	// automatic live-sync path operates on this snapshot, not a re-fetched
	// one.
	Slide presentation.Slide

	// Feedback is the alignment message for final-mode captures, empty in
	// draft mode.
	Feedback string
}

// RecordTake appends a take for the capture to the given page. In final mode
// the alignment feedback is computed synchronously against the guide script
// resolved from the slide state before the append.
func (s *Session) RecordTake(ctx context.Context, page int, capture Capture) (RecordResult, error) {
	if !capture.Mode.IsValid() {
		return RecordResult{}, fmt.Errorf("rehearsal: mode %q: %w", capture.Mode, ErrInvalidMode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.current.Slide(page)
	if !ok {
		return RecordResult{}, fmt.Errorf("rehearsal: page %d: %w", page, ErrSlideNotFound)
	}

	var feedback string
	if capture.Mode == presentation.ModeFinal {
		feedback = s.scorer.Score(capture.Transcript, sl.GuideScript()).Message
	}

	updated, take := AppendTake(sl, capture, feedback, time.Now())
	s.current = s.current.WithSlide(updated)
	s.latest[page] = take.Transcript
	s.persist(ctx)

	s.logger.Info("take recorded",
		"presentation", s.current.ID,
		"page", page,
		"take", take.ID,
		"number", take.TakeNumber,
		"mode", take.Mode,
	)
	return RecordResult{Take: take, Slide: updated.Clone(), Feedback: feedback}, nil
}

// DeleteTake removes a take and renumbers the remainder. If the deleted take
// was the most recent one, the latest-transcript cache for the page is
// recomputed from the new most-recent take, or cleared when none remain.
func (s *Session) DeleteTake(ctx context.Context, page int, takeID string) error {
	return s.applySlide(ctx, page, func(sl presentation.Slide) (presentation.Slide, error) {
		wasLatest := false
		if latest, ok := sl.LatestTake(); ok && latest.ID == takeID {
			wasLatest = true
		}

		updated, err := DeleteTake(sl, takeID)
		if err != nil {
			return presentation.Slide{}, err
		}

		if wasLatest {
			if latest, ok := updated.LatestTake(); ok {
				s.latest[page] = latest.Transcript
			} else {
				delete(s.latest, page)
			}
		}
		return updated, nil
	})
}

// MarkBest toggles the best flag on a take.
func (s *Session) MarkBest(ctx context.Context, page int, takeID string) error {
	return s.applySlide(ctx, page, func(sl presentation.Slide) (presentation.Slide, error) {
		return MarkBest(sl, takeID)
	})
}

// EditTranscript replaces a take's transcript. Editing the most recent take
// also refreshes the latest-transcript cache.
func (s *Session) EditTranscript(ctx context.Context, page int, takeID, text string) error {
	return s.applySlide(ctx, page, func(sl presentation.Slide) (presentation.Slide, error) {
		updated, err := EditTranscript(sl, takeID, text)
		if err != nil {
			return presentation.Slide{}, err
		}
		if latest, ok := updated.LatestTake(); ok && latest.ID == takeID {
			s.latest[page] = text
		}
		return updated, nil
	})
}

// SetNotes replaces a slide's notes.
func (s *Session) SetNotes(ctx context.Context, page int, notes string) error {
	return s.applySlide(ctx, page, func(sl presentation.Slide) (presentation.Slide, error) {
		sl.Notes = notes
		return sl, nil
	})
}

// EnsureSlides reconciles the slide sequence with a new page count.
func (s *Session) EnsureSlides(ctx context.Context, pageCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.EnsureSlides(pageCount)
	for page := range s.latest {
		if page > pageCount {
			delete(s.latest, page)
		}
	}
	s.persist(ctx)
	return nil
}

// ReplaceCuratedScript overwrites a slide's curated script and its meta
// wholesale.
func (s *Session) ReplaceCuratedScript(ctx context.Context, page int, script string, meta presentation.CuratedScriptMeta) error {
	return s.applySlide(ctx, page, func(sl presentation.Slide) (presentation.Slide, error) {
		sl.CuratedScript = script
		sl.CuratedScriptMeta = &meta
		return sl, nil
	})
}

// ReplaceLiveSyncPreview overwrites a slide's live-sync preview wholesale.
func (s *Session) ReplaceLiveSyncPreview(ctx context.Context, page int, preview presentation.LiveSyncPreview) error {
	return s.applySlide(ctx, page, func(sl presentation.Slide) (presentation.Slide, error) {
		sl.LiveSyncPreview = &preview
		return sl, nil
	})
}

// ReplaceFullScript overwrites the presentation's full script wholesale.
func (s *Session) ReplaceFullScript(ctx context.Context, script string, generatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.FullScript = script
	s.current.FullScriptGeneratedAt = generatedAt
	s.persist(ctx)
	return nil
}

// applySlide runs one slide transform against the latest committed state and
// commits the result. The transform either fully applies or, on error, leaves
// the state untouched.
func (s *Session) applySlide(ctx context.Context, page int, transform func(presentation.Slide) (presentation.Slide, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.current.Slide(page)
	if !ok {
		return fmt.Errorf("rehearsal: page %d: %w", page, ErrSlideNotFound)
	}

	updated, err := transform(sl)
	if err != nil {
		return fmt.Errorf("rehearsal: page %d: %w", page, err)
	}

	s.current = s.current.WithSlide(updated)
	s.persist(ctx)
	return nil
}

// persist writes the committed snapshot to the store, best-effort. Callers
// hold s.mu.
func (s *Session) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.current); err != nil {
		s.logger.Warn("failed to persist presentation snapshot",
			"presentation", s.current.ID,
			"error", err,
		)
	}
}
