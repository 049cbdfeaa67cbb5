package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rostralabs/rostra/internal/align"
	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/internal/rehearsal"
	"github.com/rostralabs/rostra/pkg/provider/stt"
	"github.com/rostralabs/rostra/pkg/types"
)

// ListenConfig describes a live-listening session. Zero-value fields take the
// defaults noted per field.
type ListenConfig struct {
	// SampleRate of the PCM audio pushed via SendAudio. Default 16000.
	SampleRate int

	// Channels of the PCM audio. Default 1.
	Channels int

	// Mode decides whether finalized utterances become draft or final takes.
	// Default draft.
	Mode presentation.Mode
}

// Capture is an active live-listening session bound to one slide. Partial
// transcripts drive the guide-sentence highlight, finalized utterances are
// committed as takes. Only one Capture may exist per App; Stop releases the
// slot.
type Capture struct {
	app    *App
	sess   *rehearsal.Session
	page   int
	mode   presentation.Mode
	handle stt.SessionHandle
	sync   *align.Synchronizer

	// recordCtx outlives the caller's start context so in-flight finals are
	// still committed while the session drains.
	recordCtx context.Context

	g errgroup.Group

	mu       sync.Mutex
	segments []string
	seq      uint64

	stopOnce sync.Once
	stopErr  error
}

// StartListening opens a streaming transcription session for one slide. The
// guide script current at start time is segmented for sentence highlighting;
// it does not re-resolve while the capture runs.
func (a *App) StartListening(ctx context.Context, presentationID string, page int, cfg ListenConfig) (*Capture, error) {
	if a.providers.Live == nil {
		return nil, fmt.Errorf("app: live listening: %w", ErrSTTUnavailable)
	}
	if cfg.Mode == "" {
		cfg.Mode = presentation.ModeDraft
	}
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("app: mode %q: %w", cfg.Mode, rehearsal.ErrInvalidMode)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}

	sess, err := a.Session(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	sl, err := sess.Slide(page)
	if err != nil {
		return nil, err
	}

	a.captureMu.Lock()
	defer a.captureMu.Unlock()
	if a.capture != nil {
		return nil, ErrCaptureBusy
	}

	handle, err := a.providers.Live.StartStream(ctx, stt.StreamConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Language:   a.language,
	})
	if err != nil {
		a.metrics.RecordProviderError(ctx, "stt", "stream")
		return nil, fmt.Errorf("app: start stream: %w", err)
	}

	c := &Capture{
		app:       a,
		sess:      sess,
		page:      page,
		mode:      cfg.Mode,
		handle:    handle,
		sync:      align.NewSynchronizer(sl.GuideScript()),
		recordCtx: context.WithoutCancel(ctx),
	}
	c.g.Go(c.partialLoop)
	c.g.Go(c.finalLoop)

	a.capture = c
	a.metrics.ActiveCaptureSessions.Add(ctx, 1)
	a.logger.Info("live listening started",
		"presentation", presentationID,
		"page", page,
		"mode", cfg.Mode,
		"sentences", len(c.sync.Sentences()),
	)
	return c, nil
}

// SendAudio forwards a chunk of raw PCM audio into the stream.
func (c *Capture) SendAudio(chunk []byte) error {
	return c.handle.SendAudio(chunk)
}

// Sentences returns the guide segmented into highlightable sentences.
func (c *Capture) Sentences() []string {
	return c.sync.Sentences()
}

// CurrentSentence returns the index of the guide sentence currently being
// spoken.
func (c *Capture) CurrentSentence() int {
	return c.sync.Current()
}

// Transcript returns the accumulated finalized transcript of the session so
// far.
func (c *Capture) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.segments, " ")
}

// Stop closes the stream, waits for both consumer loops to drain, and
// releases the capture slot. Safe to call more than once.
func (c *Capture) Stop() error {
	c.stopOnce.Do(func() {
		err := c.handle.Close()
		if waitErr := c.g.Wait(); waitErr != nil && err == nil {
			err = waitErr
		}
		c.stopErr = err

		c.app.captureMu.Lock()
		if c.app.capture == c {
			c.app.capture = nil
		}
		c.app.captureMu.Unlock()
		c.app.metrics.ActiveCaptureSessions.Add(c.recordCtx, -1)
		c.app.logger.Info("live listening stopped", "page", c.page)
	})
	return c.stopErr
}

// partialLoop feeds interim transcripts into the synchronizer. Each event
// carries the finalized transcript so far plus the current interim guess, so
// the highlight is derived from the whole accumulated utterance.
func (c *Capture) partialLoop() error {
	for t := range c.handle.Partials() {
		c.mu.Lock()
		c.seq++
		ev := types.PartialResult{
			Text:     joinSegments(c.segments, t.Text),
			Sequence: c.seq,
		}
		c.mu.Unlock()
		c.sync.Observe(ev)
	}
	return nil
}

// finalLoop commits each finalized utterance as a take and folds it into the
// accumulated transcript driving the highlight.
func (c *Capture) finalLoop() error {
	for t := range c.handle.Finals() {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}

		c.mu.Lock()
		c.segments = append(c.segments, t.Text)
		c.seq++
		ev := types.PartialResult{
			Text:     joinSegments(c.segments, ""),
			IsFinal:  true,
			Sequence: c.seq,
		}
		c.mu.Unlock()
		c.sync.Observe(ev)

		if _, err := c.app.commitTranscript(c.recordCtx, c.sess, c.page, t, "", c.mode); err != nil {
			c.app.logger.Warn("failed to commit live take", "page", c.page, "error", err)
		}
	}
	return nil
}

func joinSegments(segments []string, interim string) string {
	parts := segments
	if interim != "" {
		parts = append(append([]string(nil), segments...), interim)
	}
	return strings.Join(parts, " ")
}
