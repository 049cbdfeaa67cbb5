// Package app wires the rehearsal engine together: presentation sessions,
// transcription providers, the synthesizers, and their orchestration flows
// (take recording, live listening, script synthesis).
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rostralabs/rostra/internal/observe"
	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/internal/rehearsal"
	"github.com/rostralabs/rostra/internal/synthesis"
	"github.com/rostralabs/rostra/internal/transcript"
	"github.com/rostralabs/rostra/internal/transcript/phonetic"
	"github.com/rostralabs/rostra/pkg/provider/llm"
	"github.com/rostralabs/rostra/pkg/provider/stt"
	"github.com/rostralabs/rostra/pkg/types"
)

var (
	// ErrCaptureBusy is returned by StartListening while another capture
	// session is active. Only one audio-capture session may run at a time.
	ErrCaptureBusy = errors.New("app: a capture session is already active")

	// ErrPresentationNotFound is returned when no open or stored
	// presentation matches the requested id.
	ErrPresentationNotFound = errors.New("app: presentation not found")

	// ErrLLMUnavailable is returned by synthesis operations when no
	// text-generation provider is configured.
	ErrLLMUnavailable = errors.New("app: no text-generation provider configured")

	// ErrSTTUnavailable is returned by RecordTake when no transcription
	// provider is configured for the requested mode.
	ErrSTTUnavailable = errors.New("app: no transcription provider configured")

	// ErrNoTranscript is returned by CompareLive when the slide has no
	// recent transcript to compare.
	ErrNoTranscript = errors.New("app: no recent transcript for this slide")
)

// Providers bundles the external capabilities the app orchestrates. Any field
// may be nil; the operations needing it fail with a descriptive error.
type Providers struct {
	// LLM backs the three synthesizers.
	LLM llm.Provider

	// STTDraft and STTFinal are the batch transcription tiers per practice
	// mode.
	STTDraft stt.Provider
	STTFinal stt.Provider

	// Live is the streaming transcription backend for realtime listening.
	Live stt.StreamProvider
}

// Option configures an [App].
type Option func(*App)

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithMetrics sets the metrics instruments. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithStore sets the snapshot store shared by all presentation sessions.
func WithStore(store presentation.Store) Option {
	return func(a *App) { a.store = store }
}

// WithLanguage sets the transcription language hint. Default: "ko".
func WithLanguage(lang string) Option {
	return func(a *App) { a.language = lang }
}

// WithTemperature sets the synthesis sampling temperature. Zero keeps the
// synthesizers' built-in default.
func WithTemperature(t float64) Option {
	return func(a *App) { a.temperature = t }
}

// WithPhoneticCorrection enables correcting new take transcripts against the
// slide-notes vocabulary.
func WithPhoneticCorrection(enabled bool) Option {
	return func(a *App) { a.phoneticEnabled = enabled }
}

// App owns the application state for one local user session.
type App struct {
	providers Providers
	store     presentation.Store
	logger    *slog.Logger
	metrics   *observe.Metrics

	language        string
	temperature     float64
	phoneticEnabled bool

	curator    *synthesis.Curator
	liveSync   *synthesis.LiveSync
	fullScript *synthesis.FullScript
	corrector  *transcript.KeywordCorrector

	mu       sync.Mutex
	sessions map[string]*rehearsal.Session

	captureMu sync.Mutex
	capture   *Capture

	// autoSync tracks in-flight automatic live-sync goroutines so Shutdown
	// can wait for them.
	autoSync sync.WaitGroup

	closers []io.Closer
}

// New creates an App around the given providers.
func New(providers Providers, opts ...Option) *App {
	a := &App{
		providers: providers,
		store:     presentation.NewMemStore(),
		logger:    slog.Default(),
		language:  "ko",
		sessions:  make(map[string]*rehearsal.Session),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if providers.LLM != nil {
		var curatorOpts []synthesis.CuratorOption
		var liveOpts []synthesis.LiveSyncOption
		var fullOpts []synthesis.FullScriptOption
		if a.temperature > 0 {
			curatorOpts = append(curatorOpts, synthesis.WithCuratorTemperature(a.temperature))
			liveOpts = append(liveOpts, synthesis.WithLiveSyncTemperature(a.temperature))
			fullOpts = append(fullOpts, synthesis.WithFullScriptTemperature(a.temperature))
		}
		curatorOpts = append(curatorOpts, synthesis.WithCuratorLogger(a.logger))
		liveOpts = append(liveOpts, synthesis.WithLiveSyncLogger(a.logger))
		fullOpts = append(fullOpts, synthesis.WithFullScriptLogger(a.logger))

		a.curator = synthesis.NewCurator(providers.LLM, curatorOpts...)
		a.liveSync = synthesis.NewLiveSync(providers.LLM, liveOpts...)
		a.fullScript = synthesis.NewFullScript(providers.LLM, fullOpts...)
	}
	if a.phoneticEnabled {
		a.corrector = transcript.NewKeywordCorrector(phonetic.New())
	}
	return a
}

// AddCloser registers a resource to release on Shutdown, such as a provider
// holding a model handle or a database pool.
func (a *App) AddCloser(c io.Closer) {
	a.closers = append(a.closers, c)
}

// CreatePresentation creates a presentation with one empty slide per page and
// opens a session for it.
func (a *App) CreatePresentation(ctx context.Context, name, documentRef string, pageCount int) (presentation.Presentation, error) {
	p := presentation.New(name, documentRef, pageCount)
	if err := a.store.Save(ctx, p); err != nil {
		return presentation.Presentation{}, fmt.Errorf("app: create presentation: %w", err)
	}

	a.mu.Lock()
	a.sessions[p.ID] = rehearsal.NewSession(p,
		rehearsal.WithStore(a.store),
		rehearsal.WithLogger(a.logger),
	)
	a.mu.Unlock()

	a.logger.Info("presentation created", "presentation", p.ID, "pages", pageCount)
	return p, nil
}

// ListPresentations returns all stored presentations.
func (a *App) ListPresentations(ctx context.Context) ([]presentation.Presentation, error) {
	return a.store.List(ctx)
}

// DeletePresentation removes a presentation, its session, and its stored
// snapshot. Externally stored payloads are the file collaborator's concern.
func (a *App) DeletePresentation(ctx context.Context, id string) error {
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()

	if err := a.store.Delete(ctx, id); err != nil {
		if errors.Is(err, presentation.ErrNotFound) {
			return fmt.Errorf("app: delete %q: %w", id, ErrPresentationNotFound)
		}
		return fmt.Errorf("app: delete %q: %w", id, err)
	}
	a.logger.Info("presentation deleted", "presentation", id)
	return nil
}

// Session returns the open session for a presentation, loading it from the
// store on first access.
func (a *App) Session(ctx context.Context, id string) (*rehearsal.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if sess, ok := a.sessions[id]; ok {
		return sess, nil
	}

	p, err := a.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, presentation.ErrNotFound) {
			return nil, fmt.Errorf("app: %q: %w", id, ErrPresentationNotFound)
		}
		return nil, fmt.Errorf("app: load %q: %w", id, err)
	}

	sess := rehearsal.NewSession(p,
		rehearsal.WithStore(a.store),
		rehearsal.WithLogger(a.logger),
	)
	a.sessions[id] = sess
	return sess, nil
}

// RecordTake transcribes a recorded utterance with the tier matching mode and
// commits it as a take. In final mode the take carries alignment feedback,
// and when a curated script exists the live-sync comparison is kicked off
// asynchronously against the committed slide snapshot.
func (a *App) RecordTake(ctx context.Context, presentationID string, page int, audio []byte, audioRef string, mode presentation.Mode) (rehearsal.RecordResult, error) {
	if !mode.IsValid() {
		return rehearsal.RecordResult{}, fmt.Errorf("app: mode %q: %w", mode, rehearsal.ErrInvalidMode)
	}
	sess, err := a.Session(ctx, presentationID)
	if err != nil {
		return rehearsal.RecordResult{}, err
	}

	provider := a.sttFor(mode)
	if provider == nil {
		return rehearsal.RecordResult{}, fmt.Errorf("app: mode %q: %w", mode, ErrSTTUnavailable)
	}

	start := time.Now()
	t, err := provider.Transcribe(ctx, audio, stt.TranscribeConfig{Language: a.language})
	a.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordProviderError(ctx, "stt", string(mode))
		return rehearsal.RecordResult{}, fmt.Errorf("app: transcribe: %w", err)
	}

	return a.commitTranscript(ctx, sess, page, t, audioRef, mode)
}

// commitTranscript runs the post-transcription half of take recording:
// vocabulary correction, the session commit, and kicking off the automatic
// live-sync comparison. It is shared by RecordTake and the live finals loop.
func (a *App) commitTranscript(ctx context.Context, sess *rehearsal.Session, page int, t types.Transcript, audioRef string, mode presentation.Mode) (rehearsal.RecordResult, error) {
	text := t.Text
	if a.corrector != nil {
		if sl, err := sess.Slide(page); err == nil {
			if vocab := transcript.Keywords(sl.Notes); len(vocab) > 0 {
				corrected := a.corrector.Correct(t, vocab)
				if len(corrected.Corrections) > 0 {
					a.logger.Info("transcript corrected against slide vocabulary",
						"page", page,
						"corrections", len(corrected.Corrections),
					)
				}
				text = corrected.Text
			}
		}
	}

	res, err := sess.RecordTake(ctx, page, rehearsal.Capture{
		AudioRef:   audioRef,
		Transcript: text,
		Mode:       mode,
		ModelID:    t.ModelID,
	})
	if err != nil {
		return rehearsal.RecordResult{}, err
	}
	a.metrics.RecordTake(ctx, string(mode))

	// Automatic live-sync path: fire only for final-mode takes on slides
	// that already have a curated script, and compare against the slide
	// snapshot this take's creation committed.
	if mode == presentation.ModeFinal && a.liveSync != nil && res.Slide.CuratedScript != "" {
		a.autoSync.Add(1)
		go func(snapshot presentation.Slide, spoken string) {
			defer a.autoSync.Done()
			a.runAutoSync(context.WithoutCancel(ctx), sess, snapshot, spoken)
		}(res.Slide, res.Take.Transcript)
	}

	return res, nil
}

// runAutoSync performs the post-take live comparison and commits the preview.
func (a *App) runAutoSync(ctx context.Context, sess *rehearsal.Session, snapshot presentation.Slide, spoken string) {
	start := time.Now()
	result, err := a.liveSync.Compare(ctx, spoken, snapshot.CuratedScript)
	a.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordSynthesis(ctx, "livesync", "error")
		a.logger.Warn("automatic live sync failed", "page", snapshot.Page, "error", err)
		return
	}
	a.metrics.RecordSynthesis(ctx, "livesync", "ok")

	if err := sess.ReplaceLiveSyncPreview(ctx, snapshot.Page, result.Preview); err != nil {
		a.logger.Warn("failed to commit live sync preview", "page", snapshot.Page, "error", err)
	}
}

// CurateSlide synthesizes a curated script for a slide from its takes and
// commits it. takeIDs narrows the selection; empty means all takes.
func (a *App) CurateSlide(ctx context.Context, presentationID string, page int, takeIDs []string) (synthesis.CuratedResult, error) {
	if a.curator == nil {
		return synthesis.CuratedResult{}, ErrLLMUnavailable
	}
	sess, err := a.Session(ctx, presentationID)
	if err != nil {
		return synthesis.CuratedResult{}, err
	}
	sl, err := sess.Slide(page)
	if err != nil {
		return synthesis.CuratedResult{}, err
	}

	start := time.Now()
	result, err := a.curator.Synthesize(ctx, sl, takeIDs)
	a.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordSynthesis(ctx, "curate", "error")
		return synthesis.CuratedResult{}, err
	}
	a.metrics.RecordSynthesis(ctx, "curate", "ok")

	meta := presentation.CuratedScriptMeta{
		GeneratedAt:   result.GeneratedAt,
		SourceTakeIDs: result.SourceTakeIDs,
		KeyPoints:     result.KeyPoints,
	}
	if err := sess.ReplaceCuratedScript(ctx, page, result.Script, meta); err != nil {
		return synthesis.CuratedResult{}, err
	}
	return result, nil
}

// CompareLive runs the manual live-sync path: the slide's most recent
// transcript against its curated script. The committed preview replaces the
// previous one wholesale.
func (a *App) CompareLive(ctx context.Context, presentationID string, page int) (synthesis.SyncResult, error) {
	if a.liveSync == nil {
		return synthesis.SyncResult{}, ErrLLMUnavailable
	}
	sess, err := a.Session(ctx, presentationID)
	if err != nil {
		return synthesis.SyncResult{}, err
	}
	sl, err := sess.Slide(page)
	if err != nil {
		return synthesis.SyncResult{}, err
	}
	spoken, ok := sess.LatestTranscript(page)
	if !ok {
		return synthesis.SyncResult{}, fmt.Errorf("app: page %d: %w", page, ErrNoTranscript)
	}

	start := time.Now()
	result, err := a.liveSync.Compare(ctx, spoken, sl.CuratedScript)
	a.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordSynthesis(ctx, "livesync", "error")
		return synthesis.SyncResult{}, err
	}
	a.metrics.RecordSynthesis(ctx, "livesync", "ok")

	if err := sess.ReplaceLiveSyncPreview(ctx, page, result.Preview); err != nil {
		return synthesis.SyncResult{}, err
	}
	return result, nil
}

// ComposeFullScript aggregates the curated scripts of all slides into one
// narrative and commits it to the presentation.
func (a *App) ComposeFullScript(ctx context.Context, presentationID string) (synthesis.FullScriptResult, error) {
	if a.fullScript == nil {
		return synthesis.FullScriptResult{}, ErrLLMUnavailable
	}
	sess, err := a.Session(ctx, presentationID)
	if err != nil {
		return synthesis.FullScriptResult{}, err
	}

	start := time.Now()
	result, err := a.fullScript.Compose(ctx, sess.Presentation())
	a.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordSynthesis(ctx, "fullscript", "error")
		return synthesis.FullScriptResult{}, err
	}
	a.metrics.RecordSynthesis(ctx, "fullscript", "ok")

	if err := sess.ReplaceFullScript(ctx, result.Script, result.GeneratedAt); err != nil {
		return synthesis.FullScriptResult{}, err
	}
	return result, nil
}

// sttFor selects the batch transcription tier for a practice mode.
func (a *App) sttFor(mode presentation.Mode) stt.Provider {
	if mode == presentation.ModeFinal {
		return a.providers.STTFinal
	}
	return a.providers.STTDraft
}

// Shutdown stops any active capture, waits for in-flight automatic live-sync
// work, and releases registered resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.captureMu.Lock()
	capture := a.capture
	a.captureMu.Unlock()

	var errs []error
	if capture != nil {
		if err := capture.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		a.autoSync.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
