// Package presentation defines the rehearsal data model: a Presentation made
// of Slides, each holding the narration Takes recorded against it, plus the
// derived artifacts (curated script, live-sync preview, full script).
//
// The types are value types mutated only through whole-object replacement.
// Transform functions producing updated copies live in internal/rehearsal;
// nothing in this package mutates a stored value in place.
package presentation

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode is the practice phase a Take was recorded in.
type Mode string

const (
	// ModeDraft marks attempts made while still building up a script.
	ModeDraft Mode = "draft"

	// ModeFinal marks rehearsal attempts against a fixed guide script.
	// Final-mode takes carry alignment feedback.
	ModeFinal Mode = "final"
)

// IsValid reports whether m is a recognised practice mode.
func (m Mode) IsValid() bool {
	return m == ModeDraft || m == ModeFinal
}

// Take is one narration attempt for a slide.
type Take struct {
	// ID is unique within the slide, derived from the creation time.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// AudioRef points at the recorded audio held by the file collaborator.
	// Empty for realtime-only captures.
	AudioRef string `json:"audioRef,omitempty"`

	// Transcript is empty while transcription is still pending.
	Transcript string `json:"transcript,omitempty"`

	IsBest bool `json:"isBest"`
	Mode   Mode `json:"mode"`

	// ModelID records which transcription tier produced the transcript.
	ModelID string `json:"modelId,omitempty"`

	// TakeNumber is the 1-based ordinal within the slide at creation time.
	// Deleting a take renumbers the survivors back to a contiguous 1..N.
	TakeNumber int `json:"takeNumber"`

	// Feedback is the alignment message, computed only for final-mode takes.
	Feedback string `json:"feedback,omitempty"`
}

// CuratedScriptMeta describes how a slide's curated script was produced.
type CuratedScriptMeta struct {
	GeneratedAt time.Time `json:"generatedAt"`

	// SourceTakeIDs snapshots the take ids present on the slide when the
	// script was generated. It is not revalidated when takes are later
	// deleted and may reference ids that no longer exist.
	SourceTakeIDs []string `json:"sourceTakeIds"`

	KeyPoints []string `json:"keyPoints,omitempty"`
}

// LiveSyncPreview is the most recent comparison between a spoken utterance
// and the slide's curated script. Each comparison replaces it wholesale.
type LiveSyncPreview struct {
	AlignmentSummary string    `json:"alignmentSummary"`
	MissingPoints    []string  `json:"missingPoints,omitempty"`
	NextLines        []string  `json:"nextLines,omitempty"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// Slide is one page of the presentation with its notes and takes.
type Slide struct {
	// Page is 1-based and matches the slide's position in the deck.
	Page int `json:"page"`

	// Notes is free text owned by the user.
	Notes string `json:"notes,omitempty"`

	Takes []Take `json:"takes,omitempty"`

	CuratedScript     string             `json:"curatedScript,omitempty"`
	CuratedScriptMeta *CuratedScriptMeta `json:"curatedScriptMeta,omitempty"`
	LiveSyncPreview   *LiveSyncPreview   `json:"liveSyncPreview,omitempty"`
}

// Presentation is the root aggregate for one talk being rehearsed.
type Presentation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	// DocumentRef points at the source document held by the file
	// collaborator. The payload itself is never embedded here.
	DocumentRef string `json:"documentRef,omitempty"`

	PageCount int     `json:"pageCount"`
	Slides    []Slide `json:"slides"`

	FullScript            string    `json:"fullScript,omitempty"`
	FullScriptGeneratedAt time.Time `json:"fullScriptGeneratedAt,omitzero"`
}

// New creates a Presentation with one empty slide per document page.
func New(name, documentRef string, pageCount int) Presentation {
	if pageCount < 0 {
		pageCount = 0
	}
	slides := make([]Slide, pageCount)
	for i := range slides {
		slides[i].Page = i + 1
	}
	return Presentation{
		ID:          uuid.NewString(),
		Name:        name,
		CreatedAt:   time.Now(),
		DocumentRef: documentRef,
		PageCount:   pageCount,
		Slides:      slides,
	}
}

// Slide returns the slide for the given 1-based page.
func (p Presentation) Slide(page int) (Slide, bool) {
	if page < 1 || page > len(p.Slides) {
		return Slide{}, false
	}
	return p.Slides[page-1], true
}

// WithSlide returns a copy of p with the slide at sl.Page replaced.
// Pages outside the deck are ignored.
func (p Presentation) WithSlide(sl Slide) Presentation {
	if sl.Page < 1 || sl.Page > len(p.Slides) {
		return p
	}
	slides := make([]Slide, len(p.Slides))
	copy(slides, p.Slides)
	slides[sl.Page-1] = sl
	p.Slides = slides
	return p
}

// EnsureSlides returns a copy of p whose slide sequence matches pageCount:
// missing pages are appended empty, surplus pages are truncated. Existing
// slides keep their takes and scripts. Nothing calls this automatically when
// a document's page count changes; it is the caller's responsibility.
func (p Presentation) EnsureSlides(pageCount int) Presentation {
	if pageCount < 0 {
		pageCount = 0
	}
	slides := make([]Slide, pageCount)
	copy(slides, p.Slides)
	for i := len(p.Slides); i < pageCount; i++ {
		slides[i] = Slide{Page: i + 1}
	}
	p.Slides = slides
	p.PageCount = pageCount
	return p
}

// BestTake returns the slide's best-marked take, if any.
func (s Slide) BestTake() (Take, bool) {
	for _, t := range s.Takes {
		if t.IsBest {
			return t, true
		}
	}
	return Take{}, false
}

// TakeByID returns the take with the given id.
func (s Slide) TakeByID(id string) (Take, bool) {
	for _, t := range s.Takes {
		if t.ID == id {
			return t, true
		}
	}
	return Take{}, false
}

// GuideScript resolves the text a spoken attempt should be compared against:
// the best take's transcript if one is marked and has text, else the curated
// script, else the slide notes. Returns "" when none of those is set.
func (s Slide) GuideScript() string {
	if best, ok := s.BestTake(); ok && strings.TrimSpace(best.Transcript) != "" {
		return best.Transcript
	}
	if strings.TrimSpace(s.CuratedScript) != "" {
		return s.CuratedScript
	}
	return s.Notes
}

// LatestTake returns the most recently created take, which by construction is
// the last element of the take list.
func (s Slide) LatestTake() (Take, bool) {
	if len(s.Takes) == 0 {
		return Take{}, false
	}
	return s.Takes[len(s.Takes)-1], true
}

// NewTakeID derives a take id from now, bumping by a millisecond until it is
// unique among the given takes.
func NewTakeID(takes []Take, now time.Time) string {
	for {
		id := strconv.FormatInt(now.UnixMilli(), 10)
		if _, taken := takesByID(takes, id); !taken {
			return id
		}
		now = now.Add(time.Millisecond)
	}
}

func takesByID(takes []Take, id string) (Take, bool) {
	for _, t := range takes {
		if t.ID == id {
			return t, true
		}
	}
	return Take{}, false
}

// Clone returns a deep copy of p. Stores use it so that a value handed out is
// never aliased with the stored one.
func (p Presentation) Clone() Presentation {
	slides := make([]Slide, len(p.Slides))
	for i, sl := range p.Slides {
		slides[i] = sl.Clone()
	}
	p.Slides = slides
	return p
}

// Clone returns a deep copy of s.
func (s Slide) Clone() Slide {
	if s.Takes != nil {
		takes := make([]Take, len(s.Takes))
		copy(takes, s.Takes)
		s.Takes = takes
	}
	if s.CuratedScriptMeta != nil {
		meta := *s.CuratedScriptMeta
		meta.SourceTakeIDs = append([]string(nil), meta.SourceTakeIDs...)
		meta.KeyPoints = append([]string(nil), meta.KeyPoints...)
		s.CuratedScriptMeta = &meta
	}
	if s.LiveSyncPreview != nil {
		prev := *s.LiveSyncPreview
		prev.MissingPoints = append([]string(nil), prev.MissingPoints...)
		prev.NextLines = append([]string(nil), prev.NextLines...)
		s.LiveSyncPreview = &prev
	}
	return s
}
