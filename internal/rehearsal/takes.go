// Package rehearsal implements the take lifecycle: recording narration
// attempts against a slide, deleting, renumbering, transcript editing and the
// best-take flag. Mutations are pure slide transforms; [Session] applies them
// one at a time against the latest committed presentation state so that
// concurrent completions cannot lose each other's writes.
package rehearsal

import (
	"errors"
	"time"

	"github.com/rostralabs/rostra/internal/presentation"
)

// ErrTakeNotFound is returned when an operation targets a take id that does
// not exist on the slide.
var ErrTakeNotFound = errors.New("take not found")

// Capture is the result of one recording or live-capture attempt, before it
// becomes a Take.
type Capture struct {
	// AudioRef points at the stored recording. Empty for realtime-only
	// captures.
	AudioRef string

	// Transcript may be empty while transcription is still pending.
	Transcript string

	Mode    presentation.Mode
	ModelID string
}

// AppendTake returns a copy of sl with a new take appended, numbered
// len(takes)+1. The take id is derived from now, bumped on collision.
// feedback is attached as-is; the caller computes it for final-mode captures
// before appending, against the guide script resolved from the pre-append
// slide state.
func AppendTake(sl presentation.Slide, capture Capture, feedback string, now time.Time) (presentation.Slide, presentation.Take) {
	take := presentation.Take{
		ID:         presentation.NewTakeID(sl.Takes, now),
		Timestamp:  now,
		AudioRef:   capture.AudioRef,
		Transcript: capture.Transcript,
		Mode:       capture.Mode,
		ModelID:    capture.ModelID,
		TakeNumber: len(sl.Takes) + 1,
		Feedback:   feedback,
	}

	takes := make([]presentation.Take, len(sl.Takes), len(sl.Takes)+1)
	copy(takes, sl.Takes)
	sl.Takes = append(takes, take)
	return sl, take
}

// DeleteTake returns a copy of sl without the given take. The remaining takes
// are renumbered to a contiguous 1..N in their original order.
// Returns [ErrTakeNotFound] if the id is not on the slide.
func DeleteTake(sl presentation.Slide, takeID string) (presentation.Slide, error) {
	idx := indexOfTake(sl.Takes, takeID)
	if idx < 0 {
		return presentation.Slide{}, ErrTakeNotFound
	}

	takes := make([]presentation.Take, 0, len(sl.Takes)-1)
	takes = append(takes, sl.Takes[:idx]...)
	takes = append(takes, sl.Takes[idx+1:]...)
	for i := range takes {
		takes[i].TakeNumber = i + 1
	}
	sl.Takes = takes
	return sl, nil
}

// MarkBest toggles the best flag. If the target take is already best, every
// take on the slide becomes non-best; otherwise the target becomes the single
// best take. Calling it twice with the same id restores the original state.
// Returns [ErrTakeNotFound] if the id is not on the slide.
func MarkBest(sl presentation.Slide, takeID string) (presentation.Slide, error) {
	idx := indexOfTake(sl.Takes, takeID)
	if idx < 0 {
		return presentation.Slide{}, ErrTakeNotFound
	}

	wasBest := sl.Takes[idx].IsBest
	takes := make([]presentation.Take, len(sl.Takes))
	copy(takes, sl.Takes)
	for i := range takes {
		takes[i].IsBest = !wasBest && i == idx
	}
	sl.Takes = takes
	return sl, nil
}

// EditTranscript returns a copy of sl with the take's transcript replaced.
// Returns [ErrTakeNotFound] if the id is not on the slide.
func EditTranscript(sl presentation.Slide, takeID, text string) (presentation.Slide, error) {
	idx := indexOfTake(sl.Takes, takeID)
	if idx < 0 {
		return presentation.Slide{}, ErrTakeNotFound
	}

	takes := make([]presentation.Take, len(sl.Takes))
	copy(takes, sl.Takes)
	takes[idx].Transcript = text
	sl.Takes = takes
	return sl, nil
}

func indexOfTake(takes []presentation.Take, id string) int {
	for i, t := range takes {
		if t.ID == id {
			return i
		}
	}
	return -1
}
