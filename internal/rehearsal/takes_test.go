package rehearsal

import (
	"errors"
	"testing"
	"time"

	"github.com/rostralabs/rostra/internal/presentation"
)

func slideWithTakes(transcripts ...string) presentation.Slide {
	sl := presentation.Slide{Page: 1}
	base := time.UnixMilli(1_700_000_000_000)
	for i, text := range transcripts {
		sl, _ = AppendTake(sl, Capture{Transcript: text, Mode: presentation.ModeDraft}, "", base.Add(time.Duration(i)*time.Second))
	}
	return sl
}

func TestAppendTakeNumbering(t *testing.T) {
	t.Parallel()

	sl := slideWithTakes("하나", "둘", "셋")
	if len(sl.Takes) != 3 {
		t.Fatalf("len(Takes) = %d, want 3", len(sl.Takes))
	}
	for i, take := range sl.Takes {
		if take.TakeNumber != i+1 {
			t.Errorf("take %d: TakeNumber = %d, want %d", i, take.TakeNumber, i+1)
		}
		if take.ID == "" {
			t.Errorf("take %d: empty id", i)
		}
	}
}

func TestAppendTakeLeavesOriginal(t *testing.T) {
	t.Parallel()

	sl := slideWithTakes("하나")
	updated, take := AppendTake(sl, Capture{Transcript: "둘", Mode: presentation.ModeFinal, ModelID: "scribe_v1"}, "피드백", time.Now())

	if len(sl.Takes) != 1 {
		t.Errorf("original slide grew to %d takes", len(sl.Takes))
	}
	if len(updated.Takes) != 2 {
		t.Fatalf("updated slide has %d takes, want 2", len(updated.Takes))
	}
	if take.Feedback != "피드백" || take.ModelID != "scribe_v1" || take.Mode != presentation.ModeFinal {
		t.Errorf("take = %+v", take)
	}
}

func TestDeleteTakeRenumbers(t *testing.T) {
	t.Parallel()

	// Three takes, delete the second: survivors are numbered 1 and 2 in
	// their original order.
	sl := slideWithTakes("첫 번째", "두 번째", "세 번째")
	updated, err := DeleteTake(sl, sl.Takes[1].ID)
	if err != nil {
		t.Fatalf("DeleteTake: %v", err)
	}

	if len(updated.Takes) != 2 {
		t.Fatalf("len(Takes) = %d, want 2", len(updated.Takes))
	}
	if updated.Takes[0].Transcript != "첫 번째" || updated.Takes[1].Transcript != "세 번째" {
		t.Errorf("order not preserved: %q, %q", updated.Takes[0].Transcript, updated.Takes[1].Transcript)
	}
	if updated.Takes[0].TakeNumber != 1 || updated.Takes[1].TakeNumber != 2 {
		t.Errorf("TakeNumbers = %d, %d, want 1, 2", updated.Takes[0].TakeNumber, updated.Takes[1].TakeNumber)
	}
}

func TestDeleteTakeUnknown(t *testing.T) {
	t.Parallel()

	sl := slideWithTakes("하나")
	if _, err := DeleteTake(sl, "nope"); !errors.Is(err, ErrTakeNotFound) {
		t.Errorf("DeleteTake(unknown) = %v, want ErrTakeNotFound", err)
	}
}

func TestMarkBestSingleWinner(t *testing.T) {
	t.Parallel()

	sl := slideWithTakes("하나", "둘", "셋")
	sl, err := MarkBest(sl, sl.Takes[0].ID)
	if err != nil {
		t.Fatalf("MarkBest: %v", err)
	}
	sl, err = MarkBest(sl, sl.Takes[2].ID)
	if err != nil {
		t.Fatalf("MarkBest: %v", err)
	}

	for i, take := range sl.Takes {
		want := i == 2
		if take.IsBest != want {
			t.Errorf("take %d: IsBest = %v, want %v", i, take.IsBest, want)
		}
	}
}

func TestMarkBestToggleTwiceRestores(t *testing.T) {
	t.Parallel()

	sl := slideWithTakes("하나", "둘")
	id := sl.Takes[1].ID

	once, err := MarkBest(sl, id)
	if err != nil {
		t.Fatalf("MarkBest: %v", err)
	}
	if !once.Takes[1].IsBest {
		t.Fatal("first toggle did not set best")
	}

	twice, err := MarkBest(once, id)
	if err != nil {
		t.Fatalf("MarkBest: %v", err)
	}
	for i, take := range twice.Takes {
		if take.IsBest != sl.Takes[i].IsBest {
			t.Errorf("take %d: IsBest = %v after double toggle, want %v", i, take.IsBest, sl.Takes[i].IsBest)
		}
	}
}

func TestEditTranscript(t *testing.T) {
	t.Parallel()

	sl := slideWithTakes("원래 내용")
	updated, err := EditTranscript(sl, sl.Takes[0].ID, "고친 내용")
	if err != nil {
		t.Fatalf("EditTranscript: %v", err)
	}
	if updated.Takes[0].Transcript != "고친 내용" {
		t.Errorf("Transcript = %q", updated.Takes[0].Transcript)
	}
	if sl.Takes[0].Transcript != "원래 내용" {
		t.Error("original slide mutated")
	}

	if _, err := EditTranscript(sl, "nope", "x"); !errors.Is(err, ErrTakeNotFound) {
		t.Errorf("EditTranscript(unknown) = %v, want ErrTakeNotFound", err)
	}
}
