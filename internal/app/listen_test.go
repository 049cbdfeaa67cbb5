package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rostralabs/rostra/internal/presentation"
	"github.com/rostralabs/rostra/pkg/types"
)

const listenGuide = "첫 문장은 인사입니다. 두 번째 문장은 매출 이야기입니다. 세 번째 문장은 마무리입니다."

func startTestCapture(t *testing.T, a *App, p presentation.Presentation) *Capture {
	t.Helper()
	c, err := a.StartListening(context.Background(), p.ID, 1, ListenConfig{})
	if err != nil {
		t.Fatalf("StartListening: %v", err)
	}
	t.Cleanup(func() { c.Stop() })
	return c
}

func TestStartListeningSingleSession(t *testing.T) {
	t.Parallel()
	a, tp := newTestApp(t)
	p := mustCreate(t, a, 1)

	c := startTestCapture(t, a, p)

	if _, err := a.StartListening(context.Background(), p.ID, 1, ListenConfig{}); !errors.Is(err, ErrCaptureBusy) {
		t.Fatalf("second StartListening err = %v, want ErrCaptureBusy", err)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// The slot is free again.
	c2, err := a.StartListening(context.Background(), p.ID, 1, ListenConfig{})
	if err != nil {
		t.Fatalf("StartListening after Stop: %v", err)
	}
	if err := c2.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(tp.live.Sessions) != 2 {
		t.Errorf("stream sessions opened = %d, want 2", len(tp.live.Sessions))
	}
}

func TestCaptureHighlightFollowsPartials(t *testing.T) {
	t.Parallel()
	a, tp := newTestApp(t)
	p := mustCreate(t, a, 1)

	sess, err := a.Session(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if err := sess.SetNotes(context.Background(), 1, listenGuide); err != nil {
		t.Fatalf("SetNotes: %v", err)
	}

	c := startTestCapture(t, a, p)
	if got := len(c.Sentences()); got != 3 {
		t.Fatalf("sentences = %d, want 3", got)
	}
	if got := c.CurrentSentence(); got != 0 {
		t.Fatalf("initial sentence = %d", got)
	}

	stream := tp.live.Sessions[0]
	stream.EmitPartial(types.Transcript{Text: "첫 문장은 인사입니다 두 번째 문장은 매출"})
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if got := c.CurrentSentence(); got != 1 {
		t.Errorf("sentence after partial = %d, want 1", got)
	}
}

func TestCaptureFinalsBecomeTakes(t *testing.T) {
	t.Parallel()
	a, tp := newTestApp(t)
	p := mustCreate(t, a, 1)

	c := startTestCapture(t, a, p)
	stream := tp.live.Sessions[0]
	stream.EmitFinal(types.Transcript{Text: "안녕하세요, 시작하겠습니다.", ModelID: "nova-3"})
	stream.EmitFinal(types.Transcript{Text: "   "}) // blank finals are skipped
	stream.EmitFinal(types.Transcript{Text: "오늘 주제는 매출입니다."})
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	sess, err := a.Session(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	slide, err := sess.Slide(1)
	if err != nil {
		t.Fatalf("Slide: %v", err)
	}
	if len(slide.Takes) != 2 {
		t.Fatalf("takes = %d, want 2", len(slide.Takes))
	}
	if slide.Takes[0].Mode != presentation.ModeDraft {
		t.Errorf("take mode = %q, want draft default", slide.Takes[0].Mode)
	}
	if slide.Takes[0].ModelID != "nova-3" {
		t.Errorf("model id = %q", slide.Takes[0].ModelID)
	}
	if got := c.Transcript(); got != "안녕하세요, 시작하겠습니다. 오늘 주제는 매출입니다." {
		t.Errorf("accumulated transcript = %q", got)
	}
}

func TestCaptureSendAudioForwards(t *testing.T) {
	t.Parallel()
	a, tp := newTestApp(t)
	p := mustCreate(t, a, 1)

	c := startTestCapture(t, a, p)
	if err := c.SendAudio([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := tp.live.Sessions[0].Audio(); len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("forwarded audio = %v", got)
	}
	// Stop twice is safe.
	if err := c.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStartListeningUnknownSlide(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t)
	p := mustCreate(t, a, 1)

	if _, err := a.StartListening(context.Background(), p.ID, 9, ListenConfig{}); err == nil {
		t.Fatal("expected error for unknown slide")
	}
}

func TestStartListeningWithoutStreamProvider(t *testing.T) {
	t.Parallel()
	a := New(Providers{}, WithLogger(testLogger()))
	p := mustCreate(t, a, 1)

	if _, err := a.StartListening(context.Background(), p.ID, 1, ListenConfig{}); !errors.Is(err, ErrSTTUnavailable) {
		t.Errorf("err = %v, want ErrSTTUnavailable", err)
	}
}
