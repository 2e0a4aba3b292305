package meetbot

import (
	"context"
	"testing"
	"time"
)

// fakeUtteranceSTT drains the window channel it's given and then emits a
// single canned segment, mimicking a batch STT vendor call.
type fakeUtteranceSTT struct {
	text    string
	started chan struct{} // closed once Stream is called, for tests that need to observe pool occupancy
	release chan struct{} // if non-nil, Stream blocks reading windows until this closes
}

func (f *fakeUtteranceSTT) Stream(ctx context.Context, windows <-chan VADWindow) (<-chan TranscriptSegment, <-chan error) {
	segCh := make(chan TranscriptSegment, 1)
	errCh := make(chan error, 1)
	if f.started != nil {
		close(f.started)
	}
	go func() {
		defer close(segCh)
		defer close(errCh)
		if f.release != nil {
			select {
			case <-f.release:
			case <-ctx.Done():
				return
			}
		}
		count := 0
		for range windows {
			count++
		}
		if count > 0 && f.text != "" {
			segCh <- TranscriptSegment{Text: f.text, Start: 0, End: 1}
		}
	}()
	return segCh, errCh
}

func TestTranscriptionControllerFinalizesUtteranceAndSetsGateAgain(t *testing.T) {
	stt := &fakeUtteranceSTT{text: "hello there"}
	transcript := NewTranscript()
	gate := NewGate(true)
	bus := NewEventBus(NoOpLogger{})

	cfg := DefaultTranscriptionControllerConfig()
	cfg.UtteranceTailSeconds = 0.5
	ctrl := NewTranscriptionController(cfg, stt, transcript, gate, nil, bus, NoOpLogger{})

	windows := make(chan VADWindow, 8)
	windows <- VADWindow{TimeNs: 0, IsSpeech: true}
	windows <- VADWindow{TimeNs: int64(0.1 * 1e9), IsSpeech: true}
	windows <- VADWindow{TimeNs: int64(0.2 * 1e9), IsSpeech: false}
	windows <- VADWindow{TimeNs: int64(0.8 * 1e9), IsSpeech: false} // gap >= 0.5s tail from last speech at 0.1s
	close(windows)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx, windows)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller to finish")
	}

	segs := transcript.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected exactly 1 finalized segment, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "hello there" {
		t.Fatalf("expected segment text %q, got %q", "hello there", segs[0].Text)
	}
	if segs[0].Role != RoleParticipant {
		t.Fatalf("expected RoleParticipant, got %q", segs[0].Role)
	}
	if !gate.IsSet() {
		t.Fatal("expected no_speech_event gate to be set again once the utterance finalized")
	}
}

func TestTranscriptionControllerIgnoresLeadingNonSpeech(t *testing.T) {
	stt := &fakeUtteranceSTT{text: "ignored"}
	transcript := NewTranscript()
	gate := NewGate(true)
	bus := NewEventBus(NoOpLogger{})

	ctrl := NewTranscriptionController(DefaultTranscriptionControllerConfig(), stt, transcript, gate, nil, bus, NoOpLogger{})

	windows := make(chan VADWindow, 2)
	windows <- VADWindow{TimeNs: 0, IsSpeech: false}
	windows <- VADWindow{TimeNs: int64(0.1 * 1e9), IsSpeech: false}
	close(windows)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	ctrl.Run(ctx, windows)

	if got := len(transcript.Segments()); got != 0 {
		t.Fatalf("expected no segments from pure non-speech input, got %d", got)
	}
}

func TestTranscriptionControllerDropsUtteranceWhenPoolSaturated(t *testing.T) {
	started1 := make(chan struct{})
	release1 := make(chan struct{})
	stt1 := &fakeUtteranceSTT{text: "first", started: started1, release: release1}

	transcript := NewTranscript()
	gate := NewGate(true)
	bus := NewEventBus(NoOpLogger{})

	cfg := DefaultTranscriptionControllerConfig()
	cfg.MaxSTTTasks = 1
	ctrl := NewTranscriptionController(cfg, stt1, transcript, gate, nil, bus, NoOpLogger{})

	windows := make(chan VADWindow, 8)
	// First utterance: occupies the single pool slot and blocks in Stream
	// until released.
	windows <- VADWindow{TimeNs: 0, IsSpeech: true}
	windows <- VADWindow{TimeNs: int64(0.1 * 1e9), IsSpeech: false}
	windows <- VADWindow{TimeNs: int64(2 * 1e9), IsSpeech: false} // finalize first utterance (tail elapsed)
	// Second utterance starts while the pool is still saturated (release1
	// hasn't fired yet) and must be dropped.
	windows <- VADWindow{TimeNs: int64(2.1 * 1e9), IsSpeech: true}
	windows <- VADWindow{TimeNs: int64(2.2 * 1e9), IsSpeech: false}
	windows <- VADWindow{TimeNs: int64(3 * 1e9), IsSpeech: false}
	close(windows)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx, windows)
		close(done)
	}()

	select {
	case <-started1:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first utterance to start")
	}

	// Give the dropped second utterance's windows a chance to be consumed
	// by the (still idle, since the pool is saturated) controller loop
	// before releasing the first utterance.
	time.Sleep(50 * time.Millisecond)
	close(release1)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller to finish")
	}

	segs := transcript.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected exactly 1 finalized segment (second utterance dropped), got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "first" {
		t.Fatalf("expected the surviving segment to be from the first utterance, got %q", segs[0].Text)
	}
}
