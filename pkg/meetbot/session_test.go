package meetbot

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeMeetingController struct {
	mu       sync.Mutex
	joined   bool
	left     bool
	messages []string
	joinErr  error
	leaveErr error
}

func (m *fakeMeetingController) Join(ctx context.Context, url, name string, passcode *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = true
	return nil
}

func (m *fakeMeetingController) Leave(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leaveErr != nil {
		return m.leaveErr
	}
	m.left = true
	return nil
}

func (m *fakeMeetingController) SendChatMessage(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

type fakeSessionReader struct{ format AudioFormat }

func (r *fakeSessionReader) SampleRateHz() int { return r.format.SampleRateHz }
func (r *fakeSessionReader) ByteDepth() int    { return r.format.ByteDepth }
func (r *fakeSessionReader) ChunkSize() int    { return 320 }
func (r *fakeSessionReader) Read(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeSessionWriter struct{ format AudioFormat }

func (w *fakeSessionWriter) SampleRateHz() int                          { return w.format.SampleRateHz }
func (w *fakeSessionWriter) ByteDepth() int                             { return w.format.ByteDepth }
func (w *fakeSessionWriter) ChunkSize() int                             { return 320 }
func (w *fakeSessionWriter) Write(ctx context.Context, pcm []byte) error { return nil }

type fakeSessionSTT struct{}

func (fakeSessionSTT) Stream(ctx context.Context, windows <-chan VADWindow) (<-chan TranscriptSegment, <-chan error) {
	segCh := make(chan TranscriptSegment)
	errCh := make(chan error)
	go func() {
		defer close(segCh)
		defer close(errCh)
		for range windows {
		}
	}()
	return segCh, errCh
}

func noWindows(ctx context.Context) (<-chan VADWindow, <-chan error) {
	windows := make(chan VADWindow)
	errs := make(chan error)
	close(windows)
	close(errs)
	return windows, errs
}

func newTestSession(meeting *fakeMeetingController) *Session {
	format := AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	reader := &fakeSessionReader{format: format}
	writer := &fakeSessionWriter{format: format}
	tts := &fakeTTSEngine{format: format}
	return NewSession(DefaultSessionConfig(), meeting, reader, writer, noWindows, fakeSessionSTT{}, tts, NoOpLogger{})
}

func TestSessionJoinAndLeaveMeeting(t *testing.T) {
	meeting := &fakeMeetingController{}
	s := newTestSession(meeting)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := s.JoinMeeting(ctx, "https://example.test/room", "", nil); err != nil {
		t.Fatalf("JoinMeeting: %v", err)
	}
	if !meeting.joined {
		t.Fatal("expected the meeting controller to have been joined")
	}

	if _, err := s.JoinMeeting(ctx, "https://example.test/room", "", nil); err == nil {
		t.Fatal("expected a second JoinMeeting on an already-started session to fail")
	}

	if _, err := s.LeaveMeeting(ctx, true); err != nil {
		t.Fatalf("LeaveMeeting: %v", err)
	}
	if !meeting.left {
		t.Fatal("expected the meeting controller to have been left")
	}
}

func TestSessionSendChatMessage(t *testing.T) {
	meeting := &fakeMeetingController{}
	s := newTestSession(meeting)

	if _, err := s.SendChatMessage(context.Background(), "hello there"); err != nil {
		t.Fatalf("SendChatMessage: %v", err)
	}
	if len(meeting.messages) != 1 || meeting.messages[0] != "hello there" {
		t.Fatalf("expected the message to be forwarded to the meeting controller, got %+v", meeting.messages)
	}
}

func TestSessionSpeakTextReturnsSpokenSummary(t *testing.T) {
	meeting := &fakeMeetingController{}
	s := newTestSession(meeting)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := s.JoinMeeting(ctx, "https://example.test/room", "", nil); err != nil {
		t.Fatalf("JoinMeeting: %v", err)
	}

	summary, err := s.SpeakText(ctx, "hi")
	if err != nil {
		t.Fatalf("SpeakText: %v", err)
	}
	if summary == "" {
		t.Fatal("expected a non-empty spoken summary")
	}

	if got := len(s.GetTranscript().Segments()); got != 1 {
		t.Fatalf("expected 1 assistant segment appended to the transcript, got %d", got)
	}
}

func TestSessionAddTranscriptionListenerReceivesSegmentEvents(t *testing.T) {
	meeting := &fakeMeetingController{}
	s := newTestSession(meeting)

	received := make(chan Event, 1)
	unsub := s.AddTranscriptionListener(func(ev Event) {
		received <- ev
	})
	defer unsub()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.JoinMeeting(ctx, "https://example.test/room", "", nil); err != nil {
		t.Fatalf("JoinMeeting: %v", err)
	}

	if _, err := s.SpeakText(ctx, "hi there"); err != nil {
		t.Fatalf("SpeakText: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Type != EventSegment {
			t.Fatalf("expected a segment event, got %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the transcription listener to fire")
	}
}
