package stt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

type fakeTranscriber struct {
	text string
	err  error
	name string
}

func (f fakeTranscriber) Transcribe(ctx context.Context, audioPCM []byte, language string) (string, error) {
	return f.text, f.err
}
func (f fakeTranscriber) Name() string { return f.name }

func TestStreamFromBatchEmitsOneSegment(t *testing.T) {
	windows := make(chan meetbot.VADWindow, 2)
	windows <- meetbot.VADWindow{Data: make([]byte, 320)}
	windows <- meetbot.VADWindow{Data: make([]byte, 320)}
	close(windows)

	format := meetbot.AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	segCh, errCh := streamFromBatch(context.Background(), windows, format, "en", fakeTranscriber{text: "hello world", name: "fake-stt"})

	select {
	case seg := <-segCh:
		if seg.Text != "hello world" {
			t.Fatalf("expected transcribed text, got %q", seg.Text)
		}
		if seg.Role != meetbot.RoleParticipant {
			t.Fatalf("expected participant role, got %q", seg.Role)
		}
		if seg.Start != 0 || seg.End <= 0 {
			t.Fatalf("expected relative timing starting at 0, got start=%f end=%f", seg.Start, seg.End)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for segment")
	}

	if err, ok := <-errCh; ok && err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStreamFromBatchEmptyWindowsProducesNothing(t *testing.T) {
	windows := make(chan meetbot.VADWindow)
	close(windows)

	format := meetbot.AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	segCh, errCh := streamFromBatch(context.Background(), windows, format, "en", fakeTranscriber{text: "unused", name: "fake-stt"})

	select {
	case _, ok := <-segCh:
		if ok {
			t.Fatal("expected no segment for an empty window channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for segment channel to close")
	}
	if _, ok := <-errCh; ok {
		t.Fatal("expected no error for an empty window channel either")
	}
}

func TestStreamFromBatchVendorErrorWrapsTransient(t *testing.T) {
	windows := make(chan meetbot.VADWindow, 1)
	windows <- meetbot.VADWindow{Data: make([]byte, 320)}
	close(windows)

	cause := errors.New("vendor 500")
	format := meetbot.AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	_, errCh := streamFromBatch(context.Background(), windows, format, "en", fakeTranscriber{err: cause, name: "fake-stt"})

	select {
	case err := <-errCh:
		var vt *meetbot.VendorTransient
		if !errors.As(err, &vt) {
			t.Fatalf("expected VendorTransient, got %T: %v", err, err)
		}
		if vt.Vendor != "fake-stt" {
			t.Fatalf("expected vendor name threaded through, got %q", vt.Vendor)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestStreamFromBatchEmptyTranscriptionError(t *testing.T) {
	windows := make(chan meetbot.VADWindow, 1)
	windows <- meetbot.VADWindow{Data: make([]byte, 320)}
	close(windows)

	format := meetbot.AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	_, errCh := streamFromBatch(context.Background(), windows, format, "en", fakeTranscriber{text: "", name: "fake-stt"})

	select {
	case err := <-errCh:
		if !errors.Is(err, meetbot.ErrEmptyTranscription) {
			t.Fatalf("expected ErrEmptyTranscription, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error")
	}
}
