package meetbot

import (
	"errors"
	"fmt"
	"testing"
)

func TestAsSpeechInterrupted(t *testing.T) {
	si := &SpeechInterrupted{SpokenText: "hello wor"}
	wrapped := fmt.Errorf("speak_text: %w", si)

	got, ok := AsSpeechInterrupted(wrapped)
	if !ok {
		t.Fatal("expected AsSpeechInterrupted to unwrap a wrapped SpeechInterrupted")
	}
	if got.SpokenText != "hello wor" {
		t.Fatalf("expected SpokenText 'hello wor', got %q", got.SpokenText)
	}

	if _, ok := AsSpeechInterrupted(errors.New("unrelated")); ok {
		t.Fatal("expected AsSpeechInterrupted to reject an unrelated error")
	}
}

func TestVendorTransientUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	vt := &VendorTransient{Vendor: "groq-stt", Err: cause}
	if !errors.Is(vt, cause) {
		t.Fatal("expected errors.Is to see through VendorTransient.Unwrap")
	}
}

func TestFatalUnwrap(t *testing.T) {
	cause := errors.New("device lost")
	f := &Fatal{Reason: "audio device closed", Err: cause}
	if !errors.Is(f, cause) {
		t.Fatal("expected errors.Is to see through Fatal.Unwrap")
	}
	if (&Fatal{Reason: "no cause"}).Error() != "fatal: no cause" {
		t.Fatalf("unexpected Fatal.Error() without cause: %q", (&Fatal{Reason: "no cause"}).Error())
	}
}

func TestErrEmptyTranscription(t *testing.T) {
	if ErrEmptyTranscription == nil {
		t.Fatal("expected ErrEmptyTranscription to be non-nil")
	}
}
