package meetbot

import (
	"errors"
	"fmt"
)

// SpeechInterrupted is the expected outcome of speak_text when a
// participant barges in while the bot is speaking. It is not logged as an
// error; callers use SpokenText to know what the bot managed to say.
type SpeechInterrupted struct {
	SpokenText string
}

func (e *SpeechInterrupted) Error() string {
	return fmt.Sprintf("speech interrupted after speaking %q", e.SpokenText)
}

// ProviderNotSupported is returned when a meeting-device capability the
// caller asked for is unavailable from the current provider.
type ProviderNotSupported struct {
	Capability string
}

func (e *ProviderNotSupported) Error() string {
	return fmt.Sprintf("provider does not support %s", e.Capability)
}

// IncompatibleAudioFormat is returned when a format conversion cannot be
// performed (sample-rate mismatch, unsupported byte depth). Never retried.
type IncompatibleAudioFormat struct {
	Reason string
}

func (e *IncompatibleAudioFormat) Error() string {
	return fmt.Sprintf("incompatible audio format: %s", e.Reason)
}

// ComponentNotStarted signals a contract violation: Read/Write/Stream was
// called before the component's lifecycle entered the started state. This
// is always a bug in the caller.
type ComponentNotStarted struct {
	Component string
}

func (e *ComponentNotStarted) Error() string {
	return fmt.Sprintf("%s used before it was started", e.Component)
}

// VendorTransient wraps a transient STT/TTS vendor error. STT instances are
// dropped per-utterance on this error; TTS errors fail only the current
// speak_text call.
type VendorTransient struct {
	Vendor string
	Err    error
}

func (e *VendorTransient) Error() string {
	return fmt.Sprintf("%s: transient vendor error: %v", e.Vendor, e.Err)
}

func (e *VendorTransient) Unwrap() error { return e.Err }

// Fatal signals a session-ending failure: VAD engine crash, audio device
// loss. The session is aborted.
type Fatal struct {
	Reason string
	Err    error
}

func (e *Fatal) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fatal: %s", e.Reason)
}

func (e *Fatal) Unwrap() error { return e.Err }

// SpeechFailed wraps the generic cause when a speak_text call fails for a
// reason other than SpeechInterrupted.
type SpeechFailed struct {
	Err error
}

func (e *SpeechFailed) Error() string {
	return fmt.Sprintf("speech failed: %v", e.Err)
}

func (e *SpeechFailed) Unwrap() error { return e.Err }

// ErrEmptyTranscription is returned by an STT engine that produced no
// usable text for an utterance.
var ErrEmptyTranscription = errors.New("transcription returned empty text")

// AsSpeechInterrupted reports whether err is (or wraps) a SpeechInterrupted,
// returning it for convenient access to SpokenText.
func AsSpeechInterrupted(err error) (*SpeechInterrupted, bool) {
	var si *SpeechInterrupted
	if errors.As(err, &si) {
		return si, true
	}
	return nil, false
}
