// Package vad implements voice-activity detectors (energy, neural, hybrid)
// and the window streamer that drives one over an audio reader.
package vad

import (
	"context"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// Detector declares its expected audio format and window size, and labels
// one window at a time. Implementations may be stateless (energy) or carry
// internal state (neural).
type Detector interface {
	AudioFormat() meetbot.AudioFormat
	WindowSizeSamples() int
	IsSpeech(ctx context.Context, window []byte) (bool, error)
	Reset()
}
