package vad

import (
	"context"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// HybridDetector always consults a cheap detector; only when it reports
// speech after a non-speech window does it confirm with an accurate
// (typically neural) detector, zero-padded to that detector's window
// size. This rejects false positives from the cheap detector at low cost.
// The hybrid's own window size equals the cheap detector's. Grounded on
// services/vad/hybrid.py's confirm-only-on-transition algorithm.
type HybridDetector struct {
	cheap    Detector
	accurate Detector

	lastWasSpeech    bool
	lastUsedAccurate bool
}

// NewHybridDetector pairs a cheap detector (consulted on every window) with
// an accurate one (consulted only on a non-speech -> speech transition).
func NewHybridDetector(cheap, accurate Detector) *HybridDetector {
	return &HybridDetector{cheap: cheap, accurate: accurate}
}

func (h *HybridDetector) AudioFormat() meetbot.AudioFormat { return h.cheap.AudioFormat() }
func (h *HybridDetector) WindowSizeSamples() int           { return h.cheap.WindowSizeSamples() }

func (h *HybridDetector) Reset() {
	h.cheap.Reset()
	h.accurate.Reset()
	h.lastWasSpeech = false
	h.lastUsedAccurate = false
}

func (h *HybridDetector) IsSpeech(ctx context.Context, window []byte) (bool, error) {
	cheapSpeech, err := h.cheap.IsSpeech(ctx, window)
	if err != nil {
		return false, err
	}

	if !cheapSpeech {
		h.lastWasSpeech = false
		// Only reset the accurate detector's state when it was not used on
		// the immediately preceding window, so consecutive confirmations
		// keep a continuous hidden state.
		if h.lastUsedAccurate {
			h.accurate.Reset()
		}
		h.lastUsedAccurate = false
		return false, nil
	}

	if h.lastWasSpeech {
		// Already confirmed speech; no need to re-run the accurate
		// detector every window.
		h.lastUsedAccurate = false
		h.lastWasSpeech = true
		return true, nil
	}

	// Transition non-speech -> speech: confirm with the accurate detector.
	converted, err := meetbot.ConvertFormat(window, h.cheap.AudioFormat(), h.accurate.AudioFormat())
	if err != nil {
		return false, err
	}
	padded := zeroPad(converted, h.accurateByteLen())
	speech, err := h.accurate.IsSpeech(ctx, padded)
	if err != nil {
		return false, err
	}
	h.lastUsedAccurate = true
	h.lastWasSpeech = speech
	return speech, nil
}

func (h *HybridDetector) accurateByteLen() int {
	f := h.accurate.AudioFormat()
	return h.accurate.WindowSizeSamples() * f.ByteDepth
}
