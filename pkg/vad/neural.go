package vad

import (
	"context"
	"fmt"
	"sync"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// hiddenLayers, hiddenUnits describe the neural VAD's recurrent hidden
// state shape: 2 layers of 128 units each, matching the Silero-style
// detector this component is grounded on.
const (
	hiddenLayers = 2
	hiddenUnits  = 128
)

// NeuralBackend scores one zero-padded float32 window and returns a speech
// probability in [0,1]. Implementations may hold model weights; State is
// threaded through explicitly so the backend itself stays stateless and
// reusable across detector instances.
type NeuralBackend interface {
	// Score returns the updated hidden state and the speech probability
	// for window (IEEE float32 little-endian PCM).
	Score(window []byte, state [][]float32) (newState [][]float32, probability float64, err error)
}

// NeuralDetector is a stateful VAD carrying a recurrent hidden tensor
// across calls, as described by services/vad/silero.py: 512-sample
// windows at 16kHz or 256-sample windows at 8kHz, float32 PCM, default
// decision threshold 0.5.
type NeuralDetector struct {
	format        meetbot.AudioFormat
	windowSamples int
	threshold     float64
	backend       NeuralBackend

	mu    sync.Mutex
	state [][]float32
}

// NewNeuralDetector returns a neural VAD. sampleRateHz must be 8000 or
// 16000. threshold <= 0 defaults to 0.5.
func NewNeuralDetector(sampleRateHz int, threshold float64, backend NeuralBackend) (*NeuralDetector, error) {
	var windowSamples int
	switch sampleRateHz {
	case 16000:
		windowSamples = 512
	case 8000:
		windowSamples = 256
	default:
		return nil, fmt.Errorf("vad: neural detector unsupported sample rate %d", sampleRateHz)
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	d := &NeuralDetector{
		format:        meetbot.AudioFormat{SampleRateHz: sampleRateHz, ByteDepth: 4},
		windowSamples: windowSamples,
		threshold:     threshold,
		backend:       backend,
	}
	d.Reset()
	return d, nil
}

func (d *NeuralDetector) AudioFormat() meetbot.AudioFormat { return d.format }
func (d *NeuralDetector) WindowSizeSamples() int           { return d.windowSamples }

// Reset zeros the hidden state.
func (d *NeuralDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := make([][]float32, hiddenLayers)
	for i := range state {
		state[i] = make([]float32, hiddenUnits)
	}
	d.state = state
}

func (d *NeuralDetector) IsSpeech(_ context.Context, window []byte) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	newState, prob, err := d.backend.Score(window, d.state)
	if err != nil {
		return false, err
	}
	d.state = newState
	return prob >= d.threshold, nil
}

// zeroPad right-pads window with zero bytes up to targetLen, a no-op if
// window is already at least that long. Used by the hybrid detector to
// feed the cheap detector's smaller window into the neural detector.
func zeroPad(window []byte, targetLen int) []byte {
	if len(window) >= targetLen {
		return window
	}
	out := make([]byte, targetLen)
	copy(out, window)
	return out
}
