package vad

import (
	"context"
	"fmt"
	"math"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// Aggressiveness selects how eagerly the energy detector reports speech:
// 0 is the most permissive (lowest threshold), 2 the least.
type Aggressiveness int

const (
	AggressivenessLow    Aggressiveness = 0
	AggressivenessMedium Aggressiveness = 1
	AggressivenessHigh   Aggressiveness = 2
)

// aggressivenessThresholds maps each level to an RMS threshold on a
// normalized [-1,1] sample scale, mirroring the WebRTC-style energy
// detector's three-level knob.
var aggressivenessThresholds = map[Aggressiveness]float64{
	AggressivenessLow:    0.015,
	AggressivenessMedium: 0.025,
	AggressivenessHigh:   0.04,
}

var supportedSampleRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}
var supportedWindowMs = map[int]bool{10: true, 20: true, 30: true}

// EnergyDetector is a stateless RMS-threshold VAD over fixed-size 16-bit
// PCM windows. Grounded on the teacher's RMSVAD.calculateRMS, reshaped from
// a free-running threshold+silence-timer design into the fixed-window
// IsSpeech contract.
type EnergyDetector struct {
	format         meetbot.AudioFormat
	windowMs       int
	windowSamples  int
	aggressiveness Aggressiveness
}

// NewEnergyDetector returns an energy VAD for the given sample rate and
// window duration (10, 20, or 30 ms), at the chosen aggressiveness.
func NewEnergyDetector(sampleRateHz, windowMs int, aggressiveness Aggressiveness) (*EnergyDetector, error) {
	if !supportedSampleRates[sampleRateHz] {
		return nil, fmt.Errorf("vad: unsupported sample rate %d", sampleRateHz)
	}
	if !supportedWindowMs[windowMs] {
		return nil, fmt.Errorf("vad: unsupported window duration %dms", windowMs)
	}
	windowSamples := sampleRateHz * windowMs / 1000
	return &EnergyDetector{
		format:         meetbot.AudioFormat{SampleRateHz: sampleRateHz, ByteDepth: 2},
		windowMs:       windowMs,
		windowSamples:  windowSamples,
		aggressiveness: aggressiveness,
	}, nil
}

func (d *EnergyDetector) AudioFormat() meetbot.AudioFormat { return d.format }
func (d *EnergyDetector) WindowSizeSamples() int           { return d.windowSamples }
func (d *EnergyDetector) Reset()                           {}

func (d *EnergyDetector) IsSpeech(_ context.Context, window []byte) (bool, error) {
	rms := calculateRMS(window)
	return rms > aggressivenessThresholds[d.aggressiveness], nil
}

// calculateRMS computes the root-mean-square of a 16-bit little-endian PCM
// buffer, normalized to [-1, 1].
func calculateRMS(chunk []byte) float64 {
	if len(chunk) < 2 {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i+1 < len(chunk); i += 2 {
		sample := int16(chunk[i]) | (int16(chunk[i+1]) << 8)
		f := float64(sample) / 32768.0
		sum += f * f
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}
