package vad

import "math"

// EnergyBackend is a stand-in NeuralBackend: no ONNX (or any other ML
// runtime) binding appears anywhere in the example pack this repo was
// grounded on, so the neural detector's pluggable backend ships with a
// simple logistic mapping of windowed RMS energy instead of a real model.
// It tracks a one-pole moving average of energy as its "hidden state" so
// it still exercises NeuralDetector's stateful contract faithfully.
type EnergyBackend struct {
	// Smoothing is the one-pole filter coefficient in (0,1]; higher reacts
	// faster to new windows.
	Smoothing float64
	// Steepness controls how sharply probability rises around the energy
	// midpoint.
	Steepness float64
	// Midpoint is the RMS energy value mapped to probability 0.5.
	Midpoint float64
}

// NewEnergyBackend returns a backend with reasonable defaults.
func NewEnergyBackend() *EnergyBackend {
	return &EnergyBackend{Smoothing: 0.3, Steepness: 40, Midpoint: 0.02}
}

func (b *EnergyBackend) Score(window []byte, state [][]float32) ([][]float32, float64, error) {
	rms := calculateFloat32RMS(window)

	newState := make([][]float32, len(state))
	for i, layer := range state {
		newLayer := make([]float32, len(layer))
		copy(newLayer, layer)
		newState[i] = newLayer
	}
	if len(newState) > 0 && len(newState[0]) > 0 {
		prev := float64(newState[0][0])
		smoothed := prev + b.Smoothing*(rms-prev)
		newState[0][0] = float32(smoothed)
		rms = smoothed
	}

	probability := 1.0 / (1.0 + math.Exp(-b.Steepness*(rms-b.Midpoint)))
	return newState, probability, nil
}

func calculateFloat32RMS(window []byte) float64 {
	n := len(window) / 4
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		bits := uint32(window[i*4]) | uint32(window[i*4+1])<<8 | uint32(window[i*4+2])<<16 | uint32(window[i*4+3])<<24
		f := math.Float32frombits(bits)
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum / float64(n))
}
