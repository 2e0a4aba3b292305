package meetbot

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ConvertFormat converts pcm from src to dst. Only sample-rate-identical
// conversions between 16-bit int and 32-bit float are supported; anything
// else is IncompatibleAudioFormat. Grounded on
// joinly/utils/audio.py's convert_audio_format.
func ConvertFormat(pcm []byte, src, dst AudioFormat) ([]byte, error) {
	if src == dst {
		return pcm, nil
	}
	if src.SampleRateHz != dst.SampleRateHz {
		return nil, &IncompatibleAudioFormat{
			Reason: fmt.Sprintf("sample rate mismatch: %d != %d", src.SampleRateHz, dst.SampleRateHz),
		}
	}

	switch {
	case src.ByteDepth == 4 && dst.ByteDepth == 2:
		return float32ToInt16(pcm)
	case src.ByteDepth == 2 && dst.ByteDepth == 4:
		return int16ToFloat32(pcm)
	default:
		return nil, &IncompatibleAudioFormat{
			Reason: fmt.Sprintf("unsupported byte depth conversion: %d -> %d", src.ByteDepth, dst.ByteDepth),
		}
	}
}

func float32ToInt16(pcm []byte) ([]byte, error) {
	if len(pcm)%4 != 0 {
		return nil, &IncompatibleAudioFormat{Reason: "float32 buffer not a multiple of 4 bytes"}
	}
	n := len(pcm) / 4
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(pcm[i*4 : i*4+4])
		f := math.Float32frombits(bits)
		scaled := float64(f) * 32767.0
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(scaled)))
	}
	return out, nil
}

func int16ToFloat32(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, &IncompatibleAudioFormat{Reason: "int16 buffer not a multiple of 2 bytes"}
	}
	n := len(pcm) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		f := float32(sample) / 32767.0
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(f))
	}
	return out, nil
}

// DurationNs returns the duration, in nanoseconds, of a buffer of the
// given number of bytes at format f. Grounded on
// joinly/utils/audio.py's calculate_audio_duration_ns.
func DurationNs(numBytes int, f AudioFormat) int64 {
	samples := int64(numBytes) / int64(f.ByteDepth)
	return samples * int64(1e9) / int64(f.SampleRateHz)
}

// DurationSeconds returns the duration, in seconds, of a buffer of the
// given number of bytes at format f. Grounded on
// joinly/utils/audio.py's calculate_audio_duration.
func DurationSeconds(numBytes int, f AudioFormat) float64 {
	return float64(numBytes) / float64(f.SampleRateHz*f.ByteDepth)
}
