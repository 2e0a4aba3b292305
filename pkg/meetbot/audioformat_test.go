package meetbot

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestConvertFormatSameFormatIsNoop(t *testing.T) {
	f := AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	pcm := []byte{1, 2, 3, 4}
	out, err := ConvertFormat(pcm, f, f)
	if err != nil {
		t.Fatalf("ConvertFormat same format: %v", err)
	}
	if len(out) != len(pcm) {
		t.Fatalf("expected identity conversion to preserve length")
	}
}

func TestConvertFormatSampleRateMismatchErrors(t *testing.T) {
	src := AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	dst := AudioFormat{SampleRateHz: 44100, ByteDepth: 2}
	_, err := ConvertFormat(make([]byte, 4), src, dst)
	if err == nil {
		t.Fatal("expected error on sample rate mismatch")
	}
	if _, ok := err.(*IncompatibleAudioFormat); !ok {
		t.Fatalf("expected IncompatibleAudioFormat, got %T: %v", err, err)
	}
}

func TestConvertFormatInt16ToFloat32RoundTrip(t *testing.T) {
	src := AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	dst := AudioFormat{SampleRateHz: 16000, ByteDepth: 4}

	pcm := make([]byte, 4)
	binary.LittleEndian.PutUint16(pcm[0:2], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(pcm[2:4], uint16(int16(-16384)))

	floatPCM, err := ConvertFormat(pcm, src, dst)
	if err != nil {
		t.Fatalf("int16->float32: %v", err)
	}
	if len(floatPCM) != 8 {
		t.Fatalf("expected 8 bytes of float32 output, got %d", len(floatPCM))
	}

	back, err := ConvertFormat(floatPCM, dst, src)
	if err != nil {
		t.Fatalf("float32->int16: %v", err)
	}
	got0 := int16(binary.LittleEndian.Uint16(back[0:2]))
	got1 := int16(binary.LittleEndian.Uint16(back[2:4]))
	if abs16(got0-16384) > 2 || abs16(got1-(-16384)) > 2 {
		t.Fatalf("round-trip drifted too far: got %d, %d", got0, got1)
	}
}

func TestConvertFormatUnsupportedByteDepthErrors(t *testing.T) {
	src := AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	dst := AudioFormat{SampleRateHz: 16000, ByteDepth: 3}
	if _, err := ConvertFormat(make([]byte, 4), src, dst); err == nil {
		t.Fatal("expected error for unsupported byte depth conversion")
	}
}

func TestDurationNsAndSeconds(t *testing.T) {
	f := AudioFormat{SampleRateHz: 16000, ByteDepth: 2}
	// 320 bytes = 160 samples @ 16kHz = 10ms.
	if got := DurationNs(320, f); got != 10_000_000 {
		t.Fatalf("expected 10ms in ns, got %d", got)
	}
	if got := DurationSeconds(320, f); math.Abs(got-0.01) > 1e-9 {
		t.Fatalf("expected 0.01s, got %f", got)
	}
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
