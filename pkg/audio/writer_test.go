package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

func TestPacedWriterWriteBeforeStartErrors(t *testing.T) {
	w := NewPacedWriter(meetbot.AudioFormat{SampleRateHz: 8000, ByteDepth: 2}, 16, 4, func([]byte) {})
	err := w.Write(context.Background(), make([]byte, 16))
	if _, ok := err.(*meetbot.ComponentNotStarted); !ok {
		t.Fatalf("expected ComponentNotStarted before Start, got %v", err)
	}
}

func TestPacedWriterEmitsWrittenChunks(t *testing.T) {
	var mu sync.Mutex
	var emitted [][]byte

	w := NewPacedWriter(meetbot.AudioFormat{SampleRateHz: 8000, ByteDepth: 2}, 4, 8, func(chunk []byte) {
		mu.Lock()
		cp := make([]byte, len(chunk))
		copy(cp, chunk)
		emitted = append(emitted, cp)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	if err := w.Write(context.Background(), []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(emitted)
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for paced writer to emit the written chunk")
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if emitted[0][0] != 1 || emitted[0][3] != 4 {
		t.Fatalf("expected emitted chunk to match written bytes, got %+v", emitted[0])
	}
}

func TestPacedWriterAccessors(t *testing.T) {
	w := NewPacedWriter(meetbot.AudioFormat{SampleRateHz: 44100, ByteDepth: 2}, 32, 4, func([]byte) {})
	if w.SampleRateHz() != 44100 || w.ByteDepth() != 2 || w.ChunkSize() != 32 {
		t.Fatalf("unexpected accessor values: %d %d %d", w.SampleRateHz(), w.ByteDepth(), w.ChunkSize())
	}
}
