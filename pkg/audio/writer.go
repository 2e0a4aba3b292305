package audio

import (
	"context"
	"time"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// Writer is the pipeline's audio-playback contract: Write accepts any
// multiple of byte_depth and the implementation paces emission to the
// device, inserting silence if the producer starves it.
type Writer interface {
	SampleRateHz() int
	ByteDepth() int
	ChunkSize() int
	Write(ctx context.Context, pcm []byte) error
}

// defaultMaxMissedChunks is the number of missed pacing intervals after
// which PacedWriter rebases its deadline to "now" instead of trying to
// catch up. Grounded on virtual_microphone.py's _pace_loop.
const defaultMaxMissedChunks = 10

// Emit is called once per chunk period with one queued piece (ChunkSize
// bytes of silence when the producer has nothing queued). The last piece
// of a Write whose length is not a multiple of ChunkSize is shorter than
// ChunkSize and is emitted as is.
type Emit func(chunk []byte)

// PacedWriter accepts arbitrary-length PCM via Write, slices it into
// chunk_size pieces, and emits one piece per chunk period via Emit — a
// fixed-period pacing loop that rebases its deadline after falling
// defaultMaxMissedChunks intervals behind,
// grounded on virtual_microphone.py's _pace_loop algorithm.
type PacedWriter struct {
	format    meetbot.AudioFormat
	chunkSize int
	period    time.Duration
	emit      Emit

	queue   chan []byte
	started chan struct{}
}

// NewPacedWriter returns a writer that calls emit once per chunk period.
// queueDepth bounds the backpressure queue: once full, Write blocks its
// caller for at most one chunk period's worth of queued capacity.
func NewPacedWriter(format meetbot.AudioFormat, chunkSize, queueDepth int, emit Emit) *PacedWriter {
	return &PacedWriter{
		format:    format,
		chunkSize: chunkSize,
		period:    chunkPeriod(chunkSize, format),
		emit:      emit,
		queue:     make(chan []byte, queueDepth),
		started:   make(chan struct{}),
	}
}

func (w *PacedWriter) SampleRateHz() int { return w.format.SampleRateHz }
func (w *PacedWriter) ByteDepth() int    { return w.format.ByteDepth }
func (w *PacedWriter) ChunkSize() int    { return w.chunkSize }

// Start launches the pacing loop. Call once before Write.
func (w *PacedWriter) Start(ctx context.Context) {
	select {
	case <-w.started:
		return
	default:
		close(w.started)
	}
	go w.paceLoop(ctx)
}

// Write accepts any multiple of byte_depth, slicing it into chunk_size
// pieces and queuing each for the pacing loop. Blocks the caller when the
// queue is full (natural backpressure), never drops.
func (w *PacedWriter) Write(ctx context.Context, pcm []byte) error {
	select {
	case <-w.started:
	default:
		return &meetbot.ComponentNotStarted{Component: "PacedWriter"}
	}

	for offset := 0; offset < len(pcm); offset += w.chunkSize {
		end := offset + w.chunkSize
		if end > len(pcm) {
			end = len(pcm)
		}
		chunk := pcm[offset:end]
		select {
		case w.queue <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (w *PacedWriter) paceLoop(ctx context.Context) {
	silence := make([]byte, w.chunkSize)
	nextDeadline := time.Now()
	missed := 0

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if now.After(nextDeadline) {
				behind := now.Sub(nextDeadline)
				missed = int(behind / w.period)
			} else {
				missed = 0
			}
			if missed >= defaultMaxMissedChunks {
				nextDeadline = now
				missed = 0
			}

			var chunk []byte
			select {
			case chunk = <-w.queue:
			default:
				chunk = silence
			}
			w.emit(chunk)
			nextDeadline = nextDeadline.Add(w.period)
		}
	}
}
