package audio

import (
	"context"
	"sync"
	"time"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// Reader is the pipeline's audio-capture contract: each call to Read
// returns the next contiguous chunk_size slice of PCM, paced at wall-clock
// rate by the implementation.
type Reader interface {
	SampleRateHz() int
	ByteDepth() int
	ChunkSize() int
	Read(ctx context.Context) ([]byte, error)
}

// PacedReader buffers chunks pushed by Push (e.g. from a meeting device
// callback) and serves them from Read in arrival order. Read does no
// pacing and no re-slicing of its own: each call returns one pushed chunk
// as it was pushed, whatever its length, so the pace and the chunk length
// are those of the pushing device rather than ChunkSize.
type PacedReader struct {
	format    meetbot.AudioFormat
	chunkSize int

	mu      sync.Mutex
	started bool
	queue   chan []byte
}

// NewPacedReader returns a reader with the given format/chunk size and a
// bounded backlog queue.
func NewPacedReader(format meetbot.AudioFormat, chunkSize, queueDepth int) *PacedReader {
	return &PacedReader{
		format:    format,
		chunkSize: chunkSize,
		queue:     make(chan []byte, queueDepth),
	}
}

func (r *PacedReader) SampleRateHz() int { return r.format.SampleRateHz }
func (r *PacedReader) ByteDepth() int    { return r.format.ByteDepth }
func (r *PacedReader) ChunkSize() int    { return r.chunkSize }

// Start marks the reader as usable. Read before Start returns
// ComponentNotStarted.
func (r *PacedReader) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
}

// Push enqueues a captured chunk. Non-blocking: drops the oldest queued
// chunk to make room rather than blocking the capture callback.
func (r *PacedReader) Push(chunk []byte) {
	select {
	case r.queue <- chunk:
	default:
		select {
		case <-r.queue:
		default:
		}
		select {
		case r.queue <- chunk:
		default:
		}
	}
}

// Read blocks until the next pushed chunk is available and returns it, or
// returns ctx.Err() if ctx is done first.
func (r *PacedReader) Read(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return nil, &meetbot.ComponentNotStarted{Component: "PacedReader"}
	}

	select {
	case chunk := <-r.queue:
		return chunk, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// chunkPeriod returns the wall-clock period of one chunk.
func chunkPeriod(chunkSize int, f meetbot.AudioFormat) time.Duration {
	return time.Duration(DurationNs(chunkSize, f)) * time.Nanosecond
}
