package vad

import (
	"context"
	"fmt"

	"github.com/lokutor-ai/meetbot/pkg/audio"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// Streamer drives a Detector over a Reader, buffering chunks into
// fixed-size windows, converting them to the detector's format, labelling
// them, and emitting VADWindows with a one-window look-back: the most
// recent non-speech window is held; when the next window is speech, the
// held window is emitted first (marked with its original label), followed
// by the new speech window; when the next window is also non-speech, the
// held window is emitted (with its label) and the new one is held.
// Grounded on services/vad/base.py's BasePaddedVAD.stream().
type Streamer struct {
	reader   audio.Reader
	detector Detector
}

// NewStreamer pairs a reader with a detector. The reader and detector must
// share a sample rate; otherwise Run sends an IncompatibleAudioFormat on
// its error channel and emits no windows.
func NewStreamer(reader audio.Reader, detector Detector) *Streamer {
	return &Streamer{reader: reader, detector: detector}
}

// Run streams labelled windows onto the returned channel until ctx is
// done or the reader errors; the channel is closed on return. Errors are
// sent once on the error channel, which is then closed.
func (s *Streamer) Run(ctx context.Context) (<-chan meetbot.VADWindow, <-chan error) {
	out := make(chan meetbot.VADWindow, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		detFormat := s.detector.AudioFormat()
		if s.reader.SampleRateHz() != detFormat.SampleRateHz {
			errCh <- &meetbot.IncompatibleAudioFormat{
				Reason: fmt.Sprintf("sample rate mismatch: reader=%d detector=%d",
					s.reader.SampleRateHz(), detFormat.SampleRateHz),
			}
			return
		}

		readerFormat := meetbot.AudioFormat{SampleRateHz: s.reader.SampleRateHz(), ByteDepth: s.reader.ByteDepth()}
		windowByteLen := s.detector.WindowSizeSamples() * detFormat.ByteDepth

		var buf []byte
		var windowIdx int64
		chunkDurNs := audio.DurationNs(windowByteLen, detFormat)

		var held *meetbot.VADWindow
		// Flush the trailing held window on every exit path (reader
		// error, ctx cancellation, or EOF): without this the last window
		// buffered for look-back is silently dropped. Matches
		// services/vad/base.py's end-of-stream "if pending: yield ...".
		defer func() {
			if held == nil {
				return
			}
			select {
			case out <- *held:
			default:
				// Consumer already stopped draining out; best effort only.
			}
		}()

		for {
			chunk, err := s.reader.Read(ctx)
			if err != nil {
				if err != context.Canceled && err != context.DeadlineExceeded {
					errCh <- err
				}
				return
			}
			buf = append(buf, chunk...)

			readerWindowLen := s.detector.WindowSizeSamples() * readerFormat.ByteDepth
			for len(buf) >= readerWindowLen {
				rawWindow := buf[:readerWindowLen]
				buf = buf[readerWindowLen:]

				converted, err := audio.ConvertFormat(rawWindow, readerFormat, detFormat)
				if err != nil {
					errCh <- err
					return
				}

				speech, err := s.detector.IsSpeech(ctx, converted)
				if err != nil {
					errCh <- err
					return
				}

				win := meetbot.VADWindow{
					Data:     converted,
					TimeNs:   windowIdx * chunkDurNs,
					IsSpeech: speech,
				}
				windowIdx++

				switch {
				case speech && held != nil:
					// Emit the held (non-speech) window with its original
					// label for leading context, then the new speech window.
					select {
					case out <- *held:
					case <-ctx.Done():
						return
					}
					select {
					case out <- win:
					case <-ctx.Done():
						return
					}
					held = nil
				case speech && held == nil:
					// Already in a speech run: nothing to hold, emit now.
					select {
					case out <- win:
					case <-ctx.Done():
						return
					}
				case !speech && held != nil:
					// Still non-speech: emit the previously held window
					// and hold the new one.
					select {
					case out <- *held:
					case <-ctx.Done():
						return
					}
					held = &win
				default: // !speech && held == nil
					held = &win
				}
			}
		}
	}()

	return out, errCh
}
