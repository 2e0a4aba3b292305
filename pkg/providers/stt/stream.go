// Package stt adapts the teacher's batch-style vendor STT clients
// (Deepgram, Groq, OpenAI, AssemblyAI) to the pipeline's streaming
// Engine contract: buffer one utterance's windows into a single PCM blob,
// call the existing vendor API once, and emit a single segment with
// relative start=0/end=utterance-duration timing.
package stt

import (
	"context"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// batchTranscriber is satisfied by every vendor client in this package.
type batchTranscriber interface {
	Transcribe(ctx context.Context, audioPCM []byte, language string) (string, error)
	Name() string
}

// streamFromBatch buffers the full window channel and issues one vendor
// call, matching the Engine contract's "engines that require a single
// blob buffer the windows internally; no caller-facing difference" rule.
func streamFromBatch(ctx context.Context, windows <-chan meetbot.VADWindow, format meetbot.AudioFormat, language string, t batchTranscriber) (<-chan meetbot.TranscriptSegment, <-chan error) {
	segCh := make(chan meetbot.TranscriptSegment, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(segCh)
		defer close(errCh)

		var pcm []byte
		for win := range windows {
			pcm = append(pcm, win.Data...)
		}
		if len(pcm) == 0 {
			return
		}

		text, err := t.Transcribe(ctx, pcm, language)
		if err != nil {
			errCh <- &meetbot.VendorTransient{Vendor: t.Name(), Err: err}
			return
		}
		if text == "" {
			errCh <- meetbot.ErrEmptyTranscription
			return
		}

		duration := meetbot.DurationSeconds(len(pcm), format)
		segCh <- meetbot.TranscriptSegment{
			Text:  text,
			Start: 0,
			End:   duration,
			Role:  meetbot.RoleParticipant,
		}
	}()

	return segCh, errCh
}
