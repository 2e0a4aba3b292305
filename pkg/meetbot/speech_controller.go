package meetbot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// defaultPrefetchChunks bounds how many chunks of TTS may be synthesized
// ahead of playback.
const defaultPrefetchChunks = 2

// wordsPerSecondCeiling bounds the estimate of words spoken during a very
// short partial write, per the barge-in spoken-text estimate.
const wordsPerSecondCeiling = 2.0

// minChunkWords, maxChunkWords, chunkWordFraction define the text chunking
// formula: clamp(chunkWordFraction * total_word_count, minChunkWords,
// maxChunkWords).
const (
	minChunkWords    = 15
	maxChunkWords    = 50
	chunkWordFraction = 0.2
)

// SpeechControllerConfig carries the tunables from §6's configuration
// surface.
type SpeechControllerConfig struct {
	PrefetchChunks int
}

// DefaultSpeechControllerConfig returns the spec defaults.
func DefaultSpeechControllerConfig() SpeechControllerConfig {
	return SpeechControllerConfig{PrefetchChunks: defaultPrefetchChunks}
}

type speechSentinel int

const (
	chunkEnd speechSentinel = iota
	textEnd
)

type speechQueueItem struct {
	bytes    []byte
	sentinel *speechSentinel
}

// SpeechController chunks outgoing text, streams TTS audio, paces it to
// the writer, detects barge-in via the shared gate, and emits assistant
// transcript segments. Grounded on
// controllers/speech/default.py's DefaultSpeechController.
type SpeechController struct {
	cfg    SpeechControllerConfig
	tts    TTSEngine
	writer AudioWriter

	transcript    *Transcript
	noSpeechEvent *Gate
	clock         Clock
	bus           *EventBus
	logger        Logger
	botName       string

	mu sync.Mutex // at-most-one active speak_text call
}

// NewSpeechController wires the TTS engine, writer, shared transcript, and
// the barge-in gate (read-only from here; owned by the transcription
// controller).
func NewSpeechController(cfg SpeechControllerConfig, tts TTSEngine, writer AudioWriter, transcript *Transcript, gate *Gate, clock Clock, bus *EventBus, logger Logger, botName string) *SpeechController {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if clock == nil {
		clock = NewClock()
	}
	return &SpeechController{
		cfg:           cfg,
		tts:           tts,
		writer:        writer,
		transcript:    transcript,
		noSpeechEvent: gate,
		clock:         clock,
		bus:           bus,
		logger:        logger,
		botName:       botName,
	}
}

// waitUntilNoActiveSpeech blocks until no speak_text call is in progress,
// used by Session.LeaveMeeting's non-forced path.
func (s *SpeechController) waitUntilNoActiveSpeech(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.mu.TryLock() {
			s.mu.Unlock()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// chunkText splits text into word-count-bounded chunks, targeting
// clamp(0.2 * total_word_count, 15, 50) words per chunk.
func chunkText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	target := int(chunkWordFraction * float64(len(words)))
	if target < minChunkWords {
		target = minChunkWords
	}
	if target > maxChunkWords {
		target = maxChunkWords
	}
	if target > len(words) {
		target = len(words)
	}

	var chunks []string
	for i := 0; i < len(words); i += target {
		end := i + target
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// SpeakText runs the chunk/prefetch/pace/barge-in algorithm to completion,
// interruption, or failure. At most one call runs at a time; concurrent
// callers block on the exclusion lock.
func (s *SpeechController) SpeakText(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := chunkText(text)
	if len(chunks) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan speechQueueItem, 64)
	prefetch := make(chan struct{}, s.cfg.PrefetchChunks)

	var wg sync.WaitGroup
	wg.Add(1)
	var producerErr error
	safeGo(s.logger, "speech-producer", func() {
		defer wg.Done()
		producerErr = s.produce(ctx, chunks, queue, prefetch)
	})

	spoken, consumeErr := s.consume(ctx, chunks, queue, prefetch)
	cancel()
	wg.Wait()

	if si, ok := AsSpeechInterrupted(consumeErr); ok {
		return si.SpokenText, consumeErr
	}
	if consumeErr != nil {
		return spoken, &SpeechFailed{Err: consumeErr}
	}
	if producerErr != nil {
		return spoken, &SpeechFailed{Err: producerErr}
	}
	return spoken, nil
}

func (s *SpeechController) produce(ctx context.Context, chunks []string, queue chan<- speechQueueItem, prefetch chan struct{}) error {
	speakStart := s.clock.NowSeconds()
	firstAudioSeen := false

	for _, chunk := range chunks {
		select {
		case prefetch <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		pcm, errs := s.tts.Stream(ctx, chunk)
		streamErr := s.drainTTS(ctx, pcm, errs, queue, speakStart, &firstAudioSeen)
		if streamErr != nil {
			return streamErr
		}

		end := chunkEnd
		select {
		case queue <- speechQueueItem{sentinel: &end}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	end := textEnd
	select {
	case queue <- speechQueueItem{sentinel: &end}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *SpeechController) drainTTS(ctx context.Context, pcm <-chan []byte, errs <-chan error, queue chan<- speechQueueItem, speakStart float64, firstAudioSeen *bool) error {
	for pcm != nil || errs != nil {
		select {
		case chunk, ok := <-pcm:
			if !ok {
				pcm = nil
				continue
			}
			if !*firstAudioSeen {
				*firstAudioSeen = true
				if s.bus != nil {
					s.bus.Publish(Event{Type: EventTTSFirstAudio, DurationMs: (s.clock.NowSeconds() - speakStart) * 1000})
				}
			}
			select {
			case queue <- speechQueueItem{bytes: chunk}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				if s.bus != nil {
					vendor := "unknown"
					var vt *VendorTransient
					if errors.As(err, &vt) {
						vendor = vt.Vendor
					}
					s.bus.Publish(Event{Type: EventTTSFailure, Vendor: vendor})
				}
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *SpeechController) consume(ctx context.Context, chunks []string, queue <-chan speechQueueItem, prefetch <-chan struct{}) (string, error) {
	ttsFormat := s.tts.AudioFormat()
	writerFormat := writerAudioFormat(s.writer)

	var buf []byte
	var spoken strings.Builder
	chunkIdx := 0
	chunkStart := s.clock.NowSeconds()
	bytesWritten := 0

	appendSpoken := func(text string) {
		if spoken.Len() > 0 {
			spoken.WriteByte(' ')
		}
		spoken.WriteString(text)
	}

	for {
		select {
		case <-ctx.Done():
			return spoken.String(), ctx.Err()
		case item := <-queue:
			if item.sentinel != nil {
				switch *item.sentinel {
				case chunkEnd:
					if len(buf) > 0 {
						if err := s.writer.Write(ctx, buf); err != nil {
							return spoken.String(), err
						}
						buf = nil
					}
					text := chunks[chunkIdx]
					appendSpoken(text)
					seg := TranscriptSegment{
						Text:    text,
						Start:   chunkStart,
						End:     s.clock.NowSeconds(),
						Speaker: s.botName,
						Role:    RoleAssistant,
					}
					s.transcript.Append(seg)
					if s.bus != nil {
						s.bus.Publish(Event{Type: EventSegment, Segment: seg})
					}
					<-prefetch
					chunkIdx++
					chunkStart = s.clock.NowSeconds()
					bytesWritten = 0
					continue
				case textEnd:
					return spoken.String(), nil
				}
			}

			converted, err := ConvertFormat(item.bytes, ttsFormat, writerFormat)
			if err != nil {
				return spoken.String(), err
			}
			buf = append(buf, converted...)

			for len(buf) >= s.writer.ChunkSize() {
				if !s.noSpeechEvent.IsSet() {
					// Barge-in: participant is speaking.
					words := strings.Fields(chunks[chunkIdx])
					partial := estimateSpokenText(words, bytesWritten, len(buf)+bytesWritten, writerFormat.SampleRateHz)
					appendSpoken(partial + "…")
					seg := TranscriptSegment{
						Text:    partial + "…",
						Start:   chunkStart,
						End:     s.clock.NowSeconds(),
						Speaker: s.botName,
						Role:    RoleAssistant,
					}
					s.transcript.Append(seg)
					if s.bus != nil {
						s.bus.Publish(Event{Type: EventSegment, Segment: seg})
						latencyMs := (s.clock.NowSeconds() - s.noSpeechEvent.ClearedAtSeconds()) * 1000
						s.bus.Publish(Event{Type: EventBargeIn, DurationMs: latencyMs})
					}
					return spoken.String(), &SpeechInterrupted{SpokenText: spoken.String()}
				}

				chunk := buf[:s.writer.ChunkSize()]
				if err := s.writer.Write(ctx, chunk); err != nil {
					return spoken.String(), err
				}
				buf = buf[s.writer.ChunkSize():]
				bytesWritten += s.writer.ChunkSize()
			}
		}
	}
}

// estimateSpokenText estimates how many of chunkWords have been spoken
// given bytesWritten out of totalBytes (the full chunk's synthesized
// byte length so far), capped at a 2.0 words/second ceiling for very
// short writes.
func estimateSpokenText(chunkWords []string, bytesWritten, totalBytes, sampleRateHz int) string {
	if len(chunkWords) == 0 || totalBytes == 0 {
		return ""
	}
	fraction := float64(bytesWritten) / float64(totalBytes)
	wordNum := int(fraction * float64(len(chunkWords)))

	// Apply the words-per-second ceiling using the duration implied by
	// bytesWritten at the writer's sample rate, assuming 16-bit samples.
	durationSeconds := float64(bytesWritten) / float64(sampleRateHz*2)
	ceilingWords := int(durationSeconds * wordsPerSecondCeiling)
	if ceilingWords < wordNum {
		wordNum = ceilingWords
	}
	if wordNum > len(chunkWords) {
		wordNum = len(chunkWords)
	}
	if wordNum < 0 {
		wordNum = 0
	}
	return strings.Join(chunkWords[:wordNum], " ")
}

func writerAudioFormat(w AudioWriter) AudioFormat {
	return AudioFormat{SampleRateHz: w.SampleRateHz(), ByteDepth: w.ByteDepth()}
}
