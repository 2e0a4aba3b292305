package meetbot

import (
	"context"
	"errors"
	"sync"
)

// defaultUtteranceTailSeconds is the gap of continuous non-speech after
// which an in-progress utterance is finalized.
const defaultUtteranceTailSeconds = 0.6

// defaultMaxSTTTasks bounds concurrent STT tasks.
const defaultMaxSTTTasks = 5

// defaultWindowQueueSize bounds the per-utterance window queue.
const defaultWindowQueueSize = 100

// TranscriptionControllerConfig carries the tunables from §6's
// configuration surface.
type TranscriptionControllerConfig struct {
	UtteranceTailSeconds float64
	MaxSTTTasks          int
	WindowQueueSize      int
}

// DefaultTranscriptionControllerConfig returns the spec defaults.
func DefaultTranscriptionControllerConfig() TranscriptionControllerConfig {
	return TranscriptionControllerConfig{
		UtteranceTailSeconds: defaultUtteranceTailSeconds,
		MaxSTTTasks:          defaultMaxSTTTasks,
		WindowQueueSize:      defaultWindowQueueSize,
	}
}

// TranscriptionController consumes a labelled VAD window stream, groups
// windows into utterances, fans each utterance out to a bounded pool of
// STT tasks, and appends finalized segments to the transcript. Grounded on
// controllers/transcription/default.py's DefaultTranscriptionController.
type TranscriptionController struct {
	cfg    TranscriptionControllerConfig
	stt    STTEngine
	clock  Clock
	bus    *EventBus
	logger Logger

	transcript    *Transcript
	noSpeechEvent *Gate

	sem chan struct{} // bounds concurrent STT tasks

	mu      sync.Mutex
	wg      sync.WaitGroup
	started bool
}

// NewTranscriptionController wires an STT engine, shared transcript, and
// barge-in gate. The gate is owned (written) here and read by the speech
// controller.
func NewTranscriptionController(cfg TranscriptionControllerConfig, stt STTEngine, transcript *Transcript, gate *Gate, clock Clock, bus *EventBus, logger Logger) *TranscriptionController {
	if logger == nil {
		logger = NoOpLogger{}
	}
	if clock == nil {
		clock = NewClock()
	}
	return &TranscriptionController{
		cfg:           cfg,
		stt:           stt,
		clock:         clock,
		bus:           bus,
		logger:        logger,
		transcript:    transcript,
		noSpeechEvent: gate,
		sem:           make(chan struct{}, cfg.MaxSTTTasks),
	}
}

// Run drives the state machine over windows until ctx is done or the
// channel closes. Blocks until all in-flight STT tasks finish after the
// window stream ends (or ctx is cancelled).
func (c *TranscriptionController) Run(ctx context.Context, windows <-chan VADWindow) {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	var queue chan *VADWindow
	var lastSpeech float64
	inUtterance := false

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			return
		case win, ok := <-windows:
			if !ok {
				c.wg.Wait()
				return
			}

			startSeconds := nsToSeconds(win.TimeNs)

			if !inUtterance {
				if !win.IsSpeech {
					continue
				}
				// Idle -> first speech window.
				select {
				case c.sem <- struct{}{}:
				default:
					// Pool saturated: drop this window, stay Idle. Per
					// the resolved open question, trailing speech windows
					// are left unprocessed until the next silence gap.
					c.logger.Warn("stt pool saturated, dropping utterance start")
					if c.bus != nil {
						c.bus.Publish(Event{Type: EventUtteranceDropped})
					}
					continue
				}
				c.noSpeechEvent.Clear(c.clock.NowSeconds())
				queue = make(chan *VADWindow, c.cfg.WindowQueueSize)
				c.spawnUtterance(ctx, queue, win.TimeNs)
				pushWindow(queue, &win, c.logger)
				lastSpeech = startSeconds
				inUtterance = true
				if c.bus != nil {
					c.bus.Publish(Event{Type: EventUtteranceStarted})
					c.bus.Publish(Event{Type: EventControllerState, From: "idle", To: "in_utterance"})
				}
				continue
			}

			// InUtterance.
			if win.IsSpeech {
				pushWindow(queue, &win, c.logger)
				lastSpeech = startSeconds
				continue
			}

			if startSeconds-lastSpeech >= c.cfg.UtteranceTailSeconds {
				pushSentinel(queue, c.logger)
				c.noSpeechEvent.Set()
				queue = nil
				inUtterance = false
				if c.bus != nil {
					c.bus.Publish(Event{Type: EventControllerState, From: "in_utterance", To: "idle"})
				}
				continue
			}

			// Trailing context below the threshold: still push.
			pushWindow(queue, &win, c.logger)
		}
	}
}

func (c *TranscriptionController) spawnUtterance(ctx context.Context, queue chan *VADWindow, leadingTimeNs int64) {
	c.wg.Add(1)
	safeGo(c.logger, "stt-utterance", func() {
		defer c.wg.Done()
		defer func() { <-c.sem }()
		c.runUtterance(ctx, queue, leadingTimeNs)
	})
}

func (c *TranscriptionController) runUtterance(ctx context.Context, queue chan *VADWindow, leadingTimeNs int64) {
	windowCh := make(chan VADWindow, c.cfg.WindowQueueSize)

	go func() {
		defer close(windowCh)
		for win := range queue {
			if win == nil {
				return
			}
			select {
			case windowCh <- *win:
			case <-ctx.Done():
				return
			}
		}
	}()

	segments, errs := c.stt.Stream(ctx, windowCh)
	segCount := 0

	for segments != nil || errs != nil {
		select {
		case seg, ok := <-segments:
			if !ok {
				segments = nil
				continue
			}
			abs := TranscriptSegment{
				Text:    seg.Text,
				Start:   nsToSeconds(leadingTimeNs) + seg.Start,
				End:     nsToSeconds(leadingTimeNs) + seg.End,
				Speaker: seg.Speaker,
				Role:    RoleParticipant,
			}
			c.transcript.Append(abs)
			segCount++
			if c.bus != nil {
				c.bus.Publish(Event{Type: EventSegment, Segment: abs})
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				c.logger.Warn("stt utterance failed, dropping", "error", err)
				if c.bus != nil {
					vendor := "unknown"
					var vt *VendorTransient
					if errors.As(err, &vt) {
						vendor = vt.Vendor
					}
					c.bus.Publish(Event{Type: EventSTTFailure, Vendor: vendor})
				}
			}
		case <-ctx.Done():
			return
		}
	}

	if segCount > 0 && c.bus != nil {
		c.bus.Publish(Event{Type: EventUtterance})
	}
}

func pushWindow(queue chan *VADWindow, win *VADWindow, logger Logger) {
	cp := *win
	select {
	case queue <- &cp:
	default:
		// Queue full: drop the oldest queued frame to make room. That can
		// be the utterance's leading window; the utterance's start time is
		// carried separately and is not affected.
		select {
		case <-queue:
		default:
		}
		select {
		case queue <- &cp:
		default:
			logger.Warn("dropped vad window, queue still full after eviction")
		}
	}
}

func pushSentinel(queue chan *VADWindow, logger Logger) {
	select {
	case queue <- nil:
		return
	default:
	}
	// Queue full: evict exactly one item to make space — never lose the
	// end sentinel.
	select {
	case <-queue:
	default:
	}
	select {
	case queue <- nil:
	default:
		logger.Error("failed to push end sentinel even after eviction")
	}
}

func nsToSeconds(ns int64) float64 {
	return float64(ns) / 1e9
}
