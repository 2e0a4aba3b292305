package meetbot

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionConfig carries the subset of §6's configuration surface the
// session composer itself consumes; provider-specific args are threaded
// through to the registry by the caller building the leaf components.
type SessionConfig struct {
	Name                 string
	Language             string
	TranscriptionControl TranscriptionControllerConfig
	SpeechControl        SpeechControllerConfig
}

// DefaultSessionConfig returns the spec's documented defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Name:                 "joinly",
		Language:             "en",
		TranscriptionControl: DefaultTranscriptionControllerConfig(),
		SpeechControl:        DefaultSpeechControllerConfig(),
	}
}

// Session composes the pipeline leaves (devices, VAD, STT, TTS) and the
// two controllers, and exposes the external RPC surface. Grounded on
// joinly/container.py's build order and joinly/session.py's delegation.
type Session struct {
	id     string
	cfg    SessionConfig
	logger Logger
	clock  Clock
	bus    *EventBus

	meeting MeetingController
	reader  AudioReader
	writer  AudioWriter

	transcriptionCtl *TranscriptionController
	speechCtl        *SpeechController
	noSpeechEvent    *Gate
	transcript       *Transcript

	startPipeline func(ctx context.Context)

	mu        sync.Mutex
	started   bool
	runCancel context.CancelFunc
	runDone   chan struct{}
}

// NewSession wires a meeting controller, reader/writer, VAD detector, STT,
// and TTS engines into the transcription and speech controllers, in
// dependency order (leaves first).
func NewSession(cfg SessionConfig, meeting MeetingController, reader AudioReader, writer AudioWriter, vadWindows func(ctx context.Context) (<-chan VADWindow, <-chan error), stt STTEngine, tts TTSEngine, logger Logger) *Session {
	if logger == nil {
		logger = NoOpLogger{}
	}
	clock := NewClock()
	bus := NewEventBus(logger)
	transcript := NewTranscript()
	gate := NewGate(true) // initially set, meaning "no speech"

	transcriptionCtl := NewTranscriptionController(cfg.TranscriptionControl, stt, transcript, gate, clock, bus, logger)
	speechCtl := NewSpeechController(cfg.SpeechControl, tts, writer, transcript, gate, clock, bus, logger, cfg.Name)

	s := &Session{
		id:               uuid.NewString(),
		cfg:              cfg,
		logger:           logger,
		clock:            clock,
		bus:              bus,
		meeting:          meeting,
		reader:           reader,
		writer:           writer,
		transcriptionCtl: transcriptionCtl,
		speechCtl:        speechCtl,
		noSpeechEvent:    gate,
		transcript:       transcript,
	}

	s.startPipeline = func(ctx context.Context) {
		windows, errs := vadWindows(ctx)
		safeGo(logger, "vad-error-watch", func() {
			for err := range errs {
				if err != nil {
					logger.Error("vad streamer fatal", "error", err)
				}
			}
		})
		transcriptionCtl.Run(ctx, windows)
	}

	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// JoinMeeting delegates to the meeting controller, then starts both
// controllers.
func (s *Session) JoinMeeting(ctx context.Context, url string, name string, passcode *string) (string, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return "", fmt.Errorf("meetbot: session %s already joined", s.id)
	}
	if name == "" {
		name = s.cfg.Name
	}
	if err := s.meeting.Join(ctx, url, name, passcode); err != nil {
		s.mu.Unlock()
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel
	s.runDone = make(chan struct{})
	s.started = true
	s.mu.Unlock()

	safeGo(s.logger, "transcription-controller", func() {
		defer close(s.runDone)
		s.startPipeline(runCtx)
	})

	return "joined meeting", nil
}

// LeaveMeeting waits for the speech controller to have no active speech
// (unless force), then stops both controllers and leaves.
func (s *Session) LeaveMeeting(ctx context.Context, force bool) (string, error) {
	if !force {
		_ = s.speechCtl.waitUntilNoActiveSpeech(ctx)
	}

	s.mu.Lock()
	cancel := s.runCancel
	done := s.runDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}

	if err := s.meeting.Leave(ctx); err != nil {
		return "", err
	}
	return "left meeting", nil
}

// SpeakText blocks until speech completes or is interrupted.
func (s *Session) SpeakText(ctx context.Context, text string) (string, error) {
	spoken, err := s.speechCtl.SpeakText(ctx, text)
	if si, ok := AsSpeechInterrupted(err); ok {
		return fmt.Sprintf("interrupted after speaking: %s", si.SpokenText), err
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("spoke: %s", spoken), nil
}

// SendChatMessage delegates to the meeting controller.
func (s *Session) SendChatMessage(ctx context.Context, message string) (string, error) {
	if err := s.meeting.SendChatMessage(ctx, message); err != nil {
		return "", err
	}
	return "sent", nil
}

// GetTranscript returns a snapshot of the transcript.
func (s *Session) GetTranscript() *Transcript {
	return &Transcript{segments: s.transcript.Segments()}
}

// AddTranscriptionListener registers fn for segment and utterance events
// and returns an unsubscribe handle.
func (s *Session) AddTranscriptionListener(fn Handler) Unsubscribe {
	unsubSeg := s.bus.Subscribe(EventSegment, fn)
	unsubUtt := s.bus.Subscribe(EventUtterance, fn)
	return func() {
		unsubSeg()
		unsubUtt()
	}
}

// metricsEventTypes is the full set of operational (non-transcript) event
// types a metrics listener cares about.
var metricsEventTypes = []EventType{
	EventUtteranceStarted,
	EventUtteranceDropped,
	EventControllerState,
	EventSTTFailure,
	EventTTSFailure,
	EventBargeIn,
	EventTTSFirstAudio,
}

// AddMetricsListener registers fn for the pipeline's operational events
// (utterance lifecycle, vendor failures, barge-in latency, TTS latency)
// and returns an unsubscribe handle.
func (s *Session) AddMetricsListener(fn Handler) Unsubscribe {
	unsubs := make([]Unsubscribe, len(metricsEventTypes))
	for i, t := range metricsEventTypes {
		unsubs[i] = s.bus.Subscribe(t, fn)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
