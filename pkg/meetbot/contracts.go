package meetbot

import "context"

// AudioReader is the pipeline's audio-capture contract. Defined here (not
// in pkg/audio) so STT/transcription code can depend on it without
// importing the concrete pacing implementation.
type AudioReader interface {
	SampleRateHz() int
	ByteDepth() int
	ChunkSize() int
	Read(ctx context.Context) ([]byte, error)
}

// AudioWriter is the pipeline's audio-playback contract.
type AudioWriter interface {
	SampleRateHz() int
	ByteDepth() int
	ChunkSize() int
	Write(ctx context.Context, pcm []byte) error
}

// STTEngine turns one utterance's worth of VAD windows into zero or more
// finalized transcript segments with relative (utterance-local) timing.
type STTEngine interface {
	Stream(ctx context.Context, windows <-chan VADWindow) (<-chan TranscriptSegment, <-chan error)
}

// TTSEngine turns text into a stream of raw PCM chunks at its declared
// format.
type TTSEngine interface {
	AudioFormat() AudioFormat
	Stream(ctx context.Context, text string) (<-chan []byte, <-chan error)
}

// MeetingController is the required subset of the external meeting
// device's capabilities.
type MeetingController interface {
	Join(ctx context.Context, url, name string, passcode *string) error
	Leave(ctx context.Context) error
	SendChatMessage(ctx context.Context, text string) error
}

// Muter is an optional MeetingController capability, to be probed via type
// assertion. Session exposes no call that uses it or the other optional
// capabilities below.
type Muter interface {
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
}

// ParticipantLister is an optional MeetingController capability.
type ParticipantLister interface {
	GetParticipants(ctx context.Context) ([]string, error)
}

// ChatHistoryReader is an optional MeetingController capability.
type ChatHistoryReader interface {
	GetChatHistory(ctx context.Context) ([]string, error)
}
