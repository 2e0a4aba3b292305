// Package meeting implements MeetingController + AudioReader/AudioWriter
// pairs: an in-memory loopback provider for tests and local demos, and a
// malgo-backed hardware provider.
package meeting

import (
	"context"
	"sync"

	"github.com/lokutor-ai/meetbot/pkg/audio"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// LoopbackMeetingController is an in-memory MeetingController: audio
// written by the bot is fed straight back as captured "remote" audio,
// useful for end-to-end pipeline tests and demos without a real meeting
// device. It also records chat messages and join/leave calls for
// assertions.
type LoopbackMeetingController struct {
	mu sync.Mutex

	joined          bool
	muted           bool
	participantName string
	chatHistory     []string

	Reader *audio.PacedReader
	Writer *audio.PacedWriter
}

// NewLoopbackMeetingController builds a loopback provider whose writer
// output feeds directly into its own reader's queue.
func NewLoopbackMeetingController(format meetbot.AudioFormat, chunkSize, queueDepth int) *LoopbackMeetingController {
	reader := audio.NewPacedReader(format, chunkSize, queueDepth)
	writer := audio.NewPacedWriter(format, chunkSize, queueDepth, func(chunk []byte) {
		cp := make([]byte, len(chunk))
		copy(cp, chunk)
		reader.Push(cp)
	})
	reader.Start()
	return &LoopbackMeetingController{Reader: reader, Writer: writer}
}

func (m *LoopbackMeetingController) Join(_ context.Context, _, name string, _ *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined = true
	m.participantName = name
	return nil
}

func (m *LoopbackMeetingController) Leave(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joined = false
	return nil
}

func (m *LoopbackMeetingController) SendChatMessage(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatHistory = append(m.chatHistory, text)
	return nil
}

func (m *LoopbackMeetingController) Mute(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = true
	return nil
}

func (m *LoopbackMeetingController) Unmute(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = false
	return nil
}

func (m *LoopbackMeetingController) GetParticipants(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.participantName == "" {
		return nil, nil
	}
	return []string{m.participantName}, nil
}

func (m *LoopbackMeetingController) GetChatHistory(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.chatHistory))
	copy(out, m.chatHistory)
	return out, nil
}
