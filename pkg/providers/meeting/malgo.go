package meeting

import (
	"context"
	"sync"

	"github.com/lokutor-ai/meetbot/pkg/device"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// MalgoMeetingProvider joins a "meeting" by opening the local machine's
// default microphone/speaker as a full-duplex device. It has no chat or
// roster support: the underlying OS audio device carries no such concept,
// so it deliberately does not implement the optional capability
// interfaces. Intended for the localmic demo entrypoint and for plugging
// the bot into a conferencing app that exposes itself as a virtual audio
// device to the OS.
type MalgoMeetingProvider struct {
	mu     sync.Mutex
	joined bool

	dev *device.MalgoDuplexDevice
}

// NewMalgoMeetingProvider opens the hardware device at the given format.
func NewMalgoMeetingProvider(format meetbot.AudioFormat, chunkSize, queueDepth int) (*MalgoMeetingProvider, error) {
	dev, err := device.NewMalgoDuplexDevice(format, chunkSize, queueDepth)
	if err != nil {
		return nil, err
	}
	return &MalgoMeetingProvider{dev: dev}, nil
}

// Reader returns the capture half of the device.
func (m *MalgoMeetingProvider) Reader() meetbot.AudioReader { return m.dev }

// Writer returns the playback half of the device.
func (m *MalgoMeetingProvider) Writer() meetbot.AudioWriter { return m.dev }

func (m *MalgoMeetingProvider) Join(ctx context.Context, _ string, _ string, _ *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joined {
		return nil
	}
	if err := m.dev.Start(ctx); err != nil {
		return err
	}
	m.joined = true
	return nil
}

func (m *MalgoMeetingProvider) Leave(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.joined {
		return nil
	}
	m.joined = false
	return m.dev.Close()
}

func (m *MalgoMeetingProvider) SendChatMessage(context.Context, string) error {
	return &meetbot.ProviderNotSupported{Capability: "chat"}
}
