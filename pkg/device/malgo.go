// Package device wires the pipeline's AudioReader/AudioWriter contracts
// to real sound hardware via malgo, grounded on cmd/agent/main.go's duplex
// device setup.
package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/lokutor-ai/meetbot/pkg/audio"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// MalgoDuplexDevice captures microphone input into a PacedReader and
// drains a PacedWriter's paced output to the speaker, both backed by one
// full-duplex malgo device callback.
type MalgoDuplexDevice struct {
	format meetbot.AudioFormat

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	reader *audio.PacedReader
	writer *audio.PacedWriter

	playbackMu  sync.Mutex
	playbackBuf []byte
}

// NewMalgoDuplexDevice opens the default system capture/playback device at
// the given format and chunk size.
func NewMalgoDuplexDevice(format meetbot.AudioFormat, chunkSize, queueDepth int) (*MalgoDuplexDevice, error) {
	if format.ByteDepth != 2 {
		return nil, &meetbot.IncompatibleAudioFormat{Reason: "malgo device requires 16-bit PCM"}
	}

	d := &MalgoDuplexDevice{format: format}
	d.reader = audio.NewPacedReader(format, chunkSize, queueDepth)
	d.writer = audio.NewPacedWriter(format, chunkSize, queueDepth, d.emit)

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("device: malgo context init: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = uint32(format.SampleRateHz)
	deviceConfig.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: d.onSamples,
	})
	if err != nil {
		malgoCtx.Uninit()
		return nil, fmt.Errorf("device: malgo device init: %w", err)
	}

	d.malgoCtx = malgoCtx
	d.device = dev
	return d, nil
}

func (d *MalgoDuplexDevice) onSamples(pOutput, pInput []byte, _ uint32) {
	if pInput != nil {
		cp := make([]byte, len(pInput))
		copy(cp, pInput)
		d.reader.Push(cp)
	}
	if pOutput != nil {
		d.playbackMu.Lock()
		n := copy(pOutput, d.playbackBuf)
		d.playbackBuf = d.playbackBuf[n:]
		for i := n; i < len(pOutput); i++ {
			pOutput[i] = 0
		}
		d.playbackMu.Unlock()
	}
}

func (d *MalgoDuplexDevice) emit(chunk []byte) {
	d.playbackMu.Lock()
	d.playbackBuf = append(d.playbackBuf, chunk...)
	d.playbackMu.Unlock()
}

// Start begins capture/playback and the writer's pacing loop.
func (d *MalgoDuplexDevice) Start(ctx context.Context) error {
	d.reader.Start()
	d.writer.Start(ctx)
	return d.device.Start()
}

// Close stops the device and releases malgo resources.
func (d *MalgoDuplexDevice) Close() error {
	if err := d.device.Stop(); err != nil {
		d.device.Uninit()
		d.malgoCtx.Uninit()
		return err
	}
	d.device.Uninit()
	return d.malgoCtx.Uninit()
}

// Reader returns the AudioReader half of the device.
func (d *MalgoDuplexDevice) Reader() audio.Reader { return d.reader }

// Writer returns the AudioWriter half of the device.
func (d *MalgoDuplexDevice) Writer() audio.Writer { return d.writer }

// AudioReader/AudioWriter passthrough so MalgoDuplexDevice itself can be
// used wherever a combined device is convenient.

func (d *MalgoDuplexDevice) SampleRateHz() int { return d.reader.SampleRateHz() }
func (d *MalgoDuplexDevice) ByteDepth() int     { return d.reader.ByteDepth() }
func (d *MalgoDuplexDevice) ChunkSize() int     { return d.reader.ChunkSize() }

func (d *MalgoDuplexDevice) Read(ctx context.Context) ([]byte, error) {
	return d.reader.Read(ctx)
}

func (d *MalgoDuplexDevice) Write(ctx context.Context, pcm []byte) error {
	return d.writer.Write(ctx, pcm)
}
