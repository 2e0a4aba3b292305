// Package tts adapts vendor text-to-speech clients to the pipeline's
// streaming Engine contract.
package tts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// LokutorTTS streams synthesized speech over a long-lived websocket
// connection to Lokutor's realtime endpoint.
type LokutorTTS struct {
	apiKey string
	host   string
	scheme string
	voice  string
	lang   string
	format meetbot.AudioFormat

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewLokutorTTS constructs a client for a fixed voice and language; the
// wire format is 24kHz 16-bit PCM, matching Lokutor's versa-1.0 output.
func NewLokutorTTS(apiKey, voice, lang string) *LokutorTTS {
	if voice == "" {
		voice = "default"
	}
	if lang == "" {
		lang = "en"
	}
	return &LokutorTTS{
		apiKey: apiKey,
		host:   "api.lokutor.com",
		scheme: "wss",
		voice:  voice,
		lang:   lang,
		format: meetbot.AudioFormat{SampleRateHz: 24000, ByteDepth: 2},
	}
}

func (t *LokutorTTS) Name() string {
	return "lokutor"
}

// AudioFormat reports the sample rate and byte depth of the PCM this
// engine emits.
func (t *LokutorTTS) AudioFormat() meetbot.AudioFormat {
	return t.format
}

func (t *LokutorTTS) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	u := url.URL{Scheme: t.scheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + t.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lokutor: %w", err)
	}

	t.conn = conn
	return conn, nil
}

// Stream synthesizes text and emits raw PCM chunks as they arrive over the
// websocket, closing both channels when synthesis ends or fails.
func (t *LokutorTTS) Stream(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := t.streamSynthesize(ctx, text, func(chunk []byte) error {
			select {
			case chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}); err != nil {
			errs <- &meetbot.VendorTransient{Vendor: t.Name(), Err: err}
		}
	}()

	return chunks, errs
}

func (t *LokutorTTS) streamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req := map[string]interface{}{
		"text":    text,
		"voice":   t.voice,
		"lang":    t.lang,
		"speed":   1.05,
		"steps":   5,
		"version": "versa-1.0",
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return fmt.Errorf("failed to read from lokutor: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return fmt.Errorf("lokutor error: %s", msg)
			}
		}
	}
}

// Close releases the underlying websocket connection, if any.
func (t *LokutorTTS) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
