package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

// DeepgramSTT transcribes a whole utterance in one HTTP call to Deepgram's
// prerecorded endpoint. It expects raw 16-bit PCM at sampleRate.
type DeepgramSTT struct {
	apiKey     string
	url        string
	sampleRate int
}

func NewDeepgramSTT(apiKey string, sampleRateHz int) *DeepgramSTT {
	if sampleRateHz == 0 {
		sampleRateHz = 44100
	}
	return &DeepgramSTT{
		apiKey:     apiKey,
		url:        "https://api.deepgram.com/v1/listen",
		sampleRate: sampleRateHz,
	}
}

func (s *DeepgramSTT) Name() string {
	return "deepgram-stt"
}

// Stream buffers one utterance's windows and issues a single Deepgram call.
func (s *DeepgramSTT) Stream(ctx context.Context, windows <-chan meetbot.VADWindow) (<-chan meetbot.TranscriptSegment, <-chan error) {
	format := meetbot.AudioFormat{SampleRateHz: s.sampleRate, ByteDepth: 2}
	return streamFromBatch(ctx, windows, format, "", s)
}

func (s *DeepgramSTT) Transcribe(ctx context.Context, audioPCM []byte, lang string) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}

	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	if lang != "" {
		params.Set("language", lang)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(audioPCM))
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/l16; rate=%d; channels=1", s.sampleRate))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("deepgram error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return result.Results.Channels[0].Alternatives[0].Transcript, nil
}
