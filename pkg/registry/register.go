// Package registry builds the closed provider registry described by §9:
// a lookup populated by New, never a reflective/dynamic import.
package registry

import (
	"fmt"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
	"github.com/lokutor-ai/meetbot/pkg/providers/meeting"
	"github.com/lokutor-ai/meetbot/pkg/providers/stt"
	"github.com/lokutor-ai/meetbot/pkg/providers/tts"
	"github.com/lokutor-ai/meetbot/pkg/vad"
)

func stringArg(args meetbot.ProviderArgs, key, def string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func intArg(args meetbot.ProviderArgs, key string, def int) int {
	if v, ok := args[key]; ok {
		if n, ok := v.(int); ok && n != 0 {
			return n
		}
	}
	return def
}

func floatArg(args meetbot.ProviderArgs, key string, def float64) float64 {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok && f != 0 {
			return f
		}
	}
	return def
}

func formatArg(args meetbot.ProviderArgs) meetbot.AudioFormat {
	return meetbot.AudioFormat{
		SampleRateHz: intArg(args, "sample_rate_hz", 16000),
		ByteDepth:    intArg(args, "byte_depth", 2),
	}
}

// New builds a registry with every vendor adapter this module ships
// registered under its vendor name.
func New() *meetbot.Registry {
	r := meetbot.NewRegistry()

	r.RegisterVAD("energy", func(args meetbot.ProviderArgs) (meetbot.VADDetector, error) {
		return vad.NewEnergyDetector(
			intArg(args, "sample_rate_hz", 16000),
			intArg(args, "window_ms", 20),
			vad.Aggressiveness(intArg(args, "aggressiveness", int(vad.AggressivenessMedium))),
		)
	})
	r.RegisterVAD("hybrid", func(args meetbot.ProviderArgs) (meetbot.VADDetector, error) {
		cheap, err := vad.NewEnergyDetector(
			intArg(args, "sample_rate_hz", 16000),
			intArg(args, "window_ms", 20),
			vad.Aggressiveness(intArg(args, "aggressiveness", int(vad.AggressivenessMedium))),
		)
		if err != nil {
			return nil, err
		}
		accurate, err := vad.NewNeuralDetector(
			intArg(args, "sample_rate_hz", 16000),
			floatArg(args, "threshold", 0.5),
			vad.NewEnergyBackend(),
		)
		if err != nil {
			return nil, err
		}
		return vad.NewHybridDetector(cheap, accurate), nil
	})

	r.RegisterSTT("groq", func(args meetbot.ProviderArgs) (meetbot.STTEngine, error) {
		key := stringArg(args, "api_key", "")
		if key == "" {
			return nil, fmt.Errorf("registry: groq stt requires api_key")
		}
		return stt.NewGroqSTT(key, stringArg(args, "model", "")), nil
	})
	r.RegisterSTT("openai", func(args meetbot.ProviderArgs) (meetbot.STTEngine, error) {
		key := stringArg(args, "api_key", "")
		if key == "" {
			return nil, fmt.Errorf("registry: openai stt requires api_key")
		}
		return stt.NewOpenAISTT(key, stringArg(args, "model", "")), nil
	})
	r.RegisterSTT("deepgram", func(args meetbot.ProviderArgs) (meetbot.STTEngine, error) {
		key := stringArg(args, "api_key", "")
		if key == "" {
			return nil, fmt.Errorf("registry: deepgram stt requires api_key")
		}
		return stt.NewDeepgramSTT(key, intArg(args, "sample_rate_hz", 44100)), nil
	})
	r.RegisterSTT("assemblyai", func(args meetbot.ProviderArgs) (meetbot.STTEngine, error) {
		key := stringArg(args, "api_key", "")
		if key == "" {
			return nil, fmt.Errorf("registry: assemblyai stt requires api_key")
		}
		return stt.NewAssemblyAISTT(key, intArg(args, "sample_rate_hz", 44100)), nil
	})

	r.RegisterTTS("lokutor", func(args meetbot.ProviderArgs) (meetbot.TTSEngine, error) {
		key := stringArg(args, "api_key", "")
		if key == "" {
			return nil, fmt.Errorf("registry: lokutor tts requires api_key")
		}
		return tts.NewLokutorTTS(key, stringArg(args, "voice", ""), stringArg(args, "language", "")), nil
	})

	r.RegisterMeeting("loopback", func(args meetbot.ProviderArgs) (meetbot.MeetingController, meetbot.AudioReader, meetbot.AudioWriter, error) {
		format := formatArg(args)
		chunkSize := intArg(args, "chunk_size", format.SampleRateHz*20/1000*format.ByteDepth)
		queueDepth := intArg(args, "queue_depth", 100)
		ctrl := meeting.NewLoopbackMeetingController(format, chunkSize, queueDepth)
		return ctrl, ctrl.Reader, ctrl.Writer, nil
	})
	r.RegisterMeeting("malgo", func(args meetbot.ProviderArgs) (meetbot.MeetingController, meetbot.AudioReader, meetbot.AudioWriter, error) {
		format := formatArg(args)
		chunkSize := intArg(args, "chunk_size", format.SampleRateHz*20/1000*format.ByteDepth)
		queueDepth := intArg(args, "queue_depth", 100)
		ctrl, err := meeting.NewMalgoMeetingProvider(format, chunkSize, queueDepth)
		if err != nil {
			return nil, nil, nil, err
		}
		return ctrl, ctrl.Reader(), ctrl.Writer(), nil
	})

	return r
}
