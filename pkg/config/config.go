// Package config loads the bot's runtime configuration from environment
// variables (and an optional .env file), grounded on
// internal/config/config.go's viper SetDefault/BindEnv pattern.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the full configuration surface described by §6: session
// defaults, controller tunables, and vendor credentials/selection.
type Config struct {
	Session struct {
		Name     string
		Language string
	}
	Transcription struct {
		UtteranceTailSeconds float64
		MaxSTTTasks          int
		WindowQueueSize      int
	}
	Speech struct {
		PrefetchChunks int
	}
	Audio struct {
		SampleRateHz int
		ByteDepth    int
		ChunkMs      int
		QueueDepth   int
	}
	Providers struct {
		Meeting string
		STT     string
		TTS     string
	}
	Vendor struct {
		GroqAPIKey       string
		OpenAIAPIKey     string
		AnthropicAPIKey  string
		GoogleAPIKey     string
		DeepgramAPIKey   string
		AssemblyAIAPIKey string
		LokutorAPIKey    string
	}
	Server struct {
		Port     string
		LogLevel string
	}
}

// Load reads configuration from the process environment, applying the
// spec's documented defaults where a value is unset.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("session.name", "joinly")
	v.SetDefault("session.language", "en")

	v.SetDefault("transcription.utterance_tail_seconds", 0.6)
	v.SetDefault("transcription.max_stt_tasks", 5)
	v.SetDefault("transcription.window_queue_size", 100)

	v.SetDefault("speech.prefetch_chunks", 2)

	v.SetDefault("audio.sample_rate_hz", 16000)
	v.SetDefault("audio.byte_depth", 2)
	v.SetDefault("audio.chunk_ms", 20)
	v.SetDefault("audio.queue_depth", 100)

	v.SetDefault("providers.meeting", "loopback")
	v.SetDefault("providers.stt", "groq")
	v.SetDefault("providers.tts", "lokutor")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.log_level", "info")

	v.BindEnv("session.name", "MEETBOT_NAME")
	v.BindEnv("session.language", "MEETBOT_LANGUAGE")

	v.BindEnv("transcription.utterance_tail_seconds", "MEETBOT_UTTERANCE_TAIL_SECONDS")
	v.BindEnv("transcription.max_stt_tasks", "MEETBOT_MAX_STT_TASKS")
	v.BindEnv("transcription.window_queue_size", "MEETBOT_WINDOW_QUEUE_SIZE")

	v.BindEnv("speech.prefetch_chunks", "MEETBOT_PREFETCH_CHUNKS")

	v.BindEnv("audio.sample_rate_hz", "MEETBOT_SAMPLE_RATE_HZ")
	v.BindEnv("audio.byte_depth", "MEETBOT_BYTE_DEPTH")
	v.BindEnv("audio.chunk_ms", "MEETBOT_CHUNK_MS")
	v.BindEnv("audio.queue_depth", "MEETBOT_QUEUE_DEPTH")

	v.BindEnv("providers.meeting", "MEETBOT_MEETING_PROVIDER")
	v.BindEnv("providers.stt", "MEETBOT_STT_PROVIDER")
	v.BindEnv("providers.tts", "MEETBOT_TTS_PROVIDER")

	v.BindEnv("vendor.groq_api_key", "GROQ_API_KEY")
	v.BindEnv("vendor.openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("vendor.anthropic_api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("vendor.google_api_key", "GOOGLE_API_KEY")
	v.BindEnv("vendor.deepgram_api_key", "DEEPGRAM_API_KEY")
	v.BindEnv("vendor.assemblyai_api_key", "ASSEMBLYAI_API_KEY")
	v.BindEnv("vendor.lokutor_api_key", "LOKUTOR_API_KEY")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	var c Config
	c.Session.Name = v.GetString("session.name")
	c.Session.Language = v.GetString("session.language")

	c.Transcription.UtteranceTailSeconds = v.GetFloat64("transcription.utterance_tail_seconds")
	c.Transcription.MaxSTTTasks = v.GetInt("transcription.max_stt_tasks")
	c.Transcription.WindowQueueSize = v.GetInt("transcription.window_queue_size")

	c.Speech.PrefetchChunks = v.GetInt("speech.prefetch_chunks")

	c.Audio.SampleRateHz = v.GetInt("audio.sample_rate_hz")
	c.Audio.ByteDepth = v.GetInt("audio.byte_depth")
	c.Audio.ChunkMs = v.GetInt("audio.chunk_ms")
	c.Audio.QueueDepth = v.GetInt("audio.queue_depth")

	c.Providers.Meeting = v.GetString("providers.meeting")
	c.Providers.STT = v.GetString("providers.stt")
	c.Providers.TTS = v.GetString("providers.tts")

	c.Vendor.GroqAPIKey = v.GetString("vendor.groq_api_key")
	c.Vendor.OpenAIAPIKey = v.GetString("vendor.openai_api_key")
	c.Vendor.AnthropicAPIKey = v.GetString("vendor.anthropic_api_key")
	c.Vendor.GoogleAPIKey = v.GetString("vendor.google_api_key")
	c.Vendor.DeepgramAPIKey = v.GetString("vendor.deepgram_api_key")
	c.Vendor.AssemblyAIAPIKey = v.GetString("vendor.assemblyai_api_key")
	c.Vendor.LokutorAPIKey = v.GetString("vendor.lokutor_api_key")

	c.Server.Port = v.GetString("server.port")
	c.Server.LogLevel = v.GetString("server.log_level")

	return c
}

// ChunkSizeBytes returns the per-chunk byte size implied by ChunkMs at the
// configured sample rate and byte depth.
func (c Config) ChunkSizeBytes() int {
	samples := c.Audio.SampleRateHz * c.Audio.ChunkMs / 1000
	return samples * c.Audio.ByteDepth
}
