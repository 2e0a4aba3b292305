// Command localmic runs the session pipeline against the local machine's
// microphone and speakers instead of a conferencing provider, for manual
// testing without a meeting to join.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lokutor-ai/meetbot/pkg/config"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
	"github.com/lokutor-ai/meetbot/pkg/registry"
	"github.com/lokutor-ai/meetbot/pkg/vad"
)

func main() {
	cmd := &cobra.Command{
		Use:   "localmic",
		Short: "Run the meetbot pipeline against the local microphone and speakers",
		RunE:  run,
	}
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("note: no .env file found, using process environment")
	}
	cfg := config.Load()
	logger := meetbot.NewSlogLogger(nil)

	reg := registry.New()
	format := meetbot.AudioFormat{SampleRateHz: cfg.Audio.SampleRateHz, ByteDepth: cfg.Audio.ByteDepth}

	meeting, reader, writer, err := reg.ResolveMeeting("malgo", meetbot.ProviderArgs{
		"sample_rate_hz": format.SampleRateHz,
		"byte_depth":     format.ByteDepth,
		"chunk_size":     cfg.ChunkSizeBytes(),
		"queue_depth":    cfg.Audio.QueueDepth,
	})
	if err != nil {
		return fmt.Errorf("localmic: open audio device: %w", err)
	}

	sttEngine, err := reg.ResolveSTT(cfg.Providers.STT, meetbot.ProviderArgs{
		"api_key":        vendorKey(cfg, cfg.Providers.STT),
		"sample_rate_hz": format.SampleRateHz,
	})
	if err != nil {
		return fmt.Errorf("localmic: resolve stt provider: %w", err)
	}

	ttsEngine, err := reg.ResolveTTS(cfg.Providers.TTS, meetbot.ProviderArgs{
		"api_key":  cfg.Vendor.LokutorAPIKey,
		"language": cfg.Session.Language,
	})
	if err != nil {
		return fmt.Errorf("localmic: resolve tts provider: %w", err)
	}

	detector, err := reg.ResolveVAD("hybrid", meetbot.ProviderArgs{"sample_rate_hz": format.SampleRateHz})
	if err != nil {
		return fmt.Errorf("localmic: resolve vad provider: %w", err)
	}

	sessCfg := meetbot.DefaultSessionConfig()
	sessCfg.Name = cfg.Session.Name
	sessCfg.Language = cfg.Session.Language

	vadWindows := func(ctx context.Context) (<-chan meetbot.VADWindow, <-chan error) {
		return vad.NewStreamer(reader, detector).Run(ctx)
	}

	session := meetbot.NewSession(sessCfg, meeting, reader, writer, vadWindows, sttEngine, ttsEngine, logger)

	session.AddTranscriptionListener(func(ev meetbot.Event) {
		if ev.Type == meetbot.EventSegment {
			fmt.Printf("[%s] %s\n", ev.Segment.Role, ev.Segment.Text)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := session.JoinMeeting(ctx, "local", cfg.Session.Name, nil); err != nil {
		return fmt.Errorf("localmic: start device: %w", err)
	}

	fmt.Println("localmic: listening, press Ctrl+C to stop")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	_, err = session.LeaveMeeting(context.Background(), true)
	return err
}

func vendorKey(cfg config.Config, provider string) string {
	switch provider {
	case "groq":
		return cfg.Vendor.GroqAPIKey
	case "openai":
		return cfg.Vendor.OpenAIAPIKey
	case "deepgram":
		return cfg.Vendor.DeepgramAPIKey
	case "assemblyai":
		return cfg.Vendor.AssemblyAIAPIKey
	default:
		return ""
	}
}
