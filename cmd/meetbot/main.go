// Command meetbot joins a conference, transcribes participant speech, and
// lets an external agent process drive replies via the transcript HTTP
// resource and speak_text RPC. Run `meetbot run --help` for flags.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lokutor-ai/meetbot/pkg/config"
	"github.com/lokutor-ai/meetbot/pkg/meetbot"
	"github.com/lokutor-ai/meetbot/pkg/metrics"
	"github.com/lokutor-ai/meetbot/pkg/registry"
	"github.com/lokutor-ai/meetbot/pkg/vad"
)

var (
	version = "dev"

	meetingURL string
	passcode   string
	vadName    string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "meetbot",
		Short: "Real-time meeting transcription and voice-reply bot",
	}
	root.AddCommand(runCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the meetbot version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join a meeting and run the transcription/speech pipeline",
		RunE:  runMeetbot,
	}
	cmd.Flags().StringVar(&meetingURL, "url", "", "meeting URL to join (provider-dependent)")
	cmd.Flags().StringVar(&passcode, "passcode", "", "optional meeting passcode")
	cmd.Flags().StringVar(&vadName, "vad", "hybrid", "vad provider: energy | hybrid")
	return cmd
}

func runMeetbot(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("note: no .env file found, using process environment")
	}
	cfg := config.Load()
	logger := meetbot.NewSlogLogger(nil)

	reg := registry.New()

	format := meetbot.AudioFormat{SampleRateHz: cfg.Audio.SampleRateHz, ByteDepth: cfg.Audio.ByteDepth}
	meetingArgs := meetbot.ProviderArgs{
		"sample_rate_hz": format.SampleRateHz,
		"byte_depth":     format.ByteDepth,
		"chunk_size":     cfg.ChunkSizeBytes(),
		"queue_depth":    cfg.Audio.QueueDepth,
	}
	meeting, reader, writer, err := reg.ResolveMeeting(cfg.Providers.Meeting, meetingArgs)
	if err != nil {
		return fmt.Errorf("meetbot: resolve meeting provider: %w", err)
	}

	sttArgs := meetbot.ProviderArgs{"api_key": vendorKey(cfg, cfg.Providers.STT), "sample_rate_hz": format.SampleRateHz}
	sttEngine, err := reg.ResolveSTT(cfg.Providers.STT, sttArgs)
	if err != nil {
		return fmt.Errorf("meetbot: resolve stt provider: %w", err)
	}

	ttsArgs := meetbot.ProviderArgs{"api_key": cfg.Vendor.LokutorAPIKey, "language": cfg.Session.Language}
	ttsEngine, err := reg.ResolveTTS(cfg.Providers.TTS, ttsArgs)
	if err != nil {
		return fmt.Errorf("meetbot: resolve tts provider: %w", err)
	}

	vadArgs := meetbot.ProviderArgs{"sample_rate_hz": format.SampleRateHz}
	detector, err := reg.ResolveVAD(vadName, vadArgs)
	if err != nil {
		return fmt.Errorf("meetbot: resolve vad provider: %w", err)
	}

	sessCfg := meetbot.DefaultSessionConfig()
	sessCfg.Name = cfg.Session.Name
	sessCfg.Language = cfg.Session.Language
	sessCfg.TranscriptionControl.UtteranceTailSeconds = cfg.Transcription.UtteranceTailSeconds
	sessCfg.TranscriptionControl.MaxSTTTasks = cfg.Transcription.MaxSTTTasks
	sessCfg.TranscriptionControl.WindowQueueSize = cfg.Transcription.WindowQueueSize
	sessCfg.SpeechControl.PrefetchChunks = cfg.Speech.PrefetchChunks

	vadWindows := func(ctx context.Context) (<-chan meetbot.VADWindow, <-chan error) {
		return vad.NewStreamer(reader, detector).Run(ctx)
	}

	session := meetbot.NewSession(sessCfg, meeting, reader, writer, vadWindows, sttEngine, ttsEngine, logger)

	session.AddTranscriptionListener(func(ev meetbot.Event) {
		if ev.Type == meetbot.EventSegment {
			metrics.SegmentsEmitted.WithLabelValues(string(ev.Segment.Role)).Inc()
		}
	})

	session.AddMetricsListener(func(ev meetbot.Event) {
		switch ev.Type {
		case meetbot.EventUtteranceStarted:
			metrics.UtterancesStarted.Inc()
		case meetbot.EventUtteranceDropped:
			metrics.UtterancesDropped.Inc()
		case meetbot.EventControllerState:
			metrics.ControllerStateTransitions.WithLabelValues(ev.From, ev.To).Inc()
		case meetbot.EventSTTFailure:
			metrics.STTFailures.WithLabelValues(ev.Vendor).Inc()
		case meetbot.EventTTSFailure:
			metrics.TTSFailures.WithLabelValues(ev.Vendor).Inc()
		case meetbot.EventBargeIn:
			metrics.SpeechInterruptions.Inc()
			metrics.BargeInLatencyMs.Observe(ev.DurationMs)
		case meetbot.EventTTSFirstAudio:
			metrics.TTSFirstAudioMs.Observe(ev.DurationMs)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := session.JoinMeeting(ctx, meetingURL, cfg.Session.Name, optionalString(passcode)); err != nil {
		return fmt.Errorf("meetbot: join meeting: %w", err)
	}

	srv := newTranscriptServer(cfg.Server.Port, session)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("transcript server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("meetbot: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	_, err = session.LeaveMeeting(shutdownCtx, false)
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

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newTranscriptServer(port string, session *meetbot.Session) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(session.GetTranscript().Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/speak", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, err := session.SpeakText(r.Context(), body.Text)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"result": result, "error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"result": result})
	})
	return &http.Server{Addr: ":" + port, Handler: mux}
}
