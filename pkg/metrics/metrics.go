// Package metrics exposes Prometheus counters and histograms for the
// pipeline's lifecycle events, grounded on
// internal/orchestrator/metrics.go's promauto pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UtterancesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetbot_utterances_started_total",
		Help: "Total utterances entered (Idle -> InUtterance transitions)",
	})

	UtterancesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetbot_utterances_dropped_total",
		Help: "Total speech windows dropped because the STT pool was saturated",
	})

	SegmentsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetbot_transcript_segments_total",
		Help: "Total transcript segments appended, by role",
	}, []string{"role"})

	STTFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetbot_stt_failures_total",
		Help: "Total STT engine failures, by vendor",
	}, []string{"vendor"})

	TTSFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetbot_tts_failures_total",
		Help: "Total TTS engine failures, by vendor",
	}, []string{"vendor"})

	SpeechInterruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetbot_speech_interruptions_total",
		Help: "Total speak_text calls that ended in barge-in",
	})

	BargeInLatencyMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetbot_barge_in_latency_ms",
		Help:    "Latency from gate clear to writer stopping mid-chunk",
		Buckets: prometheus.ExponentialBuckets(5, 1.6, 10),
	})

	ControllerStateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetbot_controller_state_transitions_total",
		Help: "Transcription controller Idle/InUtterance transitions",
	}, []string{"from", "to"})

	TTSFirstAudioMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetbot_tts_first_audio_ms",
		Help:    "Latency from speak_text call to first TTS audio byte",
		Buckets: prometheus.ExponentialBuckets(50, 1.6, 10),
	})
)
