// Package audio implements paced, bounded AudioReader/AudioWriter
// primitives shared by the meeting pipeline. PCM format conversion and
// duration math live in pkg/meetbot (the dependency-free base package) and
// are re-exported here for callers that only import pkg/audio.
package audio

import "github.com/lokutor-ai/meetbot/pkg/meetbot"

// ConvertFormat converts pcm from src to dst.
func ConvertFormat(pcm []byte, src, dst meetbot.AudioFormat) ([]byte, error) {
	return meetbot.ConvertFormat(pcm, src, dst)
}

// DurationNs returns the duration, in nanoseconds, of a buffer of the
// given number of bytes at format f.
func DurationNs(numBytes int, f meetbot.AudioFormat) int64 {
	return meetbot.DurationNs(numBytes, f)
}

// DurationSeconds returns the duration, in seconds, of a buffer of the
// given number of bytes at format f.
func DurationSeconds(numBytes int, f meetbot.AudioFormat) float64 {
	return meetbot.DurationSeconds(numBytes, f)
}
