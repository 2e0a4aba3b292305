package meetbot

import (
	"context"
	"fmt"
)

// ProviderArgs is an opaque per-component option bag, matching the
// `*_args` configuration dictionaries from §6.
type ProviderArgs map[string]interface{}

// VADFactory builds a Detector from provider args. The interface is
// declared structurally here (rather than importing pkg/vad, which itself
// imports this package's types) so it matches pkg/vad.Detector without an
// import cycle.
type VADFactory func(ProviderArgs) (VADDetector, error)

// VADDetector mirrors pkg/vad.Detector: voice-activity detectors
// implement it and satisfy this interface structurally.
type VADDetector interface {
	AudioFormat() AudioFormat
	WindowSizeSamples() int
	IsSpeech(ctx context.Context, window []byte) (bool, error)
	Reset()
}

// STTFactory builds an STTEngine from provider args.
type STTFactory func(ProviderArgs) (STTEngine, error)

// TTSFactory builds a TTSEngine from provider args.
type TTSFactory func(ProviderArgs) (TTSEngine, error)

// MeetingFactory builds a MeetingController (plus its paired
// reader/writer) from provider args.
type MeetingFactory func(ProviderArgs) (MeetingController, AudioReader, AudioWriter, error)

// Registry is a closed enumeration of named providers per kind, populated
// by explicit Register* calls (see pkg/registry.New) rather than resolved
// by reflective import. This is
// the redesign called for by §9: "resolve(spec) is a lookup, not
// code-importation."
type Registry struct {
	vad     map[string]VADFactory
	stt     map[string]STTFactory
	tts     map[string]TTSFactory
	meeting map[string]MeetingFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		vad:     make(map[string]VADFactory),
		stt:     make(map[string]STTFactory),
		tts:     make(map[string]TTSFactory),
		meeting: make(map[string]MeetingFactory),
	}
}

func (r *Registry) RegisterVAD(name string, f VADFactory)         { r.vad[name] = f }
func (r *Registry) RegisterSTT(name string, f STTFactory)         { r.stt[name] = f }
func (r *Registry) RegisterTTS(name string, f TTSFactory)         { r.tts[name] = f }
func (r *Registry) RegisterMeeting(name string, f MeetingFactory) { r.meeting[name] = f }

func (r *Registry) ResolveVAD(name string, args ProviderArgs) (VADDetector, error) {
	f, ok := r.vad[name]
	if !ok {
		return nil, fmt.Errorf("meetbot: unknown vad provider %q", name)
	}
	return f(args)
}

func (r *Registry) ResolveSTT(name string, args ProviderArgs) (STTEngine, error) {
	f, ok := r.stt[name]
	if !ok {
		return nil, fmt.Errorf("meetbot: unknown stt provider %q", name)
	}
	return f(args)
}

func (r *Registry) ResolveTTS(name string, args ProviderArgs) (TTSEngine, error) {
	f, ok := r.tts[name]
	if !ok {
		return nil, fmt.Errorf("meetbot: unknown tts provider %q", name)
	}
	return f(args)
}

func (r *Registry) ResolveMeeting(name string, args ProviderArgs) (MeetingController, AudioReader, AudioWriter, error) {
	f, ok := r.meeting[name]
	if !ok {
		return nil, nil, nil, fmt.Errorf("meetbot: unknown meeting provider %q", name)
	}
	return f(args)
}
