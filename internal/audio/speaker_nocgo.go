//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"github.com/gopxl/beep/v2"
)

// AudioAvailable indicates whether the speaker backend can produce sound in
// this build. Audio requires cgo for native sound libraries on linux.
const AudioAvailable = false

// SpeakerBackend is a stub for builds without native audio. Init always
// fails so playback reports a clear error instead of staying silent.
type SpeakerBackend struct{}

// NewSpeakerBackend returns the stub speaker backend.
func NewSpeakerBackend() *SpeakerBackend {
	return &SpeakerBackend{}
}

func (SpeakerBackend) Init(beep.SampleRate) error { return ErrUnavailable }
func (SpeakerBackend) Play(beep.Streamer)         {}
func (SpeakerBackend) Lock()                      {}
func (SpeakerBackend) Unlock()                    {}
