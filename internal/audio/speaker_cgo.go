//go:build (linux && cgo) || windows || darwin

package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether the speaker backend can produce sound in
// this build.
const AudioAvailable = true

// SpeakerBackend plays through the system speaker.
type SpeakerBackend struct{}

// NewSpeakerBackend returns the system speaker backend.
func NewSpeakerBackend() *SpeakerBackend {
	return &SpeakerBackend{}
}

// Init opens the speaker with a 100ms buffer.
func (SpeakerBackend) Init(sr beep.SampleRate) error {
	return speaker.Init(sr, sr.N(time.Second/10))
}

func (SpeakerBackend) Play(s beep.Streamer) { speaker.Play(s) }
func (SpeakerBackend) Lock()                { speaker.Lock() }
func (SpeakerBackend) Unlock()              { speaker.Unlock() }
