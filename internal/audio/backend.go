// Package audio implements the two-lane playback output on top of beep.
//
// Both lanes feed the same speaker mixer. Each lane wraps its decoded
// stream in a beep.Ctrl so it can be paused in place, followed by a
// callback that flags the lane as finished when the stream runs dry.
package audio

import (
	"errors"

	"github.com/gopxl/beep/v2"
)

// ErrUnavailable is returned by backends that cannot produce sound in this
// build.
var ErrUnavailable = errors.New("audio output unavailable")

// Backend is the sound device the lanes are mixed into. Play must not block;
// Lock and Unlock guard streamers that the device is currently pulling from.
type Backend interface {
	Init(sr beep.SampleRate) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
}
