// Package playback implements the gapless playback engine: a queue of
// independently fetched tracks played back to back on two alternating
// output lanes, with upcoming tracks prefetched in the background.
package playback

import (
	"context"
	"time"
)

// Track is an immutable descriptor of a playable track. Identity is ID.
type Track struct {
	ID       string        // Server-side track identifier
	Title    string        // Track title
	Artist   string        // Artist name
	Duration time.Duration // Advertised duration (informational)
}

// AudioBuffer is an encoded, decodable audio payload for one track.
//
// A buffer has exactly one owner at a time: the prefetch cache or the lane
// playing it. Ownership moves on hand-off and the payload is never mutated.
type AudioBuffer struct {
	TrackID string
	Data    []byte
}

// Size returns the payload size in bytes.
func (b *AudioBuffer) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Fetcher retrieves the audio payload for a track from the remote source.
//
// Implementations bound the call with a timeout and report failures as
// *FetchError. They do not retry.
type Fetcher interface {
	Fetch(ctx context.Context, trackID string) (*AudioBuffer, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, trackID string) (*AudioBuffer, error)

// Fetch calls f(ctx, trackID).
func (f FetcherFunc) Fetch(ctx context.Context, trackID string) (*AudioBuffer, error) {
	return f(ctx, trackID)
}

// NumLanes is the number of output lanes. Lanes are indexed 0 and 1.
const NumLanes = 2

// LaneState is the playback state of a single output lane.
type LaneState int

const (
	LaneIdle    LaneState = iota // Nothing loaded, or the buffer played to completion
	LanePlaying                  // Audible and advancing
	LanePaused                   // Loaded, position held
)

// String returns a human-readable representation of the LaneState
func (s LaneState) String() string {
	switch s {
	case LaneIdle:
		return "idle"
	case LanePlaying:
		return "playing"
	case LanePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Output is the dual-lane audio output the engine drives.
//
// Play hands a buffer to a lane and must return quickly; decoding failures
// are reported as *PlaybackError. IsFinished reports true once the lane's
// buffer has played to completion, never merely because it is paused.
// PauseAll pauses every playing lane keeping its position, and ResumeAll
// resumes exactly the lanes that are paused. Stop and StopAll discard
// position and return lanes to idle.
type Output interface {
	Play(lane int, buf *AudioBuffer) error
	IsFinished(lane int) bool
	LaneState(lane int) LaneState
	Stop(lane int)
	PauseAll()
	ResumeAll()
	StopAll()
}

// State is the state of a playback session.
type State int

const (
	StateIdle    State = iota // No session
	StatePlaying              // Session active and audible
	StatePaused               // Session active, lanes paused
)

// String returns a human-readable representation of the State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
