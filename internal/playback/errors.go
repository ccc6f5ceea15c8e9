package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQueue is returned by Start when no tracks are given.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrIndexOutOfRange is returned by Start for an invalid start index.
	ErrIndexOutOfRange = errors.New("start index out of range")

	// ErrInvalidState is matched by every *StateError.
	ErrInvalidState = errors.New("invalid state for command")
)

// FetchErrorKind classifies fetch failures.
type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota // Transport failure or timeout
	FetchServer                        // Non-success response status
	FetchDecode                        // Payload is not decodable audio
)

// String returns a human-readable representation of the FetchErrorKind
func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchServer:
		return "server"
	case FetchDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError reports a failure to retrieve a track's audio.
type FetchError struct {
	TrackID    string
	Kind       FetchErrorKind
	StatusCode int // Set for FetchServer
	Err        error
}

// Error returns the error message.
func (e *FetchError) Error() string {
	if e.Kind == FetchServer && e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: server error (status %d): %v", e.TrackID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.TrackID, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// PlaybackError reports that the output rejected a buffer.
type PlaybackError struct {
	Lane    int
	TrackID string
	Err     error
}

// Error returns the error message.
func (e *PlaybackError) Error() string {
	return fmt.Sprintf("play %s on lane %d: %v", e.TrackID, e.Lane, e.Err)
}

// Unwrap returns the underlying error.
func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// StateError reports a command issued in a state where it has no effect.
// The command is a no-op; the error is informational.
type StateError struct {
	Op    string
	State State
}

// Error returns the error message.
func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

// Unwrap returns ErrInvalidState so errors.Is works for every StateError.
func (e *StateError) Unwrap() error {
	return ErrInvalidState
}
