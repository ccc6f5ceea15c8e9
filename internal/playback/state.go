package playback

import (
	"time"

	"github.com/samber/lo"
)

// PlaybackState is the shared state of one playback session.
//
// It carries no lock of its own: the Controller guards every read and
// write with a single mutex so no observer sees a half-applied transition.
type PlaybackState struct {
	Queue      []Track // Tracks in play order
	Cursor     int     // Index of the active track; len(Queue) means exhausted
	ActiveLane int     // Lane the active track plays on
	Running    bool    // Session active
	Paused     bool    // Session paused

	laneTrack [NumLanes]string // Track id loaded on each lane ("" if none)
	advance   bool             // Treat the active lane as finished on the next tick

	// Played-time accounting for the active track
	startTime     time.Time     // When playback started (or resumed)
	pausedAt      time.Time     // When playback was paused (zero if not paused)
	totalPlayTime time.Duration // Accumulated play time before the last resume
}

// newPlaybackState creates the state for a session starting at cursor.
func newPlaybackState(queue []Track, cursor int) PlaybackState {
	return PlaybackState{
		Queue:   append([]Track(nil), queue...),
		Cursor:  cursor,
		Running: true,
	}
}

// Exhausted reports whether the cursor has reached the end of the queue.
func (s *PlaybackState) Exhausted() bool {
	return s.Cursor >= len(s.Queue)
}

// Current returns the active track, or nil when idle or exhausted.
func (s *PlaybackState) Current() *Track {
	if !s.Running || s.Exhausted() {
		return nil
	}
	t := s.Queue[s.Cursor]
	return &t
}

// State returns the session state implied by Running and Paused.
func (s *PlaybackState) State() State {
	switch {
	case !s.Running:
		return StateIdle
	case s.Paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// upcoming returns up to n tracks after the cursor.
func (s *PlaybackState) upcoming(n int) []Track {
	from := s.Cursor + 1
	if from >= len(s.Queue) || n <= 0 {
		return nil
	}
	to := min(from+n, len(s.Queue))
	return s.Queue[from:to]
}

// loaded reports whether id is the track loaded on either lane.
func (s *PlaybackState) loaded(id string) bool {
	return lo.Contains(s.laneTrack[:], id)
}

// wants reports whether a freshly fetched buffer for id should be cached:
// it is within the preload window, or it is the active track and the active
// lane has not started it yet.
func (s *PlaybackState) wants(id string, ahead int) bool {
	if !s.Running || s.Exhausted() {
		return false
	}
	if lo.ContainsBy(s.upcoming(ahead), func(t Track) bool { return t.ID == id }) {
		return !s.loaded(id)
	}
	return s.Queue[s.Cursor].ID == id && s.laneTrack[s.ActiveLane] != id
}

// trackStarted resets played-time accounting for a new active track.
func (s *PlaybackState) trackStarted(now time.Time) {
	s.startTime = now
	s.totalPlayTime = 0
	s.pausedAt = time.Time{}
	if s.Paused {
		s.pausedAt = now
	}
}

// markPaused records the pause instant if not already paused.
func (s *PlaybackState) markPaused(now time.Time) {
	if s.pausedAt.IsZero() && !s.startTime.IsZero() {
		s.pausedAt = now
	}
}

// markResumed folds the time played before the pause into the total.
func (s *PlaybackState) markResumed(now time.Time) {
	if s.pausedAt.IsZero() {
		return
	}
	s.totalPlayTime += s.pausedAt.Sub(s.startTime)
	s.startTime = now
	s.pausedAt = time.Time{}
}

// playedDuration returns the time the active track has been audible,
// excluding pauses.
func (s *PlaybackState) playedDuration(now time.Time) time.Duration {
	if s.startTime.IsZero() {
		return s.totalPlayTime
	}
	if !s.pausedAt.IsZero() {
		return s.totalPlayTime + s.pausedAt.Sub(s.startTime)
	}
	return s.totalPlayTime + now.Sub(s.startTime)
}
