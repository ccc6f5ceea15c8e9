package playback

import (
	"fmt"
	"sync"
	"time"
)

const eventBufferSize = 16

// EventKind identifies a status feed event.
type EventKind int

const (
	EventStarted    EventKind = iota // Session started
	EventNowPlaying                  // A track became audible on a lane
	EventPreloaded                   // A track landed in the prefetch cache
	EventSkipped                     // A track was skipped (fetch or playback failure, or user skip)
	EventPaused                      // Session paused
	EventResumed                     // Session resumed
	EventStopped                     // Session stopped by the user
	EventCompleted                   // Queue played to the end
)

// String returns a human-readable representation of the EventKind
func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventNowPlaying:
		return "now playing"
	case EventPreloaded:
		return "preloaded"
	case EventSkipped:
		return "skipped"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Event is a status feed entry. It is meant for display, not for control
// decisions.
type Event struct {
	Kind      EventKind
	SessionID string
	Track     *Track // Track concerned, if any
	Lane      int    // Lane for EventNowPlaying
	Cursor    int
	Err       error // Cause for EventSkipped
	Time      time.Time
}

// String renders the event as a status line.
func (e Event) String() string {
	title := ""
	if e.Track != nil {
		title = e.Track.Title
		if title == "" {
			title = e.Track.ID
		}
	}

	switch e.Kind {
	case EventNowPlaying:
		return fmt.Sprintf("now playing: %s on lane %d", title, e.Lane)
	case EventPreloaded:
		return fmt.Sprintf("preloaded: %s", title)
	case EventSkipped:
		if e.Err != nil {
			return fmt.Sprintf("skipped: %s (%v)", title, e.Err)
		}
		return fmt.Sprintf("skipped: %s", title)
	default:
		return e.Kind.String()
	}
}

// feed fans events out to subscribers. Sends never block: a subscriber
// whose buffer is full misses events.
type feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newFeed() *feed {
	return &feed{subs: make(map[int]chan Event)}
}

// subscribe registers a subscriber and returns its channel and an
// unsubscribe func that closes it.
func (f *feed) subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Event, eventBufferSize)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
}

// publish sends e to every subscriber (non-blocking).
func (f *feed) publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
			// Drop if buffer full
		}
	}
}
