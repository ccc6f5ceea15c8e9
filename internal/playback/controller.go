package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Options configures a Controller.
type Options struct {
	MonitorInterval time.Duration // How often the transition monitor polls the active lane
	PreloadInterval time.Duration // How often the preloader re-checks the cache
	PreloadAhead    int           // Tracks after the cursor to keep cached
	PrefetchWait    time.Duration // How long a transition waits for an in-flight prefetch (0 disables)
}

// DefaultOptions returns the default controller options.
func DefaultOptions() Options {
	return Options{
		MonitorInterval: 50 * time.Millisecond,
		PreloadInterval: 2 * time.Second,
		PreloadAhead:    1,
		PrefetchWait:    time.Second,
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MonitorInterval <= 0 {
		o.MonitorInterval = d.MonitorInterval
	}
	if o.PreloadInterval <= 0 {
		o.PreloadInterval = d.PreloadInterval
	}
	if o.PreloadAhead <= 0 {
		o.PreloadAhead = d.PreloadAhead
	}
	if o.PrefetchWait < 0 {
		o.PrefetchWait = 0
	}
	return o
}

// Status is a consistent snapshot of the controller.
type Status struct {
	State      State
	SessionID  string
	Track      *Track
	Cursor     int
	QueueLen   int
	ActiveLane int
	Elapsed    time.Duration
}

// session holds the background activities of one Start..Stop lifetime.
type session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// Controller is the queue state machine. It starts sessions, accepts user
// commands, and owns the preloader and transition monitor goroutines.
type Controller struct {
	fetcher Fetcher
	output  Output
	cache   *Cache
	opts    Options
	logger  zerolog.Logger
	feed    *feed
	now     func() time.Time

	// cmdMu serializes Start and Stop, which block on fetches and joins
	cmdMu sync.Mutex

	mu       sync.Mutex
	state    PlaybackState
	session  *session
	inflight map[string]struct{} // Track ids the preloader is fetching
	attempts map[string]int      // Failed preload attempts per track id
}

// NewController creates a Controller over the given fetcher and output.
func NewController(fetcher Fetcher, output Output, opts Options, logger zerolog.Logger) *Controller {
	return &Controller{
		fetcher:  fetcher,
		output:   output,
		cache:    NewCache(),
		opts:     opts.withDefaults(),
		logger:   logger.With().Str("component", "controller").Logger(),
		feed:     newFeed(),
		now:      time.Now,
		inflight: make(map[string]struct{}),
		attempts: make(map[string]int),
	}
}

// Subscribe returns a channel of status events and a func that ends the
// subscription and closes the channel.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.feed.subscribe()
}

// Cache returns the prefetch cache.
func (c *Controller) Cache() *Cache {
	return c.cache
}

// Start begins a session playing tracks from startIndex on lane 0 and
// launches the preloader and transition monitor.
//
// Start fails with *StateError if a session is already active. If the first
// track cannot be fetched or played the session still starts and the
// monitor skips it on its first tick.
func (c *Controller) Start(tracks []Track, startIndex int) error {
	if len(tracks) == 0 {
		return ErrEmptyQueue
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, startIndex, len(tracks))
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	if c.state.Running {
		st := c.state.State()
		c.mu.Unlock()
		return &StateError{Op: "start", State: st}
	}
	prev := c.session
	c.mu.Unlock()

	// A session that completed naturally may still be unwinding
	if prev != nil {
		prev.cancel()
		prev.wg.Wait()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		logger: c.logger.With().Str("session", id).Logger(),
	}

	c.mu.Lock()
	c.state = newPlaybackState(tracks, startIndex)
	c.session = sess
	clear(c.inflight)
	clear(c.attempts)
	c.mu.Unlock()
	c.cache.Clear()

	sess.logger.Info().
		Int("tracks", len(tracks)).
		Int("start", startIndex).
		Strs("queue", lo.Map(tracks, func(t Track, _ int) string { return t.ID })).
		Msg("Starting gapless playback")
	c.publish(sess, Event{Kind: EventStarted, Cursor: startIndex})

	first := tracks[startIndex]
	buf, err := c.fetcher.Fetch(ctx, first.ID)
	switch {
	case ctx.Err() != nil:
		// Stopped while fetching; Stop finishes the teardown
		sess.logger.Debug().Str("track", first.ID).Msg("Start interrupted")
		return nil
	case err != nil:
		c.skipFailed(sess, first, startIndex, err)
	default:
		c.mu.Lock()
		c.playLocked(sess, first, 0, buf)
		c.mu.Unlock()
	}

	sess.wg.Add(2)
	go func() {
		defer sess.wg.Done()
		c.runPreloader(sess)
	}()
	go func() {
		defer sess.wg.Done()
		c.runMonitor(sess)
	}()

	return nil
}

// Pause pauses both lanes, keeping position. Preloading continues; the
// transition monitor is gated off until Resume.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.state.State(); st != StatePlaying {
		return &StateError{Op: "pause", State: st}
	}

	c.state.Paused = true
	c.output.PauseAll()
	c.state.markPaused(c.now())

	c.publishLocked(Event{Kind: EventPaused})
	return nil
}

// Resume resumes exactly the lanes that were playing before Pause.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.state.State(); st != StatePaused {
		return &StateError{Op: "resume", State: st}
	}

	c.state.Paused = false
	c.output.ResumeAll()
	c.state.markResumed(c.now())

	c.publishLocked(Event{Kind: EventResumed})
	return nil
}

// Skip asks the transition monitor to end the active track on its next
// tick as if it had finished.
func (c *Controller) Skip() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.state.State(); st != StatePlaying {
		return &StateError{Op: "skip", State: st}
	}

	c.state.advance = true
	return nil
}

// Stop ends the session from any state. It halts and joins both background
// activities, stops both lanes, and clears the cache and queue state.
// Stopping an idle controller is a no-op.
func (c *Controller) Stop() {
	// Interrupt a Start blocked on its first fetch
	c.mu.Lock()
	if c.session != nil {
		c.session.cancel()
	}
	c.mu.Unlock()

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	sess := c.session
	wasRunning := c.state.Running
	c.state.Running = false
	c.mu.Unlock()

	if sess == nil {
		return
	}

	sess.cancel()
	sess.wg.Wait()
	c.teardown()

	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if wasRunning {
		sess.logger.Info().Msg("Playback stopped")
		c.publish(sess, Event{Kind: EventStopped})
	}
}

// Wait blocks until the current session ends, either by Stop or by
// playing the queue to completion, or until ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sess.ctx.Done():
		return nil
	}
}

// CurrentTrack returns the active track, or nil when idle.
func (c *Controller) CurrentTrack() *Track {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Current()
}

// State returns the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.State()
}

// Elapsed returns how long the active track has been audible, excluding
// pauses.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Running {
		return 0
	}
	return c.state.playedDuration(c.now())
}

// Status returns a consistent snapshot of the session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:      c.state.State(),
		Track:      c.state.Current(),
		Cursor:     c.state.Cursor,
		QueueLen:   len(c.state.Queue),
		ActiveLane: c.state.ActiveLane,
	}
	if c.session != nil && c.state.Running {
		st.SessionID = c.session.id
		st.Elapsed = c.state.playedDuration(c.now())
	}
	return st
}

// playLocked hands buf to lane and records it as the active track. On a
// playback error the track is marked for skipping. Must be called with
// c.mu held.
func (c *Controller) playLocked(sess *session, track Track, lane int, buf *AudioBuffer) bool {
	if err := c.output.Play(lane, buf); err != nil {
		c.state.advance = true
		sess.logger.Warn().
			Err(err).
			Str("track", track.ID).
			Int("lane", lane).
			Msg("Output rejected track, skipping")
		c.publishLocked(Event{Kind: EventSkipped, Track: &track, Cursor: c.state.Cursor, Err: err})
		return false
	}

	c.state.laneTrack[lane] = track.ID
	c.state.trackStarted(c.now())

	// A stray prefetched copy must not outlive the hand-off
	c.cache.Take(track.ID)

	// Paused while the buffer was being obtained
	if c.state.Paused {
		c.output.PauseAll()
	}

	sess.logger.Info().
		Str("track", track.ID).
		Str("title", track.Title).
		Str("artist", track.Artist).
		Int("lane", lane).
		Int("cursor", c.state.Cursor).
		Msg("Now playing")
	c.publishLocked(Event{Kind: EventNowPlaying, Track: &track, Lane: lane, Cursor: c.state.Cursor})
	return true
}

// skipFailed marks track for skipping after its buffer could not be obtained.
func (c *Controller) skipFailed(sess *session, track Track, cursor int, err error) {
	sess.logger.Warn().
		Err(err).
		Str("track", track.ID).
		Int("cursor", cursor).
		Msg("Failed to load track, skipping")

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.advance = true
	c.publishLocked(Event{Kind: EventSkipped, Track: &track, Cursor: cursor, Err: err})
}

// teardown stops both lanes and drops all session state.
func (c *Controller) teardown() {
	c.output.StopAll()
	c.cache.Clear()

	c.mu.Lock()
	c.state = PlaybackState{}
	clear(c.inflight)
	clear(c.attempts)
	c.mu.Unlock()
}

// publish stamps e with the session and sends it to subscribers.
func (c *Controller) publish(sess *session, e Event) {
	e.SessionID = sess.id
	if e.Time.IsZero() {
		e.Time = c.now()
	}
	c.feed.publish(e)
}

// publishLocked is publish for callers holding c.mu.
func (c *Controller) publishLocked(e Event) {
	if c.session != nil {
		e.SessionID = c.session.id
	}
	e.Time = c.now()
	c.feed.publish(e)
}
