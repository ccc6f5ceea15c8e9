package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeOutput is an Output whose lanes only finish when a test says so.
type fakeOutput struct {
	mu     sync.Mutex
	lanes  [NumLanes]fakeLane
	plays  []fakePlay
	reject map[string]bool
}

type fakeLane struct {
	trackID  string
	state    LaneState
	finished bool
}

type fakePlay struct {
	lane    int
	trackID string
}

func newFakeOutput() *fakeOutput {
	return &fakeOutput{reject: make(map[string]bool)}
}

func (o *fakeOutput) Play(lane int, buf *AudioBuffer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.reject[buf.TrackID] {
		return &PlaybackError{Lane: lane, TrackID: buf.TrackID, Err: errors.New("malformed audio")}
	}
	o.lanes[lane] = fakeLane{trackID: buf.TrackID, state: LanePlaying}
	o.plays = append(o.plays, fakePlay{lane: lane, trackID: buf.TrackID})
	return nil
}

func (o *fakeOutput) IsFinished(lane int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lanes[lane].finished
}

func (o *fakeOutput) LaneState(lane int) LaneState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lanes[lane].state
}

func (o *fakeOutput) Stop(lane int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lanes[lane] = fakeLane{}
}

func (o *fakeOutput) PauseAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.lanes {
		if o.lanes[i].state == LanePlaying {
			o.lanes[i].state = LanePaused
		}
	}
}

func (o *fakeOutput) ResumeAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.lanes {
		if o.lanes[i].state == LanePaused {
			o.lanes[i].state = LanePlaying
		}
	}
}

func (o *fakeOutput) StopAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lanes = [NumLanes]fakeLane{}
}

// finish simulates the lane's buffer playing to completion.
func (o *fakeOutput) finish(lane int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lanes[lane].state = LaneIdle
	o.lanes[lane].finished = true
}

// laneTrack returns the track id loaded on lane.
func (o *fakeOutput) laneTrack(lane int) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lanes[lane].trackID
}

func (o *fakeOutput) playLog() []fakePlay {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]fakePlay(nil), o.plays...)
}

// fakeFetcher serves every track id unless told to fail or stall.
type fakeFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	fail   map[string]bool
	delay  map[string]time.Duration
	active int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
		delay: make(map[string]time.Duration),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (*AudioBuffer, error) {
	f.mu.Lock()
	f.calls[id]++
	f.active++
	delay := f.delay[id]
	fail := f.fail[id]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, &FetchError{TrackID: id, Kind: FetchNetwork, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	if fail {
		return nil, &FetchError{TrackID: id, Kind: FetchServer, StatusCode: 503, Err: errors.New("unavailable")}
	}
	return &AudioBuffer{TrackID: id, Data: []byte("audio:" + id)}, nil
}

func (f *fakeFetcher) setFail(id string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[id] = fail
}

func (f *fakeFetcher) setDelay(id string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay[id] = d
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFetcher) inProgress() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// eventLog records every event published to a subscription.
type eventLog struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
}

func recordEvents(t *testing.T, c *Controller) *eventLog {
	t.Helper()

	ch, unsubscribe := c.Subscribe()
	l := &eventLog{done: make(chan struct{})}
	go func() {
		defer close(l.done)
		for e := range ch {
			l.mu.Lock()
			l.events = append(l.events, e)
			l.mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		unsubscribe()
		<-l.done
	})
	return l
}

func (l *eventLog) kinds(kind EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestController(t *testing.T, fetcher Fetcher, output Output, opts Options) *Controller {
	t.Helper()

	if opts.MonitorInterval == 0 {
		opts.MonitorInterval = 2 * time.Millisecond
	}
	if opts.PreloadInterval == 0 {
		opts.PreloadInterval = 5 * time.Millisecond
	}
	c := NewController(fetcher, output, opts, zerolog.Nop())
	t.Cleanup(c.Stop)
	return c
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// currentID returns the active track id, or "" when idle.
func currentID(c *Controller) string {
	if cur := c.CurrentTrack(); cur != nil {
		return cur.ID
	}
	return ""
}
