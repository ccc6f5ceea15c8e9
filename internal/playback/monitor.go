package playback

import (
	"time"
)

// runMonitor polls the active lane every MonitorInterval and drives
// transitions until the session ends.
func (c *Controller) runMonitor(sess *session) {
	logger := sess.logger.With().Str("component", "monitor").Logger()
	logger.Debug().
		Dur("interval", c.opts.MonitorInterval).
		Msg("Starting transition monitor")

	ticker := time.NewTicker(c.opts.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			logger.Debug().Msg("Transition monitor stopped")
			return
		case <-ticker.C:
			if done := c.checkTransition(sess); done {
				logger.Debug().Msg("Transition monitor finished")
				return
			}
		}
	}
}

// checkTransition performs at most one chain of transitions. It returns
// true once the session is over.
//
// A track whose buffer cannot be obtained or played is skipped immediately,
// so one call may advance the cursor several times.
func (c *Controller) checkTransition(sess *session) bool {
	for {
		c.mu.Lock()
		if !c.state.Running || sess.ctx.Err() != nil {
			c.mu.Unlock()
			return true
		}
		if c.state.Paused {
			c.mu.Unlock()
			return false
		}

		lane := c.state.ActiveLane
		forced := c.state.advance
		if !forced && !c.output.IsFinished(lane) {
			c.mu.Unlock()
			return false
		}

		if forced {
			// Skipped or failed track: silence whatever the lane holds
			c.output.Stop(lane)
		}
		c.state.advance = false
		c.state.laneTrack[lane] = ""
		c.state.Cursor++

		if c.state.Exhausted() {
			c.state.Running = false
			c.mu.Unlock()
			c.complete(sess)
			return true
		}

		c.state.ActiveLane = 1 - lane
		next := c.state.Queue[c.state.Cursor]
		cursor := c.state.Cursor
		newLane := c.state.ActiveLane
		c.mu.Unlock()

		sess.logger.Debug().
			Str("track", next.ID).
			Int("cursor", cursor).
			Int("lane", newLane).
			Bool("forced", forced).
			Msg("Track boundary")

		buf, err := c.obtainBuffer(sess, next)
		if err != nil {
			if sess.ctx.Err() != nil {
				return true
			}
			c.skipFailed(sess, next, cursor, err)
			continue
		}

		c.mu.Lock()
		if !c.state.Running || sess.ctx.Err() != nil {
			c.mu.Unlock()
			return true
		}
		played := c.playLocked(sess, next, newLane, buf)
		c.mu.Unlock()

		if played {
			return false
		}
	}
}

// obtainBuffer returns the buffer for track, preferring the prefetch cache.
// If the preloader is fetching the track right now, it waits up to
// PrefetchWait for that fetch to land before fetching synchronously.
func (c *Controller) obtainBuffer(sess *session, track Track) (*AudioBuffer, error) {
	if buf, ok := c.cache.Take(track.ID); ok {
		sess.logger.Debug().Str("track", track.ID).Msg("Prefetch cache hit")
		return buf, nil
	}

	if c.opts.PrefetchWait > 0 && c.isInFlight(track.ID) {
		if buf, ok := c.awaitPrefetch(sess, track.ID); ok {
			return buf, nil
		}
		if sess.ctx.Err() != nil {
			return nil, sess.ctx.Err()
		}
	}

	sess.logger.Info().
		Str("track", track.ID).
		Msg("Prefetch cache miss, fetching synchronously")
	return c.fetcher.Fetch(sess.ctx, track.ID)
}

// awaitPrefetch polls the cache while the preloader's fetch of id is in
// flight, for at most PrefetchWait.
func (c *Controller) awaitPrefetch(sess *session, id string) (*AudioBuffer, bool) {
	deadline := time.NewTimer(c.opts.PrefetchWait)
	defer deadline.Stop()

	ticker := time.NewTicker(c.opts.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return nil, false
		case <-deadline.C:
			sess.logger.Debug().Str("track", id).Msg("Gave up waiting for in-flight prefetch")
			return c.cache.Take(id)
		case <-ticker.C:
			if buf, ok := c.cache.Take(id); ok {
				sess.logger.Debug().Str("track", id).Msg("In-flight prefetch landed")
				return buf, true
			}
			if !c.isInFlight(id) {
				return c.cache.Take(id)
			}
		}
	}
}

// isInFlight reports whether the preloader is currently fetching id.
func (c *Controller) isInFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.inflight[id]
	return ok
}

// complete ends a session whose queue played to the end.
func (c *Controller) complete(sess *session) {
	sess.logger.Info().Msg("Queue finished")

	c.teardown()
	c.publish(sess, Event{Kind: EventCompleted})
	sess.cancel()
}
