package playback

import (
	"time"
)

// runPreloader keeps the tracks after the cursor fetched into the cache,
// re-checking every PreloadInterval until the session ends.
func (c *Controller) runPreloader(sess *session) {
	logger := sess.logger.With().Str("component", "preloader").Logger()
	logger.Debug().
		Dur("interval", c.opts.PreloadInterval).
		Int("ahead", c.opts.PreloadAhead).
		Msg("Starting preloader")

	ticker := time.NewTicker(c.opts.PreloadInterval)
	defer ticker.Stop()

	// Preload immediately on start
	if !c.preload(sess) {
		return
	}

	for {
		select {
		case <-sess.ctx.Done():
			logger.Debug().Msg("Preloader stopped")
			return
		case <-ticker.C:
			if !c.preload(sess) {
				logger.Debug().Msg("Preloader finished")
				return
			}
		}
	}
}

// preload runs one preloader tick. It returns false once the session is
// over.
func (c *Controller) preload(sess *session) bool {
	targets, ok := c.preloadTargets(sess)
	if !ok {
		return false
	}

	for i, track := range targets {
		if sess.ctx.Err() != nil {
			c.releaseInFlight(targets[i:])
			return false
		}

		sess.logger.Debug().Str("track", track.ID).Msg("Preloading")
		buf, err := c.fetcher.Fetch(sess.ctx, track.ID)

		c.mu.Lock()
		delete(c.inflight, track.ID)

		if err != nil {
			if sess.ctx.Err() != nil {
				c.mu.Unlock()
				c.releaseInFlight(targets[i+1:])
				return false
			}
			c.attempts[track.ID]++
			attempt := c.attempts[track.ID]
			c.mu.Unlock()

			sess.logger.Warn().
				Err(err).
				Str("track", track.ID).
				Int("attempt", attempt).
				Msg("Preload failed, will retry")
			continue
		}

		// The cursor may have moved while fetching
		if !c.state.wants(track.ID, c.opts.PreloadAhead) {
			c.mu.Unlock()
			sess.logger.Debug().Str("track", track.ID).Msg("Discarding stale preload")
			continue
		}

		c.cache.Put(track.ID, buf)
		delete(c.attempts, track.ID)
		c.publishLocked(Event{Kind: EventPreloaded, Track: &track, Cursor: c.state.Cursor})
		c.mu.Unlock()

		sess.logger.Info().
			Str("track", track.ID).
			Int("bytes", buf.Size()).
			Msg("Preloaded")
	}

	return true
}

// preloadTargets picks the upcoming tracks that are neither cached, loaded
// on a lane, nor already being fetched, and marks them in flight.
func (c *Controller) preloadTargets(sess *session) ([]Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Running || sess.ctx.Err() != nil {
		return nil, false
	}

	upcoming := c.state.upcoming(c.opts.PreloadAhead)

	// Tracks the cursor has passed are abandoned, whatever their failures
	for id, n := range c.attempts {
		if !containsTrack(upcoming, id) {
			sess.logger.Debug().Str("track", id).Int("attempts", n).Msg("Abandoning preload")
			delete(c.attempts, id)
		}
	}

	var targets []Track
	for _, t := range upcoming {
		if c.cache.Contains(t.ID) || c.state.loaded(t.ID) || containsTrack(targets, t.ID) {
			continue
		}
		if _, busy := c.inflight[t.ID]; busy {
			continue
		}
		c.inflight[t.ID] = struct{}{}
		targets = append(targets, t)
	}

	return targets, true
}

// releaseInFlight clears the in-flight marks of tracks that were not fetched.
func (c *Controller) releaseInFlight(tracks []Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range tracks {
		delete(c.inflight, t.ID)
	}
}

func containsTrack(tracks []Track, id string) bool {
	for _, t := range tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}
