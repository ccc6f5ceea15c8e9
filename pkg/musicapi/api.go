package musicapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.get(ctx, "/health", nil, false); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Search queries the server library. An empty query lists everything the
// server is willing to return.
func (c *Client) Search(ctx context.Context, query string) ([]Track, error) {
	tracks, err := getJSON[[]Track](ctx, c, "/api/search", url.Values{"q": {query}})
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}
	return tracks, nil
}

// Artists lists all artists known to the server.
func (c *Client) Artists(ctx context.Context) ([]Artist, error) {
	artists, err := getJSON[[]Artist](ctx, c, "/api/artists", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	return artists, nil
}

// Stream downloads the full audio payload of a track.
//
// Stream makes exactly one attempt. Callers bound it with ctx.
func (c *Client) Stream(ctx context.Context, trackID string) ([]byte, error) {
	if trackID == "" {
		return nil, errors.New("musicapi: track id is required")
	}

	data, err := c.get(ctx, "/stream/"+url.PathEscape(trackID), nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to stream track %s: %w", trackID, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to stream track %s: %w", trackID, ErrEmptyBody)
	}
	return data, nil
}
