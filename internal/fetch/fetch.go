// Package fetch retrieves track audio from the music server for playback.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/seamless/internal/audio"
	"github.com/jfmyers9/seamless/internal/playback"
	"github.com/jfmyers9/seamless/pkg/musicapi"
)

// DefaultTimeout bounds a single fetch when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Streamer downloads the raw audio of a track. *musicapi.Client implements
// it.
type Streamer interface {
	Stream(ctx context.Context, trackID string) ([]byte, error)
}

// Config configures an HTTPFetcher.
type Config struct {
	Client   Streamer
	Timeout  time.Duration       // Per-fetch deadline (default: 30s)
	Validate func([]byte) error // Rejects undecodable payloads (default: audio.Validate)
	Logger   zerolog.Logger
}

// HTTPFetcher is a playback.Fetcher backed by the music server.
type HTTPFetcher struct {
	client   Streamer
	timeout  time.Duration
	validate func([]byte) error
	logger   zerolog.Logger
}

// New creates an HTTPFetcher.
func New(cfg Config) (*HTTPFetcher, error) {
	if cfg.Client == nil {
		return nil, errors.New("fetch: client is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Validate == nil {
		cfg.Validate = audio.Validate
	}

	return &HTTPFetcher{
		client:   cfg.Client,
		timeout:  cfg.Timeout,
		validate: cfg.Validate,
		logger:   cfg.Logger.With().Str("component", "fetcher").Logger(),
	}, nil
}

// Fetch downloads and validates the audio for trackID. Failures are
// returned as *playback.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, trackID string) (*playback.AudioBuffer, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	data, err := f.client.Stream(ctx, trackID)
	if err != nil {
		return nil, classify(trackID, err)
	}

	if err := f.validate(data); err != nil {
		return nil, &playback.FetchError{
			TrackID: trackID,
			Kind:    playback.FetchDecode,
			Err:     fmt.Errorf("invalid audio payload: %w", err),
		}
	}

	f.logger.Debug().
		Str("track", trackID).
		Int("bytes", len(data)).
		Dur("took", time.Since(start)).
		Msg("Fetched track")

	return &playback.AudioBuffer{TrackID: trackID, Data: data}, nil
}

// classify maps a client error onto a FetchError kind.
func classify(trackID string, err error) *playback.FetchError {
	fe := &playback.FetchError{TrackID: trackID, Kind: playback.FetchNetwork, Err: err}

	var apiErr *musicapi.Error
	switch {
	case errors.As(err, &apiErr):
		fe.Kind = playback.FetchServer
		fe.StatusCode = apiErr.StatusCode
	case errors.Is(err, musicapi.ErrEmptyBody):
		fe.Kind = playback.FetchDecode
	}
	return fe
}
