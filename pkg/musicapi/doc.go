// Package musicapi provides a client for the music streaming server HTTP API.
//
// # Overview
//
// The server exposes a small JSON API for searching its library and a raw
// byte endpoint for streaming audio. This package wraps those endpoints with
// context support, typed errors, and retry logic for idempotent lookups.
//
// # Quick Start
//
//	import "github.com/jfmyers9/seamless/pkg/musicapi"
//
//	client, err := musicapi.NewClient(musicapi.Config{
//	    BaseURL: "http://pi-server:8080",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tracks, err := client.Search(ctx, "boards of canada")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := client.Stream(ctx, tracks[0].ID)
//
// # Endpoints
//
//   - GET /health             server liveness
//   - GET /api/search?q=...   search, returns {"success": bool, "data": [...]}
//   - GET /api/artists        artist listing, same envelope
//   - GET /stream/{id}        raw audio bytes for a track
//
// # Error Handling
//
// Non-200 responses are returned as *Error, which carries the HTTP status
// code. Use errors.As to inspect it:
//
//	var apiErr *musicapi.Error
//	if errors.As(err, &apiErr) && apiErr.Temporary() {
//	    // retry later
//	}
//
// Search and Health retry temporary failures with exponential backoff.
// Stream never retries: callers that stream audio own their retry policy.
package musicapi
