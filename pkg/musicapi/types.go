package musicapi

// Track is a search result as returned by the server.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration"` // seconds
}

// Artist is an entry of the artist listing.
type Artist struct {
	Name       string `json:"name"`
	TrackCount int    `json:"track_count,omitempty"`
}

// envelope is the JSON wrapper around every /api response.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}
