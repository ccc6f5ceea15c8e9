package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jfmyers9/seamless/internal/playback"
)

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{name: "width 0 leaves text alone", input: "Hello", width: 0, expected: "Hello"},
		{name: "negative width leaves text alone", input: "Hello", width: -4, expected: "Hello"},
		{name: "pad short text", input: "Hi", width: 6, expected: "Hi    "},
		{name: "exact width", input: "Hello", width: 5, expected: "Hello"},
		{name: "truncate with ellipsis", input: "now playing: Roygbiv on lane 1", width: 16, expected: "now playing: ..."},
		{name: "emoji counts two columns", input: "\U0001F3B5 Lane", width: 10, expected: "\U0001F3B5 Lane   "},
		{name: "wide runes pad after truncation", input: "日本語とても長いテキスト", width: 10, expected: "日本語... "},
		{name: "empty string", input: "", width: 3, expected: "   "},
		{name: "width smaller than ellipsis", input: "Hello", width: 2, expected: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padToWidth(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("padToWidth(%q, %d) = %q, expected %q",
					tt.input, tt.width, result, tt.expected)
			}

			if tt.width > 0 {
				if w := runewidth.StringWidth(result); w != tt.width {
					t.Errorf("padToWidth(%q, %d) produced width %d, expected %d",
						tt.input, tt.width, w, tt.width)
				}
			}
		})
	}
}

func TestStatusPrinter_Event(t *testing.T) {
	track := &playback.Track{ID: "t2", Title: "Roygbiv", Artist: "Boards of Canada"}

	tests := []struct {
		name   string
		format string
		event  playback.Event
		want   string
	}{
		{
			name:   "now playing with default format",
			format: "now playing: {{.Title}} - {{.Artist}} on lane {{.Lane}}",
			event:  playback.Event{Kind: playback.EventNowPlaying, Track: track, Lane: 1, Cursor: 1},
			want:   "now playing: Roygbiv - Boards of Canada on lane 1\n",
		},
		{
			name:   "queue position is 1-based",
			format: "[{{.Position}}/{{.QueueLen}}] {{.ID}}",
			event:  playback.Event{Kind: playback.EventNowPlaying, Track: track, Cursor: 1},
			want:   "[2/3] t2\n",
		},
		{
			name:   "template error falls back to event text",
			format: "{{.Title.Missing}}",
			event:  playback.Event{Kind: playback.EventNowPlaying, Track: track, Lane: 0},
			want:   "now playing: Roygbiv on lane 0\n",
		},
		{
			name:   "skipped",
			format: "{{.Title}}",
			event:  playback.Event{Kind: playback.EventSkipped, Track: track, Err: errors.New("status 404")},
			want:   "skipped: Roygbiv (status 404)\n",
		},
		{
			name:   "completed",
			format: "{{.Title}}",
			event:  playback.Event{Kind: playback.EventCompleted},
			want:   "completed\n",
		},
		{
			name:   "preloaded is not printed",
			format: "{{.Title}}",
			event:  playback.Event{Kind: playback.EventPreloaded, Track: track},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p, err := newStatusPrinter(&buf, tt.format, 0, 3)
			if err != nil {
				t.Fatalf("newStatusPrinter() failed: %v", err)
			}

			p.event(tt.event)
			if got := buf.String(); got != tt.want {
				t.Errorf("event() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusPrinter_Status(t *testing.T) {
	var buf bytes.Buffer
	p, err := newStatusPrinter(&buf, "{{.Title}}", 0, 2)
	if err != nil {
		t.Fatalf("newStatusPrinter() failed: %v", err)
	}

	p.status(playback.Status{})
	p.status(playback.Status{
		State:   playback.StatePaused,
		Track:   &playback.Track{ID: "t1", Title: "Dayvan Cowboy", Duration: 5 * time.Minute},
		Elapsed: 83 * time.Second,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"nothing playing", "Dayvan Cowboy (paused) [1:23/5:00]"}
	if len(lines) != len(want) {
		t.Fatalf("status() wrote %d lines, want %d: %q", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestNewStatusPrinter_InvalidFormat(t *testing.T) {
	if _, err := newStatusPrinter(&bytes.Buffer{}, "{{.Title", 0, 1); err == nil {
		t.Error("newStatusPrinter() with broken template succeeded, want error")
	}
}
