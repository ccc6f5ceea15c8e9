package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jfmyers9/seamless/internal/playback"
)

// statusLine is the data available to the output_format template.
type statusLine struct {
	ID       string
	Title    string
	Artist   string
	Duration time.Duration
	Lane     int
	Position int // 1-based position in the queue
	QueueLen int
}

func newStatusLine(track *playback.Track, lane, cursor, queueLen int) statusLine {
	title := track.Title
	if title == "" {
		title = track.ID
	}
	return statusLine{
		ID:       track.ID,
		Title:    title,
		Artist:   track.Artist,
		Duration: track.Duration,
		Lane:     lane,
		Position: cursor + 1,
		QueueLen: queueLen,
	}
}

// statusPrinter writes the playback status feed as text lines.
type statusPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	tmpl     *template.Template
	width    int
	queueLen int
}

func newStatusPrinter(w io.Writer, format string, width, queueLen int) (*statusPrinter, error) {
	tmpl, err := template.New("output").Parse(format)
	if err != nil {
		return nil, fmt.Errorf("invalid output format: %w", err)
	}
	return &statusPrinter{w: w, tmpl: tmpl, width: width, queueLen: queueLen}, nil
}

// event prints a feed event. Events that are only interesting in logs are
// skipped.
func (p *statusPrinter) event(e playback.Event) {
	switch e.Kind {
	case playback.EventStarted, playback.EventPreloaded:
		return
	case playback.EventNowPlaying:
		p.line(p.render(newStatusLine(e.Track, e.Lane, e.Cursor, p.queueLen), e.String()))
	default:
		p.line(e.String())
	}
}

// status prints a snapshot of the session.
func (p *statusPrinter) status(st playback.Status) {
	if st.Track == nil {
		p.line("nothing playing")
		return
	}

	text := p.render(newStatusLine(st.Track, st.ActiveLane, st.Cursor, st.QueueLen), st.Track.ID)
	if st.State == playback.StatePaused {
		text += " (paused)"
	}
	p.line(fmt.Sprintf("%s [%s]", text, formatElapsed(st.Elapsed, st.Track.Duration)))
}

// render applies the output template, falling back when it fails on the
// data at hand.
func (p *statusPrinter) render(line statusLine, fallback string) string {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, line); err != nil {
		return fallback
	}
	return buf.String()
}

func (p *statusPrinter) line(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, padToWidth(text, p.width))
}

// formatElapsed renders played time as m:ss, with the track length if known.
func formatElapsed(elapsed, total time.Duration) string {
	clock := func(d time.Duration) string {
		s := int(d.Round(time.Second) / time.Second)
		return fmt.Sprintf("%d:%02d", s/60, s%60)
	}
	if total <= 0 {
		return clock(elapsed)
	}
	return clock(elapsed) + "/" + clock(total)
}

// padToWidth pads or truncates text to a fixed display width, measured in
// display columns. Truncated text ends in "...". A width <= 0 leaves text
// unchanged.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	const ellipsis = "..."
	if runewidth.StringWidth(text) > width {
		if width <= len(ellipsis) {
			return ellipsis[:width]
		}
		// Wide runes can leave the truncated text a column short
		text = runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
	}

	if pad := width - runewidth.StringWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	return text
}
