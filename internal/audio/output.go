package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog"

	"github.com/jfmyers9/seamless/internal/playback"
)

// DefaultSampleRate is the mixer rate used when none is configured.
const DefaultSampleRate = beep.SampleRate(44100)

var errNoSuchLane = errors.New("no such lane")

// resampleQuality is the beep resampler quality for tracks whose rate
// differs from the mixer's.
const resampleQuality = 4

// lane is one of the two output channels.
type lane struct {
	// gen is bumped on every Play and Stop; callbacks from older streams
	// compare against it and are ignored
	gen      atomic.Uint64
	finished atomic.Bool

	trackID string
	ctrl    *beep.Ctrl
	gain    *effects.Volume
	stream  beep.StreamSeekCloser
	format  beep.Format
}

// Output is a two-lane playback output mixed into a single Backend.
type Output struct {
	backend    Backend
	sampleRate beep.SampleRate
	logger     zerolog.Logger

	mu          sync.Mutex
	initialized bool
	volume      float64 // Linear gain for both lanes, 0 to 1
	lanes       [playback.NumLanes]*lane
}

// NewOutput creates an Output over backend. The backend is initialized on
// the first Play.
func NewOutput(backend Backend, sampleRate beep.SampleRate, logger zerolog.Logger) *Output {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	o := &Output{
		backend:    backend,
		sampleRate: sampleRate,
		logger:     logger.With().Str("component", "output").Logger(),
		volume:     1,
	}
	for i := range o.lanes {
		o.lanes[i] = &lane{}
	}
	return o
}

// Play decodes buf and starts it on the given lane, replacing whatever the
// lane held.
func (o *Output) Play(idx int, buf *playback.AudioBuffer) error {
	if idx < 0 || idx >= playback.NumLanes {
		return &playback.PlaybackError{Lane: idx, TrackID: buf.TrackID, Err: errNoSuchLane}
	}

	stream, format, err := Decode(buf.Data)
	if err != nil {
		return &playback.PlaybackError{Lane: idx, TrackID: buf.TrackID, Err: err}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.initialized {
		if err := o.backend.Init(o.sampleRate); err != nil {
			stream.Close()
			return &playback.PlaybackError{
				Lane:    idx,
				TrackID: buf.TrackID,
				Err:     fmt.Errorf("failed to initialize audio backend: %w", err),
			}
		}
		o.initialized = true
		o.logger.Debug().Int("sample_rate", int(o.sampleRate)).Msg("Audio backend initialized")
	}

	l := o.lanes[idx]
	o.stopLocked(l)

	var s beep.Streamer = stream
	if format.SampleRate != o.sampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, o.sampleRate, stream)
	}

	gen := l.gen.Add(1)
	l.finished.Store(false)
	l.trackID = buf.TrackID
	l.stream = stream
	l.format = format
	l.ctrl = &beep.Ctrl{Streamer: s}
	l.gain = &effects.Volume{Streamer: l.ctrl, Base: 2}
	setGain(l.gain, o.volume)

	// Runs under the backend lock: atomics only
	o.backend.Play(beep.Seq(l.gain, beep.Callback(func() {
		if l.gen.Load() == gen {
			l.finished.Store(true)
		}
	})))

	o.logger.Debug().
		Int("lane", idx).
		Str("track", buf.TrackID).
		Int("sample_rate", int(format.SampleRate)).
		Dur("length", format.SampleRate.D(stream.Len())).
		Msg("Lane started")
	return nil
}

// IsFinished reports whether the lane's buffer played to completion.
func (o *Output) IsFinished(idx int) bool {
	if idx < 0 || idx >= playback.NumLanes {
		return false
	}
	return o.lanes[idx].finished.Load()
}

// LaneState returns the state of a lane.
func (o *Output) LaneState(idx int) playback.LaneState {
	if idx < 0 || idx >= playback.NumLanes {
		return playback.LaneIdle
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	l := o.lanes[idx]
	if l.ctrl == nil || l.finished.Load() {
		return playback.LaneIdle
	}

	o.backend.Lock()
	paused := l.ctrl.Paused
	o.backend.Unlock()

	if paused {
		return playback.LanePaused
	}
	return playback.LanePlaying
}

// Position returns how far into its track a lane has played.
func (o *Output) Position(idx int) time.Duration {
	if idx < 0 || idx >= playback.NumLanes {
		return 0
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	l := o.lanes[idx]
	if l.stream == nil {
		return 0
	}

	o.backend.Lock()
	pos := l.stream.Position()
	o.backend.Unlock()

	return l.format.SampleRate.D(pos)
}

// Stop halts a lane and discards its position.
func (o *Output) Stop(idx int) {
	if idx < 0 || idx >= playback.NumLanes {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked(o.lanes[idx])
}

// PauseAll pauses every playing lane in place.
func (o *Output) PauseAll() {
	o.setPaused(true)
}

// ResumeAll resumes the lanes PauseAll paused.
func (o *Output) ResumeAll() {
	o.setPaused(false)
}

// SetVolume sets the linear gain of both lanes, clamped to [0, 1]. It
// applies to the lanes playing now and to later Plays.
func (o *Output) SetVolume(level float64) {
	if math.IsNaN(level) {
		level = 0
	}
	level = max(0, min(1, level))

	o.mu.Lock()
	defer o.mu.Unlock()

	o.volume = level

	o.backend.Lock()
	for _, l := range o.lanes {
		if l.gain != nil {
			setGain(l.gain, level)
		}
	}
	o.backend.Unlock()

	o.logger.Debug().Float64("volume", level).Msg("Volume changed")
}

// Volume returns the linear gain set by SetVolume.
func (o *Output) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// setGain maps a linear level onto a base-2 Volume effect.
func setGain(v *effects.Volume, level float64) {
	v.Silent = level <= 0
	if !v.Silent {
		v.Volume = math.Log2(level)
	}
}

// StopAll halts both lanes.
func (o *Output) StopAll() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, l := range o.lanes {
		o.stopLocked(l)
	}
}

func (o *Output) setPaused(paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.backend.Lock()
	defer o.backend.Unlock()

	for _, l := range o.lanes {
		// Finished lanes have nothing left to pause
		if l.ctrl != nil && !l.finished.Load() {
			l.ctrl.Paused = paused
		}
	}
}

// stopLocked detaches the lane's stream from the mixer. Must be called with
// o.mu held.
func (o *Output) stopLocked(l *lane) {
	l.gen.Add(1)
	l.finished.Store(false)

	if l.ctrl != nil {
		// A nil streamer ends the Seq, so the mixer drops it on its next pull
		o.backend.Lock()
		l.ctrl.Streamer = nil
		l.ctrl.Paused = false
		o.backend.Unlock()
	}
	if l.stream != nil {
		if err := l.stream.Close(); err != nil {
			o.logger.Debug().Err(err).Str("track", l.trackID).Msg("Failed to close stream")
		}
	}

	l.trackID = ""
	l.ctrl = nil
	l.gain = nil
	l.stream = nil
	l.format = beep.Format{}
}
