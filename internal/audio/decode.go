package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnknownFormat is returned for data that is neither WAV nor MP3.
var ErrUnknownFormat = errors.New("unrecognized audio format")

// ErrInvalidFormat is returned for audio whose header declares an unusable
// format.
var ErrInvalidFormat = errors.New("invalid audio format")

// Format identifies an audio container by its leading bytes.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
)

// String returns a human-readable representation of the Format
func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Sniff identifies the container format of data.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// maxSampleRate bounds the sample rate a header may declare.
const maxSampleRate = 768000

// Decode decodes an in-memory WAV or MP3 file. Headers declaring a format
// the mixer cannot play are rejected with ErrInvalidFormat.
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	switch Sniff(data) {
	case FormatWAV:
		s, format, err = wav.Decode(bytes.NewReader(data))
	case FormatMP3:
		s, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return nil, beep.Format{}, ErrUnknownFormat
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", Sniff(data), err)
	}

	if err := checkFormat(format); err != nil {
		s.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", Sniff(data), err)
	}
	return s, format, nil
}

// checkFormat rejects header values that cannot be resampled or mixed.
func checkFormat(format beep.Format) error {
	switch {
	case format.SampleRate <= 0 || format.SampleRate > maxSampleRate:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, format.SampleRate)
	case format.NumChannels < 1 || format.NumChannels > 2:
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, format.NumChannels)
	case format.Precision <= 0:
		return fmt.Errorf("%w: precision %d", ErrInvalidFormat, format.Precision)
	}
	return nil
}

// Validate reports whether data decodes as audio, without keeping the
// decoder.
func Validate(data []byte) error {
	s, _, err := Decode(data)
	if err != nil {
		return err
	}
	return s.Close()
}
