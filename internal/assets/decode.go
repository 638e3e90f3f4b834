package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"

	"github.com/cwbudde/effectrack/dsp/buffer"
)

// ErrUnsupportedFormat is returned for data that is neither WAV nor MP3,
// and for WAV encodings other than integer PCM.
var ErrUnsupportedFormat = errors.New("assets: unsupported audio format")

// WAV format tags accepted by Decode.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// Format identifies an encoded audio container.
type Format int

// Recognized formats.
const (
	FormatUnknown Format = iota
	FormatWAV
	FormatMP3
	FormatIRLib
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	case FormatIRLib:
		return "irlib"
	default:
		return "unknown"
	}
}

// Sniff returns the format of data from its leading bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[:4]) == "IRLB":
		return FormatIRLib
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// Decode decodes a WAV or MP3 file into a buffer at its native sample rate.
func Decode(data []byte) (*buffer.AudioBuffer, error) {
	switch f := Sniff(data); f {
	case FormatWAV:
		return decodeWAV(data)
	case FormatMP3:
		return decodeMP3(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func decodeWAV(data []byte) (*buffer.AudioBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("wav: %w", err)
		}

		return nil, errors.New("wav: invalid file")
	}

	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedFormat, d.WavAudioFormat)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	channels := int(d.NumChans)
	frames := len(pcm.Data) / channels
	out, err := buffer.New(channels, frames, float64(d.SampleRate))
	if err != nil {
		return nil, err
	}

	bits := int(d.BitDepth)
	scale := 1 / float64(int64(1)<<(bits-1))

	for ch := range channels {
		dst := out.Channel(ch)
		for i := range dst {
			v := pcm.Data[i*channels+ch]
			if bits == 8 {
				v -= 128
			}
			dst[i] = float64(v) * scale
		}
	}

	return out, nil
}

// decodeMP3 decodes to the 16-bit interleaved stereo stream of the ebiten
// decoder.
func decodeMP3(data []byte) (*buffer.AudioBuffer, error) {
	s, err := mp3.DecodeWithoutResampling(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	raw, err := io.ReadAll(s)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	const bytesPerFrame = 4

	frames := len(raw) / bytesPerFrame
	out, err := buffer.New(2, frames, float64(s.SampleRate()))
	if err != nil {
		return nil, err
	}

	left, right := out.Channel(0), out.Channel(1)
	for i := range frames {
		p := raw[i*bytesPerFrame:]
		left[i] = float64(int16(uint16(p[0])|uint16(p[1])<<8)) / 32768
		right[i] = float64(int16(uint16(p[2])|uint16(p[3])<<8)) / 32768
	}

	return out, nil
}
