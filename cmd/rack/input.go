package main

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/graph"
	"github.com/cwbudde/effectrack/internal/assets"
)

type pad struct {
	name string
	buf  *buffer.AudioBuffer
}

// loadPads loads the samples in parallel. Pads of samples that failed keep
// their key with a nil buffer.
func loadPads(ctx context.Context, l *assets.Loader, locations []string) ([]pad, error) {
	byKey := make(map[string]string, len(locations))
	for i, loc := range locations {
		byKey[strconv.Itoa(i+1)] = loc
	}

	bufs, err := l.LoadAll(ctx, byKey)

	pads := make([]pad, len(locations))
	for i, loc := range locations {
		pads[i] = pad{name: loc, buf: bufs[strconv.Itoa(i+1)]}
	}

	return pads, err
}

// pump feeds raw float32 LE mono samples from r into s until EOF. It
// waits while more than highWater samples are buffered.
func pump(r io.Reader, s *graph.StreamSource, quantum, highWater int, wait time.Duration) error {
	raw := make([]byte, 4*quantum)
	samples := make([]float64, quantum)
	var carry int

	for {
		for s.Buffered() > highWater {
			time.Sleep(wait)
		}

		n, err := r.Read(raw[carry:])
		n += carry

		whole := n / 4
		for i := range whole {
			samples[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
		}

		if whole > 0 {
			s.Push(samples[:whole])
		}

		carry = copy(raw, raw[4*whole:n])

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}
