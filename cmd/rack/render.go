package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/effectrack/dsp/dither"
	"github.com/cwbudde/effectrack/dsp/effectchain"
	"github.com/cwbudde/effectrack/dsp/graph"
)

const (
	wavPCMFormat = 1
	renderChunk  = 4096
)

// renderOffline plays the first pad at time zero and writes the rack output
// to cfg.render.
func renderOffline(gctx *graph.Context, rack *effectchain.Rack, pads []pad, cfg config, logger logrus.FieldLogger) error {
	for _, p := range pads {
		if p.buf == nil {
			continue
		}

		if _, err := rack.PlaySample(p.buf); err != nil {
			return err
		}

		logger.WithField("sample", p.name).Info("rendering sample")

		break
	}

	q, err := dither.NewQuantizer(
		dither.WithBitDepth(cfg.bits),
		dither.WithType(cfg.dither),
		dither.WithPreset(cfg.shape),
	)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.render)
	if err != nil {
		return err
	}
	defer f.Close()

	frames := int(math.Round(cfg.duration.Seconds() * gctx.SampleRate()))

	peak, err := writeWAV(f, gctx, frames, q)
	if err != nil {
		return fmt.Errorf("render %s: %w", cfg.render, err)
	}

	logger.WithFields(logrus.Fields{
		"file":    cfg.render,
		"frames":  frames,
		"bits":    cfg.bits,
		"dither":  cfg.dither,
		"shape":   cfg.shape,
		"peak_db": 20 * math.Log10(peak),
		"chain":   rack.Chain(),
	}).Info("render complete")

	if peak > 1 {
		logger.WithField("peak", peak).Warn("output clipped")
	}

	return f.Close()
}

// writeWAV renders frames samples of gctx as mono WAV at the bit depth of q
// and returns the peak magnitude before clipping.
func writeWAV(w io.WriteSeeker, gctx *graph.Context, frames int, q *dither.Quantizer) (float64, error) {
	rate := int(gctx.SampleRate())
	enc := wav.NewEncoder(w, rate, q.BitDepth(), 1, wavPCMFormat)

	block := make([]float64, renderChunk)
	out := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           make([]int, 0, renderChunk),
		SourceBitDepth: q.BitDepth(),
	}

	var peak float64

	for done := 0; done < frames; {
		n := min(renderChunk, frames-done)
		gctx.RenderFloat64(block[:n])

		for _, v := range block[:n] {
			peak = max(peak, math.Abs(v))
		}

		out.Data = q.AppendInts(out.Data[:0], block[:n])

		if err := enc.Write(out); err != nil {
			return peak, err
		}

		done += n
	}

	return peak, enc.Close()
}
