package graph

import (
	"math"

	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/core"
)

// BufferSource plays an AudioBuffer once, or in a loop. Multi-channel
// buffers are downmixed to mono.
type BufferSource struct {
	node
	playback

	playbackRate *Param

	samples []float64
	ratio   float64
	loop    bool
	pos     float64
}

// NewBufferSource returns a stopped source for buf. buf may be nil.
func NewBufferSource(ctx *Context, buf *buffer.AudioBuffer) *BufferSource {
	s := &BufferSource{}
	s.init(ctx, s)
	s.playbackRate = newParam(&s.node, "playbackRate", 1, 0, maxParamValue)
	s.SetBuffer(buf)

	return s
}

// PlaybackRate returns the playbackRate param.
func (s *BufferSource) PlaybackRate() *Param { return s.playbackRate }

// SetBuffer replaces the sample data. The play position is kept.
func (s *BufferSource) SetBuffer(buf *buffer.AudioBuffer) {
	if buf == nil {
		s.samples = nil
		s.ratio = 1
		return
	}

	s.samples = buf.Mono()
	s.ratio = buf.SampleRate() / s.ctx.cfg.SampleRate
}

// SetLoop enables looping over the whole buffer.
func (s *BufferSource) SetLoop(loop bool) { s.loop = loop }

// Loop reports whether the source loops.
func (s *BufferSource) Loop() bool { return s.loop }

// Start begins playback at context time when.
func (s *BufferSource) Start(when float64) error {
	return s.start(&s.node, s, when)
}

// Stop ends playback at context time when.
func (s *BufferSource) Stop(when float64) error {
	return s.stop(&s.node, when)
}

// Ended reports whether playback has finished.
func (s *BufferSource) Ended() bool {
	return s.finished(s.ctx.frame.Load())
}

func (s *BufferSource) process(frame int64, _, out []float64) {
	clear(out)

	from, to := s.window(frame, len(out))
	n := float64(len(s.samples))
	rates := s.playbackRate.buf

	for i := from; i < to; i++ {
		if s.pos >= n {
			if !s.loop || n == 0 {
				s.ended = true
				return
			}
			s.pos = math.Mod(s.pos, n)
		}

		idx := int(s.pos)
		t := s.pos - float64(idx)
		out[i] = core.Hermite4(t, s.at(idx-1), s.at(idx), s.at(idx+1), s.at(idx+2))
		s.pos += rates[i] * s.ratio
	}
}

func (s *BufferSource) at(i int) float64 {
	n := len(s.samples)
	if s.loop && n > 0 {
		return s.samples[((i%n)+n)%n]
	}

	if i < 0 || i >= n {
		return 0
	}

	return s.samples[i]
}
