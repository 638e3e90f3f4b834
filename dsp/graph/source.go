package graph

import (
	"math"

	"github.com/cwbudde/effectrack/dsp/core"
)

// ScheduledSource is a source node that plays between a one-shot Start and
// an optional Stop.
type ScheduledSource interface {
	Node
	Start(when float64) error
	Stop(when float64) error
}

// playback tracks the start/stop lifecycle of a scheduled source.
type playback struct {
	started    bool
	startFrame int64
	stopFrame  int64
	ended      bool
}

func (p *playback) start(n *node, self scheduled, when float64) error {
	if p.started {
		return ErrAlreadyStarted
	}

	if !core.IsFinite(when) || when < 0 {
		return ErrInvalidTime
	}

	p.started = true
	p.startFrame = n.ctx.frameAt(when)
	p.stopFrame = math.MaxInt64
	n.ctx.activate(n, self)

	return nil
}

func (p *playback) stop(n *node, when float64) error {
	if !p.started {
		return ErrNotStarted
	}

	if !core.IsFinite(when) || when < 0 {
		return ErrInvalidTime
	}

	p.stopFrame = max(n.ctx.frameAt(when), p.startFrame)

	return nil
}

func (p *playback) finished(frame int64) bool {
	return p.ended || (p.started && frame >= p.stopFrame)
}

// window returns the index range of the quantum starting at frame during
// which the source plays.
func (p *playback) window(frame int64, n int) (from, to int) {
	if !p.started || p.ended {
		return 0, 0
	}

	end := frame + int64(n)
	if p.startFrame >= end || p.stopFrame <= frame {
		return 0, 0
	}

	from = int(max(p.startFrame-frame, 0))
	to = int(min(p.stopFrame-frame, int64(n)))

	return from, to
}
