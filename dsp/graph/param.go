package graph

import (
	"math"
	"slices"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/effectrack/dsp/core"
)

// Largest magnitude a param can take when no tighter range applies.
const maxParamValue = math.MaxFloat32

type paramEvent struct {
	frame int64
	value float64
}

// Param is an audio-rate parameter. Its computed value is the intrinsic
// value plus the sum of all connected node outputs, clamped to [Min, Max].
type Param struct {
	owner *node
	name  string

	value    float64
	def      float64
	min, max float64

	events []paramEvent
	inputs []*node

	buf []float64
}

func newParam(owner *node, name string, def, min, max float64) *Param {
	p := &Param{
		owner: owner,
		name:  name,
		value: def,
		def:   def,
		min:   min,
		max:   max,
		buf:   make([]float64, owner.ctx.cfg.BlockSize),
	}
	owner.params = append(owner.params, p)

	return p
}

// Name returns the param name, e.g. "gain" or "delayTime".
func (p *Param) Name() string { return p.name }

// Default returns the initial intrinsic value.
func (p *Param) Default() float64 { return p.def }

// Min returns the lower bound of the computed value.
func (p *Param) Min() float64 { return p.min }

// Max returns the upper bound of the computed value.
func (p *Param) Max() float64 { return p.max }

// Value returns the intrinsic value.
func (p *Param) Value() float64 { return p.value }

// SetValue sets the intrinsic value. It takes effect at the next render
// quantum. Non-finite values are ignored.
func (p *Param) SetValue(v float64) {
	if !core.IsFinite(v) {
		return
	}

	p.value = v
}

// SetValueAtTime schedules a step change of the intrinsic value at time t in
// context seconds. Times in the past apply at the start of the next quantum.
func (p *Param) SetValueAtTime(v, t float64) error {
	if !core.IsFinite(t) || t < 0 {
		return ErrInvalidTime
	}

	if !core.IsFinite(v) {
		return nil
	}

	ev := paramEvent{frame: p.owner.ctx.frameAt(t), value: v}
	i, _ := slices.BinarySearchFunc(p.events, ev.frame, func(e paramEvent, f int64) int {
		if e.frame <= f {
			return -1
		}
		return 1
	})
	p.events = slices.Insert(p.events, i, ev)

	return nil
}

// CancelScheduledValues drops every event at or after time t.
func (p *Param) CancelScheduledValues(t float64) {
	frame := p.owner.ctx.frameAt(t)
	p.events = slices.DeleteFunc(p.events, func(e paramEvent) bool { return e.frame >= frame })
}

// Values returns the computed values of the last rendered quantum.
func (p *Param) Values() []float64 { return p.buf }

func (p *Param) compute(frame int64) {
	buf := p.buf

	if len(p.events) == 0 || p.events[0].frame >= frame+int64(len(buf)) {
		core.Fill(buf, p.value)
	} else {
		for i := range buf {
			for len(p.events) > 0 && p.events[0].frame <= frame+int64(i) {
				p.value = p.events[0].value
				p.events = p.events[1:]
			}
			buf[i] = p.value
		}
	}

	for _, in := range p.inputs {
		vecmath.AddBlockInPlace(buf, in.out)
	}

	clampBlock(buf, p.min, p.max)
}

func clampBlock(buf []float64, min, max float64) {
	for i, v := range buf {
		buf[i] = core.Clamp(v, min, max)
	}
}
