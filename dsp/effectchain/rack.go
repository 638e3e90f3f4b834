package effectchain

import (
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/effectrack/dsp/audioio"
	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// DefaultSlots is the slot order of a rack: every slot holds the effect
// type of the same name.
var DefaultSlots = []string{"pitch", "vibrato", "delay", "flanger", "reverb"}

type slot struct {
	name       string
	effectType string
	enabled    bool
	params     Params
	unit       Runtime
}

// SlotState is a snapshot of one rack slot.
type SlotState struct {
	Name    string
	Type    string
	Enabled bool
	Params  Params
}

// RackOption configures a Rack.
type RackOption func(*Rack)

// WithRegistry replaces the default effect registry.
func WithRegistry(reg *Registry) RackOption {
	return func(r *Rack) { r.registry = reg }
}

// WithIRProvider sets the impulse responses the reverb can select.
func WithIRProvider(p IRProvider) RackOption {
	return func(r *Rack) { r.irs = p }
}

// WithSlots replaces DefaultSlots. Each name is also the effect type.
func WithSlots(names ...string) RackOption {
	return func(r *Rack) { r.slotNames = slices.Clone(names) }
}

// WithLogger sets the logger for rack events.
func WithLogger(l logrus.FieldLogger) RackOption {
	return func(r *Rack) { r.SetLogger(l) }
}

// Rack owns an ordered set of effect slots between the attached sources
// and the destination:
//
//	sources -> enabled slots in order -> analyser -> destination
//
// Enabling a slot builds a fresh unit; disabling closes it. The chain is
// rebuilt from the slot list after every change. Rack methods lock the
// render context and may be called from any goroutine.
type Rack struct {
	ctx       *graph.Context
	registry  *Registry
	irs       IRProvider
	logger    logrus.FieldLogger
	slotNames []string

	slots    []*slot
	analyser *graph.Analyser
	chain    *audioio.Chained
	head     audioio.Endpoint
	sources  []audioio.Endpoint
	sample   *graph.BufferSource
}

// NewRack builds a rack with every slot disabled and connects its analyser
// to the destination of ctx.
func NewRack(ctx *graph.Context, opts ...RackOption) (*Rack, error) {
	r := &Rack{
		ctx:       ctx,
		logger:    discardLogger(),
		slotNames: DefaultSlots,
		analyser:  graph.NewAnalyser(ctx),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.registry == nil {
		r.registry = DefaultRegistry()
	}

	for _, name := range r.slotNames {
		d, ok := r.registry.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("effectchain: slot %q: %w", name, ErrUnknownEffect)
		}

		r.slots = append(r.slots, &slot{name: name, effectType: name, params: d.Defaults.Clone()})
	}

	ctx.Update(func() {
		r.analyser.Connect(ctx.Destination())
		r.head = audioio.Node(r.analyser)
	})

	return r, nil
}

// SetLogger sets the logger for rack events. A nil logger discards them.
func (r *Rack) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = discardLogger()
	}

	r.logger = l
}

// Analyser returns the analyser in front of the destination.
func (r *Rack) Analyser() *graph.Analyser { return r.analyser }

// Registry returns the effect registry of the rack.
func (r *Rack) Registry() *Registry { return r.registry }

func (r *Rack) slot(name string) (*slot, error) {
	for _, s := range r.slots {
		if s.name == name {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// Slots returns a snapshot of all slots in chain order.
func (r *Rack) Slots() []SlotState {
	var out []SlotState

	r.ctx.Update(func() {
		out = make([]SlotState, len(r.slots))
		for i, s := range r.slots {
			out[i] = SlotState{Name: s.name, Type: s.effectType, Enabled: s.enabled, Params: s.params.Clone()}
		}
	})

	return out
}

// Knobs returns the controls of a slot. The impulse selector of the reverb
// lists the available impulses.
func (r *Rack) Knobs(name string) ([]Knob, error) {
	s, err := r.slot(name)
	if err != nil {
		return nil, err
	}

	d, _ := r.registry.Lookup(s.effectType)
	knobs := slices.Clone(d.Knobs)

	for i, k := range knobs {
		if k.Name == "impulse" {
			knobs[i].Choices = r.impulseNames()
		}
	}

	return knobs, nil
}

func (r *Rack) impulseNames() []string {
	names := []string{SyntheticImpulseName}
	if r.irs != nil {
		for _, n := range r.irs.Names() {
			if n != SyntheticImpulseName {
				names = append(names, n)
			}
		}
	}

	return names
}

// Enable builds the slot's effect with its stored knobs and inserts it into
// the chain. Enabling an enabled slot does nothing.
func (r *Rack) Enable(name string) error {
	var err error
	r.ctx.Update(func() { err = r.enable(name) })

	return err
}

func (r *Rack) enable(name string) error {
	s, err := r.slot(name)
	if err != nil {
		return err
	}

	if s.enabled {
		return nil
	}

	unit, err := r.registry.New(r.env(), s.effectType, s.params)
	if err != nil {
		r.logger.WithError(err).WithField("slot", name).Error("enable failed")
		return err
	}

	s.unit = unit
	s.enabled = true
	r.rebuild()
	r.logger.WithFields(logrus.Fields{"slot": name, "chain": r.chainNames()}).Info("slot enabled")

	return nil
}

// Disable closes the slot's effect and removes it from the chain. The slot
// keeps its knob values.
func (r *Rack) Disable(name string) error {
	var err error
	r.ctx.Update(func() { err = r.disable(name) })

	return err
}

func (r *Rack) disable(name string) error {
	s, err := r.slot(name)
	if err != nil {
		return err
	}

	if !s.enabled {
		return nil
	}

	s.unit.Close()
	s.unit = nil
	s.enabled = false
	r.rebuild()
	r.logger.WithFields(logrus.Fields{"slot": name, "chain": r.chainNames()}).Info("slot disabled")

	return nil
}

// Toggle flips a slot and reports whether it is now enabled.
func (r *Rack) Toggle(name string) (bool, error) {
	var (
		on  bool
		err error
	)

	r.ctx.Update(func() {
		var s *slot
		if s, err = r.slot(name); err != nil {
			return
		}

		if s.enabled {
			err = r.disable(name)
		} else {
			err = r.enable(name)
		}
		on = s.enabled
	})

	return on, err
}

// Set changes a numeric knob. Knobs with a range are clamped. An enabled
// slot is reconfigured live.
func (r *Rack) Set(name, key string, value float64) error {
	return r.Configure(name, Params{Num: map[string]float64{key: value}})
}

// SetString changes a selector knob such as a waveform or impulse name.
func (r *Rack) SetString(name, key, value string) error {
	return r.Configure(name, Params{Str: map[string]string{key: value}})
}

// Configure merges p into the slot's knobs. When the slot is enabled the
// unit is reconfigured with the keys of p only, so knobs that did not
// change are not applied again. On error the stored knobs are left
// unchanged.
func (r *Rack) Configure(name string, p Params) error {
	var err error
	r.ctx.Update(func() { err = r.configure(name, p) })

	return err
}

func (r *Rack) configure(name string, p Params) error {
	s, err := r.slot(name)
	if err != nil {
		return err
	}

	d, _ := r.registry.Lookup(s.effectType)

	clamped := p.Clone()
	for k, v := range clamped.Num {
		clamped.Num[k] = d.normalizeKnob(k, v)
	}

	next := s.params.Merge(clamped)

	if s.enabled {
		if err := s.unit.Configure(clamped); err != nil {
			return fmt.Errorf("effectchain: configure %s: %w", name, err)
		}
	}

	s.params = next

	return nil
}

// Unit returns the live unit of an enabled slot.
func (r *Rack) Unit(name string) (Runtime, bool) {
	var unit Runtime

	r.ctx.Update(func() {
		if s, err := r.slot(name); err == nil && s.enabled {
			unit = s.unit
		}
	})

	return unit, unit != nil
}

// Chain returns the names of the enabled slots in signal order.
func (r *Rack) Chain() []string {
	var names []string
	r.ctx.Update(func() { names = r.chainNames() })

	return names
}

func (r *Rack) chainNames() []string {
	var names []string
	for _, s := range r.slots {
		if s.enabled {
			names = append(names, s.name)
		}
	}

	return names
}

// ConnectSource feeds src through the rack. The source stays attached
// across chain rebuilds until DisconnectSource.
func (r *Rack) ConnectSource(src audioio.Endpoint) {
	r.ctx.Update(func() { r.connectSource(src) })
}

func (r *Rack) connectSource(src audioio.Endpoint) {
	if src.IsAbsent() {
		return
	}

	r.sources = append(r.sources, src)
	audioio.Connect(src, r.head)
}

// DisconnectSource detaches src from the rack.
func (r *Rack) DisconnectSource(src audioio.Endpoint) {
	r.ctx.Update(func() { r.disconnectSource(src) })
}

func (r *Rack) disconnectSource(src audioio.Endpoint) {
	i := slices.IndexFunc(r.sources, func(e audioio.Endpoint) bool { return e == src })
	if i < 0 {
		return
	}

	audioio.DisconnectFrom(src, r.head)
	r.sources = slices.Delete(r.sources, i, i+1)
}

// PlaySample plays buf once through the rack, replacing the sample that is
// still playing, if any.
func (r *Rack) PlaySample(buf *buffer.AudioBuffer) (*graph.BufferSource, error) {
	var (
		src *graph.BufferSource
		err error
	)

	r.ctx.Update(func() {
		if r.sample != nil {
			_ = r.sample.Stop(r.ctx.CurrentTime())
			r.disconnectSource(audioio.Node(r.sample))
		}

		src = graph.NewBufferSource(r.ctx, buf)
		if err = src.Start(r.ctx.CurrentTime()); err != nil {
			return
		}

		r.sample = src
		r.connectSource(audioio.Node(src))
	})

	if err != nil {
		return nil, fmt.Errorf("effectchain: play sample: %w", err)
	}

	r.logger.WithField("seconds", buf.Duration()).Debug("sample started")

	return src, nil
}

// rebuild replaces the chain with one built from the enabled slots and
// moves every source to its head.
func (r *Rack) rebuild() {
	for _, src := range r.sources {
		audioio.DisconnectFrom(src, r.head)
	}

	if r.chain != nil {
		r.chain.Dissolve()
		r.chain = nil
	}

	var units []audioio.Endpoint
	for _, s := range r.slots {
		if s.enabled {
			units = append(units, audioio.Of(s.unit))
		}
	}

	r.head = audioio.Node(r.analyser)

	if chain, ok := audioio.Chain(units...); ok {
		chain.Connect(r.head)
		r.chain = chain
		r.head = audioio.Of(chain)
	} else {
		r.logger.Warn("effect chain is empty, sources feed the analyser directly")
	}

	for _, src := range r.sources {
		audioio.Connect(src, r.head)
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func (r *Rack) env() Context {
	return Context{Graph: r.ctx, IRs: r.irs}
}

// Close disables every slot and detaches all sources.
func (r *Rack) Close() {
	r.ctx.Update(func() {
		for _, src := range slices.Clone(r.sources) {
			r.disconnectSource(src)
		}

		for _, s := range r.slots {
			if s.enabled {
				s.unit.Close()
				s.unit = nil
				s.enabled = false
			}
		}

		if r.chain != nil {
			r.chain.Dissolve()
			r.chain = nil
		}

		r.head = audioio.Node(r.analyser)
	})
}
