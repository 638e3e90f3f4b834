package effectchain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Factory builds one Runtime instance for a rack slot.
type Factory func(ctx Context) (Runtime, error)

// Knob describes one control of an effect for a user interface. A knob
// with Choices is a selector; otherwise it is a continuous control
// between Min and Max.
type Knob struct {
	Name    string
	Min     float64
	Max     float64
	Choices []string
}

// Descriptor is everything a front end needs to offer an effect: how to
// build it, its default options and its controls.
type Descriptor struct {
	Factory  Factory
	Defaults Params
	Knobs    []Knob
}

// Registry maps effect type names to their descriptors.
type Registry struct {
	effects map[string]Descriptor
}

var errDuplicateEffect = errors.New("duplicate effect type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{effects: make(map[string]Descriptor)}
}

// Register adds an effect type.
func (r *Registry) Register(effectType string, d Descriptor) error {
	if effectType == "" {
		return errors.New("empty effect type")
	}

	if d.Factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.effects[effectType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, effectType)
	}

	r.effects[effectType] = d

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(effectType string, d Descriptor) {
	err := r.Register(effectType, d)
	if err != nil {
		panic("effectchain registry: " + err.Error())
	}
}

// Lookup returns the descriptor for the given effect type.
func (r *Registry) Lookup(effectType string) (Descriptor, bool) {
	d, ok := r.effects[effectType]
	return d, ok
}

// Types returns the registered effect types in sorted order.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.effects))
}

// New builds and configures a runtime with the effect defaults overlaid by
// params.
func (r *Registry) New(ctx Context, effectType string, params Params) (Runtime, error) {
	d, ok := r.Lookup(effectType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, effectType)
	}

	rt, err := d.Factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("effectchain: create %s: %w", effectType, err)
	}

	if err := rt.Configure(d.Defaults.Merge(params)); err != nil {
		rt.Close()
		return nil, fmt.Errorf("effectchain: configure %s: %w", effectType, err)
	}

	return rt, nil
}
