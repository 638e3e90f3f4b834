package effectchain

import (
	"maps"
	"slices"

	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/graph"
)

// Context provides what effect factories need to build a unit.
type Context struct {
	Graph *graph.Context
	IRs   IRProvider
}

// IRProvider lets the reverb look up impulse responses by name without
// depending on how they were loaded.
type IRProvider interface {
	Impulse(name string) (*buffer.AudioBuffer, bool)
	Names() []string
}

// ImpulseLibrary is an in-memory IRProvider.
type ImpulseLibrary map[string]*buffer.AudioBuffer

// Impulse returns the named impulse.
func (l ImpulseLibrary) Impulse(name string) (*buffer.AudioBuffer, bool) {
	ir, ok := l[name]
	return ir, ok && ir != nil
}

// Names returns the impulse names in sorted order.
func (l ImpulseLibrary) Names() []string {
	return slices.Sorted(maps.Keys(l))
}
