package effectchain

import "github.com/cwbudde/effectrack/dsp/audioio"

// Runtime is a live effect unit in a rack slot. Configure translates a knob
// map into the unit's typed options and may be called any number of times;
// keys missing from the map keep their current value.
// Close releases the unit; a closed runtime is never reused.
type Runtime interface {
	audioio.Unit
	Configure(params Params) error
	Close()
}
