// Package effectchain assembles effects into a rack: an ordered set of
// slots between the attached sources and the render destination.
//
// A Registry maps effect type names to a Descriptor holding the factory,
// the default knob values and the controls a front end may offer. A Rack
// builds a unit when its slot is enabled, closes it when the slot is
// disabled, and rebuilds the chain of enabled units after every change.
// Presets are JSON documents naming slots, their knobs and enable state.
package effectchain
