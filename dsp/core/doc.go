// Package core holds the numeric helpers and processor configuration shared
// by the rest of the module: clamping, [0, 1] knob mapping and the render
// settings every graph context is created from.
package core
