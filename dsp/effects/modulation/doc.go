// Package modulation provides the time-varying effect units of the rack.
//
// Included units:
//   - CustomOscillator: unipolar oscillator used as a modulation source.
//   - Flanger: short feedback delay swept by an LFO.
//   - Vibrato: delay line modulated by a sine LFO.
//   - Crossfade: periodic equal-sum fade between two inputs.
package modulation
