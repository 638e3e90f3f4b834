// Package reverb provides the convolution reverb unit and a synthetic
// room impulse generator.
package reverb
