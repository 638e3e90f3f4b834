// Package buffer holds decoded audio: multi-channel float64 sample data at a
// known sample rate, as produced by asset loaders and consumed by the
// sample players and convolvers of the render graph.
package buffer
