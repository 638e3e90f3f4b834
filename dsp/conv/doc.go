// Package conv provides linear convolution for the render graph.
//
// [Direct] is the O(N*M) time-domain reference. [Partitioned] is a uniformly
// partitioned, frequency-domain convolver that processes fixed-size blocks
// with no added latency, which is what a real-time convolver node needs:
//
//	c, err := conv.NewPartitioned(impulse, 128)
//	err = c.ProcessBlock(out, in) // len(in) == len(out) == 128
package conv
