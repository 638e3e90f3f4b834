package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Partitioned is a uniformly partitioned overlap-save convolver.
//
// The kernel is cut into partitions of blockSize samples whose spectra are
// precomputed. Each call to ProcessBlock transforms the most recent input
// window once, pushes it into a frequency-domain delay line and accumulates
// the products with every kernel partition. Output sample n depends on
// input samples up to n, so the convolver adds no latency.
type Partitioned struct {
	blockSize int
	fftSize   int
	kernelLen int

	plan *algofft.Plan[complex128]

	kernelSpectra [][]complex128
	// fdl holds past input spectra; fdl[head] is the newest.
	fdl  [][]complex128
	head int

	window  []float64
	scratch []complex128
	acc     []complex128
}

// NewPartitioned prepares a convolver for kernel and a fixed block size.
func NewPartitioned(kernel []float64, blockSize int) (*Partitioned, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	fftSize := nextPowerOf2(2 * blockSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	partitions := (len(kernel) + blockSize - 1) / blockSize

	p := &Partitioned{
		blockSize:     blockSize,
		fftSize:       fftSize,
		kernelLen:     len(kernel),
		plan:          plan,
		kernelSpectra: make([][]complex128, partitions),
		fdl:           make([][]complex128, partitions),
		window:        make([]float64, fftSize),
		scratch:       make([]complex128, fftSize),
		acc:           make([]complex128, fftSize),
	}

	for i := range p.kernelSpectra {
		start := i * blockSize
		end := min(start+blockSize, len(kernel))

		padded := make([]complex128, fftSize)
		for j, v := range kernel[start:end] {
			padded[j] = complex(v, 0)
		}

		spectrum := make([]complex128, fftSize)
		if err := plan.Forward(spectrum, padded); err != nil {
			return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
		}

		p.kernelSpectra[i] = spectrum
		p.fdl[i] = make([]complex128, fftSize)
	}

	return p, nil
}

// BlockSize returns the number of samples consumed per ProcessBlock call.
func (p *Partitioned) BlockSize() int { return p.blockSize }

// KernelLen returns the kernel length.
func (p *Partitioned) KernelLen() int { return p.kernelLen }

// Partitions returns the number of kernel partitions.
func (p *Partitioned) Partitions() int { return len(p.kernelSpectra) }

// ProcessBlock convolves one block. dst and src must both have BlockSize()
// samples and may alias.
func (p *Partitioned) ProcessBlock(dst, src []float64) error {
	if len(src) != p.blockSize || len(dst) != p.blockSize {
		return fmt.Errorf("%w: want %d, got src=%d dst=%d",
			ErrLengthMismatch, p.blockSize, len(src), len(dst))
	}

	// Slide the input window and append the new block.
	copy(p.window, p.window[p.blockSize:])
	copy(p.window[p.fftSize-p.blockSize:], src)

	for i, v := range p.window {
		p.scratch[i] = complex(v, 0)
	}

	p.head--
	if p.head < 0 {
		p.head = len(p.fdl) - 1
	}

	if err := p.plan.Forward(p.fdl[p.head], p.scratch); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	clear(p.acc)

	for k, h := range p.kernelSpectra {
		x := p.fdl[(p.head+k)%len(p.fdl)]
		for i := range p.acc {
			p.acc[i] += x[i] * h[i]
		}
	}

	if err := p.plan.Inverse(p.scratch, p.acc); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	tail := p.scratch[p.fftSize-p.blockSize:]
	for i := range dst {
		dst[i] = real(tail[i])
	}

	return nil
}

// Reset clears all input history.
func (p *Partitioned) Reset() {
	clear(p.window)
	for _, s := range p.fdl {
		clear(s)
	}
	p.head = 0
}
