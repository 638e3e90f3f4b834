package graph

import "sync"

// DefaultStreamCapacity is the buffered duration of a StreamSource in
// seconds.
const DefaultStreamCapacity = 1.0

// StreamSource renders samples pushed from another goroutine, such as a
// live input device. Underruns render silence; overruns drop the oldest
// samples.
type StreamSource struct {
	node

	mu    sync.Mutex
	ring  []float64
	read  int
	count int

	underruns int
}

// NewStreamSource returns a stream source buffering capacity seconds.
// capacity <= 0 selects DefaultStreamCapacity.
func NewStreamSource(ctx *Context, capacity float64) *StreamSource {
	if capacity <= 0 {
		capacity = DefaultStreamCapacity
	}

	size := max(int(capacity*ctx.cfg.SampleRate), ctx.cfg.BlockSize)

	s := &StreamSource{ring: make([]float64, size)}
	s.init(ctx, s)

	return s
}

// Push appends samples. It is safe to call concurrently with rendering and
// does not need Context.Update.
func (s *StreamSource) Push(samples []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := len(s.ring)
	if len(samples) > size {
		samples = samples[len(samples)-size:]
	}

	for _, x := range samples {
		w := (s.read + s.count) % size
		s.ring[w] = x

		if s.count < size {
			s.count++
		} else {
			s.read = (s.read + 1) % size
		}
	}
}

// Buffered returns the number of samples waiting to be rendered.
func (s *StreamSource) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

// Underruns returns how many quanta could not be filled completely.
func (s *StreamSource) Underruns() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.underruns
}

func (s *StreamSource) process(_ int64, _, out []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := min(len(out), s.count)
	size := len(s.ring)

	for i := range n {
		out[i] = s.ring[(s.read+i)%size]
	}
	clear(out[n:])

	s.read = (s.read + n) % size
	s.count -= n

	if n < len(out) {
		s.underruns++
	}
}
