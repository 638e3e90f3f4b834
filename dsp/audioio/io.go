package audioio

import (
	"errors"

	"github.com/cwbudde/effectrack/dsp/graph"
)

// ErrChainOptions is returned when options are set on a chained unit.
var ErrChainOptions = errors.New("audioio: chained units do not support options")

// IO is the embeddable base of every effect unit.
type IO struct {
	input  graph.Node
	output graph.Node
}

// NewIO returns a unit around input and output. Both may be the same node.
func NewIO(input, output graph.Node) IO {
	return IO{input: input, output: output}
}

// Input returns the input node.
func (io *IO) Input() graph.Node { return io.input }

// Output returns the output node.
func (io *IO) Output() graph.Node { return io.output }

// Connect routes the unit's output into dst. Absent destinations are
// ignored.
func (io *IO) Connect(dst Endpoint) {
	Connect(Node(io.output), dst)
}

// ConnectParam routes the unit's output into p. A nil param is ignored.
func (io *IO) ConnectParam(p *graph.Param) {
	if p == nil || io.output == nil {
		return
	}

	io.output.ConnectParam(p)
}

// Disconnect detaches the unit's output from every destination.
func (io *IO) Disconnect() {
	if io.output != nil {
		io.output.Disconnect()
	}
}
