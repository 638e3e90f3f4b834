package graph

import (
	"slices"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Node is a vertex of the render graph. All implementations live in this
// package.
type Node interface {
	// Context returns the context the node was created in.
	Context() *Context
	// Connect routes this node's output into dst's input. Connecting twice
	// is a no-op.
	Connect(dst Node)
	// ConnectParam routes this node's output into p, where it is added to
	// the param's intrinsic value.
	ConnectParam(p *Param)
	// Disconnect removes every outgoing connection.
	Disconnect()
	// DisconnectFrom removes the connection to dst, if any.
	DisconnectFrom(dst Node)
	// DisconnectParam removes the connection to p, if any.
	DisconnectParam(p *Param)

	base() *node
}

// processor renders one quantum. in holds the summed input and out must be
// fully overwritten.
type processor interface {
	process(frame int64, in, out []float64)
}

// node carries the state shared by every node type.
type node struct {
	ctx  *Context
	id   int
	proc processor

	inputs    []*node
	outputs   []*node
	paramOuts []*Param
	params    []*Param

	in  []float64
	out []float64

	// muted is set by the scheduler for nodes inside a loop without delay.
	muted bool
}

func (n *node) init(ctx *Context, proc processor) {
	n.ctx = ctx
	n.id = ctx.nextNodeID()
	n.proc = proc
	n.in = make([]float64, ctx.cfg.BlockSize)
	n.out = make([]float64, ctx.cfg.BlockSize)
}

func (n *node) base() *node { return n }

// Context returns the owning context.
func (n *node) Context() *Context { return n.ctx }

// Connect routes the output of n into dst.
func (n *node) Connect(dst Node) {
	d := dst.base()
	if d.ctx != n.ctx {
		panic("graph: cannot connect nodes of different contexts")
	}

	if slices.Contains(n.outputs, d) {
		return
	}

	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)
	n.ctx.invalidate()
}

// ConnectParam routes the output of n into p.
func (n *node) ConnectParam(p *Param) {
	if p.owner.ctx != n.ctx {
		panic("graph: cannot connect nodes of different contexts")
	}

	if slices.Contains(n.paramOuts, p) {
		return
	}

	n.paramOuts = append(n.paramOuts, p)
	p.inputs = append(p.inputs, n)
	n.ctx.invalidate()
}

// Disconnect removes all outgoing connections of n.
func (n *node) Disconnect() {
	if len(n.outputs) == 0 && len(n.paramOuts) == 0 {
		return
	}

	for _, d := range n.outputs {
		d.inputs = removeNode(d.inputs, n)
	}

	for _, p := range n.paramOuts {
		p.inputs = removeNode(p.inputs, n)
	}

	n.outputs = nil
	n.paramOuts = nil
	n.ctx.invalidate()
}

// DisconnectFrom removes the edge from n to dst.
func (n *node) DisconnectFrom(dst Node) {
	d := dst.base()
	if !slices.Contains(n.outputs, d) {
		return
	}

	n.outputs = removeNode(n.outputs, d)
	d.inputs = removeNode(d.inputs, n)
	n.ctx.invalidate()
}

// DisconnectParam removes the edge from n to p.
func (n *node) DisconnectParam(p *Param) {
	if !slices.Contains(n.paramOuts, p) {
		return
	}

	n.paramOuts = slices.DeleteFunc(n.paramOuts, func(q *Param) bool { return q == p })
	p.inputs = removeNode(p.inputs, n)
	n.ctx.invalidate()
}

// mixInputs sums the outputs of all inputs into n.in.
func (n *node) mixInputs() {
	switch len(n.inputs) {
	case 0:
		clear(n.in)
	case 1:
		copy(n.in, n.inputs[0].out)
	default:
		copy(n.in, n.inputs[0].out)
		for _, src := range n.inputs[1:] {
			vecmath.AddBlockInPlace(n.in, src.out)
		}
	}
}

// deps returns the nodes that must be rendered before n.
func (n *node) deps(yield func(*node)) {
	for _, in := range n.inputs {
		yield(in)
	}

	for _, p := range n.params {
		for _, in := range p.inputs {
			yield(in)
		}
	}
}

func (n *node) render(frame int64) {
	if n.muted {
		clear(n.out)
		return
	}

	n.mixInputs()

	for _, p := range n.params {
		p.compute(frame)
	}

	n.proc.process(frame, n.in, n.out)
}

func removeNode(list []*node, n *node) []*node {
	return slices.DeleteFunc(list, func(m *node) bool { return m == n })
}
