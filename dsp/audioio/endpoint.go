package audioio

import "github.com/cwbudde/effectrack/dsp/graph"

// Unit is a processing unit with one input and one output connection point.
type Unit interface {
	Input() graph.Node
	Output() graph.Node
}

// Endpoint is one of: absent, a raw node or a unit. The zero Endpoint is
// absent.
type Endpoint struct {
	node graph.Node
	unit Unit
}

// None is the absent endpoint.
var None Endpoint

// Node returns an endpoint for a raw node. A nil node gives None.
func Node(n graph.Node) Endpoint {
	if n == nil {
		return None
	}

	return Endpoint{node: n}
}

// Of returns an endpoint for a unit. A nil unit gives None; typed nil
// pointers must be filtered by the caller.
func Of(u Unit) Endpoint {
	if u == nil {
		return None
	}

	return Endpoint{unit: u}
}

// IsAbsent reports whether e refers to nothing.
func (e Endpoint) IsAbsent() bool {
	return e.node == nil && e.unit == nil
}

// Unit returns the wrapped unit, if e is one.
func (e Endpoint) Unit() (Unit, bool) {
	return e.unit, e.unit != nil
}

// Input returns the node that receives audio sent to e, or nil.
func (e Endpoint) Input() graph.Node {
	if e.unit != nil {
		return e.unit.Input()
	}

	return e.node
}

// Output returns the node that produces e's audio, or nil.
func (e Endpoint) Output() graph.Node {
	if e.unit != nil {
		return e.unit.Output()
	}

	return e.node
}

// Connect routes src into dst. Absent endpoints make it a no-op.
func Connect(src, dst Endpoint) {
	out, in := src.Output(), dst.Input()
	if out == nil || in == nil {
		return
	}

	out.Connect(in)
}

// DisconnectFrom removes the route from src into dst, if any.
func DisconnectFrom(src, dst Endpoint) {
	out, in := src.Output(), dst.Input()
	if out == nil || in == nil {
		return
	}

	out.DisconnectFrom(in)
}
