package audioio

// Chained is the series connection of several endpoints.
type Chained struct {
	IO

	members []Endpoint
}

// Chain connects the defined endpoints in order and returns the composite
// unit. Absent endpoints are skipped. With no defined endpoint it returns
// (nil, false) and the caller connects its source straight to the sink.
func Chain(endpoints ...Endpoint) (*Chained, bool) {
	var members []Endpoint
	for _, e := range endpoints {
		if !e.IsAbsent() {
			members = append(members, e)
		}
	}

	if len(members) == 0 {
		return nil, false
	}

	for i := 1; i < len(members); i++ {
		Connect(members[i-1], members[i])
	}

	return &Chained{
		IO:      NewIO(members[0].Input(), members[len(members)-1].Output()),
		members: members,
	}, true
}

// Members returns the defined endpoints in order.
func (c *Chained) Members() []Endpoint {
	return c.members
}

// SetOptions always fails: a chain has no parameters of its own.
func (c *Chained) SetOptions(any) error {
	return ErrChainOptions
}

// Dissolve disconnects the output of every member, abandoning the chain's
// internal wiring.
func (c *Chained) Dissolve() {
	for _, m := range c.members {
		if out := m.Output(); out != nil {
			out.Disconnect()
		}
	}
}
