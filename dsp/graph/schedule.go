package graph

import (
	"cmp"
	"slices"
)

// schedule is the compiled render order of a context.
type schedule struct {
	order []*node
	// split lists delays inside feedback loops; they are written after
	// every node of the quantum has rendered.
	split []*Delay
}

// compile collects every node that feeds the destination or a running
// source, breaks feedback loops and sorts the result topologically.
func (c *Context) compile() schedule {
	nodes := c.reachable()

	for _, n := range nodes {
		n.muted = false
		if d, ok := n.proc.(*Delay); ok {
			d.split = false
		}
	}

	// Delays inside a loop stop depending on their audio input.
	var split []*Delay
	for _, scc := range tarjan(nodes, (*node).deps) {
		if !isCycle(scc) {
			continue
		}

		for _, n := range scc {
			if d, ok := n.proc.(*Delay); ok {
				d.split = true
				split = append(split, d)
			}
		}
	}

	// Remaining loops have no delay to break them and render silence.
	comp := make(map[*node]int, len(nodes))
	for i, scc := range tarjan(nodes, splitDeps) {
		for _, n := range scc {
			comp[n] = i
		}

		if isCycleWith(scc, splitDeps) {
			for _, n := range scc {
				n.muted = true
			}
		}
	}

	slices.SortFunc(split, func(a, b *Delay) int { return cmp.Compare(a.id, b.id) })

	return schedule{
		order: kahn(nodes, func(n *node, yield func(*node)) {
			splitDeps(n, func(dep *node) {
				if n.muted && comp[dep] == comp[n] {
					return
				}
				yield(dep)
			})
		}),
		split: split,
	}
}

// reachable returns the upstream closure of the destination and of every
// active source, sorted by node id.
func (c *Context) reachable() []*node {
	seen := make(map[*node]bool)

	var stack []*node
	push := func(n *node) {
		if !seen[n] {
			seen[n] = true
			stack = append(stack, n)
		}
	}

	push(&c.dest.node)
	for n := range c.active {
		push(n)
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.deps(push)
	}

	nodes := make([]*node, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}

	slices.SortFunc(nodes, byID)

	return nodes
}

func splitDeps(n *node, yield func(*node)) {
	if d, ok := n.proc.(*Delay); ok && d.split {
		for _, p := range n.params {
			for _, in := range p.inputs {
				yield(in)
			}
		}
		return
	}

	n.deps(yield)
}

func isCycle(scc []*node) bool {
	return isCycleWith(scc, (*node).deps)
}

func isCycleWith(scc []*node, deps func(*node, func(*node))) bool {
	if len(scc) > 1 {
		return true
	}

	self := false
	deps(scc[0], func(d *node) {
		if d == scc[0] {
			self = true
		}
	})

	return self
}

// tarjan returns the strongly connected components of the dependency graph
// restricted to nodes.
func tarjan(nodes []*node, deps func(*node, func(*node))) [][]*node {
	in := make(map[*node]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}

	var (
		index   = make(map[*node]int, len(nodes))
		lowlink = make(map[*node]int, len(nodes))
		onStack = make(map[*node]bool, len(nodes))
		stack   []*node
		next    int
		result  [][]*node
	)

	var visit func(v *node)
	visit = func(v *node) {
		index[v] = next
		lowlink[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		deps(v, func(w *node) {
			if !in[w] {
				return
			}

			if _, ok := index[w]; !ok {
				visit(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		})

		if lowlink[v] != index[v] {
			return
		}

		var scc []*node
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}

		result = append(result, scc)
	}

	for _, n := range nodes {
		if _, ok := index[n]; !ok {
			visit(n)
		}
	}

	return result
}

// kahn orders nodes so that every dependency comes first. Ties are broken
// by creation order to keep rendering deterministic.
func kahn(nodes []*node, deps func(*node, func(*node))) []*node {
	in := make(map[*node]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}

	indeg := make(map[*node]int, len(nodes))
	succ := make(map[*node][]*node, len(nodes))

	for _, n := range nodes {
		deps(n, func(d *node) {
			if !in[d] {
				return
			}
			indeg[n]++
			succ[d] = append(succ[d], n)
		})
	}

	var ready []*node
	for _, n := range nodes {
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]*node, 0, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, s := range succ[n] {
			indeg[s]--
			if indeg[s] == 0 {
				i, _ := slices.BinarySearchFunc(ready, s, byID)
				ready = slices.Insert(ready, i, s)
			}
		}
	}

	return order
}

func byID(a, b *node) int {
	return cmp.Compare(a.id, b.id)
}
