package netlist

import (
	"fmt"

	"silica/internal/diag"
)

// NetRef points at another net, optionally through a named output
// port. Port is empty for single-output primitives.
type NetRef struct {
	ID   int
	Port string
}

// Net is the flattened form of a node: a numbered primitive instance
// with resolved input references.
type Net struct {
	ID     int
	Prim   Prim
	Inputs []NetRef
	Width  int
	Hints  Hints
}

// Netlist is the dense, creation-ordered array of nets produced by one
// elaboration. Net ids index directly into Nets.
type Netlist struct {
	Nets []*Net
}

// Resolver maps a variable placeholder node to its driving node. The
// elaborator installs one for pass two, keyed by node identity, so a
// handle that escaped from another elaboration resolves to nil and is
// reported rather than silently aliased.
type Resolver func(varNode *Node) *Node

// Flattener transcribes nodes into nets, memoized by node identity so
// shared subtrees materialize once. Equal-valued constants are
// additionally interned by value.
type Flattener struct {
	nl      *Netlist
	memo    map[*Node]NetRef
	consts  map[string]NetRef
	onStack map[*Node]bool
	resolve Resolver
}

// NewFlattener returns a flattener appending into an empty netlist.
func NewFlattener(resolve Resolver) *Flattener {
	return &Flattener{
		nl:      &Netlist{},
		memo:    make(map[*Node]NetRef),
		consts:  make(map[string]NetRef),
		onStack: make(map[*Node]bool),
		resolve: resolve,
	}
}

// Netlist returns the netlist built so far.
func (f *Flattener) Netlist() *Netlist { return f.nl }

// Flatten materializes n and all nodes reachable from it, returning
// n's net reference. Sequential primitives allocate their id before
// their inputs so feedback through state is representable; a cycle
// through purely combinational nodes is fatal.
func (f *Flattener) Flatten(n *Node) NetRef {
	if n == nil {
		diag.Fatalf(diag.DanglingVar, "nil node reached the flattener")
	}
	if ref, ok := f.memo[n]; ok {
		return ref
	}
	if t, ok := n.Prim.(Tap); ok {
		ref := f.Flatten(n.Inputs[0])
		ref.Port = t.Port
		f.memo[n] = ref
		return ref
	}
	if v, ok := n.Prim.(VarRef); ok {
		var driver *Node
		if f.resolve != nil {
			driver = f.resolve(n)
		}
		if driver == nil {
			diag.Fatalf(diag.DanglingVar, "variable v%d read outside its elaboration scope", v.ID)
		}
		ref := f.Flatten(driver)
		f.memo[n] = ref
		return ref
	}
	if c, ok := n.Prim.(Const); ok {
		key := fmt.Sprintf("%d'%s", c.W, c.Value.Text(16))
		if ref, hit := f.consts[key]; hit {
			f.memo[n] = ref
			return ref
		}
		net := f.alloc(n)
		ref := NetRef{ID: net.ID}
		f.consts[key] = ref
		f.memo[n] = ref
		return ref
	}
	if f.onStack[n] {
		diag.Fatalf(diag.DanglingVar, "combinational cycle through %s net", n.Prim.PrimName())
	}

	if breaksCycles(n.Prim) {
		// Allocate the id first; state feedback may reference it. The
		// inputs start a fresh cycle search: a path through state is not
		// a combinational cycle.
		net := f.alloc(n)
		f.memo[n] = NetRef{ID: net.ID}
		outer := f.onStack
		f.onStack = make(map[*Node]bool)
		net.Inputs = f.flattenInputs(n)
		f.onStack = outer
		return NetRef{ID: net.ID}
	}

	f.onStack[n] = true
	inputs := f.flattenInputs(n)
	delete(f.onStack, n)
	if ref, ok := f.memo[n]; ok {
		// Already materialized through a register input reached from
		// below this node.
		return ref
	}

	net := f.alloc(n)
	net.Inputs = inputs
	ref := NetRef{ID: net.ID}
	f.memo[n] = ref
	return ref
}

func (f *Flattener) flattenInputs(n *Node) []NetRef {
	if len(n.Inputs) == 0 {
		return nil
	}
	refs := make([]NetRef, len(n.Inputs))
	for i, in := range n.Inputs {
		refs[i] = f.Flatten(in)
	}
	return refs
}

func (f *Flattener) alloc(n *Node) *Net {
	net := &Net{
		ID:    len(f.nl.Nets),
		Prim:  n.Prim,
		Width: n.Width,
		Hints: n.Hints,
	}
	f.nl.Nets = append(f.nl.Nets, net)
	return net
}

func breaksCycles(p Prim) bool {
	switch pr := p.(type) {
	case Register, BRAM:
		return true
	case Custom:
		return pr.Clocked
	default:
		return false
	}
}

// Boundary returns the Input and Output nets in netlist order,
// deduplicated by port name keeping the first occurrence.
func (nl *Netlist) Boundary() []*Net {
	seen := make(map[string]bool)
	var ports []*Net
	for _, net := range nl.Nets {
		var name string
		switch p := net.Prim.(type) {
		case Input:
			name = p.Name
		case Output:
			name = p.Name
		default:
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		ports = append(ports, net)
	}
	return ports
}
