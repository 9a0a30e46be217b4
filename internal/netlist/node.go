package netlist

// Node is one vertex of the expression DAG built during elaboration.
// Nodes are value-like: consumers share them freely, and the flattener
// assigns each distinct node exactly one net id.
type Node struct {
	Prim   Prim
	Inputs []*Node
	Width  int
	Hints  Hints
}

// NewNode builds a DAG node. The stated width must already satisfy the
// primitive's width rules; construction-time checking happens in the
// bit package, which owns the user-facing builders.
func NewNode(p Prim, inputs ...*Node) *Node {
	return &Node{Prim: p, Inputs: inputs, Width: OutWidth(p)}
}

// Hints collects naming fragments attached to a node. The mangler
// joins prefixes, roots and suffixes in order when deriving the net's
// Verilog identifier.
type Hints struct {
	Prefixes []string
	Roots    []string
	Suffixes []string
}

// Empty reports whether no fragment is present.
func (h Hints) Empty() bool {
	return len(h.Prefixes) == 0 && len(h.Roots) == 0 && len(h.Suffixes) == 0
}

// AddRoot appends a root fragment.
func (h *Hints) AddRoot(name string) {
	if name != "" {
		h.Roots = append(h.Roots, name)
	}
}

// AddPrefix appends a prefix fragment.
func (h *Hints) AddPrefix(name string) {
	if name != "" {
		h.Prefixes = append(h.Prefixes, name)
	}
}

// AddSuffix appends a suffix fragment.
func (h *Hints) AddSuffix(name string) {
	if name != "" {
		h.Suffixes = append(h.Suffixes, name)
	}
}
