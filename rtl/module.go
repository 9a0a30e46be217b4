// Package rtl is the elaborator: a single-threaded builder that
// records register and wire declarations, conditional assignments
// under an implicit enable guard, and simulation side effects, then
// resolves every variable to a single driving net when the module is
// flattened.
package rtl

import (
	"math/big"

	"silica/bit"
	"silica/internal/diag"
	"silica/internal/netlist"
)

// Module collects one elaboration. Create with New, describe the
// circuit through the builder methods, then call Netlist to run the
// two-pass resolution. A Module is not safe for concurrent use;
// independent elaborations never share state.
type Module struct {
	name string

	vars    []*variable
	guards  []bit.Bit
	assigns []assignment
	events  []*netlist.Node
	outputs []*netlist.Node
	roots   []*netlist.Node

	inputs     map[string]bit.Bit
	inputOrder []*netlist.Node

	regFiles  int
	finalized bool
}

type varKind int

const (
	varReg varKind = iota
	varWire
)

type variable struct {
	id      int
	width   int
	kind    varKind
	init    bit.Bit
	hasInit bool
	hints   netlist.Hints
	node    *netlist.Node
	driver  *netlist.Node
}

type assignment struct {
	guard bit.Bit
	id    int
	rhs   bit.Bit
}

// New starts an empty module named name.
func New(name string) *Module {
	return &Module{
		name:   name,
		inputs: make(map[string]bit.Bit),
	}
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

func (m *Module) checkOpen() {
	if m.finalized {
		diag.Fatalf(diag.DanglingVar, "module %s used after elaboration finished", m.name)
	}
}

func (m *Module) newVar(kind varKind, width int, init bit.Bit, hasInit bool) *variable {
	m.checkOpen()
	v := &variable{
		id:      len(m.vars),
		width:   width,
		kind:    kind,
		init:    init,
		hasInit: hasInit,
	}
	v.node = netlist.NewNode(netlist.VarRef{ID: v.id, W: width})
	m.vars = append(m.vars, v)
	return v
}

func (m *Module) record(v *variable, rhs bit.Bit) {
	m.checkOpen()
	if rhs.Width() != v.width {
		diag.Fatalf(diag.WidthMismatch, "assigning %d bits to a %d-bit variable", rhs.Width(), v.width)
	}
	m.assigns = append(m.assigns, assignment{guard: m.Guard(), id: v.id, rhs: rhs})
}

// Guard returns the current enable expression: the conjunction of all
// enclosing When conditions, constant 1 at top level.
func (m *Module) Guard() bit.Bit {
	if len(m.guards) == 0 {
		return bit.Const(1, 1)
	}
	return m.guards[len(m.guards)-1]
}

// When elaborates body with cond conjoined onto the guard stack.
func (m *Module) When(cond bit.Bit, body func()) {
	m.checkOpen()
	if cond.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "when condition must be 1 bit, got %d", cond.Width())
	}
	m.guards = append(m.guards, m.Guard().And(cond))
	defer func() { m.guards = m.guards[:len(m.guards)-1] }()
	body()
}

// If elaborates then under cond and els under the negation, both under
// the enclosing guard. Either branch may be nil.
func (m *Module) If(cond bit.Bit, then, els func()) {
	if then != nil {
		m.When(cond, then)
	}
	if els != nil {
		m.When(cond.Not(), els)
	}
}

// Reg allocates a register whose reset value is init and whose width
// is init's width.
func (m *Module) Reg(init bit.Bit) *Reg {
	return &Reg{m: m, v: m.newVar(varReg, init.Width(), init, true)}
}

// RegU allocates a w-bit register without a reset value; it powers up
// undefined and is excluded from reset logic.
func (m *Module) RegU(w int) *Reg {
	if w <= 0 {
		diag.Fatalf(diag.WidthMismatch, "register width must be positive, got %d", w)
	}
	return &Reg{m: m, v: m.newVar(varReg, w, bit.Bit{}, false)}
}

// Wire allocates a wire that reads def on cycles where no assignment
// guard is active.
func (m *Module) Wire(def bit.Bit) *Wire {
	return &Wire{m: m, v: m.newVar(varWire, def.Width(), def, true)}
}

// WireU allocates a w-bit wire whose value is undefined on cycles with
// no active assignment.
func (m *Module) WireU(w int) *Wire {
	if w <= 0 {
		diag.Fatalf(diag.WidthMismatch, "wire width must be positive, got %d", w)
	}
	return &Wire{m: m, v: m.newVar(varWire, w, bit.DontCare(w), true)}
}

// Reg is a handle onto a register variable. Reads return the current
// state; assignments take effect on the next rising clock edge, on
// cycles where their guard is active.
type Reg struct {
	m *Module
	v *variable
}

// Val reads the register's current value.
func (r *Reg) Val() bit.Bit { return bit.FromNode(r.v.node) }

// Assign schedules v as the register's next value under the current
// guard. Guards of distinct assignments to one register must be
// mutually exclusive; simultaneous drivers are unspecified.
func (r *Reg) Assign(v bit.Bit) { r.m.record(r.v, v) }

// Named attaches a root name hint to the register's net.
func (r *Reg) Named(name string) *Reg {
	r.v.hints.AddRoot(name)
	return r
}

// Wire is a handle onto a wire variable. Reads and writes resolve
// within the same cycle; the wire carries its default when no
// assignment guard is active.
type Wire struct {
	m      *Module
	v      *variable
	active *Wire
}

// Val reads the wire's resolved value for this cycle.
func (w *Wire) Val() bit.Bit { return bit.FromNode(w.v.node) }

// Assign drives the wire with v under the current guard.
func (w *Wire) Assign(v bit.Bit) {
	w.m.record(w.v, v)
	if w.active != nil {
		w.m.record(w.active.v, bit.Const(1, 1))
	}
}

// Active returns a 1-bit signal that is high on cycles where any
// assignment to the wire is enabled.
func (w *Wire) Active() bit.Bit {
	if w.active == nil {
		w.active = w.m.Wire(bit.Const(1, 0))
		// Replay guards of assignments recorded before tracking began.
		for _, a := range w.m.assigns {
			if a.id == w.v.id {
				w.m.assigns = append(w.m.assigns, assignment{guard: a.guard, id: w.active.v.id, rhs: bit.Const(1, 1)})
			}
		}
	}
	return w.active.Val()
}

// Named attaches a root name hint to the wire's net.
func (w *Wire) Named(name string) *Wire {
	w.v.hints.AddRoot(name)
	return w
}

// Input declares (or retrieves) a w-bit module input port.
func (m *Module) Input(name string, w int) bit.Bit {
	m.checkOpen()
	if in, ok := m.inputs[name]; ok {
		if in.Width() != w {
			diag.Fatalf(diag.WidthMismatch, "input %s redeclared with width %d, have %d", name, w, in.Width())
		}
		return in
	}
	if w <= 0 {
		diag.Fatalf(diag.WidthMismatch, "input %s width must be positive, got %d", name, w)
	}
	node := netlist.NewNode(netlist.Input{W: w, Name: name})
	node.Hints.AddRoot(name)
	in := bit.FromNode(node)
	m.inputs[name] = in
	m.inputOrder = append(m.inputOrder, node)
	return in
}

// Output declares a module output port driven by v.
func (m *Module) Output(name string, v bit.Bit) {
	m.checkOpen()
	m.outputs = append(m.outputs, netlist.NewNode(netlist.Output{W: v.Width(), Name: name}, v.Node()))
}

// Netlist runs pass two: every variable's recorded assignments fold
// into a single driving net, and everything reachable from the
// module's roots is flattened into a creation-ordered netlist.
func (m *Module) Netlist() (nl *netlist.Netlist, err error) {
	defer diag.Recover(&err)
	m.checkOpen()
	m.finalized = true

	byVar := make(map[int][]assignment, len(m.vars))
	for _, a := range m.assigns {
		byVar[a.id] = append(byVar[a.id], a)
	}
	for _, v := range m.vars {
		v.driver = m.buildDriver(v, byVar[v.id])
		v.driver.Hints = v.hints
	}

	drivers := make(map[*netlist.Node]*netlist.Node, len(m.vars))
	for _, v := range m.vars {
		drivers[v.node] = v.driver
	}
	f := netlist.NewFlattener(func(varNode *netlist.Node) *netlist.Node {
		return drivers[varNode]
	})
	for _, in := range m.inputOrder {
		f.Flatten(in)
	}
	for _, v := range m.vars {
		f.Flatten(v.driver)
	}
	for _, r := range m.roots {
		f.Flatten(r)
	}
	for _, e := range m.events {
		f.Flatten(e)
	}
	for _, o := range m.outputs {
		f.Flatten(o)
	}
	return f.Netlist(), nil
}

func (m *Module) buildDriver(v *variable, assigns []assignment) *netlist.Node {
	switch v.kind {
	case varReg:
		return m.buildRegDriver(v, assigns)
	default:
		return m.buildWireDriver(v, assigns)
	}
}

func (m *Module) buildRegDriver(v *variable, assigns []assignment) *netlist.Node {
	prim := netlist.Register{W: v.width}
	if v.hasInit {
		prim.Init = constValue(v.init)
	}
	switch {
	case len(assigns) == 0:
		// Never assigned: the register feeds back on itself.
		return netlist.NewNode(prim, v.node)
	case len(assigns) == 1 && isConstOne(assigns[0].guard):
		return netlist.NewNode(prim, assigns[0].rhs.Node())
	default:
		enable := orGuards(assigns)
		data := mergeAssigns(v.width, assigns)
		prim.En = true
		return netlist.NewNode(prim, enable.Node(), data.Node())
	}
}

func (m *Module) buildWireDriver(v *variable, assigns []assignment) *netlist.Node {
	if len(assigns) == 0 {
		return netlist.NewNode(netlist.Identity{W: v.width}, v.init.Node())
	}
	pairs := make([][2]bit.Bit, 0, len(assigns)+1)
	for _, a := range assigns {
		pairs = append(pairs, [2]bit.Bit{a.guard, a.rhs})
	}
	noneActive := orGuards(assigns).Not()
	pairs = append(pairs, [2]bit.Bit{noneActive, v.init})
	return bit.MergeWrites(v.width, pairs...).Node()
}

func orGuards(assigns []assignment) bit.Bit {
	acc := assigns[0].guard
	for _, a := range assigns[1:] {
		acc = acc.Or(a.guard)
	}
	return acc
}

func mergeAssigns(w int, assigns []assignment) bit.Bit {
	pairs := make([][2]bit.Bit, len(assigns))
	for i, a := range assigns {
		pairs[i] = [2]bit.Bit{a.guard, a.rhs}
	}
	return bit.MergeWrites(w, pairs...)
}

func isConstOne(b bit.Bit) bool {
	c, ok := b.Node().Prim.(netlist.Const)
	return ok && c.W == 1 && c.Value.Sign() != 0
}

func constValue(b bit.Bit) *big.Int {
	c, ok := b.Node().Prim.(netlist.Const)
	if !ok {
		diag.Fatalf(diag.UnsupportedPrim, "register reset value must be a constant, got %s", b.Node().Prim.PrimName())
	}
	return c.Value
}
