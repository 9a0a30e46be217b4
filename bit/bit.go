// Package bit provides the width-tracked bit-vector expressions at the
// heart of the HDL. Values are immutable handles onto a structurally
// shared DAG; operators allocate nodes, folding constant-only subtrees
// eagerly so the netlist never carries computable work.
package bit

import (
	"math/big"

	"silica/internal/diag"
	"silica/internal/netlist"
)

// Bit is a bit vector of fixed, non-zero width.
type Bit struct {
	node *netlist.Node
}

// Width returns the vector's width in bits.
func (a Bit) Width() int { return a.node.Width }

// Node exposes the underlying DAG node to the elaborator and backend.
func (a Bit) Node() *netlist.Node { return a.node }

// FromNode wraps an existing DAG node.
func FromNode(n *netlist.Node) Bit { return Bit{node: n} }

// Named attaches a root name hint used when the backend derives the
// net's identifier.
func (a Bit) Named(name string) Bit {
	a.node.Hints.AddRoot(name)
	return a
}

// Const builds a W-bit constant from v, truncated to width.
func Const(w int, v uint64) Bit {
	return ConstBig(w, new(big.Int).SetUint64(v))
}

// ConstBig builds a W-bit constant from an arbitrary-precision value,
// truncated to width.
func ConstBig(w int, v *big.Int) Bit {
	checkWidth(w)
	masked := new(big.Int).And(v, mask(w))
	return Bit{node: netlist.NewNode(netlist.Const{W: w, Value: masked})}
}

// DontCare builds a W-bit don't-care value.
func DontCare(w int) Bit {
	checkWidth(w)
	return Bit{node: netlist.NewNode(netlist.DontCare{W: w})}
}

// Sub returns a - b, wrapping at 2^w.
func (a Bit) Sub(b Bit) Bit {
	requireSameWidth("sub", a, b)
	return build(netlist.Sub{W: a.Width()}, a, b)
}

// Add returns a + b, wrapping at 2^w.
func (a Bit) Add(b Bit) Bit {
	requireSameWidth("add", a, b)
	return build(netlist.Add{W: a.Width()}, a, b)
}

// Mul returns the low w bits of a * b.
func (a Bit) Mul(b Bit) Bit {
	requireSameWidth("mul", a, b)
	return build(netlist.Mul{W: a.Width()}, a, b)
}

// FullMul returns the full 2w-bit product. signed selects signed
// operand interpretation.
func (a Bit) FullMul(b Bit, signed bool) Bit {
	requireSameWidth("mul", a, b)
	return build(netlist.Mul{W: a.Width(), Signed: signed, FullWidth: true}, a, b)
}

// Div returns a / b (unsigned).
func (a Bit) Div(b Bit) Bit {
	requireSameWidth("div", a, b)
	return build(netlist.Div{W: a.Width()}, a, b)
}

// Mod returns a % b (unsigned).
func (a Bit) Mod(b Bit) Bit {
	requireSameWidth("mod", a, b)
	return build(netlist.Mod{W: a.Width()}, a, b)
}

// And returns the bitwise conjunction.
func (a Bit) And(b Bit) Bit {
	requireSameWidth("and", a, b)
	return build(netlist.And{W: a.Width()}, a, b)
}

// Or returns the bitwise disjunction.
func (a Bit) Or(b Bit) Bit {
	requireSameWidth("or", a, b)
	return build(netlist.Or{W: a.Width()}, a, b)
}

// Xor returns the bitwise exclusive or.
func (a Bit) Xor(b Bit) Bit {
	requireSameWidth("xor", a, b)
	return build(netlist.Xor{W: a.Width()}, a, b)
}

// Not returns the bitwise complement.
func (a Bit) Not() Bit {
	return build(netlist.Not{W: a.Width()}, a)
}

// Shl shifts left by b, shifting in zeros. The shift amount keeps its
// own width.
func (a Bit) Shl(b Bit) Bit {
	return build(netlist.ShiftLeft{W: a.Width()}, a, b)
}

// Shr shifts right logically by b.
func (a Bit) Shr(b Bit) Bit {
	return build(netlist.ShiftRight{W: a.Width()}, a, b)
}

// AShr shifts right arithmetically by b, replicating the sign bit.
func (a Bit) AShr(b Bit) Bit {
	return build(netlist.ArithShiftRight{W: a.Width()}, a, b)
}

// Eq returns the 1-bit comparison a == b.
func (a Bit) Eq(b Bit) Bit {
	requireSameWidth("eq", a, b)
	return build(netlist.Equal{W: a.Width()}, a, b)
}

// Neq returns the 1-bit comparison a != b.
func (a Bit) Neq(b Bit) Bit {
	requireSameWidth("neq", a, b)
	return build(netlist.NotEqual{W: a.Width()}, a, b)
}

// Lt returns the 1-bit unsigned comparison a < b.
func (a Bit) Lt(b Bit) Bit {
	requireSameWidth("lt", a, b)
	return build(netlist.LessThan{W: a.Width()}, a, b)
}

// Lte returns the 1-bit unsigned comparison a <= b.
func (a Bit) Lte(b Bit) Bit {
	requireSameWidth("le", a, b)
	return build(netlist.LessThanEq{W: a.Width()}, a, b)
}

// Gt returns the 1-bit unsigned comparison a > b.
func (a Bit) Gt(b Bit) Bit { return b.Lt(a) }

// Gte returns the 1-bit unsigned comparison a >= b.
func (a Bit) Gte(b Bit) Bit { return b.Lte(a) }

// Bits extracts bits hi..lo inclusive.
func (a Bit) Bits(hi, lo int) Bit {
	w := a.Width()
	if lo < 0 || hi < lo || hi >= w {
		diag.Fatalf(diag.OutOfRange, "bits [%d:%d] out of range for width %d", hi, lo, w)
	}
	return build(netlist.SelectBits{W: w, Hi: hi, Lo: lo}, a)
}

// Bit extracts the single bit at index i.
func (a Bit) Bit(i int) Bit { return a.Bits(i, i) }

// Concat joins a (high bits) with b (low bits).
func (a Bit) Concat(b Bit) Bit {
	return build(netlist.Concat{AW: a.Width(), BW: b.Width()}, a, b)
}

// ZeroExt widens to w bits with zero fill.
func (a Bit) ZeroExt(w int) Bit {
	if w <= a.Width() {
		diag.Fatalf(diag.WidthMismatch, "zero extend from %d to %d bits", a.Width(), w)
	}
	return build(netlist.ZeroExtend{InW: a.Width(), OutW: w}, a)
}

// SignExt widens to w bits replicating the sign bit.
func (a Bit) SignExt(w int) Bit {
	if w <= a.Width() {
		diag.Fatalf(diag.WidthMismatch, "sign extend from %d to %d bits", a.Width(), w)
	}
	return build(netlist.SignExtend{InW: a.Width(), OutW: w}, a)
}

// Replicate copies a 1-bit value w times.
func (a Bit) Replicate(w int) Bit {
	if a.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "replicate needs a 1-bit input, got %d", a.Width())
	}
	checkWidth(w)
	return build(netlist.ReplicateBit{W: w}, a)
}

// Mux selects ins[sel]. The selector is sel.Width() bits wide; a list
// shorter than 2^selWidth is padded with don't-care branches.
func Mux(sel Bit, ins ...Bit) Bit {
	if len(ins) == 0 {
		diag.Fatalf(diag.WidthMismatch, "mux needs at least one data input")
	}
	selW := sel.Width()
	slots := 1 << selW
	if len(ins) > slots {
		diag.Fatalf(diag.WidthMismatch, "mux has %d inputs but a %d-bit selector addresses %d", len(ins), selW, slots)
	}
	w := ins[0].Width()
	for _, in := range ins[1:] {
		if in.Width() != w {
			diag.Fatalf(diag.WidthMismatch, "mux inputs disagree on width: %d vs %d", w, in.Width())
		}
	}
	args := make([]Bit, 0, 1+slots)
	args = append(args, sel)
	args = append(args, ins...)
	for len(args) < 1+slots {
		args = append(args, DontCare(w))
	}
	return build(netlist.Mux{SelW: selW, W: w}, args...)
}

// Select is the ternary cond ? onTrue : onFalse.
func Select(cond Bit, onTrue, onFalse Bit) Bit {
	if cond.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "select condition must be 1 bit, got %d", cond.Width())
	}
	requireSameWidth("select", onTrue, onFalse)
	return Mux(cond, onFalse, onTrue)
}

// MergeWrites combines enable/value pairs with the OR strategy: each
// value drives when its enable is high, inactive pairs contribute
// zero. The result is don't-care when no pair is given.
func MergeWrites(w int, pairs ...[2]Bit) Bit {
	checkWidth(w)
	if len(pairs) == 0 {
		return DontCare(w)
	}
	args := make([]Bit, 0, 2*len(pairs))
	for _, p := range pairs {
		if p[0].Width() != 1 {
			diag.Fatalf(diag.WidthMismatch, "merge enable must be 1 bit, got %d", p[0].Width())
		}
		if p[1].Width() != w {
			diag.Fatalf(diag.WidthMismatch, "merge value has width %d, want %d", p[1].Width(), w)
		}
		args = append(args, p[0], p[1])
	}
	return build(netlist.MergeWrites{N: len(pairs), W: w}, args...)
}

func build(p netlist.Prim, ins ...Bit) Bit {
	nodes := make([]*netlist.Node, len(ins))
	for i, in := range ins {
		nodes[i] = in.node
	}
	if folded := fold(p, nodes); folded != nil {
		return Bit{node: folded}
	}
	return Bit{node: netlist.NewNode(p, nodes...)}
}

func requireSameWidth(op string, a, b Bit) {
	if a.Width() != b.Width() {
		diag.Fatalf(diag.WidthMismatch, "%s operands have widths %d and %d", op, a.Width(), b.Width())
	}
}

func checkWidth(w int) {
	if w <= 0 {
		diag.Fatalf(diag.WidthMismatch, "bit width must be positive, got %d", w)
	}
}

func mask(w int) *big.Int {
	one := big.NewInt(1)
	return new(big.Int).Sub(new(big.Int).Lsh(one, uint(w)), one)
}
