package bit

import (
	"math/big"
	"testing"

	"silica/internal/diag"
	"silica/internal/netlist"
)

func constVal(t *testing.T, b Bit) uint64 {
	t.Helper()
	c, ok := b.Node().Prim.(netlist.Const)
	if !ok {
		t.Fatalf("expected folded constant, got %s", b.Node().Prim.PrimName())
	}
	if !c.Value.IsUint64() {
		t.Fatalf("constant does not fit uint64: %s", c.Value.String())
	}
	return c.Value.Uint64()
}

func expectFatal(t *testing.T, kind diag.Kind, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected fatal %s, got none", kind)
		}
		err, ok := r.(*diag.Error)
		if !ok {
			panic(r)
		}
		if err.Kind != kind {
			t.Fatalf("expected fatal %s, got %v", kind, err)
		}
	}()
	fn()
}

func TestConstTruncatesToWidth(t *testing.T) {
	if got := constVal(t, Const(4, 0x1f)); got != 0xf {
		t.Fatalf("expected 0xf, got %#x", got)
	}
}

func TestArithmeticFolding(t *testing.T) {
	cases := []struct {
		name string
		got  Bit
		want uint64
	}{
		{"add wraps", Const(8, 250).Add(Const(8, 10)), 4},
		{"sub wraps", Const(8, 3).Sub(Const(8, 5)), 254},
		{"mul truncates", Const(8, 16).Mul(Const(8, 17)), 16},
		{"div", Const(8, 100).Div(Const(8, 7)), 14},
		{"mod", Const(8, 100).Mod(Const(8, 7)), 2},
		{"and", Const(8, 0xf0).And(Const(8, 0x3c)), 0x30},
		{"or", Const(8, 0xf0).Or(Const(8, 0x3c)), 0xfc},
		{"xor", Const(8, 0xf0).Xor(Const(8, 0x3c)), 0xcc},
		{"not", Const(8, 0x0f).Not(), 0xf0},
		{"shl", Const(8, 0x81).Shl(Const(3, 1)), 0x02},
		{"shr", Const(8, 0x81).Shr(Const(3, 1)), 0x40},
		{"ashr keeps sign", Const(8, 0x80).AShr(Const(3, 2)), 0xe0},
		{"ashr positive", Const(8, 0x40).AShr(Const(3, 2)), 0x10},
		{"eq", Const(8, 7).Eq(Const(8, 7)), 1},
		{"neq", Const(8, 7).Neq(Const(8, 7)), 0},
		{"lt", Const(8, 3).Lt(Const(8, 7)), 1},
		{"lte", Const(8, 7).Lte(Const(8, 7)), 1},
		{"replicate", Const(1, 1).Replicate(5), 0x1f},
		{"mux", Mux(Const(2, 2), Const(8, 10), Const(8, 20), Const(8, 30), Const(8, 40)), 30},
		{"select true", Select(Const(1, 1), Const(8, 1), Const(8, 2)), 1},
		{"select false", Select(Const(1, 0), Const(8, 1), Const(8, 2)), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := constVal(t, tc.got); got != tc.want {
				t.Fatalf("got %#x, want %#x", got, tc.want)
			}
		})
	}
}

func TestFullMulWidths(t *testing.T) {
	p := Const(8, 200).FullMul(Const(8, 200), false)
	if p.Width() != 16 {
		t.Fatalf("full product width %d, want 16", p.Width())
	}
	if got := constVal(t, p); got != 40000 {
		t.Fatalf("got %d, want 40000", got)
	}

	s := Const(8, 0xff).FullMul(Const(8, 2), true) // -1 * 2
	if got := constVal(t, s); got != 0xfffe {
		t.Fatalf("signed product %#x, want 0xfffe", got)
	}
}

func TestDivByZeroStaysSymbolic(t *testing.T) {
	q := Const(8, 5).Div(Const(8, 0))
	if _, ok := q.Node().Prim.(netlist.Div); !ok {
		t.Fatalf("division by zero must not fold, got %s", q.Node().Prim.PrimName())
	}
}

func TestConcatSelectRoundTrip(t *testing.T) {
	a := Const(8, 0xab)
	b := Const(4, 0xc)
	joined := a.Concat(b)
	if joined.Width() != 12 {
		t.Fatalf("concat width %d, want 12", joined.Width())
	}
	if got := constVal(t, joined.Bits(3, 0)); got != 0xc {
		t.Fatalf("low part %#x, want 0xc", got)
	}
	if got := constVal(t, joined.Bits(11, 4)); got != 0xab {
		t.Fatalf("high part %#x, want 0xab", got)
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	v := Const(8, 0x9a)
	if got := constVal(t, v.ZeroExt(16).Bits(7, 0)); got != 0x9a {
		t.Fatalf("zero extend round trip gave %#x", got)
	}
	if got := constVal(t, v.ZeroExt(16).Bits(15, 8)); got != 0 {
		t.Fatalf("zero extend upper bits %#x, want 0", got)
	}
	if got := constVal(t, v.SignExt(16)); got != 0xff9a {
		t.Fatalf("sign extend gave %#x, want 0xff9a", got)
	}
}

func TestWideConstantFolding(t *testing.T) {
	lo := ConstBig(64, new(big.Int).SetUint64(0xffffffffffffffff))
	hi := Const(64, 1)
	joined := hi.Concat(lo)
	if joined.Width() != 128 {
		t.Fatalf("concat width %d, want 128", joined.Width())
	}
	c, ok := joined.Node().Prim.(netlist.Const)
	if !ok {
		t.Fatalf("expected folded constant")
	}
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	want.Add(want, mask(64))
	if c.Value.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", c.Value.Text(16), want.Text(16))
	}
}

func TestStructuralSharingKeepsPartialConstants(t *testing.T) {
	x := FromNode(netlist.NewNode(netlist.Input{W: 8, Name: "x"}))
	sum := x.Add(Const(8, 1))
	if _, ok := sum.Node().Prim.(netlist.Add); !ok {
		t.Fatalf("partially constant node must stay symbolic")
	}
	if sum.Node().Inputs[0] != x.Node() {
		t.Fatalf("expected shared input node")
	}
}

func TestMuxPadsShortInputList(t *testing.T) {
	sel := FromNode(netlist.NewNode(netlist.Input{W: 2, Name: "sel"}))
	out := Mux(sel, Const(8, 1), Const(8, 2), Const(8, 3))
	if len(out.Node().Inputs) != 5 {
		t.Fatalf("expected selector plus 4 data inputs, got %d", len(out.Node().Inputs))
	}
	last := out.Node().Inputs[4]
	if _, ok := last.Prim.(netlist.DontCare); !ok {
		t.Fatalf("expected don't-care padding, got %s", last.Prim.PrimName())
	}
}

func TestWidthErrors(t *testing.T) {
	expectFatal(t, diag.WidthMismatch, func() {
		Const(8, 1).Add(Const(4, 1))
	})
	expectFatal(t, diag.WidthMismatch, func() {
		Const(0, 1)
	})
	expectFatal(t, diag.WidthMismatch, func() {
		Const(8, 1).ZeroExt(8)
	})
	expectFatal(t, diag.WidthMismatch, func() {
		Const(8, 1).Replicate(4)
	})
	expectFatal(t, diag.WidthMismatch, func() {
		sel := Const(1, 0)
		Mux(sel, Const(8, 1), Const(8, 2), Const(8, 3))
	})
}

func TestSelectBitsRangeErrors(t *testing.T) {
	expectFatal(t, diag.OutOfRange, func() {
		Const(8, 1).Bits(8, 0)
	})
	expectFatal(t, diag.OutOfRange, func() {
		Const(8, 1).Bits(2, 3)
	})
	expectFatal(t, diag.OutOfRange, func() {
		Const(8, 1).Bits(3, -1)
	})
}
