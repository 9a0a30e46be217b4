package netlist

import (
	"fmt"

	"github.com/pkg/errors"
)

// Check verifies the structural invariants of a flattened netlist:
// every input reference resolves, stated widths match the widths the
// primitives demand, and combinational nets only reference lower ids.
// The elaborator establishes these properties by construction; Check
// is the backstop run before emission.
func Check(nl *Netlist) error {
	for _, net := range nl.Nets {
		if err := checkNet(nl, net); err != nil {
			return errors.Wrapf(err, "net %d (%s)", net.ID, net.Prim.PrimName())
		}
	}
	return nil
}

func checkNet(nl *Netlist, net *Net) error {
	for _, ref := range net.Inputs {
		if ref.ID < 0 || ref.ID >= len(nl.Nets) {
			return errors.Errorf("input reference %d out of bounds", ref.ID)
		}
		if !breaksCycles(net.Prim) && ref.ID > net.ID {
			return errors.Errorf("combinational net references later net %d", ref.ID)
		}
	}
	want, ok := inputWidths(net)
	if !ok {
		return nil
	}
	if len(want) != len(net.Inputs) {
		return errors.Errorf("expected %d inputs, got %d", len(want), len(net.Inputs))
	}
	for i, w := range want {
		if w < 0 {
			continue
		}
		got := RefWidth(nl, net.Inputs[i])
		if got != w {
			return errors.Errorf("input %d has width %d, want %d", i, got, w)
		}
	}
	if got := OutWidth(net.Prim); got != net.Width {
		return errors.Errorf("stated width %d does not match primitive width %d", net.Width, got)
	}
	return nil
}

// RefWidth returns the width of the value a reference reads.
func RefWidth(nl *Netlist, ref NetRef) int {
	net := nl.Nets[ref.ID]
	switch p := net.Prim.(type) {
	case BRAM:
		return p.DW
	case Custom:
		for _, out := range p.Outputs {
			if out.Name == ref.Port {
				return out.W
			}
		}
		return 0
	default:
		return net.Width
	}
}

// inputWidths returns the per-input widths a primitive demands. A -1
// entry means any width is legal at that position; ok is false when
// the primitive has no fixed signature to check.
func inputWidths(net *Net) (widths []int, ok bool) {
	w := func(ws ...int) ([]int, bool) { return ws, true }
	switch p := net.Prim.(type) {
	case Add:
		return w(p.W, p.W)
	case Sub:
		return w(p.W, p.W)
	case Mul:
		return w(p.W, p.W)
	case Div:
		return w(p.W, p.W)
	case Mod:
		return w(p.W, p.W)
	case And:
		return w(p.W, p.W)
	case Or:
		return w(p.W, p.W)
	case Xor:
		return w(p.W, p.W)
	case Not:
		return w(p.W)
	case ShiftLeft:
		return w(p.W, -1)
	case ShiftRight:
		return w(p.W, -1)
	case ArithShiftRight:
		return w(p.W, -1)
	case Equal:
		return w(p.W, p.W)
	case NotEqual:
		return w(p.W, p.W)
	case LessThan:
		return w(p.W, p.W)
	case LessThanEq:
		return w(p.W, p.W)
	case ReplicateBit:
		return w(1)
	case ZeroExtend:
		return w(p.InW)
	case SignExtend:
		return w(p.InW)
	case SelectBits:
		return w(p.W)
	case Concat:
		return w(p.AW, p.BW)
	case Identity:
		return w(p.W)
	case Mux:
		ws := make([]int, 1+(1<<p.SelW))
		ws[0] = p.SelW
		for i := 1; i < len(ws); i++ {
			ws[i] = p.W
		}
		return ws, true
	case MergeWrites:
		ws := make([]int, 2*p.N)
		for i := 0; i < p.N; i++ {
			ws[2*i] = 1
			ws[2*i+1] = p.W
		}
		return ws, true
	case Register:
		if p.En {
			return w(1, p.W)
		}
		return w(p.W)
	case BRAM:
		switch p.Kind {
		case BRAMSinglePort:
			return w(p.AW, p.DW, weWidth(p))
		case BRAMDualPort:
			return w(p.AW, p.AW, p.DW, weWidth(p))
		default:
			return w(p.AW, p.DW, weWidth(p), p.AW, p.DW, weWidth(p))
		}
	case RegFileMake:
		return w()
	case RegFileRead:
		return w(p.Info.AW)
	case RegFileWrite:
		return w(1, p.Info.AW, p.Info.DW)
	case Input:
		return w()
	case Output:
		return w(p.W)
	case Const, DontCare, TestPlusArgs:
		return w()
	case Finish:
		return w(1)
	case Assert:
		return w(1, 1)
	case Display:
		return nil, false
	case Custom:
		return nil, false
	default:
		return nil, false
	}
}

func weWidth(p BRAM) int {
	if p.ByteEn {
		return p.DW / 8
	}
	return 1
}

// Describe renders a short human-readable summary of a net, used by
// diagnostics and tests.
func Describe(net *Net) string {
	return fmt.Sprintf("%d:%s/%d", net.ID, net.Prim.PrimName(), net.Width)
}
