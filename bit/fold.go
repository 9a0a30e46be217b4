package bit

import (
	"math/big"

	"silica/internal/netlist"
)

// fold evaluates a primitive whose inputs are all constants, returning
// the folded Const node, or nil when the node must stay symbolic. The
// arithmetic here is the reference semantics the Verilog backend must
// agree with bit for bit.
func fold(p netlist.Prim, ins []*netlist.Node) *netlist.Node {
	vals := make([]*big.Int, len(ins))
	for i, in := range ins {
		c, ok := in.Prim.(netlist.Const)
		if !ok {
			return nil
		}
		vals[i] = c.Value
	}
	v, w, ok := eval(p, vals)
	if !ok {
		return nil
	}
	return netlist.NewNode(netlist.Const{W: w, Value: new(big.Int).And(v, mask(w))})
}

func eval(p netlist.Prim, vals []*big.Int) (v *big.Int, w int, ok bool) {
	switch pr := p.(type) {
	case netlist.Add:
		return new(big.Int).Add(vals[0], vals[1]), pr.W, true
	case netlist.Sub:
		return new(big.Int).Sub(vals[0], vals[1]), pr.W, true
	case netlist.Mul:
		a, b := vals[0], vals[1]
		if pr.Signed {
			a = toSigned(a, pr.W)
			b = toSigned(b, pr.W)
		}
		out := pr.W
		if pr.FullWidth {
			out = 2 * pr.W
		}
		return new(big.Int).Mul(a, b), out, true
	case netlist.Div:
		if vals[1].Sign() == 0 {
			return nil, 0, false
		}
		return new(big.Int).Quo(vals[0], vals[1]), pr.W, true
	case netlist.Mod:
		if vals[1].Sign() == 0 {
			return nil, 0, false
		}
		return new(big.Int).Rem(vals[0], vals[1]), pr.W, true
	case netlist.And:
		return new(big.Int).And(vals[0], vals[1]), pr.W, true
	case netlist.Or:
		return new(big.Int).Or(vals[0], vals[1]), pr.W, true
	case netlist.Xor:
		return new(big.Int).Xor(vals[0], vals[1]), pr.W, true
	case netlist.Not:
		return new(big.Int).Xor(vals[0], mask(pr.W)), pr.W, true
	case netlist.ShiftLeft:
		return shiftValue(vals[0], vals[1], pr.W, func(a *big.Int, n uint) *big.Int {
			return new(big.Int).Lsh(a, n)
		}), pr.W, true
	case netlist.ShiftRight:
		return shiftValue(vals[0], vals[1], pr.W, func(a *big.Int, n uint) *big.Int {
			return new(big.Int).Rsh(a, n)
		}), pr.W, true
	case netlist.ArithShiftRight:
		signed := toSigned(vals[0], pr.W)
		n := shiftAmount(vals[1], pr.W)
		return new(big.Int).Rsh(signed, n), pr.W, true
	case netlist.Equal:
		return boolBit(vals[0].Cmp(vals[1]) == 0), 1, true
	case netlist.NotEqual:
		return boolBit(vals[0].Cmp(vals[1]) != 0), 1, true
	case netlist.LessThan:
		return boolBit(vals[0].Cmp(vals[1]) < 0), 1, true
	case netlist.LessThanEq:
		return boolBit(vals[0].Cmp(vals[1]) <= 0), 1, true
	case netlist.ReplicateBit:
		if vals[0].Sign() == 0 {
			return big.NewInt(0), pr.W, true
		}
		return mask(pr.W), pr.W, true
	case netlist.ZeroExtend:
		return vals[0], pr.OutW, true
	case netlist.SignExtend:
		return toSigned(vals[0], pr.InW), pr.OutW, true
	case netlist.SelectBits:
		return new(big.Int).Rsh(vals[0], uint(pr.Lo)), pr.Hi - pr.Lo + 1, true
	case netlist.Concat:
		hi := new(big.Int).Lsh(vals[0], uint(pr.BW))
		return hi.Or(hi, vals[1]), pr.AW + pr.BW, true
	case netlist.Identity:
		return vals[0], pr.W, true
	case netlist.Mux:
		sel := vals[0]
		idx := 0
		if sel.IsUint64() {
			idx = int(sel.Uint64())
		}
		return vals[1+idx], pr.W, true
	case netlist.MergeWrites:
		acc := big.NewInt(0)
		for i := 0; i < pr.N; i++ {
			if vals[2*i].Sign() != 0 {
				acc.Or(acc, vals[2*i+1])
			}
		}
		return acc, pr.W, true
	default:
		return nil, 0, false
	}
}

// toSigned reinterprets a w-bit unsigned value as two's complement.
func toSigned(v *big.Int, w int) *big.Int {
	if v.Bit(w-1) == 0 {
		return v
	}
	return new(big.Int).Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(w)))
}

func shiftAmount(v *big.Int, w int) uint {
	if !v.IsUint64() || v.Uint64() > uint64(w) {
		return uint(w)
	}
	return uint(v.Uint64())
}

func shiftValue(a, b *big.Int, w int, shift func(*big.Int, uint) *big.Int) *big.Int {
	return shift(a, shiftAmount(b, w))
}

func boolBit(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
