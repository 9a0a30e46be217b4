package rtl

import (
	"math/big"

	"silica/bit"
	"silica/internal/diag"
)

// Alt pairs a bit pattern with the action to elaborate when the
// pattern matches.
//
// Patterns read MSB-first and may contain '0', '1', '_' (don't care)
// and letters naming fields. Spaces are ignored. A letter may appear
// in several runs; its runs concatenate MSB-first into one field, so
// scattered immediates reassemble in the order their pieces appear.
// The action receives the fields in order of first appearance.
type Alt struct {
	pattern string
	action  func(fields []bit.Bit)
}

// Pat builds a match alternative.
func Pat(pattern string, action func(fields []bit.Bit)) Alt {
	return Alt{pattern: pattern, action: action}
}

// Match elaborates each alternative's action under the guard that its
// pattern matches subject. Alternatives are not prioritized; patterns
// that may overlap must be disambiguated by the designer.
func (m *Module) Match(subject bit.Bit, alts ...Alt) {
	m.checkOpen()
	for _, alt := range alts {
		guard, fields := compilePattern(subject, alt.pattern)
		act := alt.action
		m.When(guard, func() {
			if act != nil {
				act(fields)
			}
		})
	}
}

type fieldSegment struct {
	hi, lo int
}

func compilePattern(subject bit.Bit, pattern string) (bit.Bit, []bit.Bit) {
	w := subject.Width()
	cleaned := make([]byte, 0, len(pattern))
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != ' ' {
			cleaned = append(cleaned, pattern[i])
		}
	}
	if len(cleaned) != w {
		diag.Fatalf(diag.WidthMismatch, "pattern %q has %d bits, subject has %d", pattern, len(cleaned), w)
	}

	mask := new(big.Int)
	value := new(big.Int)
	var order []byte
	segments := make(map[byte][]fieldSegment)

	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
		pos := w - 1 - i
		switch {
		case c == '0' || c == '1':
			mask.SetBit(mask, pos, 1)
			if c == '1' {
				value.SetBit(value, pos, 1)
			}
		case c == '_':
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			segs := segments[c]
			if len(segs) > 0 && segs[len(segs)-1].lo == pos+1 {
				segs[len(segs)-1].lo = pos
			} else {
				if len(segs) == 0 {
					order = append(order, c)
				}
				segs = append(segs, fieldSegment{hi: pos, lo: pos})
			}
			segments[c] = segs
		default:
			diag.Fatalf(diag.UnsupportedPrim, "pattern %q has unsupported character %q", pattern, c)
		}
	}

	guard := subject.And(bit.ConstBig(w, mask)).Eq(bit.ConstBig(w, value))
	fields := make([]bit.Bit, 0, len(order))
	for _, c := range order {
		var field bit.Bit
		for i, seg := range segments[c] {
			piece := subject.Bits(seg.hi, seg.lo)
			if i == 0 {
				field = piece
			} else {
				field = field.Concat(piece)
			}
		}
		fields = append(fields, field)
	}
	return guard, fields
}
