package rtl

import (
	"silica/bit"
	"silica/internal/diag"
	"silica/internal/netlist"
)

// FmtItem is one element of a display format: a literal string, a
// radix-and-padding-aware value specifier, or a conditional group.
type FmtItem struct {
	items []netlist.FormatItem
	args  []bit.Bit
}

// Str formats a literal string.
func Str(s string) FmtItem {
	return FmtItem{items: []netlist.FormatItem{{Kind: netlist.FormatString, Text: s}}}
}

// Dec formats v in decimal.
func Dec(v bit.Bit) FmtItem { return value(v, netlist.FormatDec) }

// Hex formats v in hexadecimal.
func Hex(v bit.Bit) FmtItem { return value(v, netlist.FormatHex) }

// Bin formats v in binary.
func Bin(v bit.Bit) FmtItem { return value(v, netlist.FormatBin) }

func value(v bit.Bit, radix netlist.FormatRadix) FmtItem {
	return FmtItem{
		items: []netlist.FormatItem{{Kind: netlist.FormatValue, Radix: radix}},
		args:  []bit.Bit{v},
	}
}

// Pad sets a minimum field width on a value specifier.
func (f FmtItem) Pad(n int) FmtItem {
	f.requireValue("Pad")
	f.items[0].Pad = n
	return f
}

// ZeroPad sets a zero-filled minimum field width on a value specifier.
func (f FmtItem) ZeroPad(n int) FmtItem {
	f.requireValue("ZeroPad")
	f.items[0].Pad = n
	f.items[0].ZeroPad = true
	return f
}

func (f FmtItem) requireValue(op string) {
	if len(f.items) != 1 || f.items[0].Kind != netlist.FormatValue {
		diag.Fatalf(diag.UnsupportedPrim, "%s applies to a single value specifier", op)
	}
}

// Cond groups format arguments so they only print on cycles where cond
// is high.
func Cond(cond bit.Bit, args ...interface{}) FmtItem {
	if cond.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "format condition must be 1 bit, got %d", cond.Width())
	}
	inner := formatOf(args)
	out := FmtItem{
		items: []netlist.FormatItem{{Kind: netlist.FormatCondBegin}},
		args:  []bit.Bit{cond},
	}
	out.items = append(out.items, inner.items...)
	out.args = append(out.args, inner.args...)
	out.items = append(out.items, netlist.FormatItem{Kind: netlist.FormatCondEnd})
	return out
}

func formatOf(args []interface{}) FmtItem {
	var out FmtItem
	for _, a := range args {
		var item FmtItem
		switch v := a.(type) {
		case string:
			item = Str(v)
		case bit.Bit:
			item = Dec(v)
		case FmtItem:
			item = v
		default:
			diag.Fatalf(diag.UnsupportedPrim, "cannot display %T", a)
		}
		out.items = append(out.items, item.items...)
		out.args = append(out.args, item.args...)
	}
	return out
}

// Display appends a formatted write event under the current guard.
// Arguments may be strings, Bit values (printed in decimal) or
// FmtItems.
func (m *Module) Display(args ...interface{}) {
	m.checkOpen()
	f := formatOf(args)
	nodes := make([]*netlist.Node, 0, 1+len(f.args))
	nodes = append(nodes, m.Guard().Node())
	for _, a := range f.args {
		nodes = append(nodes, a.Node())
	}
	m.events = append(m.events, netlist.NewNode(netlist.Display{Items: f.items}, nodes...))
}

// Displayln is Display with a trailing newline.
func (m *Module) Displayln(args ...interface{}) {
	m.Display(append(args, "\n")...)
}

// Finish ends simulation under the current guard.
func (m *Module) Finish() {
	m.checkOpen()
	m.events = append(m.events, netlist.NewNode(netlist.Finish{}, m.Guard().Node()))
}

// Assert ends simulation with msg when pred is low on a cycle where
// the current guard is active.
func (m *Module) Assert(pred bit.Bit, msg string) {
	m.checkOpen()
	if pred.Width() != 1 {
		diag.Fatalf(diag.WidthMismatch, "assert predicate must be 1 bit, got %d", pred.Width())
	}
	m.events = append(m.events, netlist.NewNode(netlist.Assert{Msg: msg}, m.Guard().Node(), pred.Node()))
}

// TestPlusArgs samples the simulator's +name plusarg as a 1-bit value.
func (m *Module) TestPlusArgs(name string) bit.Bit {
	m.checkOpen()
	return bit.FromNode(netlist.NewNode(netlist.TestPlusArgs{Name: name}))
}
