// Package verilog lowers a flattened netlist to synthesizable
// Verilog-2005 text. The printer walks the nets in id order, once each
// for declarations, continuous assigns and the always block, so output
// is byte-identical across runs for identical netlists.
package verilog

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"silica/internal/diag"
	"silica/internal/netlist"
)

// Print writes the Verilog module for nl to w.
func Print(w io.Writer, moduleName string, nl *netlist.Netlist) error {
	p := &printer{
		w:  w,
		nl: nl,
		mg: netlist.NewMangler(nl),
	}
	p.module(moduleName)
	return p.err
}

type printer struct {
	w      io.Writer
	nl     *netlist.Netlist
	mg     *netlist.Mangler
	indent int
	err    error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, strings.Repeat("  ", p.indent)+format, args...)
}

func (p *printer) name(net *netlist.Net) string { return p.mg.Name(net.ID) }

func (p *printer) ref(net *netlist.Net, i int) string {
	return p.mg.RefName(net.Inputs[i])
}

func (p *printer) newline() {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, "\n")
}

func (p *printer) module(moduleName string) {
	p.header(moduleName)
	p.indent++
	p.newline()
	for _, net := range p.nl.Nets {
		p.declare(net)
	}
	p.newline()
	for _, net := range p.nl.Nets {
		p.drive(net)
	}
	p.newline()
	p.always()
	p.indent--
	p.printf("endmodule\n")
}

func (p *printer) header(moduleName string) {
	ports := []string{"input wire clock", "input wire reset"}
	for _, net := range p.nl.Boundary() {
		switch prim := net.Prim.(type) {
		case netlist.Input:
			ports = append(ports, "input wire "+rng(prim.W)+prim.Name)
		case netlist.Output:
			ports = append(ports, "output wire "+rng(prim.W)+prim.Name)
		}
	}
	p.printf("module %s(\n", moduleName)
	for i, port := range ports {
		sep := ","
		if i == len(ports)-1 {
			sep = ""
		}
		p.printf("  %s%s\n", port, sep)
	}
	p.printf(");\n")
}

// rng renders the vector range of a width, empty for single bits.
func rng(w int) string {
	if w <= 1 {
		return ""
	}
	return fmt.Sprintf("[%d:0] ", w-1)
}

func (p *printer) declare(net *netlist.Net) {
	name := p.name(net)
	switch prim := net.Prim.(type) {
	case netlist.Const:
		p.printf("wire %s%s = %d'h%s;\n", rng(prim.W), name, prim.W, prim.Value.Text(16))
	case netlist.DontCare:
		p.printf("wire %s%s = %d'b%s;\n", rng(prim.W), name, prim.W, strings.Repeat("x", prim.W))
	case netlist.Register:
		p.printf("reg %s%s;\n", rng(prim.W), name)
	case netlist.Mux:
		if prim.SelW > 1 {
			p.muxFunction(net, prim)
		} else {
			p.printf("wire %s%s;\n", rng(prim.W), name)
		}
	case netlist.BRAM:
		switch prim.Kind {
		case netlist.BRAMTrueDualPort:
			p.printf("wire %s%s_DO_A;\n", rng(prim.DW), name)
			p.printf("wire %s%s_DO_B;\n", rng(prim.DW), name)
		default:
			p.printf("wire %s%s_DO;\n", rng(prim.DW), name)
		}
	case netlist.RegFileMake:
		p.printf("reg %srf_%d[0:%d];\n", rng(prim.Info.DW), prim.Info.ID, (1<<prim.Info.AW)-1)
		if prim.Info.InitFile != "" {
			p.printf("generate initial $readmemh(\"%s\", rf_%d); endgenerate\n", prim.Info.InitFile, prim.Info.ID)
		}
	case netlist.Custom:
		for _, out := range prim.Outputs {
			p.printf("wire %s%s_%s;\n", rng(out.W), name, out.Name)
		}
	case netlist.Output, netlist.RegFileWrite, netlist.Display, netlist.Finish, netlist.Assert:
		// No storage; these live in the always block or the port list.
	default:
		if net.Width > 0 {
			p.printf("wire %s%s;\n", rng(net.Width), name)
		}
	}
}

// muxFunction declares the case-based selector function for a mux
// with a selector wider than one bit.
func (p *printer) muxFunction(net *netlist.Net, prim netlist.Mux) {
	name := p.name(net)
	p.printf("wire %s%s;\n", rng(prim.W), name)
	p.printf("function %s%s_f;\n", rng(prim.W), name)
	p.indent++
	p.printf("input %ssel;\n", rng(prim.SelW))
	for i := 1; i < len(net.Inputs); i++ {
		p.printf("input %sin%d;\n", rng(prim.W), i-1)
	}
	p.printf("case (sel)\n")
	p.indent++
	for i := 1; i < len(net.Inputs); i++ {
		p.printf("%d: %s_f = in%d;\n", i-1, name, i-1)
	}
	p.printf("default: %s_f = %d'b%s;\n", name, prim.W, strings.Repeat("x", prim.W))
	p.indent--
	p.printf("endcase\n")
	p.indent--
	p.printf("endfunction\n")
}

// drive emits the continuous assign or instance for one net.
func (p *printer) drive(net *netlist.Net) {
	name := p.name(net)
	in := func(i int) string { return p.ref(net, i) }
	assign := func(expr string, args ...interface{}) {
		p.printf("assign %s = "+expr+";\n", append([]interface{}{name}, args...)...)
	}
	switch prim := net.Prim.(type) {
	case netlist.Add:
		assign("%s + %s", in(0), in(1))
	case netlist.Sub:
		assign("%s - %s", in(0), in(1))
	case netlist.Mul:
		if prim.Signed {
			assign("$signed(%s) * $signed(%s)", in(0), in(1))
		} else {
			assign("%s * %s", in(0), in(1))
		}
	case netlist.Div:
		assign("%s / %s", in(0), in(1))
	case netlist.Mod:
		assign("%s %% %s", in(0), in(1))
	case netlist.And:
		assign("%s & %s", in(0), in(1))
	case netlist.Or:
		assign("%s | %s", in(0), in(1))
	case netlist.Xor:
		assign("%s ^ %s", in(0), in(1))
	case netlist.Not:
		assign("~%s", in(0))
	case netlist.ShiftLeft:
		assign("%s << %s", in(0), in(1))
	case netlist.ShiftRight:
		assign("%s >> %s", in(0), in(1))
	case netlist.ArithShiftRight:
		assign("$signed(%s) >>> %s", in(0), in(1))
	case netlist.Equal:
		assign("%s == %s", in(0), in(1))
	case netlist.NotEqual:
		assign("%s != %s", in(0), in(1))
	case netlist.LessThan:
		assign("%s < %s", in(0), in(1))
	case netlist.LessThanEq:
		assign("%s <= %s", in(0), in(1))
	case netlist.ReplicateBit:
		assign("{%d{%s}}", prim.W, in(0))
	case netlist.ZeroExtend:
		assign("{{%d{1'b0}}, %s}", prim.OutW-prim.InW, in(0))
	case netlist.SignExtend:
		assign("{{%d{%s[%d]}}, %s}", prim.OutW-prim.InW, in(0), prim.InW-1, in(0))
	case netlist.SelectBits:
		if prim.Hi == prim.Lo {
			assign("%s[%d]", in(0), prim.Hi)
		} else {
			assign("%s[%d:%d]", in(0), prim.Hi, prim.Lo)
		}
	case netlist.Concat:
		assign("{%s, %s}", in(0), in(1))
	case netlist.Identity:
		assign("%s", in(0))
	case netlist.Mux:
		if prim.SelW == 1 {
			assign("%s ? %s : %s", in(0), in(2), in(1))
		} else {
			args := make([]string, 0, len(net.Inputs))
			for i := range net.Inputs {
				args = append(args, in(i))
			}
			assign("%s_f(%s)", name, strings.Join(args, ", "))
		}
	case netlist.MergeWrites:
		terms := make([]string, prim.N)
		for i := 0; i < prim.N; i++ {
			terms[i] = fmt.Sprintf("({%d{%s}} & %s)", prim.W, in(2*i), in(2*i+1))
		}
		assign("%s", strings.Join(terms, " | "))
	case netlist.RegFileRead:
		assign("rf_%d[%s]", prim.Info.ID, in(0))
	case netlist.Input:
		assign("%s", prim.Name)
	case netlist.Output:
		p.printf("assign %s = %s;\n", prim.Name, in(0))
	case netlist.TestPlusArgs:
		assign("$test$plusargs(\"%s\") == 0 ? 0 : 1", prim.Name)
	case netlist.BRAM:
		p.bramInstance(net, prim)
	case netlist.Custom:
		p.customInstance(net, prim)
	case netlist.Const, netlist.DontCare, netlist.Register,
		netlist.RegFileMake, netlist.RegFileWrite,
		netlist.Display, netlist.Finish, netlist.Assert:
		// Declared inline or handled in the always block.
	default:
		diag.Fatalf(diag.UnsupportedPrim, "cannot emit net %s", netlist.Describe(net))
	}
}

func (p *printer) bramInstance(net *netlist.Net, prim netlist.BRAM) {
	name := p.name(net)
	in := func(i int) string { return p.ref(net, i) }
	params := []string{
		fmt.Sprintf(".INIT_FILE(%s)", initFileParam(prim.InitFile)),
		fmt.Sprintf(".ADDR_WIDTH(%d)", prim.AW),
		fmt.Sprintf(".DATA_WIDTH(%d)", prim.DW),
	}
	switch prim.Kind {
	case netlist.BRAMSinglePort:
		p.printf("BlockRAM #(%s) %s_inst (.CLK(clock), .ADDR(%s), .DI(%s), .WE(%s), .DO(%s_DO));\n",
			strings.Join(params, ", "), name, in(0), in(1), in(2), name)
	case netlist.BRAMDualPort:
		p.printf("BlockRAMDual #(%s) %s_inst (.CLK(clock), .RD_ADDR(%s), .WR_ADDR(%s), .DI(%s), .WE(%s), .DO(%s_DO));\n",
			strings.Join(params, ", "), name, in(0), in(1), in(2), in(3), name)
	case netlist.BRAMTrueDualPort:
		p.printf("BlockRAMTrueDual #(%s) %s_inst (.CLK(clock), "+
			".ADDR_A(%s), .DI_A(%s), .WE_A(%s), .DO_A(%s_DO_A), "+
			".ADDR_B(%s), .DI_B(%s), .WE_B(%s), .DO_B(%s_DO_B));\n",
			strings.Join(params, ", "), name,
			in(0), in(1), in(2), name,
			in(3), in(4), in(5), name)
	}
}

func initFileParam(f string) string {
	if f == "" {
		return "\"UNUSED\""
	}
	return "\"" + f + "\""
}

func (p *printer) customInstance(net *netlist.Net, prim netlist.Custom) {
	name := p.name(net)
	var bindings []string
	if prim.Clocked {
		bindings = append(bindings, ".clock(clock)")
	}
	if prim.Resetable {
		bindings = append(bindings, ".reset(reset)")
	}
	for i, portName := range prim.InputNames {
		bindings = append(bindings, fmt.Sprintf(".%s(%s)", portName, p.ref(net, i)))
	}
	for _, out := range prim.Outputs {
		bindings = append(bindings, fmt.Sprintf(".%s(%s_%s)", out.Name, name, out.Name))
	}
	paramText := ""
	if len(prim.Params) > 0 {
		keys := make([]string, 0, len(prim.Params))
		for k := range prim.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf(".%s(%s)", k, prim.Params[k])
		}
		paramText = "#(" + strings.Join(pairs, ", ") + ") "
	}
	p.printf("%s %s%s_inst (%s);\n", prim.Name, paramText, name, strings.Join(bindings, ", "))
}

// always emits the single posedge block holding reset logic, register
// updates, register file writes, and simulation side effects.
func (p *printer) always() {
	p.printf("always @(posedge clock) begin\n")
	p.indent++
	p.printf("if (reset) begin\n")
	p.indent++
	for _, net := range p.nl.Nets {
		if prim, ok := net.Prim.(netlist.Register); ok && prim.Init != nil {
			p.printf("%s <= %d'h%s;\n", p.name(net), prim.W, prim.Init.Text(16))
		}
	}
	p.indent--
	p.printf("end else begin\n")
	p.indent++
	for _, net := range p.nl.Nets {
		p.sequential(net)
	}
	p.indent--
	p.printf("end\n")
	p.indent--
	p.printf("end\n")
}

func (p *printer) sequential(net *netlist.Net) {
	name := p.name(net)
	in := func(i int) string { return p.ref(net, i) }
	switch prim := net.Prim.(type) {
	case netlist.Register:
		if prim.En {
			p.printf("if (%s == 1) %s <= %s;\n", in(0), name, in(1))
		} else {
			p.printf("%s <= %s;\n", name, in(0))
		}
	case netlist.RegFileWrite:
		p.printf("if (%s == 1) rf_%d[%s] <= %s;\n", in(0), prim.Info.ID, in(1), in(2))
	case netlist.Finish:
		p.printf("if (%s == 1) $finish;\n", in(0))
	case netlist.Assert:
		p.printf("if (%s == 1) if (%s == 0) begin $write(\"%s\"); $finish; end\n",
			in(0), in(1), escapeString(prim.Msg))
	case netlist.Display:
		p.display(net, prim)
	}
}

// display lowers one display event. Plain items accumulate into a
// single $write; conditional groups nest as if-blocks around their
// contents.
func (p *printer) display(net *netlist.Net, prim netlist.Display) {
	p.printf("if (%s == 1) begin\n", p.ref(net, 0))
	p.indent++

	var format strings.Builder
	var args []string
	flush := func() {
		if format.Len() == 0 && len(args) == 0 {
			return
		}
		if len(args) > 0 {
			p.printf("$write(\"%s\", %s);\n", format.String(), strings.Join(args, ", "))
		} else {
			p.printf("$write(\"%s\");\n", format.String())
		}
		format.Reset()
		args = nil
	}

	next := 1
	for _, item := range prim.Items {
		switch item.Kind {
		case netlist.FormatString:
			format.WriteString(escapeString(item.Text))
		case netlist.FormatValue:
			format.WriteString(specifier(item))
			args = append(args, p.ref(net, next))
			next++
		case netlist.FormatCondBegin:
			flush()
			p.printf("if (%s == 1) begin\n", p.ref(net, next))
			next++
			p.indent++
		case netlist.FormatCondEnd:
			flush()
			p.indent--
			p.printf("end\n")
		}
	}
	flush()

	p.indent--
	p.printf("end\n")
}

func specifier(item netlist.FormatItem) string {
	var b strings.Builder
	b.WriteByte('%')
	if item.Pad > 0 {
		if item.ZeroPad {
			b.WriteByte('0')
		}
		fmt.Fprintf(&b, "%d", item.Pad)
	}
	switch item.Radix {
	case netlist.FormatBin:
		b.WriteByte('b')
	case netlist.FormatHex:
		b.WriteByte('h')
	default:
		b.WriteByte('d')
	}
	return b.String()
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '%':
			b.WriteString("%%")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
