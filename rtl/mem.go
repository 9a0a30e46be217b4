package rtl

import (
	"silica/bit"
	"silica/internal/diag"
	"silica/internal/netlist"
)

// RAM is a single-port block RAM. Load and Store drive the address
// port; issuing both on the same cycle is undefined.
type RAM struct {
	m    *Module
	addr *Wire
	data *Wire
	we   *Wire
	out  bit.Bit
}

// BlockRAM creates a single-port RAM with 2^aw words of dw bits.
func (m *Module) BlockRAM(aw, dw int) *RAM {
	return m.BlockRAMInit(aw, dw, "")
}

// BlockRAMInit is BlockRAM with contents preloaded from a hex file.
func (m *Module) BlockRAMInit(aw, dw int, initFile string) *RAM {
	m.checkOpen()
	checkRAMWidths(aw, dw)
	addr := m.WireU(aw)
	data := m.WireU(dw)
	we := m.Wire(bit.Const(1, 0))
	node := netlist.NewNode(
		netlist.BRAM{Kind: netlist.BRAMSinglePort, InitFile: initFile, AW: aw, DW: dw},
		addr.Val().Node(), data.Val().Node(), we.Val().Node(),
	)
	m.roots = append(m.roots, node)
	out := bit.FromNode(netlist.NewNode(netlist.Tap{Port: "DO", W: dw}, node))
	return &RAM{m: m, addr: addr, data: data, we: we, out: out}
}

// Load issues a read of a; the word appears on Out after one cycle.
func (r *RAM) Load(a bit.Bit) {
	r.addr.Assign(a)
}

// Store writes d to address a on the next rising clock edge, under the
// current guard.
func (r *RAM) Store(a, d bit.Bit) {
	r.addr.Assign(a)
	r.data.Assign(d)
	r.we.Assign(bit.Const(1, 1))
}

// Out returns the data read port.
func (r *RAM) Out() bit.Bit { return r.out }

// DualRAM is a dual-port RAM with independent read and write ports, so
// a load and a store may share a cycle.
type DualRAM struct {
	m      *Module
	rdAddr *Wire
	wrAddr *Wire
	data   *Wire
	we     *Wire
	out    bit.Bit
}

// BlockRAMDual creates a dual-port RAM with 2^aw words of dw bits.
func (m *Module) BlockRAMDual(aw, dw int) *DualRAM {
	return m.BlockRAMDualInit(aw, dw, "")
}

// BlockRAMDualInit is BlockRAMDual with contents preloaded from a hex
// file.
func (m *Module) BlockRAMDualInit(aw, dw int, initFile string) *DualRAM {
	m.checkOpen()
	checkRAMWidths(aw, dw)
	rdAddr := m.WireU(aw)
	wrAddr := m.WireU(aw)
	data := m.WireU(dw)
	we := m.Wire(bit.Const(1, 0))
	node := netlist.NewNode(
		netlist.BRAM{Kind: netlist.BRAMDualPort, InitFile: initFile, AW: aw, DW: dw},
		rdAddr.Val().Node(), wrAddr.Val().Node(), data.Val().Node(), we.Val().Node(),
	)
	m.roots = append(m.roots, node)
	out := bit.FromNode(netlist.NewNode(netlist.Tap{Port: "DO", W: dw}, node))
	return &DualRAM{m: m, rdAddr: rdAddr, wrAddr: wrAddr, data: data, we: we, out: out}
}

// Load issues a read of a on the read port.
func (r *DualRAM) Load(a bit.Bit) {
	r.rdAddr.Assign(a)
}

// Store writes d to a through the write port under the current guard.
func (r *DualRAM) Store(a, d bit.Bit) {
	r.wrAddr.Assign(a)
	r.data.Assign(d)
	r.we.Assign(bit.Const(1, 1))
}

// Out returns the read port data.
func (r *DualRAM) Out() bit.Bit { return r.out }

// TrueDualRAM exposes two symmetric ports onto one storage array.
type TrueDualRAM struct {
	A, B *RAMPort
}

// RAMPort is one port of a true dual-port RAM.
type RAMPort struct {
	addr *Wire
	data *Wire
	we   *Wire
	out  bit.Bit
}

// BlockRAMTrueDual creates a true dual-port RAM with 2^aw words of dw
// bits. Writing the same address from both ports on one cycle is
// undefined.
func (m *Module) BlockRAMTrueDual(aw, dw int) *TrueDualRAM {
	return m.BlockRAMTrueDualInit(aw, dw, "")
}

// BlockRAMTrueDualInit is BlockRAMTrueDual with contents preloaded
// from a hex file.
func (m *Module) BlockRAMTrueDualInit(aw, dw int, initFile string) *TrueDualRAM {
	m.checkOpen()
	checkRAMWidths(aw, dw)
	a := &RAMPort{addr: m.WireU(aw), data: m.WireU(dw), we: m.Wire(bit.Const(1, 0))}
	b := &RAMPort{addr: m.WireU(aw), data: m.WireU(dw), we: m.Wire(bit.Const(1, 0))}
	node := netlist.NewNode(
		netlist.BRAM{Kind: netlist.BRAMTrueDualPort, InitFile: initFile, AW: aw, DW: dw},
		a.addr.Val().Node(), a.data.Val().Node(), a.we.Val().Node(),
		b.addr.Val().Node(), b.data.Val().Node(), b.we.Val().Node(),
	)
	m.roots = append(m.roots, node)
	a.out = bit.FromNode(netlist.NewNode(netlist.Tap{Port: "DO_A", W: dw}, node))
	b.out = bit.FromNode(netlist.NewNode(netlist.Tap{Port: "DO_B", W: dw}, node))
	return &TrueDualRAM{A: a, B: b}
}

// Load issues a read of a on this port.
func (p *RAMPort) Load(a bit.Bit) {
	p.addr.Assign(a)
}

// Store writes d to a through this port under the current guard.
func (p *RAMPort) Store(a, d bit.Bit) {
	p.addr.Assign(a)
	p.data.Assign(d)
	p.we.Assign(bit.Const(1, 1))
}

// Out returns this port's read data.
func (p *RAMPort) Out() bit.Bit { return p.out }

func checkRAMWidths(aw, dw int) {
	if aw <= 0 || dw <= 0 {
		diag.Fatalf(diag.WidthMismatch, "RAM widths must be positive, got aw=%d dw=%d", aw, dw)
	}
}

// RegFile is an array of 2^aw registers of dw bits with combinational
// reads and clocked writes. Any number of reads and writes may share a
// cycle.
type RegFile struct {
	m    *Module
	info netlist.RegFileInfo
}

// RegFileNew creates an uninitialized register file.
func (m *Module) RegFileNew(aw, dw int) *RegFile {
	return m.RegFileInit(aw, dw, "")
}

// RegFileInit creates a register file preloaded from a hex file.
func (m *Module) RegFileInit(aw, dw int, initFile string) *RegFile {
	m.checkOpen()
	checkRAMWidths(aw, dw)
	info := netlist.RegFileInfo{ID: m.regFiles, InitFile: initFile, AW: aw, DW: dw}
	m.regFiles++
	m.roots = append(m.roots, netlist.NewNode(netlist.RegFileMake{Info: info}))
	return &RegFile{m: m, info: info}
}

// Read returns the word at a, combinationally.
func (rf *RegFile) Read(a bit.Bit) bit.Bit {
	if a.Width() != rf.info.AW {
		diag.Fatalf(diag.WidthMismatch, "register file address has width %d, want %d", a.Width(), rf.info.AW)
	}
	return bit.FromNode(netlist.NewNode(netlist.RegFileRead{Info: rf.info}, a.Node()))
}

// Update writes d to a on the next rising clock edge, under the
// current guard.
func (rf *RegFile) Update(a, d bit.Bit) {
	if a.Width() != rf.info.AW || d.Width() != rf.info.DW {
		diag.Fatalf(diag.WidthMismatch, "register file write (%d,%d), want (%d,%d)",
			a.Width(), d.Width(), rf.info.AW, rf.info.DW)
	}
	rf.m.events = append(rf.m.events,
		netlist.NewNode(netlist.RegFileWrite{Info: rf.info}, rf.m.Guard().Node(), a.Node(), d.Node()))
}

// CustomIn binds a value to a named input port of a Custom instance.
type CustomIn struct {
	Name  string
	Value bit.Bit
}

// CustomOut names an output port and its width.
type CustomOut struct {
	Name string
	W    int
}

// Custom instantiates the black-box Verilog module modName. The
// returned map holds one Bit per declared output port. Clock and reset
// wire automatically when clocked or resetable is set.
func (m *Module) Custom(modName string, ins []CustomIn, outs []CustomOut, params map[string]string, clocked, resetable bool) map[string]bit.Bit {
	m.checkOpen()
	prim := netlist.Custom{
		Name:      modName,
		Params:    params,
		Clocked:   clocked,
		Resetable: resetable,
	}
	nodes := make([]*netlist.Node, len(ins))
	for i, in := range ins {
		prim.InputNames = append(prim.InputNames, in.Name)
		nodes[i] = in.Value.Node()
	}
	for _, out := range outs {
		prim.Outputs = append(prim.Outputs, netlist.CustomOutput{Name: out.Name, W: out.W})
	}
	node := netlist.NewNode(prim, nodes...)
	m.roots = append(m.roots, node)
	result := make(map[string]bit.Bit, len(outs))
	for _, out := range outs {
		result[out.Name] = bit.FromNode(netlist.NewNode(netlist.Tap{Port: out.Name, W: out.W}, node))
	}
	return result
}
