package netlist

import "math/big"

// Prim is the closed set of circuit primitives. Every netlist node and
// net carries exactly one Prim describing what it computes; the
// concrete struct types below are the only implementations.
type Prim interface {
	// PrimName returns a short lowercase tag used in diagnostics and
	// default net names.
	PrimName() string
}

// Arithmetic and logic. Result width equals operand width; overflow
// wraps at 2^W.

type Add struct{ W int }
type Sub struct{ W int }

// Mul multiplies two W-bit operands. FullWidth widens the result to
// 2*W bits; Signed selects signed operand interpretation.
type Mul struct {
	W         int
	Signed    bool
	FullWidth bool
}

type Div struct{ W int }
type Mod struct{ W int }
type And struct{ W int }
type Or struct{ W int }
type Xor struct{ W int }
type Not struct{ W int }

// Shifts take a W-bit left operand and a shift amount of independent
// width. ArithShiftRight interprets the left operand as signed.

type ShiftLeft struct{ W int }
type ShiftRight struct{ W int }
type ArithShiftRight struct{ W int }

// Comparisons produce a single bit. Operands are unsigned; signed
// comparison is built from explicit sign-extension patterns upstream.

type Equal struct{ W int }
type NotEqual struct{ W int }
type LessThan struct{ W int }
type LessThanEq struct{ W int }

// Bit munging.

// ReplicateBit copies a 1-bit input W times.
type ReplicateBit struct{ W int }

type ZeroExtend struct{ InW, OutW int }
type SignExtend struct{ InW, OutW int }

// SelectBits extracts bits Hi..Lo of a W-bit input, 0 <= Lo <= Hi < W.
type SelectBits struct{ W, Hi, Lo int }

// Concat joins a high AW-bit operand with a low BW-bit operand.
type Concat struct{ AW, BW int }

type Identity struct{ W int }

// Mux selects one of 2^SelW data inputs of width W. Inputs are the
// selector followed by the data inputs in index order.
type Mux struct{ SelW, W int }

// MergeWrites combines N (enable, value) pairs by ORing value&{W{en}}
// terms together. The result is don't-care when N is 0.
type MergeWrites struct{ N, W int }

// Register is a W-bit register. Init is nil when the register has no
// reset value. When En is set the first input is a 1-bit enable and
// the second the data; otherwise the single input is the data.
type Register struct {
	Init *big.Int
	W    int
	En   bool
}

// BRAMKind selects the block RAM port configuration.
type BRAMKind int

const (
	BRAMSinglePort BRAMKind = iota
	BRAMDualPort
	BRAMTrueDualPort
)

func (k BRAMKind) String() string {
	switch k {
	case BRAMSinglePort:
		return "single"
	case BRAMDualPort:
		return "dual"
	case BRAMTrueDualPort:
		return "truedual"
	}
	return "unknown"
}

// BRAM is a block RAM with AW-bit addresses and DW-bit data. Input
// order is fixed per kind:
//
//	single:    ADDR, DI, WE
//	dual:      RD_ADDR, WR_ADDR, DI, WE
//	truedual:  ADDR_A, DI_A, WE_A, ADDR_B, DI_B, WE_B
//
// Outputs are the named ports DO (single, dual) or DO_A/DO_B.
type BRAM struct {
	Kind     BRAMKind
	InitFile string
	AW, DW   int
	ByteEn   bool
}

// RegFileInfo identifies one register file shared by its make, read
// and write nets.
type RegFileInfo struct {
	ID       int
	InitFile string
	AW, DW   int
}

// RegFileMake declares the storage array. No inputs.
type RegFileMake struct{ Info RegFileInfo }

// RegFileRead is a combinational array read. Input: address.
type RegFileRead struct{ Info RegFileInfo }

// RegFileWrite latches data on the clock edge. Inputs: guard, address,
// data.
type RegFileWrite struct{ Info RegFileInfo }

// Module boundary.

type Input struct {
	W    int
	Name string
}

type Output struct {
	W    int
	Name string
}

// Constants.

type Const struct {
	W     int
	Value *big.Int
}

type DontCare struct{ W int }

// Side effects. Each becomes a net whose first input is its 1-bit
// guard.

// Display writes formatted simulation output. Items consume the data
// inputs following the guard in order.
type Display struct{ Items []FormatItem }

type Finish struct{}

// Assert finishes simulation with Msg when its predicate input is 0
// under an enabled guard. Inputs: guard, predicate.
type Assert struct{ Msg string }

// TestPlusArgs samples a Verilog $test$plusargs flag. No inputs,
// 1-bit output.
type TestPlusArgs struct{ Name string }

// Custom instantiates a black-box Verilog module. Inputs bind to
// InputNames in order; each output is a named port with its width.
type Custom struct {
	Name       string
	InputNames []string
	Outputs    []CustomOutput
	Params     map[string]string
	Clocked    bool
	Resetable  bool
}

// CustomOutput names one output port of a Custom instance.
type CustomOutput struct {
	Name string
	W    int
}

// Tap projects a named output port of a multi-output net (BRAM,
// Custom). It allocates no net of its own; the flattener rewrites it
// into a port-qualified reference to its single input.
type Tap struct {
	Port string
	W    int
}

// VarRef is the placeholder for reading an elaborator variable. It
// never survives flattening; the flattener resolves it through the
// variable table into the variable's driving net.
type VarRef struct {
	ID int
	W  int
}

// FormatRadix selects the numeric base of a display specifier.
type FormatRadix int

const (
	FormatBin FormatRadix = iota
	FormatDec
	FormatHex
)

// FormatKind discriminates format items.
type FormatKind int

const (
	// FormatString is a literal chunk; consumes no input.
	FormatString FormatKind = iota
	// FormatValue prints one data input with radix and padding.
	FormatValue
	// FormatCondBegin opens a conditional group gated by one 1-bit
	// data input.
	FormatCondBegin
	// FormatCondEnd closes the innermost conditional group.
	FormatCondEnd
)

// FormatItem is one element of a display format.
type FormatItem struct {
	Kind    FormatKind
	Text    string
	Radix   FormatRadix
	Pad     int
	ZeroPad bool
}

func (Add) PrimName() string             { return "add" }
func (Sub) PrimName() string             { return "sub" }
func (Mul) PrimName() string             { return "mul" }
func (Div) PrimName() string             { return "div" }
func (Mod) PrimName() string             { return "mod" }
func (And) PrimName() string             { return "and" }
func (Or) PrimName() string              { return "or" }
func (Xor) PrimName() string             { return "xor" }
func (Not) PrimName() string             { return "not" }
func (ShiftLeft) PrimName() string       { return "shl" }
func (ShiftRight) PrimName() string      { return "shr" }
func (ArithShiftRight) PrimName() string { return "asr" }
func (Equal) PrimName() string           { return "eq" }
func (NotEqual) PrimName() string        { return "neq" }
func (LessThan) PrimName() string        { return "lt" }
func (LessThanEq) PrimName() string      { return "le" }
func (ReplicateBit) PrimName() string    { return "rep" }
func (ZeroExtend) PrimName() string      { return "zext" }
func (SignExtend) PrimName() string      { return "sext" }
func (SelectBits) PrimName() string      { return "bits" }
func (Concat) PrimName() string          { return "concat" }
func (Identity) PrimName() string        { return "id" }
func (Mux) PrimName() string             { return "mux" }
func (MergeWrites) PrimName() string     { return "merge" }
func (Register) PrimName() string        { return "reg" }
func (BRAM) PrimName() string            { return "bram" }
func (RegFileMake) PrimName() string     { return "rfmake" }
func (RegFileRead) PrimName() string     { return "rfread" }
func (RegFileWrite) PrimName() string    { return "rfwrite" }
func (Input) PrimName() string           { return "input" }
func (Output) PrimName() string          { return "output" }
func (Const) PrimName() string           { return "const" }
func (DontCare) PrimName() string        { return "dontcare" }
func (Display) PrimName() string         { return "display" }
func (Finish) PrimName() string          { return "finish" }
func (Assert) PrimName() string          { return "assert" }
func (TestPlusArgs) PrimName() string    { return "plusargs" }
func (Custom) PrimName() string          { return "custom" }
func (Tap) PrimName() string             { return "tap" }
func (VarRef) PrimName() string          { return "var" }

// OutWidth computes the output width a primitive produces. Multi-output
// primitives (BRAM, Custom) report the width of their first port; their
// consumers select ports explicitly.
func OutWidth(p Prim) int {
	switch pr := p.(type) {
	case Add:
		return pr.W
	case Sub:
		return pr.W
	case Mul:
		if pr.FullWidth {
			return 2 * pr.W
		}
		return pr.W
	case Div:
		return pr.W
	case Mod:
		return pr.W
	case And:
		return pr.W
	case Or:
		return pr.W
	case Xor:
		return pr.W
	case Not:
		return pr.W
	case ShiftLeft:
		return pr.W
	case ShiftRight:
		return pr.W
	case ArithShiftRight:
		return pr.W
	case Equal, NotEqual, LessThan, LessThanEq:
		return 1
	case ReplicateBit:
		return pr.W
	case ZeroExtend:
		return pr.OutW
	case SignExtend:
		return pr.OutW
	case SelectBits:
		return pr.Hi - pr.Lo + 1
	case Concat:
		return pr.AW + pr.BW
	case Identity:
		return pr.W
	case Mux:
		return pr.W
	case MergeWrites:
		return pr.W
	case Register:
		return pr.W
	case BRAM:
		return pr.DW
	case RegFileMake:
		return 0
	case RegFileRead:
		return pr.Info.DW
	case RegFileWrite:
		return 0
	case Input:
		return pr.W
	case Output:
		return 0
	case Const:
		return pr.W
	case DontCare:
		return pr.W
	case TestPlusArgs:
		return 1
	case Tap:
		return pr.W
	case VarRef:
		return pr.W
	case Custom:
		if len(pr.Outputs) > 0 {
			return pr.Outputs[0].W
		}
		return 0
	default:
		return 0
	}
}
