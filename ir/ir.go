// Package ir defines the closed-variant intermediate representation every
// pass, verifier, and emitter in pyCircuit operates on: a module holding
// one or more functions, each an arena of ops referenced by stable
// (op, result) pairs rather than pointers, so the graph can never form an
// accidental ownership cycle.
//
// The design mirrors two shapes found in the retrieved corpus: the
// Design/Module/Process/Operation closed sum used by small HDL front ends,
// and the pin/wiring arena the teacher library builds chips from — ops
// here play the role wires play there, with a stable integer id standing
// in for a pin.
package ir

import "fmt"

// Kind is a closed enumeration of every op the IR can represent. Adding a
// new op means adding a new Kind and teaching every pass/verifier/emitter
// switch about it — there is deliberately no open/virtual extension point.
type Kind int

const (
	// Combinational ops.
	Const Kind = iota
	Add
	Sub
	And
	Or
	Xor
	Not
	Eq
	Ult
	Shl
	Lshr
	Ashr
	Mux
	Trunc
	Zext
	Sext
	Extract
	Concat

	// Stateful ops.
	Reg
	MemSync
	MemSyncDP
	Fifo
	AsyncFifo
	CdcSync
	Instance
	ByteMem

	// Structured-control ops consumed only by LowerSCFToPYCStatic; they
	// never survive past that pass in a legal module.
	ScfIf
	ScfFor
	ScfYield
)

func (k Kind) String() string {
	switch k {
	case Const:
		return "const"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case And:
		return "and"
	case Or:
		return "or"
	case Xor:
		return "xor"
	case Not:
		return "not"
	case Eq:
		return "eq"
	case Ult:
		return "ult"
	case Shl:
		return "shl"
	case Lshr:
		return "lshr"
	case Ashr:
		return "ashr"
	case Mux:
		return "mux"
	case Trunc:
		return "trunc"
	case Zext:
		return "zext"
	case Sext:
		return "sext"
	case Extract:
		return "extract"
	case Concat:
		return "concat"
	case Reg:
		return "reg"
	case MemSync:
		return "mem_sync"
	case MemSyncDP:
		return "mem_sync_dp"
	case Fifo:
		return "fifo"
	case AsyncFifo:
		return "async_fifo"
	case CdcSync:
		return "cdc_sync"
	case Instance:
		return "instance"
	case ByteMem:
		return "byte_mem"
	case ScfIf:
		return "scf.if"
	case ScfFor:
		return "scf.for"
	case ScfYield:
		return "scf.yield"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsStateful reports whether a Kind introduces registered/memory state
// rather than pure combinational logic.
func (k Kind) IsStateful() bool {
	switch k {
	case Reg, MemSync, MemSyncDP, Fifo, AsyncFifo, CdcSync, ByteMem:
		return true
	default:
		return false
	}
}

// IsStructuredControl reports whether a Kind belongs to the scf.* family
// that LowerSCFToPYCStatic must eliminate before any later pass runs.
func (k Kind) IsStructuredControl() bool {
	switch k {
	case ScfIf, ScfFor, ScfYield:
		return true
	default:
		return false
	}
}

// OpID is a stable, arena-local identifier for an Op within a Func. Ids are
// never reused within a Func's lifetime, even across dead-value removal,
// so a ValueRef captured before a pass runs either still resolves or is
// provably dead — it never silently aliases a different op.
type OpID uint32

// ValueRef names one result of one op. Width is not stored here: callers
// resolve it by looking up the referenced Op's Results[Result].Width.
type ValueRef struct {
	Op     OpID
	Result int
}

func (v ValueRef) String() string { return fmt.Sprintf("%%%d#%d", v.Op, v.Result) }

// Result describes one value an Op produces.
type Result struct {
	Width int
}

// Op is one instruction in the arena. Its Kind selects which of the
// kind-specific fields are meaningful; the rest are zero. This is the
// "closed variant" in practice: a single struct wide enough for every
// Kind, rather than an interface with N implementations, so a pass can
// switch on Kind and access fields directly without a type assertion.
type Op struct {
	ID     OpID
	Kind   Kind
	Name   string // optional, preserved for readability in emitted text
	Attrs  Attrs
	Loc    string // textual-IR source location, for diagnostics

	Operands []ValueRef
	Results  []Result

	// Const
	ConstValue uint64

	// Shl/Lshr/Ashr/Extract: static shift amount / lsb.
	ShiftAmount int
	Lsb         int

	// Trunc/Zext/Sext/Extract: output width (also Results[0].Width).
	OutWidth int

	// Reg
	HasReset    bool
	ResetValue  uint64
	HasEnable   bool // operand layout: [clk, rst?, en?, d]
	InitValue   uint64

	// MemSync/MemSyncDP/ByteMem
	Depth     int
	ElemWidth int

	// Fifo/AsyncFifo
	FifoDepth int

	// Instance
	Callee string

	// ScfIf/ScfFor: nested body, each a list of op ids belonging to this
	// function's single flat arena (bodies are ranges, not sub-arenas).
	BodyStart, BodyEnd OpID
}

// Port describes one function argument or result at the module boundary.
type Port struct {
	Name      string
	Width     int
	IsClock   bool
	IsReset   bool
}

// Func is one hardware module's worth of ops: a flat, ordered arena plus
// its boundary ports. Ops are never renumbered — dead-value removal drops
// them from Ops and calls Reindex, so surviving OpIDs keep meaning.
type Func struct {
	Name    string
	Inputs  []Port
	Outputs []Port
	Ops     []*Op
	Attrs   Attrs

	// CombBlocks is the FuseComb grouping of this function's
	// combinational ops, nil until FuseComb runs (or after it runs with
	// cpp-only-preserve-ops, which clears it back to nil).
	CombBlocks []CombBlock

	byID       map[OpID]*Op
	outputRefs []ValueRef
}

// Module is the compilation unit: a set of functions plus module-level
// attributes, notably pyc.top.
type Module struct {
	Funcs []*Func
	Attrs Attrs
}

// FuncByName returns the named function, or nil if none matches.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TopFunc resolves the module's top function per the rule in §3.3: the
// pyc.top attribute if present, otherwise the first function in program
// order, otherwise ("", false) when the module declares none.
func (m *Module) TopFunc() (*Func, bool) {
	if top, ok := m.Attrs[AttrTop]; ok {
		if name, ok := top.(string); ok {
			if f := m.FuncByName(name); f != nil {
				return f, true
			}
		}
		return nil, false
	}
	if len(m.Funcs) > 0 {
		return m.Funcs[0], true
	}
	return nil, false
}

// Op looks up an op by id within this function. It panics if id is
// unknown — callers hold ValueRefs only to ops they (or an earlier pass)
// actually produced, so an unknown id means a bookkeeping bug, not bad
// input.
func (f *Func) Op(id OpID) *Op {
	op, ok := f.byID[id]
	if !ok {
		panic(fmt.Sprintf("ir: func %q has no op %d", f.Name, id))
	}
	return op
}

// Width resolves the bit width a ValueRef denotes.
func (f *Func) Width(v ValueRef) int {
	op := f.Op(v.Op)
	if v.Result < 0 || v.Result >= len(op.Results) {
		panic(fmt.Sprintf("ir: %s has no result %d", v, v.Result))
	}
	return op.Results[v.Result].Width
}

func (f *Func) index() {
	f.byID = make(map[OpID]*Op, len(f.Ops))
	for _, op := range f.Ops {
		f.byID[op.ID] = op
	}
}

// Reindex rebuilds the id lookup table after a pass has removed ops from
// f.Ops in place. It never renumbers surviving ops, so ValueRefs held by
// a pass that ran before the removal remain valid.
func (f *Func) Reindex() { f.index() }
