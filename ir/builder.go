package ir

import (
	"fmt"

	"github.com/pycircuit/pyc/diag"
)

// Builder assembles a Func one op at a time, allocating stable OpIDs the
// same way the teacher's Circuit.allocPin hands out pin numbers: a single
// monotonically increasing counter that never reuses a value, so ids
// captured in an earlier ValueRef keep their meaning for the Builder's
// whole lifetime.
//
// Like the teacher's Chip() constructor, a Builder validates everything
// up front and only ever hands back a usable *Func via Build — there is
// no way to observe a half-wired function.
type Builder struct {
	name       string
	inputs     []Port
	outputs    []Port
	outputRefs []ValueRef
	ops        []*Op
	next       OpID
	err        error
}

// NewBuilder starts building a function named name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Input declares one input port.
func (b *Builder) Input(name string, width int) ValueRef {
	id := b.alloc()
	b.inputs = append(b.inputs, Port{Name: name, Width: width})
	op := &Op{ID: id, Kind: Const, Name: name, Results: []Result{{Width: width}}}
	// Inputs are represented as zero-operand placeholder ops so every
	// value in the function, boundary or interior, is addressable by the
	// same ValueRef mechanism; LowerSCFToPYCStatic and later passes never
	// special-case ports.
	op.Attrs = op.Attrs.Set("pyc.input", name)
	b.ops = append(b.ops, op)
	return ValueRef{Op: id, Result: 0}
}

// Output declares an output port driven by v.
func (b *Builder) Output(name string, v ValueRef) {
	b.outputs = append(b.outputs, Port{Name: name, Width: b.widthOf(v)})
	b.outputRefs = append(b.outputRefs, v)
}

func (b *Builder) alloc() OpID {
	id := b.next
	b.next++
	return id
}

func (b *Builder) widthOf(v ValueRef) int {
	for _, op := range b.ops {
		if op.ID == v.Op {
			if v.Result < 0 || v.Result >= len(op.Results) {
				b.fail(diag.Newf(diag.UnknownWidth, b.name, fmt.Sprint(v), "result index %d out of range", v.Result))
				return 0
			}
			return op.Results[v.Result].Width
		}
	}
	b.fail(diag.Newf(diag.UnknownWidth, b.name, fmt.Sprint(v), "no such op %d", v.Op))
	return 0
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Emit appends a fully-formed op to the arena. The arena is append-only,
// so an op can only ever reference ops emitted before it; the sole
// exception is a register's d operand, which legitimately closes a loop
// back through combinational logic to the register's own output — that
// loop is exactly what EliminateWires/CheckCombCycles check for once a
// whole function is assembled.
func (b *Builder) Emit(op *Op) ValueRef {
	if b.err != nil {
		return ValueRef{}
	}
	op.ID = b.alloc()
	b.ops = append(b.ops, op)
	if len(op.Results) == 0 {
		return ValueRef{}
	}
	return ValueRef{Op: op.ID, Result: 0}
}

// Const emits a const op of the given width and value.
func (b *Builder) Const(width int, value uint64) ValueRef {
	return b.Emit(&Op{Kind: Const, ConstValue: value, Results: []Result{{Width: width}}})
}

// BinOp emits a two-operand, same-width, single-result op (add/sub/and/
// or/xor).
func (b *Builder) BinOp(kind Kind, a, bv ValueRef) ValueRef {
	w := b.widthOf(a)
	if other := b.widthOf(bv); other != w {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, kind.String(), "operand width mismatch: %d vs %d", w, other))
		return ValueRef{}
	}
	return b.Emit(&Op{Kind: kind, Operands: []ValueRef{a, bv}, Results: []Result{{Width: w}}})
}

// Compare emits a width-1-result comparison op (eq/ult).
func (b *Builder) Compare(kind Kind, a, bv ValueRef) ValueRef {
	w := b.widthOf(a)
	if other := b.widthOf(bv); other != w {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, kind.String(), "operand width mismatch: %d vs %d", w, other))
		return ValueRef{}
	}
	return b.Emit(&Op{Kind: kind, Operands: []ValueRef{a, bv}, Results: []Result{{Width: 1}}})
}

// Not emits a unary bitwise-complement op.
func (b *Builder) Not(v ValueRef) ValueRef {
	return b.Emit(&Op{Kind: Not, Operands: []ValueRef{v}, Results: []Result{{Width: b.widthOf(v)}}})
}

// Mux emits mux(sel, a, b): sel must be width 1, a and b must share a
// width.
func (b *Builder) Mux(sel, a, bv ValueRef) ValueRef {
	if w := b.widthOf(sel); w != 1 {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, "mux", "selector must be 1 bit, got %d", w))
		return ValueRef{}
	}
	w := b.widthOf(a)
	if other := b.widthOf(bv); other != w {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, "mux", "operand width mismatch: %d vs %d", w, other))
		return ValueRef{}
	}
	return b.Emit(&Op{Kind: Mux, Operands: []ValueRef{sel, a, bv}, Results: []Result{{Width: w}}})
}

// Trunc/Zext/Sext emit the corresponding width-changing op.
func (b *Builder) Trunc(v ValueRef, outWidth int) ValueRef {
	return b.resize(Trunc, v, outWidth)
}
func (b *Builder) Zext(v ValueRef, outWidth int) ValueRef {
	return b.resize(Zext, v, outWidth)
}
func (b *Builder) Sext(v ValueRef, outWidth int) ValueRef {
	return b.resize(Sext, v, outWidth)
}

func (b *Builder) resize(kind Kind, v ValueRef, outWidth int) ValueRef {
	in := b.widthOf(v)
	if kind == Trunc && outWidth > in {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, kind.String(), "trunc<%d> of a %d-bit value", outWidth, in))
		return ValueRef{}
	}
	if kind != Trunc && outWidth < in {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, kind.String(), "%s<%d> of a %d-bit value", kind, outWidth, in))
		return ValueRef{}
	}
	return b.Emit(&Op{Kind: kind, Operands: []ValueRef{v}, OutWidth: outWidth, Results: []Result{{Width: outWidth}}})
}

// Extract emits extract<outWidth>(v, lsb).
func (b *Builder) Extract(v ValueRef, lsb, outWidth int) ValueRef {
	in := b.widthOf(v)
	if lsb < 0 || lsb+outWidth > in {
		b.fail(diag.Newf(diag.UnknownWidth, b.name, "extract", "extract<%d>(lsb=%d) out of range for a %d-bit value", outWidth, lsb, in))
		return ValueRef{}
	}
	return b.Emit(&Op{Kind: Extract, Operands: []ValueRef{v}, Lsb: lsb, OutWidth: outWidth, Results: []Result{{Width: outWidth}}})
}

// Concat emits concat(hi, ..., lo), most-significant operand first.
func (b *Builder) Concat(vs ...ValueRef) ValueRef {
	total := 0
	for _, v := range vs {
		total += b.widthOf(v)
	}
	return b.Emit(&Op{Kind: Concat, Operands: vs, Results: []Result{{Width: total}}})
}

// Reg emits a clocked register: d is the next-value operand, init is the
// power-on value, resetValue (when hasReset) is the value driven while
// rst is asserted, and en (when hasEnable) gates whether tick_compute
// samples d at all. Operand order is fixed: [clk, rst?, en?, d].
func (b *Builder) Reg(clk, rst, en, d ValueRef, hasReset, hasEnable bool, resetValue, init uint64) ValueRef {
	w := b.widthOf(d)
	operands := []ValueRef{clk}
	if hasReset {
		operands = append(operands, rst)
	}
	if hasEnable {
		operands = append(operands, en)
	}
	operands = append(operands, d)
	return b.Emit(&Op{
		Kind:       Reg,
		Operands:   operands,
		HasReset:   hasReset,
		ResetValue: resetValue,
		HasEnable:  hasEnable,
		InitValue:  init,
		Results:    []Result{{Width: w}},
	})
}

// Instance emits a call to callee, whose resolution is checked later by
// CheckNoDynamic/legalization rather than here, since the callee's
// function may not exist yet while a module is still being assembled one
// function at a time.
func (b *Builder) Instance(callee string, args []ValueRef, resultWidths []int) []ValueRef {
	results := make([]Result, len(resultWidths))
	for i, w := range resultWidths {
		results[i] = Result{Width: w}
	}
	op := &Op{Kind: Instance, Callee: callee, Operands: args, Results: results}
	op.Attrs = op.Attrs.Set(AttrCallee, callee)
	id := b.alloc()
	op.ID = id
	b.ops = append(b.ops, op)
	out := make([]ValueRef, len(resultWidths))
	for i := range resultWidths {
		out[i] = ValueRef{Op: id, Result: i}
	}
	return out
}

// Build finalizes the function, indexing its arena for Op/Width lookups.
// It returns the first error recorded by any Emit-family call, if any.
func (b *Builder) Build() (*Func, error) {
	if b.err != nil {
		return nil, b.err
	}
	f := &Func{Name: b.name, Inputs: b.inputs, Outputs: b.outputs, Ops: b.ops}
	f.index()
	f.BindOutputRefs(b.outputRefs)
	return f, nil
}
