package transform

import (
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// Reserved body-marker attribute keys a textual-IR parser uses inside an
// scf.for body to identify the induction variable and the per-iteration
// carry-in placeholders LowerSCFToPYCStatic must substitute while
// unrolling.
const (
	attrForInduction = "pyc.for.induction"
	attrForCarryIn   = "pyc.for.carry_in"
)

// LowerSCFToPYCStatic replaces every scf.if with a mux and statically
// unrolls every scf.for into straight-line ops, per §4.2. scf.if needs
// only a width-1 predicate — the predicate itself is an ordinary runtime
// signal, exactly like any other mux selector; it is scf.for whose trip
// count must be known at elaboration time, since hardware has no notion
// of a loop with a runtime-variable iteration count.
var LowerSCFToPYCStatic = pass.Named{Name: "lower-scf-to-pyc-static", Fn: lowerSCF}

func lowerSCF(f *ir.Func) (bool, error) {
	changed := false
	// Repeat until no scf op remains; nested ifs/fors inside a for body
	// get unrolled on a later sweep once their containing loop has been
	// expanded into concrete body copies.
	for {
		op := firstSCFOp(f)
		if op == nil {
			return changed, nil
		}
		switch op.Kind {
		case ir.ScfIf:
			if err := lowerIf(f, op); err != nil {
				return changed, err
			}
		case ir.ScfFor:
			if err := lowerFor(f, op); err != nil {
				return changed, err
			}
		default:
			return changed, diag.Newf(diag.EmissionError, f.Name, op.Name, "unexpected bare %s outside a body", op.Kind)
		}
		changed = true
	}
}

func firstSCFOp(f *ir.Func) *ir.Op {
	for _, op := range f.Ops {
		if op.Kind.IsStructuredControl() && op.Kind != ir.ScfYield {
			return op
		}
	}
	return nil
}

// lowerIf rewrites scf.if(cond, thenVal, elseVal) in place to the
// equivalent mux, per the builder's mux(sel,a,b) = sel? b : a convention.
func lowerIf(f *ir.Func, op *ir.Op) error {
	if len(op.Operands) != 3 {
		return diag.Newf(diag.NonStaticControl, f.Name, op.Name, "scf.if expects (cond, then, else), got %d operands", len(op.Operands))
	}
	cond := op.Operands[0]
	if f.Width(cond) != 1 {
		return diag.Newf(diag.NonStaticControl, f.Name, op.Name, "scf.if condition is %d bits wide, want 1", f.Width(cond))
	}
	thenVal, elseVal := op.Operands[1], op.Operands[2]
	op.Kind = ir.Mux
	op.Operands = []ir.ValueRef{cond, elseVal, thenVal}
	return nil
}

// lowerFor statically unrolls scf.for. op's Operands are
// [tripCount, carryInit...]; its body occupies [op.BodyStart, op.BodyEnd)
// in the same flat arena, ending in an scf.yield whose operands are the
// updated carry values for the next iteration. op's own results are
// replaced, at every use site, by the carry values surviving the final
// iteration.
func lowerFor(f *ir.Func, op *ir.Op) error {
	if len(op.Operands) == 0 {
		return diag.Newf(diag.NonStaticControl, f.Name, op.Name, "scf.for has no trip-count operand")
	}
	tripOp := f.Op(op.Operands[0].Op)
	if tripOp.Kind != ir.Const {
		return diag.Newf(diag.NonStaticControl, f.Name, op.Name, "scf.for trip count is not a compile-time constant")
	}
	trips := tripOp.ConstValue
	carryInit := op.Operands[1:]

	body := bodyOps(f, op.BodyStart, op.BodyEnd)
	yield := body[len(body)-1]
	if yield.Kind != ir.ScfYield {
		return diag.Newf(diag.NonStaticControl, f.Name, op.Name, "scf.for body does not end in scf.yield")
	}
	if len(yield.Operands) != len(carryInit) {
		return diag.Newf(diag.NonStaticControl, f.Name, op.Name, "scf.for yields %d values, expected %d carried values", len(yield.Operands), len(carryInit))
	}

	carry := append([]ir.ValueRef(nil), carryInit...)
	clonedYields := map[*ir.Op]bool{}
	for i := uint64(0); i < trips; i++ {
		idMap := make(map[ir.OpID]ir.OpID, len(body))
		for _, carryIn := range carryInPlaceholders(body) {
			idx := carryIn.Attrs.GetInt64(attrForCarryIn)
			idMap[carryIn.ID] = carry[idx].Op
		}
		var clonedYield *ir.Op
		for _, bop := range body {
			if bop == yield {
				clonedYield = cloneWithRemap(f, bop, idMap)
				clonedYields[clonedYield] = true
				continue
			}
			if _, ok := bop.Attrs.Get(attrForCarryIn); ok {
				continue // remapped to an existing carry value, not cloned
			}
			if _, ok := bop.Attrs.Get(attrForInduction); ok {
				clone := &ir.Op{Kind: ir.Const, ConstValue: i, Results: []ir.Result{{Width: bop.Results[0].Width}}}
				appendOp(f, clone)
				idMap[bop.ID] = clone.ID
				continue
			}
			clone := cloneWithRemap(f, bop, idMap)
			idMap[bop.ID] = clone.ID
		}
		for k, opnd := range clonedYield.Operands {
			if mapped, ok := idMap[opnd.Op]; ok {
				carry[k] = ir.ValueRef{Op: mapped, Result: opnd.Result}
			} else {
				carry[k] = opnd
			}
		}
	}

	substituteValueRefs(f, op.ID, carry)
	// op, the original (unexpanded) body ops, and the yield clones (whose
	// operands now live on in carry) are unreferenced; drop them so the
	// next sweep does not find this loop again.
	kept := f.Ops[:0]
	for _, o := range f.Ops {
		inBody := o.ID >= op.BodyStart && o.ID < op.BodyEnd
		if o != op && !inBody && !clonedYields[o] {
			kept = append(kept, o)
		}
	}
	f.Ops = kept
	f.Reindex()
	return nil
}

func bodyOps(f *ir.Func, start, end ir.OpID) []*ir.Op {
	var out []*ir.Op
	for _, op := range f.Ops {
		if op.ID >= start && op.ID < end {
			out = append(out, op)
		}
	}
	return out
}

func carryInPlaceholders(body []*ir.Op) []*ir.Op {
	var out []*ir.Op
	for _, op := range body {
		if _, ok := op.Attrs.Get(attrForCarryIn); ok {
			out = append(out, op)
		}
	}
	return out
}

func cloneWithRemap(f *ir.Func, src *ir.Op, idMap map[ir.OpID]ir.OpID) *ir.Op {
	clone := &ir.Op{
		Kind:        src.Kind,
		Name:        src.Name,
		Results:     append([]ir.Result(nil), src.Results...),
		ConstValue:  src.ConstValue,
		ShiftAmount: src.ShiftAmount,
		Lsb:         src.Lsb,
		OutWidth:    src.OutWidth,
		Callee:      src.Callee,
	}
	clone.Operands = make([]ir.ValueRef, len(src.Operands))
	for i, opnd := range src.Operands {
		if mapped, ok := idMap[opnd.Op]; ok {
			clone.Operands[i] = ir.ValueRef{Op: mapped, Result: opnd.Result}
		} else {
			clone.Operands[i] = opnd
		}
	}
	appendOp(f, clone)
	return clone
}

// appendOp allocates the next free id in f and appends op to its arena,
// the same incrementing-counter discipline ir.Builder uses, so an
// unrolled loop's clones never collide with an id issued before lowering
// ran.
func appendOp(f *ir.Func, op *ir.Op) {
	var next ir.OpID
	for _, existing := range f.Ops {
		if existing.ID >= next {
			next = existing.ID + 1
		}
	}
	op.ID = next
	f.Ops = append(f.Ops, op)
	f.Reindex()
}

// substituteValueRefs rewrites every operand and output reference to
// result k of oldOp to replacements[k], across the whole function.
func substituteValueRefs(f *ir.Func, oldOp ir.OpID, replacements []ir.ValueRef) {
	for _, op := range f.Ops {
		for i, opnd := range op.Operands {
			if opnd.Op == oldOp && opnd.Result < len(replacements) {
				op.Operands[i] = replacements[opnd.Result]
			}
		}
	}
	refs := f.OutputRefs()
	for i, ref := range refs {
		if ref.Op == oldOp && ref.Result < len(replacements) {
			refs[i] = replacements[ref.Result]
		}
	}
	f.BindOutputRefs(refs)
}
