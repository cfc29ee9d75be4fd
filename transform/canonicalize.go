// Package transform implements the legalization and optimization passes
// named in §4 of the specification: the generic middle-end sweep
// (Canonicalize/CSE/SCCP/RemoveDeadValues/SymbolDCE), the PYC-specific
// lowering and cleanup passes, and the structural packing and grouping
// passes (SLPPackWiresPass, PackI1Regs, FuseComb). Every pass is a
// github.com/pycircuit/pyc/pass.Func or pass.Module value so the driver
// composes them through the same pipeline machinery.
package transform

import (
	"fmt"

	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// Canonicalize folds constant-only ops and simplifies a handful of
// identities (double-not, zero-width-preserving trunc/zext/sext of a
// constant). It never removes an op another op still references — that
// is RemoveDeadValues's job — it only rewrites an op's computation to a
// cheaper, equivalent one.
var Canonicalize = pass.Named{Name: "canonicalize", Fn: canonicalizeFunc}

func canonicalizeFunc(f *ir.Func) (bool, error) {
	changed := false
	for _, op := range f.Ops {
		if op.Kind == ir.Const || op.Kind.IsStructuredControl() {
			continue
		}
		if folded, ok := foldConstant(f, op); ok {
			op.Kind = ir.Const
			op.Operands = nil
			op.ConstValue = folded
			changed = true
			continue
		}
		if op.Kind == ir.Not && len(op.Operands) == 1 {
			if inner := f.Op(op.Operands[0].Op); inner.Kind == ir.Not {
				// not(not(x)) -> identity; rewritten as a trivial wire by
				// making this op a direct pass-through the way
				// EliminateWires would, but we do it here since
				// Canonicalize already holds the match.
				op.Operands = inner.Operands
				op.Kind = ir.Trunc
				op.OutWidth = op.Results[0].Width
				changed = true
			}
		}
	}
	return changed, nil
}

// foldConstant evaluates op if every operand is itself a const op,
// returning the folded value and true, or (0, false) if op is not fully
// constant.
func foldConstant(f *ir.Func, op *ir.Op) (uint64, bool) {
	for _, o := range op.Operands {
		if f.Op(o.Op).Kind != ir.Const {
			return 0, false
		}
	}
	vals := make([]uint64, len(op.Operands))
	widths := make([]int, len(op.Operands))
	for i, o := range op.Operands {
		src := f.Op(o.Op)
		vals[i] = src.ConstValue
		widths[i] = src.Results[0].Width
	}
	mask := func(w int) uint64 {
		if w >= 64 {
			return ^uint64(0)
		}
		return (uint64(1) << uint(w)) - 1
	}
	outWidth := op.Results[0].Width
	switch op.Kind {
	case ir.Add:
		return (vals[0] + vals[1]) & mask(outWidth), true
	case ir.Sub:
		return (vals[0] - vals[1]) & mask(outWidth), true
	case ir.And:
		return vals[0] & vals[1] & mask(outWidth), true
	case ir.Or:
		return (vals[0] | vals[1]) & mask(outWidth), true
	case ir.Xor:
		return (vals[0] ^ vals[1]) & mask(outWidth), true
	case ir.Not:
		return ^vals[0] & mask(outWidth), true
	case ir.Eq:
		if vals[0] == vals[1] {
			return 1, true
		}
		return 0, true
	case ir.Ult:
		if vals[0] < vals[1] {
			return 1, true
		}
		return 0, true
	case ir.Shl:
		return (vals[0] << uint(op.ShiftAmount)) & mask(outWidth), true
	case ir.Lshr:
		return (vals[0] >> uint(op.ShiftAmount)) & mask(outWidth), true
	case ir.Trunc:
		return vals[0] & mask(outWidth), true
	case ir.Zext:
		return vals[0] & mask(widths[0]), true
	case ir.Sext:
		v := vals[0]
		signBit := v & (uint64(1) << uint(widths[0]-1))
		if signBit != 0 {
			v |= ^uint64(0) << uint(widths[0])
		}
		return v & mask(outWidth), true
	case ir.Mux:
		if vals[0] != 0 {
			return vals[2], true
		}
		return vals[1], true
	default:
		return 0, false
	}
}

// CSE deduplicates pure ops that share a kind, operand list, attributes,
// and static fields, rewriting later duplicates' consumers to use the
// first occurrence and leaving the now-unreferenced duplicate for
// RemoveDeadValues to erase. Stateful ops are never deduplicated: two
// `reg` ops with identical inputs are still two distinct pieces of
// state.
var CSE = pass.Named{Name: "cse", Fn: cseFunc}

func cseFunc(f *ir.Func) (bool, error) {
	seen := make(map[string]ir.OpID)
	replace := make(map[ir.OpID]ir.OpID)
	changed := false
	for _, op := range f.Ops {
		if op.Kind.IsStateful() || op.Kind.IsStructuredControl() || op.IsPort() {
			continue
		}
		for i, opnd := range op.Operands {
			if r, ok := replace[opnd.Op]; ok {
				op.Operands[i].Op = r
				changed = true
			}
		}
		key := cseKey(op)
		if existing, ok := seen[key]; ok {
			replace[op.ID] = existing
			changed = true
			continue
		}
		seen[key] = op.ID
	}
	return changed, nil
}

func cseKey(op *ir.Op) string {
	key := fmt.Sprintf("%s/%d/%d/%d", op.Kind, op.ShiftAmount, op.Lsb, op.OutWidth)
	for _, o := range op.Operands {
		key += fmt.Sprintf(",%d.%d", o.Op, o.Result)
	}
	if op.Kind == ir.Const {
		key += fmt.Sprintf("=%d:%d", op.ConstValue, op.Results[0].Width)
	}
	return key
}

// SCCP (sparse conditional constant propagation) pushes known-constant
// selects through mux: mux(1,a,b) folds to b, mux(0,a,b) folds to a
// (mux(sel,a,b) = sel ? b : a), matching CombCanonicalize's rule but run earlier, before CSE has had a
// chance to expose more mux selectors as constant.
var SCCP = pass.Named{Name: "sccp", Fn: sccpFunc}

func sccpFunc(f *ir.Func) (bool, error) {
	changed := false
	for _, op := range f.Ops {
		if op.Kind != ir.Mux {
			continue
		}
		sel := f.Op(op.Operands[0].Op)
		if sel.Kind != ir.Const {
			continue
		}
		var src ir.ValueRef
		if sel.ConstValue != 0 {
			src = op.Operands[2]
		} else {
			src = op.Operands[1]
		}
		op.Kind = ir.Trunc
		op.Operands = []ir.ValueRef{src}
		op.OutWidth = op.Results[0].Width
		changed = true
	}
	return changed, nil
}

// RemoveDeadValues erases ops with no remaining consumer and no
// observable side effect (a stateful op, or a driver of an output port,
// is never dead even with zero consumers, since it is still observable).
var RemoveDeadValues = pass.Named{Name: "remove-dead-values", Fn: removeDeadValuesFunc}

func removeDeadValuesFunc(f *ir.Func) (bool, error) {
	uses := f.Uses()
	live := make(map[ir.OpID]bool, len(f.Ops))
	var mark func(id ir.OpID)
	mark = func(id ir.OpID) {
		if live[id] {
			return
		}
		live[id] = true
		op := f.Op(id)
		for _, pred := range op.Preds() {
			mark(pred)
		}
	}
	for _, ref := range f.OutputRefs() {
		mark(ref.Op)
	}
	for _, op := range f.Ops {
		if op.Kind.IsStateful() || op.IsPort() || len(uses[op.ID]) > 0 {
			mark(op.ID)
		}
	}
	kept := make([]*ir.Op, 0, len(f.Ops))
	changed := false
	for _, op := range f.Ops {
		if live[op.ID] {
			kept = append(kept, op)
		} else {
			changed = true
		}
	}
	f.Ops = kept
	if changed {
		f.Reindex()
	}
	return changed, nil
}

// SymbolDCE removes functions no `instance` op and no module-level
// pyc.top attribute references, mirroring the generic middle-end's
// dead-global-elimination but at module scope.
var SymbolDCE = pass.NamedModule{Name: "symbol-dce", Fn: symbolDCE}

func symbolDCE(m *ir.Module) (bool, error) {
	referenced := make(map[string]bool)
	if top, ok := m.TopFunc(); ok {
		referenced[top.Name] = true
	}
	for _, f := range m.Funcs {
		for _, op := range f.Ops {
			if op.Kind == ir.Instance {
				referenced[op.Callee] = true
			}
		}
	}
	kept := make([]*ir.Func, 0, len(m.Funcs))
	changed := false
	for _, f := range m.Funcs {
		if referenced[f.Name] {
			kept = append(kept, f)
		} else {
			changed = true
		}
	}
	m.Funcs = kept
	return changed, nil
}
