package transform

import (
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// CombCanonicalize applies the algebraic, width-aware rewrites specific
// to the bit algebra named in §4.5: constant-folding across mux,
// idempotent and/or, double-negation, and merging a zext immediately
// followed by a trunc into a single width computation. Every rewrite
// preserves the full bit-vector value of the rewritten op; none of them
// depend on a later pass to stay correct.
var CombCanonicalize = pass.Named{Name: "comb-canonicalize", Fn: combCanonicalizeFunc}

func combCanonicalizeFunc(f *ir.Func) (bool, error) {
	changed := false
	for _, op := range f.Ops {
		switch op.Kind {
		case ir.Mux:
			if rewriteConstMux(f, op) {
				changed = true
			}
		case ir.And:
			if op.Operands[0] == op.Operands[1] {
				op.Kind = ir.Trunc
				op.Operands = op.Operands[:1]
				op.OutWidth = op.Results[0].Width
				changed = true
			}
		case ir.Or:
			if op.Operands[0] == op.Operands[1] {
				op.Kind = ir.Trunc
				op.Operands = op.Operands[:1]
				op.OutWidth = op.Results[0].Width
				changed = true
			}
		case ir.Not:
			if inner := f.Op(op.Operands[0].Op); inner.Kind == ir.Not {
				op.Kind = ir.Trunc
				op.Operands = inner.Operands
				op.OutWidth = op.Results[0].Width
				changed = true
			}
		case ir.Trunc:
			if mergeZextTrunc(f, op) {
				changed = true
			}
		case ir.Concat:
			if fuseNestedConcat(f, op) {
				changed = true
			}
		}
	}
	return changed, nil
}

// rewriteConstMux folds mux(1,a,b)->b, mux(0,a,b)->a per the builder's
// mux(sel,a,b) = sel? b : a convention (so a const-1 selector keeps b,
// and a const-0 selector keeps a).
func rewriteConstMux(f *ir.Func, op *ir.Op) bool {
	sel := f.Op(op.Operands[0].Op)
	if sel.Kind != ir.Const {
		return false
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
	return true
}

// mergeZextTrunc collapses trunc<a>(zext<b>(x)) into a single resize of
// x, choosing trunc or zext depending on how a compares to x's own
// width, so CheckLogicDepth never counts the intermediate op.
func mergeZextTrunc(f *ir.Func, op *ir.Op) bool {
	inner := f.Op(op.Operands[0].Op)
	if inner.Kind != ir.Zext {
		return false
	}
	x := inner.Operands[0]
	xWidth := f.Width(x)
	outWidth := op.Results[0].Width
	op.Operands = []ir.ValueRef{x}
	op.OutWidth = outWidth
	if outWidth <= xWidth {
		op.Kind = ir.Trunc
	} else {
		op.Kind = ir.Zext
	}
	return true
}

// fuseNestedConcat flattens concat(concat(a,b), c) into concat(a,b,c),
// reducing operator count without changing the emitted bit pattern,
// since concat is associative by construction.
func fuseNestedConcat(f *ir.Func, op *ir.Op) bool {
	for i, opnd := range op.Operands {
		inner := f.Op(opnd.Op)
		if inner.Kind != ir.Concat {
			continue
		}
		flat := make([]ir.ValueRef, 0, len(op.Operands)+len(inner.Operands)-1)
		flat = append(flat, op.Operands[:i]...)
		flat = append(flat, inner.Operands...)
		flat = append(flat, op.Operands[i+1:]...)
		op.Operands = flat
		return true
	}
	return false
}
