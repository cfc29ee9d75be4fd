package verify

import (
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
	"github.com/pycircuit/pyc/stats"
)

// CheckLogicDepth computes, for every register-to-register (or
// register-to-output) path, the longest chain of combinational ops
// between two sequential cut points, per §4.11. It records
// pyc.logic_depth.max/wns/tns on the function and fails with
// LogicDepthExceeded when the observed maximum exceeds limit. Ties
// between endpoints at equal depth break by op discovery order — the
// order f.Ops already preserves — so reports are deterministic.
func CheckLogicDepth(limit int) pass.Named {
	return pass.Named{Name: "check-logic-depth", Fn: func(f *ir.Func) (bool, error) {
		return checkLogicDepthFunc(f, limit)
	}}
}

func checkLogicDepthFunc(f *ir.Func, limit int) (bool, error) {
	depth := make(map[ir.OpID]int, len(f.Ops))
	var depthOf func(id ir.OpID) int
	depthOf = func(id ir.OpID) int {
		if d, ok := depth[id]; ok {
			return d
		}
		op := f.Op(id)
		best := 0
		if !op.Kind.IsStateful() {
			for _, pred := range op.Preds() {
				if d := depthOf(pred) + 1; d > best {
					best = d
				}
			}
		}
		depth[id] = best
		return best
	}

	endpoints := endpointsOf(f)
	maxDepth := 0
	var tns int64
	for _, id := range endpoints {
		d := depthOf(id)
		if d > maxDepth {
			maxDepth = d
		}
		if over := int64(d - limit); over > 0 {
			tns = stats.SatAdd(tns, over)
		}
	}
	wns := int64(limit - maxDepth)

	f.Attrs = f.Attrs.Set(ir.AttrLogicDepthPrefix+"max", int64(maxDepth))
	f.Attrs = f.Attrs.Set(ir.AttrLogicDepthPrefix+"wns", wns)
	f.Attrs = f.Attrs.Set(ir.AttrLogicDepthPrefix+"tns", tns)

	if maxDepth > limit {
		return true, diag.Newf(diag.LogicDepthExceeded, f.Name, "", "max combinational depth %d exceeds limit %d", maxDepth, limit)
	}
	return true, nil
}

// endpointsOf returns, in discovery order, the op ids whose value feeds a
// register's d input or an output port directly — the places a
// combinational chain must terminate.
func endpointsOf(f *ir.Func) []ir.OpID {
	var out []ir.OpID
	seen := make(map[ir.OpID]bool)
	add := func(id ir.OpID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, op := range f.Ops {
		if op.Kind == ir.Reg {
			d := op.Operands[len(op.Operands)-1]
			add(d.Op)
		}
	}
	for _, ref := range f.OutputRefs() {
		add(ref.Op)
	}
	return out
}
