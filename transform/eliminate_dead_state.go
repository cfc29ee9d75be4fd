package transform

import (
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// EliminateDeadState removes registers and CDC synchronizers whose output
// is never observed: no output port and no side-effecting op (memory,
// FIFO, instance) reads them, transitively. Combinational ops that feed
// only such state are unobserved too and are removed with it, so no
// surviving op references a removed one. Memories, FIFOs, and instances
// count as side-effecting and are always kept. RemoveDeadValues alone
// cannot do this, since it treats
// every stateful op as unconditionally live (a register can have
// observable side effects — e.g. power/area — even with no reader); this
// pass makes that judgment explicit and only then lets the op be erased
// like any other dead value.
var EliminateDeadState = pass.Named{Name: "eliminate-dead-state", Fn: eliminateDeadStateFunc}

func eliminateDeadStateFunc(f *ir.Func) (bool, error) {
	observed := make(map[ir.OpID]bool, len(f.Ops))
	var mark func(id ir.OpID)
	mark = func(id ir.OpID) {
		if observed[id] {
			return
		}
		observed[id] = true
		for _, pred := range f.Op(id).Preds() {
			mark(pred)
		}
	}
	for _, ref := range f.OutputRefs() {
		mark(ref.Op)
	}
	for _, op := range f.Ops {
		sideEffecting := op.Kind == ir.Instance || op.Kind == ir.MemSync || op.Kind == ir.MemSyncDP ||
			op.Kind == ir.Fifo || op.Kind == ir.AsyncFifo || op.Kind == ir.ByteMem
		if sideEffecting {
			mark(op.ID)
		}
	}

	changed := false
	kept := make([]*ir.Op, 0, len(f.Ops))
	for _, op := range f.Ops {
		if !observed[op.ID] && !op.IsPort() {
			changed = true
			continue
		}
		kept = append(kept, op)
	}
	f.Ops = kept
	if changed {
		f.Reindex()
	}
	return changed, nil
}
