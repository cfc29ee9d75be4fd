package transform

import (
	"fmt"

	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// FuseComb groups every combinational op into the comb block of the
// single sequential-or-output sink it ultimately feeds, per §4.9. An op
// whose value reaches more than one sink is left in every block it
// reaches rather than silently assigned to just one — emitting it once
// per block costs an extra temporary, never a correctness problem, and
// keeps each block's Inputs/Outputs accurate without a separate
// rematerialization pass.
//
// FuseComb(false) clears any existing grouping instead of computing one,
// realizing --cpp-only-preserve-ops: the simulation emitter then
// schedules every op individually for fine-grained stepping.
func FuseComb(enabled bool) pass.Named {
	if !enabled {
		return pass.Named{Name: "fuse-comb", Fn: func(f *ir.Func) (bool, error) {
			had := f.CombBlocks != nil
			f.SetCombBlocks(nil)
			return had, nil
		}}
	}
	return pass.Named{Name: "fuse-comb", Fn: fuseCombFunc}
}

func fuseCombFunc(f *ir.Func) (bool, error) {
	uses := f.Uses()
	sinkNames := sinkNamesFor(f)

	memo := make(map[ir.OpID]map[string]bool)
	var sinksOf func(id ir.OpID) map[string]bool
	sinksOf = func(id ir.OpID) map[string]bool {
		if s, ok := memo[id]; ok {
			return s
		}
		memo[id] = map[string]bool{} // break cycles defensively
		s := map[string]bool{}
		if name, ok := sinkNames[id]; ok {
			s[name] = true
		}
		for _, consumerRef := range uses[id] {
			for name := range sinksOf(consumerRef.Op) {
				s[name] = true
			}
		}
		memo[id] = s
		return s
	}

	blocks := make(map[string][]ir.OpID)
	var order []string
	for _, op := range f.Ops {
		if op.Kind.IsStateful() || op.Kind.IsStructuredControl() || op.IsPort() {
			continue
		}
		for name := range sinksOf(op.ID) {
			if _, seen := blocks[name]; !seen {
				order = append(order, name)
			}
			blocks[name] = append(blocks[name], op.ID)
		}
	}

	combBlocks := make([]ir.CombBlock, 0, len(order))
	for i, name := range order {
		ids := blocks[name]
		inSet := map[ir.ValueRef]bool{}
		inBlock := map[ir.OpID]bool{}
		for _, id := range ids {
			inBlock[id] = true
		}
		for _, id := range ids {
			for _, opnd := range f.Op(id).Operands {
				if !inBlock[opnd.Op] {
					inSet[opnd] = true
				}
			}
		}
		outSet := map[ir.ValueRef]bool{}
		for _, id := range ids {
			for _, consumerRef := range uses[id] {
				if !inBlock[consumerRef.Op] {
					outSet[ir.ValueRef{Op: id, Result: 0}] = true
				}
			}
			if sinkNames[id] == name {
				outSet[ir.ValueRef{Op: id, Result: 0}] = true
			}
		}
		combBlocks = append(combBlocks, ir.CombBlock{
			Name:    fmt.Sprintf("eval_comb_%d", i),
			Ops:     ids,
			Inputs:  setToSlice(inSet),
			Outputs: setToSlice(outSet),
		})
	}

	f.SetCombBlocks(combBlocks)
	return len(combBlocks) > 0, nil
}

// sinkNamesFor assigns a stable name to each sink an op can ultimately
// feed: one per output port, one per stateful op that consumes a value
// directly.
func sinkNamesFor(f *ir.Func) map[ir.OpID]string {
	names := make(map[ir.OpID]string)
	for i, ref := range f.OutputRefs() {
		names[ref.Op] = fmt.Sprintf("out_%d", i)
	}
	for _, op := range f.Ops {
		if op.Kind.IsStateful() {
			names[op.ID] = fmt.Sprintf("sink_%s_%d", op.Kind, op.ID)
		}
	}
	return names
}

func setToSlice(set map[ir.ValueRef]bool) []ir.ValueRef {
	out := make([]ir.ValueRef, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}
