package transform

import (
	"sort"

	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// SLPPackWiresPass finds groups of scalar bitwise ops that independently
// extract corresponding single bits from the same pair of wider buses
// and combine them with the same operator — the bit-blasted form a
// parser emits for a per-lane expression — and repacks each maximal
// contiguous run into one wide op over the buses directly, with each
// original scalar result rewritten to extract its lane back out. This
// never changes any port: every rewritten value still produces exactly
// the bit it produced before, just computed by one wide operator instead
// of many narrow ones.
var SLPPackWiresPass = pass.Named{Name: "slp-pack-wires", Fn: slpPackWiresFunc}

type laneOp struct {
	op       *ir.Op
	lsb      int
	aSrc     ir.OpID
	bSrc     ir.OpID
}

func slpPackWiresFunc(f *ir.Func) (bool, error) {
	groups := make(map[ir.Kind][]laneOp)
	for _, op := range f.Ops {
		if op.Results[0].Width != 1 {
			continue
		}
		switch op.Kind {
		case ir.And, ir.Or, ir.Xor:
		default:
			continue
		}
		a, aLsb, ok1 := scalarExtractSource(f, op.Operands[0])
		b, bLsb, ok2 := scalarExtractSource(f, op.Operands[1])
		if !ok1 || !ok2 || aLsb != bLsb {
			continue
		}
		groups[op.Kind] = append(groups[op.Kind], laneOp{op: op, lsb: aLsb, aSrc: a, bSrc: b})
	}

	changed := false
	for kind, lanes := range groups {
		changed = packRuns(f, kind, lanes) || changed
	}
	return changed, nil
}

// scalarExtractSource reports whether v is extract<1>(src, lsb).
func scalarExtractSource(f *ir.Func, v ir.ValueRef) (src ir.OpID, lsb int, ok bool) {
	op := f.Op(v.Op)
	if op.Kind != ir.Extract || op.Results[0].Width != 1 {
		return 0, 0, false
	}
	return op.Operands[0].Op, op.Lsb, true
}

func packRuns(f *ir.Func, kind ir.Kind, lanes []laneOp) bool {
	bySrcPair := make(map[[2]ir.OpID][]laneOp)
	for _, l := range lanes {
		bySrcPair[[2]ir.OpID{l.aSrc, l.bSrc}] = append(bySrcPair[[2]ir.OpID{l.aSrc, l.bSrc}], l)
	}

	changed := false
	for _, group := range bySrcPair {
		sort.Slice(group, func(i, j int) bool { return group[i].lsb < group[j].lsb })
		i := 0
		for i < len(group) {
			j := i + 1
			for j < len(group) && group[j].lsb == group[j-1].lsb+1 {
				j++
			}
			if j-i >= 2 {
				packOneRun(f, kind, group[i:j])
				changed = true
			}
			i = j
		}
	}
	return changed
}

func packOneRun(f *ir.Func, kind ir.Kind, run []laneOp) {
	width := len(run)
	lsb := run[0].lsb
	aSrc := run[0].aSrc
	bSrc := run[0].bSrc

	wideA := appendOpResult(f, &ir.Op{Kind: ir.Extract, Operands: []ir.ValueRef{{Op: aSrc, Result: 0}}, Lsb: lsb, OutWidth: width, Results: []ir.Result{{Width: width}}})
	wideB := appendOpResult(f, &ir.Op{Kind: ir.Extract, Operands: []ir.ValueRef{{Op: bSrc, Result: 0}}, Lsb: lsb, OutWidth: width, Results: []ir.Result{{Width: width}}})
	wide := appendOpResult(f, &ir.Op{Kind: kind, Operands: []ir.ValueRef{wideA, wideB}, Results: []ir.Result{{Width: width}}})

	for idx, l := range run {
		l.op.Kind = ir.Extract
		l.op.Operands = []ir.ValueRef{wide}
		l.op.Lsb = idx
		l.op.OutWidth = 1
	}
}

// appendOpResult is appendOp plus returning the value ref to its sole
// result, the common case every SLP-packed helper op needs.
func appendOpResult(f *ir.Func, op *ir.Op) ir.ValueRef {
	appendOp(f, op)
	return ir.ValueRef{Op: op.ID, Result: 0}
}
