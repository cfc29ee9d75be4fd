// Package verify implements the verification passes named in §4.10,
// §4.7, and §4.11: CheckCombCycles, CheckFlatTypes, CheckNoDynamic, and
// CheckLogicDepth. Every verifier either succeeds or fails with a single
// diag.Error naming the offending op or function, and none rewrites an
// op; CheckLogicDepth does record the pyc.logic_depth.* attributes on
// the function, also when it fails.
package verify

import (
	"fmt"

	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// CheckCombCycles performs a depth-first traversal of the combinational
// subgraph, treating every stateful op's output as a cut point, per
// §4.7. A register's own `d` operand is allowed to depend — through pure
// combinational logic — on the register's current output without that
// being a cycle, since the output is a cut point; what is forbidden is a
// purely combinational loop that never passes through any cut point.
var CheckCombCycles = pass.Named{Name: "check-comb-cycles", Fn: checkCombCyclesFunc}

const (
	white = 0
	gray  = 1
	black = 2
)

func checkCombCyclesFunc(f *ir.Func) (bool, error) {
	color := make(map[ir.OpID]int, len(f.Ops))
	var path []ir.OpID

	var visit func(id ir.OpID) error
	visit = func(id ir.OpID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			cyc := append(append([]ir.OpID(nil), path...), id)
			return diag.Newf(diag.CombCycle, f.Name, opsToString(cyc), "combinational cycle: %s", opsToString(cyc))
		}
		op := f.Op(id)
		if op.Kind.IsStateful() {
			color[id] = black
			return nil
		}
		color[id] = gray
		path = append(path, id)
		for _, opnd := range op.Preds() {
			if err := visit(opnd); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, op := range f.Ops {
		if err := visit(op.ID); err != nil {
			return false, err
		}
	}
	return false, nil
}

func opsToString(ids []ir.OpID) string {
	s := ""
	for i, id := range ids {
		if i > 0 {
			s += " -> "
		}
		s += fmt.Sprintf("%%%d", id)
	}
	return s
}
