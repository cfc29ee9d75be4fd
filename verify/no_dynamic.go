package verify

import (
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// CheckNoDynamic fails on any op implying runtime dispatch, heap
// allocation, or non-static indexing beyond the supported memory ops,
// per §4.10. By the time this verifier runs, LowerSCFToPYCStatic has
// already eliminated every scf.if/scf.for, so any structured-control op
// still present means lowering silently left one behind — a compiler
// bug — and an Extract/Shl/Lshr/Ashr with a negative shift amount or
// lsb (which only a malformed textual-IR parse or a buggy pass could
// produce, never the Builder) signals a non-static index slipping
// through.
var CheckNoDynamic = pass.Named{Name: "check-no-dynamic", Fn: checkNoDynamicFunc}

func checkNoDynamicFunc(f *ir.Func) (bool, error) {
	for _, op := range f.Ops {
		if op.Kind.IsStructuredControl() {
			return false, diag.Newf(diag.NonStaticControl, f.Name, opLabel(op), "structured control survived lowering")
		}
		switch op.Kind {
		case ir.Extract:
			if op.Lsb < 0 {
				return false, diag.Newf(diag.NonStaticControl, f.Name, opLabel(op), "extract has a negative lsb")
			}
		case ir.Shl, ir.Lshr, ir.Ashr:
			if op.ShiftAmount < 0 {
				return false, diag.Newf(diag.NonStaticControl, f.Name, opLabel(op), "shift has a negative amount")
			}
		case ir.Instance:
			if op.Callee == "" {
				return false, diag.Newf(diag.InstanceUnresolved, f.Name, opLabel(op), "instance op has no callee")
			}
		}
	}
	return false, nil
}
