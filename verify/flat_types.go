package verify

import (
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// CheckFlatTypes fails on any remaining aggregate-typed value, per
// §4.10. Every value in this IR is, by construction, a flat bits.Value
// of a width in [1,64] — there is no struct/array/tuple result type to
// begin with — so the only way this invariant could be violated is a
// width outside that range slipping past the builder, which this
// verifier treats as a bug worth its own diagnostic rather than a silent
// panic deep inside an emitter.
var CheckFlatTypes = pass.Named{Name: "check-flat-types", Fn: checkFlatTypesFunc}

func checkFlatTypesFunc(f *ir.Func) (bool, error) {
	for _, op := range f.Ops {
		for i, r := range op.Results {
			if r.Width < 1 || r.Width > 64 {
				return false, diag.Newf(diag.UnknownWidth, f.Name, opLabel(op), "result %d has width %d, outside [1,64]", i, r.Width)
			}
		}
	}
	return false, nil
}

func opLabel(op *ir.Op) string {
	if op.Name != "" {
		return op.Name
	}
	return op.Kind.String()
}
