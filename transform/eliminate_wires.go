package transform

import (
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// EliminateWires removes trivial identity wires — single-operand
// resizing ops whose output width equals their input width, i.e. they
// pass their operand through unchanged — by rewriting every consumer to
// read the original source directly. This is the same chain-collapsing
// the teacher's checkWiring performs over its node/outs graph before a
// chip can be mounted: follow a chain of pass-throughs to its root once,
// then repoint every consumer at the root in a single pass rather than
// re-chasing the chain per consumer.
//
// Output ports carry their own Name independent of any op's Name, so
// collapsing an identity op never loses an exported name — there is
// nothing extra to preserve beyond what Func.Outputs already records.
var EliminateWires = pass.Named{Name: "eliminate-wires", Fn: eliminateWiresFunc}

func isIdentity(f *ir.Func, op *ir.Op) bool {
	switch op.Kind {
	case ir.Trunc, ir.Zext, ir.Sext:
		return len(op.Operands) == 1 && f.Width(op.Operands[0]) == op.Results[0].Width
	default:
		return false
	}
}

// root follows a chain of identity ops starting at v to its ultimate
// non-identity source, guarding against a malformed cycle by bounding
// the chain length to the function's op count.
func root(f *ir.Func, v ir.ValueRef) ir.ValueRef {
	limit := len(f.Ops) + 1
	for i := 0; i < limit; i++ {
		op := f.Op(v.Op)
		if !isIdentity(f, op) {
			return v
		}
		v = op.Operands[0]
	}
	return v
}

func eliminateWiresFunc(f *ir.Func) (bool, error) {
	changed := false
	for _, op := range f.Ops {
		if op.Kind.IsStructuredControl() {
			continue
		}
		for i, opnd := range op.Operands {
			r := root(f, opnd)
			if r != opnd {
				op.Operands[i] = r
				changed = true
			}
		}
	}
	refs := f.OutputRefs()
	for i, ref := range refs {
		r := root(f, ref)
		if r != ref {
			refs[i] = r
			changed = true
		}
	}
	f.BindOutputRefs(refs)
	return changed, nil
}
