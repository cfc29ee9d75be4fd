package pass_test

import (
	"testing"

	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// countingFold folds the first const-foldable add it finds, one per
// invocation — a deliberately slow-converging pass so Fixpoint actually
// has to iterate more than once to settle, exercising the fixpoint loop
// itself rather than a pass that happens to finish in one pass.
func countingFold(f *ir.Func) (bool, error) {
	for _, op := range f.Ops {
		if op.Kind != ir.Add {
			continue
		}
		a, b := f.Op(op.Operands[0].Op), f.Op(op.Operands[1].Op)
		if a.Kind == ir.Const && b.Kind == ir.Const {
			op.Kind = ir.Const
			op.ConstValue = a.ConstValue + b.ConstValue
			op.Operands = nil
			return true, nil
		}
	}
	return false, nil
}

func TestFixpointConverges(t *testing.T) {
	b := ir.NewBuilder("chain")
	c1 := b.Const(8, 1)
	c2 := b.Const(8, 2)
	c3 := b.Const(8, 3)
	s1 := b.BinOp(ir.Add, c1, c2)
	s2 := b.BinOp(ir.Add, s1, c3)
	b.Output("out", s2)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := &ir.Module{Funcs: []*ir.Func{f}}

	err = pass.Fixpoint(m, []pass.Named{{Name: "fold-one", Fn: countingFold}}, 64)
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}

	s2Op := f.Op(s2.Op)
	if s2Op.Kind != ir.Const || s2Op.ConstValue != 6 {
		t.Fatalf("got kind=%v value=%d, want const 6", s2Op.Kind, s2Op.ConstValue)
	}
}

func TestFixpointReportsNonConvergence(t *testing.T) {
	toggle := func(f *ir.Func) (bool, error) { return true, nil }
	m := &ir.Module{Funcs: []*ir.Func{{Name: "never-settles"}}}

	err := pass.Fixpoint(m, []pass.Named{{Name: "toggle", Fn: toggle}}, 4)
	if err == nil {
		t.Fatal("expected a non-convergence error")
	}
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	var order []string
	record := func(name string) pass.Named {
		return pass.Named{Name: name, Fn: func(f *ir.Func) (bool, error) {
			order = append(order, name)
			return false, nil
		}}
	}
	p := pass.Pipeline{Steps: []pass.Step{
		pass.FuncStep(record("first")),
		pass.FuncStep(record("second")),
	}}
	m := &ir.Module{Funcs: []*ir.Func{{Name: "f"}}}

	if err := p.Run(m); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}
