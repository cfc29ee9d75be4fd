package transform_test

import (
	"testing"

	"github.com/pycircuit/pyc/interp/interptest"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
	"github.com/pycircuit/pyc/transform"
)

// buildRedundantCounter builds an up-counter whose next-value is computed
// twice by different but equivalent paths (one add, one double-negation
// of the same add) with the redundant path left unused, plus a dead
// constant nothing consumes — exactly the shape Canonicalize/CSE/
// RemoveDeadValues are meant to simplify away.
func buildRedundantCounter(t *testing.T) *ir.Func {
	t.Helper()
	b := ir.NewBuilder("counter")
	clk := b.Input("clk", 1)
	rst := b.Input("rst", 1)
	one := b.Const(8, 1)
	dead := b.Const(8, 0xAA)
	_ = dead
	q := b.Reg(clk, rst, ir.ValueRef{}, one, true, false, 0, 0)
	next := b.BinOp(ir.Add, q, one)
	redundant := b.Not(b.Not(next))
	_ = redundant
	b.Output("q", q)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	regOp := f.Op(q.Op)
	regOp.Operands[len(regOp.Operands)-1] = next
	return f
}

// TestCanonicalizeFixpointPreservesSimulatedBehavior drives the same
// design, before and after the canonicalize/CSE/SCCP/remove-dead-values
// fixpoint §4.1 runs first, through interptest.CompareModules — the
// differential equivalence checker for two lowerings of one design — and
// requires the optimized lowering to match the unoptimized one cycle for
// cycle.
func TestCanonicalizeFixpointPreservesSimulatedBehavior(t *testing.T) {
	raw := buildRedundantCounter(t)
	optimized := buildRedundantCounter(t)

	seq := []pass.Named{
		transform.Canonicalize,
		transform.CSE,
		transform.SCCP,
		transform.RemoveDeadValues,
	}
	if err := pass.Fixpoint(&ir.Module{Funcs: []*ir.Func{optimized}}, seq, 64); err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	if len(optimized.Ops) >= len(raw.Ops) {
		t.Fatalf("optimized op count = %d, want fewer than raw's %d", len(optimized.Ops), len(raw.Ops))
	}

	interptest.CompareModules(t, 4,
		&ir.Module{Funcs: []*ir.Func{raw}},
		&ir.Module{Funcs: []*ir.Func{optimized}})
}
