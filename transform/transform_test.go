package transform_test

import (
	"testing"

	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
	"github.com/pycircuit/pyc/transform"
)

func TestCanonicalizeFoldsConstantAdd(t *testing.T) {
	b := ir.NewBuilder("fold")
	a := b.Const(8, 3)
	bb := b.Const(8, 4)
	sum := b.BinOp(ir.Add, a, bb)
	b.Output("sum", sum)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	changed, err := pass.RunFunc(transform.Canonicalize, f)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if !changed {
		t.Fatal("expected Canonicalize to fold a constant add")
	}
	sumOp := f.Op(sum.Op)
	if sumOp.Kind != ir.Const || sumOp.ConstValue != 7 {
		t.Fatalf("got kind=%v value=%d, want const 7", sumOp.Kind, sumOp.ConstValue)
	}
}

func TestRemoveDeadValuesDropsUnreferencedOp(t *testing.T) {
	b := ir.NewBuilder("deadcode")
	a := b.Input("a", 8)
	unused := b.Const(8, 99)
	_ = unused
	b.Output("a_out", a)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	before := len(f.Ops)

	changed, err := pass.RunFunc(transform.RemoveDeadValues, f)
	if err != nil {
		t.Fatalf("RemoveDeadValues: %v", err)
	}
	if !changed {
		t.Fatal("expected RemoveDeadValues to drop the unused const")
	}
	if len(f.Ops) != before-1 {
		t.Fatalf("op count = %d, want %d", len(f.Ops), before-1)
	}
}

func TestEliminateWiresCollapsesIdentityResize(t *testing.T) {
	b := ir.NewBuilder("identity")
	a := b.Input("a", 8)
	widened := b.Zext(a, 8) // zext to the same width: a no-op
	b.Output("out", widened)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	changed, err := pass.RunFunc(transform.EliminateWires, f)
	if err != nil {
		t.Fatalf("EliminateWires: %v", err)
	}
	if !changed {
		t.Fatal("expected EliminateWires to collapse the identity zext")
	}
	refs := f.OutputRefs()
	if refs[0] != a {
		t.Fatalf("output now refs %v, want %v (the input directly)", refs[0], a)
	}
}

func TestPackI1RegsMergesSameClockRegs(t *testing.T) {
	b := ir.NewBuilder("bits")
	clk := b.Input("clk", 1)
	d0 := b.Input("d0", 1)
	d1 := b.Input("d1", 1)
	q0 := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, d0, false, false, 0, 0)
	q1 := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, d1, false, false, 0, 0)
	b.Output("q0", q0)
	b.Output("q1", q1)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	changed, err := pass.RunFunc(transform.PackI1Regs, f)
	if err != nil {
		t.Fatalf("PackI1Regs: %v", err)
	}
	if !changed {
		t.Fatal("expected PackI1Regs to merge the two registers")
	}

	regCount := 0
	for _, op := range f.Ops {
		if op.Kind == ir.Reg {
			regCount++
			if op.Results[0].Width != 2 {
				t.Fatalf("merged register width = %d, want 2", op.Results[0].Width)
			}
		}
	}
	if regCount != 1 {
		t.Fatalf("register count after packing = %d, want 1", regCount)
	}
}

func TestFuseCombDisabledClearsBlocks(t *testing.T) {
	b := ir.NewBuilder("f")
	a := b.Input("a", 8)
	bb := b.Input("b", 8)
	sum := b.BinOp(ir.Add, a, bb)
	b.Output("sum", sum)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f.SetCombBlocks([]ir.CombBlock{{Name: "stale"}})

	fuse := transform.FuseComb(false)
	changed, err := pass.RunFunc(fuse, f)
	if err != nil {
		t.Fatalf("FuseComb(false): %v", err)
	}
	if !changed {
		t.Fatal("expected clearing a stale grouping to report a change")
	}
	if f.CombBlocks != nil {
		t.Fatalf("CombBlocks = %v, want nil", f.CombBlocks)
	}
}

func TestInlineSplicesCalleeGraphAndRewritesConsumers(t *testing.T) {
	lb := ir.NewBuilder("adder")
	lx := lb.Input("x", 8)
	ly := lb.Input("y", 8)
	lb.Output("sum", lb.BinOp(ir.Add, lx, ly))
	leaf, err := lb.Build()
	if err != nil {
		t.Fatalf("Build leaf: %v", err)
	}

	tb := ir.NewBuilder("top")
	ta := tb.Input("a", 8)
	tc := tb.Input("b", 8)
	results := tb.Instance("adder", []ir.ValueRef{ta, tc}, []int{8})
	doubled := tb.BinOp(ir.Add, results[0], results[0])
	tb.Output("total", doubled)
	top, err := tb.Build()
	if err != nil {
		t.Fatalf("Build top: %v", err)
	}

	m := &ir.Module{Funcs: []*ir.Func{leaf, top}}
	changed, err := pass.RunModule(transform.Inline, m)
	if err != nil {
		t.Fatalf("Inline: %v", err)
	}
	if !changed {
		t.Fatal("expected Inline to report a change")
	}
	for _, op := range top.Ops {
		if op.Kind == ir.Instance {
			t.Fatalf("instance op %v survived inlining", op)
		}
	}

	// doubled's operands must now both trace back to an Add of top's own
	// input ports rather than to the now-gone instance's results.
	doubledOp := top.Op(doubled.Op)
	for _, opnd := range doubledOp.Operands {
		src := top.Op(opnd.Op)
		if src.Kind != ir.Add {
			t.Fatalf("doubled operand %v resolves to kind %v, want an inlined add", opnd, src.Kind)
		}
		if src.Operands[0] != ta || src.Operands[1] != tc {
			t.Fatalf("inlined add operands = %v, %v; want top's own a, b", src.Operands[0], src.Operands[1])
		}
	}
}

func TestInlineReportsUnresolvedCallee(t *testing.T) {
	tb := ir.NewBuilder("top")
	a := tb.Input("a", 8)
	results := tb.Instance("missing", []ir.ValueRef{a}, []int{8})
	tb.Output("out", results[0])
	top, err := tb.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := &ir.Module{Funcs: []*ir.Func{top}}

	if _, err := pass.RunModule(transform.Inline, m); err == nil {
		t.Fatal("expected Inline to reject an instance with no matching callee")
	}
}

func TestFuseCombEnabledGroupsBySink(t *testing.T) {
	b := ir.NewBuilder("f")
	a := b.Input("a", 8)
	bb := b.Input("b", 8)
	sum := b.BinOp(ir.Add, a, bb)
	b.Output("sum", sum)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	fuse := transform.FuseComb(true)
	changed, err := pass.RunFunc(fuse, f)
	if err != nil {
		t.Fatalf("FuseComb(true): %v", err)
	}
	if !changed {
		t.Fatal("expected at least one comb block")
	}
	if len(f.CombBlocks) == 0 {
		t.Fatal("expected FuseComb to produce a block")
	}
}
