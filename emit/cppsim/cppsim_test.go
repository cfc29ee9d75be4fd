package cppsim_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pycircuit/pyc/emit/cppsim"
	"github.com/pycircuit/pyc/ir"
)

func buildCounter(t *testing.T) *ir.Module {
	b := ir.NewBuilder("counter")
	clk := b.Input("clk", 1)
	rst := b.Input("rst", 1)
	one := b.Const(8, 1)
	q := b.Reg(clk, rst, ir.ValueRef{}, one, true, false, 0, 0)
	next := b.BinOp(ir.Add, q, one)
	b.Output("q", q)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Rewire the register's d operand to the freshly computed next value,
	// the same append-only-arena-with-one-exception pattern the Builder
	// itself documents for Reg's d operand: a register may legitimately
	// reference a value produced after it in program order.
	regOp := f.Op(q.Op)
	regOp.Operands[len(regOp.Operands)-1] = next
	return &ir.Module{Funcs: []*ir.Func{f}}
}

func TestEmitHasStructAndTickPhases(t *testing.T) {
	m := buildCounter(t)
	var buf bytes.Buffer
	if err := cppsim.Emit(&buf, m, cppsim.Options{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "struct counter {") {
		t.Fatalf("missing struct:\n%s", out)
	}
	if !strings.Contains(out, "void tick() {") {
		t.Fatalf("missing tick method:\n%s", out)
	}
	computeIdx := strings.Index(out, "tick_compute")
	commitIdx := strings.Index(out, "tick_commit")
	if computeIdx < 0 || commitIdx < 0 || computeIdx > commitIdx {
		t.Fatalf("tick_compute must precede tick_commit:\n%s", out)
	}
}

func TestEmitIncludesRuntimeHeader(t *testing.T) {
	m := buildCounter(t)
	var buf bytes.Buffer
	if err := cppsim.Emit(&buf, m, cppsim.Options{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.Contains(buf.String(), "#include <pyc/cpp/pyc_sim.hpp>") {
		t.Fatalf("missing runtime include:\n%s", buf.String())
	}
}

func buildFifoModule(t *testing.T) *ir.Module {
	b := ir.NewBuilder("queue")
	clk := b.Input("clk", 1)
	rst := b.Input("rst", 1)
	push := b.Input("push", 1)
	wdata := b.Input("wdata", 8)
	pop := b.Input("pop", 1)
	results := b.Emit(&ir.Op{
		Kind:      ir.Fifo,
		FifoDepth: 4,
		Operands:  []ir.ValueRef{clk, rst, push, wdata, pop},
		Results:   []ir.Result{{Width: 8}, {Width: 1}, {Width: 1}},
	})
	b.Output("rdata", results)
	b.Output("full", ir.ValueRef{Op: results.Op, Result: 1})
	b.Output("empty", ir.ValueRef{Op: results.Op, Result: 2})
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &ir.Module{Funcs: []*ir.Func{f}}
}

func TestEmitFifoInstantiatesFifoClassAndTicksIt(t *testing.T) {
	m := buildFifoModule(t)
	var buf bytes.Buffer
	if err := cppsim.Emit(&buf, m, cppsim.Options{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "pyc::cpp::pyc_fifo<4, 8>") {
		t.Fatalf("missing pyc_fifo instance declaration:\n%s", out)
	}
	if !strings.Contains(out, "_inst(clk, rst, push, wdata, pop, ") {
		t.Fatalf("fifo constructor not wired to its operands in order:\n%s", out)
	}
	if !strings.Contains(out, "_inst.tick_compute();") || !strings.Contains(out, "_inst.tick_commit();") {
		t.Fatalf("fifo instance never ticked:\n%s", out)
	}
}

func buildMemSyncModule(t *testing.T) *ir.Module {
	b := ir.NewBuilder("ram")
	clk := b.Input("clk", 1)
	we := b.Input("we", 1)
	addr := b.Input("addr", 32)
	wdata := b.Input("wdata", 8)
	q := b.Emit(&ir.Op{
		Kind:      ir.MemSync,
		Depth:     16,
		ElemWidth: 8,
		Operands:  []ir.ValueRef{clk, we, addr, wdata},
		Results:   []ir.Result{{Width: 8}},
	})
	b.Output("q", q)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &ir.Module{Funcs: []*ir.Func{f}}
}

func TestEmitMemSyncInstantiatesSyncMemClass(t *testing.T) {
	m := buildMemSyncModule(t)
	var buf bytes.Buffer
	if err := cppsim.Emit(&buf, m, cppsim.Options{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "pyc::cpp::pyc_sync_mem<16, 8>") {
		t.Fatalf("missing pyc_sync_mem instance declaration:\n%s", out)
	}
	if !strings.Contains(out, "_inst(clk, we, addr, wdata, ") {
		t.Fatalf("mem_sync constructor not wired to its operands in order:\n%s", out)
	}
}

func TestEmitRejectsUnresolvedInstance(t *testing.T) {
	b := ir.NewBuilder("top")
	a := b.Input("a", 8)
	c := b.Input("b", 8)
	results := b.Instance("adder", []ir.ValueRef{a, c}, []int{8})
	b.Output("sum", results[0])
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	m := &ir.Module{Funcs: []*ir.Func{f}}

	var buf bytes.Buffer
	if err := cppsim.Emit(&buf, m, cppsim.Options{}); err == nil {
		t.Fatal("expected Emit to reject an unresolved instance op")
	}
}
