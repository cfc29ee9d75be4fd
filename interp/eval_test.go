package interp

import (
	"testing"

	"github.com/pycircuit/pyc/bits"
	"github.com/pycircuit/pyc/ir"
)

func buildSyncMem(t *testing.T) *ir.Module {
	b := ir.NewBuilder("mem")
	clk := b.Input("clk", 1)
	we := b.Input("we", 1)
	addr := b.Input("addr", 8)
	wdata := b.Input("wdata", 8)
	q := b.Emit(&ir.Op{
		Kind:     ir.MemSync,
		Operands: []ir.ValueRef{clk, we, addr, wdata},
		Results:  []ir.Result{{Width: 8}},
		Depth:    16,
	})
	b.Output("q", q)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &ir.Module{Funcs: []*ir.Func{f}}
}

func TestMemSyncReadsBackWhatItWrote(t *testing.T) {
	m := buildSyncMem(t)
	c, err := NewCircuit(0, 4, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()

	c.Drive("we", bits.New(1, 1))
	c.Drive("addr", bits.New(8, 3))
	c.Drive("wdata", bits.New(8, 42))
	c.TickTock()

	c.Drive("we", bits.New(1, 0))
	c.Drive("addr", bits.New(8, 3))
	c.TickTock()

	v, ok := c.Probe("q")
	if !ok {
		t.Fatalf("no q output")
	}
	if v.Uint64() != 42 {
		t.Fatalf("q = %d, want 42", v.Uint64())
	}
}

func buildFifoModule(t *testing.T) *ir.Module {
	b := ir.NewBuilder("fifo")
	clk := b.Input("clk", 1)
	rst := b.Input("rst", 1)
	push := b.Input("push", 1)
	wdata := b.Input("wdata", 8)
	pop := b.Input("pop", 1)
	results := b.Emit(&ir.Op{
		Kind:      ir.Fifo,
		Operands:  []ir.ValueRef{clk, rst, push, wdata, pop},
		Results:   []ir.Result{{Width: 8}, {Width: 1}, {Width: 1}},
		FifoDepth: 4,
	})
	rdata := ir.ValueRef{Op: results.Op, Result: 0}
	full := ir.ValueRef{Op: results.Op, Result: 1}
	empty := ir.ValueRef{Op: results.Op, Result: 2}
	b.Output("rdata", rdata)
	b.Output("full", full)
	b.Output("empty", empty)
	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return &ir.Module{Funcs: []*ir.Func{f}}
}

func TestFifoPushThenPopRoundTrips(t *testing.T) {
	m := buildFifoModule(t)
	c, err := NewCircuit(0, 4, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()

	empty, _ := c.Probe("empty")
	if empty.Uint64() != 1 {
		t.Fatalf("expected an empty fifo at start")
	}

	c.Drive("push", bits.New(1, 1))
	c.Drive("wdata", bits.New(8, 7))
	c.TickTock()
	c.Drive("push", bits.New(1, 0))

	empty, _ = c.Probe("empty")
	if empty.Uint64() != 0 {
		t.Fatalf("expected a non-empty fifo after a push")
	}

	c.Drive("pop", bits.New(1, 1))
	rdata, _ := c.Probe("rdata")
	if rdata.Uint64() != 7 {
		t.Fatalf("rdata = %d, want 7", rdata.Uint64())
	}
	c.TickTock()
	c.Drive("pop", bits.New(1, 0))

	empty, _ = c.Probe("empty")
	if empty.Uint64() != 1 {
		t.Fatalf("expected an empty fifo after popping its only entry")
	}
}
