package interp

import (
	"testing"

	"github.com/pycircuit/pyc/bits"
)

func TestCircuitCounterCountsUpAndResets(t *testing.T) {
	m := buildCounter(t)
	c, err := NewCircuit(0, 8, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()

	c.Drive("rst", bits.New(1, 1))
	c.TickTock()
	v, ok := c.Probe("q")
	if !ok {
		t.Fatalf("no q output")
	}
	if v.Uint64() != 0 {
		t.Fatalf("after reset q = %d, want 0 (the register's reset value)", v.Uint64())
	}

	c.Drive("rst", bits.New(1, 0))
	for i := uint64(1); i <= 5; i++ {
		c.TickTock()
		v, _ = c.Probe("q")
		if v.Uint64() != i {
			t.Fatalf("cycle %d: q = %d, want %d", i, v.Uint64(), i)
		}
	}
}

func TestCircuitSizeIncludesInputDrivers(t *testing.T) {
	m := buildCounter(t)
	c, err := NewCircuit(0, 8, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()
	if c.Size() == 0 {
		t.Fatalf("expected a nonzero component count")
	}
}

func TestAtTickAtTockAlternate(t *testing.T) {
	m := buildCounter(t)
	c, err := NewCircuit(0, 8, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()
	if !c.AtTick() {
		t.Fatalf("expected to start at a tick")
	}
	c.Tick()
	if !c.AtTock() {
		t.Fatalf("expected to land on a tock after Tick")
	}
}
