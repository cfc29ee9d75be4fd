// Package interptest provides equivalence-checking helpers for two
// elaborated modules, mirroring the role the teacher library's hwtest
// package plays for comparing two circuit implementations against the
// same stimulus.
package interptest

import (
	"math/rand"
	"testing"

	"github.com/pycircuit/pyc/bits"
	"github.com/pycircuit/pyc/interp"
	"github.com/pycircuit/pyc/ir"
)

// CompareModules runs two modules expected to expose the same named
// input/output ports (typically the same module before and after a
// combinational-grouping pass, or a Verilog-equivalence reference versus
// an optimized lowering) side by side against identical random
// stimulus, failing t on the first cycle where their outputs diverge.
func CompareModules(t *testing.T, tpc uint, a, b *ir.Module) {
	t.Helper()

	ca, err := interp.NewCircuit(0, tpc, a)
	if err != nil {
		t.Fatalf("elaborating first module: %v", err)
	}
	defer ca.Dispose()
	cb, err := interp.NewCircuit(0, tpc, b)
	if err != nil {
		t.Fatalf("elaborating second module: %v", err)
	}
	defer cb.Dispose()

	var inputs, outputs []string
	for _, name := range ca.InputNames() {
		if ca.IsClock(name) {
			continue
		}
		if !contains(cb.InputNames(), name) {
			t.Fatalf("second module has no input %q", name)
		}
		inputs = append(inputs, name)
	}
	for _, name := range ca.OutputNames() {
		if !contains(cb.OutputNames(), name) {
			t.Fatalf("second module has no output %q", name)
		}
		outputs = append(outputs, name)
	}

	drive := func(name string, v uint64) {
		w, _ := ca.InputWidth(name)
		val := bits.New(w, v)
		ca.Drive(name, val)
		cb.Drive(name, val)
	}

	check := func(cycle int) {
		for _, name := range outputs {
			va, _ := ca.Probe(name)
			vb, _ := cb.Probe(name)
			if va.Uint64() != vb.Uint64() {
				t.Fatalf("cycle %d: output %q diverged: %d vs %d", cycle, name, va.Uint64(), vb.Uint64())
			}
		}
	}

	for _, name := range inputs {
		drive(name, 0)
	}
	ca.TickTock()
	cb.TickTock()
	check(0)

	const iterations = 256
	for i := 1; i <= iterations; i++ {
		for _, name := range inputs {
			w, _ := ca.InputWidth(name)
			drive(name, randUint64(w))
		}
		ca.TickTock()
		cb.TickTock()
		check(i)
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func randUint64(width int) uint64 {
	if width >= 64 {
		return rand.Uint64()
	}
	return rand.Uint64() & ((uint64(1) << uint(width)) - 1)
}
