package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var in, out, errOut bytes.Buffer
	cmd := newRootCmd(&in, &out, &errOut)

	for _, name := range []string{
		"emit", "target", "include-primitives", "sim-mode",
		"cpp-only-preserve-ops", "logic-depth", "out-dir", "output", "config",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist", name)
		}
	}
}

const counterIR = `
top: counter
funcs:
  - name: counter
    inputs:
      - {name: clk, width: 1, clock: true}
    outputs:
      - {name: q, width: 8}
    ops:
      - {id: 0, kind: input, name: clk}
      - {id: 1, kind: const, widths: [8], const_value: 1}
      - {id: 2, kind: add, name: q, widths: [8], operands: ["3", "1"]}
      - {id: 3, kind: reg, widths: [8], operands: ["0", "2"]}
`

func TestRunEmitsVerilogToStdout(t *testing.T) {
	in := strings.NewReader(counterIR)
	var out, errOut bytes.Buffer
	code := run(in, &out, &errOut, nil)
	if code != 0 {
		t.Fatalf("run exited %d, stderr: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "module counter") {
		t.Fatalf("output missing the counter module:\n%s", out.String())
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	in := strings.NewReader(counterIR)
	var out, errOut bytes.Buffer
	code := run(in, &out, &errOut, []string{"--sim-mode=cpp-only"})
	if code == 0 {
		t.Fatalf("expected a nonzero exit for --sim-mode=cpp-only with --emit=verilog")
	}
}
