package irtext

import (
	"bytes"
	"strings"
	"testing"
)

const counterIR = `
top: counter
funcs:
  - name: counter
    inputs:
      - {name: clk, width: 1, clock: true}
      - {name: rst, width: 1}
    outputs:
      - {name: q, width: 8}
    ops:
      - {id: 0, kind: input, name: clk}
      - {id: 1, kind: input, name: rst}
      - {id: 2, kind: const, widths: [8], const_value: 1}
      - {id: 3, kind: add, name: q, widths: [8], operands: ["4", "2"]}
      - {id: 4, kind: reg, widths: [8], operands: ["0", "1", "3"], has_reset: true}
`

func TestParseBuildsModuleWithBoundOutput(t *testing.T) {
	m, err := Parse(strings.NewReader(counterIR))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Funcs) != 1 {
		t.Fatalf("got %d funcs, want 1", len(m.Funcs))
	}
	f := m.Funcs[0]
	if f.Name != "counter" {
		t.Fatalf("func name = %q", f.Name)
	}
	refs := f.OutputRefs()
	if len(refs) != 1 || refs[0].Op != 3 {
		t.Fatalf("output refs = %v, want [{3 0}]", refs)
	}
	clk := f.Op(0)
	if !clk.IsPort() {
		t.Fatalf("op 0 should be a port placeholder")
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	src := `
funcs:
  - name: bad
    ops:
      - {id: 0, kind: frobnicate}
`
	if _, err := Parse(strings.NewReader(src)); err == nil {
		t.Fatalf("expected an error for an unknown op kind")
	}
}

func TestWriteThenParseRoundTrips(t *testing.T) {
	m, err := Parse(strings.NewReader(counterIR))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m2, err := Parse(&buf)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if len(m2.Funcs) != 1 || len(m2.Funcs[0].Ops) != len(m.Funcs[0].Ops) {
		t.Fatalf("round trip lost ops")
	}
}
