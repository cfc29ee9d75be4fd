package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pycircuit/pyc/config"
)

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

func TestRunEmitsVerilogSingleStream(t *testing.T) {
	opts := config.Default()
	var out bytes.Buffer
	result, err := Run(opts, strings.NewReader(counterIR), &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "module counter") {
		t.Fatalf("output missing the counter module:\n%s", out.String())
	}
	if result.Summary.RegCount != 1 {
		t.Fatalf("RegCount = %d, want 1", result.Summary.RegCount)
	}
}

func TestRunSplitModeWritesManifestAndStats(t *testing.T) {
	dir := t.TempDir()
	opts := config.Default()
	opts.OutDir = dir

	if _, err := Run(opts, strings.NewReader(counterIR), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "counter.v")); err != nil {
		t.Fatalf("expected counter.v: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err != nil {
		t.Fatalf("expected manifest.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "compile_stats.json")); err != nil {
		t.Fatalf("expected compile_stats.json: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "yosys_synth.ys")); err != nil {
		t.Fatalf("expected yosys_synth.ys: %v", err)
	}
}

func TestRunRejectsCppOnlyWithVerilog(t *testing.T) {
	opts := config.Default()
	opts.SimMode = config.SimCppOnly
	if _, err := Run(opts, strings.NewReader(counterIR), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected a ConfigError for sim-mode=cpp-only with emit=verilog")
	}
}

func TestManifestPreservesUntouchedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte(`{"top":"old","verilog_modules":["old.v"],"cpp_modules":["keep.cpp"]}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := writeManifest(path, "new", []string{"new.v"}, nil); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	got, err := readManifest(path)
	if err != nil {
		t.Fatalf("readManifest: %v", err)
	}
	if got.Top != "new" || len(got.VerilogModules) != 1 || got.VerilogModules[0] != "new.v" {
		t.Fatalf("manifest did not apply the new run's keys: %+v", got)
	}
	if len(got.CppModules) != 1 || got.CppModules[0] != "keep.cpp" {
		t.Fatalf("manifest lost the untouched cpp_modules key: %+v", got)
	}
}
