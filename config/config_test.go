package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRejectsCppOnlyWithVerilog(t *testing.T) {
	o := Default()
	o.SimMode = SimCppOnly
	if err := o.Validate(); err == nil {
		t.Fatalf("expected an error combining sim-mode=cpp-only with emit=verilog")
	}
}

func TestValidateRejectsPreserveOpsWithoutCppOnly(t *testing.T) {
	o := Default()
	o.CppOnlyPreserveOps = true
	if err := o.Validate(); err == nil {
		t.Fatalf("expected an error for --cpp-only-preserve-ops without --sim-mode=cpp-only")
	}
}

func TestValidateRejectsOutputAndOutDirTogether(t *testing.T) {
	o := Default()
	o.Output = "a.v"
	o.OutDir = "out/"
	if err := o.Validate(); err == nil {
		t.Fatalf("expected an error for --output combined with --out-dir")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate on defaults: %v", err)
	}
}

func TestLoadOnlyFillsZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyc.yaml")
	if err := os.WriteFile(path, []byte("logic_depth: 64\ntarget: fpga\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	base := Default()
	base.Target = TargetDefault // explicitly set by a flag; Load must not override it

	merged, err := Load(path, base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if merged.Target != TargetDefault {
		t.Fatalf("Target = %q, want explicit flag value to win", merged.Target)
	}
	if merged.LogicDepth != Default().LogicDepth {
		t.Fatalf("LogicDepth = %d, want the base's own nonzero default to win", merged.LogicDepth)
	}
}

func TestLoadFillsUnsetFieldFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyc.yaml")
	if err := os.WriteFile(path, []byte("out_dir: build/\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	base := Default()
	merged, err := Load(path, base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if merged.OutDir != "build/" {
		t.Fatalf("OutDir = %q, want build/", merged.OutDir)
	}
}
