// Package config defines the driver's run options: everything the C++
// driver's llvm::cl::opt globals used to carry, now a plain struct that
// can be populated from Cobra flags or from a YAML file, with flags
// taking precedence over the file — the same layering
// cmd/ralph-cc's flag vars plus debug-flag map illustrate, adapted here
// to a single struct instead of a package's worth of globals.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pycircuit/pyc/diag"
)

// EmitKind selects which back end the driver emits.
type EmitKind string

const (
	EmitVerilog EmitKind = "verilog"
	EmitCppSim  EmitKind = "cpp-sim"
)

// Target selects the Verilog primitive variant.
type Target string

const (
	TargetDefault Target = "default"
	TargetFPGA    Target = "fpga"
)

// SimMode selects how aggressively the pipeline may restructure
// combinational logic before simulation emission.
type SimMode string

const (
	SimDefault SimMode = "default"
	SimCppOnly SimMode = "cpp-only"
)

// Options is the complete set of driver-configurable settings, mirroring
// §6.1's flag list one field per flag.
type Options struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	OutDir string `yaml:"out_dir"`

	Emit               EmitKind `yaml:"emit"`
	Target             Target   `yaml:"target"`
	IncludePrimitives  bool     `yaml:"include_primitives"`
	SimMode            SimMode  `yaml:"sim_mode"`
	CppOnlyPreserveOps bool     `yaml:"cpp_only_preserve_ops"`
	LogicDepth         uint     `yaml:"logic_depth"`
}

// Default returns the option set the driver starts from before any
// flag or config file is applied.
func Default() Options {
	return Options{
		Emit:       EmitVerilog,
		Target:     TargetDefault,
		SimMode:    SimDefault,
		LogicDepth: 32,
	}
}

// Load reads a YAML config file at path and merges it into base, with
// every field base already set to a non-zero value left untouched —
// this is what gives flags precedence: the driver copies flag values
// into base before calling Load.
func Load(path string, base Options) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, diag.Wrap(err, diag.IoError, "", "", "reading config file "+path)
	}
	var fromFile Options
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return base, diag.Wrap(err, diag.ConfigError, "", "", "parsing config file "+path)
	}
	return mergeNonZero(base, fromFile), nil
}

// mergeNonZero returns a copy of base with every zero-valued field
// replaced by file's corresponding field. Fields base already carries a
// non-zero value for (typically because a flag set them explicitly) are
// left alone.
func mergeNonZero(base, file Options) Options {
	out := base
	if out.Input == "" {
		out.Input = file.Input
	}
	if out.Output == "" {
		out.Output = file.Output
	}
	if out.OutDir == "" {
		out.OutDir = file.OutDir
	}
	if out.Emit == "" {
		out.Emit = file.Emit
	}
	if out.Target == "" {
		out.Target = file.Target
	}
	if !out.IncludePrimitives {
		out.IncludePrimitives = file.IncludePrimitives
	}
	if out.SimMode == "" {
		out.SimMode = file.SimMode
	}
	if !out.CppOnlyPreserveOps {
		out.CppOnlyPreserveOps = file.CppOnlyPreserveOps
	}
	if out.LogicDepth == 0 {
		out.LogicDepth = file.LogicDepth
	}
	return out
}

// Validate checks the flag-combination rules in §6.1/§7 (ConfigError),
// before any pass runs.
func (o Options) Validate() error {
	switch o.Emit {
	case EmitVerilog, EmitCppSim:
	default:
		return diag.Newf(diag.ConfigError, "", "", "unknown --emit %q", o.Emit)
	}
	switch o.Target {
	case TargetDefault, TargetFPGA:
	default:
		return diag.Newf(diag.ConfigError, "", "", "unknown --target %q", o.Target)
	}
	switch o.SimMode {
	case SimDefault, SimCppOnly:
	default:
		return diag.Newf(diag.ConfigError, "", "", "unknown --sim-mode %q", o.SimMode)
	}
	if o.SimMode == SimCppOnly && o.Emit == EmitVerilog {
		return diag.New(diag.ConfigError, "", "", "--sim-mode=cpp-only forbids --emit=verilog")
	}
	if o.CppOnlyPreserveOps && o.SimMode != SimCppOnly {
		return diag.New(diag.ConfigError, "", "", "--cpp-only-preserve-ops requires --sim-mode=cpp-only")
	}
	if o.LogicDepth == 0 {
		return diag.New(diag.ConfigError, "", "", "--logic-depth must be positive")
	}
	if o.Output != "" && o.OutDir != "" {
		return diag.New(diag.ConfigError, "", "", "--output and --out-dir are mutually exclusive")
	}
	return nil
}

// SplitMode reports whether the run writes one file per function plus a
// manifest and stats record (§6.1's "split mode"), as opposed to a
// single stream.
func (o Options) SplitMode() bool { return o.OutDir != "" }

// FuseCombEnabled reports whether the FuseComb pass should run, per
// §6.1's sim-mode/cpp-only-preserve-ops interaction.
func (o Options) FuseCombEnabled() bool {
	return !(o.SimMode == SimCppOnly && o.CppOnlyPreserveOps)
}
