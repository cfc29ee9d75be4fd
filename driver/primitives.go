package driver

import (
	"os"
	"path/filepath"

	"github.com/pycircuit/pyc/config"
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/runtime/cpp"
	runtimeverilog "github.com/pycircuit/pyc/runtime/verilog"
)

// PrimitivesDirEnv is the single environment variable the driver
// consults to find (or materialize) the runtime primitives directory,
// per §9's design note: the original's upward directory walk from the
// executable path is brittle, so this is replaced with one explicit
// variable, falling back to the current working directory.
const PrimitivesDirEnv = "PYC_PRIMITIVES_DIR"

// primitivesDir resolves the directory split-mode writes runtime
// primitive sources into, so an external Yosys run or a separately
// compiled simulation harness can find them without re-running pyc-
// compile.
func primitivesDir() string {
	if dir := os.Getenv(PrimitivesDirEnv); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// writePrimitivesDir materializes the runtime primitive library for the
// selected back end into primitivesDir(), returning the file names
// written (relative to that directory) for the caller to fold into the
// Yosys script's read_verilog list.
func writePrimitivesDir(opts config.Options) ([]string, error) {
	dir := primitivesDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, diag.Wrap(err, diag.IoError, "", "", "creating primitives directory "+dir)
	}

	if opts.Emit == config.EmitCppSim {
		data, err := cpp.Header()
		if err != nil {
			return nil, diag.Wrap(err, diag.IoError, "", "", "reading cpp runtime header")
		}
		name := "pyc_sim.hpp"
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return nil, diag.Wrap(err, diag.IoError, "", "", "writing "+name)
		}
		return []string{name}, nil
	}

	var names []string
	err := runtimeverilog.WriteAll(dir, func(path string, data []byte) error {
		names = append(names, filepath.Base(path))
		return os.WriteFile(path, data, 0o644)
	})
	if err != nil {
		return nil, diag.Wrap(err, diag.IoError, "", "", "writing primitives directory "+dir)
	}
	if opts.Target == config.TargetFPGA {
		macroPath := filepath.Join(dir, "pyc_fpga.vh")
		if err := os.WriteFile(macroPath, []byte("`define PYC_TARGET_FPGA\n"), 0o644); err != nil {
			return nil, diag.Wrap(err, diag.IoError, "", "", "writing "+macroPath)
		}
		names = append([]string{"pyc_fpga.vh"}, names...)
	}
	return names, nil
}
