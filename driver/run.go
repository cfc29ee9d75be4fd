package driver

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pycircuit/pyc/config"
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/emit/cppsim"
	"github.com/pycircuit/pyc/emit/verilog"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/irtext"
	"github.com/pycircuit/pyc/runtime/cpp"
	runtimeverilog "github.com/pycircuit/pyc/runtime/verilog"
	"github.com/pycircuit/pyc/stats"
)

// Result is what one compilation hands back to the caller once the
// pipeline, emission, and any side files have all succeeded.
type Result struct {
	Module  *ir.Module
	Summary stats.Summary
}

// Run executes one full compilation per §2's data flow: parse, run the
// pass pipeline, emit, and write whatever side files split mode needs.
// in supplies the textual IR when opts.Input is empty or "-"; out
// receives emitted text in single-stream mode (opts.Output == "" &&
// !opts.SplitMode()).
func Run(opts config.Options, in io.Reader, out io.Writer) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	module, err := parseInput(opts, in)
	if err != nil {
		return Result{}, err
	}

	top, ok := module.TopFunc()
	if !ok {
		return Result{}, diag.New(diag.ConfigError, "", "", "module has no resolvable top function")
	}

	pipeline := BuildPipeline(opts)
	if err := pipeline.Run(module); err != nil {
		return Result{}, err
	}

	summary := stats.Aggregate(module, int64(opts.LogicDepth), opts.FuseCombEnabled())

	if opts.SplitMode() {
		if err := runSplit(opts, module, top.Name, summary); err != nil {
			return Result{}, err
		}
		return Result{Module: module, Summary: summary}, nil
	}
	if err := runSingleStream(opts, module, out); err != nil {
		return Result{}, err
	}
	return Result{Module: module, Summary: summary}, nil
}

func parseInput(opts config.Options, in io.Reader) (*ir.Module, error) {
	if opts.Input == "" || opts.Input == "-" {
		return irtext.Parse(in)
	}
	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, diag.Wrap(err, diag.IoError, "", "", "opening input "+opts.Input)
	}
	defer f.Close()
	return irtext.Parse(f)
}

func runSingleStream(opts config.Options, module *ir.Module, out io.Writer) error {
	var buf bytes.Buffer
	if err := emitModule(opts, module, &buf); err != nil {
		return err
	}
	if opts.IncludePrimitives {
		if err := appendPrimitives(opts, &buf); err != nil {
			return err
		}
	}

	if opts.Output == "" {
		_, err := out.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
		return diag.Wrap(err, diag.IoError, "", "", "writing output "+opts.Output)
	}
	return nil
}

func runSplit(opts config.Options, module *ir.Module, top string, summary stats.Summary) error {
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return diag.Wrap(err, diag.IoError, "", "", "creating output directory "+opts.OutDir)
	}

	var verilogModules, cppModules []string
	var sources []string
	for _, f := range module.Funcs {
		single := &ir.Module{Funcs: []*ir.Func{f}, Attrs: module.Attrs}
		var buf bytes.Buffer
		if err := emitModule(opts, single, &buf); err != nil {
			return err
		}
		name := f.Name + emitExt(opts.Emit)
		path := filepath.Join(opts.OutDir, name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return diag.Wrap(err, diag.IoError, "", "", "writing "+path)
		}
		sources = append(sources, name)
		if opts.Emit == config.EmitVerilog {
			verilogModules = append(verilogModules, name)
		} else {
			cppModules = append(cppModules, name)
		}
	}

	if opts.IncludePrimitives {
		primNames, err := writePrimitivesDir(opts)
		if err != nil {
			return err
		}
		sources = append(sources, primNames...)
	}

	if opts.Emit == config.EmitVerilog {
		script := yosysScript(top, sources)
		if err := os.WriteFile(filepath.Join(opts.OutDir, "yosys_synth.ys"), []byte(script), 0o644); err != nil {
			return diag.Wrap(err, diag.IoError, "", "", "writing yosys_synth.ys")
		}
	}

	if err := writeManifest(filepath.Join(opts.OutDir, "manifest.json"), top, verilogModules, cppModules); err != nil {
		return err
	}
	return writeStats(filepath.Join(opts.OutDir, "compile_stats.json"), summary)
}

func emitModule(opts config.Options, module *ir.Module, w io.Writer) error {
	switch opts.Emit {
	case config.EmitVerilog:
		return verilog.Emit(w, module, verilog.Options{FPGA: opts.Target == config.TargetFPGA})
	case config.EmitCppSim:
		return cppsim.Emit(w, module, cppsim.Options{})
	default:
		return diag.Newf(diag.ConfigError, "", "", "unknown --emit %q", opts.Emit)
	}
}

func emitExt(e config.EmitKind) string {
	if e == config.EmitCppSim {
		return ".cpp"
	}
	return ".v"
}

// appendPrimitives writes the runtime primitive library for the
// selected back end into w: the bundled Verilog primitives (with an FPGA
// macro header when the target is fpga) or the C++ simulation header.
func appendPrimitives(opts config.Options, w io.Writer) error {
	if opts.Emit == config.EmitCppSim {
		data, err := cpp.Header()
		if err != nil {
			return diag.Wrap(err, diag.IoError, "", "", "reading cpp runtime header")
		}
		_, err = w.Write(data)
		return err
	}
	if opts.Target == config.TargetFPGA {
		if _, err := io.WriteString(w, "`define PYC_TARGET_FPGA\n"); err != nil {
			return err
		}
	}
	for _, name := range runtimeverilog.Names {
		data, err := runtimeverilog.Source(name)
		if err != nil {
			return diag.Wrap(err, diag.IoError, "", "", "reading primitive "+name)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
