// Command pyc-compile is the textual-IR-to-Verilog/C++ driver: it reads
// a module, runs the legalization/optimization/verification pipeline,
// and emits either synthesizable Verilog or a cycle-accurate simulation
// model, optionally split into one file per function plus a manifest
// and stats record.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pycircuit/pyc/config"
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/driver"
)

var version = "0.1.0"

var (
	flagEmit               string
	flagTarget             string
	flagIncludePrimitives  bool
	flagSimMode            string
	flagCppOnlyPreserveOps bool
	flagLogicDepth         uint
	flagOutDir             string
	flagOutput             string
	flagConfig             string
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr, os.Args[1:]))
}

func run(in io.Reader, out, errOut io.Writer, args []string) int {
	rootCmd := newRootCmd(in, out, errOut)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pyc-compile [input.pyir]",
		Short:         "Compile a pyCircuit IR module to Verilog or a cycle-accurate simulation model",
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.Default()
			opts.Emit = config.EmitKind(flagEmit)
			opts.Target = config.Target(flagTarget)
			opts.IncludePrimitives = flagIncludePrimitives
			opts.SimMode = config.SimMode(flagSimMode)
			opts.CppOnlyPreserveOps = flagCppOnlyPreserveOps
			opts.LogicDepth = flagLogicDepth
			opts.OutDir = flagOutDir
			opts.Output = flagOutput
			if len(args) == 1 {
				opts.Input = args[0]
			}

			if flagConfig != "" {
				merged, err := config.Load(flagConfig, opts)
				if err != nil {
					printError(errOut, err)
					return err
				}
				opts = merged
			}

			result, err := driver.Run(opts, in, out)
			if err != nil {
				printError(errOut, err)
				return err
			}
			printSummary(errOut, result)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&flagEmit, "emit", string(config.EmitVerilog), "back end to emit: verilog or cpp-sim")
	rootCmd.Flags().StringVar(&flagTarget, "target", string(config.TargetDefault), "Verilog primitive variant: default or fpga")
	rootCmd.Flags().BoolVar(&flagIncludePrimitives, "include-primitives", false, "write the runtime primitive library alongside the output")
	rootCmd.Flags().StringVar(&flagSimMode, "sim-mode", string(config.SimDefault), "simulation mode: default or cpp-only")
	rootCmd.Flags().BoolVar(&flagCppOnlyPreserveOps, "cpp-only-preserve-ops", false, "disable FuseComb for op-granular simulation scheduling")
	rootCmd.Flags().UintVar(&flagLogicDepth, "logic-depth", config.Default().LogicDepth, "maximum combinational depth CheckLogicDepth allows")
	rootCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "write split output (one file per function plus a manifest and stats record) to this directory")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write single-stream output to this file instead of standard output")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "load unset options from this YAML file")

	return rootCmd
}

var (
	errStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	errColorFG = pterm.FgRed
	okStyleBG  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	okColorFG  = pterm.FgLightGreen
)

func printError(errOut io.Writer, err error) {
	pterm.SetDefaultOutput(errOut)
	tag := "Error"
	if d, ok := diag.As(err); ok {
		tag = d.Kind.String()
	}
	errStyleBG.Print(" " + tag + " ")
	errColorFG.Println(" " + err.Error())
}

func printSummary(errOut io.Writer, result driver.Result) {
	pterm.SetDefaultOutput(errOut)
	s := result.Summary
	okStyleBG.Print(" OK ")
	okColorFG.Println(fmt.Sprintf(
		" regs=%d (%d bits) mems=%d (%d bits) depth=%d/%d wns=%d tns=%d",
		s.RegCount, s.RegBits, s.MemCount, s.MemBits, s.MaxLogicDepth, s.LogicDepthLimit, s.Wns, s.Tns,
	))
}
