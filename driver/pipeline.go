// Package driver orchestrates one compilation: parse, run the pass
// pipeline, emit, and write the manifest/stats/Yosys-script side files
// split mode produces — the glue the original pyc-compile.cpp binary
// provided and that cmd/pyc-compile now just calls into.
package driver

import (
	"github.com/pycircuit/pyc/config"
	"github.com/pycircuit/pyc/pass"
	"github.com/pycircuit/pyc/stats"
	"github.com/pycircuit/pyc/transform"
	"github.com/pycircuit/pyc/verify"
)

// BuildPipeline assembles the one true pass ordering named in §4.1
// through §4.12: Inline first, so every later pass sees one flat op
// graph per design rather than a call graph, then the canonicalize/CSE/
// SCCP/dead-code/dead-symbol fixpoint, then every PYC-specific
// legalization, optimization, and verification pass in the order the
// original spec lists them, ending in stats collection.
func BuildPipeline(opts config.Options) pass.Pipeline {
	return pass.Pipeline{Steps: []pass.Step{
		pass.ModuleStep(transform.Inline),
		pass.FixpointStep("canonicalize", []pass.Named{
			transform.Canonicalize,
			transform.CSE,
			transform.SCCP,
			transform.RemoveDeadValues,
		}),
		pass.ModuleStep(transform.SymbolDCE),
		pass.FuncStep(transform.LowerSCFToPYCStatic),
		pass.FuncStep(transform.EliminateWires),
		pass.FuncStep(transform.EliminateDeadState),
		pass.FuncStep(transform.CombCanonicalize),
		pass.FuncStep(transform.SLPPackWiresPass),
		pass.FuncStep(verify.CheckCombCycles),
		pass.FuncStep(transform.PackI1Regs),
		pass.FuncStep(transform.FuseComb(opts.FuseCombEnabled())),
		pass.FuncStep(verify.CheckFlatTypes),
		pass.FuncStep(verify.CheckNoDynamic),
		pass.FuncStep(verify.CheckLogicDepth(int(opts.LogicDepth))),
		pass.FuncStep(stats.CollectCompileStats),
	}}
}
