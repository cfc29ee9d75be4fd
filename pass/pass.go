// Package pass provides the pipeline infrastructure every legalization,
// optimization, and verification pass in transform/verify plugs into: a
// single-entry transform over a module handle, composed sequentially by
// the driver, with deterministic per-function iteration order as
// required by §9's "pass pipeline" design note.
package pass

import (
	"fmt"

	"github.com/pycircuit/pyc/ir"
)

// Func is a pass that rewrites one function in place and reports whether
// it changed anything, or fails with a diagnostic. Pure middle-end passes
// (Canonicalize, CSE, SCCP, RemoveDeadValues) and PYC-specific passes
// alike are expressed this way so the fixpoint driver below can treat
// them uniformly.
type Func func(f *ir.Func) (changed bool, err error)

// Module is a pass that operates on the whole module at once — the
// handful of passes that need cross-function information (Inline,
// SymbolDCE) are expressed this way
// instead of forcing per-function plumbing where it doesn't belong.
type Module func(m *ir.Module) (changed bool, err error)

// Named pairs a pass with the name used in diagnostics and progress
// reporting, mirroring how the original driver names each PassManager
// step.
type Named struct {
	Name string
	Fn   Func
}

// NamedModule is the Module-level equivalent of Named.
type NamedModule struct {
	Name string
	Fn   Module
}

// RunFunc applies fn to f, labeling any returned error with the pass name
// and function name so a diagnostic always identifies where it happened.
func RunFunc(n Named, f *ir.Func) (bool, error) {
	changed, err := n.Fn(f)
	if err != nil {
		return false, fmt.Errorf("%s: %s: %w", n.Name, f.Name, err)
	}
	return changed, nil
}

// RunModule applies fn to m, labeling any returned error with the pass
// name.
func RunModule(n NamedModule, m *ir.Module) (bool, error) {
	changed, err := n.Fn(m)
	if err != nil {
		return false, fmt.Errorf("%s: %w", n.Name, err)
	}
	return changed, nil
}

// EachFunc runs a function pass over every function in the module, in
// program order (the deterministic iteration order §9 requires), and
// reports whether any function changed.
func EachFunc(m *ir.Module, n Named) (bool, error) {
	any := false
	for _, f := range m.Funcs {
		changed, err := RunFunc(n, f)
		if err != nil {
			return any, err
		}
		any = any || changed
	}
	return any, nil
}

// Fixpoint repeatedly applies EachFunc for every pass in seq, in order,
// until a full sweep over all passes produces no change, or maxRounds is
// reached. This realizes §4.1's canonicalize/CSE/SCCP/dead-code sub-
// pipeline, which the driver re-runs until it stabilizes, and also backs
// the idempotence property in §8.1 (a second full sweep changes nothing).
func Fixpoint(m *ir.Module, seq []Named, maxRounds int) error {
	for round := 0; round < maxRounds; round++ {
		anyChange := false
		for _, n := range seq {
			changed, err := EachFunc(m, n)
			if err != nil {
				return err
			}
			anyChange = anyChange || changed
		}
		if !anyChange {
			return nil
		}
	}
	return fmt.Errorf("pass: fixpoint sub-pipeline did not converge after %d rounds", maxRounds)
}

// Pipeline is the ordered, named sequence of passes the driver runs for
// one compilation, built by the driver's BuildPipeline (or a caller for
// testing a subset).
type Pipeline struct {
	Steps []Step
}

// Step is one stage of the pipeline: either a function pass applied to
// every function, a module-wide pass, or a fixpoint sub-pipeline.
type Step struct {
	Name       string
	Func       Named
	ModuleFn   NamedModule
	Fixpoint   []Named
	IsModule   bool
	IsFixpoint bool
}

// FuncStep wraps a function pass as a pipeline step.
func FuncStep(n Named) Step { return Step{Name: n.Name, Func: n} }

// ModuleStep wraps a module pass as a pipeline step.
func ModuleStep(n NamedModule) Step { return Step{Name: n.Name, ModuleFn: n, IsModule: true} }

// FixpointStep wraps a fixpoint sub-pipeline as a single named step.
func FixpointStep(name string, seq []Named) Step {
	return Step{Name: name, Fixpoint: seq, IsFixpoint: true}
}

// Run executes every step of p against m, in order, stopping at the
// first error. This is the sole place pass ordering is enforced; the
// driver never calls individual passes directly.
func (p Pipeline) Run(m *ir.Module) error {
	for _, s := range p.Steps {
		switch {
		case s.IsFixpoint:
			if err := Fixpoint(m, s.Fixpoint, 64); err != nil {
				return err
			}
		case s.IsModule:
			if _, err := RunModule(s.ModuleFn, m); err != nil {
				return err
			}
		default:
			if _, err := EachFunc(m, s.Func); err != nil {
				return err
			}
		}
	}
	return nil
}
