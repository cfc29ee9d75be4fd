package transform

import (
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// inlineFuelPerFunc bounds the number of instance ops Inline will splice
// into a single function, guarding against a self- or mutually-recursive
// instance cycle that would otherwise never terminate.
const inlineFuelPerFunc = 100000

// Inline replaces every `instance` op with a copy of its callee's op
// graph spliced directly into the caller, remapping the callee's input
// ports to the instance's operand values and rewriting every consumer of
// the instance's results to read the callee's output values instead. It
// is the first step of §4.1's ordering ("Inliner → canonicalize → CSE →
// SCCP → remove-dead-values → symbol-DCE"), so every later pass sees one
// flat op graph per top-level design rather than a call graph — SCCP and
// CSE in particular can only see across an instance boundary once it no
// longer exists.
//
// Once its consumers have been rewritten, the instance op itself is
// removed from the caller, so the next search finds the next remaining
// instance.
var Inline = pass.NamedModule{Name: "inline", Fn: inlineModule}

func inlineModule(m *ir.Module) (bool, error) {
	changed := false
	for _, f := range m.Funcs {
		fuel := inlineFuelPerFunc
		for {
			op := firstInstanceOp(f)
			if op == nil {
				break
			}
			fuel--
			if fuel <= 0 {
				return changed, diag.New(diag.InstanceUnresolved, f.Name, op.Name,
					"instance inlining did not terminate; likely a recursive instance cycle")
			}
			callee := m.FuncByName(op.Callee)
			if callee == nil {
				return changed, diag.New(diag.InstanceUnresolved, f.Name, op.Name,
					"instance callee "+op.Callee+" not found in module")
			}
			if err := inlineOnce(f, op, callee); err != nil {
				return changed, err
			}
			changed = true
		}
	}
	return changed, nil
}

func firstInstanceOp(f *ir.Func) *ir.Op {
	for _, op := range f.Ops {
		if op.Kind == ir.Instance {
			return op
		}
	}
	return nil
}

// inlineOnce splices one copy of callee's op graph into f in place of
// instOp, then rewrites every reference to instOp's results to the
// corresponding value inside the spliced copy.
func inlineOnce(f *ir.Func, instOp *ir.Op, callee *ir.Func) error {
	if len(instOp.Operands) != len(callee.Inputs) {
		return diag.Newf(diag.InstanceUnresolved, f.Name, instOp.Name,
			"instance of %s passes %d operands, callee declares %d inputs",
			callee.Name, len(instOp.Operands), len(callee.Inputs))
	}
	for _, src := range callee.Ops {
		if src.Kind.IsStructuredControl() {
			return diag.Newf(diag.NonStaticControl, f.Name, instOp.Name,
				"callee %s still has unlowered structured control; run LowerSCFToPYCStatic on it before inlining",
				callee.Name)
		}
	}

	inputIndex := make(map[string]int, len(callee.Inputs))
	for i, p := range callee.Inputs {
		inputIndex[p.Name] = i
	}

	// portValue maps a callee port op's id directly to the value the
	// instance passed for it; port ops themselves are never cloned, so
	// every operand referencing one resolves through this map instead of
	// idMap below.
	portValue := make(map[ir.OpID]ir.ValueRef, len(callee.Inputs))
	for _, src := range callee.Ops {
		if !src.IsPort() {
			continue
		}
		idx, ok := inputIndex[src.Name]
		if !ok {
			return diag.Newf(diag.InstanceUnresolved, f.Name, instOp.Name,
				"callee %s has no declared input named %q", callee.Name, src.Name)
		}
		portValue[src.ID] = instOp.Operands[idx]
	}

	idMap := make(map[ir.OpID]ir.OpID, len(callee.Ops))
	remap := func(v ir.ValueRef) ir.ValueRef {
		if repl, ok := portValue[v.Op]; ok {
			return repl
		}
		if mapped, ok := idMap[v.Op]; ok {
			return ir.ValueRef{Op: mapped, Result: v.Result}
		}
		return v
	}
	for _, src := range callee.Ops {
		if src.IsPort() {
			continue
		}
		clone := cloneOpForInline(f, src, remap)
		idMap[src.ID] = clone.ID
	}

	outRefs := callee.OutputRefs()
	replacements := make([]ir.ValueRef, len(instOp.Results))
	for i := range instOp.Results {
		replacements[i] = remap(outRefs[i])
	}
	substituteValueRefs(f, instOp.ID, replacements)

	kept := f.Ops[:0]
	for _, op := range f.Ops {
		if op != instOp {
			kept = append(kept, op)
		}
	}
	f.Ops = kept
	f.Reindex()
	return nil
}

// cloneOpForInline copies src into f's arena under a freshly allocated
// id, resolving every operand through remap (which redirects port
// references to the instance's actual arguments and earlier-cloned
// references to their new ids).
func cloneOpForInline(f *ir.Func, src *ir.Op, remap func(ir.ValueRef) ir.ValueRef) *ir.Op {
	clone := &ir.Op{
		Kind:        src.Kind,
		Name:        src.Name,
		Results:     append([]ir.Result(nil), src.Results...),
		ConstValue:  src.ConstValue,
		ShiftAmount: src.ShiftAmount,
		Lsb:         src.Lsb,
		OutWidth:    src.OutWidth,
		HasReset:    src.HasReset,
		ResetValue:  src.ResetValue,
		HasEnable:   src.HasEnable,
		InitValue:   src.InitValue,
		Depth:       src.Depth,
		ElemWidth:   src.ElemWidth,
		FifoDepth:   src.FifoDepth,
		Callee:      src.Callee,
	}
	clone.Operands = make([]ir.ValueRef, len(src.Operands))
	for i, opnd := range src.Operands {
		clone.Operands[i] = remap(opnd)
	}
	appendOp(f, clone)
	return clone
}
