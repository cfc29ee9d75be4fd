package transform

import (
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// PackI1Regs merges width-1 registers that share identical clock, reset,
// and clock-enable operands into a single wide register, per §4.8. Each
// original bit stays observable at its original name: every consumer of
// an original 1-bit register's output is rewritten to extract its lane
// out of the packed register instead, so nothing downstream can tell the
// registers were ever separate.
var PackI1Regs = pass.Named{Name: "pack-i1-regs", Fn: packI1RegsFunc}

type regKey struct {
	clk, rst, en ir.ValueRef
	hasReset     bool
	hasEnable    bool
}

func keyOf(op *ir.Op) regKey {
	k := regKey{hasReset: op.HasReset, hasEnable: op.HasEnable}
	i := 0
	k.clk = op.Operands[i]
	i++
	if op.HasReset {
		k.rst = op.Operands[i]
		i++
	}
	if op.HasEnable {
		k.en = op.Operands[i]
		i++
	}
	return k
}

func packI1RegsFunc(f *ir.Func) (bool, error) {
	groups := make(map[regKey][]*ir.Op)
	var order []regKey
	for _, op := range f.Ops {
		if op.Kind != ir.Reg || op.Results[0].Width != 1 {
			continue
		}
		k := keyOf(op)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], op)
	}

	changed := false
	for _, k := range order {
		regs := groups[k]
		if len(regs) < 2 {
			continue
		}
		packRegGroup(f, k, regs)
		changed = true
	}
	return changed, nil
}

func packRegGroup(f *ir.Func, k regKey, regs []*ir.Op) {
	width := len(regs)
	dIdx := len(regs[0].Operands) - 1
	dBits := make([]ir.ValueRef, width)
	var resetBits, initBits uint64
	for i, r := range regs {
		dBits[i] = r.Operands[dIdx]
		if r.HasReset && r.ResetValue != 0 {
			resetBits |= 1 << uint(i)
		}
		if r.InitValue != 0 {
			initBits |= 1 << uint(i)
		}
	}
	packedD := appendOpResult(f, &ir.Op{Kind: ir.Concat, Operands: reverseRefs(dBits), Results: []ir.Result{{Width: width}}})

	operands := []ir.ValueRef{k.clk}
	if k.hasReset {
		operands = append(operands, k.rst)
	}
	if k.hasEnable {
		operands = append(operands, k.en)
	}
	operands = append(operands, packedD)
	packed := &ir.Op{
		Kind:       ir.Reg,
		Operands:   operands,
		HasReset:   k.hasReset,
		ResetValue: resetBits,
		HasEnable:  k.hasEnable,
		InitValue:  initBits,
		Results:    []ir.Result{{Width: width}},
	}
	appendOp(f, packed)
	packedRef := ir.ValueRef{Op: packed.ID, Result: 0}

	for i, r := range regs {
		lane := appendOpResult(f, &ir.Op{Kind: ir.Extract, Operands: []ir.ValueRef{packedRef}, Lsb: i, OutWidth: 1, Results: []ir.Result{{Width: 1}}})
		substituteValueRefs(f, r.ID, []ir.ValueRef{lane})
	}

	// The originals have no consumers left; drop them so only the packed
	// register remains.
	dropped := make(map[*ir.Op]bool, len(regs))
	for _, r := range regs {
		dropped[r] = true
	}
	kept := f.Ops[:0]
	for _, op := range f.Ops {
		if !dropped[op] {
			kept = append(kept, op)
		}
	}
	f.Ops = kept
	f.Reindex()
}

// reverseRefs reverses refs so bit 0 ends up in the concat's
// least-significant (last) operand position, matching Concat's
// most-significant-first operand order.
func reverseRefs(refs []ir.ValueRef) []ir.ValueRef {
	out := make([]ir.ValueRef, len(refs))
	for i, r := range refs {
		out[len(refs)-1-i] = r
	}
	return out
}
