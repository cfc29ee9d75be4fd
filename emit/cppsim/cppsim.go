// Package cppsim implements the cycle-accurate C++ simulation emitter
// named in §4.14: one struct per function, a numbered eval_comb_k()
// method per FuseComb block (or one block per op when FuseComb never
// ran), an eval_comb_pass() that calls them in dependency order, and a
// two-phase tick() that runs every stateful primitive instance's
// tick_compute() before any instance's tick_commit(), matching the
// digital-clock prototype retrieved for this project. Instance ops must
// already be resolved (by the Inliner pass) before reaching this
// package; there is no C++ primitive class for an arbitrary callee.
package cppsim

import (
	"fmt"
	"io"
	"sort"

	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
)

// Options configures one emission call.
type Options struct {
	// Namespace overrides the default pyc::gen namespace.
	Namespace string
}

func (o Options) namespace() string {
	if o.Namespace == "" {
		return "pyc::gen"
	}
	return o.Namespace
}

// Emit writes the C++ simulation translation of every function in m to
// w, one struct per function, in module program order.
func Emit(w io.Writer, m *ir.Module, opts Options) error {
	fmt.Fprintf(w, "// generated simulation model\n#include <pyc/cpp/pyc_sim.hpp>\n\n")
	fmt.Fprintf(w, "namespace %s {\n\n", opts.namespace())
	for _, f := range m.Funcs {
		if err := emitFunc(w, f); err != nil {
			return diag.Wrap(err, diag.EmissionError, f.Name, "", "cppsim emission failed")
		}
	}
	fmt.Fprintf(w, "} // namespace %s\n", opts.namespace())
	return nil
}

func emitFunc(w io.Writer, f *ir.Func) error {
	fmt.Fprintf(w, "struct %s {\n", f.Name)

	for _, p := range f.Inputs {
		fmt.Fprintf(w, "  pyc::cpp::Wire<%d> %s{};\n", p.Width, p.Name)
	}
	for _, p := range f.Outputs {
		fmt.Fprintf(w, "  pyc::cpp::Wire<%d> %s{};\n", p.Width, p.Name)
	}
	for _, op := range f.Ops {
		if op.IsPort() {
			continue
		}
		for i, r := range op.Results {
			fmt.Fprintf(w, "  pyc::cpp::Wire<%d> %s{};\n", r.Width, resultName(op.ID, i))
		}
	}

	var stateful []*ir.Op
	for _, op := range f.Ops {
		if op.Kind == ir.Instance {
			return diag.New(diag.EmissionError, f.Name, op.Name,
				"instance op reached cppsim emission unresolved; run the Inliner pass first")
		}
		if op.Kind.IsStateful() {
			stateful = append(stateful, op)
		}
	}
	for _, op := range stateful {
		fmt.Fprintf(w, "  %s %s_inst;\n", instanceDecl(op), resultName(op.ID, 0))
	}

	emitConstructor(w, f, stateful)

	blocks := combBlocksOf(f)
	for i, blk := range blocks {
		emitCombBlockMethod(w, f, i, blk)
	}
	emitCombPass(w, blocks)
	emitEval(w, f)
	emitTick(w, stateful)

	fmt.Fprintf(w, "};\n\n")
	return nil
}

// instanceDecl names the C++ class (with template arguments bound) that
// models op's stateful kind at runtime, per runtime/cpp/pyc_sim.hpp.
func instanceDecl(op *ir.Op) string {
	switch op.Kind {
	case ir.Reg:
		return fmt.Sprintf("pyc::cpp::pyc_reg<%d>", op.Results[0].Width)
	case ir.MemSync:
		return fmt.Sprintf("pyc::cpp::pyc_sync_mem<%d, %d>", op.Depth, op.ElemWidth)
	case ir.MemSyncDP:
		return fmt.Sprintf("pyc::cpp::pyc_sync_mem_dp<%d, %d>", op.Depth, op.ElemWidth)
	case ir.ByteMem:
		return fmt.Sprintf("pyc::cpp::pyc_byte_mem<%d>", op.Depth)
	case ir.Fifo:
		return fmt.Sprintf("pyc::cpp::pyc_fifo<%d, %d>", op.FifoDepth, op.Results[0].Width)
	case ir.AsyncFifo:
		return fmt.Sprintf("pyc::cpp::pyc_async_fifo<%d, %d>", op.FifoDepth, op.Results[0].Width)
	case ir.CdcSync:
		return "pyc::cpp::pyc_cdc_sync"
	default:
		panic("cppsim: " + op.Kind.String() + " is not a stateful primitive kind")
	}
}

// instanceCtorArgs returns op's operand and result wires in the exact
// order the matching runtime/cpp/pyc_sim.hpp constructor expects them.
func instanceCtorArgs(op *ir.Op) []string {
	r := func(i int) string { return resultName(op.ID, i) }
	switch op.Kind {
	case ir.Reg:
		clk, rst, en, d := regOperands(op)
		return []string{operandRef(clk), operandRef(rst), operandRef(en), operandRef(d),
			fmt.Sprintf("%d", op.ResetValue), r(0)}
	case ir.MemSync, ir.ByteMem:
		clk, we, addr, wdata := op.Operands[0], op.Operands[1], op.Operands[2], op.Operands[3]
		return []string{operandRef(clk), operandRef(we), operandRef(addr), operandRef(wdata), r(0)}
	case ir.MemSyncDP:
		clk := op.Operands[0]
		weA, addrA, wdataA := op.Operands[1], op.Operands[2], op.Operands[3]
		weB, addrB, wdataB := op.Operands[4], op.Operands[5], op.Operands[6]
		return []string{
			operandRef(clk),
			operandRef(weA), operandRef(addrA), operandRef(wdataA), r(0),
			operandRef(weB), operandRef(addrB), operandRef(wdataB), r(1),
		}
	case ir.Fifo:
		clk, rst, push, wdata, pop := op.Operands[0], op.Operands[1], op.Operands[2], op.Operands[3], op.Operands[4]
		return []string{operandRef(clk), operandRef(rst), operandRef(push), operandRef(wdata), operandRef(pop),
			r(0), r(1), r(2)}
	case ir.AsyncFifo:
		wrClk, push, wdata := op.Operands[0], op.Operands[1], op.Operands[2]
		rdClk, pop := op.Operands[3], op.Operands[4]
		return []string{operandRef(wrClk), operandRef(push), operandRef(wdata), r(1),
			operandRef(rdClk), operandRef(pop), r(0), r(2)}
	case ir.CdcSync:
		clk, d := op.Operands[0], op.Operands[1]
		return []string{operandRef(clk), operandRef(d), r(0)}
	default:
		panic("cppsim: " + op.Kind.String() + " is not a stateful primitive kind")
	}
}

func resultName(id ir.OpID, result int) string {
	if result == 0 {
		return fmt.Sprintf("pyc_v%d", id)
	}
	return fmt.Sprintf("pyc_v%d_r%d", id, result)
}

// combBlock is either a real FuseComb grouping or, when none ran, a
// single op treated as its own one-op block, so eval_comb_pass always
// has a uniform shape to call through regardless of whether FuseComb
// ran.
type combBlock struct {
	ops []*ir.Op
}

func combBlocksOf(f *ir.Func) []combBlock {
	if len(f.CombBlocks) > 0 {
		out := make([]combBlock, len(f.CombBlocks))
		for i, b := range f.CombBlocks {
			blk := combBlock{}
			for _, id := range b.Ops {
				blk.ops = append(blk.ops, f.Op(id))
			}
			out[i] = blk
		}
		return out
	}
	ops := make([]*ir.Op, 0, len(f.Ops))
	for _, op := range f.Ops {
		if op.IsPort() || op.Kind.IsStateful() {
			continue
		}
		ops = append(ops, op)
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })
	out := make([]combBlock, len(ops))
	for i, op := range ops {
		out[i] = combBlock{ops: []*ir.Op{op}}
	}
	return out
}

func emitConstructor(w io.Writer, f *ir.Func, stateful []*ir.Op) {
	fmt.Fprintf(w, "  %s()", f.Name)
	if len(stateful) > 0 {
		fmt.Fprintf(w, " :\n")
		for i, op := range stateful {
			sep := ","
			if i == len(stateful)-1 {
				sep = ""
			}
			fmt.Fprintf(w, "      %s_inst(%s)%s\n", resultName(op.ID, 0), joinComma(instanceCtorArgs(op)), sep)
		}
	}
	fmt.Fprintf(w, "  {\n    eval();\n  }\n")
}

func regOperands(reg *ir.Op) (clk, rst, en, d ir.ValueRef) {
	i := 0
	clk = reg.Operands[i]
	i++
	if reg.HasReset {
		rst = reg.Operands[i]
		i++
	}
	if reg.HasEnable {
		en = reg.Operands[i]
		i++
	}
	d = reg.Operands[i]
	return
}

func operandRef(v ir.ValueRef) string {
	if v == (ir.ValueRef{}) {
		return "pyc::cpp::Wire<1>{}"
	}
	return resultName(v.Op, v.Result)
}

func emitCombBlockMethod(w io.Writer, f *ir.Func, index int, blk combBlock) {
	fmt.Fprintf(w, "  inline void eval_comb_%d() {\n", index)
	for _, op := range blk.ops {
		fmt.Fprintf(w, "    %s = %s;\n", resultName(op.ID, 0), exprOf(f, op))
	}
	fmt.Fprintf(w, "  }\n")
}

func emitCombPass(w io.Writer, blocks []combBlock) {
	fmt.Fprintf(w, "  inline void eval_comb_pass() {\n")
	for i := range blocks {
		fmt.Fprintf(w, "    eval_comb_%d();\n", i)
	}
	fmt.Fprintf(w, "  }\n")
}

func emitEval(w io.Writer, f *ir.Func) {
	fmt.Fprintf(w, "  void eval() {\n    eval_comb_pass();\n")
	for i, ref := range f.OutputRefs() {
		fmt.Fprintf(w, "    %s = %s;\n", f.Outputs[i].Name, operandRef(ref))
	}
	fmt.Fprintf(w, "  }\n")
}

func emitTick(w io.Writer, stateful []*ir.Op) {
	fmt.Fprintf(w, "  void tick() {\n")
	for _, op := range stateful {
		fmt.Fprintf(w, "    %s_inst.tick_compute();\n", resultName(op.ID, 0))
	}
	for _, op := range stateful {
		fmt.Fprintf(w, "    %s_inst.tick_commit();\n", resultName(op.ID, 0))
	}
	fmt.Fprintf(w, "  }\n")
}

func exprOf(f *ir.Func, op *ir.Op) string {
	ref := func(i int) string { return operandRef(op.Operands[i]) }
	switch op.Kind {
	case ir.Const:
		return fmt.Sprintf("pyc::cpp::Wire<%d>(0x%xull)", op.Results[0].Width, op.ConstValue)
	case ir.Add:
		return ref(0) + " + " + ref(1)
	case ir.Sub:
		return ref(0) + " - " + ref(1)
	case ir.And:
		return ref(0) + " & " + ref(1)
	case ir.Or:
		return ref(0) + " | " + ref(1)
	case ir.Xor:
		return ref(0) + " ^ " + ref(1)
	case ir.Not:
		return "~" + ref(0)
	case ir.Eq:
		return fmt.Sprintf("pyc::cpp::Wire<1>((%s == %s) ? 1u : 0u)", ref(0), ref(1))
	case ir.Ult:
		return fmt.Sprintf("pyc::cpp::Wire<1>((%s.value() < %s.value()) ? 1u : 0u)", ref(0), ref(1))
	case ir.Shl:
		return fmt.Sprintf("pyc::cpp::shl<%d>(%s, %du)", op.Results[0].Width, ref(0), op.ShiftAmount)
	case ir.Lshr:
		return fmt.Sprintf("pyc::cpp::lshr<%d>(%s, %du)", op.Results[0].Width, ref(0), op.ShiftAmount)
	case ir.Ashr:
		return fmt.Sprintf("pyc::cpp::ashr<%d>(%s, %du)", op.Results[0].Width, ref(0), op.ShiftAmount)
	case ir.Mux:
		return fmt.Sprintf("(%s.toBool() ? %s : %s)", ref(0), ref(2), ref(1))
	case ir.Trunc:
		return fmt.Sprintf("pyc::cpp::trunc<%d, %d>(%s)", op.OutWidth, f.Width(op.Operands[0]), ref(0))
	case ir.Zext:
		return fmt.Sprintf("pyc::cpp::zext<%d, %d>(%s)", op.OutWidth, f.Width(op.Operands[0]), ref(0))
	case ir.Sext:
		return fmt.Sprintf("pyc::cpp::sext<%d, %d>(%s)", op.OutWidth, f.Width(op.Operands[0]), ref(0))
	case ir.Extract:
		return fmt.Sprintf("pyc::cpp::extract<%d, %d>(%s, %d)", op.OutWidth, f.Width(op.Operands[0]), ref(0), op.Lsb)
	case ir.Concat:
		parts := make([]string, len(op.Operands))
		for i := range op.Operands {
			parts[i] = ref(i)
		}
		return "pyc::cpp::concat(" + joinComma(parts) + ")"
	default:
		return fmt.Sprintf("/* unsupported op %s */ pyc::cpp::Wire<%d>{}", op.Kind, op.Results[0].Width)
	}
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
