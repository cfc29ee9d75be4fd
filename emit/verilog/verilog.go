// Package verilog implements the Verilog RTL emitter named in §4.13: one
// module per function, continuous assignments for ungrouped
// combinational ops, always_comb regions for FuseComb blocks, and
// library primitive instantiations for every stateful op. Text is
// written directly to an io.Writer with fmt.Fprintf, the same
// direct-to-writer style the retrieved Argo-to-Verilog compiler uses
// rather than building an intermediate AST just to immediately print it.
package verilog

import (
	"fmt"
	"io"
	"sort"

	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
)

// Options configures one emission call.
type Options struct {
	// FPGA records that the fpga target was selected. Emit writes the
	// same module text either way; the FPGA macro header is added by the
	// driver when it appends the runtime primitives.
	FPGA bool
}

// Emit writes the Verilog translation of every function in m to w, each
// as its own `module`, in module program order. Emission is
// deterministic: for a given (m, opts), two calls produce byte-identical
// output, satisfying §8.1's emission-determinism property.
func Emit(w io.Writer, m *ir.Module, opts Options) error {
	for _, f := range m.Funcs {
		if err := emitFunc(w, m, f, opts); err != nil {
			return diag.Wrap(err, diag.EmissionError, f.Name, "", "verilog emission failed")
		}
	}
	return nil
}

func emitFunc(w io.Writer, m *ir.Module, f *ir.Func, opts Options) error {
	fmt.Fprintf(w, "module %s(\n", f.Name)
	ports := make([]string, 0, len(f.Inputs)+len(f.Outputs))
	for _, p := range f.Inputs {
		ports = append(ports, fmt.Sprintf("    input %s%s", widthSpec(p.Width), p.Name))
	}
	for _, p := range f.Outputs {
		ports = append(ports, fmt.Sprintf("    output %s%s", widthSpec(p.Width), p.Name))
	}
	fmt.Fprintf(w, "%s\n);\n", joinLines(ports))

	grouped := make(map[ir.OpID]string)
	for _, blk := range f.CombBlocks {
		for _, id := range blk.Ops {
			grouped[id] = blk.Name
		}
	}

	for _, op := range topoOrder(f) {
		if op.IsPort() {
			continue
		}
		if _, isGrouped := grouped[op.ID]; isGrouped {
			continue // emitted once, below, inside its always_comb block
		}
		if err := emitOp(w, m, f, op, opts); err != nil {
			return err
		}
	}

	for _, blk := range f.CombBlocks {
		emitCombBlock(w, f, blk, opts)
	}

	for i, ref := range f.OutputRefs() {
		fmt.Fprintf(w, "  assign %s = %s;\n", f.Outputs[i].Name, refName(f, ref))
	}

	fmt.Fprintf(w, "endmodule\n\n")
	return nil
}

func widthSpec(width int) string {
	if width == 1 {
		return ""
	}
	return fmt.Sprintf("[%d:0] ", width-1)
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += ",\n"
		}
		out += l
	}
	return out
}

func valueName(v ir.ValueRef) string {
	if v.Result == 0 {
		return fmt.Sprintf("pyc_v%d", v.Op)
	}
	return fmt.Sprintf("pyc_v%d_r%d", v.Op, v.Result)
}

// refName resolves v to the identifier a reader of it should use: an
// input port's own declared name when v names one directly (ports are
// never given a pyc_v<id> wire, since the module header already declares
// them under their source name), otherwise the synthetic wire name
// valueName assigns the op producing v.
func refName(f *ir.Func, v ir.ValueRef) string {
	if op := f.Op(v.Op); op.IsPort() {
		return op.Name
	}
	return valueName(v)
}

// topoOrder returns f's ops in the arena's own program order, which the
// Builder already guarantees is a valid topological order (an op can
// only be emitted after every non-register operand it reads) — ties
// between independent ops break by that same op-id order, satisfying
// §4.13's determinism rule.
func topoOrder(f *ir.Func) []*ir.Op {
	out := make([]*ir.Op, len(f.Ops))
	copy(out, f.Ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func emitCombBlock(w io.Writer, f *ir.Func, blk ir.CombBlock, opts Options) {
	fmt.Fprintf(w, "  always @* begin // %s\n", blk.Name)
	for _, id := range blk.Ops {
		op := f.Op(id)
		fmt.Fprintf(w, "    %s = %s;\n", blockTemp(id), exprOf(f, op))
	}
	fmt.Fprintf(w, "  end\n")
	for _, id := range blk.Ops {
		fmt.Fprintf(w, "  wire %spyc_v%d = %s;\n", widthSpecOf(f, id), id, blockTemp(id))
	}
}

func widthSpecOf(f *ir.Func, id ir.OpID) string {
	return widthSpec(f.Op(id).Results[0].Width)
}

func blockTemp(id ir.OpID) string { return fmt.Sprintf("pyc_comb_%d", id) }

func emitOp(w io.Writer, m *ir.Module, f *ir.Func, op *ir.Op, opts Options) error {
	switch op.Kind {
	case ir.Const:
		fmt.Fprintf(w, "  wire %s%s = %d;\n", widthSpec(op.Results[0].Width), valueName(ir.ValueRef{Op: op.ID}), op.ConstValue)
	case ir.Reg:
		emitRegInstance(w, f, op)
	case ir.MemSync, ir.MemSyncDP, ir.ByteMem, ir.Fifo, ir.AsyncFifo, ir.CdcSync:
		emitPrimitiveInstance(w, f, op)
	case ir.Instance:
		return emitInstance(w, m, f, op)
	default:
		fmt.Fprintf(w, "  wire %s%s = %s;\n", widthSpec(op.Results[0].Width), valueName(ir.ValueRef{Op: op.ID}), exprOf(f, op))
	}
	return nil
}

func exprOf(f *ir.Func, op *ir.Op) string {
	ref := func(i int) string { return refName(f, op.Operands[i]) }
	switch op.Kind {
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
		return ref(0) + " == " + ref(1)
	case ir.Ult:
		return ref(0) + " < " + ref(1)
	case ir.Shl:
		return fmt.Sprintf("%s << %d", ref(0), op.ShiftAmount)
	case ir.Lshr:
		return fmt.Sprintf("%s >> %d", ref(0), op.ShiftAmount)
	case ir.Ashr:
		return fmt.Sprintf("$signed(%s) >>> %d", ref(0), op.ShiftAmount)
	case ir.Mux:
		return ref(0) + " ? " + ref(2) + " : " + ref(1)
	case ir.Trunc:
		return fmt.Sprintf("%s[%d:0]", ref(0), op.OutWidth-1)
	case ir.Zext:
		return fmt.Sprintf("{{%d{1'b0}}, %s}", op.OutWidth-f.Width(op.Operands[0]), ref(0))
	case ir.Sext:
		inWidth := f.Width(op.Operands[0])
		return fmt.Sprintf("{{%d{%s[%d]}}, %s}", op.OutWidth-inWidth, ref(0), inWidth-1, ref(0))
	case ir.Extract:
		return fmt.Sprintf("%s[%d:%d]", ref(0), op.Lsb+op.OutWidth-1, op.Lsb)
	case ir.Concat:
		parts := make([]string, len(op.Operands))
		for i := range op.Operands {
			parts[i] = ref(i)
		}
		return "{" + joinComma(parts) + "}"
	default:
		return fmt.Sprintf("/* unsupported op %s */ 'bx", op.Kind)
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

// emitRegInstance instantiates the pyc_reg library primitive, per
// §6.4/§4.13.
func emitRegInstance(w io.Writer, f *ir.Func, op *ir.Op) {
	i := 0
	clk := op.Operands[i]
	i++
	rst := "1'b0"
	if op.HasReset {
		rst = refName(f, op.Operands[i])
		i++
	}
	en := "1'b1"
	if op.HasEnable {
		en = refName(f, op.Operands[i])
		i++
	}
	d := op.Operands[i]
	width := op.Results[0].Width
	fmt.Fprintf(w, "  wire %s%s;\n", widthSpec(width), valueName(ir.ValueRef{Op: op.ID}))
	fmt.Fprintf(w, "  pyc_reg #(.WIDTH(%d), .RESET_VALUE(%d), .INIT_VALUE(%d)) pyc_reg_%d (\n", width, op.ResetValue, op.InitValue, op.ID)
	fmt.Fprintf(w, "    .clk(%s), .rst(%s), .en(%s), .d(%s), .q(%s)\n", refName(f, clk), rst, en, refName(f, d), valueName(ir.ValueRef{Op: op.ID}))
	fmt.Fprintf(w, "  );\n")
}

// primitivePorts names a runtime primitive's module and its ports in the
// exact order operands/results carry them in the IR, so port mapping can
// go by name rather than position.
type primitivePorts struct {
	module       string
	operandNames []string
	resultNames  []string
}

// primitiveDesc returns k's port map, grounded on the corresponding
// runtime/verilog/pyc_*.v module header.
func primitiveDesc(k ir.Kind) primitivePorts {
	switch k {
	case ir.MemSync:
		return primitivePorts{"pyc_sync_mem", []string{"clk", "we", "addr", "wdata"}, []string{"q"}}
	case ir.MemSyncDP:
		return primitivePorts{"pyc_sync_mem_dp",
			[]string{"clk", "we_a", "addr_a", "wdata_a", "we_b", "addr_b", "wdata_b"},
			[]string{"q_a", "q_b"}}
	case ir.ByteMem:
		return primitivePorts{"pyc_byte_mem", []string{"clk", "we", "addr", "wdata"}, []string{"q"}}
	case ir.Fifo:
		return primitivePorts{"pyc_fifo", []string{"clk", "rst", "push", "wdata", "pop"}, []string{"rdata", "full", "empty"}}
	case ir.AsyncFifo:
		return primitivePorts{"pyc_async_fifo", []string{"wr_clk", "push", "wdata", "rd_clk", "pop"}, []string{"rdata", "full", "empty"}}
	case ir.CdcSync:
		return primitivePorts{"pyc_cdc_sync", []string{"clk", "d"}, []string{"q"}}
	default:
		panic(fmt.Sprintf("verilog: %s is not a library primitive", k))
	}
}

// primitiveParams returns op's #(...) parameter list, or "" when the
// primitive takes none (pyc_cdc_sync).
func primitiveParams(op *ir.Op) string {
	switch op.Kind {
	case ir.MemSync:
		return fmt.Sprintf(" #(.DEPTH(%d), .ELEM_WIDTH(%d))", op.Depth, op.Results[0].Width)
	case ir.MemSyncDP:
		return fmt.Sprintf(" #(.DEPTH(%d), .ELEM_WIDTH(%d))", op.Depth, op.ElemWidth)
	case ir.ByteMem:
		return fmt.Sprintf(" #(.DEPTH(%d))", op.Depth)
	case ir.Fifo, ir.AsyncFifo:
		return fmt.Sprintf(" #(.DEPTH(%d), .WIDTH(%d))", op.FifoDepth, op.Results[0].Width)
	default:
		return ""
	}
}

// emitPrimitiveInstance instantiates the runtime primitive backing op,
// declaring and connecting one wire per result (not just result 0), with
// every port — operand and result alike — mapped by name per §4.13.
func emitPrimitiveInstance(w io.Writer, f *ir.Func, op *ir.Op) {
	desc := primitiveDesc(op.Kind)
	for i, r := range op.Results {
		fmt.Fprintf(w, "  wire %s%s;\n", widthSpec(r.Width), valueName(ir.ValueRef{Op: op.ID, Result: i}))
	}
	lines := make([]string, 0, len(desc.operandNames)+len(desc.resultNames))
	for i, name := range desc.operandNames {
		lines = append(lines, fmt.Sprintf("    .%s(%s)", name, refName(f, op.Operands[i])))
	}
	for i, name := range desc.resultNames {
		lines = append(lines, fmt.Sprintf("    .%s(%s)", name, valueName(ir.ValueRef{Op: op.ID, Result: i})))
	}
	fmt.Fprintf(w, "  %s%s pyc_%s_%d (\n%s\n  );\n", desc.module, primitiveParams(op), desc.module, op.ID, joinLines(lines))
}

// emitInstance emits a module instantiation of op.Callee, mapping ports
// by the callee function's own declared port names per §4.13, with one
// wire declared per result.
func emitInstance(w io.Writer, m *ir.Module, f *ir.Func, op *ir.Op) error {
	callee := m.FuncByName(op.Callee)
	if callee == nil {
		return diag.New(diag.InstanceUnresolved, f.Name, op.Name, "instance callee "+op.Callee+" not found in module")
	}
	for i, r := range op.Results {
		fmt.Fprintf(w, "  wire %s%s;\n", widthSpec(r.Width), valueName(ir.ValueRef{Op: op.ID, Result: i}))
	}
	lines := make([]string, 0, len(op.Operands)+len(op.Results))
	for i, opnd := range op.Operands {
		lines = append(lines, fmt.Sprintf("    .%s(%s)", callee.Inputs[i].Name, refName(f, opnd)))
	}
	for i := range op.Results {
		lines = append(lines, fmt.Sprintf("    .%s(%s)", callee.Outputs[i].Name, valueName(ir.ValueRef{Op: op.ID, Result: i})))
	}
	fmt.Fprintf(w, "  %s pyc_instance_%d (\n%s\n  );\n", op.Callee, op.ID, joinLines(lines))
	return nil
}
