package interp

import (
	"github.com/pycircuit/pyc/bits"
	"github.com/pycircuit/pyc/ir"
)

// buildComponents turns every op and alias in prog into a runnable
// Component, mirroring the runtime header's tick_compute/tick_commit
// primitives folded into a single per-step closure: a stateful op reads
// the settled frame (s0, exactly the value its C++ counterpart would see
// at the top of tick_compute) and, on the step where its clock's rising
// edge lands, commits its new state and output within that same call —
// there is no externally observable gap between compute and commit, so
// nothing else needs to run between them the way a real two-phase tick
// would require.
//
// Operand and result pin order for the memory/FIFO/CDC primitives
// follows the runtime header's constructor argument order exactly:
//
//	MemSync:    operands [clk, we, addr, wdata]              results [q]
//	MemSyncDP:  operands [clk, we_a, addr_a, wdata_a,
//	                      we_b, addr_b, wdata_b]              results [q_a, q_b]
//	ByteMem:    same as MemSync, with elemWidth fixed at 8
//	Fifo:       operands [clk, rst, push, wdata, pop]         results [rdata, full, empty]
//	AsyncFifo:  operands [wr_clk, push, wdata, rd_clk, pop]   results [rdata, full, empty]
//	CdcSync:    operands [clk, d]                             results [q]
func buildComponents(prog *Program) []Component {
	cs := make([]Component, 0, len(prog.ops)+len(prog.aliases))
	for _, op := range prog.ops {
		cs = append(cs, buildComponent(op, prog))
	}
	for _, a := range prog.aliases {
		a := a
		cs = append(cs, func(c *Circuit) { c.Set(a.dst, c.Get(a.src)) })
	}
	return cs
}

func width(prog *Program, p PinID) int { return prog.PinWidths[int(p)] }

func buildComponent(op opRecord, prog *Program) Component {
	switch op.kind {
	case ir.Const:
		result := op.results[0]
		v := bits.New(width(prog, result), op.constValue)
		return func(c *Circuit) { c.Set(result, v) }
	case ir.Add, ir.Sub, ir.And, ir.Or, ir.Xor:
		return buildBinOp(op)
	case ir.Not:
		opnd, result := op.operands[0], op.results[0]
		return func(c *Circuit) { c.Set(result, bits.Not(c.Get(opnd))) }
	case ir.Eq:
		a, b, result := op.operands[0], op.operands[1], op.results[0]
		return func(c *Circuit) {
			v := bits.New(1, 0)
			if bits.Eq(c.Get(a), c.Get(b)) {
				v = bits.New(1, 1)
			}
			c.Set(result, v)
		}
	case ir.Ult:
		a, b, result := op.operands[0], op.operands[1], op.results[0]
		return func(c *Circuit) {
			v := bits.New(1, 0)
			if bits.Ult(c.Get(a), c.Get(b)) {
				v = bits.New(1, 1)
			}
			c.Set(result, v)
		}
	case ir.Shl:
		opnd, result, n := op.operands[0], op.results[0], uint(op.shiftAmount)
		return func(c *Circuit) { c.Set(result, bits.Shl(c.Get(opnd), n)) }
	case ir.Lshr:
		opnd, result, n := op.operands[0], op.results[0], uint(op.shiftAmount)
		return func(c *Circuit) { c.Set(result, bits.Lshr(c.Get(opnd), n)) }
	case ir.Ashr:
		opnd, result, n := op.operands[0], op.results[0], uint(op.shiftAmount)
		return func(c *Circuit) { c.Set(result, bits.Ashr(c.Get(opnd), n)) }
	case ir.Mux:
		sel, a, b, result := op.operands[0], op.operands[1], op.operands[2], op.results[0]
		return func(c *Circuit) { c.Set(result, bits.Mux(c.Get(sel).Bool(), c.Get(a), c.Get(b))) }
	case ir.Trunc:
		opnd, result, w := op.operands[0], op.results[0], op.outWidth
		return func(c *Circuit) { c.Set(result, bits.Trunc(c.Get(opnd), w)) }
	case ir.Zext:
		opnd, result, w := op.operands[0], op.results[0], op.outWidth
		return func(c *Circuit) { c.Set(result, bits.Zext(c.Get(opnd), w)) }
	case ir.Sext:
		opnd, result, w := op.operands[0], op.results[0], op.outWidth
		return func(c *Circuit) { c.Set(result, bits.Sext(c.Get(opnd), w)) }
	case ir.Extract:
		opnd, result, lsb, w := op.operands[0], op.results[0], op.lsb, op.outWidth
		return func(c *Circuit) { c.Set(result, bits.Extract(c.Get(opnd), lsb, w)) }
	case ir.Concat:
		opnds, result := op.operands, op.results[0]
		return func(c *Circuit) {
			vs := make([]bits.Value, len(opnds))
			for i, p := range opnds {
				vs[i] = c.Get(p)
			}
			c.Set(result, bits.Concat(vs...))
		}
	case ir.Reg:
		return buildReg(op, prog)
	case ir.MemSync, ir.ByteMem:
		return buildMemSync(op, prog)
	case ir.MemSyncDP:
		return buildMemSyncDP(op, prog)
	case ir.Fifo:
		return buildFifo(op, prog)
	case ir.AsyncFifo:
		return buildAsyncFifo(op, prog)
	case ir.CdcSync:
		return buildCdcSync(op)
	default:
		panic("interp: no component for op kind " + op.kind.String())
	}
}

func buildBinOp(op opRecord) Component {
	a, b, result := op.operands[0], op.operands[1], op.results[0]
	switch op.kind {
	case ir.Add:
		return func(c *Circuit) { c.Set(result, bits.Add(c.Get(a), c.Get(b))) }
	case ir.Sub:
		return func(c *Circuit) { c.Set(result, bits.Sub(c.Get(a), c.Get(b))) }
	case ir.And:
		return func(c *Circuit) { c.Set(result, bits.And(c.Get(a), c.Get(b))) }
	case ir.Or:
		return func(c *Circuit) { c.Set(result, bits.Or(c.Get(a), c.Get(b))) }
	default:
		return func(c *Circuit) { c.Set(result, bits.Xor(c.Get(a), c.Get(b))) }
	}
}

// buildReg models pyc_reg: a rising edge on clk, detected by comparing
// the current settled level against the level observed on the previous
// call, samples d (or rst/en) into q within that same call.
func buildReg(op opRecord, prog *Program) Component {
	i := 0
	clk := op.operands[i]
	i++
	var rst PinID
	if op.hasReset {
		rst = op.operands[i]
		i++
	}
	var en PinID
	if op.hasEnable {
		en = op.operands[i]
		i++
	}
	d := op.operands[i]
	q := op.results[0]
	w := width(prog, q)
	resetValue, hasReset, hasEnable := op.resetValue, op.hasReset, op.hasEnable
	prevClk := false
	primed := false

	return func(c *Circuit) {
		cur := c.Get(q)
		if !primed {
			prevClk = c.Get(clk).Bool()
			primed = true
		}
		clkVal := c.Get(clk).Bool()
		rising := clkVal && !prevClk
		prevClk = clkVal
		if !rising {
			c.Set(q, cur)
			return
		}
		switch {
		case hasReset && c.Get(rst).Bool():
			c.Set(q, bits.New(w, resetValue))
		case hasEnable && !c.Get(en).Bool():
			c.Set(q, cur)
		default:
			c.Set(q, c.Get(d))
		}
	}
}

// buildMemSync models pyc_sync_mem, also used for ByteMem (ElemWidth 8):
// on a rising edge, q is driven with the word read at addr before any
// same-cycle write at that address lands, matching a synchronous RAM's
// read-before-write behavior.
func buildMemSync(op opRecord, prog *Program) Component {
	clk, we, addr, wdata := op.operands[0], op.operands[1], op.operands[2], op.operands[3]
	q := op.results[0]
	w := width(prog, q)
	depth := op.depth
	if depth <= 0 {
		depth = 1
	}
	store := make([]uint64, depth)
	prevClk := false
	primed := false
	last := bits.Zero(w)

	return func(c *Circuit) {
		if !primed {
			prevClk = c.Get(clk).Bool()
			primed = true
		}
		clkVal := c.Get(clk).Bool()
		rising := clkVal && !prevClk
		prevClk = clkVal
		if rising {
			idx := int(c.Get(addr).Uint64()) % depth
			readVal := store[idx]
			if c.Get(we).Bool() {
				store[idx] = c.Get(wdata).Uint64()
			}
			last = bits.New(w, readVal)
		}
		c.Set(q, last)
	}
}

func buildMemSyncDP(op opRecord, prog *Program) Component {
	clk := op.operands[0]
	weA, addrA, wdataA := op.operands[1], op.operands[2], op.operands[3]
	weB, addrB, wdataB := op.operands[4], op.operands[5], op.operands[6]
	qA, qB := op.results[0], op.results[1]
	wA, wB := width(prog, qA), width(prog, qB)
	depth := op.depth
	if depth <= 0 {
		depth = 1
	}
	store := make([]uint64, depth)
	prevClk := false
	primed := false
	lastA, lastB := bits.Zero(wA), bits.Zero(wB)

	return func(c *Circuit) {
		if !primed {
			prevClk = c.Get(clk).Bool()
			primed = true
		}
		clkVal := c.Get(clk).Bool()
		rising := clkVal && !prevClk
		prevClk = clkVal
		if rising {
			idxA := int(c.Get(addrA).Uint64()) % depth
			idxB := int(c.Get(addrB).Uint64()) % depth
			readA, readB := store[idxA], store[idxB]
			if c.Get(weA).Bool() {
				store[idxA] = c.Get(wdataA).Uint64()
			}
			if c.Get(weB).Bool() {
				store[idxB] = c.Get(wdataB).Uint64()
			}
			lastA, lastB = bits.New(wA, readA), bits.New(wB, readB)
		}
		c.Set(qA, lastA)
		c.Set(qB, lastB)
	}
}

// buildFifo models pyc_fifo: push/pop are decided from the queue's state
// before either mutation is applied, so a simultaneous push and pop on a
// full queue both succeed in the same cycle, exactly as tick_compute
// computes both flags from one pre-mutation snapshot.
func buildFifo(op opRecord, prog *Program) Component {
	clk, rst, push, wdata, pop := op.operands[0], op.operands[1], op.operands[2], op.operands[3], op.operands[4]
	rdata, full, empty := op.results[0], op.results[1], op.results[2]
	w := width(prog, rdata)
	depth := op.fifoDepth
	if depth <= 0 {
		depth = 1
	}
	queue := make([]uint64, 0, depth)
	prevClk := false
	primed := false

	return func(c *Circuit) {
		if !primed {
			prevClk = c.Get(clk).Bool()
			primed = true
		}
		clkVal := c.Get(clk).Bool()
		rising := clkVal && !prevClk
		prevClk = clkVal
		if rising {
			if c.Get(rst).Bool() {
				queue = queue[:0]
			} else {
				doPop := c.Get(pop).Bool() && len(queue) > 0
				doPush := c.Get(push).Bool() && len(queue) < depth
				pushValue := c.Get(wdata).Uint64()
				if doPop {
					queue = queue[1:]
				}
				if doPush {
					queue = append(queue, pushValue)
				}
			}
		}
		setFifoOutputs(c, rdata, full, empty, w, queue, depth)
	}
}

// buildAsyncFifo models pyc_async_fifo: push is gated by wr_clk's rising
// edge and pop by rd_clk's, independently, with no metastability
// modeling — a deliberate simplification the runtime header documents
// too, since the driver is expected to clock each side from its own
// generator rather than rely on this model for cross-domain timing
// closure.
func buildAsyncFifo(op opRecord, prog *Program) Component {
	wrClk, push, wdata, rdClk, pop := op.operands[0], op.operands[1], op.operands[2], op.operands[3], op.operands[4]
	rdata, full, empty := op.results[0], op.results[1], op.results[2]
	w := width(prog, rdata)
	depth := op.fifoDepth
	if depth <= 0 {
		depth = 1
	}
	queue := make([]uint64, 0, depth)
	prevWrClk, prevRdClk := false, false
	primed := false

	return func(c *Circuit) {
		if !primed {
			prevWrClk = c.Get(wrClk).Bool()
			prevRdClk = c.Get(rdClk).Bool()
			primed = true
		}
		wrClkVal, rdClkVal := c.Get(wrClk).Bool(), c.Get(rdClk).Bool()
		wrRising := wrClkVal && !prevWrClk
		rdRising := rdClkVal && !prevRdClk
		prevWrClk, prevRdClk = wrClkVal, rdClkVal

		doPop := rdRising && c.Get(pop).Bool() && len(queue) > 0
		doPush := wrRising && c.Get(push).Bool() && len(queue) < depth
		pushValue := c.Get(wdata).Uint64()
		if doPop {
			queue = queue[1:]
		}
		if doPush {
			queue = append(queue, pushValue)
		}
		setFifoOutputs(c, rdata, full, empty, w, queue, depth)
	}
}

func setFifoOutputs(c *Circuit, rdata, full, empty PinID, w int, queue []uint64, depth int) {
	if len(queue) == 0 {
		c.Set(rdata, bits.Zero(w))
	} else {
		c.Set(rdata, bits.New(w, queue[0]))
	}
	fullVal, emptyVal := uint64(0), uint64(0)
	if len(queue) >= depth {
		fullVal = 1
	}
	if len(queue) == 0 {
		emptyVal = 1
	}
	c.Set(full, bits.New(1, fullVal))
	c.Set(empty, bits.New(1, emptyVal))
}

// buildCdcSync models pyc_cdc_sync: a two-flop synchronizer for a
// single-bit signal crossing into clk's domain.
func buildCdcSync(op opRecord) Component {
	clk, d := op.operands[0], op.operands[1]
	q := op.results[0]
	stage0, stage1 := bits.New(1, 0), bits.New(1, 0)
	prevClk := false
	primed := false

	return func(c *Circuit) {
		if !primed {
			prevClk = c.Get(clk).Bool()
			primed = true
		}
		c.Set(q, stage0)
		clkVal := c.Get(clk).Bool()
		rising := clkVal && !prevClk
		prevClk = clkVal
		if !rising {
			return
		}
		stage0 = stage1
		stage1 = c.Get(d)
	}
}
