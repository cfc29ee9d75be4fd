package ir

// CombBlock names a set of combinational ops FuseComb has grouped into a
// single emission unit — a single Verilog always_comb region, or a
// single eval_comb_k() procedure in the simulation back-end. Producing
// these is entirely an optimization: the block's Inputs/Outputs record
// exactly the boundary the ungrouped IR already exposed, so grouping
// never changes a function's visible ports or behavior (§4.9).
type CombBlock struct {
	Name string
	// Ops lists, in a legal evaluation order, the ids of every op this
	// block owns.
	Ops []OpID
	// Inputs are values produced outside the block that ops inside it
	// consume.
	Inputs []ValueRef
	// Outputs are results this block produces that some consumer outside
	// the block (another block, a register's d input, or a module output)
	// reads.
	Outputs []ValueRef
}

// SetCombBlocks installs the FuseComb grouping on f, replacing any
// previous grouping. Passing nil clears it, which is what
// cpp-only-preserve-ops does to keep individual-op granularity.
func (f *Func) SetCombBlocks(blocks []CombBlock) { f.CombBlocks = blocks }
