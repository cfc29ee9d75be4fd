package ir

// Uses returns, for every op in f, the list of ValueRefs elsewhere in f
// that consume one of its results — the reverse of each op's Operands
// edge. This is computed on demand rather than kept incrementally
// current, since most passes build it once, rewrite the arena, and
// discard it.
func (f *Func) Uses() map[OpID][]ValueRef {
	uses := make(map[OpID][]ValueRef, len(f.Ops))
	for _, op := range f.Ops {
		for _, opnd := range op.Operands {
			uses[opnd.Op] = append(uses[opnd.Op], ValueRef{Op: op.ID, Result: 0})
		}
	}
	return uses
}

// Preds returns op's operand op ids, deduplicated, in first-seen order.
func (op *Op) Preds() []OpID {
	seen := make(map[OpID]bool, len(op.Operands))
	var out []OpID
	for _, opnd := range op.Operands {
		if !seen[opnd.Op] {
			seen[opnd.Op] = true
			out = append(out, opnd.Op)
		}
	}
	return out
}

// IsPort reports whether op is one of the placeholder input ops the
// Builder emits for a function argument.
func (op *Op) IsPort() bool {
	_, ok := op.Attrs.Get("pyc.input")
	return ok
}

// IsOutputDriver reports whether v drives one of f's output ports.
func (f *Func) IsOutputDriver(v ValueRef) bool {
	for _, out := range f.outputRefs {
		if out == v {
			return true
		}
	}
	return false
}

// BindOutputRefs records which ValueRef drives each output port, by
// position, matching f.Outputs. Builder.Build calls this so later passes
// (EliminateDeadState, CheckLogicDepth) can ask IsOutputDriver without
// re-deriving the mapping from op attributes.
func (f *Func) BindOutputRefs(refs []ValueRef) { f.outputRefs = refs }

// OutputRefs returns the ValueRef driving each output port, by position.
func (f *Func) OutputRefs() []ValueRef { return f.outputRefs }
