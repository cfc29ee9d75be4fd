package interp

import (
	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
)

// PinID names one interpreted value slot, the interpreter's analogue of
// the teacher library's pin numbers.
type PinID int

// opRecord is one non-port, non-instance op's elaborated form: its
// operand and result pins resolved to a flat PinID space, ready for
// buildComponents to turn into a Component closure.
type opRecord struct {
	kind        ir.Kind
	operands    []PinID
	results     []PinID
	constValue  uint64
	shiftAmount int
	lsb         int
	outWidth    int
	hasReset    bool
	resetValue  uint64
	hasEnable   bool
	initValue   uint64
	depth       int
	elemWidth   int
	fifoDepth   int
}

// alias records an instance boundary: every step, the value on src (a
// pin inside the inlined callee) is copied onto dst (the pin callers of
// the Instance op observe). This is the interpreter's equivalent of a
// wire: a trivial component rather than special-cased indirection, so
// elaboration never needs to special-case which ops may be read across
// a function-call boundary.
type alias struct {
	src, dst PinID
}

// Program is one fully elaborated, inlined circuit: every Instance call
// has been flattened into its caller's pin space, recursively, the same
// way the teacher's Chip() flattens nested parts into one wiring graph.
type Program struct {
	PinCount  int
	PinWidths []int
	ClkPin    PinID
	Inputs    map[string]PinID
	Outputs   map[string]PinID

	ops     []opRecord
	aliases []alias
}

type elaborator struct {
	module    *ir.Module
	widths    []int
	ops       []opRecord
	aliases   []alias
	callDepth int
}

const maxInstanceDepth = 64

func (e *elaborator) alloc(width int) PinID {
	id := PinID(len(e.widths))
	e.widths = append(e.widths, width)
	return id
}

// elaborateFunc elaborates f, binding its input ports to argPins (or
// allocating fresh pins for them when argPins is nil, i.e. at the top
// level). It returns the pins bound to f.Inputs and f.Outputs, in
// order.
func (e *elaborator) elaborateFunc(f *ir.Func, argPins []PinID) (inPins, outPins []PinID, err error) {
	e.callDepth++
	if e.callDepth > maxInstanceDepth {
		return nil, nil, diag.Newf(diag.InstanceUnresolved, f.Name, "", "instance nesting exceeds %d levels, possible cycle", maxInstanceDepth)
	}
	defer func() { e.callDepth-- }()

	valuePin := make(map[ir.OpID][]PinID, len(f.Ops))
	inputIdx := 0
	inPins = make([]PinID, 0, len(f.Inputs))
	for _, op := range f.Ops {
		if op.IsPort() {
			var pin PinID
			if argPins != nil {
				pin = argPins[inputIdx]
			} else {
				pin = e.alloc(op.Results[0].Width)
			}
			valuePin[op.ID] = []PinID{pin}
			inPins = append(inPins, pin)
			inputIdx++
			continue
		}
		pins := make([]PinID, len(op.Results))
		for i, r := range op.Results {
			pins[i] = e.alloc(r.Width)
		}
		valuePin[op.ID] = pins
	}

	resolve := func(v ir.ValueRef) PinID { return valuePin[v.Op][v.Result] }

	for _, op := range f.Ops {
		if op.IsPort() {
			continue
		}
		switch op.Kind {
		case ir.Instance:
			callee := e.module.FuncByName(op.Callee)
			if callee == nil {
				return nil, nil, diag.Newf(diag.InstanceUnresolved, f.Name, op.Callee, "callee not found in module")
			}
			calleeArgs := make([]PinID, len(op.Operands))
			for i, opnd := range op.Operands {
				calleeArgs[i] = resolve(opnd)
			}
			_, calleeOuts, err := e.elaborateFunc(callee, calleeArgs)
			if err != nil {
				return nil, nil, err
			}
			myPins := valuePin[op.ID]
			for i, out := range calleeOuts {
				e.aliases = append(e.aliases, alias{src: out, dst: myPins[i]})
			}
		default:
			operands := make([]PinID, len(op.Operands))
			for i, opnd := range op.Operands {
				operands[i] = resolve(opnd)
			}
			e.ops = append(e.ops, opRecord{
				kind:        op.Kind,
				operands:    operands,
				results:     valuePin[op.ID],
				constValue:  op.ConstValue,
				shiftAmount: op.ShiftAmount,
				lsb:         op.Lsb,
				outWidth:    op.OutWidth,
				hasReset:    op.HasReset,
				resetValue:  op.ResetValue,
				hasEnable:   op.HasEnable,
				initValue:   op.InitValue,
				depth:       op.Depth,
				elemWidth:   op.ElemWidth,
				fifoDepth:   op.FifoDepth,
			})
		}
	}

	outPins = make([]PinID, len(f.OutputRefs()))
	for i, ref := range f.OutputRefs() {
		outPins[i] = resolve(ref)
	}
	return inPins, outPins, nil
}

// Elaborate flattens m's top function into a runnable Program.
func Elaborate(m *ir.Module) (*Program, error) {
	top, ok := m.TopFunc()
	if !ok {
		return nil, diag.New(diag.InstanceUnresolved, "", "", "module has no resolvable top function")
	}
	e := &elaborator{module: m}
	inPins, outPins, err := e.elaborateFunc(top, nil)
	if err != nil {
		return nil, err
	}

	inputs := make(map[string]PinID, len(top.Inputs))
	for i, p := range top.Inputs {
		inputs[p.Name] = inPins[i]
	}
	outputs := make(map[string]PinID, len(top.Outputs))
	for i, p := range top.Outputs {
		outputs[p.Name] = outPins[i]
	}

	clkPin, ok := inputs["clk"]
	if !ok {
		return nil, diag.New(diag.InstanceUnresolved, top.Name, "", "top function has no input named \"clk\"")
	}

	return &Program{
		PinCount:  len(e.widths),
		PinWidths: e.widths,
		ClkPin:    clkPin,
		Inputs:    inputs,
		Outputs:   outputs,
		ops:       e.ops,
		aliases:   e.aliases,
	}, nil
}
