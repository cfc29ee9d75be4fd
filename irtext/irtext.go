// Package irtext implements the textual IR format the driver reads a
// module from (a file or standard input) and can write back out, using
// gopkg.in/yaml.v3 for the surface syntax rather than a bespoke lexer —
// the same choice the teacher library makes for its own HDL pin-spec
// mini-language only where a real lexer earns its keep (here, a
// structured document format, it does not).
package irtext

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pycircuit/pyc/diag"
	"github.com/pycircuit/pyc/ir"
)

type doc struct {
	Top   string    `yaml:"top,omitempty"`
	Funcs []funcDoc `yaml:"funcs"`
}

type portDoc struct {
	Name  string `yaml:"name"`
	Width int    `yaml:"width"`
	Clock bool   `yaml:"clock,omitempty"`
	Reset bool   `yaml:"reset,omitempty"`
}

type funcDoc struct {
	Name    string                 `yaml:"name"`
	Inputs  []portDoc              `yaml:"inputs"`
	Outputs []portDoc              `yaml:"outputs"`
	Ops     []opDoc                `yaml:"ops"`
	Attrs   map[string]interface{} `yaml:"attrs,omitempty"`
}

type opDoc struct {
	ID          uint32                 `yaml:"id"`
	Kind        string                 `yaml:"kind"`
	Name        string                 `yaml:"name,omitempty"`
	Loc         string                 `yaml:"loc,omitempty"`
	Widths      []int                  `yaml:"widths,omitempty"`
	Operands    []string               `yaml:"operands,omitempty"`
	ConstValue  uint64                 `yaml:"const_value,omitempty"`
	ShiftAmount int                    `yaml:"shift_amount,omitempty"`
	Lsb         int                    `yaml:"lsb,omitempty"`
	OutWidth    int                    `yaml:"out_width,omitempty"`
	HasReset    bool                   `yaml:"has_reset,omitempty"`
	ResetValue  uint64                 `yaml:"reset_value,omitempty"`
	HasEnable   bool                   `yaml:"has_enable,omitempty"`
	InitValue   uint64                 `yaml:"init_value,omitempty"`
	Depth       int                    `yaml:"depth,omitempty"`
	ElemWidth   int                    `yaml:"elem_width,omitempty"`
	FifoDepth   int                    `yaml:"fifo_depth,omitempty"`
	Callee      string                 `yaml:"callee,omitempty"`
	BodyStart   uint32                 `yaml:"body_start,omitempty"`
	BodyEnd     uint32                 `yaml:"body_end,omitempty"`
	Attrs       map[string]interface{} `yaml:"attrs,omitempty"`
}

var kindByName = map[string]ir.Kind{}
var nameByKind = map[ir.Kind]string{}

func init() {
	all := []ir.Kind{
		ir.Const, ir.Add, ir.Sub, ir.And, ir.Or, ir.Xor, ir.Not, ir.Eq, ir.Ult,
		ir.Shl, ir.Lshr, ir.Ashr, ir.Mux, ir.Trunc, ir.Zext, ir.Sext,
		ir.Extract, ir.Concat, ir.Reg, ir.MemSync, ir.MemSyncDP, ir.Fifo,
		ir.AsyncFifo, ir.CdcSync, ir.Instance, ir.ByteMem, ir.ScfIf,
		ir.ScfFor, ir.ScfYield,
	}
	for _, k := range all {
		name := k.String()
		kindByName[name] = k
		nameByKind[k] = name
	}
}

// Parse reads one module from r in pyCircuit's textual IR format. A
// malformed document is reported as a diag.Error of kind ParseError
// naming the offending function where possible.
func Parse(r io.Reader) (*ir.Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.Wrap(err, diag.IoError, "", "", "reading textual IR")
	}

	var d doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, diag.Wrap(err, diag.ParseError, "", "", "decoding textual IR")
	}

	m := &ir.Module{}
	if d.Top != "" {
		m.Attrs = m.Attrs.Set(ir.AttrTop, d.Top)
	}
	for _, fd := range d.Funcs {
		f, err := convertFunc(fd)
		if err != nil {
			return nil, diag.Wrap(err, diag.ParseError, fd.Name, "", "decoding function")
		}
		m.Funcs = append(m.Funcs, f)
	}
	return m, nil
}

func convertFunc(fd funcDoc) (*ir.Func, error) {
	f := &ir.Func{Name: fd.Name}
	for _, p := range fd.Inputs {
		f.Inputs = append(f.Inputs, ir.Port{Name: p.Name, Width: p.Width, IsClock: p.Clock, IsReset: p.Reset})
	}
	for _, p := range fd.Outputs {
		f.Outputs = append(f.Outputs, ir.Port{Name: p.Name, Width: p.Width})
	}
	for k, v := range fd.Attrs {
		f.Attrs = f.Attrs.Set(k, v)
	}

	outputRefs := make([]ir.ValueRef, len(fd.Outputs))
	outputSet := make([]bool, len(fd.Outputs))
	for _, od := range fd.Ops {
		if od.Kind == "input" {
			width, err := inputWidth(fd.Inputs, od.Name)
			if err != nil {
				return nil, err
			}
			op := &ir.Op{ID: ir.OpID(od.ID), Kind: ir.Const, Name: od.Name, Loc: od.Loc, Results: []ir.Result{{Width: width}}}
			op.Attrs = op.Attrs.Set("pyc.input", od.Name)
			f.Ops = append(f.Ops, op)
			continue
		}
		kind, ok := kindByName[od.Kind]
		if !ok {
			return nil, errors.Errorf("unknown op kind %q", od.Kind)
		}
		op := &ir.Op{
			ID:          ir.OpID(od.ID),
			Kind:        kind,
			Name:        od.Name,
			Loc:         od.Loc,
			ConstValue:  od.ConstValue,
			ShiftAmount: od.ShiftAmount,
			Lsb:         od.Lsb,
			OutWidth:    od.OutWidth,
			HasReset:    od.HasReset,
			ResetValue:  od.ResetValue,
			HasEnable:   od.HasEnable,
			InitValue:   od.InitValue,
			Depth:       od.Depth,
			ElemWidth:   od.ElemWidth,
			FifoDepth:   od.FifoDepth,
			Callee:      od.Callee,
			BodyStart:   ir.OpID(od.BodyStart),
			BodyEnd:     ir.OpID(od.BodyEnd),
		}
		for k, v := range od.Attrs {
			op.Attrs = op.Attrs.Set(k, v)
		}
		for _, w := range od.Widths {
			op.Results = append(op.Results, ir.Result{Width: w})
		}
		for _, ref := range od.Operands {
			vr, err := parseValueRef(ref)
			if err != nil {
				return nil, errors.Wrapf(err, "op %d", od.ID)
			}
			op.Operands = append(op.Operands, vr)
		}
		f.Ops = append(f.Ops, op)

		// An op whose name matches an output port, in declaration order
		// among same-named candidates, binds that output — mirroring
		// ir.Builder.Output's one-name-to-one-ref contract.
		for i, p := range fd.Outputs {
			if !outputSet[i] && op.Name == p.Name {
				outputRefs[i] = ir.ValueRef{Op: op.ID, Result: 0}
				outputSet[i] = true
			}
		}
	}
	f.Reindex()
	f.BindOutputRefs(outputRefs)
	return f, nil
}

func inputWidth(inputs []portDoc, name string) (int, error) {
	for _, p := range inputs {
		if p.Name == name {
			return p.Width, nil
		}
	}
	return 0, errors.Errorf("input op names %q, which is not declared in inputs", name)
}

func parseValueRef(s string) (ir.ValueRef, error) {
	op, result := s, "0"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		op, result = s[:i], s[i+1:]
	}
	id, err := strconv.ParseUint(op, 10, 32)
	if err != nil {
		return ir.ValueRef{}, errors.Wrapf(err, "invalid operand %q", s)
	}
	r, err := strconv.Atoi(result)
	if err != nil {
		return ir.ValueRef{}, errors.Wrapf(err, "invalid operand %q", s)
	}
	return ir.ValueRef{Op: ir.OpID(id), Result: r}, nil
}

// Write renders m back to the textual IR format, deterministically: the
// same module always produces byte-identical output, matching §8.1's
// emission-determinism property for this format too.
func Write(w io.Writer, m *ir.Module) error {
	d := doc{}
	if top, ok := m.Attrs[ir.AttrTop]; ok {
		if s, ok := top.(string); ok {
			d.Top = s
		}
	}
	for _, f := range m.Funcs {
		d.Funcs = append(d.Funcs, convertFuncToDoc(f))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(d); err != nil {
		return diag.Wrap(err, diag.EmissionError, "", "", "writing textual IR")
	}
	return nil
}

func convertFuncToDoc(f *ir.Func) funcDoc {
	fd := funcDoc{Name: f.Name}
	for _, p := range f.Inputs {
		fd.Inputs = append(fd.Inputs, portDoc{Name: p.Name, Width: p.Width, Clock: p.IsClock, Reset: p.IsReset})
	}
	for _, p := range f.Outputs {
		fd.Outputs = append(fd.Outputs, portDoc{Name: p.Name, Width: p.Width})
	}
	for k, v := range f.Attrs {
		if fd.Attrs == nil {
			fd.Attrs = map[string]interface{}{}
		}
		fd.Attrs[k] = v
	}
	outputNames := make(map[ir.ValueRef]string)
	for i, ref := range f.OutputRefs() {
		outputNames[ref] = f.Outputs[i].Name
	}
	for _, op := range f.Ops {
		if op.IsPort() {
			fd.Ops = append(fd.Ops, opDoc{ID: uint32(op.ID), Kind: "input", Name: op.Name, Loc: op.Loc})
			continue
		}
		od := opDoc{
			ID:          uint32(op.ID),
			Kind:        nameByKind[op.Kind],
			Loc:         op.Loc,
			ConstValue:  op.ConstValue,
			ShiftAmount: op.ShiftAmount,
			Lsb:         op.Lsb,
			OutWidth:    op.OutWidth,
			HasReset:    op.HasReset,
			ResetValue:  op.ResetValue,
			HasEnable:   op.HasEnable,
			InitValue:   op.InitValue,
			Depth:       op.Depth,
			ElemWidth:   op.ElemWidth,
			FifoDepth:   op.FifoDepth,
			Callee:      op.Callee,
			BodyStart:   uint32(op.BodyStart),
			BodyEnd:     uint32(op.BodyEnd),
		}
		if name, ok := outputNames[ir.ValueRef{Op: op.ID, Result: 0}]; ok {
			od.Name = name
		} else {
			od.Name = op.Name
		}
		for k, v := range op.Attrs {
			if od.Attrs == nil {
				od.Attrs = map[string]interface{}{}
			}
			od.Attrs[k] = v
		}
		for _, r := range op.Results {
			od.Widths = append(od.Widths, r.Width)
		}
		for _, opd := range op.Operands {
			od.Operands = append(od.Operands, formatValueRef(opd))
		}
		fd.Ops = append(fd.Ops, od)
	}
	return fd
}

func formatValueRef(v ir.ValueRef) string {
	if v.Result == 0 {
		return fmt.Sprintf("%d", v.Op)
	}
	return fmt.Sprintf("%d.%d", v.Op, v.Result)
}
