package stats

import (
	"github.com/pycircuit/pyc/ir"
	"github.com/pycircuit/pyc/pass"
)

// CollectCompileStats aggregates per-function register and memory counts
// into pyc.stats.* attributes, per §4.12. It must run after
// CheckLogicDepth, which has already written the pyc.logic_depth.*
// attributes this pass's module-wide Aggregate reads back out.
var CollectCompileStats = pass.Named{Name: "collect-compile-stats", Fn: collectFunc}

func collectFunc(f *ir.Func) (bool, error) {
	var regCount, regBits, memCount, memBits int64
	for _, op := range f.Ops {
		switch op.Kind {
		case ir.Reg:
			regCount++
			regBits += int64(op.Results[0].Width)
		case ir.MemSync, ir.MemSyncDP, ir.ByteMem:
			memCount++
			memBits += int64(op.Depth) * int64(op.ElemWidth)
		case ir.Fifo, ir.AsyncFifo:
			memCount++
			memBits += int64(op.FifoDepth) * int64(op.Results[0].Width)
		}
	}
	f.Attrs = f.Attrs.Set(ir.AttrStatsPrefix+"reg_count", regCount)
	f.Attrs = f.Attrs.Set(ir.AttrStatsPrefix+"reg_bits", regBits)
	f.Attrs = f.Attrs.Set(ir.AttrStatsPrefix+"mem_count", memCount)
	f.Attrs = f.Attrs.Set(ir.AttrStatsPrefix+"mem_bits", memBits)
	return true, nil
}

// Summary is the module-wide compile-time summary record described in
// §6.3: the saturating sum of every function's stats, plus the
// logic-depth configuration and FuseComb's enabled state for the run
// that produced it.
type Summary struct {
	RegCount        int64 `json:"reg_count"`
	RegBits         int64 `json:"reg_bits"`
	MemCount        int64 `json:"mem_count"`
	MemBits         int64 `json:"mem_bits"`
	LogicDepthLimit int64 `json:"logic_depth_limit"`
	MaxLogicDepth   int64 `json:"max_logic_depth"`
	Wns             int64 `json:"wns"`
	Tns             int64 `json:"tns"`
	FuseCombEnabled bool  `json:"fuse_comb_enabled"`
}

// Aggregate sums every function's pyc.stats.*/pyc.logic_depth.*
// attributes into one module-wide Summary, with saturating addition per
// field, satisfying the additivity property in §8.1.
func Aggregate(m *ir.Module, logicDepthLimit int64, fuseCombEnabled bool) Summary {
	s := Summary{LogicDepthLimit: logicDepthLimit, FuseCombEnabled: fuseCombEnabled}
	for _, f := range m.Funcs {
		s.RegCount = SatAdd(s.RegCount, f.Attrs.GetInt64(ir.AttrStatsPrefix+"reg_count"))
		s.RegBits = SatAdd(s.RegBits, f.Attrs.GetInt64(ir.AttrStatsPrefix+"reg_bits"))
		s.MemCount = SatAdd(s.MemCount, f.Attrs.GetInt64(ir.AttrStatsPrefix+"mem_count"))
		s.MemBits = SatAdd(s.MemBits, f.Attrs.GetInt64(ir.AttrStatsPrefix+"mem_bits"))
		s.Tns = SatAdd(s.Tns, f.Attrs.GetInt64(ir.AttrLogicDepthPrefix+"tns"))
		if d := f.Attrs.GetInt64(ir.AttrLogicDepthPrefix + "max"); d > s.MaxLogicDepth {
			s.MaxLogicDepth = d
		}
	}
	s.Wns = logicDepthLimit - s.MaxLogicDepth
	return s
}
