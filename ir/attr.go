package ir

// Attrs is a typed key/value bag attached to modules, functions, and ops.
// Values are one of string, int64, uint64, bool, or float64 — whatever a
// textual-IR parser or a pass needs to stash, per §3.3.
type Attrs map[string]interface{}

// Reserved attribute keys, per §3.3.
const (
	// AttrTop, on a Module, names the function that is the synthesis/sim
	// entry point.
	AttrTop = "pyc.top"
	// AttrCallee, on an Instance op, is redundant with Op.Callee and kept
	// only so a generic attribute walk also sees it.
	AttrCallee = "callee"

	// AttrStatsPrefix namespaces the per-function attributes
	// CollectCompileStats writes: pyc.stats.reg_count, pyc.stats.reg_bits,
	// pyc.stats.mem_count, pyc.stats.mem_bits.
	AttrStatsPrefix = "pyc.stats."
	// AttrLogicDepthPrefix namespaces CheckLogicDepth's per-function
	// attributes: pyc.logic_depth.max, pyc.logic_depth.wns,
	// pyc.logic_depth.tns.
	AttrLogicDepthPrefix = "pyc.logic_depth."
)

// Get returns a's value for key and whether it was present.
func (a Attrs) Get(key string) (interface{}, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a[key]
	return v, ok
}

// GetString returns a's string value for key, or "" if absent or not a
// string.
func (a Attrs) GetString(key string) string {
	v, _ := a.Get(key)
	s, _ := v.(string)
	return s
}

// GetInt64 returns a's int64 value for key, or 0 if absent or not an
// int64.
func (a Attrs) GetInt64(key string) int64 {
	v, _ := a.Get(key)
	i, _ := v.(int64)
	return i
}

// Set assigns key to value, allocating the map if needed, and returns the
// (possibly newly allocated) map so callers can chain on a nil Attrs.
func (a Attrs) Set(key string, value interface{}) Attrs {
	if a == nil {
		a = make(Attrs)
	}
	a[key] = value
	return a
}

// Clone returns a shallow copy of a, or nil if a is nil.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
