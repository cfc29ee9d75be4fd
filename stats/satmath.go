// Package stats implements CollectCompileStats (§4.12) and the
// module-wide saturating aggregation described in §6.3/§9: writing
// per-function pyc.stats.*/pyc.logic_depth.* attributes, then summing
// them across functions into the driver's compile-time summary record.
package stats

import "math"

// SatAdd adds a and b, clamping to the int64 range instead of wrapping,
// so a pathological module (billions of registers, or a logic-depth
// chain long enough to make tns overflow) degrades to a saturated number
// rather than a silently wrong negative one. This mirrors the original
// driver's satAdd used when aggregating pyc.stats.*/pyc.logic_depth.*
// across functions.
func SatAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}
