package interp

import (
	"testing"

	"github.com/pycircuit/pyc/bits"
	"github.com/pycircuit/pyc/ir"
)

// debounceCycles and debounceCntWidth mirror make_debouncer's cnt_r
// sizing: width = max((debounceCycles-1).bit_length(), 1).
const (
	debounceCycles   = 4
	debounceCntWidth = 2
)

// buildDebounceModeModule wires a debounce filter (cnt_r/prev_r/
// stable_r/stable_prev_r, one stable-rising-edge pulse per settled
// button press) into a 2-bit mode counter that advances on every pulse
// and wraps 3 back to 0, the same way a digital clock's "set" button
// steps through its fields. Every register's next-value operand
// depends on the register's own output, so each Reg is first built with
// a placeholder d and then patched once the feedback expression exists,
// the same two-pass idiom TestCanonicalizeFixpointPreservesSimulatedBehavior
// uses for its own counter.
func buildDebounceModeModule(t *testing.T) *ir.Module {
	t.Helper()
	b := ir.NewBuilder("digital_clock_mode")
	clk := b.Input("clk", 1)
	btnSet := b.Input("btn_set", 1)

	zero1 := b.Const(1, 0)
	zeroCnt := b.Const(debounceCntWidth, 0)
	maxCnt := b.Const(debounceCntWidth, debounceCycles-1)
	oneCnt := b.Const(debounceCntWidth, 1)

	cntR := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, zeroCnt, false, false, 0, 0)
	prevR := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, zero1, false, false, 0, 0)
	stableR := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, zero1, false, false, 0, 0)
	stablePrevR := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, zero1, false, false, 0, 0)

	changed := b.Not(b.Compare(ir.Eq, btnSet, prevR))
	atMax := b.Compare(ir.Eq, cntR, maxCnt)
	cntPlus1 := b.BinOp(ir.Add, cntR, oneCnt)
	cntNext := b.Mux(changed, b.Mux(atMax, cntPlus1, cntR), zeroCnt)
	stableNext := b.Mux(atMax, stableR, btnSet)
	pulse := b.BinOp(ir.And, stableR, b.Not(stablePrevR))

	zeroMode := b.Const(2, 0)
	maxMode := b.Const(2, 3)
	oneMode := b.Const(2, 1)
	modeR := b.Reg(clk, ir.ValueRef{}, ir.ValueRef{}, zeroMode, false, false, 0, 0)
	modeWrapped := b.Mux(b.Compare(ir.Eq, modeR, maxMode), b.BinOp(ir.Add, modeR, oneMode), zeroMode)
	modeNext := b.Mux(pulse, modeR, modeWrapped)

	b.Output("pulse", pulse)
	b.Output("mode", modeR)

	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	patchRegNext(f, cntR, cntNext)
	patchRegNext(f, prevR, btnSet)
	patchRegNext(f, stableR, stableNext)
	patchRegNext(f, stablePrevR, stableR)
	patchRegNext(f, modeR, modeNext)

	return &ir.Module{Funcs: []*ir.Func{f}}
}

// patchRegNext rewrites reg's d operand (its last operand, since none of
// these registers carry a reset or enable) to point at next, closing the
// feedback loop that can't be expressed until the register's own output
// ValueRef already exists.
func patchRegNext(f *ir.Func, reg, next ir.ValueRef) {
	op := f.Op(reg.Op)
	op.Operands[len(op.Operands)-1] = next
}

// TestDebouncePulseFiresOnceAfterStableInterval checks that a single
// button press produces exactly one pulse, debounceCycles after the
// raw input settles, with no spurious pulses while idle.
func TestDebouncePulseFiresOnceAfterStableInterval(t *testing.T) {
	m := buildDebounceModeModule(t)
	c, err := NewCircuit(0, 8, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()

	for i := 0; i < 3; i++ {
		c.TickTock()
		if pulse, _ := c.Probe("pulse"); pulse.Uint64() != 0 {
			t.Fatalf("unexpected pulse while btn_set is idle")
		}
	}

	c.Drive("btn_set", bits.New(1, 1))
	pulses := 0
	for i := 0; i < 10; i++ {
		c.TickTock()
		if pulse, _ := c.Probe("pulse"); pulse.Uint64() != 0 {
			pulses++
		}
	}
	if pulses != 1 {
		t.Fatalf("pulses while holding btn_set = %d, want exactly 1", pulses)
	}
}

// TestSettingModeAdvancesThroughFourStatesOnRepeatedButtonPresses checks
// that setting_mode steps 0 -> 1 -> 2 -> 3 -> 0 across four separate
// debounced presses of btn_set, one press producing one advance.
func TestSettingModeAdvancesThroughFourStatesOnRepeatedButtonPresses(t *testing.T) {
	m := buildDebounceModeModule(t)
	c, err := NewCircuit(0, 8, m)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	defer c.Dispose()

	press := func() {
		c.Drive("btn_set", bits.New(1, 1))
		for i := 0; i < 2*debounceCycles; i++ {
			c.TickTock()
		}
		c.Drive("btn_set", bits.New(1, 0))
		for i := 0; i < 2*debounceCycles; i++ {
			c.TickTock()
		}
	}

	wantSequence := []uint64{1, 2, 3, 0}
	for _, want := range wantSequence {
		press()
		mode, ok := c.Probe("mode")
		if !ok {
			t.Fatalf("no mode output")
		}
		if mode.Uint64() != want {
			t.Fatalf("mode after press = %d, want %d", mode.Uint64(), want)
		}
	}
}
