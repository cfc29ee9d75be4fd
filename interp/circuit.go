// Package interp is a reference interpreter for the IR, used to check
// that two IR lowerings of the same module (for example FuseComb on vs
// off, or before and after canonicalization) observe identical behavior.
//
// It mirrors the teacher library's Circuit: every value lives in one of
// two double-buffered frames (s0 holds the previous step's settled
// values, s1 accumulates the next step's), and a pool of worker
// goroutines runs every op's Component function once per Step. Unlike
// the teacher's boolean pins, each slot holds a bits.Value, and a
// dependency graph is not required for correctness within a step:
// exactly as in the teacher's gate-level model, a component only ever
// reads s0, so execution order inside one step never matters — callers
// must simply run enough steps for a change to ripple through the
// deepest combinational path before sampling a register's input.
package interp

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/pycircuit/pyc/bits"
	"github.com/pycircuit/pyc/ir"
)

// Component is one op's per-step update function, reading operand
// values from the previous frame and writing its own results into the
// next one.
type Component func(c *Circuit)

// Circuit is a runnable interpretation of one elaborated Program.
type Circuit struct {
	s0, s1  []bits.Value
	cs      []Component
	tpc     uint
	tick    uint
	latches []bits.Value

	prog *Program

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit elaborates m's top function (flattening every Instance op
// into the caller's pin space, the same way the teacher's Chip()
// composes sub-parts into one flat wiring graph) and builds a runnable
// Circuit.
//
// workers is the number of goroutines used to evaluate components each
// step; 0 selects GOMAXPROCS. stepsPerCycle should exceed the module's
// worst-case logic depth so that every combinational chain has settled
// by the time a register samples its input; it is rounded up to the
// next power of two, matching the teacher's rounding.
func NewCircuit(workers int, stepsPerCycle uint, m *ir.Module) (*Circuit, error) {
	prog, err := Elaborate(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to elaborate module")
	}
	return newCircuitFromProgram(workers, stepsPerCycle, prog)
}

func newCircuitFromProgram(workers int, stepsPerCycle uint, prog *Program) (*Circuit, error) {
	if stepsPerCycle < 2 {
		stepsPerCycle = 2
	}
	stepsPerCycle--
	stepsPerCycle |= stepsPerCycle >> 1
	stepsPerCycle |= stepsPerCycle >> 2
	stepsPerCycle |= stepsPerCycle >> 4
	stepsPerCycle |= stepsPerCycle >> 8
	stepsPerCycle |= stepsPerCycle >> 16
	stepsPerCycle |= stepsPerCycle >> 32
	stepsPerCycle++

	c := &Circuit{tpc: stepsPerCycle, prog: prog}
	c.s0 = make([]bits.Value, prog.PinCount)
	c.s1 = make([]bits.Value, prog.PinCount)
	c.latches = make([]bits.Value, prog.PinCount)
	for i, w := range prog.PinWidths {
		c.s0[i] = bits.Zero(w)
		c.s1[i] = bits.Zero(w)
		c.latches[i] = bits.Zero(w)
	}
	c.s0[prog.ClkPin] = bits.New(1, 1)

	components := buildComponents(prog)
	// Every non-clock input port needs its own driver component that
	// re-asserts the latched stimulus value every step, the same way the
	// teacher library's Input() part re-calls its value function on every
	// step rather than relying on a single external Set to persist across
	// the double buffer's swap.
	for _, pin := range prog.Inputs {
		if pin == prog.ClkPin {
			continue
		}
		pin := pin
		components = append(components, func(c *Circuit) { c.Set(pin, c.latches[pin]) })
	}
	c.cs = components

	// Run every component once against the initial frame so outputs that
	// depend on primitive state (a FIFO's empty flag) read correctly
	// before the first Step.
	for _, comp := range components {
		comp(c)
	}
	copy(c.s0, c.s1)
	c.s0[prog.ClkPin] = bits.New(1, 1)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	cs := components
	for len(cs) > 0 {
		size := len(cs) / workers
		if size*workers < len(cs) {
			size++
		}
		if size == 0 {
			size = len(cs)
		}
		wc := make(chan struct{}, 1)
		c.wc = append(c.wc, wc)
		go worker(c, cs[:size], wc)
		cs = cs[size:]
	}
	return c, nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		if _, ok := <-wc; !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// Dispose stops every worker goroutine. Callers must call this once a
// Circuit is no longer needed.
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
}

// Get returns the current (settled) value of pin n.
func (c *Circuit) Get(n PinID) bits.Value { return c.s0[n] }

// Set drives the next frame's value of pin n. Component closures use
// this directly; callers driving a top-level input from outside should
// use SetInput instead, since a bare Set here is only visible for the
// single step it lands in.
func (c *Circuit) Set(n PinID, v bits.Value) { c.s1[n] = v }

// SetInput latches a value onto a top-level input pin so that every
// subsequent Step re-asserts it, exactly as a stimulus function passed
// to the teacher library's Input() part is re-invoked once per step
// rather than sampled once. The clock pin is driven by Step itself and
// should not be set this way.
func (c *Circuit) SetInput(n PinID, v bits.Value) { c.latches[n] = v }

// Step advances the simulation by one step: runs every component
// against the settled frame, then makes the freshly computed frame the
// new settled one.
func (c *Circuit) Step() {
	clk := c.s0[c.prog.ClkPin]
	tick := c.tick + 1
	var nextClk bits.Value
	switch {
	case tick&(uint(c.tpc)-1) == 0:
		nextClk = bits.New(1, 1)
	case tick&(uint(c.tpc)/2-1) == 0:
		nextClk = bits.New(1, 0)
	default:
		nextClk = clk
	}
	// Components see the new clock level on the step it changes, so a
	// stateful op samples its inputs on the very step its rising edge lands.
	c.s0[c.prog.ClkPin] = nextClk

	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}
	c.wg.Wait()

	c.s1[c.prog.ClkPin] = nextClk
	c.tick++
	c.s0, c.s1 = c.s1, c.s0
}

// Steps returns the value of the step counter.
func (c *Circuit) Steps() uint { return c.tick }

// AtTick reports whether the current step lands on clk's rising edge.
func (c *Circuit) AtTick() bool { return c.Steps()&(c.tpc-1) == 0 }

// AtTock reports whether the current step lands on clk's falling edge.
func (c *Circuit) AtTock() bool { return (c.Steps()+c.tpc/2)&(c.tpc-1) == 0 }

// Tick runs the simulation until clk's next falling edge.
func (c *Circuit) Tick() {
	for c.Get(c.prog.ClkPin).Bool() {
		c.Step()
	}
}

// Tock runs the simulation until clk's next rising edge. Once Tock
// returns, every register's output should have settled.
func (c *Circuit) Tock() {
	for !c.Get(c.prog.ClkPin).Bool() {
		c.Step()
	}
}

// TickTock runs one whole clock cycle.
func (c *Circuit) TickTock() {
	c.Tick()
	c.Tock()
}

// Size returns the component count in the circuit.
func (c *Circuit) Size() int { return len(c.cs) }
