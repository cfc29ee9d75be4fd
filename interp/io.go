package interp

import "github.com/pycircuit/pyc/bits"

// Drive latches v onto the named top-level input, continuously
// re-asserted every step from then on, mirroring the teacher library's
// Input()/InputN() parts.
func (c *Circuit) Drive(name string, v bits.Value) bool {
	pin, ok := c.prog.Inputs[name]
	if !ok {
		return false
	}
	c.SetInput(pin, v)
	return true
}

// Probe returns the current settled value of the named top-level
// output.
func (c *Circuit) Probe(name string) (bits.Value, bool) {
	pin, ok := c.prog.Outputs[name]
	if !ok {
		return bits.Value{}, false
	}
	return c.Get(pin), true
}

// InputWidth and OutputWidth report a named port's bit width, for
// callers building a bits.Value of the right size before calling Drive.
func (c *Circuit) InputWidth(name string) (int, bool) {
	pin, ok := c.prog.Inputs[name]
	if !ok {
		return 0, false
	}
	return c.prog.PinWidths[pin], ok
}

func (c *Circuit) OutputWidth(name string) (int, bool) {
	pin, ok := c.prog.Outputs[name]
	if !ok {
		return 0, false
	}
	return c.prog.PinWidths[pin], ok
}

// InputNames returns every top-level input port name, including clk.
func (c *Circuit) InputNames() []string {
	names := make([]string, 0, len(c.prog.Inputs))
	for name := range c.prog.Inputs {
		names = append(names, name)
	}
	return names
}

// OutputNames returns every top-level output port name.
func (c *Circuit) OutputNames() []string {
	names := make([]string, 0, len(c.prog.Outputs))
	for name := range c.prog.Outputs {
		names = append(names, name)
	}
	return names
}

// IsClock reports whether name is the top-level clock input.
func (c *Circuit) IsClock(name string) bool {
	pin, ok := c.prog.Inputs[name]
	return ok && pin == c.prog.ClkPin
}
