package driver

import "fmt"

// yosysScript renders a sanity-synthesis script for top, reading every
// file in sources, mirroring the original driver's inline script
// builder: read the emitted Verilog and the primitive library, set the
// hierarchy, run the generic synthesis recipe, and report.
func yosysScript(top string, sources []string) string {
	s := ""
	for _, src := range sources {
		s += fmt.Sprintf("read_verilog %s\n", src)
	}
	s += fmt.Sprintf("hierarchy -top %s\n", top)
	s += "proc; opt; memory; opt\n"
	s += fmt.Sprintf("synth -top %s\n", top)
	s += "stat\n"
	return s
}
