// Package cpp bundles the C++ runtime header every emitted simulation
// model #includes, so the driver can materialize it next to generated
// sources without depending on a separate install step.
package cpp

import "embed"

//go:embed pyc_sim.hpp
var fs embed.FS

// Header returns the contents of pyc_sim.hpp.
func Header() ([]byte, error) { return fs.ReadFile("pyc_sim.hpp") }

// HeaderRelPath is the include-relative path generated sources expect,
// matching the #include <pyc/cpp/pyc_sim.hpp> directive the emitter
// writes.
const HeaderRelPath = "pyc/cpp/pyc_sim.hpp"
