package ir

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ExpandBus expands a single name possibly carrying a bus-range suffix
// (e.g. "sec_tens[0..3]") into the list of individual pin names it
// denotes ("sec_tens[0]".."sec_tens[3]"), or returns the name unchanged
// as a one-element list when it carries no range. This is the textual-IR
// counterpart of a multi-bit port declaration shorthand, expanded the
// same way the teacher's wiring DSL expands a "bus[a..b]" pin mapping.
func ExpandBus(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("ir: empty bus name in " + name)
	}
	rest := name[i+1:]
	sep := strings.Index(rest, "..")
	if sep < 0 {
		return []string{name}, nil
	}
	start, err := strconv.Atoi(rest[:sep])
	if err != nil {
		return nil, errors.Wrap(err, "ir: bad bus range start in "+name)
	}
	rest = rest[sep+2:]
	end := strings.IndexRune(rest, ']')
	if end < 0 {
		return nil, errors.New("ir: no terminating ] in bus range " + name)
	}
	stop, err := strconv.Atoi(rest[:end])
	if err != nil {
		return nil, errors.Wrap(err, "ir: bad bus range end in "+name)
	}
	if stop < start {
		return nil, errors.New("ir: bus range end before start in " + name)
	}
	out := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		out = append(out, BusPinName(bus, i))
	}
	return out, nil
}

// BusPinName formats the individual pin name for bit i of a bus.
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}
