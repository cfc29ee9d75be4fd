// Package diag defines the pyCircuit error-kind taxonomy: a small, closed
// set of tagged failures that every pass, verifier, and emitter returns
// instead of an ad hoc error string, so the driver can map a failure to an
// exit code and a single diagnostic line.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names one of the error categories a compilation can fail with.
type Kind int

const (
	// ParseError reports a malformed textual IR input.
	ParseError Kind = iota
	// NonStaticControl reports an scf.if/scf.for whose condition or bound
	// could not be lowered to a static pyc construct.
	NonStaticControl
	// UnknownWidth reports a value whose bit width could not be determined.
	UnknownWidth
	// CombCycle reports a combinational path that loops back on itself
	// without passing through a register's d input.
	CombCycle
	// LogicDepthExceeded reports a combinational path deeper than the
	// configured logic-depth limit.
	LogicDepthExceeded
	// InstanceUnresolved reports an instance op whose callee symbol does
	// not resolve to a function in the module.
	InstanceUnresolved
	// EmissionError reports a failure while generating Verilog or C++ text.
	EmissionError
	// IoError reports a failure reading or writing a file.
	IoError
	// ConfigError reports invalid driver configuration (flags or YAML).
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case NonStaticControl:
		return "NonStaticControl"
	case UnknownWidth:
		return "UnknownWidth"
	case CombCycle:
		return "CombCycle"
	case LogicDepthExceeded:
		return "LogicDepthExceeded"
	case InstanceUnresolved:
		return "InstanceUnresolved"
	case EmissionError:
		return "EmissionError"
	case IoError:
		return "IoError"
	case ConfigError:
		return "ConfigError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ExitCode returns the process exit code the driver should use for a
// failure of this kind. Every kind currently maps to 1, matching the
// original driver's uniform failure code; the method exists so the
// mapping has one place to change.
func (k Kind) ExitCode() int { return 1 }

// Error is a kind-tagged compilation failure. It carries the identity of
// the function and, where applicable, op that triggered the failure, so a
// diagnostic can point at the exact offending construct.
type Error struct {
	Kind  Kind
	Func  string
	Op    string
	Msg   string
	cause error
}

// New builds a diag.Error with no message formatting beyond msg itself.
func New(kind Kind, fn, op, msg string) *Error {
	return &Error{Kind: kind, Func: fn, Op: op, Msg: msg}
}

// Newf builds a diag.Error with a formatted message.
func Newf(kind Kind, fn, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Func: fn, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind/fn/op context to an underlying error, preserving it
// as the cause so Cause and errors.Unwrap still reach it.
func Wrap(cause error, kind Kind, fn, op, msg string) *Error {
	return &Error{Kind: kind, Func: fn, Op: op, Msg: msg, cause: errors.WithStack(cause)}
}

func (e *Error) Error() string {
	switch {
	case e.Func == "" && e.Op == "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Op == "":
		return fmt.Sprintf("%s: in %s: %s", e.Kind, e.Func, e.Msg)
	default:
		return fmt.Sprintf("%s: in %s, op %s: %s", e.Kind, e.Func, e.Op, e.Msg)
	}
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Cause returns the root cause via github.com/pkg/errors, stepping through
// each *Error's wrapped cause, falling back to the Error itself when
// nothing was wrapped.
func Cause(err error) error {
	err = errors.Cause(err)
	for {
		d, ok := err.(*Error)
		if !ok || d.cause == nil {
			return err
		}
		err = errors.Cause(d.cause)
	}
}

// As reports whether err is (or wraps) a *diag.Error, returning it.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
