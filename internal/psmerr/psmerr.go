// Package psmerr contains the error kinds raised by the synthesis pipeline.
// Every kind is fatal to the current synthesis call; none are recovered
// internally.
package psmerr

import "fmt"

// Kind identifies which family of error a Error belongs to.
type Kind int

const (
	// Syntax is a syntax or type error surfaced by a frontend that produced
	// the data model (E1). Within the engine only the algebra package's
	// string scanner (ParseLinExpr, ParseFormula) raises this kind.
	Syntax Kind = iota

	// Algebra is an unsupported-algebra error: a nonlinear atom or a
	// nonlinear update was encountered where only linear real arithmetic is
	// supported (E2).
	Algebra

	// Structural is a violated structural invariant of the data model: an
	// update that writes to q nonconstantly, probabilities that do not sum
	// to 1, or command labels that synchronize at incompatible arities (E3).
	Structural

	// Unsatisfiable means no invariant and PSM exist in the chosen templates
	// (E4).
	Unsatisfiable

	// ModelDecode means the solver returned a value that could not be
	// decoded as a rational number; this should not occur for a purely
	// linear real arithmetic problem and is treated as an internal bug (E5).
	ModelDecode
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case Algebra:
		return "unsupported algebra"
	case Structural:
		return "structural invariant violated"
	case Unsatisfiable:
		return "unsatisfiable obligation set"
	case ModelDecode:
		return "model decoding error"
	default:
		return fmt.Sprintf("psmerr.Kind(%d)", int(k))
	}
}

// Error is the error type raised throughout the synthesis pipeline. It
// carries a Kind so callers can decide an exit code without string-matching
// messages, and an optional Obligation tag used by Unsatisfiable errors to
// report which obligation family failed.
type Error struct {
	kind       Kind
	msg        string
	obligation string
	wrap       error
}

func (e *Error) Error() string {
	if e.obligation != "" {
		return fmt.Sprintf("%s: %s (obligation %s)", e.kind, e.msg, e.obligation)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap gives the error that this Error wraps, if it wraps one.
func (e *Error) Unwrap() error {
	return e.wrap
}

// Kind returns the error kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Obligation returns which obligation family (O1-O5) proved infeasible, or
// the empty string if none is known or applicable.
func (e *Error) Obligation() string {
	return e.obligation
}

// New returns a new Error of the given kind with a formatted message.
func New(kind Kind, format string, a ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new Error of the given kind that wraps an underlying error.
func Wrap(kind Kind, wrapped error, format string, a ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, a...), wrap: wrapped}
}

// Unsat returns an Unsatisfiable error identifying the obligation family
// (e.g. "O4") that the solver could not satisfy. obligation may be empty if
// no unsatisfiable core was available, in which case the message should
// already explain that no solution was found.
func Unsat(obligation, format string, a ...interface{}) error {
	return &Error{kind: Unsatisfiable, msg: fmt.Sprintf(format, a...), obligation: obligation}
}

// As reports whether err is a *Error, and if so returns it.
func As(err error) (*Error, bool) {
	pe, ok := err.(*Error)
	return pe, ok
}
