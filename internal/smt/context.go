// Package smt is the linear-real-arithmetic bridge: it turns the
// conjunctions of algebra.Atom that the Farkas elimination produces into a
// standard-form linear program and decides feasibility (and, for the
// legacy ranker, optimizes a soft objective) by calling into
// gonum.org/v1/gonum/optimize/convex/lp.
package smt

import (
	"fmt"

	"github.com/google/uuid"
)

// SymbolContext hands out fresh, deterministically-named symbols -- Farkas
// multipliers, template coefficients, slack variables -- from a monotone
// counter. Two runs over the same module and templates, in the same order,
// produce byte-identical symbol names, which repeat-run determinism of
// the constraint set depends on. RunID is a separate, purely diagnostic tag
// that never enters a constraint and so never affects determinism.
type SymbolContext struct {
	prefix  string
	counter int
	RunID   string
}

// NewSymbolContext returns a context whose generated names are prefixed
// with prefix (e.g. "y" for Farkas multipliers, "c" for template
// coefficients) and which is tagged with a fresh, random run id for
// logging purposes only.
func NewSymbolContext(prefix string) *SymbolContext {
	return &SymbolContext{prefix: prefix, RunID: uuid.NewString()}
}

// Fresh returns the next symbol name in sequence: prefix0, prefix1, ...
func (c *SymbolContext) Fresh() string {
	name := fmt.Sprintf("%s%d", c.prefix, c.counter)
	c.counter++
	return name
}

// Sub returns a child context sharing this context's RunID but prefixed
// distinctly, so that e.g. Farkas multipliers ("y...") and template
// coefficients ("c...") never collide even though both contexts are
// threaded through the same synthesis run.
func (c *SymbolContext) Sub(prefix string) *SymbolContext {
	return &SymbolContext{prefix: prefix, RunID: c.RunID}
}

// Count returns how many symbols this context has issued so far.
func (c *SymbolContext) Count() int {
	return c.counter
}
