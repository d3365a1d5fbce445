package smt

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/psmerr"
)

// Model maps declared variable names to the rational value the solver
// assigned them in the most recent satisfiable Check.
type Model struct {
	values map[string]*big.Rat
}

// Value returns the value assigned to name, or nil if name was never
// declared or has no assignment (e.g. the check was unsat).
func (m *Model) Value(name string) *big.Rat {
	if m == nil {
		return nil
	}
	if v, ok := m.values[name]; ok {
		return new(big.Rat).Set(v)
	}
	return nil
}

// F64 returns model_to_f64(m, name): the float64 approximation num/den of
// the rational value assigned to name.
func (m *Model) F64(name string) (float64, error) {
	v := m.Value(name)
	if v == nil {
		return 0, psmerr.New(psmerr.ModelDecode, "no model value for %q", name)
	}
	f, _ := v.Float64()
	return f, nil
}

// frame is one level of the assertion stack: the conjunction of formulas
// asserted since the matching Push.
type frame struct {
	asserted []algebra.Formula
}

// Bridge is the narrow decl_real/assert/check/model/model_value/push/pop
// interface the rest of the pipeline programs against, so the linear
// arithmetic backend underneath it can be swapped without touching
// callers. The only implementation shipped here reduces every check to an
// LP feasibility or optimization query, since Farkas elimination leaves
// nothing but linear real arithmetic for this bridge to decide.
type Bridge struct {
	vars     []string
	declared map[string]bool
	stack    []frame
	model    *Model

	// StrictEpsilon is the concrete slack used to approximate a strict
	// atom L < 0 as L <= -StrictEpsilon when lowering to the LP's
	// non-strict standard form; an LP has no native notion of an open
	// region. Defaults to 1/1000000 if nil.
	StrictEpsilon *big.Rat
}

// NewBridge returns an empty bridge with one (the base) assertion frame.
func NewBridge() *Bridge {
	return &Bridge{declared: make(map[string]bool), stack: []frame{{}}}
}

// DeclReal declares a real-valued variable. Declaring the same name twice
// is a no-op.
func (b *Bridge) DeclReal(name string) {
	if b.declared[name] {
		return
	}
	b.declared[name] = true
	b.vars = append(b.vars, name)
}

// Assert adds f to the conjunction of constraints active in the current
// frame.
func (b *Bridge) Assert(f algebra.Formula) {
	top := len(b.stack) - 1
	b.stack[top].asserted = append(b.stack[top].asserted, f)
}

// Push opens a new assertion frame; constraints asserted in it are
// discarded by the matching Pop.
func (b *Bridge) Push() {
	b.stack = append(b.stack, frame{})
}

// Pop discards the most recently pushed frame. Popping the base frame is a
// programming error and panics rather than returning an error.
func (b *Bridge) Pop() {
	if len(b.stack) == 1 {
		panic("smt: Pop called with no matching Push")
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// combined returns the conjunction of every formula asserted across every
// live frame.
func (b *Bridge) combined() algebra.Formula {
	conj := algebra.True()
	parts := []algebra.Formula{}
	for _, fr := range b.stack {
		parts = append(parts, fr.asserted...)
	}
	if len(parts) == 0 {
		return conj
	}
	return algebra.And(parts...)
}

// CheckSat implements sat?(phi): asserts phi in a fresh child frame, runs
// Check, and pops the frame regardless of outcome, so callers that only
// want a sat/unsat answer don't leak frames.
func (b *Bridge) CheckSat(phi algebra.Formula) (bool, error) {
	b.Push()
	defer b.Pop()
	b.Assert(phi)
	sat, err := b.Check()
	return sat, err
}

// Check decides satisfiability of the conjunction of every asserted
// formula across the live stack, trying each disjunct of its DNF in turn
// against the LP backend until one is feasible. On success Model() returns
// a witness.
func (b *Bridge) Check() (bool, error) {
	dnf := b.combined().ToDNF()
	for _, conjunct := range dnf.Conjuncts() {
		model, ok, err := solveFeasibility(b.vars, conjunct, b.strictEpsilon())
		if err != nil {
			return false, err
		}
		if ok {
			b.model = model
			return true, nil
		}
	}
	b.model = nil
	return false, nil
}

// Optimize runs the LP with the given objective (maximise sum of
// coeffs[name]*name) restricted to the current asserted conjunction,
// returning the optimal model. It is used by the legacy iterative ranker's
// soft-objective pass; the joint encoding only ever calls Check.
func (b *Bridge) Optimize(maximize map[string]*big.Rat) (*Model, bool, error) {
	dnf := b.combined().ToDNF()
	var best *Model
	var bestObj *big.Rat
	found := false
	for _, conjunct := range dnf.Conjuncts() {
		model, obj, ok, err := solveOptimum(b.vars, conjunct, b.strictEpsilon(), maximize)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		if !found || obj.Cmp(bestObj) > 0 {
			best, bestObj, found = model, obj, true
		}
	}
	if found {
		b.model = best
	}
	return best, found, nil
}

// Model returns the witness produced by the most recent satisfiable Check
// or Optimize call, or nil if none has succeeded yet.
func (b *Bridge) Model() *Model {
	return b.model
}

// ModelValue is model_to_f64(m, v) for the current model.
func (b *Bridge) ModelValue(name string) (float64, error) {
	return b.model.F64(name)
}

func (b *Bridge) strictEpsilon() *big.Rat {
	if b.StrictEpsilon != nil {
		return b.StrictEpsilon
	}
	return big.NewRat(1, 1000000)
}
