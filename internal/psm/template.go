// Package psm is the PSM synthesiser: it generates the invariant and
// lexicographic-PSM templates, assembles the O1-O5 obligation set of a
// single DPA-state-indexed product module through repeated Farkas
// elimination, and decodes the resulting LP model back into concrete
// linear functions.
//
// The obligation families are named O1 through O5 in diagnostics: PSM
// non-negativity (O1), invariant coverage of the initial set (O2),
// invariant consecution (O3), expected drift per priority (O4), and the
// epsilon discipline tying strict decrease to odd priorities (O5).
package psm

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/farkas"
	"github.com/corvidlab/psmsynth/internal/smt"
)

// funcTemplate is a single templated affine function alpha.x + beta: one
// fresh coefficient symbol per program variable plus one fresh offset
// symbol. Both the per-state invariant I^q and the per-state-per-priority
// PSM component V_i^q are instances of this shape.
type funcTemplate struct {
	alpha []string // one symbol per xVars entry, same order
	beta  string
}

// newFuncTemplate allocates fresh coefficient and offset symbols from ctx,
// one set per call, so that every template (invariant or PSM component)
// gets its own disjoint symbols.
func newFuncTemplate(ctx *smt.SymbolContext, nVars int) funcTemplate {
	t := funcTemplate{alpha: make([]string, nVars)}
	for i := range t.alpha {
		t.alpha[i] = ctx.Fresh()
	}
	t.beta = ctx.Fresh()
	return t
}

// symbols returns every symbol name this template owns, for declaration in
// the SMT bridge.
func (t funcTemplate) symbols() []string {
	return append(append([]string(nil), t.alpha...), t.beta)
}

// asPremiseRow renders f(x) = alpha.x+beta <= 0 as a Farkas premise row
// (Ax <= b, read off componentwise): Coeff[j] is the symbol alpha[j],
// RHS is -beta.
func (t funcTemplate) asPremiseRow() farkas.Row {
	coeff := make([]algebra.LinExpr, len(t.alpha))
	for j, s := range t.alpha {
		coeff[j] = algebra.Var(s)
	}
	return farkas.HypothesisRow(coeff, algebra.Var(t.beta).Neg(), false, nil)
}

// asNonNegConclusionRow renders the conclusion f(x) >= 0, i.e. -f(x) <= 0:
// Coeff[j] is -alpha[j], RHS is beta.
func (t funcTemplate) asNonNegConclusionRow() farkas.Row {
	coeff := make([]algebra.LinExpr, len(t.alpha))
	for j, s := range t.alpha {
		coeff[j] = algebra.Var(s).Neg()
	}
	return farkas.Row{Coeff: coeff, RHS: algebra.Var(t.beta)}
}

// evalAtConcretePoint substitutes a concrete program-variable assignment
// into f, returning a symbol-space LinExpr (the remaining unknowns are
// t's own alpha/beta symbols) -- used by O2, which needs f(init) <= 0 for
// a fixed concrete init rather than a Farkas-eliminated universal.
func (t funcTemplate) evalAtConcretePoint(xVars []string, point map[string]*big.Rat) algebra.LinExpr {
	out := algebra.Var(t.beta)
	for j, v := range xVars {
		if val, ok := point[v]; ok && val.Sign() != 0 {
			out = out.Add(algebra.ScaledVar(val, t.alpha[j]))
		}
	}
	return out
}

// pushThrough computes the symbol-space coefficients and offset of f
// evaluated at y = u(x): f(u(x)) = Σ_j coeff[j]*x_j + offset, where both
// coeff and offset are LinExpr over f's own alpha/beta symbols (f's
// coefficients are unknowns; u's matrix/offset are concrete numbers, so
// this pushforward stays linear in the unknowns -- the same bilinearity
// discipline farkas.Row documents).
func (t funcTemplate) pushThrough(u algebra.LinMap) (coeff []algebra.LinExpr, offset algebra.LinExpr) {
	n := len(u.Vars)
	coeff = make([]algebra.LinExpr, n)
	for j := 0; j < n; j++ {
		acc := algebra.ConstInt(0)
		for k := 0; k < n; k++ {
			a := u.RatA(k, j)
			if a.Sign() != 0 {
				acc = acc.Add(algebra.ScaledVar(a, t.alpha[k]))
			}
		}
		coeff[j] = acc
	}
	offset = algebra.Var(t.beta)
	for k := 0; k < n; k++ {
		b := u.RatB(k)
		if b.Sign() != 0 {
			offset = offset.Add(algebra.ScaledVar(b, t.alpha[k]))
		}
	}
	return coeff, offset
}

// qConstRows returns the two concrete Farkas rows encoding q = qConst
// (q - qConst <= 0 and qConst - q <= 0), read off against xVars.
func qConstRows(xVars []string, qVar string, qConst int64) []farkas.Row {
	diff := algebra.Var(qVar).Sub(algebra.ConstInt(qConst))
	a1, _ := algebra.Normalize(algebra.NewRelational(diff, algebra.Le, algebra.ConstInt(0)))
	a2, _ := algebra.Normalize(algebra.NewRelational(diff.Neg(), algebra.Le, algebra.ConstInt(0)))
	return []farkas.Row{
		farkas.ConcreteRow(a1[0], xVars),
		farkas.ConcreteRow(a2[0], xVars),
	}
}

// conjunctRows renders every atom of a conjunction (already DNF-flattened
// into a []algebra.Atom by Formula.Conjuncts) as concrete Farkas premise
// rows.
func conjunctRows(xVars []string, atoms []algebra.Atom) []farkas.Row {
	rows := make([]farkas.Row, len(atoms))
	for i, a := range atoms {
		rows[i] = farkas.ConcreteRow(a, xVars)
	}
	return rows
}
