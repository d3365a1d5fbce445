// Package farkas implements the Farkas constraint generator: the single
// lever that turns a universally program-variable-quantified linear
// implication into an existentially symbol-quantified linear formula a
// purely-linear SMT/LP backend can decide.
package farkas

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/smt"
)

// Row is one row of a Farkas premise (Ax <= b) or the conclusion (cx <= d):
// Σ_j Coeff[j]*x_j <= RHS (or strictly less, if Strict). Coeff and RHS are
// themselves algebra.LinExpr values, but over the *symbol* namespace (the
// synthesiser's template coefficients, ε variables, and Farkas multipliers)
// rather than the program-variable namespace x that this row eliminates.
//
// A row built from a guard, a region atom S_j, or the q = q_const atoms is
// "concrete": every Coeff[j] and RHS is a plain number, carried as a
// constant LinExpr. A row built from a templated invariant or PSM
// component -- I^q(x) <= 0 or V_i^q(x) >= 0 appearing as a premise, as O3's
// consecution obligation does for I^q -- is a "hypothesis" row: its
// Coeff[j]/RHS entries reference live template symbols.
type Row struct {
	Coeff  []algebra.LinExpr
	RHS    algebra.LinExpr
	Strict bool

	// FixedMultiplier pins this row's Farkas dual to a caller-chosen
	// nonnegative constant (1, if nil-but-marked-fixed via HypothesisRow)
	// instead of introducing a fresh multiplier symbol for it.
	//
	// Aᵀz = c requires, for a hypothesis row, multiplying that row's
	// symbolic Coeff[j] by its multiplier z_row; if z_row is itself a
	// fresh unknown, the product is two unknowns multiplied together --
	// bilinear, and outside what the linear-real-arithmetic backend can
	// decide. Fixing the weight sidesteps this: z_row * Coeff[j] becomes
	// a constant times a symbol-LinExpr, which stays linear. Soundness is
	// preserved (any nonnegative weight yields a valid Farkas
	// combination); completeness is not (a genuine certificate that
	// requires a different weight on this row will not be found). This
	// is a deliberate, disclosed restriction -- see the design notes.
	FixedMultiplier *big.Rat
}

// ConcreteRow builds a Row from a normalized algebra.Atom (L <= 0, or
// L < 0 if strict) whose coefficients are plain numbers, reading off the
// coefficient of each name in xVars in order.
func ConcreteRow(atom algebra.Atom, xVars []string) Row {
	coeff := make([]algebra.LinExpr, len(xVars))
	for i, v := range xVars {
		coeff[i] = algebra.Const(atom.L.Coeff(v))
	}
	k := atom.L.Eval(map[string]*big.Rat{}) // isolates the constant term
	return Row{Coeff: coeff, RHS: algebra.Const(k).Neg(), Strict: atom.Strict}
}

// HypothesisRow builds a templated Row directly from its per-x-variable
// symbolic coefficients and symbolic right-hand side, fixing its Farkas
// multiplier to weight (1 if weight is nil).
func HypothesisRow(coeff []algebra.LinExpr, rhs algebra.LinExpr, strict bool, weight *big.Rat) Row {
	w := weight
	if w == nil {
		w = big.NewRat(1, 1)
	}
	return Row{Coeff: coeff, RHS: rhs, Strict: strict, FixedMultiplier: w}
}

// scaleBySymTerm multiplies two symbol-space LinExpr values, at least one
// of which must be constant (no symbol references): one side is always a
// numeric coefficient or a fixed multiplier weight, the other an unknown
// symbol expression, by Row's construction contract. A genuine
// unknown-times-unknown product is a programming error in the caller, not
// a recoverable condition, so this panics rather than propagating one.
func scaleBySymTerm(a, b algebra.LinExpr) algebra.LinExpr {
	switch {
	case a.IsConstant():
		return b.Scale(a.Eval(map[string]*big.Rat{}))
	case b.IsConstant():
		return a.Scale(b.Eval(map[string]*big.Rat{}))
	default:
		panic("farkas: premise and conclusion rows both carried unknown coefficients on the same column; this would require a bilinear term")
	}
}

// Generate implements farkas(A, b, c, d): given the stacked premise rows
// (Ax <= b, read off componentwise) and the single conclusion row
// (cx <= d), it emits, using fresh symbols from ctx, the formulas that are
// jointly satisfiable (in the Farkas multipliers and whatever symbols the
// rows themselves reference) iff the universally x-quantified implication
// premises => conclusion holds. x itself never appears in the output.
//
// When the conclusion is strict (cx < d), the caller is expected to have
// already folded a positive slack -- typically a per-command ε symbol --
// into conclusion.RHS (the Gale-style strict variant); the generator
// itself only ever emits non-strict constraints, per the contract.
func Generate(ctx *smt.SymbolContext, premises []Row, conclusion Row) []algebra.Formula {
	var out []algebra.Formula

	zTerm := make([]algebra.LinExpr, len(premises))
	for i, p := range premises {
		if p.FixedMultiplier != nil {
			zTerm[i] = algebra.Const(p.FixedMultiplier)
			continue
		}
		name := ctx.Fresh()
		zTerm[i] = algebra.Var(name)
		out = append(out, algebra.Atomic(algebra.LE0(algebra.Var(name).Neg())))
	}

	nCols := len(conclusion.Coeff)
	for j := 0; j < nCols; j++ {
		lhs := algebra.ConstInt(0)
		for i, p := range premises {
			lhs = lhs.Add(scaleBySymTerm(p.Coeff[j], zTerm[i]))
		}
		eqAtoms, err := algebra.Normalize(algebra.NewRelational(lhs, algebra.Eq, conclusion.Coeff[j]))
		if err != nil {
			panic(err) // Eq never fails to normalize
		}
		for _, a := range eqAtoms {
			out = append(out, algebra.Atomic(a))
		}
	}

	bz := algebra.ConstInt(0)
	for i, p := range premises {
		bz = bz.Add(scaleBySymTerm(p.RHS, zTerm[i]))
	}
	out = append(out, algebra.Atomic(algebra.LE0(bz.Sub(conclusion.RHS))))

	return out
}
