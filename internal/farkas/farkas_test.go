package farkas

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/smt"
)

// bruteForceValid checks Ax <= b => c.x <= d by sampling a grid over a
// bounded box, standing in for the brute universally-quantified query the
// property is checked against. Any sampled point satisfying the premise
// but violating the conclusion witnesses invalidity; it does not prove
// validity, but combined with small integer test fixtures designed to be
// tight it is enough to catch a broken generator.
func bruteForceValid(t *testing.T, xVars []string, a [][]float64, b []float64, c []float64, d float64) bool {
	t.Helper()
	const lo, hi, step = -6.0, 6.0, 1.0
	var rec func(i int, point []float64) bool
	rec = func(i int, point []float64) bool {
		if i == len(xVars) {
			for r := range a {
				lhs := 0.0
				for j := range xVars {
					lhs += a[r][j] * point[j]
				}
				if lhs > b[r]+1e-9 {
					return true // premise violated at this point, ignore it
				}
			}
			lhs := 0.0
			for j := range xVars {
				lhs += c[j] * point[j]
			}
			return lhs <= d+1e-9
		}
		for v := lo; v <= hi; v += step {
			point[i] = v
			if !rec(i+1, point) {
				return false
			}
		}
		return true
	}
	return rec(0, make([]float64, len(xVars)))
}

func ratMat(a [][]float64) func(i, j int) *big.Rat {
	return func(i, j int) *big.Rat {
		r := new(big.Rat)
		r.SetFloat64(a[i][j])
		return r
	}
}

func atomsFromAxLeB(xVars []string, a [][]float64, b []float64) []algebra.Atom {
	atoms := make([]algebra.Atom, len(a))
	get := ratMat(a)
	for i := range a {
		expr := algebra.ConstInt(0)
		for j, v := range xVars {
			expr = expr.Add(algebra.ScaledVar(get(i, j), v))
		}
		bi := new(big.Rat)
		bi.SetFloat64(b[i])
		expr = expr.Sub(algebra.Const(bi))
		atoms[i] = algebra.LE0(expr)
	}
	return atoms
}

func conclusionAtom(xVars []string, c []float64, d float64) algebra.Atom {
	expr := algebra.ConstInt(0)
	for j, v := range xVars {
		cj := new(big.Rat)
		cj.SetFloat64(c[j])
		expr = expr.Add(algebra.ScaledVar(cj, v))
	}
	dr := new(big.Rat)
	dr.SetFloat64(d)
	expr = expr.Sub(algebra.Const(dr))
	return algebra.LE0(expr)
}

func checkGenerated(t *testing.T, xVars []string, a [][]float64, b []float64, c []float64, d float64) bool {
	t.Helper()
	premiseAtoms := atomsFromAxLeB(xVars, a, b)
	premiseRows := make([]Row, len(premiseAtoms))
	for i, at := range premiseAtoms {
		premiseRows[i] = ConcreteRow(at, xVars)
	}
	conclusionRow := ConcreteRow(conclusionAtom(xVars, c, d), xVars)

	ctx := smt.NewSymbolContext("z")
	formulas := Generate(ctx, premiseRows, conclusionRow)

	b2 := smt.NewBridge()
	for i := 0; i < ctx.Count(); i++ {
		b2.DeclReal("z" + itoa(i))
	}
	for _, f := range formulas {
		b2.Assert(f)
	}
	sat, err := b2.Check()
	require.NoError(t, err)
	return sat
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}

func TestFarkas_ValidImplicationIsSatisfiable(t *testing.T) {
	xVars := []string{"x"}
	// premise: x <= 3 ; conclusion: 2x <= 6 (valid: x<=3 implies 2x<=6)
	a := [][]float64{{1}}
	b := []float64{3}
	c := []float64{2}
	d := 6.0

	require.True(t, bruteForceValid(t, xVars, a, b, c, d))
	assert.True(t, checkGenerated(t, xVars, a, b, c, d))
}

func TestFarkas_InvalidImplicationIsUnsatisfiable(t *testing.T) {
	xVars := []string{"x"}
	// premise: x <= 3 ; conclusion: 2x <= 4 (invalid: x=3 gives 2x=6 > 4)
	a := [][]float64{{1}}
	b := []float64{3}
	c := []float64{2}
	d := 4.0

	require.False(t, bruteForceValid(t, xVars, a, b, c, d))
	assert.False(t, checkGenerated(t, xVars, a, b, c, d))
}

func TestFarkas_TwoVariableTwoRowPremise(t *testing.T) {
	xVars := []string{"x", "y"}
	// premise: x <= 2, y <= 2; conclusion: x+y <= 4 (valid, tight)
	a := [][]float64{{1, 0}, {0, 1}}
	b := []float64{2, 2}
	c := []float64{1, 1}
	d := 4.0

	require.True(t, bruteForceValid(t, xVars, a, b, c, d))
	assert.True(t, checkGenerated(t, xVars, a, b, c, d))
}

func TestFarkas_HypothesisRowFixedMultiplierStaysLinear(t *testing.T) {
	// A templated premise row (symbolic coefficient "gamma" on x) combined
	// with a concrete premise row must not panic and must still produce a
	// solvable linear system when the hypothesis weight is fixed.
	ctx := smt.NewSymbolContext("z")
	xVars := []string{"x"}

	hyp := HypothesisRow(
		[]algebra.LinExpr{algebra.Var("gamma")}, // symbolic coefficient of x
		algebra.Var("delta"),                    // symbolic RHS
		false,
		big.NewRat(1, 1),
	)
	concrete := ConcreteRow(algebra.LE0(algebra.Var("x").Sub(algebra.ConstInt(5))), xVars)
	conclusion := ConcreteRow(algebra.LE0(algebra.Var("x").Sub(algebra.ConstInt(5))), xVars)

	formulas := Generate(ctx, []Row{hyp, concrete}, conclusion)
	require.NotEmpty(t, formulas)
	for _, f := range formulas {
		assert.NotPanics(t, func() { _ = f.String() })
	}
}
