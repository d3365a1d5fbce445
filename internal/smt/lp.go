package smt

import (
	"math/big"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/corvidlab/psmsynth/internal/algebra"
)

// standardForm is a conjunction of algebra.Atom lowered to the equality
// form gonum's lp package expects: minimise c.x subject to A.x = b,
// x >= 0. Every free algebra variable v is split into a positive and
// negative part (v+, v-) with v = v+ - v-, and every atom gets its own
// slack column.
type standardForm struct {
	vars   []string // original free variable names, in column-pair order
	slacks int
	A      *mat.Dense
	b      []float64
	// posCol[name] and negCol[name] give the standard-form column index of a
	// free variable's positive and negative parts.
	posCol map[string]int
	negCol map[string]int
}

func buildStandardForm(vars []string, atoms []algebra.Atom, strictEps *big.Rat) standardForm {
	sf := standardForm{vars: vars, posCol: make(map[string]int), negCol: make(map[string]int)}
	for i, v := range vars {
		sf.posCol[v] = 2 * i
		sf.negCol[v] = 2*i + 1
	}
	nPairCols := 2 * len(vars)
	sf.slacks = len(atoms)
	totalCols := nPairCols + sf.slacks

	rows := make([]float64, len(atoms)*totalCols)
	sf.b = make([]float64, len(atoms))
	epsF, _ := strictEps.Float64()

	for i, a := range atoms {
		row := rows[i*totalCols : (i+1)*totalCols]
		for _, v := range a.L.Vars() {
			c, _ := a.L.Coeff(v).Float64()
			row[sf.posCol[v]] += c
			row[sf.negCol[v]] -= c
		}
		row[nPairCols+i] = 1 // slack
		k, _ := a.L.Eval(map[string]*big.Rat{}).Float64()
		rhs := -k
		if a.Strict {
			rhs -= epsF
		}
		sf.b[i] = rhs
	}
	sf.A = mat.NewDense(len(atoms), totalCols, rows)
	return sf
}

// solveFeasibility decides whether the conjunction of atoms has a real
// solution, returning a decoded Model on success.
func solveFeasibility(vars []string, atoms []algebra.Atom, strictEps *big.Rat) (*Model, bool, error) {
	if len(atoms) == 0 {
		return &Model{values: map[string]*big.Rat{}}, true, nil
	}
	sf := buildStandardForm(vars, atoms, strictEps)
	totalCols := 2*len(vars) + sf.slacks
	c := make([]float64, totalCols) // feasibility only: zero objective

	_, x, err := lp.Simplex(c, sf.A, sf.b, 1e-10, nil)
	if err != nil {
		return nil, false, nil
	}
	return decodeModel(sf, x), true, nil
}

// solveOptimum maximises sum(maximize[v]*v) subject to the conjunction of
// atoms, returning the decoded model and the (float64) objective value
// achieved.
func solveOptimum(vars []string, atoms []algebra.Atom, strictEps *big.Rat, maximize map[string]*big.Rat) (*Model, *big.Rat, bool, error) {
	if len(atoms) == 0 {
		return &Model{values: map[string]*big.Rat{}}, new(big.Rat), true, nil
	}
	sf := buildStandardForm(vars, atoms, strictEps)
	totalCols := 2*len(vars) + sf.slacks
	c := make([]float64, totalCols)
	for v, coeff := range maximize {
		f, _ := coeff.Float64()
		// lp.Simplex minimises; negate to maximise.
		c[sf.posCol[v]] = -f
		c[sf.negCol[v]] = f
	}

	optF, x, err := lp.Simplex(c, sf.A, sf.b, 1e-10, nil)
	if err != nil {
		return nil, nil, false, nil
	}
	obj := big.NewRat(0, 1)
	obj.SetFloat64(-optF)
	return decodeModel(sf, x), obj, true, nil
}

func decodeModel(sf standardForm, x []float64) *Model {
	values := make(map[string]*big.Rat, len(sf.vars))
	for _, v := range sf.vars {
		pos := x[sf.posCol[v]]
		neg := x[sf.negCol[v]]
		r := new(big.Rat)
		if r.SetFloat64(pos-neg) == nil {
			r.SetInt64(0)
		}
		values[v] = r
	}
	return &Model{values: values}
}
