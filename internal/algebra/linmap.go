package algebra

import (
	"math/big"

	"gonum.org/v1/gonum/mat"

	"github.com/corvidlab/psmsynth/internal/psmerr"
)

// LinMap is a typed affine map x -> Ax + b over an ordered variable tuple.
// A is n-by-n where n = len(Vars); b is length n. The pair is stored both
// as exact big.Rat matrices (the values of record) and as a mirrored
// float64 mat.Dense/VecDense pair, since every downstream numerical
// consumer -- the LP bridge, drift-sum helpers -- is built on gonum and
// expects mat/floats-shaped inputs rather than hand-rolled matrix code.
type LinMap struct {
	Vars []string
	A    *mat.Dense
	B    *mat.VecDense

	ratA [][]*big.Rat
	ratB []*big.Rat
}

// NewLinMap builds a LinMap from a row-major exact-rational matrix a
// (len(vars)-by-len(vars)) and offset vector b (len(vars)). It returns a
// Structural error if the dimensions are inconsistent.
func NewLinMap(vars []string, a [][]*big.Rat, b []*big.Rat) (LinMap, error) {
	n := len(vars)
	if len(a) != n {
		return LinMap{}, psmerr.New(psmerr.Structural, "linear map: expected %d rows, got %d", n, len(a))
	}
	if len(b) != n {
		return LinMap{}, psmerr.New(psmerr.Structural, "linear map: expected offset length %d, got %d", n, len(b))
	}
	// gonum rejects zero-sized matrices, so a map over no variables keeps
	// nil float mirrors.
	var dense *mat.Dense
	var vecB *mat.VecDense
	if n > 0 {
		dense = mat.NewDense(n, n, nil)
		vecB = mat.NewVecDense(n, nil)
	}
	ratA := make([][]*big.Rat, n)
	for i, row := range a {
		if len(row) != n {
			return LinMap{}, psmerr.New(psmerr.Structural, "linear map: row %d has %d entries, want %d", i, len(row), n)
		}
		ratA[i] = make([]*big.Rat, n)
		for j, c := range row {
			ratA[i][j] = new(big.Rat).Set(c)
			f, _ := c.Float64()
			dense.Set(i, j, f)
		}
	}
	ratB := make([]*big.Rat, n)
	for i, c := range b {
		ratB[i] = new(big.Rat).Set(c)
		f, _ := c.Float64()
		vecB.SetVec(i, f)
	}
	return LinMap{Vars: append([]string(nil), vars...), A: dense, B: vecB, ratA: ratA, ratB: ratB}, nil
}

// IdentityLinMap returns the identity map over vars (A = I, b = 0).
func IdentityLinMap(vars []string) LinMap {
	n := len(vars)
	a := make([][]*big.Rat, n)
	b := make([]*big.Rat, n)
	for i := range a {
		a[i] = make([]*big.Rat, n)
		for j := range a[i] {
			if i == j {
				a[i][j] = big.NewRat(1, 1)
			} else {
				a[i][j] = new(big.Rat)
			}
		}
		b[i] = new(big.Rat)
	}
	lm, _ := NewLinMap(vars, a, b)
	return lm
}

// RatA returns the exact rational entry of A at (row, col).
func (m LinMap) RatA(row, col int) *big.Rat {
	return new(big.Rat).Set(m.ratA[row][col])
}

// RatB returns the exact rational entry of b at row.
func (m LinMap) RatB(row int) *big.Rat {
	return new(big.Rat).Set(m.ratB[row])
}

// RowIsZero reports whether row i of A is entirely zero (b[i] is not
// consulted) -- the "row_q(A) = 0" shape required of a DPA-state
// coordinate: the automaton-state variable is never itself linearly mixed
// by a reactive module's numeric update, only reassigned a literal constant
// through b.
func (m LinMap) RowIsZero(i int) bool {
	for _, c := range m.ratA[i] {
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

// Apply evaluates the map at a concrete point, returning the exact
// rational image.
func (m LinMap) Apply(point map[string]*big.Rat) map[string]*big.Rat {
	out := make(map[string]*big.Rat, len(m.Vars))
	for i, v := range m.Vars {
		acc := new(big.Rat).Set(m.ratB[i])
		for j, u := range m.Vars {
			val, ok := point[u]
			if !ok {
				continue
			}
			acc.Add(acc, new(big.Rat).Mul(m.ratA[i][j], val))
		}
		out[v] = acc
	}
	return out
}

// Expr returns the i-th output coordinate of the map as a LinExpr over
// m.Vars, usable directly as the post-update value substituted into a
// drift or invariant obligation.
func (m LinMap) Expr(i int) LinExpr {
	out := Const(m.ratB[i])
	for j, v := range m.Vars {
		out = out.Add(ScaledVar(m.ratA[i][j], v))
	}
	return out
}

// Compose returns the linear map representing applying m first, then n:
// x -> n(m(x)) = (n.A * m.A) x + (n.A * m.b + n.b). Both maps must share
// the same variable tuple.
func (m LinMap) Compose(n LinMap) (LinMap, error) {
	if len(m.Vars) != len(n.Vars) {
		return LinMap{}, psmerr.New(psmerr.Structural, "linear map compose: dimension mismatch %d vs %d", len(m.Vars), len(n.Vars))
	}
	sz := len(m.Vars)
	a := make([][]*big.Rat, sz)
	b := make([]*big.Rat, sz)
	for i := 0; i < sz; i++ {
		a[i] = make([]*big.Rat, sz)
		for j := 0; j < sz; j++ {
			acc := new(big.Rat)
			for k := 0; k < sz; k++ {
				acc.Add(acc, new(big.Rat).Mul(n.ratA[i][k], m.ratA[k][j]))
			}
			a[i][j] = acc
		}
		acc := new(big.Rat).Set(n.ratB[i])
		for k := 0; k < sz; k++ {
			acc.Add(acc, new(big.Rat).Mul(n.ratA[i][k], m.ratB[k]))
		}
		b[i] = acc
	}
	return NewLinMap(m.Vars, a, b)
}
