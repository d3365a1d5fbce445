package algebra

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinExpr_AddSubNeg(t *testing.T) {
	x := Var("x")
	y := Var("y")

	sum := x.Add(y).Add(ConstInt(3))
	assert.Equal(t, big.NewRat(1, 1), sum.Coeff("x"))
	assert.Equal(t, big.NewRat(1, 1), sum.Coeff("y"))
	assert.Equal(t, big.NewRat(3, 1), sum.Eval(map[string]*big.Rat{}))

	diff := sum.Sub(x)
	assert.Equal(t, 0, big.NewRat(0, 1).Cmp(diff.Coeff("x")))
	assert.Equal(t, big.NewRat(1, 1), diff.Coeff("y"))

	neg := x.Neg()
	assert.Equal(t, big.NewRat(-1, 1), neg.Coeff("x"))
}

func TestLinExpr_ScaleByZeroPrunes(t *testing.T) {
	x := Var("x")
	zeroed := x.Scale(new(big.Rat))
	assert.True(t, zeroed.IsConstant())
	assert.Empty(t, zeroed.Vars())
}

func TestLinExpr_Eval(t *testing.T) {
	e := ScaledVar(big.NewRat(2, 1), "x").Sub(ScaledVar(big.NewRat(1, 3), "y")).Add(ConstInt(4))
	got := e.Eval(map[string]*big.Rat{
		"x": big.NewRat(3, 1),
		"y": big.NewRat(6, 1),
	})
	want := big.NewRat(8, 1) // 2*3 - (1/3)*6 + 4 = 6 - 2 + 4 = 8
	assert.Equal(t, 0, want.Cmp(got))
}

func TestLinExpr_Row(t *testing.T) {
	e := ScaledVar(big.NewRat(5, 1), "x").Add(ConstInt(-2))
	vars := []string{"x", "y"}
	row, k := e.Row(vars)
	assert.Equal(t, big.NewRat(5, 1), row[0])
	assert.Equal(t, 0, big.NewRat(0, 1).Cmp(row[1]))
	assert.Equal(t, big.NewRat(-2, 1), k)
}

func TestLinExpr_VarSet(t *testing.T) {
	e := Var("x").Add(Var("y")).Add(Var("x"))
	vs := e.VarSet()
	assert.True(t, vs.Has("x"))
	assert.True(t, vs.Has("y"))
	assert.Equal(t, 2, vs.Len())
}
