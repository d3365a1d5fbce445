package algebra

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityLinMap_ApplyIsNoOp(t *testing.T) {
	vars := []string{"x", "y"}
	id := IdentityLinMap(vars)
	point := map[string]*big.Rat{"x": big.NewRat(3, 1), "y": big.NewRat(-2, 1)}
	out := id.Apply(point)
	assert.Equal(t, 0, point["x"].Cmp(out["x"]))
	assert.Equal(t, 0, point["y"].Cmp(out["y"]))
}

func TestNewLinMap_RejectsDimensionMismatch(t *testing.T) {
	_, err := NewLinMap([]string{"x", "y"}, [][]*big.Rat{{big.NewRat(1, 1)}}, []*big.Rat{big.NewRat(0, 1), big.NewRat(0, 1)})
	require.Error(t, err)
}

func TestLinMap_RowIsZero(t *testing.T) {
	vars := []string{"q", "x"}
	a := [][]*big.Rat{
		{new(big.Rat), new(big.Rat)},
		{new(big.Rat), big.NewRat(1, 1)},
	}
	b := []*big.Rat{new(big.Rat), big.NewRat(1, 1)}
	lm, err := NewLinMap(vars, a, b)
	require.NoError(t, err)
	assert.True(t, lm.RowIsZero(0))
	assert.False(t, lm.RowIsZero(1))
}

func TestLinMap_ComposeMatchesSequentialApply(t *testing.T) {
	vars := []string{"x"}
	// m: x -> 2x + 1
	m, err := NewLinMap(vars, [][]*big.Rat{{big.NewRat(2, 1)}}, []*big.Rat{big.NewRat(1, 1)})
	require.NoError(t, err)
	// n: x -> 3x - 1
	n, err := NewLinMap(vars, [][]*big.Rat{{big.NewRat(3, 1)}}, []*big.Rat{big.NewRat(-1, 1)})
	require.NoError(t, err)

	composed, err := m.Compose(n)
	require.NoError(t, err)

	point := map[string]*big.Rat{"x": big.NewRat(5, 1)}
	viaCompose := composed.Apply(point)
	viaSequential := n.Apply(m.Apply(point))
	assert.Equal(t, 0, viaCompose["x"].Cmp(viaSequential["x"]))
}

func TestLinMap_Expr(t *testing.T) {
	vars := []string{"x", "y"}
	lm, err := NewLinMap(vars,
		[][]*big.Rat{{big.NewRat(2, 1), big.NewRat(0, 1)}, {big.NewRat(0, 1), big.NewRat(1, 1)}},
		[]*big.Rat{big.NewRat(1, 1), new(big.Rat)},
	)
	require.NoError(t, err)
	e := lm.Expr(0)
	assert.Equal(t, big.NewRat(2, 1), e.Coeff("x"))
	assert.Equal(t, big.NewRat(1, 1), e.Eval(map[string]*big.Rat{"x": new(big.Rat)}))
}
