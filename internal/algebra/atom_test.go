package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/psmerr"
)

func TestNormalize_SimpleRelations(t *testing.T) {
	x := Var("x")
	y := ConstInt(2)

	atoms, err := Normalize(NewRelational(x, Le, y))
	require.NoError(t, err)
	require.Len(t, atoms, 1)
	assert.False(t, atoms[0].Strict)

	atoms, err = Normalize(NewRelational(x, Lt, y))
	require.NoError(t, err)
	assert.True(t, atoms[0].Strict)

	atoms, err = Normalize(NewRelational(x, Ge, y))
	require.NoError(t, err)
	assert.False(t, atoms[0].Strict)

	atoms, err = Normalize(NewRelational(x, Gt, y))
	require.NoError(t, err)
	assert.True(t, atoms[0].Strict)
}

func TestNormalize_EqualitySplitsIntoTwoAtoms(t *testing.T) {
	atoms, err := Normalize(NewRelational(Var("x"), Eq, ConstInt(5)))
	require.NoError(t, err)
	require.Len(t, atoms, 2)
	for _, a := range atoms {
		assert.False(t, a.Strict)
	}
}

func TestNormalize_DisequalityRejected(t *testing.T) {
	_, err := Normalize(NewRelational(Var("x"), Ne, ConstInt(5)))
	require.Error(t, err)
	pe, ok := psmerr.As(err)
	require.True(t, ok)
	assert.Equal(t, psmerr.Algebra, pe.Kind())
}

func TestNotEqualAsDisjunction_IsDisjunctionOfStrictHalves(t *testing.T) {
	f := NotEqualAsDisjunction(Var("x"), ConstInt(5))
	require.Equal(t, kOr, f.Kind())
	disjuncts := f.Children()
	require.Len(t, disjuncts, 2)
	for _, d := range disjuncts {
		require.Equal(t, kAtom, d.Kind())
		assert.True(t, d.AsAtom().Strict)
	}
}

func TestAtom_NegateIsInvolution(t *testing.T) {
	a := LE0(Var("x").Sub(ConstInt(3)))
	negTwice := a.Negate().Negate()
	assert.Equal(t, a.Strict, negTwice.Strict)
	assert.Equal(t, a.L.String(), negTwice.L.String())
}

func TestRel_NegateIsInvolution(t *testing.T) {
	for _, r := range []Rel{Lt, Le, Gt, Ge, Eq, Ne} {
		assert.Equal(t, r, r.Negate().Negate())
	}
}
