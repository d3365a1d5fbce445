package smt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/algebra"
)

func leq(name string, c int64) algebra.Formula {
	return algebra.Atomic(algebra.LE0(algebra.Var(name).Sub(algebra.ConstInt(c))))
}

func geq(name string, c int64) algebra.Formula {
	return algebra.Atomic(algebra.LE0(algebra.ConstInt(c).Sub(algebra.Var(name))))
}

func TestBridge_SimpleFeasibleConjunction(t *testing.T) {
	b := NewBridge()
	b.DeclReal("x")
	// 0 <= x <= 5
	b.Assert(geq("x", 0))
	b.Assert(leq("x", 5))
	sat, err := b.Check()
	require.NoError(t, err)
	assert.True(t, sat)

	x, err := b.ModelValue("x")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, x, 0.0)
	assert.LessOrEqual(t, x, 5.0)
}

func TestBridge_UnsatConjunction(t *testing.T) {
	b := NewBridge()
	b.DeclReal("x")
	// x <= 1 and x >= 5 is unsatisfiable
	b.Assert(leq("x", 1))
	b.Assert(geq("x", 5))
	sat, err := b.Check()
	require.NoError(t, err)
	assert.False(t, sat)
}

func TestBridge_PushPopScoping(t *testing.T) {
	b := NewBridge()
	b.DeclReal("x")
	b.Assert(geq("x", 0))

	b.Push()
	b.Assert(leq("x", -5)) // contradicts x >= 0 while pushed
	sat, err := b.Check()
	require.NoError(t, err)
	assert.False(t, sat)
	b.Pop()

	sat, err = b.Check()
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestBridge_DisjunctionSatisfiedByEitherBranch(t *testing.T) {
	b := NewBridge()
	b.DeclReal("x")
	disjunction := algebra.Or(leq("x", -10), geq("x", 10))
	b.Assert(disjunction)
	b.Assert(geq("x", 10))
	sat, err := b.Check()
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestBridge_CheckSatDoesNotLeakFrames(t *testing.T) {
	b := NewBridge()
	b.DeclReal("x")
	b.Assert(geq("x", 0))
	_, err := b.CheckSat(leq("x", -100))
	require.NoError(t, err)
	// the contradictory assumption must not have survived CheckSat
	sat, err := b.Check()
	require.NoError(t, err)
	assert.True(t, sat)
}

func TestSymbolContext_FreshIsMonotoneAndDeterministic(t *testing.T) {
	c1 := NewSymbolContext("y")
	c2 := NewSymbolContext("y")
	var names1, names2 []string
	for i := 0; i < 5; i++ {
		names1 = append(names1, c1.Fresh())
		names2 = append(names2, c2.Fresh())
	}
	assert.Equal(t, names1, names2)
	assert.Equal(t, []string{"y0", "y1", "y2", "y3", "y4"}, names1)
}

func TestModel_F64MissingValue(t *testing.T) {
	m := &Model{values: map[string]*big.Rat{}}
	_, err := m.F64("missing")
	require.Error(t, err)
}
