package reactive

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/smt"
)

func twoStateDPA() DPA {
	return DPA{
		QVar:  "q",
		Start: 0,
		Priority: map[int64]int{
			0: 0,
			1: 1,
		},
		Transitions: []Transition{
			{Guard: algebra.Atomic(algebra.LE0(algebra.Var("p").Sub(algebra.ConstInt(1)))), To: 0}, // p<=1 (trivially true-ish placeholder)
			{Guard: algebra.NotEqualAsDisjunction(algebra.Var("p"), algebra.ConstInt(1)), To: 1},
		},
	}
}

func TestDPA_ObjectiveIsQEqualsConstant(t *testing.T) {
	d := twoStateDPA()
	obj0 := d.Objective(0)
	conjuncts := obj0.ToDNF().Conjuncts()
	require.NotEmpty(t, conjuncts)
}

func TestDPA_PriorityLevelsSorted(t *testing.T) {
	d := twoStateDPA()
	assert.Equal(t, []int{0, 1}, d.PriorityLevels())
}

func TestProduct_AddsQVarAndSetsItByTransition(t *testing.T) {
	vars := []string{"p"}
	a := [][]*big.Rat{{rat(1)}}
	b := []*big.Rat{rat(0)}
	lm, _ := algebra.NewLinMap(vars, a, b)

	host := Module{
		Vars: vars,
		Init: []map[string]*big.Rat{{"p": rat(1)}},
		Commands: []Command{
			{Guard: algebra.True(), NDSU: NDSU{ProbUpdate{{P: rat(1), U: lm}}}},
		},
	}
	d := DPA{
		QVar:     "q",
		Start:    0,
		Priority: map[int64]int{0: 0},
		Transitions: []Transition{
			{Guard: algebra.True(), To: 0},
		},
	}

	ctx := smt.NewSymbolContext("y")
	product, err := Product(ctx, host, d)
	require.NoError(t, err)
	assert.Contains(t, product.Vars, "q")
	require.NoError(t, product.Validate())
}
