package reactive

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/algebra"
)

func rat(n int64) *big.Rat { return big.NewRat(n, 1) }

func identityCmd(vars []string, guard algebra.Formula) Command {
	return Command{Guard: guard, NDSU: IdentityUpdate(vars)}
}

func TestModule_ValidateAcceptsWellFormedModule(t *testing.T) {
	vars := []string{"q", "c"}
	// q is reassigned the literal state 0; c is carried over unchanged
	keep, err := algebra.NewLinMap(vars,
		[][]*big.Rat{{rat(0), rat(0)}, {rat(0), rat(1)}},
		[]*big.Rat{rat(0), rat(0)},
	)
	require.NoError(t, err)
	m := Module{
		Vars: vars,
		QVar: "q",
		Init: []map[string]*big.Rat{{"q": rat(0), "c": rat(5)}},
		Commands: []Command{
			{Guard: algebra.True(), NDSU: NDSU{ProbUpdate{{P: rat(1), U: keep}}}},
		},
	}
	assert.NoError(t, m.Validate())
}

func TestModule_ValidateRejectsBadProbabilitySum(t *testing.T) {
	vars := []string{"q", "c"}
	id := algebra.IdentityLinMap(vars)
	m := Module{
		Vars: vars,
		QVar: "q",
		Init: []map[string]*big.Rat{{"q": rat(0), "c": rat(0)}},
		Commands: []Command{
			{Guard: algebra.True(), NDSU: NDSU{ProbUpdate{
				{P: big.NewRat(1, 2), U: id},
			}}},
		},
	}
	require.Error(t, m.Validate())
}

func TestModule_ValidateRejectsNonconstantQRow(t *testing.T) {
	vars := []string{"q", "c"}
	// a map that increments q by 1 instead of leaving it constant
	a := [][]*big.Rat{
		{rat(1), rat(0)},
		{rat(0), rat(1)},
	}
	b := []*big.Rat{rat(1), rat(0)}
	lm, err := algebra.NewLinMap(vars, a, b)
	require.NoError(t, err)

	m := Module{
		Vars: vars,
		QVar: "q",
		Init: []map[string]*big.Rat{{"q": rat(0), "c": rat(0)}},
		Commands: []Command{
			{Guard: algebra.True(), NDSU: NDSU{ProbUpdate{{P: rat(1), U: lm}}}},
		},
	}
	require.Error(t, m.Validate())
}

func TestModule_ValidateRejectsMissingInitAssignment(t *testing.T) {
	vars := []string{"q", "c"}
	m := Module{
		Vars:     vars,
		QVar:     "q",
		Init:     []map[string]*big.Rat{{"q": rat(0)}},
		Commands: []Command{identityCmd(vars, algebra.True())},
	}
	require.Error(t, m.Validate())
}

func TestCommand_EnabledAt(t *testing.T) {
	cmd := identityCmd([]string{"c"}, algebra.Atomic(algebra.LE0(algebra.Var("c").Sub(algebra.ConstInt(5)))))
	assert.True(t, cmd.EnabledAt(map[string]*big.Rat{"c": rat(3)}))
	assert.False(t, cmd.EnabledAt(map[string]*big.Rat{"c": rat(10)}))
}
