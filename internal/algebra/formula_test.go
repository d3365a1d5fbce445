package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atomLeq(name string, c int64) Formula {
	return Atomic(LE0(Var(name).Sub(ConstInt(c))))
}

func TestFormula_FlattenMergesNestedSameKind(t *testing.T) {
	a, b, c := atomLeq("x", 1), atomLeq("y", 2), atomLeq("z", 3)
	nested := And(a, And(b, c))
	flat := nested.Flatten()
	assert.Len(t, flat.Children(), 3)
}

func TestFormula_ToDNF_DistributesAndOverOr(t *testing.T) {
	a, b, c := atomLeq("x", 1), atomLeq("y", 2), atomLeq("z", 3)
	f := And(a, Or(b, c))
	dnf := f.ToDNF()
	conjuncts := dnf.Conjuncts()
	require.Len(t, conjuncts, 2)
	for _, conj := range conjuncts {
		assert.Len(t, conj, 2)
	}
}

func TestFormula_ToDNF_IdempotentOnAlreadyDNF(t *testing.T) {
	a, b := atomLeq("x", 1), atomLeq("y", 2)
	f := Or(And(a, b), a)
	once := f.ToDNF()
	twice := once.ToDNF()
	assert.Equal(t, once.String(), twice.String())
}

func TestFormula_NegateDeMorgan(t *testing.T) {
	a, b := atomLeq("x", 1), atomLeq("y", 2)
	f := And(a, b)
	neg := f.Negate()
	require.Equal(t, kOr, neg.Kind())
	require.Len(t, neg.Children(), 2)
}

func TestFormula_NegateInvolution(t *testing.T) {
	a, b := atomLeq("x", 1), atomLeq("y", 2)
	f := Or(a, And(b, a))
	twice := f.Negate().Negate().ToDNF()
	once := f.ToDNF()
	assert.Equal(t, once.String(), twice.String())
}

func TestFormula_ConjunctsDropsFalseDisjuncts(t *testing.T) {
	a := atomLeq("x", 1)
	f := Or(a, False())
	conjuncts := f.Conjuncts()
	require.Len(t, conjuncts, 1)
}

func TestFormula_VarSet(t *testing.T) {
	f := And(atomLeq("x", 1), Or(atomLeq("y", 2), atomLeq("x", 9)))
	vs := f.VarSet()
	assert.True(t, vs["x"])
	assert.True(t, vs["y"])
	assert.Len(t, vs, 2)
}

func TestParseDisjunctionConjunction_SingletonWrapping(t *testing.T) {
	a := atomLeq("x", 1)
	assert.Len(t, ParseDisjunction(a), 1)
	assert.Len(t, ParseConjunction(a), 1)
	assert.Empty(t, ParseConjunction(True()))
}
