package persist

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/psm"
)

func sampleResult() *psm.Result {
	return &psm.Result{
		Invariant: map[int64]psm.Invariant{
			0: {Vars: []string{"c"}, Alpha: map[string]*big.Rat{"c": big.NewRat(-1, 1)}, Beta: big.NewRat(0, 1)},
			1: {Vars: []string{"c"}, Alpha: map[string]*big.Rat{"c": big.NewRat(-1, 2)}, Beta: big.NewRat(3, 1)},
		},
		PSM: map[int64][]psm.LinearFunc{
			0: {{Vars: []string{"c"}, Alpha: map[string]*big.Rat{"c": big.NewRat(1, 1)}, Beta: big.NewRat(0, 1)}},
			1: {{Vars: []string{"c"}, Alpha: map[string]*big.Rat{"c": big.NewRat(0, 1)}, Beta: big.NewRat(2, 1)}},
		},
		PriorityLevels: []int{0, 1},
	}
}

func TestToDTO_ToResult_RoundTrips(t *testing.T) {
	res := sampleResult()
	dto := ToDTO(res)
	got, err := dto.ToResult()
	require.NoError(t, err)

	assert.Equal(t, res.PriorityLevels, got.PriorityLevels)
	for q, inv := range res.Invariant {
		require.Contains(t, got.Invariant, q)
		assert.Equal(t, inv.Beta, got.Invariant[q].Beta)
		assert.Equal(t, inv.Alpha["c"], got.Invariant[q].Alpha["c"])
	}
	for q, funcs := range res.PSM {
		require.Contains(t, got.PSM, q)
		require.Len(t, got.PSM[q], len(funcs))
		assert.Equal(t, funcs[0].Beta, got.PSM[q][0].Beta)
	}
}

func TestResultDTO_ToResult_RejectsBadRational(t *testing.T) {
	dto := ResultDTO{
		States:         []int64{0},
		InvariantVars:  map[int64][]string{0: {"c"}},
		InvariantAlpha: map[int64]map[string]string{0: {"c": "not-a-rational"}},
		InvariantBeta:  map[int64]string{0: "0/1"},
	}
	_, err := dto.ToResult()
	assert.Error(t, err)
}
