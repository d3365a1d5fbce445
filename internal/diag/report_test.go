package diag

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corvidlab/psmsynth/internal/psm"
)

func TestReport_IncludesStatesAndComponents(t *testing.T) {
	res := &psm.Result{
		Invariant: map[int64]psm.Invariant{
			0: {Vars: []string{"c"}, Alpha: map[string]*big.Rat{"c": big.NewRat(-1, 1)}, Beta: big.NewRat(0, 1)},
		},
		PSM: map[int64][]psm.LinearFunc{
			0: {{Vars: []string{"c"}, Alpha: map[string]*big.Rat{"c": big.NewRat(1, 1)}, Beta: big.NewRat(0, 1)}},
		},
		PriorityLevels: []int{1},
	}

	out := Report(res)
	assert.Contains(t, out, "I^q")
	assert.Contains(t, out, "V_0^q")
	assert.Contains(t, out, "1*c")
}
