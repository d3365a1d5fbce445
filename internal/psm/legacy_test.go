package psm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlab/psmsynth/internal/psmerr"
)

func TestRankState_String(t *testing.T) {
	assert.Equal(t, "Start", RankStart.String())
	assert.Equal(t, "Ranking", RankInProgress.String())
	assert.Equal(t, "Done", RankDone.String())
	assert.Equal(t, "Fail", RankFail.String())
	assert.Equal(t, "?", RankState(99).String())
}

func TestRankLegacy_IdentityNeverRanksFails(t *testing.T) {
	// The legacy ranker has no invariant to lean on and asks every guard to
	// supply a strictly positive epsilon eventually; an identity update can
	// never shrink a linear function (its Farkas row reduces to 0 <= -eps),
	// so ranking must fail at the very first step regardless of the DPA's
	// declared priority.
	m, dpa := identityProduct(t, 0)
	res, err := RankLegacy(m, dpa)
	require.Error(t, err)
	pe, ok := psmerr.As(err)
	require.True(t, ok)
	assert.Equal(t, psmerr.Unsatisfiable, pe.Kind())
	assert.Equal(t, "O4", pe.Obligation())
	require.NotNil(t, res)
	assert.Equal(t, RankFail, res.State)
}

func TestRankLegacy_RejectsMismatchedQVar(t *testing.T) {
	m, dpa := identityProduct(t, 0)
	dpa.QVar = "other"
	_, err := RankLegacy(m, dpa)
	require.Error(t, err)
	pe, ok := psmerr.As(err)
	require.True(t, ok)
	assert.Equal(t, psmerr.Structural, pe.Kind())
}
