package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_FillDefaults(t *testing.T) {
	c := Config{}.FillDefaults()
	assert.Equal(t, int64(DefaultStrictEpsilonNumerator), c.StrictEpsilonNum)
	assert.Equal(t, int64(DefaultStrictEpsilonDenominator), c.StrictEpsilonDen)
	assert.Equal(t, DefaultSolverIterationCap, c.SolverIterationCap)
	assert.Equal(t, RankerJoint, c.Ranker)
	require.NoError(t, c.Validate())
}

func TestConfig_Validate_RejectsUnknownRanker(t *testing.T) {
	c := Config{Ranker: "quantum"}.FillDefaults()
	err := c.Validate()
	require.Error(t, err)
}

func TestConfig_StrictEpsilon(t *testing.T) {
	c := Config{}
	assert.Nil(t, c.StrictEpsilon())

	c = Config{StrictEpsilonNum: 1, StrictEpsilonDen: 10}
	got := c.StrictEpsilon()
	require.NotNil(t, got)
	assert.Equal(t, "1/10", got.RatString())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psmsynth.toml")
	contents := "ranker = \"legacy\"\nsolver_iteration_cap = 500\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RankerLegacy, c.Ranker)
	assert.Equal(t, 500, c.SolverIterationCap)
	// unset fields still get their defaults
	assert.Equal(t, int64(DefaultStrictEpsilonNumerator), c.StrictEpsilonNum)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
