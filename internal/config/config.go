// Package config loads the synthesis parameters that tune a psmsynth run
// (LP strictness, solver caps, which obligation path to take) from a TOML
// file via github.com/BurntSushi/toml, applying defaults in Go rather
// than in the file.
package config

import (
	"fmt"
	"math/big"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultStrictEpsilonNumerator/Denominator is the rational FillDefaults
	// sets for the strict "<" approximation when the file leaves it unset.
	// (The bridge's own fallback, used only when it receives no value, is
	// 1/1000000.)
	DefaultStrictEpsilonNumerator   = 1
	DefaultStrictEpsilonDenominator = 1000

	// DefaultSolverIterationCap is the solver iteration cap FillDefaults sets
	// when the file leaves it unset. The cap is only loaded and validated:
	// neither the synthesis entry points nor the LP bridge read it, so
	// simplex runs are not bounded by it.
	DefaultSolverIterationCap = 10000
)

// Ranker selects which of the two PSM construction strategies psmsynth
// should use.
type Ranker string

const (
	// RankerJoint is the default: a single joint encoding of all obligation
	// families solved in one pass.
	RankerJoint Ranker = "joint"

	// RankerLegacy is the iterative per-state ranker: no co-synthesised
	// invariant, one optimisation pass per priority level.
	RankerLegacy Ranker = "legacy"
)

// Config is a synthesis run's tunable parameters. The zero value is not
// directly usable; call FillDefaults (or Load, which does so automatically)
// before Validate.
type Config struct {
	// StrictEpsilonNum/Den together give the rational the LP bridge
	// substitutes for a strict "<" inequality. If either is zero the bridge
	// default applies.
	StrictEpsilonNum int64 `toml:"strict_epsilon_numerator"`
	StrictEpsilonDen int64 `toml:"strict_epsilon_denominator"`

	// SolverIterationCap is a per-call simplex pivot limit. It is loaded and
	// validated but not passed to the LP bridge, which runs without a cap.
	SolverIterationCap int `toml:"solver_iteration_cap"`

	// Ranker selects the joint encoding or the legacy iterative ranker.
	Ranker Ranker `toml:"ranker"`

	// OutFile, if set, is where the CLI driver writes the rezi-encoded
	// synthesis result (the --out flag's default). Empty means don't write
	// one.
	OutFile string `toml:"out_file"`
}

// StrictEpsilon returns the configured strict-inequality rational, or nil if
// unset (meaning the bridge's own default applies).
func (c Config) StrictEpsilon() *big.Rat {
	if c.StrictEpsilonNum == 0 || c.StrictEpsilonDen == 0 {
		return nil
	}
	return big.NewRat(c.StrictEpsilonNum, c.StrictEpsilonDen)
}

// FillDefaults returns a copy of c with unset fields set to their defaults.
func (c Config) FillDefaults() Config {
	out := c
	if out.StrictEpsilonNum == 0 {
		out.StrictEpsilonNum = DefaultStrictEpsilonNumerator
	}
	if out.StrictEpsilonDen == 0 {
		out.StrictEpsilonDen = DefaultStrictEpsilonDenominator
	}
	if out.SolverIterationCap == 0 {
		out.SolverIterationCap = DefaultSolverIterationCap
	}
	if out.Ranker == "" {
		out.Ranker = RankerJoint
	}
	return out
}

// Validate returns an error if c has invalid field values. Call FillDefaults
// first if defaults are intended to be used.
func (c Config) Validate() error {
	if c.StrictEpsilonDen < 0 {
		return fmt.Errorf("strict_epsilon_denominator: must be positive, got %d", c.StrictEpsilonDen)
	}
	if c.SolverIterationCap < 1 {
		return fmt.Errorf("solver_iteration_cap: must be at least 1, got %d", c.SolverIterationCap)
	}
	switch c.Ranker {
	case RankerJoint, RankerLegacy:
	default:
		return fmt.Errorf("ranker: must be %q or %q, got %q", RankerJoint, RankerLegacy, c.Ranker)
	}
	return nil
}

// Load reads and decodes a TOML config file at path, applying defaults to
// any field it leaves unset.
func Load(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	c = c.FillDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}
