// Package reactive is the data model for finite-state probabilistic
// programs: variables, a finite initial set, and guarded commands with
// nondeterministic and stochastic updates, plus their parallel
// composition, interleaving, and product with a parity automaton.
package reactive

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/psmerr"
	"github.com/corvidlab/psmsynth/internal/util"
)

// DefaultQVar is the conventional name of the distinguished variable that
// holds the current DPA state.
const DefaultQVar = "q"

// Branch is one arm of a probabilistic update: with probability P, apply
// the affine map U to the current state.
type Branch struct {
	P *big.Rat
	U algebra.LinMap
}

// ProbUpdate is an ordered list of branches whose probabilities must sum
// to 1; it is the target of a single probabilistic choice.
type ProbUpdate []Branch

// Sum returns the sum of this update's branch probabilities.
func (pu ProbUpdate) Sum() *big.Rat {
	sum := new(big.Rat)
	for _, b := range pu {
		sum.Add(sum, b.P)
	}
	return sum
}

// NDSU (nondeterministic stochastic update) is a nonempty list of
// probabilistic updates: the angelic/demonic choice of which probabilistic
// update to fire, all guarded by the same command.
type NDSU []ProbUpdate

// Command is a guarded command: labels (shared labels force
// multi-module synchronisation; an empty label set fires alone), a guard
// formula, and the NDSU it triggers when enabled.
type Command struct {
	Labels []string
	Guard  algebra.Formula
	NDSU   NDSU
}

// HasLabel reports whether name is among c's synchronisation labels.
func (c Command) HasLabel(name string) bool {
	for _, l := range c.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// Solo reports whether c fires alone (no synchronisation labels).
func (c Command) Solo() bool {
	return len(c.Labels) == 0
}

// Module is a reactive module: an ordered variable tuple, a finite initial
// state set, and a list of guarded commands.
type Module struct {
	Vars     []string
	QVar     string // empty if this module has no distinguished DPA-state variable
	Init     []map[string]*big.Rat
	Commands []Command
}

// VarIndex returns the position of name in m.Vars, or -1 if absent.
func (m Module) VarIndex(name string) int {
	for i, v := range m.Vars {
		if v == name {
			return i
		}
	}
	return -1
}

// VarSet returns m.Vars as a util.StringSet.
func (m Module) VarSet() util.StringSet {
	return util.StringSetOf(m.Vars)
}

// Validate checks the structural invariants required of every reactive
// module: every probabilistic update's branch probabilities are
// nonnegative and sum to 1, every update's row for QVar (if set) is zero
// with an integer literal offset, and every initial state assigns every
// declared variable.
func (m Module) Validate() error {
	for i, init := range m.Init {
		for _, v := range m.Vars {
			if _, ok := init[v]; !ok {
				return psmerr.New(psmerr.Structural, "initial state %d does not assign variable %q", i, v)
			}
		}
	}

	qIdx := -1
	if m.QVar != "" {
		qIdx = m.VarIndex(m.QVar)
		if qIdx < 0 {
			return psmerr.New(psmerr.Structural, "QVar %q is not among the module's variables", m.QVar)
		}
	}

	for ci, cmd := range m.Commands {
		if len(cmd.NDSU) == 0 {
			return psmerr.New(psmerr.Structural, "command %d has an empty NDSU", ci)
		}
		for pi, pu := range cmd.NDSU {
			if len(pu) == 0 {
				return psmerr.New(psmerr.Structural, "command %d, probabilistic update %d has no branches", ci, pi)
			}
			sum := pu.Sum()
			if sum.Cmp(big.NewRat(1, 1)) != 0 {
				return psmerr.New(psmerr.Structural, "command %d, probabilistic update %d has probabilities summing to %s, not 1", ci, pi, sum.RatString())
			}
			for bi, b := range pu {
				if b.P.Sign() < 0 {
					return psmerr.New(psmerr.Structural, "command %d, update %d, branch %d has negative probability %s", ci, pi, bi, b.P.RatString())
				}
				if qIdx >= 0 {
					if !b.U.RowIsZero(qIdx) {
						return psmerr.New(psmerr.Structural, "command %d, update %d, branch %d writes %q nonconstantly", ci, pi, bi, m.QVar)
					}
					if !b.U.RatB(qIdx).IsInt() {
						return psmerr.New(psmerr.Structural, "command %d, update %d, branch %d assigns non-integer value %s to %q", ci, pi, bi, b.U.RatB(qIdx).RatString(), m.QVar)
					}
				}
			}
		}
	}
	return nil
}

// EnabledAt reports whether cmd's guard is satisfiable at x (a concrete
// point); used by thin drivers and tests that want to sample reachable
// states without going through the SMT bridge.
func (c Command) EnabledAt(x map[string]*big.Rat) bool {
	for _, conjunct := range c.Guard.ToDNF().Conjuncts() {
		ok := true
		for _, a := range conjunct {
			v := a.L.Eval(x)
			if a.Strict {
				if v.Sign() >= 0 {
					ok = false
					break
				}
			} else if v.Sign() > 0 {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// IdentityUpdate returns the NDSU that deterministically applies the
// identity map -- the module's own no-op command, used as the neutral
// element for composition laws and for padding interleaved commands.
func IdentityUpdate(vars []string) NDSU {
	return NDSU{ProbUpdate{{P: big.NewRat(1, 1), U: algebra.IdentityLinMap(vars)}}}
}
