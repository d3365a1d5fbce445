package reactive

import (
	"math/big"
	"sort"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/psmerr"
	"github.com/corvidlab/psmsynth/internal/smt"
)

// DPA is a deterministic parity automaton: a reactive module whose only
// variable is QVar, whose commands deterministically set QVar to a
// constant based on a guard over the host module's variables, and whose
// states each carry a priority (even = accepting in the limit, odd = must
// occur only finitely often).
type DPA struct {
	QVar     string
	Start    int64
	Priority map[int64]int
	// Transitions are guards, read against the host module's variables,
	// each paired with the DPA state to move to. The first transition
	// whose guard is satisfied determines the next state; transitions
	// must be exhaustive over the host's reachable states for the product
	// to be total, which is checked only up to the guards' own
	// satisfiability, not full reachability.
	Transitions []Transition
}

// Transition is one arm of the DPA's deterministic guard: when Guard
// holds, move to To.
type Transition struct {
	Guard algebra.Formula
	To    int64
}

// States returns the DPA's states in ascending order.
func (d DPA) States() []int64 {
	out := make([]int64, 0, len(d.Priority))
	for q := range d.Priority {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PriorityLevels returns the distinct priority values occurring in d, in
// ascending order -- the lexicographic ranking order S_0, S_1, ... used by
// the PSM synthesiser.
func (d DPA) PriorityLevels() []int {
	seen := map[int]bool{}
	for _, p := range d.Priority {
		seen[p] = true
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Objective returns S_i(V): the disjunction of q = c atoms over every DPA
// state c whose priority equals level.
func (d DPA) Objective(level int) algebra.Formula {
	var disjuncts []algebra.Formula
	for _, q := range d.States() {
		if d.Priority[q] == level {
			disjuncts = append(disjuncts, algebra.And(
				algebra.Atomic(algebra.LE0(algebra.Var(d.QVar).Sub(algebra.ConstInt(q)))),
				algebra.Atomic(algebra.LE0(algebra.ConstInt(q).Sub(algebra.Var(d.QVar)))),
			))
		}
	}
	if len(disjuncts) == 0 {
		return algebra.False()
	}
	return algebra.Or(disjuncts...).ToDNF()
}

// asModule renders the DPA as a standalone Module over {QVar}, with one
// command per transition: guard as specified, deterministically setting
// QVar to To and nothing else (row_q = 0 trivially, since QVar is the
// DPA's only variable and the update's b entry is the literal target
// state).
func (d DPA) asModule() Module {
	m := Module{Vars: []string{d.QVar}, QVar: d.QVar}
	m.Init = []map[string]*big.Rat{{d.QVar: big.NewRat(d.Start, 1)}}
	for _, tr := range d.Transitions {
		a := [][]*big.Rat{{new(big.Rat)}}
		b := []*big.Rat{big.NewRat(tr.To, 1)}
		lm, _ := algebra.NewLinMap([]string{d.QVar}, a, b)
		m.Commands = append(m.Commands, Command{
			Guard: tr.Guard,
			NDSU:  NDSU{ProbUpdate{{P: big.NewRat(1, 1), U: lm}}},
		})
	}
	return m
}

// Product forms the parity product of host with dpa: a specialisation of
// Parallel where the automaton's transitions are solo commands (guarded
// purely by the host's variables, synchronised implicitly by firing
// alongside whichever host command is enabled) rather than labelled
// synchronisations -- equivalent to parallel composition exactly when the
// automaton's guards partition the state space on the non-q variables. Every host command gets conjoined, in lock-step,
// with whichever single DPA transition guard holds; commands are dropped
// (rather than left without a successor) if no transition's guard is
// satisfiable alongside the host command's guard, since a total DPA
// product requires the transitions to already partition the reachable
// state space.
func Product(ctx *smt.SymbolContext, host Module, dpa DPA) (Module, error) {
	if host.VarIndex(dpa.QVar) >= 0 {
		return Module{}, psmerr.New(psmerr.Structural, "host module already declares the DPA state variable %q", dpa.QVar)
	}
	vars := append(append([]string(nil), host.Vars...), dpa.QVar)
	out := Module{Vars: vars, QVar: dpa.QVar}

	for _, init := range host.Init {
		q0, err := startStateFor(ctx, dpa, init)
		if err != nil {
			return Module{}, err
		}
		combined := make(map[string]*big.Rat, len(vars))
		for k, v := range init {
			combined[k] = v
		}
		combined[dpa.QVar] = big.NewRat(q0, 1)
		out.Init = append(out.Init, combined)
	}

	for _, hc := range host.Commands {
		for _, tr := range dpa.Transitions {
			joint := algebra.And(hc.Guard, tr.Guard)
			ok, err := checkJointSat(host.Vars, joint)
			if err != nil {
				return Module{}, err
			}
			if !ok {
				continue
			}
			lifted := liftSolo(hc, vars)
			nd := make(NDSU, len(lifted.NDSU))
			for i, pu := range lifted.NDSU {
				updated := make(ProbUpdate, len(pu))
				for j, br := range pu {
					updated[j] = Branch{P: br.P, U: setQConst(br.U, vars, dpa.QVar, tr.To)}
				}
				nd[i] = updated
			}
			out.Commands = append(out.Commands, Command{
				Labels: hc.Labels,
				Guard:  joint,
				NDSU:   nd,
			})
		}
	}

	return out, out.Validate()
}

// startStateFor picks the (unique, by construction) DPA transition whose
// guard is satisfied at init's concrete values, falling back to dpa.Start
// if no transition applies -- the automaton has not yet moved off its
// declared start state at a genuinely initial point.
func startStateFor(ctx *smt.SymbolContext, dpa DPA, init map[string]*big.Rat) (int64, error) {
	_ = ctx
	for _, tr := range dpa.Transitions {
		if evalFormulaAt(tr.Guard, init) {
			return tr.To, nil
		}
	}
	return dpa.Start, nil
}

func evalFormulaAt(f algebra.Formula, x map[string]*big.Rat) bool {
	for _, conjunct := range f.ToDNF().Conjuncts() {
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

// setQConst returns u (already lifted to vars) with its QVar row forced
// to the literal constant q -- row_q(A) = 0, b_q = q -- overriding
// whatever liftSolo produced for that row (ordinarily the identity, since
// the host module never declares QVar itself).
func setQConst(u algebra.LinMap, vars []string, qVar string, q int64) algebra.LinMap {
	qi := -1
	for i, v := range vars {
		if v == qVar {
			qi = i
			break
		}
	}
	n := len(vars)
	a := make([][]*big.Rat, n)
	b := make([]*big.Rat, n)
	for i := range vars {
		a[i] = make([]*big.Rat, n)
		for j := range vars {
			a[i][j] = u.RatA(i, j)
		}
		b[i] = u.RatB(i)
	}
	for j := range vars {
		a[qi][j] = new(big.Rat)
	}
	b[qi] = big.NewRat(q, 1)
	lm, _ := algebra.NewLinMap(vars, a, b)
	return lm
}
