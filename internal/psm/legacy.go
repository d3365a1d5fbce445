package psm

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/farkas"
	"github.com/corvidlab/psmsynth/internal/psmerr"
	"github.com/corvidlab/psmsynth/internal/reactive"
	"github.com/corvidlab/psmsynth/internal/smt"
)

// RankState is a state of the legacy iterative ranker's state machine:
// Start -> Ranking_i -> Ranking_{i+1} -> ... -> Done|Fail.
type RankState int

const (
	RankStart RankState = iota
	RankInProgress
	RankDone
	RankFail
)

func (s RankState) String() string {
	switch s {
	case RankStart:
		return "Start"
	case RankInProgress:
		return "Ranking"
	case RankDone:
		return "Done"
	case RankFail:
		return "Fail"
	default:
		return "?"
	}
}

// LegacyResult is the output of the legacy ranker: one lexicographic PSM
// component per priority rank actually reached before termination, per
// DPA state, plus the trace of which guards ranked at which step (for
// diagnostics).
type LegacyResult struct {
	PSM   map[int64][]LinearFunc
	State RankState
	// Ranked[q] lists, per ranking step in the order the ranker found them,
	// the indices of the commands ranked at that state. An index counts
	// only the product commands whose guard is satisfiable at q (in
	// product.Commands order), so it equals the product.Commands index only
	// when no earlier command was dropped at q.
	Ranked map[int64][][]int
}

// RankLegacy implements the legacy iterative ranker: no invariant is
// co-synthesised; for each DPA state it repeatedly builds an
// LP Optimize call over a soft "maximise as many strictly positive guard
// epsilons as possible" objective restricted to the priorities and guards
// not yet ranked, removing whichever guards ranked (eps > 0) at that step,
// and advancing the state machine above.
func RankLegacy(product reactive.Module, dpa reactive.DPA) (*LegacyResult, error) {
	if product.QVar != dpa.QVar {
		return nil, psmerr.New(psmerr.Structural, "product module's QVar %q does not match the DPA's %q", product.QVar, dpa.QVar)
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	ctx := smt.NewSymbolContext("l")
	epsCtx := ctx.Sub("le")
	xVars := product.Vars
	qVar := dpa.QVar

	res := &LegacyResult{
		PSM:    make(map[int64][]LinearFunc),
		Ranked: make(map[int64][][]int),
		State:  RankStart,
	}

	for _, q := range dpa.States() {
		entries := guardsAtState(xVars, qVar, q, product.Commands)
		unranked := make([]int, len(entries))
		for i := range unranked {
			unranked[i] = i
		}

		var comps []LinearFunc
		state := RankStart
		for len(unranked) > 0 {
			state = RankInProgress
			tpl := newFuncTemplate(ctx, len(xVars))

			bridge := smt.NewBridge()
			for _, v := range xVars {
				bridge.DeclReal(v)
			}
			bridge.DeclReal(tpl.beta)
			for _, s := range tpl.alpha {
				bridge.DeclReal(s)
			}

			epsOf := make(map[int]string, len(unranked))
			maximize := make(map[string]*big.Rat, len(unranked))
			for _, idx := range unranked {
				eps := epsCtx.Fresh()
				bridge.DeclReal(eps)
				epsOf[idx] = eps
				maximize[eps] = big.NewRat(1, 1)
				bridge.Assert(algebra.Atomic(algebra.LE0(algebra.Var(eps).Neg())))

				entry := entries[idx]
				for _, disjunct := range entry.guard.ToDNF().Conjuncts() {
					premises := conjunctRows(xVars, disjunct)
					for _, action := range entry.cmd.NDSU {
						concl, err := driftConclusionNoInvariant(xVars, tpl, action, eps)
						if err != nil {
							return nil, err
						}
						for _, f := range farkas.Generate(ctx, premises, concl) {
							bridge.Assert(f)
						}
					}
				}
			}

			model, ok, err := bridge.Optimize(maximize)
			if err != nil {
				return nil, err
			}
			if !ok {
				state = RankFail
				break
			}

			var ranked []int
			var stillUnranked []int
			for _, idx := range unranked {
				v := model.Value(epsOf[idx])
				if v != nil && v.Sign() > 0 {
					ranked = append(ranked, idx)
				} else {
					stillUnranked = append(stillUnranked, idx)
				}
			}
			if len(ranked) == 0 {
				state = RankFail
				break
			}

			comps = append(comps, decodeTemplate(model, xVars, tpl))
			res.Ranked[q] = append(res.Ranked[q], ranked)
			unranked = stillUnranked
		}

		if state == RankFail {
			res.State = RankFail
			return res, psmerr.Unsat("O4", "legacy ranker could not rank all guards at DPA state %d", q)
		}
		res.PSM[q] = comps
	}

	res.State = RankDone
	return res, nil
}

type guardEntry struct {
	cmd   reactive.Command
	guard algebra.Formula
}

func guardsAtState(xVars []string, qVar string, q int64, cmds []reactive.Command) []guardEntry {
	diff := algebra.Var(qVar).Sub(algebra.ConstInt(q))
	qEq := algebra.And(algebra.Atomic(algebra.LE0(diff)), algebra.Atomic(algebra.LE0(diff.Neg())))
	var out []guardEntry
	for _, cmd := range cmds {
		joint := algebra.And(cmd.Guard, qEq)
		sat, err := checkSat(xVars, joint)
		if err != nil || !sat {
			continue
		}
		out = append(out, guardEntry{cmd, joint})
	}
	return out
}

// driftConclusionNoInvariant is driftConclusion without an invariant
// premise and without a cross-state PSM map: the legacy ranker ranks one
// template per state per step rather than co-indexing by priority, so the
// post-state template is the same tpl regardless of which DPA state a
// branch lands in; no invariant appears in the premise.
func driftConclusionNoInvariant(xVars []string, tpl funcTemplate, action reactive.ProbUpdate, eps string) (farkas.Row, error) {
	n := len(xVars)
	coeff := make([]algebra.LinExpr, n)
	for j := range coeff {
		coeff[j] = algebra.ConstInt(0)
	}
	offset := algebra.ConstInt(0)

	for _, branch := range action {
		pc, po := tpl.pushThrough(branch.U)
		for j := range coeff {
			coeff[j] = coeff[j].Add(pc[j].Scale(branch.P))
		}
		offset = offset.Add(po.Scale(branch.P))
	}

	for j, s := range tpl.alpha {
		coeff[j] = coeff[j].Sub(algebra.Var(s))
	}
	rhs := algebra.Var(tpl.beta).Sub(algebra.Var(eps)).Sub(offset)
	return farkas.Row{Coeff: coeff, RHS: rhs}, nil
}
