package reactive

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/smt"
	"github.com/corvidlab/psmsynth/internal/util"
)

// unionVars returns v1 followed by the members of v2 not already in v1,
// giving the combined variable tuple V1 ⊕ (V2 \ C) of the parallel
// composition.
func unionVars(v1, v2 []string) []string {
	seen := util.StringSetOf(v1)
	out := append([]string(nil), v1...)
	for _, v := range v2 {
		if !seen.Has(v) {
			out = append(out, v)
			seen.Add(v)
		}
	}
	return out
}

// liftDelta re-expresses u (a linear map over the owning module's own
// variable tuple) as a linear map over the combined tuple vars, padding
// unmentioned variables with the identity. Shared variables written by
// only one side therefore contribute their real update; a module that
// never touches a shared variable contributes the identity row for it.
func liftDelta(u algebra.LinMap, vars []string) algebra.LinMap {
	n := len(vars)
	a := make([][]*big.Rat, n)
	b := make([]*big.Rat, n)
	srcIdx := make(map[string]int, len(u.Vars))
	for i, v := range u.Vars {
		srcIdx[v] = i
	}
	for i, v := range vars {
		a[i] = make([]*big.Rat, n)
		if si, ok := srcIdx[v]; ok {
			for j, w := range vars {
				if sj, ok2 := srcIdx[w]; ok2 {
					a[i][j] = u.RatA(si, sj)
				} else {
					a[i][j] = new(big.Rat)
				}
			}
			b[i] = u.RatB(si)
		} else {
			for j := range vars {
				if i == j {
					a[i][j] = big.NewRat(1, 1)
				} else {
					a[i][j] = new(big.Rat)
				}
			}
			b[i] = new(big.Rat)
		}
	}
	lm, _ := algebra.NewLinMap(vars, a, b)
	return lm
}

// sumShared combines two lifted updates by summing, per row, each side's
// delta from identity, so an owning module which merely carries a variable
// through unchanged (an identity row from liftDelta) never perturbs the
// other side's real update to that variable.
func sumShared(vars []string, u1, u2 algebra.LinMap) algebra.LinMap {
	n := len(vars)
	a := make([][]*big.Rat, n)
	b := make([]*big.Rat, n)
	one := big.NewRat(1, 1)
	for i := range vars {
		a[i] = make([]*big.Rat, n)
		for j := range vars {
			d1 := u1.RatA(i, j)
			d2 := u2.RatA(i, j)
			if i == j {
				d1.Sub(d1, one)
				d2.Sub(d2, one)
			}
			sum := new(big.Rat).Add(d1, d2)
			if i == j {
				sum.Add(sum, one)
			}
			a[i][j] = sum
		}
		b[i] = new(big.Rat).Add(u1.RatB(i), u2.RatB(i))
	}
	lm, _ := algebra.NewLinMap(vars, a, b)
	return lm
}

// crossProbUpdates computes the joint probabilistic update over two
// already-lifted probability updates, multiplying branch probabilities and
// combining branch maps via sumShared.
func crossProbUpdates(vars []string, p1, p2 ProbUpdate) ProbUpdate {
	out := make(ProbUpdate, 0, len(p1)*len(p2))
	for _, b1 := range p1 {
		lifted1 := liftDelta(b1.U, vars)
		for _, b2 := range p2 {
			lifted2 := liftDelta(b2.U, vars)
			out = append(out, Branch{
				P: new(big.Rat).Mul(b1.P, b2.P),
				U: sumShared(vars, lifted1, lifted2),
			})
		}
	}
	return out
}

// Parallel composes m1 and m2 in lock-step (∥): commands sharing a
// synchronisation label fire in lock-step when their guards are jointly
// satisfiable (checked via a scratch SMT bridge); solo commands from
// either module carry over restricted to that module's own guard, lifted
// to the combined variable tuple. ctx is accepted for symmetry with the
// rest of the pipeline's symbol-threading convention even though
// composition itself introduces no fresh symbols.
func Parallel(ctx *smt.SymbolContext, m1, m2 Module) (Module, error) {
	_ = ctx
	vars := unionVars(m1.Vars, m2.Vars)
	qVar := m1.QVar
	if qVar == "" {
		qVar = m2.QVar
	}

	out := Module{Vars: vars, QVar: qVar}

	shared := util.StringSetOf(m1.Vars).Intersection(util.StringSetOf(m2.Vars))
	for _, init1 := range m1.Init {
		for _, init2 := range m2.Init {
			if !agreeOn(init1, init2, shared) {
				continue
			}
			combined := make(map[string]*big.Rat, len(vars))
			for _, v := range vars {
				if val, ok := init1[v]; ok {
					combined[v] = val
				} else {
					combined[v] = init2[v]
				}
			}
			out.Init = append(out.Init, combined)
		}
	}

	for _, c1 := range m1.Commands {
		if !c1.Solo() {
			continue
		}
		out.Commands = append(out.Commands, liftSolo(c1, vars))
	}
	for _, c2 := range m2.Commands {
		if !c2.Solo() {
			continue
		}
		out.Commands = append(out.Commands, liftSolo(c2, vars))
	}

	for _, c1 := range m1.Commands {
		if c1.Solo() {
			continue
		}
		for _, c2 := range m2.Commands {
			if c2.Solo() || !sharesLabel(c1, c2) {
				continue
			}
			joint := algebra.And(c1.Guard, c2.Guard)
			ok, err := checkJointSat(vars, joint)
			if err != nil {
				return Module{}, err
			}
			if !ok {
				continue
			}
			nd := make(NDSU, 0, len(c1.NDSU)*len(c2.NDSU))
			for _, p1 := range c1.NDSU {
				for _, p2 := range c2.NDSU {
					nd = append(nd, crossProbUpdates(vars, p1, p2))
				}
			}
			out.Commands = append(out.Commands, Command{
				Labels: unionLabels(c1.Labels, c2.Labels),
				Guard:  joint,
				NDSU:   nd,
			})
		}
	}

	return out, out.Validate()
}

func checkJointSat(vars []string, f algebra.Formula) (bool, error) {
	b := smt.NewBridge()
	for _, v := range vars {
		b.DeclReal(v)
	}
	return b.CheckSat(f)
}

func liftSolo(c Command, vars []string) Command {
	nd := make(NDSU, len(c.NDSU))
	for i, pu := range c.NDSU {
		lifted := make(ProbUpdate, len(pu))
		for j, br := range pu {
			lifted[j] = Branch{P: br.P, U: liftDelta(br.U, vars)}
		}
		nd[i] = lifted
	}
	return Command{Labels: c.Labels, Guard: c.Guard, NDSU: nd}
}

func agreeOn(a, b map[string]*big.Rat, shared util.StringSet) bool {
	for v := range shared {
		av, aok := a[v]
		bv, bok := b[v]
		if !aok || !bok || av.Cmp(bv) != 0 {
			return false
		}
	}
	return true
}

func sharesLabel(c1, c2 Command) bool {
	for _, l := range c1.Labels {
		if c2.HasLabel(l) {
			return true
		}
	}
	return false
}

func unionLabels(l1, l2 []string) []string {
	seen := util.StringSetOf(l1)
	out := append([]string(nil), l1...)
	for _, l := range l2 {
		if !seen.Has(l) {
			out = append(out, l)
			seen.Add(l)
		}
	}
	return out
}

// Interleaving composes m1 and m2 so that at most one module moves per
// step: synchronising commands still fire in lock-step exactly as in
// Parallel, but each module's solo commands are additionally restricted to
// the complement of the other module's enabled guards, so the two modules
// never move simultaneously except through an explicit shared label.
func Interleaving(ctx *smt.SymbolContext, m1, m2 Module) (Module, error) {
	base, err := Parallel(ctx, m1, m2)
	if err != nil {
		return Module{}, err
	}
	vars := base.Vars

	otherEnabled2 := disjointOfGuards(m2.Commands)
	otherEnabled1 := disjointOfGuards(m1.Commands)

	var solo []Command
	for _, c1 := range m1.Commands {
		if !c1.Solo() {
			continue
		}
		restricted := algebra.And(c1.Guard, otherEnabled2.Negate())
		solo = append(solo, Command{Labels: c1.Labels, Guard: restricted, NDSU: liftSolo(c1, vars).NDSU})
	}
	for _, c2 := range m2.Commands {
		if !c2.Solo() {
			continue
		}
		restricted := algebra.And(c2.Guard, otherEnabled1.Negate())
		solo = append(solo, Command{Labels: c2.Labels, Guard: restricted, NDSU: liftSolo(c2, vars).NDSU})
	}

	var lockstep []Command
	for _, c := range base.Commands {
		if !c.Solo() {
			lockstep = append(lockstep, c)
		}
	}
	base.Commands = append(lockstep, solo...)
	return base, base.Validate()
}

func disjointOfGuards(cmds []Command) algebra.Formula {
	if len(cmds) == 0 {
		return algebra.False()
	}
	gs := make([]algebra.Formula, len(cmds))
	for i, c := range cmds {
		gs[i] = c.Guard
	}
	return algebra.Or(gs...)
}
