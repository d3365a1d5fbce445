package psm

import (
	"math/big"

	"github.com/corvidlab/psmsynth/internal/algebra"
	"github.com/corvidlab/psmsynth/internal/farkas"
	"github.com/corvidlab/psmsynth/internal/psmerr"
	"github.com/corvidlab/psmsynth/internal/reactive"
	"github.com/corvidlab/psmsynth/internal/smt"
)

// Options tunes a synthesis run. The zero value is sensible defaults.
type Options struct {
	// StrictEpsilon is the LP's approximation of a strict inequality,
	// forwarded to the smt.Bridge. Nil means the bridge's own default.
	StrictEpsilon *big.Rat
}

// builder assembles the O1-O5 obligation set into a single smt.Bridge,
// following a fixed lexicographic q -> i -> j -> k -> branch traversal
// order so that identical inputs yield identical constraint sets.
type builder struct {
	ctx     *smt.SymbolContext
	bridge  *smt.Bridge
	product reactive.Module
	dpa     reactive.DPA
	xVars   []string
	qVar    string
	qIdx    int

	priorities []int // ascending distinct priority values; index i is S_i

	inv map[int64]funcTemplate   // per DPA state
	v   map[int64][]funcTemplate // per DPA state, per priority index i

	epsSym map[[4]int64]string // (q, i, j, k) -> fresh eps symbol name
}

func newBuilder(product reactive.Module, dpa reactive.DPA) *builder {
	b := &builder{
		ctx:        smt.NewSymbolContext("t"),
		bridge:     smt.NewBridge(),
		product:    product,
		dpa:        dpa,
		xVars:      product.Vars,
		qVar:       dpa.QVar,
		qIdx:       product.VarIndex(dpa.QVar),
		priorities: dpa.PriorityLevels(),
		inv:        make(map[int64]funcTemplate),
		v:          make(map[int64][]funcTemplate),
		epsSym:     make(map[[4]int64]string),
	}
	for _, v := range b.xVars {
		b.bridge.DeclReal(v)
	}
	for _, q := range dpa.States() {
		b.inv[q] = newFuncTemplate(b.ctx, len(b.xVars))
		b.declare(b.inv[q].symbols())
		comps := make([]funcTemplate, len(b.priorities))
		for i := range comps {
			comps[i] = newFuncTemplate(b.ctx, len(b.xVars))
			b.declare(comps[i].symbols())
		}
		b.v[q] = comps
	}
	return b
}

func (b *builder) declare(names []string) {
	for _, n := range names {
		b.bridge.DeclReal(n)
	}
}

func (b *builder) assertAll(fs []algebra.Formula) {
	for _, f := range fs {
		b.bridge.Assert(f)
	}
}

// guardsAt returns, for DPA state q, the product commands whose guard
// conjoined with q = qConst is satisfiable, each paired with that joint
// guard formula -- the guard set G_q.
func (b *builder) guardsAt(q int64) []guardEntry {
	return guardsAtState(b.xVars, b.qVar, q, b.product.Commands)
}

func checkSat(vars []string, f algebra.Formula) (bool, error) {
	scratch := smt.NewBridge()
	for _, v := range vars {
		scratch.DeclReal(v)
	}
	return scratch.CheckSat(f)
}

// targetState reads off the literal DPA state a branch's update assigns
// to qVar -- the integer b_q that reactive.Module.Validate guarantees
// every update carries.
func (b *builder) targetState(u algebra.LinMap) (int64, error) {
	rat := u.RatB(b.qIdx)
	if !rat.IsInt() {
		return 0, psmerr.New(psmerr.Structural, "update assigns non-integer value %s to %q", rat.RatString(), b.qVar)
	}
	return rat.Num().Int64(), nil
}

// addO1 emits PSM non-negativity: I^q(x) <= 0 ^ q=qConst => V_i^q(x) >= 0,
// for every state q and priority index i.
func (b *builder) addO1() {
	for _, q := range b.dpa.States() {
		premises := append([]farkas.Row{b.inv[q].asPremiseRow()}, qConstRows(b.xVars, b.qVar, q)...)
		for i := range b.priorities {
			concl := b.v[q][i].asNonNegConclusionRow()
			b.assertAll(farkas.Generate(b.ctx, premises, concl))
		}
	}
}

// addO2 emits invariant coverage of Init: for each concrete initial state,
// I^{q0}(init) <= 0 where q0 is that state's own q coordinate -- the
// existential over q degenerates to this single q because Init assigns q
// a concrete value per state (see DESIGN.md).
func (b *builder) addO2() error {
	for _, init := range b.product.Init {
		qv, ok := init[b.qVar]
		if !ok || !qv.IsInt() {
			return psmerr.New(psmerr.Structural, "initial state does not assign an integer %q", b.qVar)
		}
		q0 := qv.Num().Int64()
		tpl, ok := b.inv[q0]
		if !ok {
			return psmerr.New(psmerr.Structural, "initial state assigns unknown DPA state %d", q0)
		}
		expr := tpl.evalAtConcretePoint(b.xVars, init)
		b.bridge.Assert(algebra.Atomic(algebra.LE0(expr)))
	}
	return nil
}

// addO3 emits invariant consecution: for every state q, every command
// enabled there, every branch of every action, I^q(x)<=0 ^ g(x) ^
// q=qConst => I^{q'}(u(x)) <= 0.
func (b *builder) addO3() error {
	for _, q := range b.dpa.States() {
		for _, entry := range b.guardsAt(q) {
			for _, disjunct := range entry.guard.ToDNF().Conjuncts() {
				premises := append([]farkas.Row{b.inv[q].asPremiseRow()}, conjunctRows(b.xVars, disjunct)...)
				for _, action := range entry.cmd.NDSU {
					for _, branch := range action {
						qp, err := b.targetState(branch.U)
						if err != nil {
							return err
						}
						invQP, ok := b.inv[qp]
						if !ok {
							return psmerr.New(psmerr.Structural, "command targets unknown DPA state %d", qp)
						}
						coeff, offset := invQP.pushThrough(branch.U)
						concl := farkas.Row{Coeff: coeff, RHS: offset.Neg()}
						b.assertAll(farkas.Generate(b.ctx, premises, concl))
					}
				}
			}
		}
	}
	return nil
}

// addO4O5 emits the drift obligation (O4) and its epsilon discipline (O5)
// for every (q, i, j, k) combination with i <= j, in q -> i -> j -> k ->
// branch order.
func (b *builder) addO4O5() error {
	m := len(b.priorities)
	for _, q := range b.dpa.States() {
		entries := b.guardsAt(q)
		for i := 0; i < m; i++ {
			for j := i; j < m; j++ {
				for k, entry := range entries {
					eps := b.epsFor(q, int64(i), int64(j), int64(k))
					b.bridge.Assert(algebra.Atomic(algebra.LE0(algebra.Var(eps).Neg()))) // eps >= 0 (O5 bullet 1)

					if i == j && b.priorities[i]%2 != 0 {
						// O5 bullets 2-3: for i = j at an odd priority
						// level (at every state q), strict decrease is
						// required only when no lexicographically earlier
						// component already carries slack.
						b.assertStrictEpsilon(q, i, j, k)
					}

					for _, disjunct := range entry.guard.ToDNF().Conjuncts() {
						sjAtoms := b.dpa.Objective(b.priorities[j]).ToDNF().Conjuncts()
						for _, sj := range sjAtoms {
							premises := append([]farkas.Row{b.inv[q].asPremiseRow()}, conjunctRows(b.xVars, disjunct)...)
							premises = append(premises, conjunctRows(b.xVars, sj)...)
							premises = append(premises, qConstRows(b.xVars, b.qVar, q)...)

							for _, action := range entry.cmd.NDSU {
								concl, err := b.driftConclusion(q, i, action, eps)
								if err != nil {
									return err
								}
								b.assertAll(farkas.Generate(b.ctx, premises, concl))
							}
						}
					}
				}
			}
		}
	}
	return nil
}

// assertStrictEpsilon emits the conditional half of the epsilon
// discipline for an odd-priority state: the epsilon at (i, j, k) must be
// strictly positive whenever the epsilons at every earlier index i' < i
// (same j and k) are all zero. Every epsilon already carries a
// nonnegativity assertion, so the implication is equivalent to the
// disjunction "some epsilon at an index <= i is strictly positive",
// which the bridge's DNF case split decides directly. The own-index
// disjunct is listed first so the first case the solver tries is a plain
// strict decrease at i itself.
func (b *builder) assertStrictEpsilon(q int64, i, j, k int) {
	disjuncts := make([]algebra.Formula, 0, i+1)
	for ip := i; ip >= 0; ip-- {
		eps := b.epsFor(q, int64(ip), int64(j), int64(k))
		disjuncts = append(disjuncts, algebra.Atomic(algebra.LT0(algebra.Var(eps).Neg())))
	}
	if len(disjuncts) == 1 {
		b.bridge.Assert(disjuncts[0])
		return
	}
	b.bridge.Assert(algebra.Or(disjuncts...))
}

func (b *builder) epsFor(q, i, j, k int64) string {
	key := [4]int64{q, i, j, k}
	if s, ok := b.epsSym[key]; ok {
		return s
	}
	s := b.ctx.Fresh()
	b.epsSym[key] = s
	b.bridge.DeclReal(s)
	return s
}

// driftConclusion builds the Farkas conclusion row for O4 at priority
// index i: Σ_(p,u) p*V_i^{q'}(u(x)) <= V_i^q(x) - eps, moved to the
// Coeff.x <= RHS shape Generate expects.
func (b *builder) driftConclusion(q int64, i int, action reactive.ProbUpdate, eps string) (farkas.Row, error) {
	n := len(b.xVars)
	coeff := make([]algebra.LinExpr, n)
	for j := range coeff {
		coeff[j] = algebra.ConstInt(0)
	}
	offset := algebra.ConstInt(0)

	for _, branch := range action {
		qp, err := b.targetState(branch.U)
		if err != nil {
			return farkas.Row{}, err
		}
		vqp, ok := b.v[qp]
		if !ok {
			return farkas.Row{}, psmerr.New(psmerr.Structural, "command targets unknown DPA state %d", qp)
		}
		pc, po := vqp[i].pushThrough(branch.U)
		for j := range coeff {
			coeff[j] = coeff[j].Add(pc[j].Scale(branch.P))
		}
		offset = offset.Add(po.Scale(branch.P))
	}

	pre := b.v[q][i]
	for j, s := range pre.alpha {
		coeff[j] = coeff[j].Sub(algebra.Var(s))
	}
	rhs := algebra.Var(pre.beta).Sub(algebra.Var(eps)).Sub(offset)
	return farkas.Row{Coeff: coeff, RHS: rhs}, nil
}

// decode reads the solved model back into a Result.
func (b *builder) decode() *Result {
	model := b.bridge.Model()
	res := &Result{
		Invariant:      make(map[int64]Invariant),
		PSM:            make(map[int64][]LinearFunc),
		PriorityLevels: append([]int(nil), b.priorities...),
	}
	for _, q := range b.dpa.States() {
		res.Invariant[q] = decodeTemplate(model, b.xVars, b.inv[q])
		comps := make([]LinearFunc, len(b.priorities))
		for i, t := range b.v[q] {
			comps[i] = decodeTemplate(model, b.xVars, t)
		}
		res.PSM[q] = comps
	}
	return res
}

// InvariantSynthesisAndVerification is the engine's primary entry point:
// given a product module (already composed with its parity automaton, by
// reactive.Product or by hand) and the DPA that drives it, it synthesises
// a piecewise-linear inductive invariant and a lexicographic PSM tuple
// certifying the parity objective holds almost-surely, or returns an
// Unsatisfiable error naming the first obligation family that proved
// infeasible.
func InvariantSynthesisAndVerification(product reactive.Module, dpa reactive.DPA, opts Options) (*Result, error) {
	if product.QVar != dpa.QVar {
		return nil, psmerr.New(psmerr.Structural, "product module's QVar %q does not match the DPA's %q", product.QVar, dpa.QVar)
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	b := newBuilder(product, dpa)
	if opts.StrictEpsilon != nil {
		b.bridge.StrictEpsilon = opts.StrictEpsilon
	}

	b.addO1()
	if err := b.addO2(); err != nil {
		return nil, err
	}
	if err := b.addO3(); err != nil {
		return nil, err
	}

	// Staged check: O1-O3 alone first, so the diagnostic can name the
	// more specific of "invariant has no model at all" vs. "drift cannot
	// be ranked" without requiring the LP backend to produce an
	// unsatisfiable core.
	sat, err := b.bridge.Check()
	if err != nil {
		return nil, err
	}
	if !sat {
		return nil, psmerr.Unsat("O2/O3", "no invariant satisfies initial-set coverage and consecution in the chosen template")
	}

	if err := b.addO4O5(); err != nil {
		return nil, err
	}
	sat, err = b.bridge.Check()
	if err != nil {
		return nil, err
	}
	if !sat {
		return nil, psmerr.Unsat("O4", "no lexicographic PSM satisfies the drift obligation for the chosen invariant and templates")
	}

	return b.decode(), nil
}

// SynthesizeInvariantOnly solves O2+O3 alone -- the standalone
// reachability-invariant entry point for callers that want bounds on the
// reachable region without a termination certificate: the shared builder
// still allocates and declares PSM templates, but no obligation constrains
// them, and O1/O4/O5 are never emitted.
func SynthesizeInvariantOnly(product reactive.Module, dpa reactive.DPA) (map[int64]Invariant, error) {
	if product.QVar != dpa.QVar {
		return nil, psmerr.New(psmerr.Structural, "product module's QVar %q does not match the DPA's %q", product.QVar, dpa.QVar)
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	b := newBuilder(product, dpa)
	if err := b.addO2(); err != nil {
		return nil, err
	}
	if err := b.addO3(); err != nil {
		return nil, err
	}
	sat, err := b.bridge.Check()
	if err != nil {
		return nil, err
	}
	if !sat {
		return nil, psmerr.Unsat("O2/O3", "no invariant satisfies initial-set coverage and consecution in the chosen template")
	}
	model := b.bridge.Model()
	out := make(map[int64]Invariant, len(b.inv))
	for q, t := range b.inv {
		out[q] = decodeTemplate(model, b.xVars, t)
	}
	return out, nil
}
