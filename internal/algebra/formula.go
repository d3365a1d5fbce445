package algebra

import (
	"sort"
	"strings"
)

// FormulaKind identifies which case of the Formula tagged sum a value
// holds, as reported by Formula.Kind().
type FormulaKind int

const (
	kTrue FormulaKind = iota
	kFalse
	kAtom
	kAnd
	kOr
)

// Formula is a boolean combination of atoms, represented as the tagged sum
// True | False | Atom(rel) | And(children) | Or(children). It is built up
// freely and converted to disjunctive normal form on demand by ToDNF.
type Formula struct {
	kind     FormulaKind
	atom     Atom
	children []Formula
}

// True is the formula that is trivially satisfied.
func True() Formula { return Formula{kind: kTrue} }

// False is the formula that is never satisfied.
func False() Formula { return Formula{kind: kFalse} }

// Atomic lifts a single atom into a Formula.
func Atomic(a Atom) Formula { return Formula{kind: kAtom, atom: a} }

// And returns the conjunction of the given formulas. A nested And is not
// auto-flattened here; use Flatten for that.
func And(fs ...Formula) Formula { return Formula{kind: kAnd, children: fs} }

// Or returns the disjunction of the given formulas.
func Or(fs ...Formula) Formula { return Formula{kind: kOr, children: fs} }

// Kind returns which case of the tagged sum f is.
func (f Formula) Kind() FormulaKind { return f.kind }

// AsAtom returns f's atom. Panics if Kind() is not kAtom.
func (f Formula) AsAtom() Atom {
	if f.kind != kAtom {
		panic("algebra: Formula.AsAtom called on non-atom formula")
	}
	return f.atom
}

// Children returns the operands of an And or Or formula. Panics if Kind()
// is neither kAnd nor kOr.
func (f Formula) Children() []Formula {
	if f.kind != kAnd && f.kind != kOr {
		panic("algebra: Formula.Children called on a formula with no children")
	}
	return f.children
}

// Flatten recursively merges nested And-of-And and Or-of-Or nodes into a
// single flat node of the same kind, leaving True/False/Atom untouched.
func (f Formula) Flatten() Formula {
	switch f.kind {
	case kAnd:
		return Formula{kind: kAnd, children: flattenChildren(f.children, kAnd)}
	case kOr:
		return Formula{kind: kOr, children: flattenChildren(f.children, kOr)}
	default:
		return f
	}
}

func flattenChildren(children []Formula, kind FormulaKind) []Formula {
	var out []Formula
	for _, c := range children {
		c = c.Flatten()
		if c.kind == kind {
			out = append(out, c.children...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// ToDNF rewrites f into disjunctive normal form: a disjunction of
// conjunctions of atoms (or True/False). Distribution of And over Or is
// applied exhaustively.
func (f Formula) ToDNF() Formula {
	f = f.Flatten()
	switch f.kind {
	case kTrue, kFalse, kAtom:
		return f
	case kOr:
		disjuncts := make([]Formula, 0, len(f.children))
		for _, c := range f.children {
			disjuncts = append(disjuncts, c.ToDNF())
		}
		return Or(disjuncts...).Flatten()
	case kAnd:
		// Convert each child to DNF, then distribute the cartesian product
		// of their disjuncts.
		conjunctSets := make([][]Formula, 0, len(f.children))
		for _, c := range f.children {
			dnf := c.ToDNF()
			conjunctSets = append(conjunctSets, ParseDisjunction(dnf))
		}
		products := cartesianConjuncts(conjunctSets)
		disjuncts := make([]Formula, 0, len(products))
		for _, p := range products {
			disjuncts = append(disjuncts, And(p...).Flatten())
		}
		return Or(disjuncts...).Flatten()
	default:
		panic("algebra: unreachable formula kind")
	}
}

func cartesianConjuncts(sets [][]Formula) [][]Formula {
	if len(sets) == 0 {
		return [][]Formula{nil}
	}
	rest := cartesianConjuncts(sets[1:])
	var out [][]Formula
	for _, f := range sets[0] {
		for _, r := range rest {
			combo := make([]Formula, 0, len(ParseConjunction(f))+len(r))
			combo = append(combo, ParseConjunction(f)...)
			combo = append(combo, r...)
			out = append(out, combo)
		}
	}
	return out
}

// ParseDisjunction returns the top-level disjuncts of f. An atomic or
// conjunctive formula is treated as a singleton disjunction.
func ParseDisjunction(f Formula) []Formula {
	switch f.kind {
	case kOr:
		return f.children
	default:
		return []Formula{f}
	}
}

// ParseConjunction returns the atoms of a single conjunct. An atomic
// formula is treated as a singleton conjunction; True is the empty
// conjunction.
func ParseConjunction(f Formula) []Formula {
	switch f.kind {
	case kAnd:
		return f.children
	case kTrue:
		return nil
	default:
		return []Formula{f}
	}
}

// Conjuncts returns f (which must already be in DNF) as a slice of atom
// slices, one per disjunct, discarding True/False bookkeeping nodes.
// Disjuncts that reduce to False are dropped; a disjunct that is entirely
// True becomes an empty atom slice.
func (f Formula) Conjuncts() [][]Atom {
	var out [][]Atom
	for _, disj := range ParseDisjunction(f) {
		if disj.kind == kFalse {
			continue
		}
		var atoms []Atom
		ok := true
		for _, c := range ParseConjunction(disj) {
			switch c.kind {
			case kAtom:
				atoms = append(atoms, c.atom)
			case kTrue:
				// contributes nothing
			case kFalse:
				ok = false
			default:
				panic("algebra: Conjuncts called on a formula not in DNF")
			}
			if !ok {
				break
			}
		}
		if ok {
			out = append(out, atoms)
		}
	}
	return out
}

// Negate returns the logical negation of f, pushing negation to the leaves
// (De Morgan) so the result stays in the same tagged-sum shape; it does not
// itself produce DNF (call ToDNF on the result if needed).
func (f Formula) Negate() Formula {
	switch f.kind {
	case kTrue:
		return False()
	case kFalse:
		return True()
	case kAtom:
		return Atomic(f.atom.Negate())
	case kAnd:
		neg := make([]Formula, len(f.children))
		for i, c := range f.children {
			neg[i] = c.Negate()
		}
		return Or(neg...)
	case kOr:
		neg := make([]Formula, len(f.children))
		for i, c := range f.children {
			neg[i] = c.Negate()
		}
		return And(neg...)
	default:
		panic("algebra: unreachable formula kind")
	}
}

// VarSet returns the set of variable names referenced anywhere in f.
func (f Formula) VarSet() map[string]bool {
	out := make(map[string]bool)
	var walk func(Formula)
	walk = func(g Formula) {
		switch g.kind {
		case kAtom:
			for _, v := range g.atom.L.Vars() {
				out[v] = true
			}
		case kAnd, kOr:
			for _, c := range g.children {
				walk(c)
			}
		}
	}
	walk(f)
	return out
}

// String renders f for diagnostics. Disjuncts are separated by " | " and
// conjuncts within a disjunct by " & ".
func (f Formula) String() string {
	switch f.kind {
	case kTrue:
		return "true"
	case kFalse:
		return "false"
	case kAtom:
		return f.atom.String()
	case kAnd:
		parts := make([]string, len(f.children))
		for i, c := range f.children {
			parts[i] = c.String()
		}
		sort.Strings(parts)
		return "(" + strings.Join(parts, " & ") + ")"
	case kOr:
		parts := make([]string, len(f.children))
		for i, c := range f.children {
			parts[i] = c.String()
		}
		sort.Strings(parts)
		return "(" + strings.Join(parts, " | ") + ")"
	default:
		return "?"
	}
}
