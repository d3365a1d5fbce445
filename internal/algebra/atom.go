package algebra

import (
	"fmt"

	"github.com/corvidlab/psmsynth/internal/psmerr"
)

// Rel is a relational operator over two linear expressions.
type Rel int

const (
	Lt Rel = iota
	Le
	Gt
	Ge
	Eq
	Ne
)

func (r Rel) String() string {
	switch r {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Eq:
		return "="
	case Ne:
		return "!="
	default:
		return fmt.Sprintf("Rel(%d)", int(r))
	}
}

// Negate returns the relational operator for the logical negation of r
// under the closed world of strict/non-strict orderings: < <-> >=, <= <->
// >, = <-> !=.
func (r Rel) Negate() Rel {
	switch r {
	case Lt:
		return Ge
	case Le:
		return Gt
	case Gt:
		return Le
	case Ge:
		return Lt
	case Eq:
		return Ne
	case Ne:
		return Eq
	default:
		panic(fmt.Sprintf("algebra: invalid Rel %d", int(r)))
	}
}

// Relational is a single relational constraint lhs `rel` rhs before
// normalisation, e.g. "2*x + 1 <= y".
type Relational struct {
	Lhs LinExpr
	Rel Rel
	Rhs LinExpr
}

// NewRelational builds a Relational from a left and right hand side linear
// expression and a relational operator.
func NewRelational(lhs LinExpr, rel Rel, rhs LinExpr) Relational {
	return Relational{Lhs: lhs, Rel: rel, Rhs: rhs}
}

// Atom is a normalised relational constraint: L <= 0, or L < 0 when Strict
// is set. Atom is the sole primitive relation the rest of the kernel (and
// the SMT bridge) operates on; every DNF formula bottoms out in atoms.
type Atom struct {
	L      LinExpr
	Strict bool
}

// LE0 returns the non-strict atom expr <= 0.
func LE0(expr LinExpr) Atom {
	return Atom{L: expr}
}

// LT0 returns the strict atom expr < 0.
func LT0(expr LinExpr) Atom {
	return Atom{L: expr, Strict: true}
}

// Normalize converts a Relational into one or two atoms of the form L <= 0
// (or L < 0 for strict operators). Equality yields two non-strict atoms
// (L <= 0 and -L <= 0); disequality is rejected (E2) except where the
// caller has already expanded it into a disjunction, see
// NotEqualAsDisjunction.
func Normalize(r Relational) ([]Atom, error) {
	diff := r.Lhs.Sub(r.Rhs)
	switch r.Rel {
	case Le:
		return []Atom{LE0(diff)}, nil
	case Lt:
		return []Atom{LT0(diff)}, nil
	case Ge:
		return []Atom{LE0(diff.Neg())}, nil
	case Gt:
		return []Atom{LT0(diff.Neg())}, nil
	case Eq:
		return []Atom{LE0(diff), LE0(diff.Neg())}, nil
	case Ne:
		return nil, psmerr.New(psmerr.Algebra,
			"disequality %s != %s cannot be normalised to a single conjunct; expand to a disjunction first",
			r.Lhs, r.Rhs)
	default:
		return nil, psmerr.New(psmerr.Algebra, "unsupported relational operator %v", r.Rel)
	}
}

// NotEqualAsDisjunction expands lhs != rhs into the disjunction of its two
// strict halves: lhs < rhs or lhs > rhs. This is the only place disequality
// is admitted -- the DPA guard builder expands it into a disjunction here;
// everywhere else a bare Ne reaching Normalize is an algebra error.
func NotEqualAsDisjunction(lhs, rhs LinExpr) Formula {
	diff := lhs.Sub(rhs)
	lt := Atomic(LT0(diff))
	gt := Atomic(LT0(diff.Neg()))
	return Or(lt, gt)
}

// Negate returns the atom for the logical negation of a, preserving the
// closed strict/non-strict convention (<=0 negates to >0, i.e. -a<0; <0
// negates to >=0, i.e. -a<=0).
func (a Atom) Negate() Atom {
	return Atom{L: a.L.Neg(), Strict: !a.Strict}
}

func (a Atom) String() string {
	if a.Strict {
		return fmt.Sprintf("%s < 0", a.L)
	}
	return fmt.Sprintf("%s <= 0", a.L)
}
