// Package algebra is the symbolic algebra kernel: linear expressions over
// program variables, relational atoms normalised to L <= 0, boolean
// combinations in disjunctive normal form, and linear-function pairs (A, b)
// representing maps x -> Ax + b.
//
// All arithmetic is exact, using math/big.Rat coefficients: the Farkas
// argument the synthesiser rests on is over the rationals, and float64
// coefficients would not survive the repeated eliminations (see DESIGN.md).
package algebra

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/corvidlab/psmsynth/internal/util"
)

// LinExpr is a symbolic sum of a rational constant and rationally-scaled
// variables: const + sum(coeff_i * var_i). The zero value is the constant 0.
type LinExpr struct {
	coeffs map[string]*big.Rat
	k      *big.Rat
}

// Const returns the linear expression that is the constant c.
func Const(c *big.Rat) LinExpr {
	return LinExpr{k: new(big.Rat).Set(c)}
}

// ConstInt returns the linear expression that is the constant integer c.
func ConstInt(c int64) LinExpr {
	return Const(big.NewRat(c, 1))
}

// Var returns the linear expression that is exactly the variable named
// name (coefficient 1).
func Var(name string) LinExpr {
	return LinExpr{coeffs: map[string]*big.Rat{name: big.NewRat(1, 1)}}
}

// ScaledVar returns the linear expression coeff*name.
func ScaledVar(coeff *big.Rat, name string) LinExpr {
	if coeff.Sign() == 0 {
		return LinExpr{}
	}
	return LinExpr{coeffs: map[string]*big.Rat{name: new(big.Rat).Set(coeff)}}
}

func (e LinExpr) constant() *big.Rat {
	if e.k == nil {
		return new(big.Rat)
	}
	return e.k
}

// Coeff returns the coefficient of name in e (zero if name does not occur).
func (e LinExpr) Coeff(name string) *big.Rat {
	if c, ok := e.coeffs[name]; ok {
		return new(big.Rat).Set(c)
	}
	return new(big.Rat)
}

// Vars returns the names of all variables with a nonzero coefficient in e,
// sorted for deterministic iteration.
func (e LinExpr) Vars() []string {
	names := make([]string, 0, len(e.coeffs))
	for n := range e.coeffs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsConstant reports whether e has no variable terms.
func (e LinExpr) IsConstant() bool {
	return len(e.coeffs) == 0
}

// Add returns e + other.
func (e LinExpr) Add(other LinExpr) LinExpr {
	out := LinExpr{
		coeffs: make(map[string]*big.Rat, len(e.coeffs)+len(other.coeffs)),
		k:      new(big.Rat).Add(e.constant(), other.constant()),
	}
	for n, c := range e.coeffs {
		out.coeffs[n] = new(big.Rat).Set(c)
	}
	for n, c := range other.coeffs {
		if existing, ok := out.coeffs[n]; ok {
			existing.Add(existing, c)
		} else {
			out.coeffs[n] = new(big.Rat).Set(c)
		}
	}
	out.prune()
	return out
}

// Sub returns e - other.
func (e LinExpr) Sub(other LinExpr) LinExpr {
	return e.Add(other.Scale(big.NewRat(-1, 1)))
}

// Scale returns factor*e.
func (e LinExpr) Scale(factor *big.Rat) LinExpr {
	if factor.Sign() == 0 {
		return LinExpr{}
	}
	out := LinExpr{
		coeffs: make(map[string]*big.Rat, len(e.coeffs)),
		k:      new(big.Rat).Mul(e.constant(), factor),
	}
	for n, c := range e.coeffs {
		out.coeffs[n] = new(big.Rat).Mul(c, factor)
	}
	out.prune()
	return out
}

// Neg returns -e.
func (e LinExpr) Neg() LinExpr {
	return e.Scale(big.NewRat(-1, 1))
}

func (e *LinExpr) prune() {
	for n, c := range e.coeffs {
		if c.Sign() == 0 {
			delete(e.coeffs, n)
		}
	}
}

// Eval substitutes a concrete value for each variable and returns the
// resulting rational. Variables absent from assignment are treated as 0.
func (e LinExpr) Eval(assignment map[string]*big.Rat) *big.Rat {
	out := new(big.Rat).Set(e.constant())
	for n, c := range e.coeffs {
		v, ok := assignment[n]
		if !ok {
			continue
		}
		term := new(big.Rat).Mul(c, v)
		out.Add(out, term)
	}
	return out
}

// Row returns e's coefficients as a dense row over the ordered variable
// tuple vars (0 where a variable does not occur) together with the constant
// term.
func (e LinExpr) Row(vars []string) ([]*big.Rat, *big.Rat) {
	row := make([]*big.Rat, len(vars))
	for i, v := range vars {
		row[i] = e.Coeff(v)
	}
	return row, e.constant()
}

// String renders e in a stable, human readable form, e.g. "2*x - 1/3*y + 4".
func (e LinExpr) String() string {
	names := e.Vars()
	var parts []string
	for _, n := range names {
		c := e.coeffs[n]
		sign := "+"
		mag := c
		if c.Sign() < 0 {
			sign = "-"
			mag = new(big.Rat).Neg(c)
		}
		if len(parts) == 0 && sign == "+" {
			parts = append(parts, fmt.Sprintf("%s*%s", mag.RatString(), n))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s*%s", sign, mag.RatString(), n))
		}
	}
	if e.constant().Sign() != 0 || len(parts) == 0 {
		c := e.constant()
		sign := "+"
		mag := c
		if c.Sign() < 0 {
			sign = "-"
			mag = new(big.Rat).Neg(c)
		}
		if len(parts) == 0 && sign == "+" {
			parts = append(parts, mag.RatString())
		} else {
			parts = append(parts, fmt.Sprintf("%s %s", sign, mag.RatString()))
		}
	}
	return strings.Join(parts, " ")
}

// VarSet returns the variables referenced by e as a util.StringSet.
func (e LinExpr) VarSet() util.StringSet {
	return util.StringSetOf(e.Vars())
}
