package psm

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/corvidlab/psmsynth/internal/smt"
)

// LinearFunc is a decoded linear function alpha.x + beta over the ordered
// variable tuple it was templated against.
type LinearFunc struct {
	Vars  []string
	Alpha map[string]*big.Rat
	Beta  *big.Rat
}

// Eval evaluates the function at a concrete point (missing variables
// treated as 0).
func (f LinearFunc) Eval(point map[string]*big.Rat) *big.Rat {
	out := new(big.Rat).Set(f.Beta)
	for v, c := range f.Alpha {
		if x, ok := point[v]; ok {
			out.Add(out, new(big.Rat).Mul(c, x))
		}
	}
	return out
}

func (f LinearFunc) String() string {
	names := make([]string, 0, len(f.Alpha))
	for v := range f.Alpha {
		names = append(names, v)
	}
	sort.Strings(names)
	var parts []string
	for _, v := range names {
		c := f.Alpha[v]
		if c.Sign() != 0 {
			parts = append(parts, fmt.Sprintf("%s*%s", c.RatString(), v))
		}
	}
	parts = append(parts, f.Beta.RatString())
	return strings.Join(parts, " + ")
}

// Invariant is a decoded linear invariant gamma.x + delta <= 0.
type Invariant = LinearFunc

// Result is the decoded output of a successful synthesis call: a
// lexicographic PSM tuple and an invariant, each indexed by DPA state.
type Result struct {
	// Invariant maps a DPA state to its invariant I^q.
	Invariant map[int64]Invariant

	// PSM maps a DPA state to its lexicographic tuple (V_0^q, ..., V_{m-1}^q),
	// indexed by priority rank (position in the DPA's ascending distinct
	// priority-value list, the S_0, S_1, ... ordering), not by the raw
	// priority number.
	PSM map[int64][]LinearFunc

	// PriorityLevels are the DPA's distinct priority values in the order
	// used to index PSM, so callers can map a PSM slot back to the
	// priority value it certifies.
	PriorityLevels []int
}

func decodeTemplate(model *smt.Model, xVars []string, t funcTemplate) LinearFunc {
	lf := LinearFunc{Vars: append([]string(nil), xVars...), Alpha: make(map[string]*big.Rat, len(xVars))}
	for j, v := range xVars {
		val := model.Value(t.alpha[j])
		if val == nil {
			val = new(big.Rat)
		}
		lf.Alpha[v] = val
	}
	beta := model.Value(t.beta)
	if beta == nil {
		beta = new(big.Rat)
	}
	lf.Beta = beta
	return lf
}
