package algebra

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/corvidlab/psmsynth/internal/psmerr"
)

// This is a small hand-written scanner/parser for writing guards and updates
// as strings in tests and example drivers -- e.g. "c > 0 & p = 1" or
// "c - 1" -- instead of building LinExpr/Formula values by hand. It is a
// single-pass, rule-ordered tokenizer feeding a recursive-descent parser,
// scoped to the arithmetic-and-relational fragment this package needs; it
// is not a general expression language and has no variables/functions of
// its own beyond the program variables named at parse time.

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokLParen
	tokRParen
	tokLe
	tokLt
	tokGe
	tokGt
	tokEq
	tokNe
	tokAnd
	tokOr
	tokNot
)

type tok struct {
	kind tokKind
	text string
}

type scanner struct {
	toks []tok
	pos  int
}

func tokenize(s string) (*scanner, error) {
	var toks []tok
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+':
			toks = append(toks, tok{tokPlus, "+"})
			i++
		case r == '-':
			toks = append(toks, tok{tokMinus, "-"})
			i++
		case r == '*':
			toks = append(toks, tok{tokStar, "*"})
			i++
		case r == '(':
			toks = append(toks, tok{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, tok{tokRParen, ")"})
			i++
		case r == '&':
			toks = append(toks, tok{tokAnd, "&"})
			i++
		case r == '|':
			toks = append(toks, tok{tokOr, "|"})
			i++
		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, tok{tokNe, "!="})
				i += 2
			} else {
				toks = append(toks, tok{tokNot, "!"})
				i++
			}
		case r == '=':
			toks = append(toks, tok{tokEq, "="})
			i++
		case r == '<':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, tok{tokLe, "<="})
				i += 2
			} else {
				toks = append(toks, tok{tokLt, "<"})
				i++
			}
		case r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, tok{tokGe, ">="})
				i += 2
			} else {
				toks = append(toks, tok{tokGt, ">"})
				i++
			}
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == '/') {
				i++
			}
			toks = append(toks, tok{tokNum, string(runes[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, tok{tokIdent, string(runes[start:i])})
		default:
			return nil, psmerr.New(psmerr.Syntax, "unexpected character %q at position %d", r, i)
		}
	}
	toks = append(toks, tok{tokEOF, ""})
	return &scanner{toks: toks}, nil
}

func (s *scanner) peek() tok  { return s.toks[s.pos] }
func (s *scanner) next() tok  { t := s.toks[s.pos]; s.pos++; return t }
func (s *scanner) atEOF() bool { return s.peek().kind == tokEOF }

// ParseLinExpr parses s as a linear expression over +, -, *, parens,
// integer/decimal/rational numeric literals, and bare variable names (every
// identifier not itself a number is treated as a variable, with any
// coefficient-is-always-a-number restriction of a real CAS not enforced --
// this is a convenience scanner, not a general-purpose parser).
func ParseLinExpr(s string) (LinExpr, error) {
	sc, err := tokenize(s)
	if err != nil {
		return LinExpr{}, err
	}
	e, err := parseExpr(sc)
	if err != nil {
		return LinExpr{}, err
	}
	if !sc.atEOF() {
		return LinExpr{}, psmerr.New(psmerr.Syntax, "unexpected trailing input %q", sc.peek().text)
	}
	return e, nil
}

// MustParseLinExpr is ParseLinExpr but panics on error, for use in tests and
// example drivers with literal, known-good expressions.
func MustParseLinExpr(s string) LinExpr {
	e, err := ParseLinExpr(s)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseFormula parses s as a boolean combination (&, |, !, parens) of
// relational atoms (<, <=, >, >=, =, !=) between linear expressions.
func ParseFormula(s string) (Formula, error) {
	sc, err := tokenize(s)
	if err != nil {
		return Formula{}, err
	}
	f, err := parseOr(sc)
	if err != nil {
		return Formula{}, err
	}
	if !sc.atEOF() {
		return Formula{}, psmerr.New(psmerr.Syntax, "unexpected trailing input %q", sc.peek().text)
	}
	return f, nil
}

// MustParseFormula is ParseFormula but panics on error, for use in tests and
// example drivers with literal, known-good guards.
func MustParseFormula(s string) Formula {
	f, err := ParseFormula(s)
	if err != nil {
		panic(err)
	}
	return f
}

func parseOr(sc *scanner) (Formula, error) {
	left, err := parseAnd(sc)
	if err != nil {
		return Formula{}, err
	}
	for sc.peek().kind == tokOr {
		sc.next()
		right, err := parseAnd(sc)
		if err != nil {
			return Formula{}, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func parseAnd(sc *scanner) (Formula, error) {
	left, err := parseUnary(sc)
	if err != nil {
		return Formula{}, err
	}
	for sc.peek().kind == tokAnd {
		sc.next()
		right, err := parseUnary(sc)
		if err != nil {
			return Formula{}, err
		}
		left = And(left, right)
	}
	return left, nil
}

func parseUnary(sc *scanner) (Formula, error) {
	if sc.peek().kind == tokNot {
		sc.next()
		f, err := parseUnary(sc)
		if err != nil {
			return Formula{}, err
		}
		return f.Negate(), nil
	}
	return parseFormulaAtom(sc)
}

func parseFormulaAtom(sc *scanner) (Formula, error) {
	if sc.peek().kind == tokLParen {
		sc.next()
		f, err := parseOr(sc)
		if err != nil {
			return Formula{}, err
		}
		if sc.peek().kind != tokRParen {
			return Formula{}, psmerr.New(psmerr.Syntax, "expected ')'")
		}
		sc.next()
		return f, nil
	}
	return parseRelational(sc)
}

func parseRelational(sc *scanner) (Formula, error) {
	lhs, err := parseExpr(sc)
	if err != nil {
		return Formula{}, err
	}
	rel, ok := relFor(sc.peek().kind)
	if !ok {
		return Formula{}, psmerr.New(psmerr.Syntax, "expected a relational operator, got %q", sc.peek().text)
	}
	sc.next()
	rhs, err := parseExpr(sc)
	if err != nil {
		return Formula{}, err
	}
	if rel == Ne {
		return NotEqualAsDisjunction(lhs, rhs), nil
	}
	atoms, err := Normalize(NewRelational(lhs, rel, rhs))
	if err != nil {
		return Formula{}, err
	}
	fs := make([]Formula, len(atoms))
	for i, a := range atoms {
		fs[i] = Atomic(a)
	}
	if len(fs) == 1 {
		return fs[0], nil
	}
	return And(fs...), nil
}

func relFor(k tokKind) (Rel, bool) {
	switch k {
	case tokLt:
		return Lt, true
	case tokLe:
		return Le, true
	case tokGt:
		return Gt, true
	case tokGe:
		return Ge, true
	case tokEq:
		return Eq, true
	case tokNe:
		return Ne, true
	default:
		return 0, false
	}
}

func parseExpr(sc *scanner) (LinExpr, error) {
	left, err := parseTerm(sc)
	if err != nil {
		return LinExpr{}, err
	}
	for sc.peek().kind == tokPlus || sc.peek().kind == tokMinus {
		op := sc.next()
		right, err := parseTerm(sc)
		if err != nil {
			return LinExpr{}, err
		}
		if op.kind == tokPlus {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
	return left, nil
}

func parseTerm(sc *scanner) (LinExpr, error) {
	left, err := parseUnaryExpr(sc)
	if err != nil {
		return LinExpr{}, err
	}
	for sc.peek().kind == tokStar {
		sc.next()
		right, err := parseUnaryExpr(sc)
		if err != nil {
			return LinExpr{}, err
		}
		left, err = multiplyLinear(left, right)
		if err != nil {
			return LinExpr{}, err
		}
	}
	return left, nil
}

func parseUnaryExpr(sc *scanner) (LinExpr, error) {
	if sc.peek().kind == tokMinus {
		sc.next()
		e, err := parseUnaryExpr(sc)
		if err != nil {
			return LinExpr{}, err
		}
		return e.Neg(), nil
	}
	if sc.peek().kind == tokPlus {
		sc.next()
		return parseUnaryExpr(sc)
	}
	return parsePrimary(sc)
}

func parsePrimary(sc *scanner) (LinExpr, error) {
	t := sc.peek()
	switch t.kind {
	case tokNum:
		sc.next()
		return parseNumber(t.text)
	case tokIdent:
		sc.next()
		return Var(t.text), nil
	case tokLParen:
		sc.next()
		e, err := parseExpr(sc)
		if err != nil {
			return LinExpr{}, err
		}
		if sc.peek().kind != tokRParen {
			return LinExpr{}, psmerr.New(psmerr.Syntax, "expected ')'")
		}
		sc.next()
		return e, nil
	default:
		return LinExpr{}, psmerr.New(psmerr.Syntax, "expected a number, variable, or '(', got %q", t.text)
	}
}

func parseNumber(s string) (LinExpr, error) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		numR, ok1 := new(big.Rat).SetString(s[:i])
		denR, ok2 := new(big.Rat).SetString(s[i+1:])
		if !ok1 || !ok2 || denR.Sign() == 0 {
			return LinExpr{}, psmerr.New(psmerr.Syntax, "invalid rational literal %q", s)
		}
		return Const(new(big.Rat).Mul(numR, new(big.Rat).Inv(denR))), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return LinExpr{}, psmerr.New(psmerr.Syntax, "invalid numeric literal %q", s)
	}
	return Const(r), nil
}

// multiplyLinear multiplies two linear expressions, only one of which may
// carry variable terms (this scanner's fragment has no quadratic terms, same
// restriction component A enforces everywhere else).
func multiplyLinear(a, b LinExpr) (LinExpr, error) {
	if a.IsConstant() {
		return b.Scale(a.constant()), nil
	}
	if b.IsConstant() {
		return a.Scale(b.constant()), nil
	}
	return LinExpr{}, psmerr.New(psmerr.Algebra, "nonlinear product of two variable expressions is not supported")
}
