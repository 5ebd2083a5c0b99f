// Package symbolic is an exact symbolic kernel for matrix functions of one
// real variable.
//
// Values live in the field of rational functions over
//
//	Q[symbols, sin(x), cos(x), sqrt(p)] / (sin(x)² + cos(x)² − 1, sqrt(p)² − p)
//
// Numerators are kept in a canonical normal form, so IsZero and Equal are
// exact, and denominators are tracked as a product of monic factors so that
// sums use a factor-wise least common multiple. Square roots of distinct
// normalised radicands are independent generators; see SqrtOf.
package symbolic

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ============================================================
// Expr — rational function
// ============================================================

type factor struct {
	p   Poly
	key string
	e   int
}

func newFactor(p Poly, e int) factor { return factor{p: p, key: p.String(), e: e} }

// Expr is num / ∏ den[i].p^den[i].e. Every den polynomial is monic,
// non-constant and reduced; sqrt generators never appear as a bare factor.
// An Expr is immutable.
type Expr struct {
	num Poly
	den []factor
}

var zero = &Expr{}

func fromPoly(p Poly) *Expr { return &Expr{num: p} }

// N returns the integer n.
func N(n int64) *Expr { return fromPoly(constPoly(big.NewRat(n, 1))) }

// F returns the rational p/q.
func F(p, q int64) *Expr {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return fromPoly(constPoly(big.NewRat(p, q)))
}

// R returns the rational r.
func R(r *big.Rat) *Expr { return fromPoly(constPoly(r)) }

// S returns the symbol name.
func S(name string) *Expr {
	if !validName(name) {
		panic(fmt.Sprintf("symbolic: invalid symbol name %q", name))
	}
	return fromPoly(genPoly(symGen(name)))
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// SinOf returns sin(x). x must be a bare symbol.
func SinOf(x *Expr) *Expr {
	return fromPoly(genPoly(sinGen(mustSymbol(x, "sin"))))
}

// CosOf returns cos(x). x must be a bare symbol.
func CosOf(x *Expr) *Expr {
	return fromPoly(genPoly(cosGen(mustSymbol(x, "cos"))))
}

// SqrtOf returns the principal square root of the polynomial x.
//
// The radicand is normalised first: its positive rational content a is
// taken out, a is split into an integer square and distinct primes, and
// the rest keeps a leading coefficient of ±1. So sqrt(4t²+4) is
// 2*sqrt(t^2 + 1) and sqrt(12) is 2*sqrt(3). A radicand in plain symbols
// with a square factor h² panics, since its root is |h|.
func SqrtOf(x *Expr) *Expr {
	if len(x.den) != 0 {
		panic("symbolic: sqrt radicand must be a polynomial")
	}
	if x.IsZero() {
		return zero
	}
	a := new(big.Rat).Abs(x.num.lead().c)
	q := x.num.scale(new(big.Rat).Inv(a))
	out := sqrtRat(a)
	if c, ok := q.constant(); ok {
		if c.Sign() < 0 {
			panic(fmt.Sprintf("symbolic: sqrt of negative constant %s", x))
		}
		return out
	}
	if h, ok := q.squareFactor(); ok {
		panic(fmt.Sprintf("symbolic: sqrt radicand %s has the square factor (%s)^2", x, h))
	}
	return out.Mul(fromPoly(genPoly(sqrtGen(q))))
}

// sqrtRat returns sqrt(a) for a > 0 as s·∏sqrt(p) with distinct primes p.
func sqrtRat(a *big.Rat) *Expr {
	nd := new(big.Int).Mul(a.Num(), a.Denom())
	s, ps := splitSquares(nd)
	out := R(new(big.Rat).SetFrac(s, a.Denom()))
	for _, p := range ps {
		out = out.Mul(fromPoly(genPoly(sqrtGen(constPoly(new(big.Rat).SetInt(p))))))
	}
	return out
}

// trialLimit bounds the trial division in splitSquares. A cofactor left
// over past it is kept whole unless it is a perfect square.
const trialLimit = 1 << 16

// splitSquares writes n > 0 as s²·∏ps with ps distinct and increasing.
func splitSquares(n *big.Int) (*big.Int, []*big.Int) {
	s := big.NewInt(1)
	var ps []*big.Int
	v := new(big.Int).Set(n)
	one := big.NewInt(1)
	p := big.NewInt(2)
	pp, q, r := new(big.Int), new(big.Int), new(big.Int)
	for i := 0; i < trialLimit && pp.Mul(p, p).Cmp(v) <= 0; i++ {
		e := 0
		for {
			q.QuoRem(v, p, r)
			if r.Sign() != 0 {
				break
			}
			v.Set(q)
			e++
		}
		for ; e >= 2; e -= 2 {
			s.Mul(s, p)
		}
		if e == 1 {
			ps = append(ps, new(big.Int).Set(p))
		}
		p.Add(p, one)
	}
	if v.Cmp(one) > 0 {
		if root := new(big.Int).Sqrt(v); new(big.Int).Mul(root, root).Cmp(v) == 0 {
			s.Mul(s, root)
		} else {
			ps = append(ps, v)
		}
	}
	return s, ps
}

func mustSymbol(x *Expr, fn string) string {
	name, ok := x.symbolName()
	if !ok {
		panic(fmt.Sprintf("symbolic: %s argument must be a symbol, got %s", fn, x))
	}
	return name
}

func (a *Expr) symbolName() (string, bool) {
	if len(a.den) != 0 || len(a.num.terms) != 1 {
		return "", false
	}
	t := a.num.terms[0]
	if len(t.m) != 1 || t.m[0].e != 1 || t.m[0].g.kind != genSym || t.c.Cmp(big.NewRat(1, 1)) != 0 {
		return "", false
	}
	return t.m[0].g.name, true
}

// AddOf sums its arguments.
func AddOf(xs ...*Expr) *Expr {
	out := zero
	for _, x := range xs {
		out = out.Add(x)
	}
	return out
}

// MulOf multiplies its arguments.
func MulOf(xs ...*Expr) *Expr {
	out := N(1)
	for _, x := range xs {
		out = out.Mul(x)
	}
	return out
}

// PowOf returns x^n for any integer n.
func PowOf(x *Expr, n int) *Expr { return x.Pow(n) }

// ============================================================
// Denominator bookkeeping
// ============================================================

// mergeDen combines two factor lists by key; absent factors count as 0.
func mergeDen(a, b []factor, combine func(x, y int) int) []factor {
	out := make([]factor, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i].key < b[j].key):
			if e := combine(a[i].e, 0); e > 0 {
				out = append(out, factor{p: a[i].p, key: a[i].key, e: e})
			}
			i++
		case i == len(a) || b[j].key < a[i].key:
			if e := combine(0, b[j].e); e > 0 {
				out = append(out, factor{p: b[j].p, key: b[j].key, e: e})
			}
			j++
		default:
			if e := combine(a[i].e, b[j].e); e > 0 {
				out = append(out, factor{p: a[i].p, key: a[i].key, e: e})
			}
			i++
			j++
		}
	}
	return out
}

func sumExp(x, y int) int  { return x + y }
func diffExp(x, y int) int { return x - y }
func maxExp(x, y int) int  { return max(x, y) }

func expand(den []factor) Poly {
	out := onePoly
	for _, f := range den {
		out = out.mul(f.p.pow(f.e))
	}
	return out
}

// invertPoly writes 1/p as num/∏den with monic factors. Square roots in the
// monomial content are rationalised: 1/sqrt(q) = sqrt(q)/q.
func invertPoly(p Poly) (Poly, []factor) {
	m := p.content()
	r := p.divMono(m)
	c := new(big.Rat).Inv(r.lead().c)
	r = r.scale(c)
	num := constPoly(c)
	var den []factor
	for _, pw := range m {
		if pw.g.kind == genSqrt {
			qn, qd := invertPoly(pw.g.rad)
			num = num.mul(genPoly(pw.g).pow(pw.e)).mul(qn.pow(pw.e))
			for _, f := range qd {
				den = mergeDen(den, []factor{{p: f.p, key: f.key, e: f.e * pw.e}}, sumExp)
			}
			continue
		}
		den = mergeDen(den, []factor{newFactor(genPoly(pw.g), pw.e)}, sumExp)
	}
	if !r.isOne() {
		den = mergeDen(den, []factor{newFactor(r, 1)}, sumExp)
	}
	return num, den
}

// normalize cancels every denominator factor that divides the numerator.
func normalize(num Poly, den []factor) *Expr {
	if num.isZero() {
		return zero
	}
	out := make([]factor, 0, len(den))
	for _, f := range den {
		e := f.e
		for e > 0 {
			q, ok := num.divExact(f.p)
			if !ok {
				break
			}
			num = q.reduce()
			e--
		}
		if e > 0 {
			out = append(out, factor{p: f.p, key: f.key, e: e})
		}
	}
	return &Expr{num: num, den: out}
}

// ============================================================
// Arithmetic
// ============================================================

func (a *Expr) IsZero() bool { return a.num.isZero() }

func (a *Expr) Add(b *Expr) *Expr {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	}
	l := mergeDen(a.den, b.den, maxExp)
	na := a.num.mul(expand(mergeDen(l, a.den, diffExp)))
	nb := b.num.mul(expand(mergeDen(l, b.den, diffExp)))
	return normalize(na.add(nb), l)
}

func (a *Expr) Neg() *Expr {
	if a.IsZero() {
		return zero
	}
	return &Expr{num: a.num.neg(), den: a.den}
}

func (a *Expr) Sub(b *Expr) *Expr { return a.Add(b.Neg()) }

func (a *Expr) Mul(b *Expr) *Expr {
	if a.IsZero() || b.IsZero() {
		return zero
	}
	return normalize(a.num.mul(b.num), mergeDen(a.den, b.den, sumExp))
}

// Inv returns 1/a. It panics when a is zero.
func (a *Expr) Inv() *Expr {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	num, den := invertPoly(a.num)
	return normalize(num.mul(expand(a.den)), den)
}

func (a *Expr) Div(b *Expr) *Expr { return a.Mul(b.Inv()) }

func (a *Expr) Pow(n int) *Expr {
	if n < 0 {
		return a.Inv().Pow(-n)
	}
	out := N(1)
	for i := 0; i < n; i++ {
		out = out.Mul(a)
	}
	return out
}

// Equal reports whether a and b are the same function.
func (a *Expr) Equal(b *Expr) bool { return a.Sub(b).IsZero() }

// Simplify cancels the whole denominator when its expanded normal form
// divides the numerator, which also collapses constants such as
// (1 − cos²t)/sin²t to 1.
func (a *Expr) Simplify() *Expr {
	if len(a.den) == 0 {
		return a
	}
	if q, ok := a.num.divExact(expand(a.den)); ok {
		return fromPoly(q.reduce())
	}
	return a
}

// Rat returns the value of a when it is a rational constant.
func (a *Expr) Rat() (*big.Rat, bool) {
	s := a.Simplify()
	if len(s.den) != 0 {
		return nil, false
	}
	return s.num.constant()
}

// Int returns the value of a when it is literally an integer constant.
func (a *Expr) Int() (int64, bool) {
	r, ok := a.Rat()
	if !ok || !r.IsInt() || !r.Num().IsInt64() {
		return 0, false
	}
	return r.Num().Int64(), true
}

// size is a rough measure of expression complexity used for pivoting.
func (a *Expr) size() int {
	n := a.num.size()
	for _, f := range a.den {
		n += f.p.size() * f.e
	}
	return n
}

// ============================================================
// Calculus
// ============================================================

func (g *gen) diff(v string) *Expr {
	switch g.kind {
	case genSym:
		if g.name == v {
			return N(1)
		}
	case genSin:
		if g.name == v {
			return fromPoly(genPoly(cosGen(g.name)))
		}
	case genCos:
		if g.name == v {
			return fromPoly(genPoly(sinGen(g.name))).Neg()
		}
	case genSqrt:
		// (sqrt q)' = q' sqrt(q) / (2q)
		dq := diffPoly(g.rad, v)
		if dq.IsZero() {
			return zero
		}
		return dq.Mul(fromPoly(genPoly(g))).Mul(F(1, 2)).Mul(fromPoly(g.rad).Inv())
	}
	return zero
}

func diffPoly(p Poly, v string) *Expr {
	out := zero
	for _, t := range p.terms {
		for i, pw := range t.m {
			dg := pw.g.diff(v)
			if dg.IsZero() {
				continue
			}
			c := new(big.Rat).Mul(t.c, big.NewRat(int64(pw.e), 1))
			rest := Poly{terms: []term{{m: t.m.withExp(i, pw.e-1), c: c}}}
			out = out.Add(fromPoly(rest).Mul(dg))
		}
	}
	return out
}

// Diff differentiates with respect to the symbol v.
func (a *Expr) Diff(v string) *Expr {
	if a.IsZero() {
		return zero
	}
	out := diffPoly(a.num, v).Mul(&Expr{num: onePoly, den: a.den})
	for _, f := range a.den {
		// (f^-e)' = -e f^(-e-1) f'
		df := diffPoly(f.p, v)
		if df.IsZero() {
			continue
		}
		k := &Expr{num: constPoly(big.NewRat(int64(-f.e), 1)), den: []factor{{p: f.p, key: f.key, e: 1}}}
		out = out.Add(a.Mul(k).Mul(df))
	}
	return out
}

// ============================================================
// Evaluation and rendering
// ============================================================

// Eval evaluates a numerically with the given symbol values.
func (a *Expr) Eval(env map[string]float64) (float64, error) {
	v, err := a.num.eval(env)
	if err != nil {
		return 0, err
	}
	for _, f := range a.den {
		d, err := f.p.eval(env)
		if err != nil {
			return 0, err
		}
		v /= math.Pow(d, float64(f.e))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %w", a, ErrNotFinite)
	}
	return v, nil
}

func (a *Expr) denString(str func(Poly) string, sep string) string {
	parts := make([]string, len(a.den))
	for i, f := range a.den {
		s := str(f.p)
		if f.p.size() > 1 {
			s = "(" + s + ")"
		}
		if f.e > 1 {
			if sep == "*" {
				s += "^" + strconv.Itoa(f.e)
			} else {
				s = "{" + s + "}^{" + strconv.Itoa(f.e) + "}"
			}
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}

func (a *Expr) String() string {
	if len(a.den) == 0 {
		return a.num.String()
	}
	n := a.num.String()
	if a.num.size() > 1 {
		n = "(" + n + ")"
	}
	d := a.denString(Poly.String, "*")
	if len(a.den) > 1 || a.den[0].e > 1 {
		d = "(" + d + ")"
	}
	return n + "/" + d
}

func (a *Expr) LaTeX() string {
	if len(a.den) == 0 {
		return a.num.LaTeX()
	}
	return "\\frac{" + a.num.LaTeX() + "}{" + a.denString(Poly.LaTeX, " ") + "}"
}

func (a *Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Expr) MarshalYAML() (any, error) {
	return a.String(), nil
}

// FreeSymbols lists the plain symbols a depends on, sorted.
func (a *Expr) FreeSymbols() []string {
	seen := map[string]struct{}{}
	var walk func(Poly)
	walk = func(p Poly) {
		for _, t := range p.terms {
			for _, pw := range t.m {
				if pw.g.kind == genSqrt {
					walk(pw.g.rad)
					continue
				}
				seen[pw.g.name] = struct{}{}
			}
		}
	}
	walk(a.num)
	for _, f := range a.den {
		walk(f.p)
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
