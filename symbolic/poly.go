package symbolic

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Generators — the indeterminates of the polynomial ring
// ============================================================

type genKind uint8

const (
	genSym genKind = iota
	genSin
	genCos
	genSqrt
)

// gen is one indeterminate. Two gens denote the same indeterminate iff their
// keys are equal; pointers are never compared.
type gen struct {
	kind genKind
	name string // symbol name, or the argument symbol of sin/cos
	rad  Poly   // radicand of sqrt
	key  string
}

func symGen(name string) *gen { return &gen{kind: genSym, name: name, key: name} }
func sinGen(arg string) *gen  { return &gen{kind: genSin, name: arg, key: "sin(" + arg + ")"} }
func cosGen(arg string) *gen  { return &gen{kind: genCos, name: arg, key: "cos(" + arg + ")"} }
func sqrtGen(rad Poly) *gen {
	return &gen{kind: genSqrt, rad: rad, key: "sqrt(" + rad.String() + ")"}
}

func (g *gen) String() string { return g.key }

func (g *gen) LaTeX() string {
	switch g.kind {
	case genSin:
		return "\\sin(" + latexName(g.name) + ")"
	case genCos:
		return "\\cos(" + latexName(g.name) + ")"
	case genSqrt:
		return "\\sqrt{" + g.rad.LaTeX() + "}"
	}
	return latexName(g.name)
}

// square rewrites g² in terms of lower powers of g. Plain symbols and cos
// are free and report false.
func (g *gen) square() (Poly, bool) {
	switch g.kind {
	case genSin:
		var a acc
		a.add(mono{{g: cosGen(g.name), e: 2}}, big.NewRat(-1, 1))
		a.add(nil, big.NewRat(1, 1))
		return a.poly(), true
	case genSqrt:
		return g.rad, true
	}
	return Poly{}, false
}

func (g *gen) eval(env map[string]float64) (float64, error) {
	switch g.kind {
	case genSqrt:
		r, err := g.rad.eval(env)
		if err != nil {
			return 0, err
		}
		return math.Sqrt(r), nil
	}
	x, ok := env[g.name]
	if !ok {
		return 0, unboundError(g.name)
	}
	switch g.kind {
	case genSin:
		return math.Sin(x), nil
	case genCos:
		return math.Cos(x), nil
	}
	return x, nil
}

// ============================================================
// Monomials
// ============================================================

type power struct {
	g *gen
	e int
}

// mono is a power product sorted by generator key with positive exponents.
type mono []power

func (m mono) degree() int {
	d := 0
	for _, p := range m {
		d += p.e
	}
	return d
}

func (m mono) key() string {
	var sb strings.Builder
	for _, p := range m {
		sb.WriteString(p.g.key)
		sb.WriteByte(0x01)
		sb.WriteString(strconv.Itoa(p.e))
		sb.WriteByte(0x00)
	}
	return sb.String()
}

func (m mono) String() string {
	parts := make([]string, len(m))
	for i, p := range m {
		if p.e == 1 {
			parts[i] = p.g.String()
		} else {
			parts[i] = p.g.String() + "^" + strconv.Itoa(p.e)
		}
	}
	return strings.Join(parts, "*")
}

func (m mono) LaTeX() string {
	parts := make([]string, len(m))
	for i, p := range m {
		if p.e == 1 {
			parts[i] = p.g.LaTeX()
		} else {
			parts[i] = "{" + p.g.LaTeX() + "}^{" + strconv.Itoa(p.e) + "}"
		}
	}
	return strings.Join(parts, " ")
}

// withExp returns a copy of m with the i-th exponent replaced; e == 0 drops it.
func (m mono) withExp(i, e int) mono {
	out := make(mono, 0, len(m))
	for j, p := range m {
		if j != i {
			out = append(out, p)
		} else if e > 0 {
			out = append(out, power{g: p.g, e: e})
		}
	}
	return out
}

func monoMul(a, b mono) mono {
	out := make(mono, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch ka, kb := a[i].g.key, b[j].g.key; {
		case ka == kb:
			out = append(out, power{g: a[i].g, e: a[i].e + b[j].e})
			i++
			j++
		case ka < kb:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// monoDiv returns a/b when b divides a.
func monoDiv(a, b mono) (mono, bool) {
	out := make(mono, 0, len(a))
	j := 0
	for _, p := range a {
		if j < len(b) && b[j].g.key < p.g.key {
			return nil, false
		}
		if j < len(b) && b[j].g.key == p.g.key {
			switch {
			case b[j].e > p.e:
				return nil, false
			case b[j].e < p.e:
				out = append(out, power{g: p.g, e: p.e - b[j].e})
			}
			j++
			continue
		}
		out = append(out, p)
	}
	if j < len(b) {
		return nil, false
	}
	return out, true
}

func monoGCD(a, b mono) mono {
	var out mono
	j := 0
	for _, p := range a {
		for j < len(b) && b[j].g.key < p.g.key {
			j++
		}
		if j < len(b) && b[j].g.key == p.g.key {
			out = append(out, power{g: p.g, e: min(p.e, b[j].e)})
		}
	}
	return out
}

// cmpMono is graded lexicographic order with generator keys ascending in
// priority. It is compatible with multiplication, which exact division needs.
func cmpMono(a, b mono) int {
	if da, db := a.degree(), b.degree(); da != db {
		if da > db {
			return 1
		}
		return -1
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ka, kb := a[i].g.key, b[j].g.key
		switch {
		case ka == kb:
			if a[i].e != b[j].e {
				if a[i].e > b[j].e {
					return 1
				}
				return -1
			}
			i++
			j++
		case ka < kb:
			return 1
		default:
			return -1
		}
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return 0
}

// ============================================================
// Poly — canonical multivariate polynomial over Q
// ============================================================

type term struct {
	m mono
	c *big.Rat
}

// Poly holds terms in strictly decreasing monomial order with non-zero
// coefficients. Polys and their terms are never mutated after construction.
type Poly struct{ terms []term }

// acc accumulates terms keyed by monomial.
type acc struct {
	idx   map[string]int
	terms []term
}

func (a *acc) add(m mono, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	if a.idx == nil {
		a.idx = map[string]int{}
	}
	k := m.key()
	if i, ok := a.idx[k]; ok {
		a.terms[i].c.Add(a.terms[i].c, c)
		return
	}
	a.idx[k] = len(a.terms)
	a.terms = append(a.terms, term{m: m, c: new(big.Rat).Set(c)})
}

func (a *acc) poly() Poly {
	out := make([]term, 0, len(a.terms))
	for _, t := range a.terms {
		if t.c.Sign() != 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return cmpMono(out[i].m, out[j].m) > 0 })
	return Poly{terms: out}
}

func constPoly(c *big.Rat) Poly {
	if c.Sign() == 0 {
		return Poly{}
	}
	return Poly{terms: []term{{c: new(big.Rat).Set(c)}}}
}

func genPoly(g *gen) Poly {
	return Poly{terms: []term{{m: mono{{g: g, e: 1}}, c: big.NewRat(1, 1)}}}
}

var onePoly = constPoly(big.NewRat(1, 1))

func (p Poly) isZero() bool { return len(p.terms) == 0 }

// constant reports the value of p when p has no indeterminates.
func (p Poly) constant() (*big.Rat, bool) {
	switch {
	case len(p.terms) == 0:
		return new(big.Rat), true
	case len(p.terms) == 1 && len(p.terms[0].m) == 0:
		return new(big.Rat).Set(p.terms[0].c), true
	}
	return nil, false
}

func (p Poly) isOne() bool {
	c, ok := p.constant()
	return ok && c.Cmp(big.NewRat(1, 1)) == 0
}

func (p Poly) lead() term { return p.terms[0] }

func (p Poly) size() int { return len(p.terms) }

func (p Poly) equal(q Poly) bool {
	if len(p.terms) != len(q.terms) {
		return false
	}
	for i := range p.terms {
		if cmpMono(p.terms[i].m, q.terms[i].m) != 0 || p.terms[i].c.Cmp(q.terms[i].c) != 0 {
			return false
		}
	}
	return true
}

func (p Poly) add(q Poly) Poly {
	out := make([]term, 0, len(p.terms)+len(q.terms))
	i, j := 0, 0
	for i < len(p.terms) && j < len(q.terms) {
		switch c := cmpMono(p.terms[i].m, q.terms[j].m); {
		case c > 0:
			out = append(out, p.terms[i])
			i++
		case c < 0:
			out = append(out, q.terms[j])
			j++
		default:
			if s := new(big.Rat).Add(p.terms[i].c, q.terms[j].c); s.Sign() != 0 {
				out = append(out, term{m: p.terms[i].m, c: s})
			}
			i++
			j++
		}
	}
	out = append(out, p.terms[i:]...)
	out = append(out, q.terms[j:]...)
	return Poly{terms: out}
}

func (p Poly) neg() Poly {
	return p.scale(big.NewRat(-1, 1))
}

func (p Poly) scale(c *big.Rat) Poly {
	if c.Sign() == 0 {
		return Poly{}
	}
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{m: t.m, c: new(big.Rat).Mul(t.c, c)}
	}
	return Poly{terms: out}
}

// mulTerm multiplies by c·m without reducing; the order is preserved.
func (p Poly) mulTerm(m mono, c *big.Rat) Poly {
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		out[i] = term{m: monoMul(t.m, m), c: new(big.Rat).Mul(t.c, c)}
	}
	return Poly{terms: out}
}

// mulRaw is the product in the free ring.
func (p Poly) mulRaw(q Poly) Poly {
	var a acc
	for _, s := range p.terms {
		for _, t := range q.terms {
			a.add(monoMul(s.m, t.m), new(big.Rat).Mul(s.c, t.c))
		}
	}
	return a.poly()
}

func (p Poly) mul(q Poly) Poly {
	if p.isZero() || q.isZero() {
		return Poly{}
	}
	return p.mulRaw(q).reduce()
}

func (p Poly) pow(n int) Poly {
	out := onePoly
	for i := 0; i < n; i++ {
		out = out.mul(p)
	}
	return out
}

func reducibleAt(m mono) int {
	for i, p := range m {
		if p.e >= 2 && (p.g.kind == genSin || p.g.kind == genSqrt) {
			return i
		}
	}
	return -1
}

// reduce rewrites p into normal form modulo sin²+cos²−1 and sqrt(q)²−q.
func (p Poly) reduce() Poly {
	dirty := false
	for _, t := range p.terms {
		if reducibleAt(t.m) >= 0 {
			dirty = true
			break
		}
	}
	if !dirty {
		return p
	}
	var a acc
	work := append([]term(nil), p.terms...)
	for len(work) > 0 {
		t := work[len(work)-1]
		work = work[:len(work)-1]
		i := reducibleAt(t.m)
		if i < 0 {
			a.add(t.m, t.c)
			continue
		}
		sq, _ := t.m[i].g.square()
		base := t.m.withExp(i, t.m[i].e-2)
		for _, s := range sq.terms {
			work = append(work, term{m: monoMul(base, s.m), c: new(big.Rat).Mul(t.c, s.c)})
		}
	}
	return a.poly()
}

// divExact divides p by d in the free ring. It reports false when d does
// not divide p; {d} is a Gröbner basis of (d), so that answer is exact.
func (p Poly) divExact(d Poly) (Poly, bool) {
	if d.isZero() {
		panic("symbolic: division by zero polynomial")
	}
	if p.isZero() {
		return Poly{}, true
	}
	ld := d.lead()
	var q acc
	rem := p
	for !rem.isZero() {
		lt := rem.lead()
		m, ok := monoDiv(lt.m, ld.m)
		if !ok {
			return Poly{}, false
		}
		c := new(big.Rat).Quo(lt.c, ld.c)
		q.add(m, c)
		rem = rem.add(d.mulTerm(m, c).neg())
	}
	return q.poly(), true
}

// content is the greatest monomial dividing every term.
func (p Poly) content() mono {
	if p.isZero() {
		return nil
	}
	g := p.terms[0].m
	for _, t := range p.terms[1:] {
		g = monoGCD(g, t.m)
		if len(g) == 0 {
			break
		}
	}
	return g
}

// squareFactor finds a square factor of a polynomial in plain symbols:
// a symbol of even power ≥ 2 in the monomial content, or h with p = ±h².
// Polynomials involving sin, cos or sqrt are not inspected.
func (p Poly) squareFactor() (Poly, bool) {
	for _, t := range p.terms {
		for _, pw := range t.m {
			if pw.g.kind != genSym {
				return Poly{}, false
			}
		}
	}
	for _, pw := range p.content() {
		if pw.e >= 2 {
			return genPoly(pw.g), true
		}
	}
	if p.lead().c.Sign() < 0 {
		p = p.neg()
	}
	return p.sqrtExact()
}

// sqrtExact returns h with h² = p when p is a square in the free ring.
// Terms of h are found from the top: each is lt(p − h²)/(2·lt(h)), and
// they must strictly decrease, so the loop ends.
func (p Poly) sqrtExact() (Poly, bool) {
	lt := p.lead()
	c := new(big.Rat).Set(lt.c)
	if c.Sign() <= 0 {
		return Poly{}, false
	}
	cr, ok := ratSqrt(c)
	if !ok {
		return Poly{}, false
	}
	hm := make(mono, len(lt.m))
	for i, pw := range lt.m {
		if pw.e%2 != 0 {
			return Poly{}, false
		}
		hm[i] = power{g: pw.g, e: pw.e / 2}
	}
	h := Poly{terms: []term{{m: hm, c: cr}}}
	twoLead := new(big.Rat).Mul(cr, big.NewRat(2, 1))
	last := hm
	for {
		rem := p.add(h.mulRaw(h).neg())
		if rem.isZero() {
			return h, true
		}
		r := rem.lead()
		m, ok := monoDiv(r.m, hm)
		if !ok || cmpMono(m, last) >= 0 {
			return Poly{}, false
		}
		h = h.add(Poly{terms: []term{{m: m, c: new(big.Rat).Quo(r.c, twoLead)}}})
		last = m
	}
}

// ratSqrt returns the rational square root of c ≥ 0 when there is one.
func ratSqrt(c *big.Rat) (*big.Rat, bool) {
	n, d := new(big.Int).Sqrt(c.Num()), new(big.Int).Sqrt(c.Denom())
	if new(big.Int).Mul(n, n).Cmp(c.Num()) != 0 || new(big.Int).Mul(d, d).Cmp(c.Denom()) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(n, d), true
}

func (p Poly) divMono(m mono) Poly {
	if len(m) == 0 {
		return p
	}
	out := make([]term, len(p.terms))
	for i, t := range p.terms {
		q, ok := monoDiv(t.m, m)
		if !ok {
			panic("symbolic: monomial does not divide polynomial")
		}
		out[i] = term{m: q, c: t.c}
	}
	return Poly{terms: out}
}

func (p Poly) eval(env map[string]float64) (float64, error) {
	sum := 0.0
	for _, t := range p.terms {
		c, _ := t.c.Float64()
		for _, pw := range t.m {
			x, err := pw.g.eval(env)
			if err != nil {
				return 0, err
			}
			c *= math.Pow(x, float64(pw.e))
		}
		sum += c
	}
	return sum, nil
}

func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

func ratLaTeX(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return "\\frac{" + r.Num().String() + "}{" + r.Denom().String() + "}"
}

func (p Poly) render(coeff func(*big.Rat) string, monoStr func(mono) string, mulSep string) string {
	if p.isZero() {
		return "0"
	}
	var sb strings.Builder
	for i, t := range p.terms {
		abs := new(big.Rat).Abs(t.c)
		switch {
		case i == 0 && t.c.Sign() < 0:
			sb.WriteString("-")
		case i > 0 && t.c.Sign() < 0:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		ms := monoStr(t.m)
		switch {
		case ms == "":
			sb.WriteString(coeff(abs))
		case abs.Cmp(big.NewRat(1, 1)) == 0:
			sb.WriteString(ms)
		default:
			sb.WriteString(coeff(abs))
			sb.WriteString(mulSep)
			sb.WriteString(ms)
		}
	}
	return sb.String()
}

func (p Poly) String() string {
	return p.render(ratString, mono.String, "*")
}

func (p Poly) LaTeX() string {
	return p.render(ratLaTeX, mono.LaTeX, " ")
}

var greek = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"zeta": true, "eta": true, "theta": true, "kappa": true, "lambda": true,
	"mu": true, "nu": true, "xi": true, "rho": true, "sigma": true, "tau": true,
	"phi": true, "chi": true, "psi": true, "omega": true,
}

func latexName(name string) string {
	if greek[name] {
		return "\\" + name
	}
	return name
}
