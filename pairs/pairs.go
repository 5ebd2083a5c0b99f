// Package pairs holds the built-in DAE examples. Each provider returns a
// fresh problem; nothing is shared between calls.
package pairs

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/quasiscf/dae"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

// ErrUnknownPair is returned by Lookup for names that are not registered.
var ErrUnknownPair = errors.New("pairs: unknown pair")

// Problem is a reduction input with its provenance and the parameter values
// used for numeric spot checks.
type Problem struct {
	dae.Problem[*sym.Matrix]
	Citation string
	Params   map[string]float64
}

// Dim is the size m of the pair.
func (p *Problem) Dim() int { return p.E.Rows() }

// Env returns the parameter values extended with the independent variable.
func (p *Problem) Env(t float64) map[string]float64 {
	env := make(map[string]float64, len(p.Params)+1)
	for k, v := range p.Params {
		env[k] = v
	}
	env[p.Var] = t
	return env
}

type provider func() *Problem

var registry = map[string]provider{
	"berger-ilchmann":      BergerIlchmann,
	"hanke-izquierdo-marz": HankeIzquierdoMarz,
	"campbell-moore":       CampbellMoore,
}

// Names lists the registered pairs in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All builds every registered pair in Names order.
func All() []*Problem {
	names := Names()
	out := make([]*Problem, len(names))
	for i, name := range names {
		out[i] = registry[name]()
	}
	return out
}

// Lookup builds the pair registered under name. Matching ignores case.
func Lookup(name string) (*Problem, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%q (known: %s): %w", name, strings.Join(Names(), ", "), ErrUnknownPair)
	}
	return p(), nil
}

// ============================================================
// Berger & Ilchmann
// ============================================================

// BergerIlchmann is the 3×3 example of Berger & Ilchmann, "On the standard
// canonical form of time-varying linear DAEs" (2013). K0 contains 1/sin t,
// so the pair is only defined where sin t ≠ 0.
func BergerIlchmann() *Problem {
	t := sym.S("t")
	s, c := sym.SinOf(t), sym.CosOf(t)
	z, one := sym.N(0), sym.N(1)

	e := sym.FromRows(
		[]*sym.Expr{s, c, z},
		[]*sym.Expr{z, z, z},
		[]*sym.Expr{c.Mul(s).Neg(), s.Mul(s), z},
	)
	f := sym.FromRows(
		[]*sym.Expr{s.Sub(c), c.Add(s), z},
		[]*sym.Expr{c.Neg(), s, z},
		[]*sym.Expr{s.Mul(s).Neg(), s.Mul(c).Neg(), t.Pow(2).Add(one)},
	).Neg()
	l0 := sym.FromRows(
		[]*sym.Expr{s.Pow(2), z, c.Neg()},
		[]*sym.Expr{c, z, one},
		[]*sym.Expr{z, one, z},
	)
	k0 := sym.FromRows(
		[]*sym.Expr{s.Inv(), z, z},
		[]*sym.Expr{z, z, one},
		[]*sym.Expr{z, one, z},
	)
	return &Problem{
		Problem: dae.Problem[*sym.Matrix]{
			Name: "berger-ilchmann",
			E:    e,
			F:    f,
			K0:   k0,
			L0:   l0,
			LS:   []int{1, 1},
			Var:  "t",
		},
		Citation: "Berger, Ilchmann (2013), On the standard canonical form of time-varying linear DAEs",
		Params:   map[string]float64{},
	}
}

// ============================================================
// Hanke, Izquierdo Macana & März
// ============================================================

// HankeIzquierdoMarz is the 3×3 example of Hanke, Izquierdo Macana & März,
// "On asymptotics in case of linear index-2 differential-algebraic
// equations" (1998). K0 and L0 are orthonormal with the normaliser
// sqrt((1−ηt)² + 1).
func HankeIzquierdoMarz() *Problem {
	t, lam, eta := sym.S("t"), sym.S("lambda"), sym.S("eta")
	z, one := sym.N(0), sym.N(1)
	nt := eta.Mul(t)
	omnt := one.Sub(nt)

	e := sym.FromInts([][]int64{{1, 0, 0}, {0, 1, 0}, {0, 0, 0}})
	f := sym.FromRows(
		[]*sym.Expr{lam, one.Neg(), one.Neg()},
		[]*sym.Expr{nt.Mul(omnt).Sub(eta), lam, nt.Neg()},
		[]*sym.Expr{omnt, one, z},
	)

	inv := sym.SqrtOf(omnt.Pow(2).Add(one)).Inv()
	v1 := []*sym.Expr{inv, nt.Sub(one).Mul(inv), z}
	v2 := []*sym.Expr{omnt.Mul(inv), inv, z}
	e3 := []*sym.Expr{z, z, one}

	return &Problem{
		Problem: dae.Problem[*sym.Matrix]{
			Name: "hanke-izquierdo-marz",
			E:    e,
			F:    f,
			K0:   sym.FromRows(v1, e3, v2).Transpose(),
			L0:   sym.FromRows(v1, v2, e3),
			LS:   []int{1, 1},
			Var:  "t",
		},
		Citation: "Hanke, Izquierdo Macana, März (1998), On asymptotics in case of linear index-2 DAEs",
		Params:   map[string]float64{"lambda": -1, "eta": 0.5},
	}
}

// ============================================================
// Campbell & Moore
// ============================================================

// CampbellMoore is the 7×7 index-3 example of Campbell & Moore,
// "Constraint preserving integrators for general nonlinear higher index
// DAEs" (1995), with the first two coordinate triples swapped.
func CampbellMoore() *Problem {
	t, a := sym.S("t"), sym.S("alpha")
	s, c := sym.SinOf(t), sym.CosOf(t)
	z, one := sym.N(0), sym.N(1)
	m1 := one.Neg()

	e := sym.Identity(7).WithBlock(6, 6, sym.NewMatrix(1, 1))
	raw := sym.FromRows(
		[]*sym.Expr{z, z, z, m1, z, z, z},
		[]*sym.Expr{z, z, z, z, m1, z, z},
		[]*sym.Expr{z, z, z, z, z, m1, z},
		[]*sym.Expr{z, z, s, z, one, c.Neg(), a.Mul(c.Pow(2)).Neg()},
		[]*sym.Expr{z, z, c.Neg(), m1, z, s.Neg(), negProd(a, s, c)},
		[]*sym.Expr{z, z, one, z, z, z, a.Mul(s)},
		[]*sym.Expr{a.Mul(c.Pow(2)), sym.MulOf(a, s, c), a.Mul(s).Neg(), z, z, z, z},
	)
	perm := swapTriples()
	f := perm.MatMul(raw).MatMul(perm)

	v1 := []*sym.Expr{c.Pow(2), s.Mul(c), s.Neg()}
	v2 := []*sym.Expr{s.Mul(c), s.Pow(2), c}
	v3 := []*sym.Expr{s, c.Neg(), z}
	lo := func(v []*sym.Expr) []*sym.Expr { return append(append([]*sym.Expr{}, v...), z, z, z, z) }
	hi := func(v []*sym.Expr) []*sym.Expr { return append([]*sym.Expr{z, z, z}, append(append([]*sym.Expr{}, v...), z)...) }
	e7 := []*sym.Expr{z, z, z, z, z, z, one}

	k0 := sym.FromRows(lo(v2), lo(v3), hi(v2), hi(v3), e7, lo(v1), hi(v1)).Transpose()
	l0 := sym.FromRows(lo(v2), lo(v3), hi(v2), hi(v3), lo(v1), hi(v1), e7)

	return &Problem{
		Problem: dae.Problem[*sym.Matrix]{
			Name: "campbell-moore",
			E:    e,
			F:    f,
			K0:   k0,
			L0:   l0,
			LS:   []int{1, 1, 1},
			Var:  "t",
		},
		Citation: "Campbell, Moore (1995), Constraint preserving integrators for general nonlinear higher index DAEs",
		Params:   map[string]float64{"alpha": 1},
	}
}

func negProd(xs ...*sym.Expr) *sym.Expr { return sym.MulOf(xs...).Neg() }

// swapTriples is the 7×7 permutation exchanging coordinates 0..2 with 3..5.
func swapTriples() *sym.Matrix {
	p := make([][]int64, 7)
	for i := range p {
		p[i] = make([]int64, 7)
	}
	for i := 0; i < 3; i++ {
		p[i][i+3] = 1
		p[i+3][i] = 1
	}
	p[6][6] = 1
	return sym.FromInts(p)
}
