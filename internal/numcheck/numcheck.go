// Package numcheck evaluates reduction results at sample points and measures
// how far they are from the exact identities they must satisfy. It is a
// sanity check on the symbolic output, not a DAE solver.
package numcheck

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	sym "github.com/njchilds90/quasiscf/symbolic"
)

// Sample holds the residuals at one value of the independent variable.
// Idempotence is nil when no projector was checked.
type Sample struct {
	At          float64  `json:"at" yaml:"at"`
	Structure   float64  `json:"structure" yaml:"structure"`
	Idempotence *float64 `json:"idempotence,omitempty" yaml:"idempotence,omitempty"`
}

// Report collects the residuals of one pair.
type Report struct {
	Samples        []Sample `json:"samples" yaml:"samples"`
	MaxStructure   float64  `json:"max_structure" yaml:"max_structure"`
	MaxIdempotence *float64 `json:"max_idempotence,omitempty" yaml:"max_idempotence,omitempty"`
}

// Input is what Check evaluates. Projector may be nil.
type Input struct {
	E         *sym.Matrix
	Target    [][]int64
	Projector *sym.Matrix
	// Env returns the symbol values at the sample point t.
	Env func(t float64) map[string]float64
}

// Check evaluates ‖E(t) − Target‖_F and ‖Π(t)² − Π(t)‖_F at every point of ts.
func Check(in Input, ts []float64) (*Report, error) {
	target := Dense(in.Target)
	rep := &Report{}
	for _, t := range ts {
		env := in.Env(t)
		e, err := in.E.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("numcheck: E at %g: %w", t, err)
		}
		s := Sample{At: t, Structure: Distance(e, target)}
		rep.MaxStructure = math.Max(rep.MaxStructure, s.Structure)
		if in.Projector != nil {
			p, err := in.Projector.Eval(env)
			if err != nil {
				return nil, fmt.Errorf("numcheck: projector at %g: %w", t, err)
			}
			r := Idempotence(p)
			s.Idempotence = &r
			if rep.MaxIdempotence == nil || r > *rep.MaxIdempotence {
				rep.MaxIdempotence = &r
			}
		}
		rep.Samples = append(rep.Samples, s)
	}
	return rep, nil
}

// Within reports whether every residual is at most tol.
func (r *Report) Within(tol float64) bool {
	if r.MaxStructure > tol {
		return false
	}
	return r.MaxIdempotence == nil || *r.MaxIdempotence <= tol
}

// Idempotence returns ‖P·P − P‖_F.
func Idempotence(p *mat.Dense) float64 {
	var sq mat.Dense
	sq.Mul(p, p)
	return Distance(&sq, p)
}

// Distance returns the Frobenius norm of a − b.
func Distance(a, b mat.Matrix) float64 {
	var d mat.Dense
	d.Sub(a, b)
	return mat.Norm(&d, 2)
}

// Dense converts an integer pattern to a gonum matrix.
func Dense(a [][]int64) *mat.Dense {
	if len(a) == 0 {
		return nil
	}
	out := mat.NewDense(len(a), len(a[0]), nil)
	for i, row := range a {
		for j, v := range row {
			out.Set(i, j, float64(v))
		}
	}
	return out
}
