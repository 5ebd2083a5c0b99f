package dae

// CanonicalProjector assembles Π_can from the PreSCF, ODE-stage and
// DAE-stage transformations. With A the top-right block of ks[1] and B the
// bottom-left block of ks[2]:
//
//	Π = K0 · [ I+AB   -A-ABA ] · K0⁻¹
//	         [ B      -BA    ]
//
// The result is idempotent. Only K0 is inverted.
func (r *Reducer[M]) CanonicalProjector(ks [3]M, ls []int) (M, error) {
	var zero M
	m := ks[0].Rows()
	if err := validateLS(m, ls); err != nil {
		return zero, err
	}
	d := m - sum(ls)
	a := ks[1].Block(0, d, d, m)
	b := ks[2].Block(d, m, 0, d)
	ab := a.MatMul(b).Simplify()
	ba := b.MatMul(a).Simplify()

	core := r.alg.Zeros(m, m).
		WithBlock(0, 0, r.alg.Identity(d).MatAdd(ab)).
		WithBlock(0, d, a.Neg().MatAdd(ab.MatMul(a).Neg())).
		WithBlock(d, 0, b).
		WithBlock(d, d, ba.Neg()).
		Simplify()

	inv, err := ks[0].Inverse()
	if err != nil {
		return zero, &Error{
			Kind:        ErrNotInvertible,
			Stage:       StageProjector,
			Diagnostics: []Diagnostic{{Name: "K0", Matrix: ks[0]}},
			Err:         err,
		}
	}
	r.logger.Debug("projector assembled", "m", m, "d", d)
	return ks[0].MatMul(core).MatMul(inv).Simplify(), nil
}
