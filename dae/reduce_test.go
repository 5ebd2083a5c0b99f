package dae_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/testutil"
)

func sscf3() dense { return denseAlgebra{}.FromInts(dae.SSCF(3, []int{1, 1}, dae.Column)) }

func newFakeReducer(t *testing.T) *dae.Reducer[dense] {
	return dae.NewReducer[dense](denseAlgebra{}, dae.WithLogger(testutil.NewTestLogger(t)))
}

func TestEquivalence_Identity(t *testing.T) {
	p := dae.Pair[dense]{E: sscf3(), F: newDense([][]float64{{2, 3, 5}, {0, 1, 0}, {0, 0, 1}})}
	id := denseAlgebra{}.Identity(3)
	got := dae.Equivalence(p, id, id, "t")
	assert.True(t, got.E.Equal(p.E))
	assert.True(t, got.F.Equal(p.F))
}

func TestReduceF12_Constant(t *testing.T) {
	r := newFakeReducer(t)
	p := dae.Pair[dense]{E: sscf3(), F: newDense([][]float64{{2, 3, 5}, {0, 1, 0}, {0, 0, 1}})}

	st, err := r.ReduceF12(p, []int{1, 1}, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Steps)
	assert.True(t, st.Pair.E.Equal(p.E), "E must be invariant, got %s", st.Pair.E)
	assert.True(t, st.Pair.F.Equal(newDense([][]float64{{2, 0, 0}, {0, 1, 0}, {0, 0, 1}})), "F = %s", st.Pair.F)
	assert.True(t, st.K.Equal(newDense([][]float64{{1, 0, 3}, {0, 1, 0}, {0, 0, 1}})), "K = %s", st.K)
	assert.True(t, st.L.Equal(newDense([][]float64{{1, -3, -11}, {0, 1, 0}, {0, 0, 1}})), "L = %s", st.L)

	direct := dae.Equivalence(p, st.L, st.K, "t")
	assert.True(t, direct.E.Equal(st.Pair.E))
	assert.True(t, direct.F.Equal(st.Pair.F))
}

func TestReduceF21_Constant(t *testing.T) {
	r := newFakeReducer(t)
	p := dae.Pair[dense]{E: sscf3(), F: newDense([][]float64{{2, 0, 0}, {3, 1, 0}, {5, 0, 1}})}

	st, err := r.ReduceF21(p, []int{1, 1}, "t")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Steps)
	assert.True(t, st.Pair.E.Equal(p.E), "E must be invariant, got %s", st.Pair.E)
	assert.True(t, st.Pair.F.Equal(newDense([][]float64{{2, 0, 0}, {0, 1, 0}, {0, 0, 1}})), "F = %s", st.Pair.F)
	assert.True(t, st.K.Equal(newDense([][]float64{{1, 0, 0}, {-13, 1, 0}, {-5, 0, 1}})), "K = %s", st.K)
	assert.True(t, st.L.Equal(newDense([][]float64{{1, 0, 0}, {5, 1, 0}, {0, 0, 1}})), "L = %s", st.L)
}

func TestReduceF12_SingularBlock(t *testing.T) {
	r := newFakeReducer(t)
	p := dae.Pair[dense]{E: sscf3(), F: newDense([][]float64{{1, 1, 1}, {0, 1, 1}, {0, 1, 1}})}

	_, err := r.ReduceF12(p, []int{1, 1}, "t")
	require.ErrorIs(t, err, dae.ErrSingularBlock)

	var de *dae.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, dae.StageODE, de.Stage)
	assert.Equal(t, 1, de.Iteration)
	require.Len(t, de.Diagnostics, 2)
	assert.Equal(t, "F22", de.Diagnostics[0].Name)
	assert.Equal(t, "F", de.Diagnostics[1].Name)
	assert.Contains(t, de.Error(), "ode-reduction iteration 1")
	assert.Contains(t, de.Report(), "F22 = ")
}

func TestReduceF21_SingularBlock(t *testing.T) {
	r := newFakeReducer(t)
	p := dae.Pair[dense]{E: sscf3(), F: newDense([][]float64{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}})}

	_, err := r.ReduceF21(p, []int{1, 1}, "t")
	var de *dae.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, dae.StageDAE, de.Stage)
	assert.ErrorIs(t, err, dae.ErrSingularBlock)
}

func TestReduce_ConstantPair(t *testing.T) {
	r := newFakeReducer(t)
	alg := denseAlgebra{}
	prob := dae.Problem[dense]{
		Name: "constant",
		E:    sscf3(),
		F:    newDense([][]float64{{2, 3, 5}, {3, 1, 0}, {5, 0, 1}}),
		K0:   alg.Identity(3),
		L0:   alg.Identity(3),
		LS:   []int{1, 1},
		Var:  "t",
	}

	res, err := r.Reduce(prob)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ODESteps)
	assert.Equal(t, 2, res.DAESteps)
	assert.True(t, res.Pair.E.Equal(sscf3()))

	// The coupling blocks are gone.
	assert.True(t, res.Pair.F.Block(0, 1, 1, 3).Equal(alg.Zeros(1, 2)), "F12 = %s", res.Pair.F)
	assert.True(t, res.Pair.F.Block(1, 3, 0, 1).Equal(alg.Zeros(2, 1)), "F21 = %s", res.Pair.F)

	l := res.Ls[2].MatMul(res.Ls[1]).MatMul(res.Ls[0])
	k := res.Ks[0].MatMul(res.Ks[1]).MatMul(res.Ks[2])
	direct := dae.Equivalence(dae.Pair[dense]{E: prob.E, F: prob.F}, l, k, "t")
	assert.True(t, direct.E.Equal(res.Pair.E))
	assert.True(t, direct.F.Equal(res.Pair.F))

	proj, err := r.CanonicalProjector(res.Ks, prob.LS)
	require.NoError(t, err)
	assert.True(t, proj.MatMul(proj).Equal(proj), "projector is not idempotent: %s", proj)
}

func TestCanonicalProjector_NotInvertible(t *testing.T) {
	r := newFakeReducer(t)
	alg := denseAlgebra{}
	ks := [3]dense{alg.Zeros(3, 3), alg.Identity(3), alg.Identity(3)}

	_, err := r.CanonicalProjector(ks, []int{1, 1})
	require.ErrorIs(t, err, dae.ErrNotInvertible)
	var de *dae.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, dae.StageProjector, de.Stage)
	assert.Equal(t, "K0", de.Diagnostics[0].Name)
}

func TestCanonicalProjector_Formula(t *testing.T) {
	r := newFakeReducer(t)
	alg := denseAlgebra{}
	k1 := alg.Identity(3).WithBlock(0, 1, newDense([][]float64{{2, 0}}))
	k2 := alg.Identity(3).WithBlock(1, 0, newDense([][]float64{{1}, {4}}))

	proj, err := r.CanonicalProjector([3]dense{alg.Identity(3), k1, k2}, []int{1, 1})
	require.NoError(t, err)
	// A = [2 0], B = [1 4]ᵀ, AB = 2, BA = [[2 0] [8 0]]
	want := newDense([][]float64{
		{3, -6, 0},
		{1, -2, 0},
		{4, -8, 0},
	})
	assert.True(t, proj.Equal(want), "got %s", proj)
	assert.True(t, proj.MatMul(proj).Equal(proj))
}

func TestValidate(t *testing.T) {
	alg := denseAlgebra{}
	valid := func() dae.Problem[dense] {
		return dae.Problem[dense]{
			E: sscf3(), F: alg.Identity(3), K0: alg.Identity(3), L0: alg.Identity(3),
			LS: []int{1, 1}, Var: "t",
		}
	}
	require.NoError(t, dae.Validate(valid()))

	tests := []struct {
		name   string
		mutate func(*dae.Problem[dense])
	}{
		{"empty ls", func(p *dae.Problem[dense]) { p.LS = nil }},
		{"zero block", func(p *dae.Problem[dense]) { p.LS = []int{1, 0} }},
		{"negative block", func(p *dae.Problem[dense]) { p.LS = []int{-1} }},
		{"ls exceeds m", func(p *dae.Problem[dense]) { p.LS = []int{2, 2} }},
		{"non-square K0", func(p *dae.Problem[dense]) { p.K0 = alg.Zeros(3, 2) }},
		{"F of wrong size", func(p *dae.Problem[dense]) { p.F = alg.Identity(2) }},
		{"no variable", func(p *dae.Problem[dense]) { p.Var = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			assert.ErrorIs(t, dae.Validate(p), dae.ErrInvalidProblem)
		})
	}
}

func TestReduce_RejectsInvalidProblem(t *testing.T) {
	r := newFakeReducer(t)
	_, err := r.Reduce(dae.Problem[dense]{E: sscf3(), F: sscf3(), K0: sscf3(), L0: sscf3(), Var: "t"})
	assert.ErrorIs(t, err, dae.ErrInvalidProblem)

	_, err = r.ReduceF12(dae.Pair[dense]{E: sscf3(), F: sscf3()}, []int{4}, "t")
	assert.ErrorIs(t, err, dae.ErrInvalidProblem)
}

func TestVerifyPreSCF_Constant(t *testing.T) {
	r := newFakeReducer(t)
	p := dae.Pair[dense]{E: sscf3(), F: denseAlgebra{}.Identity(3)}
	require.NoError(t, r.VerifyPreSCF(p, []int{1, 1}))

	wrong := dae.Pair[dense]{E: denseAlgebra{}.Identity(3), F: p.F}
	err := r.VerifyPreSCF(wrong, []int{1, 1})
	require.ErrorIs(t, err, dae.ErrStructuralMismatch)
	var de *dae.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, dae.StagePreSCF, de.Stage)
	assert.Equal(t, 0, de.Iteration)
	assert.Equal(t, "E_0", de.Diagnostics[0].Name)
	assert.Equal(t, "E_sscf", de.Diagnostics[1].Name)

	half := dae.Pair[dense]{E: newDense([][]float64{{1, 0, 0}, {0, 0, 0.5}, {0, 0, 0}}), F: p.F}
	assert.ErrorIs(t, r.VerifyPreSCF(half, []int{1, 1}), dae.ErrStructuralMismatch)
}

func TestVerifyPreSCF_RowOrientation(t *testing.T) {
	r := dae.NewReducer[dense](denseAlgebra{}, dae.WithOrientation(dae.Row), dae.WithLogger(nil))
	assert.Equal(t, dae.Row, r.Orientation())
	e := denseAlgebra{}.FromInts(dae.SSCF(4, []int{2, 1, 1}, dae.Row))
	p := dae.Pair[dense]{E: e, F: denseAlgebra{}.Identity(4)}
	assert.NoError(t, r.VerifyPreSCF(p, []int{2, 1, 1}))
	assert.ErrorIs(t, newFakeReducer(t).VerifyPreSCF(p, []int{2, 1, 1}), dae.ErrStructuralMismatch)
}
