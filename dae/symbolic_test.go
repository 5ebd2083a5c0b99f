package dae_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/testutil"
	"github.com/njchilds90/quasiscf/pairs"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

func newReducer(t *testing.T) *dae.Reducer[*sym.Matrix] {
	return dae.NewReducer[*sym.Matrix](sym.Algebra{}, dae.WithLogger(testutil.NewTestLogger(t)))
}

func untransformed(p *pairs.Problem) dae.Pair[*sym.Matrix] {
	return dae.Pair[*sym.Matrix]{E: p.E, F: p.F}
}

func TestBergerIlchmann_EndToEnd(t *testing.T) {
	p := pairs.BergerIlchmann()
	r := newReducer(t)

	res, err := r.Reduce(p.Problem)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ODESteps)
	assert.Equal(t, 2, res.DAESteps)

	want := sym.FromInts([][]int64{{1, 0, 0}, {0, 0, 1}, {0, 0, 0}})
	assert.True(t, res.Pair.E.Equal(want), "E_end = %s", res.Pair.E)
	got, err := res.Pair.E.IntEntries()
	require.NoError(t, err)
	assert.Equal(t, dae.SSCF(3, p.LS, dae.Column), got)

	// Coupling blocks vanish.
	assert.True(t, res.Pair.F.Block(0, 1, 1, 3).Equal(sym.NewMatrix(1, 2)), "F_end = %s", res.Pair.F)
	assert.True(t, res.Pair.F.Block(1, 3, 0, 1).Equal(sym.NewMatrix(2, 1)), "F_end = %s", res.Pair.F)

	assert.True(t, res.Ks[0].Equal(p.K0))
	assert.True(t, res.Ls[0].Equal(p.L0))
}

func TestBergerIlchmann_AccumulatedComposition(t *testing.T) {
	p := pairs.BergerIlchmann()
	res, err := newReducer(t).Reduce(p.Problem)
	require.NoError(t, err)

	l := res.Ls[2].MatMul(res.Ls[1]).MatMul(res.Ls[0]).Simplify()
	k := res.Ks[0].MatMul(res.Ks[1]).MatMul(res.Ks[2]).Simplify()
	direct := dae.Equivalence(untransformed(p), l, k, p.Var)
	assert.True(t, direct.E.MatSub(res.Pair.E).Equal(sym.NewMatrix(3, 3)), "E: %s vs %s", direct.E, res.Pair.E)
	assert.True(t, direct.F.MatSub(res.Pair.F).Equal(sym.NewMatrix(3, 3)), "F: %s vs %s", direct.F, res.Pair.F)
}

func TestBergerIlchmann_ProjectorIdempotent(t *testing.T) {
	p := pairs.BergerIlchmann()
	r := newReducer(t)
	res, err := r.Reduce(p.Problem)
	require.NoError(t, err)

	proj, err := r.CanonicalProjector(res.Ks, p.LS)
	require.NoError(t, err)
	assert.True(t, proj.MatMul(proj).Equal(proj), "Π = %s", proj)
}

func TestBergerIlchmann_VerifierIdempotent(t *testing.T) {
	p := pairs.BergerIlchmann()
	r := newReducer(t)
	pre := dae.Equivalence(untransformed(p), p.L0, p.K0, p.Var)
	require.NoError(t, r.VerifyPreSCF(pre, p.LS))

	id := sym.Identity(3)
	again := dae.Equivalence(pre, id, id, p.Var)
	require.NoError(t, r.VerifyPreSCF(again, p.LS))
	assert.True(t, again.E.Equal(pre.E))
	assert.True(t, again.F.Equal(pre.F))
}

func TestBergerIlchmann_SwappedTransformation(t *testing.T) {
	p := pairs.BergerIlchmann()
	p.K0, p.L0 = p.L0, p.K0

	_, err := newReducer(t).Reduce(p.Problem)
	require.ErrorIs(t, err, dae.ErrStructuralMismatch)

	var de *dae.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, dae.StagePreSCF, de.Stage)
	require.Len(t, de.Diagnostics, 2)
	assert.Equal(t, "E_0", de.Diagnostics[0].Name)
	assert.Equal(t, "E_sscf", de.Diagnostics[1].Name)
	assert.Equal(t, "[[1, 0, 0], [0, 0, 1], [0, 0, 0]]", de.Diagnostics[1].Matrix.String())
	assert.ErrorIs(t, err, sym.ErrNotInteger)
}

func TestEquivalence_IdentityKeepsSymbolicPair(t *testing.T) {
	p := pairs.BergerIlchmann()
	id := sym.Identity(3)
	got := dae.Equivalence(untransformed(p), id, id, p.Var)
	assert.True(t, got.E.Equal(p.E))
	assert.True(t, got.F.Equal(p.F))
}

func TestEquivalence_DerivativeTerm(t *testing.T) {
	// With E = I and L = K⁻¹ the pair becomes (I, K⁻¹FK + K⁻¹K̇).
	x := sym.S("t")
	k := sym.FromRows(
		[]*sym.Expr{sym.N(1), x},
		[]*sym.Expr{sym.N(0), sym.N(1)},
	)
	l := sym.FromRows(
		[]*sym.Expr{sym.N(1), x.Neg()},
		[]*sym.Expr{sym.N(0), sym.N(1)},
	)
	p := dae.Pair[*sym.Matrix]{E: sym.Identity(2), F: sym.NewMatrix(2, 2)}
	got := dae.Equivalence(p, l, k, "t")
	assert.True(t, got.E.Equal(sym.Identity(2)))
	assert.True(t, got.F.Equal(sym.FromInts([][]int64{{0, 1}, {0, 0}})), "F = %s", got.F)
}

func TestHankeIzquierdoMarz_EndToEnd(t *testing.T) {
	p := pairs.HankeIzquierdoMarz()
	r := newReducer(t)
	res, err := r.Reduce(p.Problem)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ODESteps)
	assert.Equal(t, 2, res.DAESteps)
	assert.True(t, res.Pair.E.Equal(sym.FromInts(dae.SSCF(3, p.LS, dae.Column))), "E_end = %s", res.Pair.E)

	proj, err := r.CanonicalProjector(res.Ks, p.LS)
	require.NoError(t, err)
	assert.True(t, proj.MatMul(proj).Equal(proj))
}

func TestHankeIzquierdoMarz_PreSCF(t *testing.T) {
	p := pairs.HankeIzquierdoMarz()
	pre := dae.Equivalence(untransformed(p), p.L0, p.K0, p.Var)
	assert.NoError(t, newReducer(t).VerifyPreSCF(pre, p.LS))
}

func TestCampbellMoore_PreSCF(t *testing.T) {
	p := pairs.CampbellMoore()
	pre := dae.Equivalence(untransformed(p), p.L0, p.K0, p.Var)
	got, err := pre.E.IntEntries()
	require.NoError(t, err, "E_0 = %s", pre.E)
	assert.Equal(t, dae.SSCF(7, []int{1, 1, 1}, dae.Column), got)
	assert.NoError(t, newReducer(t).VerifyPreSCF(pre, p.LS))
}

func TestCampbellMoore_EndToEnd(t *testing.T) {
	p := pairs.CampbellMoore()
	r := dae.NewReducer[*sym.Matrix](sym.Algebra{}, dae.WithLogger(testutil.NewTestLoggerAt(t, slog.LevelInfo)))
	res, err := r.Reduce(p.Problem)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ODESteps)
	assert.Equal(t, 3, res.DAESteps)

	got, err := res.Pair.E.IntEntries()
	require.NoError(t, err, "E_end = %s", res.Pair.E)
	assert.Equal(t, dae.SSCF(7, p.LS, dae.Column), got)

	// d = 7 − sum(ls) = 4
	assert.True(t, res.Pair.F.Block(0, 4, 4, 7).Equal(sym.NewMatrix(4, 3)), "F_end = %s", res.Pair.F)
	assert.True(t, res.Pair.F.Block(4, 7, 0, 4).Equal(sym.NewMatrix(3, 4)), "F_end = %s", res.Pair.F)

	l := res.Ls[2].MatMul(res.Ls[1]).MatMul(res.Ls[0]).Simplify()
	k := res.Ks[0].MatMul(res.Ks[1]).MatMul(res.Ks[2]).Simplify()
	direct := dae.Equivalence(untransformed(p), l, k, p.Var)
	assert.True(t, direct.E.MatSub(res.Pair.E).Equal(sym.NewMatrix(7, 7)), "E: %s vs %s", direct.E, res.Pair.E)
	assert.True(t, direct.F.MatSub(res.Pair.F).Equal(sym.NewMatrix(7, 7)), "F: %s vs %s", direct.F, res.Pair.F)

	proj, err := r.CanonicalProjector(res.Ks, p.LS)
	require.NoError(t, err)
	assert.True(t, proj.MatMul(proj).Equal(proj), "Π = %s", proj)
}
