package symbolic_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sym "github.com/njchilds90/quasiscf/symbolic"
)

func rotation() *sym.Matrix {
	x := sym.S("t")
	s, c := sym.SinOf(x), sym.CosOf(x)
	return sym.FromRows(
		[]*sym.Expr{s, c},
		[]*sym.Expr{c.Neg(), s},
	)
}

func TestMatrix_Identity(t *testing.T) {
	assert.Equal(t, "[[1, 0], [0, 1]]", sym.Identity(2).String())
}

func TestMatrix_FromSlice(t *testing.T) {
	m := sym.MatrixFromSlice(2, 2, []*sym.Expr{sym.N(1), sym.N(2), sym.N(3), sym.N(4)})
	assert.Equal(t, "[[1, 2], [3, 4]]", m.String())
	assert.Panics(t, func() { sym.MatrixFromSlice(2, 2, []*sym.Expr{sym.N(1)}) })
}

func TestMatrix_MatMul(t *testing.T) {
	a := sym.FromInts([][]int64{{1, 2}, {3, 4}})
	b := sym.FromInts([][]int64{{0, 1}, {1, 0}})
	assert.Equal(t, "[[2, 1], [4, 3]]", a.MatMul(b).String())
	assert.Panics(t, func() { a.MatMul(sym.NewMatrix(3, 1)) })
}

func TestMatrix_Transpose(t *testing.T) {
	a := sym.FromInts([][]int64{{1, 2, 3}})
	tr := a.Transpose()
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, 1, tr.Cols())
	assert.Equal(t, "[[1], [2], [3]]", tr.String())
}

func TestMatrix_Inverse_Trig(t *testing.T) {
	m := rotation()
	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.True(t, m.MatMul(inv).Equal(sym.Identity(2)))
	assert.True(t, inv.Equal(m.Transpose()))
}

func TestMatrix_Inverse_Rational(t *testing.T) {
	x := sym.S("x")
	m := sym.FromRows(
		[]*sym.Expr{x, sym.N(1)},
		[]*sym.Expr{sym.N(0), x},
	)
	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.True(t, inv.MatMul(m).Simplify().Equal(sym.Identity(2)))
	assert.True(t, inv.Get(0, 1).Equal(x.Pow(-2).Neg()))
}

func TestMatrix_Inverse_Singular(t *testing.T) {
	x := sym.S("t")
	s, c := sym.SinOf(x), sym.CosOf(x)
	m := sym.FromRows(
		[]*sym.Expr{s, c},
		[]*sym.Expr{sym.N(2).Mul(s), sym.N(2).Mul(c)},
	)
	_, err := m.Inverse()
	assert.ErrorIs(t, err, sym.ErrSingular)

	_, err = sym.NewMatrix(2, 3).Inverse()
	assert.ErrorIs(t, err, sym.ErrNonSquare)
}

func TestMatrix_ApplyDiff(t *testing.T) {
	x := sym.S("t")
	d := rotation().ApplyDiff("t")
	s, c := sym.SinOf(x), sym.CosOf(x)
	want := sym.FromRows(
		[]*sym.Expr{c, s.Neg()},
		[]*sym.Expr{s, c},
	)
	assert.True(t, d.Equal(want))
}

func TestMatrix_Blocks(t *testing.T) {
	m := sym.FromInts([][]int64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	assert.Equal(t, "[[5, 6], [8, 9]]", m.Block(1, 3, 1, 3).String())
	assert.Equal(t, "[[2, 3]]", m.Block(0, 1, 1, 3).String())

	w := m.WithBlock(0, 1, sym.FromInts([][]int64{{0, 0}}))
	assert.Equal(t, "[[1, 0, 0], [4, 5, 6], [7, 8, 9]]", w.String())
	assert.Equal(t, "[[1, 2, 3], [4, 5, 6], [7, 8, 9]]", m.String(), "WithBlock must not modify the receiver")

	assert.Panics(t, func() { m.Block(0, 4, 0, 1) })
	assert.Panics(t, func() { m.WithBlock(2, 2, sym.Identity(2)) })
}

func TestMatrix_IntEntries(t *testing.T) {
	got, err := sym.FromInts([][]int64{{1, 0}, {0, -3}}).IntEntries()
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 0}, {0, -3}}, got)

	x := sym.S("t")
	s, c := sym.SinOf(x), sym.CosOf(x)
	one := sym.FromRows([]*sym.Expr{s.Mul(s).Add(c.Mul(c)), sym.N(0)})
	got, err = one.IntEntries()
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 0}}, got)

	_, err = sym.FromRows([]*sym.Expr{sym.N(1), x}).IntEntries()
	require.ErrorIs(t, err, sym.ErrNotInteger)
	assert.Contains(t, err.Error(), "(0,1)")
}

func TestMatrix_Eval(t *testing.T) {
	d, err := rotation().Eval(map[string]float64{"t": 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, d.At(0, 1), 1e-12)
	assert.InDelta(t, -1.0, d.At(1, 0), 1e-12)

	_, err = rotation().Eval(nil)
	assert.ErrorIs(t, err, sym.ErrUnbound)
	_, err = sym.NewMatrix(0, 0).Eval(nil)
	assert.ErrorIs(t, err, sym.ErrEmpty)
}

func TestMatrix_LaTeX(t *testing.T) {
	assert.Equal(t, `\begin{pmatrix}1 & 0 \\ 0 & 1\end{pmatrix}`, sym.Identity(2).LaTeX())
}

func TestMatrix_Marshal(t *testing.T) {
	m := sym.FromRows([]*sym.Expr{sym.S("t"), sym.F(1, 2)})
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `[["t","1/2"]]`, string(b))

	y, err := yaml.Marshal(m)
	require.NoError(t, err)
	var back [][]string
	require.NoError(t, yaml.Unmarshal(y, &back))
	assert.Equal(t, [][]string{{"t", "1/2"}}, back)
}

func TestAlgebra(t *testing.T) {
	var alg sym.Algebra
	assert.True(t, alg.Identity(3).Equal(sym.Identity(3)))
	assert.Equal(t, "[[0, 0]]", alg.Zeros(1, 2).String())
	assert.Equal(t, "[[0, 1]]", alg.FromInts([][]int64{{0, 1}}).String())
}
