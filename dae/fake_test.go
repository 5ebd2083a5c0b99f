package dae_test

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// dense is a constant matrix algebra backed by gonum. Derivatives are zero,
// so it exercises the bookkeeping of the engine without symbolic work.
type dense struct{ m *mat.Dense }

const tol = 1e-12

func newDense(rows [][]float64) dense {
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		out.SetRow(i, r)
	}
	return dense{out}
}

func (d dense) Rows() int {
	r, _ := d.m.Dims()
	return r
}

func (d dense) Cols() int {
	_, c := d.m.Dims()
	return c
}

func (d dense) MatMul(o dense) dense {
	var out mat.Dense
	out.Mul(d.m, o.m)
	return dense{&out}
}

func (d dense) MatAdd(o dense) dense {
	var out mat.Dense
	out.Add(d.m, o.m)
	return dense{&out}
}

func (d dense) Neg() dense {
	var out mat.Dense
	out.Scale(-1, d.m)
	return dense{&out}
}

func (d dense) Transpose() dense { return dense{mat.DenseCopyOf(d.m.T())} }

func (d dense) Inverse() (dense, error) {
	var out mat.Dense
	if err := out.Inverse(d.m); err != nil {
		return dense{}, err
	}
	return dense{&out}, nil
}

func (d dense) ApplyDiff(string) dense {
	return dense{mat.NewDense(d.Rows(), d.Cols(), nil)}
}

func (d dense) Simplify() dense { return dense{mat.DenseCopyOf(d.m)} }

func (d dense) Equal(o dense) bool { return mat.EqualApprox(d.m, o.m, tol) }

func (d dense) Block(r0, r1, c0, c1 int) dense {
	return dense{mat.DenseCopyOf(d.m.Slice(r0, r1, c0, c1))}
}

func (d dense) WithBlock(r0, c0 int, b dense) dense {
	out := mat.DenseCopyOf(d.m)
	out.Slice(r0, r0+b.Rows(), c0, c0+b.Cols()).(*mat.Dense).Copy(b.m)
	return dense{out}
}

func (d dense) IntEntries() ([][]int64, error) {
	out := make([][]int64, d.Rows())
	for i := range out {
		out[i] = make([]int64, d.Cols())
		for j := range out[i] {
			v := d.m.At(i, j)
			if math.Abs(v-math.Round(v)) > tol {
				return nil, fmt.Errorf("entry (%d,%d) = %g is not an integer", i, j, v)
			}
			out[i][j] = int64(math.Round(v))
		}
	}
	return out, nil
}

func (d dense) String() string { return fmt.Sprintf("%v", mat.Formatted(d.m, mat.Squeeze())) }

type denseAlgebra struct{}

func (denseAlgebra) Identity(n int) dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return dense{out}
}

func (denseAlgebra) Zeros(rows, cols int) dense { return dense{mat.NewDense(rows, cols, nil)} }

func (denseAlgebra) FromInts(a [][]int64) dense {
	out := mat.NewDense(len(a), len(a[0]), nil)
	for i := range a {
		for j, v := range a[i] {
			out.Set(i, j, float64(v))
		}
	}
	return dense{out}
}
