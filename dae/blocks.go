package dae

import "fmt"

// NilpotentShift builds the sum(ls)×sum(ls) shift pattern of the
// characteristic list ls = [l1, θ1, θ2, ...]: identity blocks of size θk at
// a column offset that runs over the θs, starting at l1, and a row offset
// that advances by the previous block size.
//
// The Row orientation is the anti-transpose of the Column pattern.
func NilpotentShift(ls []int, o Orientation) [][]int64 {
	if len(ls) == 0 {
		panic("dae: NilpotentShift needs a non-empty characteristic list")
	}
	n := sum(ls)
	nc := make([][]int64, n)
	for i := range nc {
		nc[i] = make([]int64, n)
	}
	row, col, lk := 0, ls[0], ls[0]
	for _, theta := range ls[1:] {
		for i := 0; i < theta; i++ {
			nc[row+i][col+i] = 1
		}
		row += lk
		col += theta
		lk = theta
	}
	if o == Column {
		return nc
	}
	nr := make([][]int64, n)
	for i := range nr {
		nr[i] = make([]int64, n)
		for j := range nr[i] {
			nr[i][j] = nc[n-1-j][n-1-i]
		}
	}
	return nr
}

// SSCF is the constant leading matrix of the standard canonical form: the
// m×m identity with its trailing sum(ls)×sum(ls) block replaced by the
// nilpotent shift pattern.
func SSCF(m int, ls []int, o Orientation) [][]int64 {
	l := sum(ls)
	if l > m {
		panic(fmt.Sprintf("dae: characteristic list %v exceeds dimension %d", ls, m))
	}
	n := NilpotentShift(ls, o)
	e := make([][]int64, m)
	for i := range e {
		e[i] = make([]int64, m)
		if i < m-l {
			e[i][i] = 1
			continue
		}
		copy(e[i][m-l:], n[i-(m-l)])
	}
	return e
}
