package dae

import (
	"fmt"
	"strings"
)

// Matrix is the symbolic matrix capability the engine runs on. Every method
// returns a fresh value; the engine never mutates a matrix it was given.
type Matrix[M any] interface {
	Rows() int
	Cols() int
	MatMul(other M) M
	MatAdd(other M) M
	Neg() M
	Transpose() M
	// Inverse fails when the matrix is singular.
	Inverse() (M, error)
	// ApplyDiff differentiates entry-wise with respect to varName.
	ApplyDiff(varName string) M
	Simplify() M
	// Equal compares entries after simplification.
	Equal(other M) bool
	// Block returns rows [r0,r1) and columns [c0,c1).
	Block(r0, r1, c0, c1 int) M
	// WithBlock returns a copy with b written at (r0, c0).
	WithBlock(r0, c0 int, b M) M
	// IntEntries fails on the first entry that is not a literal integer.
	IntEntries() ([][]int64, error)
	String() string
}

// Algebra builds the constant matrices the engine needs.
type Algebra[M any] interface {
	Identity(n int) M
	Zeros(rows, cols int) M
	FromInts(a [][]int64) M
}

// Pair is the DAE E(t)x'(t) = F(t)x(t).
type Pair[M any] struct {
	E, F M
}

// Problem is one reduction input: the pair, the PreSCF transformation
// (K0, L0), the characteristic list and the independent variable.
type Problem[M any] struct {
	Name   string
	E, F   M
	K0, L0 M
	LS     []int
	Var    string
}

// Stage is the outcome of one reduction stage: the transformed pair and the
// accumulated transformations of that stage alone.
type Stage[M any] struct {
	Pair  Pair[M]
	K, L  M
	Steps int
}

// Result is the QuasiSCF of a problem. Ks and Ls hold the PreSCF, ODE-stage
// and DAE-stage transformations in application order.
type Result[M any] struct {
	Pair     Pair[M]
	Ks, Ls   [3]M
	ODESteps int
	DAESteps int
}

// Orientation selects the column or row form of the nilpotent pattern.
type Orientation int

const (
	Column Orientation = iota
	Row
)

func (o Orientation) String() string {
	if o == Row {
		return "row"
	}
	return "column"
}

// ParseOrientation accepts "column"/"col" and "row".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "column", "col":
		return Column, nil
	case "row":
		return Row, nil
	}
	return Column, fmt.Errorf("ParseOrientation: %q: %w", s, ErrInvalidProblem)
}

func sum(ls []int) int {
	s := 0
	for _, l := range ls {
		s += l
	}
	return s
}
