package dae

import (
	"fmt"
	"slices"
)

// VerifyPreSCF checks that the leading matrix of p is the constant
// standard-canonical pattern for ls. Every entry must be a literal integer;
// the first one that is not aborts the check with the cause attached.
func (r *Reducer[M]) VerifyPreSCF(p Pair[M], ls []int) error {
	m := p.E.Rows()
	if err := validateLS(m, ls); err != nil {
		return err
	}
	want := SSCF(m, ls, r.orientation)
	mismatch := func(cause error) error {
		return &Error{
			Kind:  ErrStructuralMismatch,
			Stage: StagePreSCF,
			Diagnostics: []Diagnostic{
				{Name: "E_0", Matrix: p.E},
				{Name: "E_sscf", Matrix: r.alg.FromInts(want)},
			},
			Err: cause,
		}
	}
	got, err := p.E.IntEntries()
	if err != nil {
		return mismatch(err)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			return mismatch(fmt.Errorf("row %d is %v, want %v", i, got[i], want[i]))
		}
	}
	return nil
}
