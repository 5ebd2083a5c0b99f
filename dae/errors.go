package dae

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every failure of a run is fatal; callers match the kind
// with errors.Is and recover the offending matrices with errors.As(*Error).
var (
	// ErrInvalidProblem rejects inputs that break the shape or
	// characteristic-list invariants before any computation starts.
	ErrInvalidProblem = errors.New("dae: invalid problem")

	// ErrStructuralMismatch means the PreSCF leading matrix is not the
	// canonical constant block pattern.
	ErrStructuralMismatch = errors.New("dae: leading matrix is not the canonical block structure")

	// ErrSingularBlock means F22 could not be inverted during a reduction step.
	ErrSingularBlock = errors.New("dae: singular F22 block")

	// ErrNotInvertible means a transformation that must be inverted is singular.
	ErrNotInvertible = errors.New("dae: transformation is not invertible")
)

// Stage names used in errors and logs.
const (
	StagePreSCF    = "prescf"
	StageODE       = "ode-reduction"
	StageDAE       = "dae-reduction"
	StageProjector = "projector"
)

// Diagnostic is a named matrix attached to an error for inspection.
type Diagnostic struct {
	Name   string
	Matrix fmt.Stringer
}

// Error is the failure of a reduction run.
type Error struct {
	Kind        error // one of the sentinels above
	Stage       string
	Iteration   int // 1-based; 0 outside the reduction loops
	Diagnostics []Diagnostic
	Err         error // cause reported by the symbolic layer, may be nil
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Stage)
	if e.Iteration > 0 {
		fmt.Fprintf(&sb, " iteration %d", e.Iteration)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Report renders the diagnostics one per line.
func (e *Error) Report() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&sb, "\n%s = %s", d.Name, d.Matrix)
	}
	return sb.String()
}
