package symbolic

import (
	"errors"
	"fmt"
)

// Sentinel errors. Programmer errors (zero denominators in constructors,
// malformed generator arguments, shape mismatches in arithmetic) panic with
// a "symbolic:" prefix instead.
var (
	// ErrSingular is returned by Inverse when no non-zero pivot exists.
	ErrSingular = errors.New("symbolic: matrix is singular")

	// ErrNonSquare is returned when a square matrix is required.
	ErrNonSquare = errors.New("symbolic: matrix is not square")

	// ErrNotInteger marks an entry that is not a literal integer constant.
	ErrNotInteger = errors.New("symbolic: entry is not an integer constant")

	// ErrUnbound is returned by Eval when a symbol has no value.
	ErrUnbound = errors.New("symbolic: unbound symbol")

	// ErrNotFinite is returned by Eval when a value is NaN or infinite.
	ErrNotFinite = errors.New("symbolic: value is not finite")

	// ErrEmpty is returned by Eval for matrices without rows or columns.
	ErrEmpty = errors.New("symbolic: empty matrix")
)

func unboundError(name string) error {
	return fmt.Errorf("%q: %w", name, ErrUnbound)
}
