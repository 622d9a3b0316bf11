package linop

import "fmt"

// Operator is an opaque linear map with a fixed output dimension (height)
// and input dimension (width). Both are immutable after construction and
// every apply call is checked against them.
type Operator interface {
	Height() int
	Width() int

	// Apply computes y = A*x. len(x) must equal Width, len(y) Height.
	Apply(x, y []float64) error

	// ApplyTranspose computes y = A'*x, with the dimension contract of
	// Apply swapped.
	ApplyTranspose(x, y []float64) error

	// AccumulateApply computes y += scale*A*x without temporaries. x and
	// y must not alias.
	AccumulateApply(x, y []float64, scale float64) error
}

// Matrix extends Operator with element access and an approximate inverse.
type Matrix interface {
	Operator

	// At returns the element at (i, j). Sparse implementations report
	// zero for in-range positions outside their pattern.
	At(i, j int) (float64, error)

	// Set writes the element at (i, j). Sparse implementations only
	// accept positions already in their pattern.
	Set(i, j int, v float64) error

	// Inverse returns an operator that solves A*y = x to a fixed
	// tolerance, not a literal inverse. The result records only the
	// square dimension of its source and must not be reused after the
	// source has been structurally rebuilt.
	Inverse() (Operator, error)
}

// SparseMatrix extends Matrix with sparsity-aware operations.
type SparseMatrix interface {
	Matrix

	// NonZeros reports the number of stored entries.
	NonZeros() int

	// Row returns the column indices and values of row i. view reports
	// whether the returned slices alias internal storage, in which case
	// the caller must not mutate them or hold them across edits.
	Row(i int) (cols []int, vals []float64, view bool, err error)

	// EliminateZeroRows replaces every row whose L1 norm is numerically
	// zero with a unit diagonal entry. The matrix must be square and the
	// diagonal position of such a row must already be part of the
	// sparsity pattern; this is a destructive structural edit.
	EliminateZeroRows() error
}

func checkApply(a Operator, x, y []float64) error {
	if len(x) != a.Width() || len(y) != a.Height() {
		return fmt.Errorf("%w: %dx%d operator applied with len(x)=%d len(y)=%d",
			ErrDimensionMismatch, a.Height(), a.Width(), len(x), len(y))
	}
	return nil
}

func checkApplyTranspose(a Operator, x, y []float64) error {
	if len(x) != a.Height() || len(y) != a.Width() {
		return fmt.Errorf("%w: %dx%d operator transpose-applied with len(x)=%d len(y)=%d",
			ErrDimensionMismatch, a.Height(), a.Width(), len(x), len(y))
	}
	return nil
}

func checkIndex(a Operator, i, j int) error {
	if i < 0 || i >= a.Height() || j < 0 || j >= a.Width() {
		return fmt.Errorf("%w: (%d,%d) in %dx%d operator",
			ErrOutOfRange, i, j, a.Height(), a.Width())
	}
	return nil
}
