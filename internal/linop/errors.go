package linop

import "errors"

// Domain errors for operator algebra. All are caller bugs or fatal
// conditions; nothing here is retried.
var (
	// ErrDimensionMismatch indicates an operator applied to a vector of
	// the wrong length, or a shape-incompatible operation.
	ErrDimensionMismatch = errors.New("linop: dimension mismatch")

	// ErrOutOfRange indicates element access outside the declared shape.
	ErrOutOfRange = errors.New("linop: index out of range")

	// ErrStructural indicates a structural edit at a position that is not
	// part of the sparsity pattern.
	ErrStructural = errors.New("linop: position outside sparsity pattern")

	// ErrSingular indicates a factorization or solve hit a numerically
	// singular matrix.
	ErrSingular = errors.New("linop: matrix is singular to working precision")

	// ErrNotConverged indicates an iterative solve exhausted its iteration
	// budget before reaching its tolerance.
	ErrNotConverged = errors.New("linop: iterative solve did not converge")
)
