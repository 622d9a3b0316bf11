// Package linop provides the abstract linear-operator contract shared by
// every solver-facing matrix in emfield, together with concrete dense and
// sparse implementations and approximate inverses.
//
// The central abstraction is [Operator]: an opaque linear map with a fixed
// height (output dimension) and width (input dimension). The time
// integration core only ever sees this contract, so an operator may be
// dense, sparse, or matrix-free without the integrator knowing which.
//
// Capabilities stack as interfaces:
//
//   - [Operator]: Apply, ApplyTranspose, AccumulateApply
//   - [Matrix]: element access plus Inverse
//   - [SparseMatrix]: non-zero count, row extraction, zero-row elimination
//
// Inverses returned by Inverse solve A*y = x to a fixed tolerance; they are
// never exact algebra. An inverse records the dimension of its source at
// construction time and is invalid once the source has been structurally
// rebuilt; callers must not cache one across a refinement event.
package linop
