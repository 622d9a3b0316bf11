package linop

import (
	"fmt"
	"math"
)

// CG is an iterative inverse for symmetric positive definite operators.
// It needs only the Operator capability of its source, so it also serves
// matrix-free and distributed operators. Each Apply runs a conjugate
// gradient solve to the configured relative tolerance.
//
// Like every inverse in this package, a CG built before a structural
// rebuild of its source must not be used afterwards.
type CG struct {
	n       int
	op      Operator
	tol     float64
	maxIter int

	r, p, ap []float64
}

// NewCG wraps a square symmetric positive definite operator in a
// conjugate gradient solver. A non-positive tol defaults to 1e-10, a
// non-positive maxIter to twice the dimension.
func NewCG(a Operator, tol float64, maxIter int) (*CG, error) {
	if a.Height() != a.Width() {
		return nil, fmt.Errorf("%w: iterative inverse of %dx%d operator",
			ErrDimensionMismatch, a.Height(), a.Width())
	}
	n := a.Height()
	if tol <= 0 {
		tol = 1e-10
	}
	if maxIter <= 0 {
		maxIter = 2 * n
	}
	return &CG{
		n:       n,
		op:      a,
		tol:     tol,
		maxIter: maxIter,
		r:       make([]float64, n),
		p:       make([]float64, n),
		ap:      make([]float64, n),
	}, nil
}

func (c *CG) Height() int { return c.n }
func (c *CG) Width() int  { return c.n }

func (c *CG) Apply(x, y []float64) error {
	if err := checkApply(c, x, y); err != nil {
		return err
	}
	return c.solve(x, y)
}

// ApplyTranspose equals Apply: the source operator is symmetric by
// contract.
func (c *CG) ApplyTranspose(x, y []float64) error {
	if err := checkApplyTranspose(c, x, y); err != nil {
		return err
	}
	return c.solve(x, y)
}

func (c *CG) AccumulateApply(x, y []float64, scale float64) error {
	if err := checkApply(c, x, y); err != nil {
		return err
	}
	tmp := make([]float64, c.n)
	if err := c.solve(x, tmp); err != nil {
		return err
	}
	for i := range y {
		y[i] += scale * tmp[i]
	}
	return nil
}

// solve runs CG on op*y = x from a zero initial guess.
func (c *CG) solve(x, y []float64) error {
	for i := range y {
		y[i] = 0
	}
	bNorm := 0.0
	for i := range x {
		c.r[i] = x[i]
		c.p[i] = x[i]
		bNorm += x[i] * x[i]
	}
	bNorm = math.Sqrt(bNorm)
	if bNorm == 0 {
		return nil
	}

	rr := bNorm * bNorm
	for iter := 0; iter < c.maxIter; iter++ {
		if math.Sqrt(rr) <= c.tol*bNorm {
			return nil
		}
		if err := c.op.Apply(c.p, c.ap); err != nil {
			return err
		}
		pap := 0.0
		for i := range c.p {
			pap += c.p[i] * c.ap[i]
		}
		if pap <= 0 {
			return fmt.Errorf("%w: operator is not positive definite", ErrSingular)
		}
		alpha := rr / pap
		rrnew := 0.0
		for i := range y {
			y[i] += alpha * c.p[i]
			c.r[i] -= alpha * c.ap[i]
			rrnew += c.r[i] * c.r[i]
		}
		beta := rrnew / rr
		for i := range c.p {
			c.p[i] = c.r[i] + beta*c.p[i]
		}
		rr = rrnew
	}
	if math.Sqrt(rr) <= c.tol*bNorm {
		return nil
	}
	return fmt.Errorf("%w: residual %.3e after %d iterations",
		ErrNotConverged, math.Sqrt(rr)/bNorm, c.maxIter)
}
