package linop

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// luInverse solves A*y = x through a sparse LU factorization. It copies
// the source values at construction, so the source may be rebuilt freely;
// the caller must then discard this inverse and build a fresh one. A
// factorization of the transpose is built lazily on first ApplyTranspose.
type luInverse struct {
	n        int
	fw       *sparse.Matrix
	bw       *sparse.Matrix
	bwFacted bool
	rhs      []float64
}

func sparseConfig() *sparse.Configuration {
	return &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		TiesMultiplier: 5,
	}
}

func newLUInverse(a *CSR) (*luInverse, error) {
	n := a.h
	fw, err := sparse.Create(int64(n), sparseConfig())
	if err != nil {
		return nil, fmt.Errorf("linop: create factorization: %w", err)
	}
	bw, err := sparse.Create(int64(n), sparseConfig())
	if err != nil {
		return nil, fmt.Errorf("linop: create transpose factorization: %w", err)
	}
	for i := 0; i < n; i++ {
		cols, vals, _, _ := a.Row(i)
		for k, j := range cols {
			// the solver library uses 1-based indices
			fw.GetElement(int64(i+1), int64(j+1)).Real += vals[k]
			bw.GetElement(int64(j+1), int64(i+1)).Real += vals[k]
		}
	}
	if err := fw.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &luInverse{n: n, fw: fw, bw: bw, rhs: make([]float64, n+1)}, nil
}

func (v *luInverse) Height() int { return v.n }
func (v *luInverse) Width() int  { return v.n }

func (v *luInverse) Apply(x, y []float64) error {
	if err := checkApply(v, x, y); err != nil {
		return err
	}
	return v.solve(v.fw, x, y)
}

func (v *luInverse) ApplyTranspose(x, y []float64) error {
	if err := checkApplyTranspose(v, x, y); err != nil {
		return err
	}
	if !v.bwFacted {
		if err := v.bw.Factor(); err != nil {
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}
		v.bwFacted = true
	}
	return v.solve(v.bw, x, y)
}

func (v *luInverse) AccumulateApply(x, y []float64, scale float64) error {
	if err := checkApply(v, x, y); err != nil {
		return err
	}
	tmp := make([]float64, v.n)
	if err := v.solve(v.fw, x, tmp); err != nil {
		return err
	}
	for i := range y {
		y[i] += scale * tmp[i]
	}
	return nil
}

func (v *luInverse) solve(m *sparse.Matrix, x, y []float64) error {
	for i := range x {
		v.rhs[i+1] = x[i]
	}
	sol, err := m.Solve(v.rhs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	copy(y, sol[1:v.n+1])
	return nil
}
