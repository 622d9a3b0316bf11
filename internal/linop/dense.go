package linop

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dense is a dense matrix operator backed by gonum.
type Dense struct {
	h, w int
	m    *mat.Dense
}

// NewDense returns a zero h-by-w dense operator.
func NewDense(h, w int) *Dense {
	return &Dense{h: h, w: w, m: mat.NewDense(h, w, nil)}
}

// NewDenseFrom builds a dense operator from row-major data. The data is
// copied.
func NewDenseFrom(h, w int, data []float64) (*Dense, error) {
	if len(data) != h*w {
		return nil, fmt.Errorf("%w: %dx%d dense from %d values",
			ErrDimensionMismatch, h, w, len(data))
	}
	d := make([]float64, len(data))
	copy(d, data)
	return &Dense{h: h, w: w, m: mat.NewDense(h, w, d)}, nil
}

func (d *Dense) Height() int { return d.h }
func (d *Dense) Width() int  { return d.w }

func (d *Dense) At(i, j int) (float64, error) {
	if err := checkIndex(d, i, j); err != nil {
		return 0, err
	}
	return d.m.At(i, j), nil
}

func (d *Dense) Set(i, j int, v float64) error {
	if err := checkIndex(d, i, j); err != nil {
		return err
	}
	d.m.Set(i, j, v)
	return nil
}

func (d *Dense) Apply(x, y []float64) error {
	if err := checkApply(d, x, y); err != nil {
		return err
	}
	yv := mat.NewVecDense(len(y), y)
	yv.MulVec(d.m, mat.NewVecDense(len(x), x))
	return nil
}

func (d *Dense) ApplyTranspose(x, y []float64) error {
	if err := checkApplyTranspose(d, x, y); err != nil {
		return err
	}
	yv := mat.NewVecDense(len(y), y)
	yv.MulVec(d.m.T(), mat.NewVecDense(len(x), x))
	return nil
}

func (d *Dense) AccumulateApply(x, y []float64, scale float64) error {
	if err := checkApply(d, x, y); err != nil {
		return err
	}
	for i := 0; i < d.h; i++ {
		s := 0.0
		for j := 0; j < d.w; j++ {
			s += d.m.At(i, j) * x[j]
		}
		y[i] += scale * s
	}
	return nil
}

// Inverse factorizes the operator with an LU decomposition and returns a
// solver over it. The operator must be square.
func (d *Dense) Inverse() (Operator, error) {
	if d.h != d.w {
		return nil, fmt.Errorf("%w: inverse of %dx%d operator",
			ErrDimensionMismatch, d.h, d.w)
	}
	var lu mat.LU
	lu.Factorize(d.m)
	return &denseInverse{n: d.h, lu: &lu}, nil
}

// denseInverse solves A*y = x through a dense LU factorization. It keeps
// the factorization and the source dimension only.
type denseInverse struct {
	n  int
	lu *mat.LU
}

func (v *denseInverse) Height() int { return v.n }
func (v *denseInverse) Width() int  { return v.n }

func (v *denseInverse) Apply(x, y []float64) error {
	return v.solve(x, y, false)
}

func (v *denseInverse) ApplyTranspose(x, y []float64) error {
	return v.solve(x, y, true)
}

func (v *denseInverse) AccumulateApply(x, y []float64, scale float64) error {
	if err := checkApply(v, x, y); err != nil {
		return err
	}
	tmp := make([]float64, v.n)
	if err := v.solve(x, tmp, false); err != nil {
		return err
	}
	for i := range y {
		y[i] += scale * tmp[i]
	}
	return nil
}

func (v *denseInverse) solve(x, y []float64, trans bool) error {
	if err := checkApply(v, x, y); err != nil {
		return err
	}
	yv := mat.NewVecDense(len(y), y)
	if err := v.lu.SolveVecTo(yv, trans, mat.NewVecDense(len(x), x)); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}
