package linop

import (
	"fmt"
	"math"
	"math/rand"
)

// MaxEigenvalue estimates the largest eigenvalue of a square operator by
// power iteration. The operator is expected to be self-adjoint with a
// non-negative spectrum (as for curl-curl products); only Apply is used.
// The start vector is seeded so the estimate is reproducible across
// processes.
func MaxEigenvalue(a Operator, iters int, seed int64) (float64, error) {
	if a.Height() != a.Width() {
		return 0, fmt.Errorf("%w: eigenvalue of %dx%d operator",
			ErrDimensionMismatch, a.Height(), a.Width())
	}
	n := a.Height()
	if n == 0 {
		return 0, nil
	}
	if iters <= 0 {
		iters = 100
	}

	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.Float64() - 0.5
	}
	normalize(x)

	lambda := 0.0
	for k := 0; k < iters; k++ {
		if err := a.Apply(x, y); err != nil {
			return 0, err
		}
		next := norm(y)
		if next == 0 {
			return 0, nil
		}
		for i := range x {
			x[i] = y[i] / next
		}
		if k > 0 && math.Abs(next-lambda) <= 1e-12*next {
			return next, nil
		}
		lambda = next
	}
	return lambda, nil
}

func norm(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func normalize(v []float64) {
	n := norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}
