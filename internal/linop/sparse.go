package linop

import (
	"fmt"
	"math"
	"sort"
)

// rows with an L1 norm at or below this are considered empty
const zeroRowTol = 1e-12

// Coord is a single (row, column, value) entry for assembling a sparse
// operator. Duplicate coordinates are summed.
type Coord struct {
	Row, Col int
	Val      float64
}

// CSR is a sparse matrix operator in compressed sparse row form. The
// sparsity pattern is fixed at construction; values at existing positions
// may change, positions may not be added.
type CSR struct {
	h, w   int
	rowPtr []int
	cols   []int
	vals   []float64
}

// NewCSR assembles an h-by-w sparse operator from coordinate entries,
// summing duplicates.
func NewCSR(h, w int, entries []Coord) (*CSR, error) {
	for _, e := range entries {
		if e.Row < 0 || e.Row >= h || e.Col < 0 || e.Col >= w {
			return nil, fmt.Errorf("%w: entry (%d,%d) in %dx%d operator",
				ErrOutOfRange, e.Row, e.Col, h, w)
		}
	}
	sorted := make([]Coord, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	m := &CSR{
		h:      h,
		w:      w,
		rowPtr: make([]int, h+1),
		cols:   make([]int, 0, len(sorted)),
		vals:   make([]float64, 0, len(sorted)),
	}
	for idx, e := range sorted {
		if idx > 0 && sorted[idx-1].Row == e.Row && sorted[idx-1].Col == e.Col {
			m.vals[len(m.vals)-1] += e.Val
			continue
		}
		m.cols = append(m.cols, e.Col)
		m.vals = append(m.vals, e.Val)
		m.rowPtr[e.Row+1]++
	}
	for i := 0; i < h; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
	return m, nil
}

func (m *CSR) Height() int   { return m.h }
func (m *CSR) Width() int    { return m.w }
func (m *CSR) NonZeros() int { return len(m.vals) }

// find returns the storage index of (i, j), or -1 if the position is not
// part of the pattern.
func (m *CSR) find(i, j int) int {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	k := lo + sort.SearchInts(m.cols[lo:hi], j)
	if k < hi && m.cols[k] == j {
		return k
	}
	return -1
}

func (m *CSR) At(i, j int) (float64, error) {
	if err := checkIndex(m, i, j); err != nil {
		return 0, err
	}
	if k := m.find(i, j); k >= 0 {
		return m.vals[k], nil
	}
	return 0, nil
}

func (m *CSR) Set(i, j int, v float64) error {
	if err := checkIndex(m, i, j); err != nil {
		return err
	}
	k := m.find(i, j)
	if k < 0 {
		return fmt.Errorf("%w: set (%d,%d)", ErrStructural, i, j)
	}
	m.vals[k] = v
	return nil
}

func (m *CSR) Apply(x, y []float64) error {
	if err := checkApply(m, x, y); err != nil {
		return err
	}
	for i := 0; i < m.h; i++ {
		s := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			s += m.vals[k] * x[m.cols[k]]
		}
		y[i] = s
	}
	return nil
}

func (m *CSR) ApplyTranspose(x, y []float64) error {
	if err := checkApplyTranspose(m, x, y); err != nil {
		return err
	}
	for j := range y {
		y[j] = 0
	}
	for i := 0; i < m.h; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			y[m.cols[k]] += m.vals[k] * x[i]
		}
	}
	return nil
}

func (m *CSR) AccumulateApply(x, y []float64, scale float64) error {
	if err := checkApply(m, x, y); err != nil {
		return err
	}
	for i := 0; i < m.h; i++ {
		s := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			s += m.vals[k] * x[m.cols[k]]
		}
		y[i] += scale * s
	}
	return nil
}

// Row returns live views into the row's storage; view is always true for
// CSR. The slices are invalidated by structural edits.
func (m *CSR) Row(i int) (cols []int, vals []float64, view bool, err error) {
	if i < 0 || i >= m.h {
		return nil, nil, false, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, m.h)
	}
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	return m.cols[lo:hi], m.vals[lo:hi], true, nil
}

// EliminateZeroRows places a unit diagonal in every row whose L1 norm is
// numerically zero. Idempotent: rows fixed by one call have norm 1 and are
// untouched by the next.
func (m *CSR) EliminateZeroRows() error {
	if m.h != m.w {
		return fmt.Errorf("%w: eliminate zero rows on %dx%d operator",
			ErrDimensionMismatch, m.h, m.w)
	}
	for i := 0; i < m.h; i++ {
		norm := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			norm += math.Abs(m.vals[k])
		}
		if norm > zeroRowTol {
			continue
		}
		d := m.find(i, i)
		if d < 0 {
			return fmt.Errorf("%w: zero row %d has no diagonal entry", ErrStructural, i)
		}
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			m.vals[k] = 0
		}
		m.vals[d] = 1
	}
	return nil
}

// Inverse factorizes the operator with a sparse LU decomposition and
// returns a solver over it. The operator must be square.
func (m *CSR) Inverse() (Operator, error) {
	if m.h != m.w {
		return nil, fmt.Errorf("%w: inverse of %dx%d operator",
			ErrDimensionMismatch, m.h, m.w)
	}
	return newLUInverse(m)
}
