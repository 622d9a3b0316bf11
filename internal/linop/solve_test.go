package linop

import (
	"errors"
	"math"
	"testing"
)

// laplacian1D assembles the n-by-n tridiagonal (-1, 2, -1) matrix, the
// usual symmetric positive definite test operator.
func laplacian1D(t *testing.T, n int) *CSR {
	t.Helper()
	var entries []Coord
	for i := 0; i < n; i++ {
		entries = append(entries, Coord{Row: i, Col: i, Val: 2})
		if i > 0 {
			entries = append(entries, Coord{Row: i, Col: i - 1, Val: -1})
		}
		if i < n-1 {
			entries = append(entries, Coord{Row: i, Col: i + 1, Val: -1})
		}
	}
	m, err := NewCSR(n, n, entries)
	if err != nil {
		t.Fatalf("assemble laplacian: %v", err)
	}
	return m
}

func TestCGSolvesSPDSystem(t *testing.T) {
	a := laplacian1D(t, 20)
	cg, err := NewCG(a, 1e-12, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	x := randomVec(20, 21)
	y := make([]float64, 20)
	back := make([]float64, 20)
	if err := cg.Apply(x, y); err != nil {
		t.Fatalf("solve: %v", err)
	}
	if err := a.Apply(y, back); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if d := maxDiff(back, x); d > 1e-9 {
		t.Errorf("A*(cg x) deviates from x by %g", d)
	}

	// transpose solve is the same solve for a symmetric source
	yt := make([]float64, 20)
	if err := cg.ApplyTranspose(x, yt); err != nil {
		t.Fatalf("transpose solve: %v", err)
	}
	if d := maxDiff(y, yt); d > 1e-9 {
		t.Errorf("transpose solve deviates by %g", d)
	}
}

func TestCGZeroRightHandSide(t *testing.T) {
	cg, err := NewCG(laplacian1D(t, 5), 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	y := []float64{1, 1, 1, 1, 1}
	if err := cg.Apply(make([]float64, 5), y); err != nil {
		t.Fatalf("solve: %v", err)
	}
	for i, v := range y {
		if v != 0 {
			t.Errorf("y[%d] = %g, want 0", i, v)
		}
	}
}

func TestCGRejectsIndefiniteOperator(t *testing.T) {
	neg, err := NewCSR(3, 3, []Coord{
		{Row: 0, Col: 0, Val: -1},
		{Row: 1, Col: 1, Val: -1},
		{Row: 2, Col: 2, Val: -1},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	cg, err := NewCG(neg, 0, 0)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := cg.Apply([]float64{1, 2, 3}, make([]float64, 3)); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestCGIterationBudget(t *testing.T) {
	cg, err := NewCG(laplacian1D(t, 30), 1e-12, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	x := make([]float64, 30)
	for i := range x {
		x[i] = 1
	}
	if err := cg.Apply(x, make([]float64, 30)); !errors.Is(err, ErrNotConverged) {
		t.Errorf("expected ErrNotConverged, got %v", err)
	}
}

func TestCGRequiresSquare(t *testing.T) {
	rect, _ := randomCSR(t, 3, 4, 22)
	if _, err := NewCG(rect, 0, 0); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLUInverseSolves(t *testing.T) {
	// diagonally dominant and deliberately non-symmetric
	a, err := NewCSR(4, 4, []Coord{
		{Row: 0, Col: 0, Val: 5}, {Row: 0, Col: 1, Val: 1},
		{Row: 1, Col: 0, Val: -2}, {Row: 1, Col: 1, Val: 6}, {Row: 1, Col: 3, Val: 1},
		{Row: 2, Col: 2, Val: 4}, {Row: 2, Col: 1, Val: 1},
		{Row: 3, Col: 3, Val: 7}, {Row: 3, Col: 2, Val: -3},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	inv, err := a.Inverse()
	if err != nil {
		t.Fatalf("factorize: %v", err)
	}

	x := []float64{1, 2, -1, 0.5}
	y := make([]float64, 4)
	back := make([]float64, 4)
	if err := inv.Apply(x, y); err != nil {
		t.Fatalf("solve: %v", err)
	}
	if err := a.Apply(y, back); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if d := maxDiff(back, x); d > 1e-10 {
		t.Errorf("A*(inv x) deviates from x by %g", d)
	}

	yt := make([]float64, 4)
	backT := make([]float64, 4)
	if err := inv.ApplyTranspose(x, yt); err != nil {
		t.Fatalf("transpose solve: %v", err)
	}
	if err := a.ApplyTranspose(yt, backT); err != nil {
		t.Fatalf("verify transpose: %v", err)
	}
	if d := maxDiff(backT, x); d > 1e-10 {
		t.Errorf("A'*(inv' x) deviates from x by %g", d)
	}

	acc := []float64{1, 1, 1, 1}
	if err := inv.AccumulateApply(x, acc, -1); err != nil {
		t.Fatalf("accumulate solve: %v", err)
	}
	for i := range acc {
		want := 1 - y[i]
		if math.Abs(acc[i]-want) > 1e-10 {
			t.Errorf("accumulate solve[%d] = %g, want %g", i, acc[i], want)
		}
	}
}

func TestLUInverseIndependentOfSource(t *testing.T) {
	a := laplacian1D(t, 6)
	inv, err := a.Inverse()
	if err != nil {
		t.Fatalf("factorize: %v", err)
	}

	x := randomVec(6, 23)
	want := make([]float64, 6)
	if err := inv.Apply(x, want); err != nil {
		t.Fatalf("solve: %v", err)
	}

	// edits to the source must not leak into an existing factorization
	if err := a.Set(0, 0, 100); err != nil {
		t.Fatalf("edit source: %v", err)
	}
	got := make([]float64, 6)
	if err := inv.Apply(x, got); err != nil {
		t.Fatalf("solve after edit: %v", err)
	}
	if d := maxDiff(got, want); d != 0 {
		t.Errorf("factorization drifted with its source by %g", d)
	}
}

func TestMaxEigenvalue(t *testing.T) {
	diag, err := NewCSR(4, 4, []Coord{
		{Row: 0, Col: 0, Val: 1},
		{Row: 1, Col: 1, Val: 7},
		{Row: 2, Col: 2, Val: 3},
		{Row: 3, Col: 3, Val: 2},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	lambda, err := MaxEigenvalue(diag, 500, 1)
	if err != nil {
		t.Fatalf("power iteration: %v", err)
	}
	if math.Abs(lambda-7) > 1e-6 {
		t.Errorf("diagonal spectrum: got %g, want 7", lambda)
	}

	n := 8
	want := 2 - 2*math.Cos(float64(n)*math.Pi/float64(n+1))
	lambda, err = MaxEigenvalue(laplacian1D(t, n), 2000, 1)
	if err != nil {
		t.Fatalf("power iteration: %v", err)
	}
	if math.Abs(lambda-want) > 1e-5 {
		t.Errorf("laplacian spectrum: got %g, want %g", lambda, want)
	}
}

func TestMaxEigenvalueIsDeterministic(t *testing.T) {
	a := laplacian1D(t, 12)
	l1, err := MaxEigenvalue(a, 300, 42)
	if err != nil {
		t.Fatalf("power iteration: %v", err)
	}
	l2, err := MaxEigenvalue(a, 300, 42)
	if err != nil {
		t.Fatalf("power iteration: %v", err)
	}
	if l1 != l2 {
		t.Errorf("same seed gave %g and %g", l1, l2)
	}
}

func TestMaxEigenvalueRequiresSquare(t *testing.T) {
	rect, _ := randomCSR(t, 3, 4, 24)
	if _, err := MaxEigenvalue(rect, 100, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
