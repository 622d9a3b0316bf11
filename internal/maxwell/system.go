// Package maxwell implements a one-dimensional staggered-grid
// electromagnetic field system satisfying the fieldop contracts: E on
// grid nodes, B on cell midpoints, coupled by a sparse difference curl.
package maxwell

import (
	"fmt"
	"math"

	"emfield/internal/fieldop"
	"emfield/internal/linop"
)

// power-iteration budget and seed for the stability bound; the seed is
// fixed so every process derives the same bound without communication
const (
	eigIters = 200
	eigSeed  = 1
)

// System is a 1D Maxwell field system on n cells of size dx. The
// semi-discrete form is
//
//	dB/dt = C*E
//	M*dE/dt = -dx*C'*(muInv.*B) - S*E - J(t)
//
// with C the signed difference curl, M the permittivity mass matrix and S
// the lumped conductivity matrix. The pairing of C with its transpose
// makes the lossless source-free system conserve the discrete energy
// exactly in the semi-discrete limit.
type System struct {
	prob Problem

	n  int
	dx float64
	t  float64

	e []float64 // n+1 nodal E dofs
	b []float64 // n cell B dofs

	muInv   []float64 // per cell
	epsNode []float64 // per node, diagnostics only
	sigma   []float64 // per node, lumped

	negCurl  *linop.CSR
	massEps  *linop.CSR
	nodeW    []float64 // nodal quadrature weights

	// factorized (M + dt*S) per effective sub-step size; higher-order
	// compositions use several distinct ones
	solvers map[float64]linop.Operator

	hBuf []float64
	rhs  []float64

	// derived fields, refreshed by SyncDerivedFields
	hField []float64
	dField []float64
}

var _ fieldop.System = (*System)(nil)

// NewSystem discretizes the problem. At least 3 cells and a positive
// length are required.
func NewSystem(prob Problem) (*System, error) {
	if prob.Cells < 3 || prob.Length <= 0 {
		return nil, fmt.Errorf("maxwell: need at least 3 cells and positive length, got %d and %g",
			prob.Cells, prob.Length)
	}
	s := &System{prob: prob, n: prob.Cells}
	if err := s.discretize(); err != nil {
		return nil, err
	}
	s.e = make([]float64, s.n+1)
	s.b = make([]float64, s.n)
	return s, nil
}

// discretize samples materials and rebuilds every operator for the
// current cell count. Field storage is left alone.
func (s *System) discretize() error {
	n := s.n
	s.dx = s.prob.Length / float64(n)

	s.muInv = make([]float64, n)
	s.epsNode = make([]float64, n+1)
	s.sigma = make([]float64, n+1)
	s.nodeW = make([]float64, n+1)

	for i := 0; i < n; i++ {
		xc := (float64(i) + 0.5) * s.dx
		s.muInv[i] = s.prob.invPermeability(xc)
	}
	for j := 0; j <= n; j++ {
		x := float64(j) * s.dx
		s.epsNode[j] = s.prob.permittivity(x)
		s.sigma[j] = s.prob.conductivity(x)
		s.nodeW[j] = s.dx
		if j == 0 || j == n {
			s.nodeW[j] = 0.5 * s.dx
		}
	}

	curl := make([]linop.Coord, 0, 2*n)
	for i := 0; i < n; i++ {
		curl = append(curl,
			linop.Coord{Row: i, Col: i, Val: 1.0 / s.dx},
			linop.Coord{Row: i, Col: i + 1, Val: -1.0 / s.dx},
		)
	}
	var err error
	if s.negCurl, err = linop.NewCSR(n, n+1, curl); err != nil {
		return err
	}

	// consistent linear-element mass matrix weighted by the local
	// permittivity, sampled per element
	mass := make([]linop.Coord, 0, 4*n)
	for k := 0; k < n; k++ {
		eps := s.prob.permittivity((float64(k) + 0.5) * s.dx)
		w := eps * s.dx / 6.0
		mass = append(mass,
			linop.Coord{Row: k, Col: k, Val: 2 * w},
			linop.Coord{Row: k, Col: k + 1, Val: w},
			linop.Coord{Row: k + 1, Col: k, Val: w},
			linop.Coord{Row: k + 1, Col: k + 1, Val: 2 * w},
		)
	}
	if s.massEps, err = linop.NewCSR(n+1, n+1, mass); err != nil {
		return err
	}

	s.solvers = make(map[float64]linop.Operator)
	s.hBuf = make([]float64, n)
	s.rhs = make([]float64, n+1)
	s.hField = make([]float64, n)
	s.dField = make([]float64, n+1)
	return nil
}

// CurlOperator returns the B-update operator; the curl's sign is folded
// in so dB/dt = C*E.
func (s *System) CurlOperator() linop.Operator { return s.negCurl }

func (s *System) EField() []float64 { return s.e }
func (s *System) BField() []float64 { return s.b }

func (s *System) SetTime(t float64) { s.t = t }

// Time reports the system's current time tag.
func (s *System) Time() float64 { return s.t }

// Cells reports the current resolution.
func (s *System) Cells() int { return s.n }

// SetInitialE samples f at the grid nodes into the E field.
func (s *System) SetInitialE(f func(x float64) float64) {
	for j := range s.e {
		s.e[j] = f(float64(j) * s.dx)
	}
}

// SetInitialB samples f at the cell midpoints into the B field.
func (s *System) SetInitialB(f func(x float64) float64) {
	for i := range s.b {
		s.b[i] = f((float64(i) + 0.5) * s.dx)
	}
}

// EFieldRate computes k = dE/dt for the current B. The rate is implicit
// in dt through the (M + dt*S) solve, so lossy media stay stable at the
// full symplectic step.
func (s *System) EFieldRate(dt float64, b, k []float64) error {
	if len(b) != s.n || len(k) != s.n+1 {
		return fmt.Errorf("%w: field rate with len(b)=%d len(k)=%d on %d cells",
			linop.ErrDimensionMismatch, len(b), len(k), s.n)
	}
	for i := 0; i < s.n; i++ {
		s.hBuf[i] = s.muInv[i] * b[i]
	}
	if err := s.negCurl.ApplyTranspose(s.hBuf, s.rhs); err != nil {
		return err
	}
	for j := 0; j <= s.n; j++ {
		s.rhs[j] *= -s.dx
		s.rhs[j] -= s.sigma[j] * s.nodeW[j] * s.e[j]
	}
	if s.prob.Source != nil {
		for j := 0; j <= s.n; j++ {
			s.rhs[j] -= s.prob.current(float64(j)*s.dx, s.t) * s.nodeW[j]
		}
	}
	inv, err := s.solverFor(dt)
	if err != nil {
		return err
	}
	if err := inv.Apply(s.rhs, k); err != nil {
		return err
	}
	if s.prob.Drive != nil {
		k[0] = s.prob.Drive.rate(s.t)
	}
	return nil
}

// solverFor returns the factorized (M + dt*S), building and caching it on
// first use. The cache is dropped whenever the mesh is rebuilt.
func (s *System) solverFor(dt float64) (linop.Operator, error) {
	if inv, ok := s.solvers[dt]; ok {
		return inv, nil
	}
	entries := make([]linop.Coord, 0, s.massEps.NonZeros()+s.n+1)
	for i := 0; i <= s.n; i++ {
		cols, vals, _, err := s.massEps.Row(i)
		if err != nil {
			return nil, err
		}
		for k, j := range cols {
			entries = append(entries, linop.Coord{Row: i, Col: j, Val: vals[k]})
		}
		entries = append(entries, linop.Coord{Row: i, Col: i, Val: dt * s.sigma[i] * s.nodeW[i]})
	}
	a, err := linop.NewCSR(s.n+1, s.n+1, entries)
	if err != nil {
		return nil, err
	}
	inv, err := a.Inverse()
	if err != nil {
		return nil, err
	}
	s.solvers[dt] = inv
	return inv, nil
}

// Energy reports the total discrete field energy
// 0.5*E'*M*E + 0.5*dx*B'*diag(muInv)*B.
func (s *System) Energy() float64 {
	if err := s.massEps.Apply(s.e, s.rhs); err != nil {
		return 0
	}
	w := 0.0
	for j := 0; j <= s.n; j++ {
		w += s.e[j] * s.rhs[j]
	}
	for i := 0; i < s.n; i++ {
		w += s.dx * s.muInv[i] * s.b[i] * s.b[i]
	}
	return 0.5 * w
}

// MaxStableStep derives the stability bound 2/sqrt(lambda) from a power
// iteration on the E-space update operator, using an iterative mass
// solve.
func (s *System) MaxStableStep() (float64, error) {
	minv, err := linop.NewCG(s.massEps, 1e-8, 0)
	if err != nil {
		return 0, err
	}
	op := &waveOperator{
		sys:  s,
		minv: minv,
		cell: make([]float64, s.n),
		rhs:  make([]float64, s.n+1),
	}
	lambda, err := linop.MaxEigenvalue(op, eigIters, eigSeed)
	if err != nil {
		return 0, err
	}
	if lambda <= 0 {
		return 0, fmt.Errorf("maxwell: degenerate update operator (lambda=%g)", lambda)
	}
	return 2.0 / math.Sqrt(lambda), nil
}

// SyncDerivedFields refreshes the auxiliary H and D fields, which are not
// directly time-stepped.
func (s *System) SyncDerivedFields() {
	for i := 0; i < s.n; i++ {
		s.hField[i] = s.muInv[i] * s.b[i]
	}
	for j := 0; j <= s.n; j++ {
		s.dField[j] = s.epsNode[j] * s.e[j]
	}
}

// HField and DField return the derived fields as of the last sync.
func (s *System) HField() []float64 { return s.hField }
func (s *System) DField() []float64 { return s.dField }

// Rebuild doubles the resolution, re-interpolates both fields onto the
// finer grid and rebuilds every operator. Inverses and stability bounds
// obtained before the call are invalid afterwards.
func (s *System) Rebuild() error {
	oldN, oldE, oldB := s.n, s.e, s.b
	s.n *= 2
	if err := s.discretize(); err != nil {
		s.n = oldN
		return err
	}

	e := make([]float64, s.n+1)
	for j := 0; j <= oldN; j++ {
		e[2*j] = oldE[j]
	}
	for j := 0; j < oldN; j++ {
		e[2*j+1] = 0.5 * (oldE[j] + oldE[j+1])
	}
	b := make([]float64, s.n)
	for i := 0; i < oldN; i++ {
		b[2*i] = oldB[i]
		b[2*i+1] = oldB[i]
	}
	s.e = e
	s.b = b
	return nil
}

// waveOperator is the E-space update map M^{-1}*(dx*C'*diag(muInv)*C).
// It is self-adjoint in the mass inner product, which is all the power
// iteration needs, so the transpose apply delegates to Apply.
type waveOperator struct {
	sys  *System
	minv linop.Operator
	cell []float64
	rhs  []float64
}

func (w *waveOperator) Height() int { return w.sys.n + 1 }
func (w *waveOperator) Width() int  { return w.sys.n + 1 }

func (w *waveOperator) Apply(x, y []float64) error {
	s := w.sys
	if err := s.negCurl.Apply(x, w.cell); err != nil {
		return err
	}
	for i := range w.cell {
		w.cell[i] *= s.muInv[i]
	}
	if err := s.negCurl.ApplyTranspose(w.cell, w.rhs); err != nil {
		return err
	}
	for j := range w.rhs {
		w.rhs[j] *= s.dx
	}
	return w.minv.Apply(w.rhs, y)
}

func (w *waveOperator) ApplyTranspose(x, y []float64) error {
	return w.Apply(x, y)
}

func (w *waveOperator) AccumulateApply(x, y []float64, scale float64) error {
	tmp := make([]float64, len(y))
	if err := w.Apply(x, tmp); err != nil {
		return err
	}
	for i := range y {
		y[i] += scale * tmp[i]
	}
	return nil
}
