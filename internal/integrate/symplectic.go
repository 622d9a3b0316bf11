// Package integrate provides the symplectic time integrator that advances
// the coupled (B, E) field pair.
package integrate

import (
	"fmt"
	"math"

	"emfield/internal/fieldop"
	"emfield/internal/linop"
)

// Symplectic advances a coupled (B, E) field pair with a staged
// composition of first-order symplectic sub-steps. Alternating the two
// field updates, each from the other field's freshest data, preserves the
// time-reversal symmetry that bounds long-term energy drift; both fields
// are never advanced from the same time level.
//
// The integrator performs no stability checking: a dt beyond the bound
// reported by the field system yields an unstable, undetected result.
type Symplectic struct {
	order int
	a, b  []float64

	curl linop.Operator
	sys  fieldop.System

	dEdt []float64
}

// NewSymplectic builds an integrator of the requested order (1 to 4).
func NewSymplectic(order int) (*Symplectic, error) {
	a, b, err := Weights(order)
	if err != nil {
		return nil, err
	}
	return &Symplectic{order: order, a: a, b: b}, nil
}

// Weights returns the sub-step fractions of the requested order: a scales
// the curl (B) updates, b the field-rate (E) updates. Both sum to 1. The
// tables are the classical compositions of a first-order symplectic base
// step; orders 3 and 4 carry the usual negative fractions.
func Weights(order int) (a, b []float64, err error) {
	switch order {
	case 1:
		return []float64{1.0}, []float64{1.0}, nil
	case 2:
		return []float64{0.5, 0.5}, []float64{0.0, 1.0}, nil
	case 3:
		return []float64{2.0 / 3.0, -2.0 / 3.0, 1.0},
			[]float64{7.0 / 24.0, 0.75, -1.0 / 24.0}, nil
	case 4:
		c := math.Pow(2.0, 1.0/3.0)
		aOut := (2.0 + c + 1.0/c) / 6.0
		aIn := (1.0 - c - 1.0/c) / 6.0
		w := 1.0 / (2.0 - c)
		return []float64{aOut, aIn, aIn, aOut},
			[]float64{0.0, w, 1.0 / (1.0 - c*c), w}, nil
	}
	return nil, nil, fmt.Errorf("integrate: unsupported order %d", order)
}

// Order reports the integration order the weights were built for.
func (s *Symplectic) Order() int { return s.order }

// Init binds the integrator to the B-update curl operator and the field
// system supplying E rates. Mandatory before any Step.
func (s *Symplectic) Init(curl linop.Operator, sys fieldop.System) error {
	if curl == nil || sys == nil {
		return fieldop.ErrNotInitialized
	}
	s.curl = curl
	s.sys = sys
	s.dEdt = make([]float64, curl.Width())
	return nil
}

// Step advances the field pair by exactly dt, mutating b, e and t in
// place. Sub-steps are strictly sequential: the E update of stage i sees
// the B produced by stage i-1, and the B update sees the E it just
// produced. Dimension mismatches in the bound operators propagate
// unwrapped; there is no other failure mode.
func (s *Symplectic) Step(b, e []float64, t *float64, dt float64) error {
	if s.sys == nil || s.curl == nil {
		return fieldop.ErrNotInitialized
	}
	if len(e) != s.curl.Width() || len(b) != s.curl.Height() {
		return fmt.Errorf("%w: step with len(b)=%d len(e)=%d against %dx%d curl",
			linop.ErrDimensionMismatch, len(b), len(e), s.curl.Height(), s.curl.Width())
	}
	for i := range s.a {
		if s.b[i] != 0.0 {
			s.sys.SetTime(*t)
			if err := s.sys.EFieldRate(s.b[i]*dt, b, s.dEdt); err != nil {
				return err
			}
			for j := range e {
				e[j] += s.b[i] * dt * s.dEdt[j]
			}
		}
		if err := s.curl.AccumulateApply(e, b, s.a[i]*dt); err != nil {
			return err
		}
		*t += s.a[i] * dt
	}
	return nil
}
