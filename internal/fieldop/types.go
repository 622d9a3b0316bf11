package fieldop

import (
	"math"

	"emfield/internal/linop"
)

// FieldState is a pair of field degree-of-freedom vectors tagged with the
// simulation time they correspond to. The owning system keeps the backing
// arrays; the integrator and observers see them by reference.
type FieldState struct {
	E    []float64
	B    []float64
	Time float64
}

// Valid reports whether every degree of freedom is finite.
func (s FieldState) Valid() bool {
	for _, v := range s.E {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range s.B {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is the field-evolution operator the integration core drives. It
// owns the field storage and the discrete operators; the core only applies
// them.
type System interface {
	// CurlOperator returns the discrete operator for the B update, with
	// the sign folded in: dB/dt = C*E.
	CurlOperator() linop.Operator

	// EField and BField return live views of the field degrees of
	// freedom for in-place update.
	EField() []float64
	BField() []float64

	// EFieldRate computes k = dE/dt from the current B field and the
	// system's own E at its current time. For lossy media the rate is
	// implicit in dt, the effective step the caller is about to take
	// with it.
	EFieldRate(dt float64, b, k []float64) error

	// Energy reports the total field energy at the current state.
	Energy() float64

	// MaxStableStep reports the largest step size for which explicit
	// integration of this discretization remains stable.
	MaxStableStep() (float64, error)

	SetTime(t float64)

	// SyncDerivedFields recomputes fields that are not directly
	// time-stepped. Called by the driver after each step, never by the
	// integrator.
	SyncDerivedFields()

	// Rebuild re-discretizes the system after a refinement decision and
	// rebuilds its operators. Cached inverses, curl references and
	// stability bounds are invalid afterwards.
	Rebuild() error
}

// Metric accumulates a scalar diagnostic over a run.
type Metric interface {
	Name() string
	Observe(state FieldState, energy float64)
	Value() float64
	Reset()
}

// Observer receives completed steps. Push-only; no feedback into the
// integration loop.
type Observer interface {
	OnStep(step int, state FieldState, energy float64)
}
