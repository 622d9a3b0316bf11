// Package metrics provides diagnostic probes over field states. Probes
// read states after each step and never feed back into the integrator.
package metrics

import (
	"math"

	"emfield/internal/fieldop"
)

// EnergyDrift tracks the largest relative deviation of the field energy
// from its first observed value. For a lossless system under symplectic
// stepping this stays a small bounded oscillation; monotonic growth means
// the step size or the scheme is wrong.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	minE     float64
	maxE     float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ fieldop.FieldState, energy float64) {
	if e.samples == 0 {
		e.initial = energy
		e.minE = energy
		e.maxE = energy
	}
	e.samples++
	e.minE = math.Min(e.minE, energy)
	e.maxE = math.Max(e.maxE, energy)
	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Band reports the absolute width of the observed energy oscillation.
func (e *EnergyDrift) Band() float64 { return e.maxE - e.minE }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.minE = 0
	e.maxE = 0
	e.samples = 0
}
