// Package plan converts a physical simulation duration and a
// stability-derived maximum step size into an exact, reproducible step
// count and step size.
package plan

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument indicates a non-positive duration or stability bound.
var ErrInvalidArgument = errors.New("plan: duration and stability bound must be positive")

// StepPlan is the quantized step count and step size for a requested
// duration. Steps*Dt equals the duration up to rounding, never less, and
// Dt never exceeds the stability bound it was derived from. Recompute the
// plan whenever the duration or the bound changes, e.g. after a mesh
// rebuild shifts the operator's spectrum.
type StepPlan struct {
	Steps int
	Dt    float64
}

// Quantize picks the smallest integer of the form 10^a or 5^i*10^a
// (i in 1..5) that covers duration/maxStable, and derives the step size
// from it. Step counts therefore have a round decimal shape, stable and
// diagnostically clean across runs with slightly different bounds, and
// the computation involves no cross-process communication.
func Quantize(duration, maxStable float64) (StepPlan, error) {
	if duration <= 0 || maxStable <= 0 {
		return StepPlan{}, fmt.Errorf("%w: duration=%g bound=%g",
			ErrInvalidArgument, duration, maxStable)
	}
	raw := duration / maxStable

	steps := int(math.Pow(10, math.Ceil(math.Log10(raw))))
	for i := 1; i <= 5; i++ {
		p5 := math.Pow(5, float64(i))
		a := math.Ceil(math.Log10(raw / p5))
		cand := int(p5) * max(1, int(math.Pow(10, a)))
		if cand < steps {
			steps = cand
		}
	}
	return StepPlan{Steps: steps, Dt: duration / float64(steps)}, nil
}
