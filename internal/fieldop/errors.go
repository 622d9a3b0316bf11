package fieldop

import "errors"

// Domain errors for the field-evolution layer.
var (
	// ErrNotInitialized indicates a step was attempted before the
	// integrator was bound to a curl operator and field system.
	ErrNotInitialized = errors.New("fieldop: integrator not bound to a field system")

	// ErrFieldDiverged indicates NaN or Inf field values, usually from a
	// step size beyond the stability bound. Detected by diagnostics, not
	// by the integrator itself.
	ErrFieldDiverged = errors.New("fieldop: field values diverged (NaN or Inf)")
)
