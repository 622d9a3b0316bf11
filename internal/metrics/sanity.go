package metrics

import "emfield/internal/fieldop"

// FieldSanity counts steps on which any field degree of freedom became
// NaN or Inf. Value is the clean fraction; anything below 1 means the
// step size exceeded the stability bound somewhere.
type FieldSanity struct {
	name       string
	violations int
	samples    int
}

func NewFieldSanity() *FieldSanity {
	return &FieldSanity{name: "field_sanity"}
}

func (s *FieldSanity) Name() string { return s.name }

func (s *FieldSanity) Observe(state fieldop.FieldState, _ float64) {
	s.samples++
	if !state.Valid() {
		s.violations++
	}
}

func (s *FieldSanity) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// Diverged reports whether any observed state was non-finite.
func (s *FieldSanity) Diverged() bool { return s.violations > 0 }

func (s *FieldSanity) Reset() {
	s.violations = 0
	s.samples = 0
}
