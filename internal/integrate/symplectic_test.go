package integrate

import (
	"errors"
	"math"
	"testing"

	"emfield/internal/fieldop"
	"emfield/internal/linop"
)

func TestWeightsSumToOne(t *testing.T) {
	for order := 1; order <= 4; order++ {
		a, b, err := Weights(order)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}
		if len(a) != len(b) {
			t.Fatalf("order %d: %d curl weights vs %d rate weights", order, len(a), len(b))
		}
		sumA, sumB := 0.0, 0.0
		for i := range a {
			sumA += a[i]
			sumB += b[i]
		}
		if math.Abs(sumA-1) > 1e-14 {
			t.Errorf("order %d: curl weights sum to %g", order, sumA)
		}
		if math.Abs(sumB-1) > 1e-14 {
			t.Errorf("order %d: rate weights sum to %g", order, sumB)
		}
	}
}

func TestWeightsOrder4Shape(t *testing.T) {
	a, b, err := Weights(4)
	if err != nil {
		t.Fatal(err)
	}
	if a[0] != a[3] || a[1] != a[2] {
		t.Errorf("stage fractions not symmetric: %v", a)
	}
	if b[0] != 0 {
		t.Errorf("first rate weight = %g, want 0", b[0])
	}
	if b[2] >= 0 || a[1] >= 0 {
		t.Errorf("expected negative inner fractions, got a[1]=%g b[2]=%g", a[1], b[2])
	}
}

func TestWeightsUnsupportedOrder(t *testing.T) {
	for _, order := range []int{0, -1, 5} {
		if _, _, err := Weights(order); err == nil {
			t.Errorf("order %d: expected an error", order)
		}
		if _, err := NewSymplectic(order); err == nil {
			t.Errorf("NewSymplectic(%d): expected an error", order)
		}
	}
}

// oscillator is a two degree-of-freedom field system with
// de/dt = b and db/dt = -e, so exact trajectories are circles and the
// energy (e^2 + b^2)/2 is a conserved quantity.
type oscillator struct {
	e, b []float64
	t    float64
	curl *linop.CSR
}

func newOscillator(t *testing.T, e0, b0 float64) *oscillator {
	t.Helper()
	curl, err := linop.NewCSR(1, 1, []linop.Coord{{Row: 0, Col: 0, Val: -1}})
	if err != nil {
		t.Fatalf("assemble curl: %v", err)
	}
	return &oscillator{e: []float64{e0}, b: []float64{b0}, curl: curl}
}

func (o *oscillator) CurlOperator() linop.Operator { return o.curl }
func (o *oscillator) EField() []float64            { return o.e }
func (o *oscillator) BField() []float64            { return o.b }
func (o *oscillator) Energy() float64 {
	return 0.5 * (o.e[0]*o.e[0] + o.b[0]*o.b[0])
}
func (o *oscillator) MaxStableStep() (float64, error) { return 2, nil }
func (o *oscillator) SetTime(t float64)               { o.t = t }
func (o *oscillator) SyncDerivedFields()              {}
func (o *oscillator) Rebuild() error                  { return nil }

func (o *oscillator) EFieldRate(dt float64, b, k []float64) error {
	k[0] = b[0]
	return nil
}

var _ fieldop.System = (*oscillator)(nil)

func TestStepRequiresInit(t *testing.T) {
	s, err := NewSymplectic(2)
	if err != nil {
		t.Fatal(err)
	}
	tm := 0.0
	if err := s.Step([]float64{0}, []float64{1}, &tm, 0.1); !errors.Is(err, fieldop.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestStepDimensionCheck(t *testing.T) {
	sys := newOscillator(t, 1, 0)
	s, err := NewSymplectic(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(sys.CurlOperator(), sys); err != nil {
		t.Fatal(err)
	}
	tm := 0.0
	if err := s.Step([]float64{0, 0}, []float64{1}, &tm, 0.1); !errors.Is(err, linop.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestOscillatorEnergyBounded(t *testing.T) {
	sys := newOscillator(t, 1, 0)
	s, err := NewSymplectic(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Init(sys.CurlOperator(), sys); err != nil {
		t.Fatal(err)
	}

	const dt = 0.05
	const steps = 2000
	e0 := sys.Energy()
	tm := 0.0
	for i := 0; i < steps; i++ {
		if err := s.Step(sys.BField(), sys.EField(), &tm, dt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if drift := math.Abs(sys.Energy()-e0) / e0; drift > 0.01 {
			t.Fatalf("step %d: energy drift %g", i, drift)
		}
	}
	if math.Abs(tm-steps*dt) > 1e-9 {
		t.Errorf("time advanced to %g, want %g", tm, steps*dt)
	}
}

func TestOscillatorOrderOfAccuracy(t *testing.T) {
	finalError := func(order int) float64 {
		sys := newOscillator(t, 1, 0)
		s, err := NewSymplectic(order)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Init(sys.CurlOperator(), sys); err != nil {
			t.Fatal(err)
		}
		const dt = 0.1
		tm := 0.0
		for i := 0; i < 10; i++ {
			if err := s.Step(sys.BField(), sys.EField(), &tm, dt); err != nil {
				t.Fatalf("order %d step %d: %v", order, i, err)
			}
		}
		// exact solution at t=1 for e(0)=1, b(0)=0
		de := sys.EField()[0] - math.Cos(tm)
		db := sys.BField()[0] + math.Sin(tm)
		return math.Hypot(de, db)
	}

	errs := make(map[int]float64)
	for order := 1; order <= 4; order++ {
		errs[order] = finalError(order)
	}
	if errs[2] >= errs[1] {
		t.Errorf("order 2 error %g not below order 1 error %g", errs[2], errs[1])
	}
	if errs[4] >= errs[2] {
		t.Errorf("order 4 error %g not below order 2 error %g", errs[4], errs[2])
	}
	if errs[4] > 1e-4 {
		t.Errorf("order 4 error %g unexpectedly large", errs[4])
	}
}
