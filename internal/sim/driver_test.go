package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"emfield/internal/fieldop"
	"emfield/internal/integrate"
	"emfield/internal/linop"
	"emfield/internal/metrics"
	"emfield/internal/plan"
)

// circleSystem is a minimal field system with de/dt = b, db/dt = -e.
// Exact trajectories are circles, so its energy is conserved.
type circleSystem struct {
	e, b []float64
	t    float64
	curl *linop.CSR
}

func newCircleSystem(t *testing.T) *circleSystem {
	t.Helper()
	curl, err := linop.NewCSR(1, 1, []linop.Coord{{Row: 0, Col: 0, Val: -1}})
	if err != nil {
		t.Fatalf("assemble curl: %v", err)
	}
	return &circleSystem{e: []float64{1}, b: []float64{0}, curl: curl}
}

func (c *circleSystem) CurlOperator() linop.Operator { return c.curl }
func (c *circleSystem) EField() []float64            { return c.e }
func (c *circleSystem) BField() []float64            { return c.b }
func (c *circleSystem) Energy() float64 {
	return 0.5 * (c.e[0]*c.e[0] + c.b[0]*c.b[0])
}
func (c *circleSystem) MaxStableStep() (float64, error) { return 2, nil }
func (c *circleSystem) SetTime(t float64)               { c.t = t }
func (c *circleSystem) SyncDerivedFields()              {}
func (c *circleSystem) Rebuild() error                  { return nil }
func (c *circleSystem) EFieldRate(dt float64, b, k []float64) error {
	k[0] = b[0]
	return nil
}

var _ fieldop.System = (*circleSystem)(nil)

func newDriver(t *testing.T) (*Driver, *circleSystem) {
	t.Helper()
	sys := newCircleSystem(t)
	stepper, err := integrate.NewSymplectic(2)
	if err != nil {
		t.Fatal(err)
	}
	return New(sys, stepper), sys
}

func TestRunCompletes(t *testing.T) {
	d, sys := newDriver(t)
	d.AddMetric(metrics.NewEnergyDrift())
	d.AddMetric(metrics.NewFieldSanity())

	res, err := d.Run(context.Background(), plan.StepPlan{Steps: 50, Dt: 0.01}, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Truncated {
		t.Error("uncapped run reported truncation")
	}
	if res.Steps != 50 {
		t.Errorf("steps = %d, want 50", res.Steps)
	}
	if len(res.Times) != 51 || len(res.Energy) != 51 {
		t.Errorf("series lengths %d/%d, want 51", len(res.Times), len(res.Energy))
	}
	if math.Abs(res.FinalTime-0.5) > 1e-12 {
		t.Errorf("final time = %g, want 0.5", res.FinalTime)
	}
	if drift, ok := res.Metrics["energy_drift"]; !ok || drift > 1e-3 {
		t.Errorf("energy drift = %g (present=%v)", drift, ok)
	}
	if sanity, ok := res.Metrics["field_sanity"]; !ok || sanity != 1 {
		t.Errorf("field sanity = %g (present=%v), want 1", sanity, ok)
	}
	if sys.t != res.FinalTime {
		t.Errorf("system time %g out of sync with result %g", sys.t, res.FinalTime)
	}
}

func TestRunTruncatesAtCap(t *testing.T) {
	d, _ := newDriver(t)
	res, err := d.Run(context.Background(), plan.StepPlan{Steps: 50, Dt: 0.01}, 10)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Truncated {
		t.Error("capped run not flagged as truncated")
	}
	if res.Steps != 10 {
		t.Errorf("steps = %d, want 10", res.Steps)
	}
	if math.Abs(res.FinalTime-0.1) > 1e-12 {
		t.Errorf("final time = %g, want 0.1", res.FinalTime)
	}
}

func TestRunRejectsInvalidPlan(t *testing.T) {
	d, _ := newDriver(t)
	for _, p := range []plan.StepPlan{{}, {Steps: 10}, {Dt: 0.1}, {Steps: -1, Dt: 0.1}} {
		if _, err := d.Run(context.Background(), p, 0); !errors.Is(err, plan.ErrInvalidArgument) {
			t.Errorf("plan %+v: expected ErrInvalidArgument, got %v", p, err)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	d, _ := newDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := d.Run(ctx, plan.StepPlan{Steps: 1000, Dt: 0.01}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.Steps != 0 {
		t.Errorf("cancelled run reported %+v", res)
	}
}

type countingObserver struct {
	calls    int
	lastStep int
	lastTime float64
}

func (o *countingObserver) OnStep(step int, state fieldop.FieldState, energy float64) {
	o.calls++
	o.lastStep = step
	o.lastTime = state.Time
}

func TestObserversSeeEveryStep(t *testing.T) {
	d, _ := newDriver(t)
	obs := &countingObserver{}
	d.AddObserver(obs)

	res, err := d.Run(context.Background(), plan.StepPlan{Steps: 25, Dt: 0.02}, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if obs.calls != res.Steps {
		t.Errorf("observer saw %d steps of %d", obs.calls, res.Steps)
	}
	if obs.lastStep != 25 {
		t.Errorf("last observed step = %d, want 25", obs.lastStep)
	}
	if math.Abs(obs.lastTime-res.FinalTime) > 1e-12 {
		t.Errorf("last observed time = %g, want %g", obs.lastTime, res.FinalTime)
	}
}
