// Package sim drives the time-evolution loop: repeated symplectic steps,
// energy bookkeeping and fan-out to diagnostics sinks.
package sim

import (
	"context"
	"fmt"

	"emfield/internal/fieldop"
	"emfield/internal/integrate"
	"emfield/internal/plan"
)

// Driver owns one integration run over a field system. Metrics accumulate
// scalars; observers are push-only sinks with no feedback into the loop.
type Driver struct {
	sys       fieldop.System
	stepper   *integrate.Symplectic
	metrics   []fieldop.Metric
	observers []fieldop.Observer
}

func New(sys fieldop.System, stepper *integrate.Symplectic) *Driver {
	return &Driver{sys: sys, stepper: stepper}
}

func (d *Driver) AddMetric(m fieldop.Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o fieldop.Observer) { d.observers = append(d.observers, o) }

// Result is the record of a completed (or interrupted) run.
type Result struct {
	Steps     int
	FinalTime float64
	Times     []float64
	Energy    []float64
	Truncated bool
	Metrics   map[string]float64
}

// Run executes min(p.Steps, maxSteps) steps of size p.Dt. A maxSteps of
// zero or less means uncapped. When the cap wins, the full requested
// duration is not reached; Result.Truncated records this non-fatal,
// user-visible condition. Context cancellation is honored between steps.
func (d *Driver) Run(ctx context.Context, p plan.StepPlan, maxSteps int) (*Result, error) {
	if p.Steps <= 0 || p.Dt <= 0 {
		return nil, fmt.Errorf("%w: step plan %+v", plan.ErrInvalidArgument, p)
	}
	if err := d.stepper.Init(d.sys.CurlOperator(), d.sys); err != nil {
		return nil, err
	}

	steps := p.Steps
	res := &Result{
		Times:   make([]float64, 0, steps+1),
		Energy:  make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	if maxSteps > 0 && steps > maxSteps {
		steps = maxSteps
		res.Truncated = true
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	t := 0.0
	d.sys.SetTime(t)
	b, e := d.sys.BField(), d.sys.EField()
	res.Times = append(res.Times, t)
	res.Energy = append(res.Energy, d.sys.Energy())

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			res.FinalTime = t
			return res, ctx.Err()
		default:
		}

		if err := d.stepper.Step(b, e, &t, p.Dt); err != nil {
			res.FinalTime = t
			return res, err
		}
		d.sys.SetTime(t)
		d.sys.SyncDerivedFields()

		energy := d.sys.Energy()
		state := fieldop.FieldState{E: e, B: b, Time: t}
		for _, m := range d.metrics {
			m.Observe(state, energy)
		}
		for _, o := range d.observers {
			o.OnStep(i, state, energy)
		}

		res.Steps = i
		res.Times = append(res.Times, t)
		res.Energy = append(res.Energy, energy)
	}
	res.FinalTime = t

	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}
