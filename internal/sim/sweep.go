package sim

import (
	"context"
	"sync"

	"emfield/internal/fieldop"
	"emfield/internal/integrate"
	"emfield/internal/plan"
)

// Case is one run of a sweep: its own field system, integration order
// and step plan. Systems must not be shared between cases; each run
// mutates its fields in place.
type Case struct {
	Name     string
	System   fieldop.System
	Order    int
	Plan     plan.StepPlan
	MaxSteps int
	Metrics  []fieldop.Metric
}

// CaseResult pairs a case name with its run outcome.
type CaseResult struct {
	Name   string
	Result *Result
	Err    error
}

// RunCases executes every case concurrently, one driver per case.
// Results are ordered like the input; the returned error is the first
// case failure, with the per-case errors still available in the results.
func RunCases(ctx context.Context, cases []Case) ([]CaseResult, error) {
	results := make([]CaseResult, len(cases))

	var wg sync.WaitGroup
	for i, c := range cases {
		wg.Add(1)
		go func(idx int, c Case) {
			defer wg.Done()
			results[idx].Name = c.Name

			stepper, err := integrate.NewSymplectic(c.Order)
			if err != nil {
				results[idx].Err = err
				return
			}
			d := New(c.System, stepper)
			for _, m := range c.Metrics {
				d.AddMetric(m)
			}
			results[idx].Result, results[idx].Err = d.Run(ctx, c.Plan, c.MaxSteps)
		}(i, c)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}
