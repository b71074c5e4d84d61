package sim

import (
	"context"
	"errors"
	"fmt"
)

// Run advances the engine by steps direct Step calls, sampling diagnostics
// every sampleEvery steps (and after the last one). It is meant for
// headless runs and refuses to run while the scheduler is active.
func (e *Engine) Run(ctx context.Context, steps, sampleEvery int) (*Result, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrParameterBounds, steps)
	}
	if sampleEvery <= 0 {
		sampleEvery = 1
	}
	if e.IsRunning() {
		return nil, fmt.Errorf("%w: engine is running", ErrInvalidTransition)
	}

	// metrics see the starting state so the first step's changes count
	e.mu.Lock()
	initial := e.snapshot()
	for _, m := range e.metrics {
		m.Reset()
		m.Observe(initial)
	}
	result := &Result{
		Samples: []Diagnostics{initial.Diag},
		Metrics: make(map[string]float64),
	}
	e.mu.Unlock()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rep := e.Step()
		result.StepsTaken++
		result.Merges += len(rep.Merges)
		if rep.Skipped != nil {
			result.Skipped += countJoined(rep.Skipped)
		}

		if (i+1)%sampleEvery == 0 || i == steps-1 {
			e.mu.RLock()
			result.Samples = append(result.Samples, e.diagnostics())
			e.mu.RUnlock()
		}
	}

	e.mu.RLock()
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	e.mu.RUnlock()

	return result, nil
}

func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	if errors.Is(err, ErrZeroSeparation) {
		return 1
	}
	return 0
}
