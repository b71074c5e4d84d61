package sim

import (
	"context"
	"fmt"
	"sync"
)

// Ensemble runs independent engines concurrently, one goroutine each.
type Ensemble struct {
	engines []*Engine
}

func NewEnsemble(engines ...*Engine) *Ensemble {
	return &Ensemble{engines: engines}
}

// Run calls Run on every engine with the same step count and returns the
// results in engine order.
func (en *Ensemble) Run(ctx context.Context, steps, sampleEvery int) ([]*Result, error) {
	counts := make([]int, len(en.engines))
	for i := range counts {
		counts[i] = steps
	}
	return en.RunEach(ctx, counts, sampleEvery)
}

// RunEach runs engine i for steps[i] steps. The first error encountered in
// engine order is returned.
func (en *Ensemble) RunEach(ctx context.Context, steps []int, sampleEvery int) ([]*Result, error) {
	if len(steps) != len(en.engines) {
		return nil, fmt.Errorf("%w: %d step counts for %d engines", ErrParameterBounds, len(steps), len(en.engines))
	}

	results := make([]*Result, len(en.engines))
	errs := make([]error, len(en.engines))

	var wg sync.WaitGroup
	for i, e := range en.engines {
		wg.Add(1)
		go func(idx int, e *Engine) {
			defer wg.Done()
			results[idx], errs[idx] = e.Run(ctx, steps[idx], sampleEvery)
		}(i, e)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
