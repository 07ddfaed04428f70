package engine

import (
	"context"
	"sync"

	"github.com/san-kum/granule/internal/dynamo"
)

// Ensemble runs independent seeds of the same configuration side by side.
// Each run gets its own Engine; workers are split between runs.
type Ensemble struct {
	Runs      int
	SeedStart int64
	Workers   int
	Options   []Option
	// Init builds the initial buffer for a seed.
	Init func(seed int64) ([]dynamo.Particle, error)
}

func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.Runs)
	errs := make([]error, e.Runs)

	perRun := 1
	if e.Runs > 0 && e.Workers > e.Runs {
		perRun = e.Workers / e.Runs
	}

	var wg sync.WaitGroup
	for i := 0; i < e.Runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			particles, err := e.Init(e.SeedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}

			opts := append([]Option{WithWorkers(perRun)}, e.Options...)
			eng := New(opts...)
			defer eng.Close()

			results[idx], errs[idx] = NewSimulator(eng).Run(ctx, particles, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
