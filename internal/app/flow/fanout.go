package flow

import (
	"context"
	"sync"
)

// fanOut runs fn over the units with at most workers goroutines and returns
// the outputs indexed by original unit position. Result placement never
// depends on completion order. The first error wins; remaining units that
// have not started are skipped.
func fanOut(ctx context.Context, workers int, units []any, fn func(ctx context.Context, i int, unit any) (any, error)) ([]any, error) {
	if len(units) == 0 {
		return nil, nil
	}

	results := make([]any, len(units))
	sem := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, unit := range units {
		mu.Lock()
		failed := firstErr != nil
		mu.Unlock()
		if failed || ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int, unit any) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := fn(ctx, i, unit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = out
		}(i, unit)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
