// Package work provides a bounded worker pool for CPU-heavy batch jobs.
package work

import (
	"context"
	"runtime"
	"sync"
)

// Map runs fn over every input with at most workers goroutines and returns
// the outputs in input order. Cancelling the context stops dispatching
// further inputs; outputs for inputs never dispatched stay zero values.
func Map[In, Out any](ctx context.Context, workers int, inputs []In, fn func(context.Context, In) Out) []Out {
	if len(inputs) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	outputs := make([]Out, len(inputs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outputs[i] = fn(ctx, inputs[i])
			}
		}()
	}

dispatch:
	for i := range inputs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return outputs
}
