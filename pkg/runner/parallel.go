package runner

import (
	"context"
	"sync"

	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/evaluator"
)

// parallelResult pairs a detail with its original index so
// details can be returned in submission order.
type parallelResult struct {
	index  int
	detail *evaluator.Detail
}

// runParallel evaluates cases concurrently with a semaphore
// limiting maxConcurrency goroutines. Details are returned in the
// same order as cases. A case that never got a slot because ctx
// ended is reported as skipped.
func runParallel(
	ctx context.Context,
	r *DefaultRunner,
	cases []*bank.Case,
	req Request,
	maxConcurrency int,
) []*evaluator.Detail {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	sem := make(chan struct{}, maxConcurrency)
	resultsCh := make(chan parallelResult, len(cases))

	var wg sync.WaitGroup

	for i, c := range cases {
		wg.Add(1)
		go func(idx int, tc *bank.Case) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				resultsCh <- parallelResult{
					index:  idx,
					detail: evaluator.Skipped(tc, tc.ID(idx), ctx.Err().Error()),
				}
				return
			}

			resultsCh <- parallelResult{
				index:  idx,
				detail: r.runTest(ctx, tc, idx, req),
			}
		}(i, c)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	ordered := make([]*evaluator.Detail, len(cases))
	for pr := range resultsCh {
		ordered[pr.index] = pr.detail
	}
	return ordered
}
