package engine

import (
	"context"
	"sync"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/infer"
	"github.com/basalt-sh/tycore/pkg/types"
	"github.com/basalt-sh/tycore/pkg/util"
)

// QueryResult is one symbol's public_type outcome from a QueryMany batch.
type QueryResult struct {
	Symbol ids.GlobalSymbolId
	Type   types.Type
	Err    error
}

// QueryMany computes public_type for every symbol in syms concurrently,
// using a fixed-size worker pool sized the same way this codebase sizes
// its parser and file-processing pools. Results are returned in the same
// order as syms regardless of completion order.
func (e *Engine) QueryMany(ctx context.Context, syms []ids.GlobalSymbolId) []QueryResult {
	if len(syms) == 0 {
		return nil
	}

	numWorkers := util.GetOptimalPoolSize()
	if numWorkers > len(syms) {
		numWorkers = len(syms)
	}

	jobs := make(chan int, len(syms))
	for i := range syms {
		jobs <- i
	}
	close(jobs)

	results := make([]QueryResult, len(syms))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sym := syms[idx]
				ty, err := infer.PublicType(ctx, e, sym)
				results[idx] = QueryResult{Symbol: sym, Type: ty, Err: err}
			}
		}()
	}
	wg.Wait()

	return results
}
