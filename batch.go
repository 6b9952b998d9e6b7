package toolrun

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ExecuteBatch runs calls and returns one Result per call in input order.
// Unknown tools, handler errors and recovered panics are recorded in the
// matching Result and never stop the other calls.
//
// In Concurrent mode every call gets its own goroutine at once (no limit) and
// ExecuteBatch returns when all of them have finished.
func (r *Registry) ExecuteBatch(ctx context.Context, calls []ToolCall, mode ExecMode) []Result {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results
	}
	r.opts.logger.DebugContext(ctx, "executing tool batch", "calls", len(calls), "mode", mode)

	if mode != Concurrent {
		for i, call := range calls {
			results[i] = r.execute(ctx, call)
		}
		r.logBatch(ctx, results)
		return results
	}

	// Each goroutine owns one slot of results; errors stay in the slot so the group never fails.
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	r.logBatch(ctx, results)
	return results
}

func (r *Registry) logBatch(ctx context.Context, results []Result) {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			r.opts.logger.DebugContext(ctx, "tool call failed", "tool", res.ToolName, "error", res.Err)
		}
	}
	r.opts.logger.DebugContext(ctx, "tool batch done", "calls", len(results), "failed", failed)
}
