package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelMap applies mapFn to each element in parallel, preserving order.
// At most workers calls run at once; workers <= 0 means no limit. mapFn
// receives a context that is cancelled when ctx is or when a call fails.
// The first error is returned after every started call has finished; results
// of calls that never started are left zero.
func ParallelMap[T any, R any](ctx context.Context, in []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for idx, val := range in {
		idx, val := idx, val
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := mapFn(gctx, val)
			out[idx] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}

// Collect is ParallelMap for functions that report failures in their result
// instead of aborting the batch.
func Collect[T any, R any](ctx context.Context, in []T, workers int, mapFn func(context.Context, T) R) ([]R, error) {
	return ParallelMap(ctx, in, workers, func(ctx context.Context, v T) (R, error) {
		return mapFn(ctx, v), nil
	})
}
