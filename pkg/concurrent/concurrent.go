package concurrent

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item on up to workers goroutines and returns the
// results in input order. The first error cancels the remaining work and is
// returned. workers <= 0 means GOMAXPROCS.
func Map[T any, R any](ctx context.Context, items []T, workers int, fn func(context.Context, int, T) (R, error)) ([]R, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, item := range items {
		if gctx.Err() != nil {
			break
		}
		idx, item := idx, item
		g.Go(func() error {
			r, err := fn(gctx, idx, item)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
