package concurrent

import (
	"context"

	"github.com/zeusync/arbor/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// MapErr applies fn to every element of the iterator using at most workers
// goroutines and returns the results in input order. The first error
// cancels the context passed to the remaining calls and is returned.
func MapErr[T any, R any](ctx context.Context, i *sequence.Iterator[T], workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for idx, val := range in {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, val)
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
	return out, nil
}

// Each runs action for every element with at most workers goroutines and
// returns the first error.
func Each[T any](ctx context.Context, i *sequence.Iterator[T], workers int, action func(context.Context, T) error) error {
	_, err := MapErr(ctx, i, workers, func(ctx context.Context, v T) (struct{}, error) {
		return struct{}{}, action(ctx, v)
	})
	return err
}
