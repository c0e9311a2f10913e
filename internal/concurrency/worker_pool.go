package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerFn handles task index i.
type WorkerFn func(ctx context.Context, i int) error

// ForEach runs fn for every index in [0, tasks) with at most workers running
// at once. The first error cancels ctx for the remaining tasks and is returned.
func ForEach(ctx context.Context, workers, tasks int, fn WorkerFn) error {
	if tasks == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > tasks {
		workers = tasks
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < tasks; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}
