package extract

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds RunAll when limit is not positive.
const DefaultParallelism = 4

// RunAll extracts several independent entry files concurrently, one Session
// per entry. Sessions share no state; opts is copied into each. After the
// first failure the derived context is canceled and no further runs start.
//
// Results are returned in entry order. Entries whose run did not start or
// failed have a nil result.
func RunAll(ctx context.Context, entries []string, opts Options, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = DefaultParallelism
	}
	results := make([]*Result, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := NewSession(opts).Run(entry)
			if err != nil {
				return fmt.Errorf("extract %s: %w", entry, err)
			}
			results[i] = r
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
