package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultPrefetchConcurrency bounds Prefetch when no positive concurrency is given.
const DefaultPrefetchConcurrency = 4

// Prefetch warms the cache for urls through Fetch, so it shares in-flight
// downloads with regular callers. A failed URL never stops the others.
func (c *FetchCache) Prefetch(ctx context.Context, urls []string, concurrency int) PrefetchReport {
	if concurrency <= 0 {
		concurrency = DefaultPrefetchConcurrency
	}

	report := PrefetchReport{Failed: make(map[string]error)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(concurrency)

	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		if c.Contains(u) {
			report.AlreadyCached++
			continue
		}

		u := u
		g.Go(func() error {
			_, err := c.Fetch(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[u] = err
				return nil
			}
			report.Fetched++
			return nil
		})
	}
	_ = g.Wait()

	return report
}
