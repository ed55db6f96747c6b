package retrieval

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Catalog is a Source wrapping another Source with a swappable in-memory
// snapshot. With maxAge zero every FetchAll hits the underlying source, so
// readers always see fresh data at the cost of a store read per query. With
// a positive maxAge the snapshot is reused until it expires or Refresh is
// called. A refresh installs a whole new slice atomically: concurrent
// readers either see the old snapshot or the new one, never a mix.
type Catalog struct {
	source Source
	maxAge time.Duration

	mu   sync.Mutex // serializes refreshes
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	docs    []Document
	fetched time.Time
}

// NewCatalog wraps source. maxAge <= 0 disables caching.
func NewCatalog(source Source, maxAge time.Duration) *Catalog {
	return &Catalog{source: source, maxAge: maxAge}
}

// FetchAll returns the current document set, consulting the snapshot when
// caching is enabled and the snapshot is still fresh.
func (c *Catalog) FetchAll(ctx context.Context) ([]Document, error) {
	if c.maxAge <= 0 {
		return c.source.FetchAll(ctx)
	}

	if s := c.snap.Load(); s != nil && time.Since(s.fetched) < c.maxAge {
		return s.docs, nil
	}

	if err := c.Refresh(ctx); err != nil {
		// A stale snapshot beats no answer when the store is briefly down.
		if s := c.snap.Load(); s != nil {
			return s.docs, nil
		}
		return nil, err
	}
	return c.snap.Load().docs, nil
}

// Refresh replaces the snapshot with a fresh read of the underlying source.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.source.FetchAll(ctx)
	if err != nil {
		return err
	}
	c.snap.Store(&snapshot{docs: docs, fetched: time.Now()})
	return nil
}
