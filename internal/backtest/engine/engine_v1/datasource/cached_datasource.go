package datasource

import (
	"context"
	"fmt"
	"sync"

	"github.com/rxtech-lab/argo-tickbench/internal/types"
)

// CachedDataSource wraps a DataSource and keeps the records of the symbols
// loaded most recently, so a dry run followed by a full run reads them once.
type CachedDataSource struct {
	underlying DataSource
	capacity   int
	order      []string
	loadCache  map[string][]types.Tick
	mu         sync.RWMutex
}

// NewCachedDataSource keeps up to capacity load results in memory.
func NewCachedDataSource(underlying DataSource, capacity int) *CachedDataSource {
	if capacity < 1 {
		capacity = 1
	}

	return &CachedDataSource{
		underlying: underlying,
		capacity:   capacity,
		order:      nil,
		loadCache:  make(map[string][]types.Tick),
		mu:         sync.RWMutex{},
	}
}

// ClearCache drops every cached result.
func (c *CachedDataSource) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = nil
	c.loadCache = make(map[string][]types.Tick)
}

// Symbols implements DataSource.
func (c *CachedDataSource) Symbols(ctx context.Context) ([]string, error) {
	return c.underlying.Symbols(ctx)
}

// Count implements DataSource.
func (c *CachedDataSource) Count(ctx context.Context, symbol string, r Range) (int, error) {
	return c.underlying.Count(ctx, symbol, r)
}

// Days implements DataSource.
func (c *CachedDataSource) Days(ctx context.Context, symbol string, r Range) ([]DayCount, error) {
	return c.underlying.Days(ctx, symbol, r)
}

// Load implements DataSource with caching. Errors are not cached.
func (c *CachedDataSource) Load(ctx context.Context, symbol string, r Range) ([]types.Tick, error) {
	key := buildLoadKey(symbol, r)

	c.mu.RLock()
	if ticks, ok := c.loadCache[key]; ok {
		c.mu.RUnlock()

		return ticks, nil
	}
	c.mu.RUnlock()

	ticks, err := c.underlying.Load(ctx, symbol, r)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.loadCache[key]; ok {
		return cached, nil
	}

	if len(c.order) >= c.capacity {
		delete(c.loadCache, c.order[0])
		c.order = c.order[1:]
	}

	c.loadCache[key] = ticks
	c.order = append(c.order, key)

	return ticks, nil
}

// Close implements DataSource.
func (c *CachedDataSource) Close() error {
	return c.underlying.Close()
}

// buildLoadKey creates a cache key for Load.
func buildLoadKey(symbol string, r Range) string {
	start, end := int64(0), int64(0)
	if r.Start.IsSome() {
		start = r.Start.Unwrap().UnixNano()
	}

	if r.End.IsSome() {
		end = r.End.Unwrap().UnixNano()
	}

	return fmt.Sprintf("load:%s:%d:%d:%d:%d:%d", symbol, start, end, r.Day, r.SessionStart, r.SessionEnd)
}
