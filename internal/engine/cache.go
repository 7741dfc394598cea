package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"salarydash/internal/metrics"
)

// LoadFunc produces a dataset from a source.
type LoadFunc func(ctx context.Context, src Source) (*Dataset, error)

type outcome struct {
	ds  *Dataset
	err error
}

// Cache memoizes the dataset per source ID for the process lifetime. Both
// success and failure are remembered until Invalidate is called; nothing is
// ever re-fetched implicitly.
type Cache struct {
	source  Source
	load    LoadFunc
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]outcome
	gen     uint64
}

func NewCache(src Source, load LoadFunc, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:  src,
		load:    load,
		timeout: timeout,
		metrics: m,
		logger:  logger.With(slog.String("component", "dataset_cache")),
		entries: make(map[string]outcome),
	}
}

// Source returns the source the cache loads from.
func (c *Cache) Source() Source {
	return c.source
}

// GetOrLoad returns the memoized dataset, loading it on first use. Concurrent
// callers share one in-flight load. The load itself is detached from ctx so a
// cancelled caller does not fail it for everyone else.
func (c *Cache) GetOrLoad(ctx context.Context) (*Dataset, error) {
	key := c.source.ID()

	c.mu.RLock()
	o, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return o.ds, o.err
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fill(ctx, key, gen), nil
	})

	select {
	case res := <-ch:
		o := res.Val.(outcome)
		return o.ds, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fill(ctx context.Context, key string, gen uint64) outcome {
	c.mu.RLock()
	o, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return o
	}

	loadCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(loadCtx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	ds, err := c.load(loadCtx, c.source)
	rows := 0
	if ds != nil {
		rows = ds.Len()
	}
	c.metrics.ObserveLoad(time.Since(start), rows, err)
	if err != nil {
		c.logger.Error("dataset load failed", slog.String("source", key), slog.Any("error", err))
	}

	o = outcome{ds: ds, err: err}
	c.mu.Lock()
	// An Invalidate that raced with this load wins; the result is still
	// handed to the callers that were waiting on it.
	if c.gen == gen {
		c.entries[key] = o
	}
	c.mu.Unlock()
	return o
}

// Current returns the loaded dataset without triggering a load.
func (c *Cache) Current() *Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[c.source.ID()].ds
}

// Invalidate drops the memoized outcome; the next GetOrLoad fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	delete(c.entries, c.source.ID())
	c.gen++
	c.mu.Unlock()
	c.group.Forget(c.source.ID())
	c.metrics.ObserveInvalidation()
	c.logger.Info("dataset cache invalidated", slog.String("source", c.source.ID()))
}

// Reload invalidates and loads again.
func (c *Cache) Reload(ctx context.Context) error {
	c.Invalidate()
	_, err := c.GetOrLoad(ctx)
	return err
}
