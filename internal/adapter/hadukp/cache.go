package hadukp

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// maxConcurrentFetches bounds parallel region downloads within one load.
const maxConcurrentFetches = 4

// Fetcher retrieves one region's observations from a source.
type Fetcher interface {
	FetchRegion(ctx context.Context, region domain.Region) ([]domain.Observation, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, region domain.Region) ([]domain.Observation, error)

// FetchRegion calls f(ctx, region).
func (f FetcherFunc) FetchRegion(ctx context.Context, region domain.Region) ([]domain.Observation, error) {
	return f(ctx, region)
}

// CachedLoader loads region sets all-or-nothing and memoizes each set in an LRU cache.
// Concurrent loads of the same set share one fetch.
type CachedLoader struct {
	inner   Fetcher
	cache   *lruCache
	group   singleflight.Group
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a CachedLoader.
type Option func(*CachedLoader)

// WithTTL expires cached sets after d. Zero keeps them for the life of the process.
func WithTTL(d time.Duration) Option {
	return func(l *CachedLoader) { l.ttl = d }
}

// WithClock sets the clock used for TTL expiry.
func WithClock(c clockwork.Clock) Option {
	return func(l *CachedLoader) { l.clock = c }
}

// NewCachedLoader creates a cache decorator around a fetcher retaining at most maxEntries region sets.
func NewCachedLoader(inner Fetcher, maxEntries int, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) *CachedLoader {
	l := &CachedLoader{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the observations of every region, grouped by region in request
// order and ascending by date within a region. Any region failure fails the
// whole load with a *domain.DataUnavailableError and nothing is cached.
func (l *CachedLoader) Load(ctx context.Context, regions []domain.Region) ([]domain.Observation, error) {
	if len(regions) == 0 {
		return nil, errors.New("no regions requested")
	}
	regions = uniqueRegions(regions)
	key := domain.RegionSetKey(regions)

	if batch, ok := l.lookup(key); ok {
		return flatten(batch, regions), nil
	}

	// The shared fetch outlives any single caller so one cancelled request
	// does not fail the others waiting on it.
	ch := l.group.DoChan(key, func() (any, error) {
		if batch, ok := l.cache.get(key); ok {
			return batch.regions, nil
		}
		batch, err := l.fetchAll(context.WithoutCancel(ctx), regions)
		if err != nil {
			return nil, err
		}
		l.cache.put(key, batch, l.clock.Now())
		return batch, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return flatten(res.Val.(map[string][]domain.Observation), regions), nil
	}
}

// Invalidate drops every cached region set. The next Load fetches again.
func (l *CachedLoader) Invalidate() {
	n := l.cache.purge()
	l.logger.Info("observation cache invalidated", "entries", n)
}

func (l *CachedLoader) lookup(key string) (map[string][]domain.Observation, bool) {
	e, ok := l.cache.get(key)
	if !ok {
		l.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if l.ttl > 0 && l.clock.Since(e.loadedAt) >= l.ttl {
		l.cache.remove(key)
		l.metrics.CacheLookups.WithLabelValues("expired").Inc()
		l.logger.Debug("observation cache entry expired", "key", key, "loaded_at", e.loadedAt)
		return nil, false
	}
	l.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e.regions, true
}

func (l *CachedLoader) fetchAll(ctx context.Context, regions []domain.Region) (map[string][]domain.Observation, error) {
	start := l.clock.Now()
	results := make([][]domain.Observation, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, r := range regions {
		g.Go(func() error {
			obs, err := l.inner.FetchRegion(gctx, r)
			if err != nil {
				return &domain.DataUnavailableError{Region: r.Name, Err: err}
			}
			if len(obs) == 0 {
				return &domain.DataUnavailableError{Region: r.Name, Err: errors.New("source has no observations")}
			}
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.Error("region set load failed", "regions", domain.RegionSetKey(regions), "error", err)
		return nil, err
	}

	batch := make(map[string][]domain.Observation, len(regions))
	total := 0
	for i, r := range regions {
		batch[r.Name] = results[i]
		total += len(results[i])
	}
	l.metrics.ObservationsLoaded.Set(float64(total))
	l.logger.Info("region set loaded",
		"regions", domain.RegionSetKey(regions),
		"observations", total,
		"duration", l.clock.Since(start),
	)
	return batch, nil
}

func flatten(batch map[string][]domain.Observation, regions []domain.Region) []domain.Observation {
	total := 0
	for _, r := range regions {
		total += len(batch[r.Name])
	}
	out := make([]domain.Observation, 0, total)
	for _, r := range regions {
		out = append(out, batch[r.Name]...)
	}
	return out
}

func uniqueRegions(regions []domain.Region) []domain.Region {
	seen := make(map[string]bool, len(regions))
	out := make([]domain.Region, 0, len(regions))
	for _, r := range regions {
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		out = append(out, r)
	}
	return out
}

// lruCache is a simple thread-safe LRU cache of loaded region sets.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key      string
	regions  map[string][]domain.Observation
	loadedAt time.Time
	prev     *entry
	next     *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	c.moveToFront(e)
	return entry{key: e.key, regions: e.regions, loadedAt: e.loadedAt}, true
}

func (c *lruCache) put(key string, regions map[string][]domain.Observation, loadedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.regions = regions
		e.loadedAt = loadedAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, regions: regions, loadedAt: loadedAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.unlink(e)
	}
}

func (c *lruCache) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
	return n
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
