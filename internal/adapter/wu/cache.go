package wu

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wu-history-viewer/internal/observability"
)

// HistoryFetcher returns the raw history body for a station and day.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, stationID, date string) ([]byte, error)
}

// CachedFetcher wraps a HistoryFetcher with an in-memory LRU cache whose
// entries expire after a fixed TTL.
type CachedFetcher struct {
	inner   HistoryFetcher
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher. Pass a nil
// clock to use real time.
func NewCachedFetcher(inner HistoryFetcher, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedFetcher) FetchHistory(ctx context.Context, stationID, date string) ([]byte, error) {
	body, _, err := c.FetchHistoryFresh(ctx, stationID, date)
	return body, err
}

// FetchHistoryFresh is FetchHistory that also reports whether the body came
// from upstream (true) or from the cache (false).
func (c *CachedFetcher) FetchHistoryFresh(ctx context.Context, stationID, date string) ([]byte, bool, error) {
	key := stationID + "|" + date
	now := c.clock.Now()

	if body, storedAt, ok := c.cache.get(key); ok {
		if now.Sub(storedAt) < c.ttl {
			c.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return body, false, nil
		}
		c.cache.remove(key)
		c.metrics.CacheLookups.WithLabelValues("expired").Inc()
	} else {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	body, err := c.inner.FetchHistory(ctx, stationID, date)
	if err != nil {
		return nil, false, err
	}
	// Errors are never cached so a transient upstream failure can be retried.
	c.cache.put(key, body, now)
	return body, true, nil
}

// CheckReadiness delegates to the wrapped fetcher when it supports readiness.
func (c *CachedFetcher) CheckReadiness(ctx context.Context) error {
	if r, ok := c.inner.(interface{ CheckReadiness(context.Context) error }); ok {
		return r.CheckReadiness(ctx)
	}
	return nil
}

// lruCache is a simple thread-safe LRU cache for response bodies.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key      string
	body     []byte
	storedAt time.Time
	prev     *entry
	next     *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	c.moveToFront(e)
	return e.body, e.storedAt, true
}

func (c *lruCache) put(key string, body []byte, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.body = body
		e.storedAt = storedAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, body: body, storedAt: storedAt}
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

func (c *lruCache) size() int {
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
