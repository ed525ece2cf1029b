package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/campusclinic/console/pkg/common/logger"
)

// FetchFunc loads the value for a query key from the backend.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Result is what a read query observes: the cached or freshly fetched data,
// the error of the most recent fetch, and whether Data predates that error.
// "failed to load" (Err set, Data nil) is distinct from "empty" (both nil).
type Result struct {
	Data  interface{}
	Err   error
	Stale bool
}

// Cache is a keyed read-through cache with request coalescing. Two callers
// fetching the same key before either resolves share one upstream call. The
// cache is eventually consistent: mutations must invalidate the keys they
// affect explicitly rather than waiting out maxAge.
type Cache struct {
	mu      sync.Mutex
	group   singleflight.Group
	entries map[string]*entry
}

type entry struct {
	data      interface{}
	fetchedAt time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Fetch returns the cached value when it is younger than maxAge, otherwise
// fetches through fn. maxAge <= 0 always refetches (Poll uses this). A failed
// refresh leaves previously cached data in place and reports it alongside
// the error (Stale=true).
func (c *Cache) Fetch(ctx context.Context, key string, maxAge time.Duration, fn FetchFunc) Result {
	if maxAge > 0 {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && time.Since(e.fetchedAt) < maxAge {
			data := e.data
			c.mu.Unlock()
			return Result{Data: data}
		}
		c.mu.Unlock()
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		fetched, ferr := fn(ctx)
		if ferr != nil {
			return nil, ferr
		}
		c.mu.Lock()
		c.entries[key] = &entry{data: fetched, fetchedAt: time.Now()}
		c.mu.Unlock()
		return fetched, nil
	})

	if err != nil {
		c.mu.Lock()
		prior, ok := c.entries[key]
		c.mu.Unlock()
		if ok {
			return Result{Data: prior.data, Err: err, Stale: true}
		}
		return Result{Err: err}
	}
	return Result{Data: value}
}

// Invalidate drops the given keys so the next Fetch goes to the backend.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
		c.group.Forget(key)
	}
}

// InvalidatePrefix drops every key under a prefix, e.g. all per-patient
// visit lists.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.group.Forget(key)
		}
	}
}

// Poll revalidates a key on a fixed interval and delivers each result. The
// first fetch happens immediately. Results arriving after ctx is cancelled
// are dropped, never delivered to a consumer that has moved on.
func (c *Cache) Poll(ctx context.Context, key string, interval time.Duration, fn FetchFunc) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		deliver := func() bool {
			res := c.Fetch(ctx, key, 0, fn)
			if res.Err != nil {
				logger.Log.WithError(res.Err).WithField("key", key).Debug("poll refresh failed")
			}
			select {
			case out <- res:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ticker.C:
				if !deliver() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
