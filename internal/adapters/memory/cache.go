// Package memory is an in-process domain.Cache for single-instance runs.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rentfinder/internal/adapters/observability"
)

type entry struct {
	val     []byte
	expires time.Time // zero: never
}

// sweepEvery bounds how often Set walks the map for expired entries.
const sweepEvery = time.Minute

type Cache struct {
	mu        sync.Mutex
	data      map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

func New() *Cache {
	return &Cache{data: map[string]entry{}, now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.data[key]
	if ok && !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.data, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.val, dst)
}

// Set stores v as JSON so readers never share memory with the writer.
func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{val: b}
	now := c.now()
	if ttlSec > 0 {
		e.expires = now.Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	if now.Sub(c.lastSweep) >= sweepEvery {
		c.sweepLocked(now)
	}
	c.data[key] = e
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

// sweepLocked drops every expired entry, including keys nobody reads again.
// c.mu must be held.
func (c *Cache) sweepLocked(now time.Time) {
	for k, e := range c.data {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(c.data, k)
		}
	}
	c.lastSweep = now
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}
