package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// sweepInterval is the minimum time between passes that drop expired keys.
const sweepInterval = time.Minute

// Memory is an in-process Cache. Values are JSON encoded so callers see the
// same copy semantics as with Redis. Expired keys are dropped on read and by
// a sweep that runs on writes at most once per sweepInterval.
type Memory struct {
	mu        sync.Mutex
	items     map[string]memoryItem
	now       func() time.Time
	lastSweep time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memoryItem), now: time.Now}
}

func (c *Memory) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	item, ok := c.items[key]
	if ok && item.expired(c.now()) {
		delete(c.items, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (c *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()
	c.items[key] = memoryItem{data: data, expiresAt: c.expiry(ttl)}
	return nil
}

func (c *Memory) SetNX(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	if item, ok := c.items[key]; ok && !item.expired(c.now()) {
		return false, nil
	}
	c.items[key] = memoryItem{data: []byte("1"), expiresAt: c.expiry(ttl)}
	return true, nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *Memory) Close() error {
	return nil
}

// Len reports how many keys are held, expired or not.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// sweep drops expired keys. The caller holds c.mu.
func (c *Memory) sweep() {
	now := c.now()
	if now.Sub(c.lastSweep) < sweepInterval {
		return
	}
	c.lastSweep = now
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
}

func (c *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}
