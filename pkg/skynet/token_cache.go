package skynet

import (
	"sync"
	"time"
)

// tokenCache holds the SecurityToken payload between authenticated calls.
type tokenCache interface {
	Get() (any, bool)
	Set(payload any)
	Clear()
}

func newTokenCache(ttl time.Duration) tokenCache {
	if ttl <= 0 {
		return noopTokenCache{}
	}
	return &memoryTokenCache{ttl: ttl, now: time.Now}
}

// memoryTokenCache keeps the most recent token until ttl elapses.
type memoryTokenCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	payload   any
	expiresAt time.Time
}

func (c *memoryTokenCache) Get() (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.payload == nil || !c.now().Before(c.expiresAt) {
		return nil, false
	}
	return c.payload, true
}

func (c *memoryTokenCache) Set(payload any) {
	c.mu.Lock()
	c.payload = payload
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()
}

func (c *memoryTokenCache) Clear() {
	c.mu.Lock()
	c.payload = nil
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// noopTokenCache is used when caching is disabled: every call fetches a fresh token.
type noopTokenCache struct{}

func (noopTokenCache) Get() (any, bool) { return nil, false }
func (noopTokenCache) Set(any)          {}
func (noopTokenCache) Clear()           {}
