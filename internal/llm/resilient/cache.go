package resilient

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"

	"github.com/tbourn/go-assistant-backend/internal/llm"
)

// Cache is a process-lifetime, capacity-bounded response cache. It is
// additive-only: once full, new keys are rejected rather than evicting old
// ones, so the entry count never exceeds the configured capacity.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]string
	capacity int
}

// NewCache returns an empty cache holding at most capacity entries.
// A non-positive capacity yields a cache that stores nothing.
func NewCache(capacity int) *Cache {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache{entries: make(map[string]string, capacity), capacity: capacity}
}

// Get returns the cached response for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores val under key unless the cache is full. It reports whether the
// key is present afterwards; an existing entry is never replaced.
func (c *Cache) Put(key, val string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return true
	}
	if len(c.entries) >= c.capacity {
		return false
	}
	c.entries[key] = val
	return true
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cap returns the configured capacity.
func (c *Cache) Cap() int { return c.capacity }

// keyMaterial is the request identity hashed into a cache key.
type keyMaterial struct {
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Options  llm.Options   `json:"options"`
}

// Key derives the deterministic cache key for one request: the sha256 of
// the RFC 8785 canonical JSON of provider, model, ordered messages and
// generation options.
func Key(d llm.Descriptor, msgs []llm.Message, opts llm.Options) (string, error) {
	raw, err := json.Marshal(keyMaterial{Provider: d.Name, Model: d.Model, Messages: msgs, Options: opts})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
