package topicblog

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/topicblog/content"
)

// topicCache is an in-memory cache of the known topic ids with TTL. It
// answers the topic check of request-time article generation so a burst of
// unknown article requests costs one topic listing per TTL.
type topicCache struct {
	mu      sync.RWMutex
	ids     map[string]bool
	fetched time.Time
	ttl     time.Duration
	src     content.Source
}

func newTopicCache(src content.Source, ttl time.Duration) *topicCache {
	return &topicCache{src: src, ttl: ttl}
}

func (c *topicCache) valid() bool {
	return c.ids != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next lookup triggers a fresh load.
func (c *topicCache) Invalidate() {
	c.mu.Lock()
	c.ids = nil
	c.mu.Unlock()
}

func (c *topicCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	ids, err := c.src.TopicIDs(ctx)
	if err != nil {
		return err
	}
	c.ids = make(map[string]bool, len(ids))
	for _, id := range ids {
		c.ids[id] = true
	}
	c.fetched = time.Now()
	return nil
}

// Contains reports whether id is a known topic. It tries a read lock first
// and only takes the write lock when a reload is needed.
func (c *topicCache) Contains(ctx context.Context, id string) (bool, error) {
	c.mu.RLock()
	if c.valid() {
		ok := c.ids[id]
		c.mu.RUnlock()
		return ok, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return false, err
	}
	return c.ids[id], nil
}
