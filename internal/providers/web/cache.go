package web

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sandevgo/tuskqa/internal/core"
)

// Cached memoizes successful lookups, empty results included. Errors are not cached.
type Cached struct {
	next  core.WebKnowledge
	cache *lru.Cache[string, string]
}

func NewCached(next core.WebKnowledge, size int) (*Cached, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Summarize(ctx context.Context, topic string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(topic))
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}

	v, err := c.next.Summarize(ctx, topic)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, v)
	return v, nil
}

func (c *Cached) Len() int {
	return c.cache.Len()
}
