package services

import (
	"context"
	"encoding/json"
)

// FeedCachePrefix prefixes every cached feed key.
const FeedCachePrefix = "cache:posts:"

// FeedCache stores serialized feed pages. A nil FeedCache disables caching.
type FeedCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool)
	SetJSON(ctx context.Context, key string, v interface{})
	InvalidatePrefix(ctx context.Context, prefix string)
}

func cacheGet(ctx context.Context, c FeedCache, key string, out interface{}) bool {
	if c == nil {
		return false
	}
	b, ok := c.GetBytes(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func cacheSet(ctx context.Context, c FeedCache, key string, v interface{}) {
	if c != nil {
		c.SetJSON(ctx, key, v)
	}
}

func invalidateFeed(ctx context.Context, c FeedCache) {
	if c != nil {
		c.InvalidatePrefix(ctx, FeedCachePrefix)
	}
}
