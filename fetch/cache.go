package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/contentstack/cli-query-export/types"
)

// CachedClient memoizes FetchByUID results in a bounded LRU cache.
// Dependency resolution re-requests the same extension and global-field
// records across passes; caching keeps those lookups from hitting the API
// twice. Query fetches pass through uncached because their results depend
// on server-side state the cache cannot key.
type CachedClient struct {
	inner Client
	byUID *lru.Cache[string, json.RawMessage]
}

// NewCachedClient wraps inner with a cache of the given size.
func NewCachedClient(inner Client, size int) (*CachedClient, error) {
	if size <= 0 {
		size = types.DefaultFetchCacheSize
	}
	cache, err := lru.New[string, json.RawMessage](size)
	if err != nil {
		return nil, fmt.Errorf("creating fetch cache: %w", err)
	}
	return &CachedClient{inner: inner, byUID: cache}, nil
}

// FetchByQuery passes through to the inner client.
func (c *CachedClient) FetchByQuery(ctx context.Context, module types.Module, filter map[string]interface{}, page Pagination) (Page, error) {
	return c.inner.FetchByQuery(ctx, module, filter, page)
}

// FetchByUID returns the cached record when present, otherwise fetches
// and caches it. Errors are never cached.
func (c *CachedClient) FetchByUID(ctx context.Context, module types.Module, uid string) (json.RawMessage, error) {
	key := string(module) + "/" + uid
	if item, ok := c.byUID.Get(key); ok {
		return item, nil
	}
	item, err := c.inner.FetchByUID(ctx, module, uid)
	if err != nil {
		return nil, err
	}
	c.byUID.Add(key, item)
	return item, nil
}
