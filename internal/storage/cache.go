package storage

// cache.go
import (
	"context"
	"maps"
	"time"

	"github.com/patrickmn/go-cache"
)

const optionsKey = "csp_options"

// CachedStore — кеш чтения настроек поверх Store. Save сбрасывает кеш.
type CachedStore struct {
	store Store
	cache *cache.Cache
}

// NewCachedStore оборачивает store; ttl <= 0 — кеш не нужен, возвращается store как есть.
func NewCachedStore(store Store, ttl time.Duration) Store {
	if ttl <= 0 {
		return store
	}
	return &CachedStore{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Options отдаёт копию: вызывающий может менять map без гонок с кешем.
func (c *CachedStore) Options(ctx context.Context) (map[string]string, error) {
	if v, ok := c.cache.Get(optionsKey); ok {
		return maps.Clone(v.(map[string]string)), nil
	}
	opts, err := c.store.Options(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(optionsKey, maps.Clone(opts))
	return opts, nil
}

func (c *CachedStore) Save(ctx context.Context, opts map[string]string) error {
	defer c.cache.Delete(optionsKey)
	return c.store.Save(ctx, opts)
}
