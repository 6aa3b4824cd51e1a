package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// DefaultCacheTTL bounds how stale a cached snapshot may be.
const DefaultCacheTTL = 60 * time.Second

type snapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CatalogKey() string
}

// CachedLoader serves snapshots from Redis and falls back to the wrapped
// Loader on a miss. Cache failures are logged and never fail the request.
type CachedLoader struct {
	next  Loader
	store snapshotStore
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCachedLoader(next Loader, store snapshotStore, ttl time.Duration, logg *logger.Logger) (*CachedLoader, error) {
	if next == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedLoader{next: next, store: store, ttl: ttl, logg: logg}, nil
}

func (c *CachedLoader) LoadCatalog(ctx context.Context) (*Catalog, error) {
	key := c.store.CatalogKey()

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached Catalog
		uerr := json.Unmarshal([]byte(raw), &cached)
		if uerr == nil {
			return New(cached), nil
		}
		c.logg.Warn(c.logg.WithField(ctx, "error", uerr.Error()), "catalog.cache_decode_failed")
	case !errors.Is(err, pkgredis.ErrNotFound):
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "catalog.cache_read_failed")
	}

	snapshot, err := c.next.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "catalog.cache_encode_failed")
		return snapshot, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "catalog.cache_write_failed")
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next load reads the database.
func (c *CachedLoader) Invalidate(ctx context.Context) error {
	return c.store.Del(ctx, c.store.CatalogKey())
}
