package services

import (
	"context"
	"encoding/json"
	"time"

	"wellnesshub/internal/cache"
	"wellnesshub/internal/metrics"
	"wellnesshub/internal/models"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// BadgeCatalog is read-only access to the active badge definitions
type BadgeCatalog interface {
	// ListActive returns active definitions ordered by sort order ascending
	ListActive(ctx context.Context) ([]*models.BadgeDefinition, error)
}

const (
	catalogCacheVersion = "v1"
	catalogCacheKey     = "badges:catalog:active:" + catalogCacheVersion
	catalogCachePattern = "badges:catalog:*"
)

// CachedCatalog fronts a catalog store with a read-through cache. Cache
// failures are logged and the store is used instead.
type CachedCatalog struct {
	store  BadgeCatalog
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCatalog wraps store. A nil cache or non-positive ttl disables caching.
func NewCachedCatalog(store BadgeCatalog, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCatalog{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// catalogCacheTTL returns the catalog lifetime to use with c. Invalidate only
// reaches entries in the cache it runs against, so a process-local cache would
// keep serving a deactivated badge until ttl ran out; caching is disabled for it.
// With a shared cache a reader racing a seed can still store the old catalog
// after the seed invalidates it, which bounds staleness by ttl.
func catalogCacheTTL(c cache.Cache, ttl time.Duration) time.Duration {
	if c == nil || !c.Shared() {
		return 0
	}
	return ttl
}

func (c *CachedCatalog) enabled() bool {
	return c.cache != nil && c.ttl > 0
}

// ListActive serves the catalog from cache when possible
func (c *CachedCatalog) ListActive(ctx context.Context) ([]*models.BadgeDefinition, error) {
	if c.enabled() {
		if raw, found := c.cache.Get(ctx, catalogCacheKey); found {
			var badges []*models.BadgeDefinition
			err := json.Unmarshal(raw, &badges)
			if err == nil {
				metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
				return badges, nil
			}
			metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
			c.logger.Warn("Discarding unreadable catalog cache entry", zap.Error(err))
		} else {
			metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	badges, err := c.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	badges = normalizeCatalog(badges)

	if c.enabled() {
		if raw, err := json.Marshal(badges); err != nil {
			c.logger.Warn("Failed to encode catalog for cache", zap.Error(err))
		} else if err := c.cache.Set(ctx, catalogCacheKey, raw, c.ttl); err != nil {
			c.logger.Warn("Failed to cache badge catalog", zap.Error(err))
		}
	}

	return badges, nil
}

// Invalidate drops cached catalog entries, e.g. after seeding
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.DeletePattern(ctx, catalogCachePattern)
}

// normalizeCatalog drops inactive definitions and orders by sort order,
// keeping store order for ties
func normalizeCatalog(badges []*models.BadgeDefinition) []*models.BadgeDefinition {
	active := make([]*models.BadgeDefinition, 0, len(badges))
	for _, b := range badges {
		if b != nil && b.IsActive {
			active = append(active, b)
		}
	}

	slices.SortStableFunc(active, func(a, b *models.BadgeDefinition) int {
		return a.SortOrder - b.SortOrder
	})
	return active
}
