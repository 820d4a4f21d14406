package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wellnesshub/internal/cache"
	"wellnesshub/internal/config"
	"wellnesshub/internal/database"
	"wellnesshub/internal/repositories"

	"go.uber.org/zap"
)

// ServiceCollection holds all services with dependency injection
type ServiceCollection struct {
	BadgeService   BadgeService
	CatalogService CatalogService

	Engine   *AwardEngine
	Selector *HighlightSelector
	Resolver *ActivityMetricResolver
	Catalog  *CachedCatalog
	Streaks  *StreakCalculator

	Repositories *repositories.Collection
	Cache        cache.Cache
	Logger       *zap.Logger
	Config       *config.Config
	DBManager    *database.Manager

	healthCheckers map[string]HealthChecker
	startTime      time.Time
	mu             sync.RWMutex
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	Services     map[string]ServiceStatus `json:"services"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Cache        *cache.CacheStats        `json:"cache_stats,omitempty"`
	Uptime       string                   `json:"uptime"`
	Issues       []string                 `json:"issues,omitempty"`
}

// ServiceStatus represents the status of an individual service or dependency
type ServiceStatus struct {
	Name         string `json:"name"`
	Status       string `json:"status"` // healthy, degraded, unhealthy
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// NewServiceCollection wires the cache, repositories and badge services
func NewServiceCollection(
	ctx context.Context,
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sc := &ServiceCollection{
		DBManager:      dbManager,
		Config:         cfg,
		Logger:         logger,
		healthCheckers: make(map[string]HealthChecker),
		startTime:      time.Now(),
	}

	sc.initializeCache(ctx)

	var err error
	sc.Repositories, err = repositories.NewCollection(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository collection: %w", err)
	}

	sc.initializeServices()

	logger.Info("Service collection initialized successfully",
		zap.String("cache_provider", cfg.Cache.Provider),
		zap.Bool("cache_shared", sc.Cache.Shared()),
		zap.Duration("catalog_cache_ttl", catalogCacheTTL(sc.Cache, cfg.Badges.CatalogCacheTTL)),
	)

	return sc, nil
}

// initializeCache falls back to the in-memory cache when Redis is unreachable;
// the catalog cache only saves reads
func (sc *ServiceCollection) initializeCache(ctx context.Context) {
	c, err := cache.NewCache(ctx, cache.ConfigFrom(sc.Config.Cache), sc.Logger)
	if err != nil {
		sc.Logger.Warn("Cache unavailable, using in-memory cache", zap.Error(err))
		c = cache.NewMemoryCache(cache.DefaultConfig(), sc.Logger)
	}
	sc.Cache = c
}

func (sc *ServiceCollection) initializeServices() {
	repos := sc.Repositories

	sc.Streaks = NewStreakCalculator(nil)
	sc.Resolver = NewActivityMetricResolver(repos.Meditation, repos.Sleep, repos.Exercise, sc.Streaks, sc.Logger)
	catalogTTL := catalogCacheTTL(sc.Cache, sc.Config.Badges.CatalogCacheTTL)
	if catalogTTL <= 0 && sc.Config.Badges.CatalogCacheTTL > 0 {
		sc.Logger.Info("Catalog caching disabled; the cache is not shared with other processes")
	}
	sc.Catalog = NewCachedCatalog(repos.Badge, sc.Cache, catalogTTL, sc.Logger)
	sc.Engine = NewAwardEngine(sc.Catalog, repos.UserBadge, sc.Resolver, sc.Logger.Named("award_engine"))
	sc.Selector = NewHighlightSelector(repos.UserBadge, nil)

	sc.BadgeService = NewBadgeService(sc.Engine, sc.Selector, sc.Catalog, sc.Config.Badges.EvaluationTimeout, sc.Logger)
	sc.CatalogService = NewCatalogService(repos.Badge, sc.Catalog, sc.Logger)

	if hc, ok := sc.BadgeService.(HealthChecker); ok {
		sc.registerHealthChecker(hc)
	}
}

func (sc *ServiceCollection) registerHealthChecker(hc HealthChecker) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.healthCheckers[hc.ServiceName()] = hc
}

// ===============================
// HEALTH AND LIFECYCLE
// ===============================

// HealthCheck checks the database, the cache, each store and every registered
// service. A failing store or service degrades the result; only the database
// can make it unhealthy.
func (sc *ServiceCollection) HealthCheck(ctx context.Context) *ServiceHealth {
	health := &ServiceHealth{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Services:     make(map[string]ServiceStatus),
		Dependencies: make(map[string]ServiceStatus),
		Uptime:       time.Since(sc.startTime).String(),
		Issues:       []string{},
	}

	if sc.DBManager != nil {
		dbStart := time.Now()
		dbHealth := sc.DBManager.Health(ctx)
		dbStatus := ServiceStatus{
			Name:         "database",
			Status:       dbHealth.Status,
			ResponseTime: time.Since(dbStart).String(),
		}
		if len(dbHealth.Errors) > 0 {
			dbStatus.Error = fmt.Sprintf("%v", dbHealth.Errors)
		}
		health.Dependencies["database"] = dbStatus
		if dbHealth.Status == database.StatusUnhealthy {
			health.Status = "unhealthy"
			health.Issues = append(health.Issues, "database: "+dbStatus.Error)
		} else if dbHealth.Status != database.StatusHealthy {
			health.Status = "degraded"
		}
	}

	if sc.Cache != nil {
		sc.record(health, health.Dependencies, sc.check(ctx, "cache", sc.Cache.Health))

		stats, err := sc.Cache.Stats(ctx)
		if err != nil {
			sc.Logger.Debug("Cache stats unavailable", zap.Error(err))
		} else {
			health.Cache = stats
		}
	}

	if sc.Repositories != nil {
		for name, fn := range sc.Repositories.StoreChecks() {
			sc.record(health, health.Dependencies, sc.check(ctx, name, fn))
		}
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	for name, checker := range sc.healthCheckers {
		sc.record(health, health.Services, sc.check(ctx, name, checker.HealthCheck))
	}

	return health
}

// record stores status under its name and degrades a healthy result on failure
func (sc *ServiceCollection) record(health *ServiceHealth, into map[string]ServiceStatus, status ServiceStatus) {
	into[status.Name] = status
	if status.Status == "healthy" {
		return
	}
	if health.Status == "healthy" {
		health.Status = "degraded"
	}
	health.Issues = append(health.Issues, fmt.Sprintf("%s: %s", status.Name, status.Error))
}

func (sc *ServiceCollection) check(ctx context.Context, name string, fn func(context.Context) error) ServiceStatus {
	start := time.Now()
	err := fn(ctx)

	status := ServiceStatus{
		Name:         name,
		Status:       "healthy",
		ResponseTime: time.Since(start).String(),
	}
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// Shutdown releases the cache and the database pool
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.Logger.Info("Shutting down service collection")

	var errs []error
	if sc.Cache != nil {
		if err := sc.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if sc.DBManager != nil {
		if err := sc.DBManager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		sc.Logger.Error("Errors occurred during shutdown", zap.Error(err))
		return err
	}

	sc.Logger.Info("Service collection shutdown completed")
	return nil
}
