package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"wellnesshub/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache stores opaque byte payloads. Callers own serialization. A failed Get is
// reported as a miss so reads can always fall back to the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes keys matching a trailing-wildcard pattern such as "badges:*"
	DeletePattern(ctx context.Context, pattern string) error
	// Increment adds delta to the integer counter at key and returns the new value.
	// A missing or expired counter starts at zero and lives for ttl.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// Shared reports whether entries are visible to other processes
	Shared() bool
	Stats(ctx context.Context) (*CacheStats, error)
	Health(ctx context.Context) error
	Close() error
}

// CacheStats represents cache statistics
type CacheStats struct {
	Provider string        `json:"provider"`
	Hits     int64         `json:"hits"`
	Misses   int64         `json:"misses"`
	Sets     int64         `json:"sets"`
	Deletes  int64         `json:"deletes"`
	Keys     int64         `json:"keys"`
	HitRatio float64       `json:"hit_ratio"`
	Uptime   time.Duration `json:"uptime"`
}

// ===============================
// CACHE CONFIGURATION
// ===============================

// Config holds cache configuration
type Config struct {
	Provider        string // "memory", "redis"
	MaxKeys         int
	CleanupInterval time.Duration

	RedisURL      string
	RedisDB       int
	RedisPassword string
	PoolSize      int
	KeyPrefix     string
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "memory",
		MaxKeys:         10000,
		CleanupInterval: 5 * time.Minute,
		PoolSize:        10,
		KeyPrefix:       "wellnesshub:",
	}
}

// ConfigFrom maps application configuration onto cache settings
func ConfigFrom(cfg config.CacheConfig) *Config {
	c := DefaultConfig()
	if cfg.Provider != "" {
		c.Provider = cfg.Provider
	}
	if cfg.MaxKeys > 0 {
		c.MaxKeys = cfg.MaxKeys
	}
	if cfg.PoolSize > 0 {
		c.PoolSize = cfg.PoolSize
	}
	c.RedisURL = cfg.RedisURL
	c.RedisDB = cfg.RedisDB
	c.RedisPassword = cfg.RedisPassword
	return c
}

// ===============================
// FACTORY FUNCTION
// ===============================

// NewCache creates a new cache instance based on configuration
func NewCache(ctx context.Context, cfg *Config, logger *zap.Logger) (Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Provider) {
	case "redis":
		return NewRedisCache(ctx, cfg, logger)
	case "memory", "":
		logger.Info("Using in-memory cache", zap.Int("max_keys", cfg.MaxKeys))
		return NewMemoryCache(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

type memoryCache struct {
	mu        sync.Mutex
	items     map[string]*cacheItem
	maxKeys   int
	logger    *zap.Logger
	stats     CacheStats
	startTime time.Time
	now       func() time.Time
	stopCh    chan struct{}
	closeOnce sync.Once
}

type cacheItem struct {
	value      []byte
	expiresAt  time.Time
	accessedAt time.Time
}

// NewMemoryCache creates an in-memory cache with LRU eviction once MaxKeys is reached
func NewMemoryCache(cfg *Config, logger *zap.Logger) Cache {
	return newMemoryCache(cfg, logger, time.Now)
}

func newMemoryCache(cfg *Config, logger *zap.Logger, now func() time.Time) *memoryCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultConfig().MaxKeys
	}

	c := &memoryCache{
		items:     make(map[string]*cacheItem),
		maxKeys:   maxKeys,
		logger:    logger,
		stats:     CacheStats{Provider: "memory"},
		startTime: now(),
		now:       now,
		stopCh:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go c.cleanup(cfg.CleanupInterval)
	}

	return c
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}

	now := c.now()
	if !now.Before(item.expiresAt) {
		delete(c.items, key)
		c.stats.Misses++
		return nil, false
	}

	item.accessedAt = now
	c.stats.Hits++

	return append([]byte(nil), item.value...), true
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxKeys {
		c.evictLRU()
	}

	now := c.now()
	c.items[key] = &cacheItem{
		value:      append([]byte(nil), value...),
		expiresAt:  now.Add(ttl),
		accessedAt: now,
	}
	c.stats.Sets++

	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		delete(c.items, key)
		c.stats.Deletes++
	}
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if matchPattern(key, pattern) {
			delete(c.items, key)
			c.stats.Deletes++
		}
	}
	return nil
}

func (c *memoryCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("cache ttl must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	item, exists := c.items[key]
	if !exists || !now.Before(item.expiresAt) {
		if !exists && len(c.items) >= c.maxKeys {
			c.evictLRU()
		}
		c.items[key] = &cacheItem{
			value:      []byte(strconv.FormatInt(delta, 10)),
			expiresAt:  now.Add(ttl),
			accessedAt: now,
		}
		c.stats.Sets++
		return delta, nil
	}

	current, err := strconv.ParseInt(string(item.value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not an integer", key)
	}

	current += delta
	item.value = []byte(strconv.FormatInt(current, 10))
	item.accessedAt = now
	return current, nil
}

func (c *memoryCache) Shared() bool {
	return false
}

func (c *memoryCache) Stats(ctx context.Context) (*CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Keys = int64(len(c.items))
	stats.Uptime = c.now().Sub(c.startTime)

	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRatio = float64(stats.Hits) / float64(total)
	}

	return &stats, nil
}

func (c *memoryCache) Health(ctx context.Context) error {
	return nil
}

func (c *memoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

func (c *memoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expired := 0
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
			expired++
		}
	}

	if expired > 0 {
		c.logger.Debug("Cleaned up expired cache items",
			zap.Int("expired_count", expired),
			zap.Int("remaining_count", len(c.items)),
		)
	}
}

// evictLRU evicts the least recently used item; caller holds the lock
func (c *memoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.accessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.accessedAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// matchPattern performs simple wildcard pattern matching
func matchPattern(str, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(str, strings.TrimSuffix(pattern, "*"))
	}

	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(str, strings.TrimPrefix(pattern, "*"))
	}

	return str == pattern
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client    *redis.Client
	logger    *zap.Logger
	prefix    string
	startTime time.Time
}

// NewRedisCache creates a new Redis-based cache and verifies the connection
func NewRedisCache(ctx context.Context, cfg *Config, logger *zap.Logger) (Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache config cannot be nil")
	}

	var options *redis.Options
	if cfg.RedisURL != "" {
		var err error
		options, err = redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		if cfg.RedisPassword != "" {
			options.Password = cfg.RedisPassword
		}
	} else {
		options = &redis.Options{
			Addr:     "localhost:6379",
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	if cfg.PoolSize > 0 {
		options.PoolSize = cfg.PoolSize
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache initialized",
		zap.String("addr", options.Addr),
		zap.Int("db", options.DB),
	)

	return newRedisCacheFromClient(client, cfg.KeyPrefix, logger), nil
}

func newRedisCacheFromClient(client *redis.Client, prefix string, logger *zap.Logger) *redisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisCache{
		client:    client,
		logger:    logger,
		prefix:    prefix,
		startTime: time.Now(),
	}
}

func (r *redisCache) key(key string) string {
	return r.prefix + key
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		r.logger.Warn("Failed to get from Redis",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}
	return val, true
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in Redis: %w", key, err)
	}
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// DeletePattern scans rather than using KEYS so large keyspaces are not blocked
func (r *redisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, r.key(pattern), 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan Redis keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Increment uses INCRBY; the expiry is set by whichever caller created the key
func (r *redisCache) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, fmt.Errorf("cache ttl must be positive")
	}

	k := r.key(key)
	value, err := r.client.IncrBy(ctx, k, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s in Redis: %w", key, err)
	}

	if value == delta {
		if err := r.client.Expire(ctx, k, ttl).Err(); err != nil {
			r.logger.Warn("Failed to set counter expiry",
				zap.String("key", key),
				zap.Error(err))
		}
	}
	return value, nil
}

func (r *redisCache) Shared() bool {
	return true
}

func (r *redisCache) Stats(ctx context.Context) (*CacheStats, error) {
	size, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read Redis stats: %w", err)
	}

	return &CacheStats{
		Provider: "redis",
		Keys:     size,
		Uptime:   time.Since(r.startTime),
	}, nil
}

func (r *redisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
