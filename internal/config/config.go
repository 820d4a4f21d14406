package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Auth       AuthConfig
	Logging    LoggingConfig
	Monitoring MonitoringConfig
	Badges     BadgeConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Environment     string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	MaxHeaderBytes  int

	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection and migration settings
type DatabaseConfig struct {
	URL                 string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	ConnMaxIdleTime     time.Duration
	SlowQueryThreshold  time.Duration
	HealthCheckInterval time.Duration
	MigrationsPath      string

	ConnectTimeout time.Duration `json:"connect_timeout"`
	// MaxConnectWait bounds how long startup retries the first connection.
	MaxConnectWait time.Duration `json:"max_connect_wait"`
}

// CacheConfig selects the cache provider used in front of read-only reference data
type CacheConfig struct {
	Provider      string // memory, redis
	RedisURL      string
	RedisPassword string
	RedisDB       int
	PoolSize      int
	MaxKeys       int
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	// AllowAnonymous disables token checks; never allowed in production.
	AllowAnonymous bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MonitoringConfig controls health and metrics endpoints
type MonitoringConfig struct {
	EnableMetrics   bool
	MetricsPath     string
	HealthCheckPath string
}

// BadgeConfig tunes the badge engine
type BadgeConfig struct {
	// CatalogCacheTTL is how long the active catalog is served from cache.
	// Zero disables catalog caching. It only applies to the redis provider; the
	// memory provider cannot see invalidations issued by wellnessctl.
	CatalogCacheTTL time.Duration
	// EvaluationTimeout bounds a single evaluation triggered over HTTP.
	EvaluationTimeout time.Duration
	// EvaluateRateLimit caps POST /badges/evaluate calls per user per
	// EvaluateRateWindow. Zero disables the limit.
	EvaluateRateLimit  int
	EvaluateRateWindow time.Duration
}

// Load reads configuration from the environment, loading a .env file first
// outside production.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:     loadServerConfig(env),
		Database:   loadDatabaseConfig(env),
		Cache:      loadCacheConfig(),
		Auth:       loadAuthConfig(),
		Logging:    loadLoggingConfig(env),
		Monitoring: loadMonitoringConfig(),
		Badges:     loadBadgeConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadForCLI reads the same environment as Load but only validates the
// sections operator commands use, so no JWT secret or server port is needed.
func LoadForCLI() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		_ = godotenv.Load()
	}

	config := &Config{
		Server:     loadServerConfig(env),
		Database:   loadDatabaseConfig(env),
		Cache:      loadCacheConfig(),
		Logging:    loadLoggingConfig(env),
		Monitoring: loadMonitoringConfig(),
		Badges:     loadBadgeConfig(),
	}

	if err := config.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}
	if err := config.Cache.Validate(); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	if err := config.Badges.Validate(); err != nil {
		return nil, fmt.Errorf("badge config: %w", err)
	}

	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	config := ServerConfig{
		Port:            getEnv("PORT", "9000"),
		Environment:     env,
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1MB
	}

	switch env {
	case "production":
		config.CORSAllowedOrigins = getListEnv("CORS_ALLOWED_ORIGINS", nil)
	default: // development, staging
		config.CORSAllowedOrigins = getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"})
		config.GracefulTimeout = getDurationEnv("GRACEFUL_TIMEOUT", 10*time.Second)
	}

	return config
}

func loadDatabaseConfig(env string) DatabaseConfig {
	var defaultMaxOpen, defaultMaxIdle int
	var defaultConnLifetime time.Duration

	switch env {
	case "production":
		defaultMaxOpen = 50
		defaultMaxIdle = 20
		defaultConnLifetime = 15 * time.Minute
	case "staging":
		defaultMaxOpen = 25
		defaultMaxIdle = 10
		defaultConnLifetime = 10 * time.Minute
	default: // development
		defaultMaxOpen = 10
		defaultMaxIdle = 5
		defaultConnLifetime = 5 * time.Minute
	}

	return DatabaseConfig{
		URL:                 os.Getenv("DATABASE_URL"),
		MaxOpenConns:        getIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpen),
		MaxIdleConns:        getIntEnv("DB_MAX_IDLE_CONNS", defaultMaxIdle),
		ConnMaxLifetime:     getDurationEnv("DB_CONN_MAX_LIFETIME", defaultConnLifetime),
		ConnMaxIdleTime:     getDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		SlowQueryThreshold:  getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		HealthCheckInterval: getDurationEnv("DB_HEALTH_CHECK_INTERVAL", 30*time.Second),
		MigrationsPath:      getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		ConnectTimeout:      getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		MaxConnectWait:      getDurationEnv("DB_MAX_CONNECT_WAIT", 60*time.Second),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Provider:      getEnv("CACHE_PROVIDER", "memory"),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
		MaxKeys:       getIntEnv("CACHE_MAX_KEYS", 10000),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", ""),
		AllowAnonymous: getBoolEnv("AUTH_ALLOW_ANONYMOUS", false),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
	}
}

func loadMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		EnableMetrics:   getBoolEnv("ENABLE_METRICS", true),
		MetricsPath:     getEnv("METRICS_PATH", "/metrics"),
		HealthCheckPath: getEnv("HEALTH_CHECK_PATH", "/health"),
	}
}

func loadBadgeConfig() BadgeConfig {
	return BadgeConfig{
		CatalogCacheTTL:    getDurationEnv("BADGE_CATALOG_CACHE_TTL", 5*time.Minute),
		EvaluationTimeout:  getDurationEnv("BADGE_EVALUATION_TIMEOUT", 10*time.Second),
		EvaluateRateLimit:  getIntEnv("BADGE_EVALUATE_RATE_LIMIT", 30),
		EvaluateRateWindow: getDurationEnv("BADGE_EVALUATE_RATE_WINDOW", time.Minute),
	}
}

// ===============================
// VALIDATION
// ===============================

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Auth.Validate(c.Server.Environment); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Badges.Validate(); err != nil {
		return fmt.Errorf("badge config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}

	return nil
}

func (d *DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be positive")
	}

	if d.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}

	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns cannot be greater than MaxOpenConns")
	}

	if d.ConnMaxLifetime <= 0 {
		return fmt.Errorf("ConnMaxLifetime must be positive")
	}

	if d.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SlowQueryThreshold must be positive")
	}

	return nil
}

func (c *CacheConfig) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "memory", "":
		if c.MaxKeys <= 0 {
			return fmt.Errorf("CACHE_MAX_KEYS must be positive")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_PROVIDER=redis")
		}
	default:
		return fmt.Errorf("unsupported cache provider: %s", c.Provider)
	}
	return nil
}

func (a *AuthConfig) Validate(env string) error {
	if a.AllowAnonymous {
		if env == "production" {
			return fmt.Errorf("AUTH_ALLOW_ANONYMOUS cannot be enabled in production")
		}
		return nil
	}

	if a.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if env == "production" && len(a.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	return nil
}

func (b *BadgeConfig) Validate() error {
	if b.CatalogCacheTTL < 0 {
		return fmt.Errorf("BADGE_CATALOG_CACHE_TTL cannot be negative")
	}

	if b.EvaluationTimeout <= 0 {
		return fmt.Errorf("BADGE_EVALUATION_TIMEOUT must be positive")
	}

	if b.EvaluateRateLimit < 0 {
		return fmt.Errorf("BADGE_EVALUATE_RATE_LIMIT cannot be negative")
	}

	if b.EvaluateRateLimit > 0 && b.EvaluateRateWindow <= 0 {
		return fmt.Errorf("BADGE_EVALUATE_RATE_WINDOW must be positive when a rate limit is set")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ===============================
// ENV HELPERS
// ===============================

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
