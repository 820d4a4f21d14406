package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"wellnesshub/internal/config"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Open connects to PostgreSQL, retrying with exponential backoff until the
// database answers or MaxConnectWait elapses.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var manager *Manager
	operation := func() error {
		m, err := NewManager(ctx, cfg, logger)
		if err != nil {
			return err
		}
		manager = m
		return nil
	}

	if err := retry(ctx, cfg.MaxConnectWait, logger, "connect", operation); err != nil {
		return nil, fmt.Errorf("database unavailable after %s: %w", cfg.MaxConnectWait, err)
	}

	return manager, nil
}

// Bootstrap opens the pool, applies migrations and waits for a healthy status.
// Used by the server on startup.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	manager, err := Open(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	migrationsPath := ResolveMigrationsPath(cfg.Database.MigrationsPath)
	logger.Info("Running database migrations", zap.String("path", migrationsPath))

	if err := manager.Migrate(migrationsPath); err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	if err := WaitForHealthy(ctx, manager, cfg.Database.MaxConnectWait, logger); err != nil {
		manager.Close()
		return nil, err
	}

	stats := manager.DB().Stats()
	logger.Info("Database ready",
		zap.String("migrations_path", migrationsPath),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("max_open_connections", stats.MaxOpenConnections),
	)

	return manager, nil
}

// WaitForHealthy polls the health checker with exponential backoff
func WaitForHealthy(ctx context.Context, manager *Manager, maxWait time.Duration, logger *zap.Logger) error {
	operation := func() error {
		status := manager.Health(ctx)
		if status.Status == StatusHealthy {
			logger.Info("Database is healthy", zap.Duration("response_time", status.ResponseTime))
			return nil
		}
		return fmt.Errorf("database status %s: %v", status.Status, status.Errors)
	}

	if err := retry(ctx, maxWait, logger, "health", operation); err != nil {
		return fmt.Errorf("database failed to become healthy: %w", err)
	}
	return nil
}

func retry(ctx context.Context, maxWait time.Duration, logger *zap.Logger, step string, operation backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = maxWait
	if maxWait <= 0 {
		b.MaxElapsedTime = 30 * time.Second
	}

	return backoff.RetryNotify(operation, backoff.WithContext(b, ctx), func(err error, d time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.String("step", step),
			zap.Error(err),
			zap.Duration("backoff", d),
		)
	})
}

// WithTransaction runs fn inside a transaction, rolling back on error or panic
func WithTransaction(ctx context.Context, manager *Manager, fn func(*sql.Tx) error) error {
	tx, err := manager.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ResolveMigrationsPath returns configPath when it exists, otherwise the first
// migrations directory found relative to the working directory
func ResolveMigrationsPath(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	paths := []string{
		"./migrations",
		"../migrations",
		"../../migrations",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "./migrations"
}
