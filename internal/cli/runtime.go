package cli

import (
	"context"
	"fmt"

	"wellnesshub/internal/config"
	"wellnesshub/internal/database"
	"wellnesshub/internal/logging"
	"wellnesshub/internal/services"
)

// Migrator applies schema migrations
type Migrator interface {
	Migrate(migrationsPath string) error
	MigrateDown(migrationsPath string, steps int) error
}

// Runtime is what the commands operate on
type Runtime struct {
	Badges         services.BadgeService
	Catalog        services.CatalogService
	Migrator       Migrator
	MigrationsPath string
	Close          func(ctx context.Context) error
}

// RuntimeFactory builds a Runtime for one command invocation
type RuntimeFactory func(ctx context.Context) (*Runtime, error)

// DefaultRuntime connects to the configured database and wires the services
func DefaultRuntime(ctx context.Context) (*Runtime, error) {
	cfg, err := config.LoadForCLI()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		return nil, err
	}

	manager, err := database.Open(ctx, &cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	sc, err := services.NewServiceCollection(ctx, manager, cfg, logger)
	if err != nil {
		_ = manager.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Runtime{
		Badges:         sc.BadgeService,
		Catalog:        sc.CatalogService,
		Migrator:       manager,
		MigrationsPath: database.ResolveMigrationsPath(cfg.Database.MigrationsPath),
		Close: func(ctx context.Context) error {
			defer logger.Sync()
			return sc.Shutdown(ctx)
		},
	}, nil
}
