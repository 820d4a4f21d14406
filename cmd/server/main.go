// @title           WellnessHub Badge API
// @version         1.0.0
// @description     Achievement badges earned from meditation, sleep and exercise activity

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:9000
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellnesshub/internal/config"
	"wellnesshub/internal/database"
	"wellnesshub/internal/logging"
	"wellnesshub/internal/middleware"
	"wellnesshub/internal/response"
	"wellnesshub/internal/router"
	"wellnesshub/internal/services"
	"wellnesshub/internal/utils/appinfo"

	"go.uber.org/zap"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wellnesshub:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting WellnessHub",
		zap.String("version", appinfo.Version(version)),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.MaxConnectWait+30*time.Second)
	defer cancel()

	dbManager, err := database.Bootstrap(startupCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	serviceCollection, err := services.NewServiceCollection(startupCtx, dbManager, cfg, logger)
	if err != nil {
		_ = dbManager.Close()
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	authMiddleware, err := middleware.NewAuthMiddleware(&middleware.AuthConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.JWTIssuer,
		AllowAnonymous: cfg.Auth.AllowAnonymous,
		Leeway:         30 * time.Second,
	}, logger)
	if err != nil {
		_ = serviceCollection.Shutdown(context.Background())
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}
	if cfg.Auth.AllowAnonymous {
		logger.Warn("Anonymous access enabled; user identity is taken from the X-User-ID header")
	}

	responseConfig := response.DefaultConfig()
	responseConfig.PrettyJSON = cfg.IsDevelopment()
	responseConfig.MaskInternalErrors = cfg.IsProduction()
	responseBuilder := response.NewBuilder(responseConfig, logger)

	handler := router.SetupRouter(serviceCollection, authMiddleware, responseBuilder, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", server.Addr),
			zap.String("health_check", cfg.Monitoring.HealthCheckPath),
			zap.Bool("metrics", cfg.Monitoring.EnableMetrics),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
		_ = serviceCollection.Shutdown(context.Background())
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("Server shutdown completed")
	}

	finalMetrics := dbManager.Metrics()
	logger.Info("Final database metrics",
		zap.Int64("total_queries", finalMetrics.QueryCount),
		zap.Int64("total_errors", finalMetrics.ErrorCount),
		zap.Int64("slow_queries", finalMetrics.SlowQueryCount),
		zap.Duration("avg_query_duration", finalMetrics.AvgQueryDuration),
	)

	if err := serviceCollection.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Application shutdown completed")
	return nil
}
