package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"wellnesshub/internal/handlers/api/v1/badges"
	"wellnesshub/internal/middleware"
	"wellnesshub/internal/response"
	"wellnesshub/internal/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// healthTimeout bounds a single /health request
const healthTimeout = 5 * time.Second

// Options carries everything the route table needs
type Options struct {
	BadgeService    services.BadgeService
	Health          func(ctx context.Context) *services.ServiceHealth
	AuthMiddleware  *middleware.AuthMiddleware
	// EvaluateLimiter throttles POST /badges/evaluate; nil disables it
	EvaluateLimiter *middleware.RateLimiter
	ResponseBuilder *response.Builder
	Logger          *zap.Logger

	CORSAllowedOrigins []string
	EnableMetrics      bool
	MetricsPath        string
	HealthCheckPath    string
	// SwaggerSpecFile is served at /swagger/doc.json; empty disables the UI
	SwaggerSpecFile string
}

// SetupRouter builds the route table from the service collection
func SetupRouter(sc *services.ServiceCollection, authMiddleware *middleware.AuthMiddleware, responseBuilder *response.Builder, logger *zap.Logger) http.Handler {
	evaluateLimiter := middleware.NewRateLimiter(sc.Cache, &middleware.RateLimiterConfig{
		Limit:          sc.Config.Badges.EvaluateRateLimit,
		Window:         sc.Config.Badges.EvaluateRateWindow,
		KeyPrefix:      "ratelimit:evaluate",
		HeadersEnabled: true,
	}, logger)

	return New(Options{
		BadgeService:       sc.BadgeService,
		Health:             sc.HealthCheck,
		AuthMiddleware:     authMiddleware,
		EvaluateLimiter:    evaluateLimiter,
		ResponseBuilder:    responseBuilder,
		Logger:             logger,
		CORSAllowedOrigins: sc.Config.Server.CORSAllowedOrigins,
		EnableMetrics:      sc.Config.Monitoring.EnableMetrics,
		MetricsPath:        sc.Config.Monitoring.MetricsPath,
		HealthCheckPath:    sc.Config.Monitoring.HealthCheckPath,
		SwaggerSpecFile:    "./docs/swagger.json",
	})
}

// New configures all HTTP routes and returns the main handler
func New(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ResponseBuilder == nil {
		opts.ResponseBuilder = response.NewBuilder(nil, opts.Logger)
	}
	if opts.HealthCheckPath == "" {
		opts.HealthCheckPath = "/health"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID(opts.Logger))
	r.Use(middleware.RecoverPanic())
	r.Use(middleware.EnhancedLogging())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecureHeaders)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		opts.ResponseBuilder.WriteError(w, req, services.NewNotFoundError("Route not found"))
	})

	// ===============================
	// OPERATIONAL ENDPOINTS
	// ===============================

	if opts.Health != nil {
		r.HandleFunc(opts.HealthCheckPath, healthHandler(opts.Health)).Methods(http.MethodGet)
	}

	if opts.EnableMetrics {
		r.Handle(opts.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	if opts.SwaggerSpecFile != "" {
		specFile := opts.SwaggerSpecFile
		r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, req, specFile)
		}).Methods(http.MethodGet)
		r.PathPrefix("/swagger/").Handler(middleware.SwaggerHandler(nil))
	}

	// ===============================
	// API V1
	// ===============================

	if opts.BadgeService != nil {
		addBadgeRoutes(r.PathPrefix("/api/v1").Subrouter(), opts)
	}

	return corsHandler(opts.CORSAllowedOrigins).Handler(r)
}

func addBadgeRoutes(api *mux.Router, opts Options) {
	if opts.AuthMiddleware != nil {
		api.Use(opts.AuthMiddleware.RequireAuth())
	}

	controller := badges.NewBadgeController(opts.BadgeService, opts.Logger, opts.ResponseBuilder)

	var evaluate http.Handler = http.HandlerFunc(controller.Evaluate)
	if opts.EvaluateLimiter != nil {
		evaluate = opts.EvaluateLimiter.PerUser()(evaluate)
	}

	api.Handle("/badges/evaluate", evaluate).Methods(http.MethodPost)
	api.HandleFunc("/badges/highlights", controller.ListHighlights).Methods(http.MethodGet)
	api.HandleFunc("/badges", controller.ListBadges).Methods(http.MethodGet)
}

// healthHandler answers 200 while the service can serve requests and 503 once
// a hard dependency is down
func healthHandler(check func(ctx context.Context) *services.ServiceHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		health := check(ctx)
		status := http.StatusOK
		if health.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(health)
	}
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.HeaderXRequestID, middleware.HeaderXUserID},
		ExposedHeaders: []string{middleware.HeaderXRequestID},
		MaxAge:         300,
	})
}
