package services

import (
	"context"

	"wellnesshub/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// BadgeService is the badge engine surface used by request handlers and the CLI
type BadgeService interface {
	// Evaluate awards newly earned badges. Safe to call concurrently for the same user.
	Evaluate(ctx context.Context, userID string) ([]*models.NewlyEarnedBadge, error)
	// GetUserBadges lists earned badges, newest first; limit is clamped to [1, 50] when set
	GetUserBadges(ctx context.Context, userID string, limit *int) ([]*models.UserBadgeView, error)
	// GetHighlightedBadges lists badges still in their highlight window; limit defaults to 3
	GetHighlightedBadges(ctx context.Context, userID string, limit *int) ([]*models.HighlightedBadgeView, error)
}

// CatalogService manages badge definitions for operators
type CatalogService interface {
	// Seed validates and upserts definitions by slug, then drops the cached catalog
	Seed(ctx context.Context, badges []*models.BadgeDefinition) (*SeedResult, error)
	ListDefinitions(ctx context.Context) ([]*models.BadgeDefinition, error)
}

// SeedResult summarizes a catalog seed
type SeedResult struct {
	Upserted int      `json:"upserted"`
	Slugs    []string `json:"slugs"`
}

// HealthChecker interface for service health checks
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	ServiceName() string
}
