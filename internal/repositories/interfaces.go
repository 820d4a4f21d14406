package repositories

import (
	"context"

	"wellnesshub/internal/models"
)

// ===============================
// BADGE CATALOG
// ===============================

// BadgeRepository reads and seeds badge definitions
type BadgeRepository interface {
	// ListActive returns active definitions ordered by sort_order ascending
	ListActive(ctx context.Context) ([]*models.BadgeDefinition, error)
	// ListAll includes inactive definitions; used by operator tooling
	ListAll(ctx context.Context) ([]*models.BadgeDefinition, error)
	GetBySlug(ctx context.Context, slug string) (*models.BadgeDefinition, error)
	// Upsert inserts or updates a definition by slug and fills in ID and timestamps
	Upsert(ctx context.Context, badge *models.BadgeDefinition) error
}

// ===============================
// USER BADGES
// ===============================

// ListUserBadgesOptions controls ListByUser. A Limit of zero means unbounded.
type ListUserBadgesOptions struct {
	WithBadge bool
	Limit     int
}

// UserBadgeRepository stores earned badges
type UserBadgeRepository interface {
	FindEarnedBadgeIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	// CreateIfAbsent returns ErrUserBadgeConflict when the (user, badge) pair
	// already exists. Any other error is a storage fault.
	CreateIfAbsent(ctx context.Context, userID, badgeID string, metricValue int64) (*models.UserBadge, error)
	// ListByUser returns badges ordered by earned_at descending
	ListByUser(ctx context.Context, userID string, opts ListUserBadgesOptions) ([]*models.UserBadgeWithBadge, error)
}

// ===============================
// ACTIVITIES
// ===============================

// ActivityRepository reads one kind of wellness activity
type ActivityRepository interface {
	Kind() models.ActivityKind
	CountByUser(ctx context.Context, userID string) (int64, error)
	ListTimestampsByUser(ctx context.Context, userID string) ([]models.ActivityTimestamps, error)
}
