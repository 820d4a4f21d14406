package services

import (
	"context"
	"fmt"
	"time"

	"wellnesshub/internal/models"
	"wellnesshub/internal/repositories"

	"golang.org/x/exp/slices"
)

// HighlightSelector serves a user's earned badges, either all of them or only
// those still inside their highlight window
type HighlightSelector struct {
	userBadges repositories.UserBadgeRepository
	now        func() time.Time
}

// NewHighlightSelector creates a selector; nil now means time.Now
func NewHighlightSelector(userBadges repositories.UserBadgeRepository, now func() time.Time) *HighlightSelector {
	if now == nil {
		now = time.Now
	}
	return &HighlightSelector{userBadges: userBadges, now: now}
}

// Select returns still-highlighted badges, most recently earned first. limit
// defaults to 3 and is clamped to [1, 20]; filtering happens before truncation.
func (s *HighlightSelector) Select(ctx context.Context, userID string, limit *int) ([]*models.HighlightedBadgeView, error) {
	n := *ResolveLimit(limit, intPtr(DefaultHighlightLimit), MinHighlightLimit, MaxHighlightLimit)

	items, err := s.userBadges.ListByUser(ctx, userID, repositories.ListUserBadgesOptions{WithBadge: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	sortByEarnedDesc(items)

	now := s.now()
	views := make([]*models.HighlightedBadgeView, 0, n)
	for _, item := range items {
		if len(views) == n {
			break
		}
		if !isHighlighted(item, now) {
			continue
		}
		views = append(views, item.ToHighlightedView())
	}

	return views, nil
}

// ListAll returns every earned badge, most recently earned first. limit is
// clamped to [1, 50] when given and unbounded otherwise.
func (s *HighlightSelector) ListAll(ctx context.Context, userID string, limit *int) ([]*models.UserBadgeView, error) {
	opts := repositories.ListUserBadgesOptions{WithBadge: true}
	if n := ResolveLimit(limit, nil, MinBadgeListLimit, MaxBadgeListLimit); n != nil {
		opts.Limit = *n
	}

	items, err := s.userBadges.ListByUser(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	sortByEarnedDesc(items)

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	views := make([]*models.UserBadgeView, 0, len(items))
	for _, item := range items {
		views = append(views, item.ToUserBadgeView())
	}
	return views, nil
}

// isHighlighted reports whether earnedAt + window is strictly after now
func isHighlighted(item *models.UserBadgeWithBadge, now time.Time) bool {
	window, ok := item.Badge.HighlightWindow()
	if !ok {
		return false
	}
	return item.EarnedAt.Add(window).After(now)
}

func sortByEarnedDesc(items []*models.UserBadgeWithBadge) {
	slices.SortStableFunc(items, func(a, b *models.UserBadgeWithBadge) int {
		return b.EarnedAt.Compare(a.EarnedAt)
	})
}
