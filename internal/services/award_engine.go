package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wellnesshub/internal/metrics"
	"wellnesshub/internal/models"
	"wellnesshub/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AwardEngine decides which pending badges a user has earned and records them.
// It holds no locks: the (user, badge) unique constraint in the store decides
// which of several concurrent evaluations creates a given award.
type AwardEngine struct {
	catalog    BadgeCatalog
	userBadges repositories.UserBadgeRepository
	resolver   MetricResolver
	logger     *zap.Logger
}

// NewAwardEngine creates an engine over the given collaborators
func NewAwardEngine(
	catalog BadgeCatalog,
	userBadges repositories.UserBadgeRepository,
	resolver MetricResolver,
	logger *zap.Logger,
) *AwardEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AwardEngine{
		catalog:    catalog,
		userBadges: userBadges,
		resolver:   resolver,
		logger:     logger,
	}
}

// Evaluate awards every pending badge whose metric has reached its threshold
// and returns the badges this call created, in catalog order. Awards lost to a
// concurrent caller are skipped silently. Badges created before a failure stay
// created.
func (e *AwardEngine) Evaluate(ctx context.Context, userID string) ([]*models.NewlyEarnedBadge, error) {
	logger := e.logger.With(zap.String("user_id", userID))
	earnedNow := []*models.NewlyEarnedBadge{}

	catalog, err := e.catalog.ListActive(ctx)
	if err != nil {
		metrics.Evaluations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	if len(catalog) == 0 {
		metrics.Evaluations.WithLabelValues("empty_catalog").Inc()
		return earnedNow, nil
	}

	earned, err := e.userBadges.FindEarnedBadgeIDs(ctx, userID)
	if err != nil {
		metrics.Evaluations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}

	pending := make([]*models.BadgeDefinition, 0, len(catalog))
	for _, badge := range catalog {
		if _, ok := earned[badge.ID]; !ok {
			pending = append(pending, badge)
		}
	}
	if len(pending) == 0 {
		metrics.Evaluations.WithLabelValues("nothing_pending").Inc()
		return earnedNow, nil
	}

	values, err := e.resolveDistinct(ctx, userID, pending)
	if err != nil {
		metrics.Evaluations.WithLabelValues("error").Inc()
		return nil, err
	}

	for _, badge := range pending {
		value := values[badge.Metric]
		if value < badge.Threshold {
			continue
		}

		ub, err := e.userBadges.CreateIfAbsent(ctx, userID, badge.ID, value)
		if errors.Is(err, repositories.ErrUserBadgeConflict) {
			metrics.AwardConflicts.Inc()
			logger.Debug("Badge already awarded by a concurrent evaluation",
				zap.String("badge_id", badge.ID),
				zap.String("slug", badge.Slug),
			)
			continue
		}
		if err != nil {
			metrics.Evaluations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to award badge %s: %w", badge.Slug, err)
		}

		metrics.BadgesAwarded.WithLabelValues(badge.Slug).Inc()
		logger.Info("Badge awarded",
			zap.String("badge_id", badge.ID),
			zap.String("slug", badge.Slug),
			zap.Int64("metric_value", value),
			zap.Int64("threshold", badge.Threshold),
		)
		earnedNow = append(earnedNow, &models.NewlyEarnedBadge{Badge: badge, UserBadge: ub})
	}

	metrics.Evaluations.WithLabelValues("ok").Inc()
	return earnedNow, nil
}

// resolveDistinct resolves each metric needed by pending exactly once. The
// calls run concurrently and all finish before any award is attempted.
func (e *AwardEngine) resolveDistinct(ctx context.Context, userID string, pending []*models.BadgeDefinition) (map[models.MetricType]int64, error) {
	seen := make(map[models.MetricType]struct{}, len(pending))
	var distinct []models.MetricType
	for _, badge := range pending {
		if _, ok := seen[badge.Metric]; ok {
			continue
		}
		seen[badge.Metric] = struct{}{}
		distinct = append(distinct, badge.Metric)
	}

	var mu sync.Mutex
	values := make(map[models.MetricType]int64, len(distinct))

	g, gctx := errgroup.WithContext(ctx)
	for _, metric := range distinct {
		metric := metric
		g.Go(func() error {
			value, err := e.resolver.Resolve(gctx, userID, metric)
			if err != nil {
				return err
			}
			mu.Lock()
			values[metric] = value
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve badge metrics: %w", err)
	}

	return values, nil
}
