package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"wellnesshub/internal/models"

	"go.uber.org/zap"
)

// badgeService implements BadgeService on top of the engine and selector
type badgeService struct {
	engine            *AwardEngine
	selector          *HighlightSelector
	catalog           BadgeCatalog
	evaluationTimeout time.Duration
	logger            *zap.Logger
}

// NewBadgeService creates the badge facade. A non-positive evaluationTimeout
// leaves the caller's deadline untouched.
func NewBadgeService(
	engine *AwardEngine,
	selector *HighlightSelector,
	catalog BadgeCatalog,
	evaluationTimeout time.Duration,
	logger *zap.Logger,
) BadgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &badgeService{
		engine:            engine,
		selector:          selector,
		catalog:           catalog,
		evaluationTimeout: evaluationTimeout,
		logger:            logger,
	}
}

func (s *badgeService) Evaluate(ctx context.Context, userID string) ([]*models.NewlyEarnedBadge, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	if s.evaluationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.evaluationTimeout)
		defer cancel()
	}

	start := time.Now()
	earned, err := s.engine.Evaluate(ctx, userID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewTimeoutError("badge evaluation timed out", err)
		}
		s.logger.Error("Badge evaluation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("Badge evaluation completed",
		zap.String("user_id", userID),
		zap.Int("awarded", len(earned)),
		zap.Duration("duration", time.Since(start)),
	)
	return earned, nil
}

func (s *badgeService) GetUserBadges(ctx context.Context, userID string, limit *int) ([]*models.UserBadgeView, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.selector.ListAll(ctx, userID, limit)
}

func (s *badgeService) GetHighlightedBadges(ctx context.Context, userID string, limit *int) ([]*models.HighlightedBadgeView, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.selector.Select(ctx, userID, limit)
}

// HealthCheck verifies the catalog can be read
func (s *badgeService) HealthCheck(ctx context.Context) error {
	_, err := s.catalog.ListActive(ctx)
	return err
}

func (s *badgeService) ServiceName() string {
	return "badge_service"
}

func normalizeUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", NewValidationError("user id is required", nil)
	}
	return userID, nil
}
