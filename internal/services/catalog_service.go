package services

import (
	"context"
	"fmt"

	"wellnesshub/internal/models"
	"wellnesshub/internal/repositories"
	"wellnesshub/internal/validation"

	"go.uber.org/zap"
)

// catalogInvalidator drops cached catalog state after writes
type catalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

type catalogService struct {
	badges      repositories.BadgeRepository
	invalidator catalogInvalidator
	logger      *zap.Logger
}

// NewCatalogService creates the operator-facing catalog service
func NewCatalogService(badges repositories.BadgeRepository, invalidator catalogInvalidator, logger *zap.Logger) CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		badges:      badges,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Seed validates every definition before writing any of them
func (s *catalogService) Seed(ctx context.Context, badges []*models.BadgeDefinition) (*SeedResult, error) {
	seen := make(map[string]struct{}, len(badges))
	for i, badge := range badges {
		if badge == nil {
			return nil, NewValidationError(fmt.Sprintf("badge #%d is empty", i+1), nil)
		}
		if err := validation.ValidateStruct(badge); err != nil {
			return nil, NewValidationError(fmt.Sprintf("badge %q is invalid", badge.Slug), err)
		}
		if _, dup := seen[badge.Slug]; dup {
			return nil, NewValidationError(fmt.Sprintf("duplicate badge slug %q", badge.Slug), nil)
		}
		seen[badge.Slug] = struct{}{}
	}

	result := &SeedResult{Slugs: make([]string, 0, len(badges))}
	for _, badge := range badges {
		if err := s.badges.Upsert(ctx, badge); err != nil {
			return result, err
		}
		result.Upserted++
		result.Slugs = append(result.Slugs, badge.Slug)
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate badge catalog cache", zap.Error(err))
		}
	}

	s.logger.Info("Badge catalog seeded", zap.Int("upserted", result.Upserted))
	return result, nil
}

func (s *catalogService) ListDefinitions(ctx context.Context) ([]*models.BadgeDefinition, error) {
	return s.badges.ListAll(ctx)
}
