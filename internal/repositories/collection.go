package repositories

import (
	"context"
	"fmt"

	"wellnesshub/internal/database"
	"wellnesshub/internal/models"

	"go.uber.org/zap"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	Badge      BadgeRepository
	UserBadge  UserBadgeRepository
	Meditation ActivityRepository
	Sleep      ActivityRepository
	Exercise   ActivityRepository
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	collection := &Collection{
		Badge:     NewBadgeRepository(db, logger),
		UserBadge: NewUserBadgeRepository(db, logger),
	}

	var err error
	if collection.Meditation, err = NewActivityRepository(db, logger, models.ActivityMeditation); err != nil {
		return nil, err
	}
	if collection.Sleep, err = NewActivityRepository(db, logger, models.ActivitySleep); err != nil {
		return nil, err
	}
	if collection.Exercise, err = NewActivityRepository(db, logger, models.ActivityExercise); err != nil {
		return nil, err
	}

	logger.Info("Repository collection initialized successfully")

	return collection, nil
}

// ===============================
// HEALTH
// ===============================

// StoreChecks returns one cheap read per store, keyed "store:<table>"
func (c *Collection) StoreChecks() map[string]func(context.Context) error {
	checks := make(map[string]func(context.Context) error)

	if c.Badge != nil {
		checks["store:badges"] = func(ctx context.Context) error {
			_, err := c.Badge.ListActive(ctx)
			return err
		}
	}
	if c.UserBadge != nil {
		checks["store:user_badges"] = func(ctx context.Context) error {
			_, err := c.UserBadge.FindEarnedBadgeIDs(ctx, "")
			return err
		}
	}
	for _, repo := range []ActivityRepository{c.Meditation, c.Sleep, c.Exercise} {
		if repo == nil {
			continue
		}
		repo := repo
		checks["store:"+string(repo.Kind())] = func(ctx context.Context) error {
			_, err := repo.CountByUser(ctx, "")
			return err
		}
	}

	return checks
}
