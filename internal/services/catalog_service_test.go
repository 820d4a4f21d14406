package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"wellnesshub/internal/models"
	"wellnesshub/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBadgeRepo struct {
	bySlug    map[string]*models.BadgeDefinition
	upsertErr error
	upserts   int
}

func newFakeBadgeRepo() *fakeBadgeRepo {
	return &fakeBadgeRepo{bySlug: make(map[string]*models.BadgeDefinition)}
}

func (r *fakeBadgeRepo) ListActive(ctx context.Context) ([]*models.BadgeDefinition, error) {
	var out []*models.BadgeDefinition
	for _, b := range r.bySlug {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) ListAll(ctx context.Context) ([]*models.BadgeDefinition, error) {
	var out []*models.BadgeDefinition
	for _, b := range r.bySlug {
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBadgeRepo) GetBySlug(ctx context.Context, slug string) (*models.BadgeDefinition, error) {
	if b, ok := r.bySlug[slug]; ok {
		return b, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeBadgeRepo) Upsert(ctx context.Context, badge *models.BadgeDefinition) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	if existing, ok := r.bySlug[badge.Slug]; ok {
		badge.ID = existing.ID
	} else {
		badge.ID = fmt.Sprintf("id-%s", badge.Slug)
	}
	r.bySlug[badge.Slug] = badge
	return nil
}

type recordingInvalidator struct {
	calls int
	err   error
}

func (r *recordingInvalidator) Invalidate(ctx context.Context) error {
	r.calls++
	return r.err
}

func TestSeedUpsertsAndInvalidates(t *testing.T) {
	repo := newFakeBadgeRepo()
	inv := &recordingInvalidator{}
	svc := NewCatalogService(repo, inv, zap.NewNop())

	result, err := svc.Seed(context.Background(), []*models.BadgeDefinition{
		badge("first", models.MetricTotalSleepNights, 1, 1),
		badge("second", models.MetricMeditationStreakDays, 7, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Upserted)
	assert.Equal(t, []string{"first", "second"}, result.Slugs)
	assert.Equal(t, 1, inv.calls)

	// reseeding keeps the same ids
	_, err = svc.Seed(context.Background(), []*models.BadgeDefinition{badge("first", models.MetricTotalSleepNights, 3, 1)})
	require.NoError(t, err)
	got, err := repo.GetBySlug(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "id-first", got.ID)
	assert.Equal(t, int64(3), got.Threshold)
}

func TestSeedValidatesBeforeWriting(t *testing.T) {
	unknown := badge("mystery", models.MetricType("TOTAL_YOGA_FLOWS"), 1, 2)
	negative := badge("negative", models.MetricTotalSleepNights, -1, 2)
	missingTitle := badge("untitled", models.MetricTotalSleepNights, 1, 2)
	missingTitle.TitleKey = ""

	tests := []struct {
		name   string
		badges []*models.BadgeDefinition
	}{
		{name: "unknown metric", badges: []*models.BadgeDefinition{badge("ok", models.MetricTotalSleepNights, 1, 1), unknown}},
		{name: "negative threshold", badges: []*models.BadgeDefinition{negative}},
		{name: "missing title", badges: []*models.BadgeDefinition{missingTitle}},
		{name: "nil entry", badges: []*models.BadgeDefinition{nil}},
		{name: "duplicate slug", badges: []*models.BadgeDefinition{
			badge("twice", models.MetricTotalSleepNights, 1, 1),
			badge("twice", models.MetricTotalSleepNights, 2, 2),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeBadgeRepo()
			inv := &recordingInvalidator{}
			_, err := NewCatalogService(repo, inv, nil).Seed(context.Background(), tt.badges)

			assert.True(t, IsValidationError(err))
			assert.Zero(t, repo.upserts)
			assert.Zero(t, inv.calls)
		})
	}
}

func TestSeedInvalidationFailureIsNotFatal(t *testing.T) {
	inv := &recordingInvalidator{err: errors.New("redis down")}
	result, err := NewCatalogService(newFakeBadgeRepo(), inv, nil).
		Seed(context.Background(), []*models.BadgeDefinition{badge("a", models.MetricTotalSleepNights, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)
}

func TestSeedStoreErrorReturnsPartialResult(t *testing.T) {
	repo := newFakeBadgeRepo()
	repo.upsertErr = errors.New("db down")
	result, err := NewCatalogService(repo, nil, nil).
		Seed(context.Background(), []*models.BadgeDefinition{badge("a", models.MetricTotalSleepNights, 1, 1)})
	require.Error(t, err)
	assert.Zero(t, result.Upserted)
}
