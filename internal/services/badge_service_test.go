package services

import (
	"context"
	"testing"
	"time"

	"wellnesshub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingResolver waits for the context to end
type blockingResolver struct{}

func (blockingResolver) Resolve(ctx context.Context, userID string, metric models.MetricType) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func newTestBadgeService(catalog *fakeCatalog, store *fakeUserBadgeStore, resolver MetricResolver, timeout time.Duration) BadgeService {
	engine := NewAwardEngine(catalog, store, resolver, zap.NewNop())
	selector := NewHighlightSelector(store, fixedClock(selectorNow))
	return NewBadgeService(engine, selector, catalog, timeout, zap.NewNop())
}

func TestBadgeServiceRejectsBlankUser(t *testing.T) {
	svc := newTestBadgeService(&fakeCatalog{}, newFakeUserBadgeStore(), newCountingResolver(nil), 0)

	_, err := svc.Evaluate(context.Background(), "   ")
	assert.True(t, IsValidationError(err))
	_, err = svc.GetUserBadges(context.Background(), "", nil)
	assert.True(t, IsValidationError(err))
	_, err = svc.GetHighlightedBadges(context.Background(), "", nil)
	assert.True(t, IsValidationError(err))
}

func TestBadgeServiceTrimsUserID(t *testing.T) {
	b := badge("first", models.MetricTotalSleepNights, 1, 1)
	store := newFakeUserBadgeStore(b)
	svc := newTestBadgeService(&fakeCatalog{badges: []*models.BadgeDefinition{b}}, store,
		newCountingResolver(map[models.MetricType]int64{models.MetricTotalSleepNights: 1}), time.Second)

	earned, err := svc.Evaluate(context.Background(), "  "+testUser+" ")
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, testUser, earned[0].UserBadge.UserID)

	views, err := svc.GetUserBadges(context.Background(), testUser, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "first", views[0].Slug)
}

func TestBadgeServiceEvaluateTimeout(t *testing.T) {
	b := badge("first", models.MetricTotalSleepNights, 1, 1)
	svc := newTestBadgeService(&fakeCatalog{badges: []*models.BadgeDefinition{b}}, newFakeUserBadgeStore(b),
		blockingResolver{}, 20*time.Millisecond)

	_, err := svc.Evaluate(context.Background(), testUser)
	require.Error(t, err)
	assert.True(t, IsErrorType(err, "TIMEOUT"))
	assert.Equal(t, 504, GetServiceError(err).GetStatusCode())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBadgeServiceHealthCheck(t *testing.T) {
	svc := newTestBadgeService(&fakeCatalog{}, newFakeUserBadgeStore(), newCountingResolver(nil), 0)
	checker, ok := svc.(HealthChecker)
	require.True(t, ok)
	assert.NoError(t, checker.HealthCheck(context.Background()))
	assert.Equal(t, "badge_service", checker.ServiceName())
}
