package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"wellnesshub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResolver(meditation, sleep, exercise *fakeActivityRepo, now time.Time) *ActivityMetricResolver {
	return NewActivityMetricResolver(meditation, sleep, exercise, NewStreakCalculator(fixedClock(now)), zap.NewNop())
}

func TestResolveCounts(t *testing.T) {
	meditation := &fakeActivityRepo{kind: models.ActivityMeditation, count: 4}
	sleep := &fakeActivityRepo{kind: models.ActivitySleep, count: 7}
	exercise := &fakeActivityRepo{kind: models.ActivityExercise, count: 2}
	r := newTestResolver(meditation, sleep, exercise, time.Now())

	tests := []struct {
		metric models.MetricType
		want   int64
	}{
		{models.MetricTotalMeditationSessions, 4},
		{models.MetricTotalSleepNights, 7},
		{models.MetricTotalExerciseSessions, 2},
		{models.MetricTotalSessionsAny, 13},
		{models.MetricType("NOT_A_METRIC"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			got, err := r.Resolve(context.Background(), testUser, tt.metric)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSessionsAnyQueriesEveryStore(t *testing.T) {
	meditation := &fakeActivityRepo{kind: models.ActivityMeditation, count: 1}
	sleep := &fakeActivityRepo{kind: models.ActivitySleep, count: 1}
	exercise := &fakeActivityRepo{kind: models.ActivityExercise, count: 1}
	r := newTestResolver(meditation, sleep, exercise, time.Now())

	_, err := r.Resolve(context.Background(), testUser, models.MetricTotalSessionsAny)
	require.NoError(t, err)

	assert.Equal(t, int32(1), meditation.countCalls)
	assert.Equal(t, int32(1), sleep.countCalls)
	assert.Equal(t, int32(1), exercise.countCalls)
}

func TestResolveSessionsAnyFailsWhenOneStoreFails(t *testing.T) {
	boom := errors.New("sleep store down")
	r := newTestResolver(
		&fakeActivityRepo{kind: models.ActivityMeditation, count: 1},
		&fakeActivityRepo{kind: models.ActivitySleep, err: boom},
		&fakeActivityRepo{kind: models.ActivityExercise, count: 1},
		time.Now(),
	)

	_, err := r.Resolve(context.Background(), testUser, models.MetricTotalSessionsAny)
	assert.ErrorIs(t, err, boom)
}

func TestResolveMeditationStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	meditation := &fakeActivityRepo{
		kind: models.ActivityMeditation,
		timestamps: []models.ActivityTimestamps{
			{StartedAt: ptrTime(now.Add(-1 * time.Hour))},
			{StartedAt: ptrTime(now.AddDate(0, 0, -1))},
		},
	}
	r := newTestResolver(meditation, &fakeActivityRepo{}, &fakeActivityRepo{}, now)

	got, err := r.Resolve(context.Background(), testUser, models.MetricMeditationStreakDays)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
	assert.Equal(t, int32(1), meditation.listCalls)
}

func TestRegisterOverridesMetric(t *testing.T) {
	r := newTestResolver(&fakeActivityRepo{}, &fakeActivityRepo{}, &fakeActivityRepo{}, time.Now())

	custom := models.MetricType("TOTAL_MINDFUL_MINUTES")
	r.Register(custom, func(ctx context.Context, userID string) (int64, error) {
		return 90, nil
	})

	got, err := r.Resolve(context.Background(), testUser, custom)
	require.NoError(t, err)
	assert.Equal(t, int64(90), got)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
