package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wellnesshub/internal/metrics"
	"wellnesshub/internal/models"
	"wellnesshub/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MetricFunc computes one metric for a user
type MetricFunc func(ctx context.Context, userID string) (int64, error)

// MetricResolver computes badge metrics for a user
type MetricResolver interface {
	Resolve(ctx context.Context, userID string, metric models.MetricType) (int64, error)
}

// ActivityMetricResolver resolves metrics from the activity stores through a
// registry keyed by metric type
type ActivityMetricResolver struct {
	mu       sync.RWMutex
	registry map[models.MetricType]MetricFunc
	logger   *zap.Logger
}

// NewActivityMetricResolver registers the built-in metrics
func NewActivityMetricResolver(
	meditation, sleep, exercise repositories.ActivityRepository,
	streaks *StreakCalculator,
	logger *zap.Logger,
) *ActivityMetricResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if streaks == nil {
		streaks = NewStreakCalculator(nil)
	}

	r := &ActivityMetricResolver{
		registry: make(map[models.MetricType]MetricFunc),
		logger:   logger,
	}

	r.Register(models.MetricTotalMeditationSessions, meditation.CountByUser)
	r.Register(models.MetricTotalExerciseSessions, exercise.CountByUser)
	r.Register(models.MetricTotalSleepNights, sleep.CountByUser)
	r.Register(models.MetricTotalSessionsAny, sumCounts(meditation, sleep, exercise))
	r.Register(models.MetricMeditationStreakDays, func(ctx context.Context, userID string) (int64, error) {
		records, err := meditation.ListTimestampsByUser(ctx, userID)
		if err != nil {
			return 0, err
		}
		return int64(streaks.ComputeStreakDays(records)), nil
	})

	return r
}

// Register adds or replaces the function for a metric type
func (r *ActivityMetricResolver) Register(metric models.MetricType, fn MetricFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[metric] = fn
}

// Resolve computes metric for userID. Unregistered metrics resolve to 0 so a
// catalog entry the code does not know about never breaks other badges.
func (r *ActivityMetricResolver) Resolve(ctx context.Context, userID string, metric models.MetricType) (int64, error) {
	r.mu.RLock()
	fn, ok := r.registry[metric]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("Unknown metric type resolves to zero",
			zap.String("metric", string(metric)),
			zap.String("user_id", userID),
		)
		return 0, nil
	}

	start := time.Now()
	value, err := fn(ctx, userID)
	metrics.MetricResolveLatency.WithLabelValues(string(metric)).Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", metric, err)
	}

	return value, nil
}

// sumCounts counts every activity store concurrently and adds the results
func sumCounts(stores ...repositories.ActivityRepository) MetricFunc {
	return func(ctx context.Context, userID string) (int64, error) {
		counts := make([]int64, len(stores))

		g, gctx := errgroup.WithContext(ctx)
		for i, store := range stores {
			i, store := i, store
			g.Go(func() error {
				n, err := store.CountByUser(gctx, userID)
				if err != nil {
					return err
				}
				counts[i] = n
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return 0, err
		}

		var total int64
		for _, n := range counts {
			total += n
		}
		return total, nil
	}
}
