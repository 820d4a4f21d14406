package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"wellnesshub/internal/models"
	"wellnesshub/internal/repositories"
)

// ===============================
// ACTIVITY STORE
// ===============================

type fakeActivityRepo struct {
	kind       models.ActivityKind
	count      int64
	timestamps []models.ActivityTimestamps
	err        error

	countCalls int32
	listCalls  int32
}

func (f *fakeActivityRepo) Kind() models.ActivityKind { return f.kind }

func (f *fakeActivityRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	atomic.AddInt32(&f.countCalls, 1)
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func (f *fakeActivityRepo) ListTimestampsByUser(ctx context.Context, userID string) ([]models.ActivityTimestamps, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.timestamps, nil
}

// ===============================
// CATALOG
// ===============================

type fakeCatalog struct {
	badges []*models.BadgeDefinition
	err    error
	calls  int32
}

func (f *fakeCatalog) ListActive(ctx context.Context) ([]*models.BadgeDefinition, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.badges, nil
}

// ===============================
// USER BADGE STORE
// ===============================

// fakeUserBadgeStore enforces (user, badge) uniqueness under a mutex the way the
// database constraint does
type fakeUserBadgeStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]*models.UserBadge
	badges  map[string]*models.BadgeDefinition
	now     func() time.Time
	nextID  int
	findErr error
	// createErr, when set, is returned instead of inserting
	createErr error
	listErr   error
	// afterFind runs after FindEarnedBadgeIDs returns its snapshot
	afterFind func()

	findCalls   int32
	createCalls int32
	lastListOpt repositories.ListUserBadgesOptions
}

func newFakeUserBadgeStore(badges ...*models.BadgeDefinition) *fakeUserBadgeStore {
	s := &fakeUserBadgeStore{
		rows:   make(map[string]map[string]*models.UserBadge),
		badges: make(map[string]*models.BadgeDefinition),
		now:    time.Now,
	}
	for _, b := range badges {
		s.badges[b.ID] = b
	}
	return s
}

func (s *fakeUserBadgeStore) FindEarnedBadgeIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	atomic.AddInt32(&s.findCalls, 1)
	if s.findErr != nil {
		return nil, s.findErr
	}

	s.mu.Lock()
	earned := make(map[string]struct{})
	for badgeID := range s.rows[userID] {
		earned[badgeID] = struct{}{}
	}
	s.mu.Unlock()

	if s.afterFind != nil {
		s.afterFind()
	}
	return earned, nil
}

func (s *fakeUserBadgeStore) CreateIfAbsent(ctx context.Context, userID, badgeID string, metricValue int64) (*models.UserBadge, error) {
	atomic.AddInt32(&s.createCalls, 1)
	if s.createErr != nil {
		return nil, s.createErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[userID][badgeID]; exists {
		return nil, repositories.ErrUserBadgeConflict
	}
	if s.rows[userID] == nil {
		s.rows[userID] = make(map[string]*models.UserBadge)
	}

	s.nextID++
	ub := &models.UserBadge{
		ID:                fmt.Sprintf("ub-%d", s.nextID),
		UserID:            userID,
		BadgeID:           badgeID,
		EarnedAt:          s.now(),
		MetricValueAtEarn: metricValue,
	}
	s.rows[userID][badgeID] = ub
	return ub, nil
}

func (s *fakeUserBadgeStore) ListByUser(ctx context.Context, userID string, opts repositories.ListUserBadgesOptions) ([]*models.UserBadgeWithBadge, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastListOpt = opts

	var out []*models.UserBadgeWithBadge
	for _, ub := range s.rows[userID] {
		item := &models.UserBadgeWithBadge{UserBadge: *ub}
		if opts.WithBadge {
			item.Badge = s.badges[ub.BadgeID]
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EarnedAt.After(out[j].EarnedAt)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// seed inserts an award earned at the given time
func (s *fakeUserBadgeStore) seed(userID, badgeID string, earnedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows[userID] == nil {
		s.rows[userID] = make(map[string]*models.UserBadge)
	}
	s.nextID++
	s.rows[userID][badgeID] = &models.UserBadge{
		ID:       fmt.Sprintf("ub-%d", s.nextID),
		UserID:   userID,
		BadgeID:  badgeID,
		EarnedAt: earnedAt,
	}
}

func (s *fakeUserBadgeStore) rowCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[userID])
}

// ===============================
// RESOLVER
// ===============================

type countingResolver struct {
	mu     sync.Mutex
	values map[models.MetricType]int64
	err    error
	calls  map[models.MetricType]int
}

func newCountingResolver(values map[models.MetricType]int64) *countingResolver {
	return &countingResolver{values: values, calls: make(map[models.MetricType]int)}
}

func (r *countingResolver) Resolve(ctx context.Context, userID string, metric models.MetricType) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[metric]++
	if r.err != nil {
		return 0, r.err
	}
	return r.values[metric], nil
}

func (r *countingResolver) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

// ===============================
// HELPERS
// ===============================

func badge(id string, metric models.MetricType, threshold int64, sortOrder int) *models.BadgeDefinition {
	return &models.BadgeDefinition{
		ID:             id,
		Slug:           id,
		TitleKey:       "badges." + id + ".title",
		DescriptionKey: "badges." + id + ".description",
		IconKey:        "icons." + id,
		Metric:         metric,
		Threshold:      threshold,
		IsActive:       true,
		SortOrder:      sortOrder,
	}
}

func withHighlight(b *models.BadgeDefinition, hours int) *models.BadgeDefinition {
	b.HighlightDurationHours = &hours
	return b
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
