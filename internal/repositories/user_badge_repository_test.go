package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRow struct {
	id       string
	earnedAt time.Time
	err      error
}

func (r stubRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.id
	*dest[1].(*time.Time) = r.earnedAt
	return nil
}

type insertCall struct {
	query string
	args  []interface{}
}

func newStubbedUserBadgeRepo(row stubRow, now time.Time) (*userBadgeRepository, *insertCall) {
	call := &insertCall{}
	repo := &userBadgeRepository{
		now: func() time.Time { return now },
		queryRow: func(ctx context.Context, query string, args ...interface{}) rowScanner {
			call.query, call.args = query, args
			return row
		},
	}
	return repo, call
}

func TestCreateIfAbsentInsertsAward(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	repo, call := newStubbedUserBadgeRepo(stubRow{id: "ub-1", earnedAt: now.UTC()}, now)

	ub, err := repo.CreateIfAbsent(context.Background(), "user-1", "badge-1", 7)
	require.NoError(t, err)

	assert.Equal(t, "ub-1", ub.ID)
	assert.Equal(t, "user-1", ub.UserID)
	assert.Equal(t, "badge-1", ub.BadgeID)
	assert.Equal(t, int64(7), ub.MetricValueAtEarn)
	assert.True(t, ub.EarnedAt.Equal(now))

	assert.Contains(t, call.query, "ON CONFLICT (user_id, badge_id) DO NOTHING")
	require.Len(t, call.args, 5)
	assert.Equal(t, "user-1", call.args[1])
	assert.Equal(t, "badge-1", call.args[2])
	assert.Equal(t, now.UTC(), call.args[3])
	assert.Equal(t, int64(7), call.args[4])
}

func TestCreateIfAbsentMapsErrors(t *testing.T) {
	fkErr := &pq.Error{Code: "23503", Constraint: "fk_user_badges_badge"}
	dbErr := errors.New("driver: bad connection")

	tests := []struct {
		name         string
		scanErr      error
		wantConflict bool
		wantIs       error
		wantMessage  string
	}{
		{name: "conflict returns no row", scanErr: sql.ErrNoRows, wantConflict: true},
		{name: "unique violation", scanErr: &pq.Error{Code: "23505"}, wantConflict: true},
		{name: "wrapped unique violation", scanErr: fmt.Errorf("exec: %w", &pq.Error{Code: "23505"}), wantConflict: true},
		{name: "missing badge", scanErr: fkErr, wantIs: fkErr, wantMessage: "badge badge-1 does not exist"},
		{name: "other failure", scanErr: dbErr, wantIs: dbErr, wantMessage: "failed to create user badge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _ := newStubbedUserBadgeRepo(stubRow{err: tt.scanErr}, time.Now())

			ub, err := repo.CreateIfAbsent(context.Background(), "user-1", "badge-1", 1)
			require.Error(t, err)
			assert.Nil(t, ub)

			if tt.wantConflict {
				assert.ErrorIs(t, err, ErrUserBadgeConflict)
				return
			}
			assert.NotErrorIs(t, err, ErrUserBadgeConflict)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}
