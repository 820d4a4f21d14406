package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wellnesshub/internal/database"
	"wellnesshub/internal/models"

	"go.uber.org/zap"
)

// activityTables maps each activity kind to its table. Table names never come
// from user input.
var activityTables = map[models.ActivityKind]string{
	models.ActivityMeditation: "meditation_sessions",
	models.ActivitySleep:      "sleep_sessions",
	models.ActivityExercise:   "exercise_sessions",
}

// activityRepository implements ActivityRepository for one session table
type activityRepository struct {
	*BaseRepository
	kind  models.ActivityKind
	table string
}

// NewActivityRepository creates a read-only store for the given activity kind
func NewActivityRepository(db *database.Manager, logger *zap.Logger, kind models.ActivityKind) (ActivityRepository, error) {
	table, ok := activityTables[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported activity kind: %s", kind)
	}

	return &activityRepository{
		BaseRepository: NewBaseRepository(db, logger.With(zap.String("activity", string(kind)))),
		kind:           kind,
		table:          table,
	}, nil
}

func (r *activityRepository) Kind() models.ActivityKind {
	return r.kind
}

// CountByUser counts every record the user owns, with no time bound
func (r *activityRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = $1`, r.table)

	var count int64
	if err := r.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s sessions: %w", r.kind, err)
	}

	return count, nil
}

// ListTimestampsByUser returns the time columns of every record the user owns
func (r *activityRepository) ListTimestampsByUser(ctx context.Context, userID string) ([]models.ActivityTimestamps, error) {
	query := fmt.Sprintf(`
		SELECT started_at, ended_at, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY COALESCE(started_at, ended_at, created_at) DESC`, r.table)

	rows, err := r.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s timestamps: %w", r.kind, err)
	}
	defer rows.Close()

	var result []models.ActivityTimestamps
	for rows.Next() {
		var started, ended, created sql.NullTime
		if err := rows.Scan(&started, &ended, &created); err != nil {
			return nil, fmt.Errorf("failed to scan %s timestamps: %w", r.kind, err)
		}
		result = append(result, models.ActivityTimestamps{
			StartedAt: nullTimePtr(started),
			EndedAt:   nullTimePtr(ended),
			CreatedAt: nullTimePtr(created),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s timestamps: %w", r.kind, err)
	}

	return result, nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
