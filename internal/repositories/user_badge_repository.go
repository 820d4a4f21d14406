package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wellnesshub/internal/database"
	"wellnesshub/internal/models"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// rowScanner is the part of *sql.Row the insert path reads
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// userBadgeRepository implements UserBadgeRepository on PostgreSQL. The
// uq_user_badges_user_badge constraint is what keeps awards unique.
type userBadgeRepository struct {
	*BaseRepository
	now      func() time.Time
	queryRow func(ctx context.Context, query string, args ...interface{}) rowScanner
}

// NewUserBadgeRepository creates a new instance of UserBadgeRepository
func NewUserBadgeRepository(db *database.Manager, logger *zap.Logger) UserBadgeRepository {
	base := NewBaseRepository(db, logger)
	return &userBadgeRepository{
		BaseRepository: base,
		now:            time.Now,
		queryRow: func(ctx context.Context, query string, args ...interface{}) rowScanner {
			return base.QueryRowContext(ctx, query, args...)
		},
	}
}

// FindEarnedBadgeIDs returns the set of badge IDs the user already holds
func (r *userBadgeRepository) FindEarnedBadgeIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.QueryContext(ctx, `SELECT badge_id FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]struct{})
	for rows.Next() {
		var badgeID string
		if err := rows.Scan(&badgeID); err != nil {
			return nil, fmt.Errorf("failed to scan earned badge: %w", err)
		}
		earned[badgeID] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating earned badges: %w", err)
	}

	return earned, nil
}

// CreateIfAbsent inserts the award. ON CONFLICT DO NOTHING returns no row when
// another caller already inserted the pair; both that and a raw unique violation
// surface as ErrUserBadgeConflict.
func (r *userBadgeRepository) CreateIfAbsent(ctx context.Context, userID, badgeID string, metricValue int64) (*models.UserBadge, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user badge id: %w", err)
	}

	query := `
		INSERT INTO user_badges (id, user_id, badge_id, earned_at, metric_value_at_earn)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, badge_id) DO NOTHING
		RETURNING id, earned_at`

	ub := &models.UserBadge{
		UserID:            userID,
		BadgeID:           badgeID,
		MetricValueAtEarn: metricValue,
	}

	err = r.queryRow(ctx, query, id.String(), userID, badgeID, r.now().UTC(), metricValue).
		Scan(&ub.ID, &ub.EarnedAt)
	switch {
	case err == nil:
		return ub, nil
	case isNoRows(err), isUniqueViolation(err):
		return nil, ErrUserBadgeConflict
	case isForeignKeyViolation(err):
		return nil, fmt.Errorf("badge %s does not exist: %w", badgeID, err)
	default:
		return nil, fmt.Errorf("failed to create user badge: %w", err)
	}
}

// ListByUser returns the user's badges, newest first
func (r *userBadgeRepository) ListByUser(ctx context.Context, userID string, opts ListUserBadgesOptions) ([]*models.UserBadgeWithBadge, error) {
	query := `
		SELECT ub.id, ub.user_id, ub.badge_id, ub.earned_at, ub.metric_value_at_earn`
	if opts.WithBadge {
		query += `,
			b.id, b.slug, b.title_key, b.description_key, b.icon_key, b.metric, b.threshold,
			b.is_active, b.sort_order, b.highlight_duration_hours, b.created_at, b.updated_at
		FROM user_badges ub
		INNER JOIN badges b ON b.id = ub.badge_id`
	} else {
		query += `
		FROM user_badges ub`
	}
	query += `
		WHERE ub.user_id = $1
		ORDER BY ub.earned_at DESC, ub.id DESC`

	args := []interface{}{userID}
	if opts.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, opts.Limit)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	defer rows.Close()

	var result []*models.UserBadgeWithBadge
	for rows.Next() {
		item, err := scanUserBadge(rows, opts.WithBadge)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user badges: %w", err)
	}

	return result, nil
}

func scanUserBadge(rows *sql.Rows, withBadge bool) (*models.UserBadgeWithBadge, error) {
	var item models.UserBadgeWithBadge
	dest := []interface{}{
		&item.ID, &item.UserID, &item.BadgeID, &item.EarnedAt, &item.MetricValueAtEarn,
	}

	if !withBadge {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		return &item, nil
	}

	var (
		badge  models.BadgeDefinition
		metric string
		hours  sql.NullInt64
	)
	dest = append(dest,
		&badge.ID, &badge.Slug, &badge.TitleKey, &badge.DescriptionKey, &badge.IconKey,
		&metric, &badge.Threshold, &badge.IsActive, &badge.SortOrder, &hours,
		&badge.CreatedAt, &badge.UpdatedAt,
	)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	badge.Metric = models.MetricType(metric)
	if hours.Valid {
		h := int(hours.Int64)
		badge.HighlightDurationHours = &h
	}
	item.Badge = &badge

	return &item, nil
}
