package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"wellnesshub/internal/database"
	"wellnesshub/internal/models"

	"go.uber.org/zap"
)

// badgeRepository implements BadgeRepository on PostgreSQL
type badgeRepository struct {
	*BaseRepository
}

// NewBadgeRepository creates a new instance of BadgeRepository
func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

const badgeColumns = `
	id, slug, title_key, description_key, icon_key, metric, threshold,
	is_active, sort_order, highlight_duration_hours, created_at, updated_at`

// ListActive retrieves the active catalog in evaluation order
func (r *badgeRepository) ListActive(ctx context.Context) ([]*models.BadgeDefinition, error) {
	query := `SELECT ` + badgeColumns + `
		FROM badges
		WHERE is_active = true
		ORDER BY sort_order ASC, slug ASC`

	return r.list(ctx, query)
}

// ListAll retrieves every definition, active or not
func (r *badgeRepository) ListAll(ctx context.Context) ([]*models.BadgeDefinition, error) {
	query := `SELECT ` + badgeColumns + `
		FROM badges
		ORDER BY sort_order ASC, slug ASC`

	return r.list(ctx, query)
}

func (r *badgeRepository) list(ctx context.Context, query string) ([]*models.BadgeDefinition, error) {
	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	var badges []*models.BadgeDefinition
	for rows.Next() {
		badge, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, badge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	return badges, nil
}

// GetBySlug retrieves a single definition
func (r *badgeRepository) GetBySlug(ctx context.Context, slug string) (*models.BadgeDefinition, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges WHERE slug = $1`

	badge, err := scanBadge(r.QueryRowContext(ctx, query, slug))
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get badge %q: %w", slug, err)
	}

	return badge, nil
}

// Upsert inserts a definition or updates the existing one with the same slug
func (r *badgeRepository) Upsert(ctx context.Context, badge *models.BadgeDefinition) error {
	query := `
		INSERT INTO badges (
			slug, title_key, description_key, icon_key, metric, threshold,
			is_active, sort_order, highlight_duration_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (slug) DO UPDATE SET
			title_key = EXCLUDED.title_key,
			description_key = EXCLUDED.description_key,
			icon_key = EXCLUDED.icon_key,
			metric = EXCLUDED.metric,
			threshold = EXCLUDED.threshold,
			is_active = EXCLUDED.is_active,
			sort_order = EXCLUDED.sort_order,
			highlight_duration_hours = EXCLUDED.highlight_duration_hours,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	var hours sql.NullInt64
	if badge.HighlightDurationHours != nil {
		hours = sql.NullInt64{Int64: int64(*badge.HighlightDurationHours), Valid: true}
	}

	err := r.QueryRowContext(ctx, query,
		badge.Slug, badge.TitleKey, badge.DescriptionKey, badge.IconKey,
		string(badge.Metric), badge.Threshold, badge.IsActive, badge.SortOrder, hours,
	).Scan(&badge.ID, &badge.CreatedAt, &badge.UpdatedAt)
	if err != nil {
		r.GetLogger().Error("Failed to upsert badge",
			zap.Error(err),
			zap.String("slug", badge.Slug),
		)
		return fmt.Errorf("failed to upsert badge %q: %w", badge.Slug, err)
	}

	r.GetLogger().Info("Badge upserted",
		zap.String("badge_id", badge.ID),
		zap.String("slug", badge.Slug),
	)
	return nil
}

func scanBadge(row rowScanner) (*models.BadgeDefinition, error) {
	var (
		badge  models.BadgeDefinition
		metric string
		hours  sql.NullInt64
	)

	err := row.Scan(
		&badge.ID, &badge.Slug, &badge.TitleKey, &badge.DescriptionKey, &badge.IconKey,
		&metric, &badge.Threshold, &badge.IsActive, &badge.SortOrder, &hours,
		&badge.CreatedAt, &badge.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	badge.Metric = models.MetricType(metric)
	if hours.Valid {
		h := int(hours.Int64)
		badge.HighlightDurationHours = &h
	}

	return &badge, nil
}
