package models

import (
	"math"
	"time"
)

// MaxHighlightDurationHours bounds HighlightDurationHours (ten years). The
// schema enforces the same bound.
const MaxHighlightDurationHours = 87600

// ===============================
// METRIC TYPES
// ===============================

// MetricType identifies a derived activity metric a badge threshold is measured against.
type MetricType string

const (
	MetricTotalMeditationSessions MetricType = "TOTAL_MEDITATION_SESSIONS"
	MetricMeditationStreakDays    MetricType = "MEDITATION_STREAK_DAYS"
	MetricTotalExerciseSessions   MetricType = "TOTAL_EXERCISE_SESSIONS"
	MetricTotalSleepNights        MetricType = "TOTAL_SLEEP_NIGHTS"
	MetricTotalSessionsAny        MetricType = "TOTAL_SESSIONS_ANY"
)

// AllMetricTypes lists every metric the engine knows how to compute.
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricTotalMeditationSessions,
		MetricMeditationStreakDays,
		MetricTotalExerciseSessions,
		MetricTotalSleepNights,
		MetricTotalSessionsAny,
	}
}

// IsKnown reports whether m is one of the built-in metric types.
func (m MetricType) IsKnown() bool {
	for _, known := range AllMetricTypes() {
		if m == known {
			return true
		}
	}
	return false
}

// ===============================
// BADGE CATALOG
// ===============================

// BadgeDefinition is an achievement badge users can earn once a metric reaches
// Threshold. Definitions are reference data and are never mutated by the engine.
type BadgeDefinition struct {
	ID             string     `json:"id" db:"id" toml:"-"`
	Slug           string     `json:"slug" db:"slug" toml:"slug" validate:"required,max=100"`
	TitleKey       string     `json:"title_key" db:"title_key" toml:"title_key" validate:"required,max=255"`
	DescriptionKey string     `json:"description_key" db:"description_key" toml:"description_key" validate:"required,max=255"`
	IconKey        string     `json:"icon_key" db:"icon_key" toml:"icon_key" validate:"required,max=255"`
	Metric         MetricType `json:"metric" db:"metric" toml:"metric" validate:"required,metric_type"`
	Threshold      int64      `json:"threshold" db:"threshold" toml:"threshold" validate:"min=0"`
	IsActive       bool       `json:"is_active" db:"is_active" toml:"is_active"`
	SortOrder      int        `json:"sort_order" db:"sort_order" toml:"sort_order"`

	// HighlightDurationHours is nil or <= 0 when the badge is never highlighted.
	HighlightDurationHours *int `json:"highlight_duration_hours,omitempty" db:"highlight_duration_hours" toml:"highlight_duration_hours" validate:"omitempty,max=87600"`

	CreatedAt time.Time `json:"created_at" db:"created_at" toml:"-"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" toml:"-"`
}

// HighlightWindow returns the highlight duration and whether the badge can be
// highlighted at all.
func (b *BadgeDefinition) HighlightWindow() (time.Duration, bool) {
	if b == nil || b.HighlightDurationHours == nil || *b.HighlightDurationHours <= 0 {
		return 0, false
	}
	hours := int64(*b.HighlightDurationHours)
	if hours > math.MaxInt64/int64(time.Hour) {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(hours) * time.Hour, true
}

// ===============================
// EARNED BADGES
// ===============================

// UserBadge records that a user earned a badge. At most one row exists per
// (UserID, BadgeID); EarnedAt and MetricValueAtEarn never change after creation.
type UserBadge struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"user_id" db:"user_id"`
	BadgeID           string    `json:"badge_id" db:"badge_id"`
	EarnedAt          time.Time `json:"earned_at" db:"earned_at"`
	MetricValueAtEarn int64     `json:"metric_value_at_earn" db:"metric_value_at_earn"`
}

// UserBadgeWithBadge is a UserBadge joined with its definition. Badge is nil when
// the row was loaded without badge metadata.
type UserBadgeWithBadge struct {
	UserBadge
	Badge *BadgeDefinition `json:"badge,omitempty"`
}

// NewlyEarnedBadge pairs a definition with the UserBadge created for it during a
// single evaluation.
type NewlyEarnedBadge struct {
	Badge     *BadgeDefinition `json:"badge"`
	UserBadge *UserBadge       `json:"user_badge"`
}

// ===============================
// VIEWS
// ===============================

// UserBadgeView is the read model for a user's badge list.
type UserBadgeView struct {
	ID                string     `json:"id"`
	BadgeID           string     `json:"badge_id"`
	EarnedAt          time.Time  `json:"earned_at"`
	MetricValueAtEarn int64      `json:"metric_value_at_earn"`
	Slug              string     `json:"slug"`
	TitleKey          string     `json:"title_key"`
	DescriptionKey    string     `json:"description_key"`
	IconKey           string     `json:"icon_key"`
	Metric            MetricType `json:"metric"`
	Threshold         int64      `json:"threshold"`
}

// HighlightedBadgeView is the read model for recently earned, still highlighted badges.
type HighlightedBadgeView struct {
	ID             string    `json:"id"`
	BadgeID        string    `json:"badge_id"`
	EarnedAt       time.Time `json:"earned_at"`
	Slug           string    `json:"slug"`
	TitleKey       string    `json:"title_key"`
	DescriptionKey string    `json:"description_key"`
	IconKey        string    `json:"icon_key"`
}

// ToUserBadgeView builds the list view; badge metadata fields stay empty when the
// definition was not loaded.
func (ub *UserBadgeWithBadge) ToUserBadgeView() *UserBadgeView {
	view := &UserBadgeView{
		ID:                ub.ID,
		BadgeID:           ub.BadgeID,
		EarnedAt:          ub.EarnedAt,
		MetricValueAtEarn: ub.MetricValueAtEarn,
	}
	if ub.Badge != nil {
		view.Slug = ub.Badge.Slug
		view.TitleKey = ub.Badge.TitleKey
		view.DescriptionKey = ub.Badge.DescriptionKey
		view.IconKey = ub.Badge.IconKey
		view.Metric = ub.Badge.Metric
		view.Threshold = ub.Badge.Threshold
	}
	return view
}

// ToHighlightedView builds the highlight view.
func (ub *UserBadgeWithBadge) ToHighlightedView() *HighlightedBadgeView {
	view := &HighlightedBadgeView{
		ID:       ub.ID,
		BadgeID:  ub.BadgeID,
		EarnedAt: ub.EarnedAt,
	}
	if ub.Badge != nil {
		view.Slug = ub.Badge.Slug
		view.TitleKey = ub.Badge.TitleKey
		view.DescriptionKey = ub.Badge.DescriptionKey
		view.IconKey = ub.Badge.IconKey
	}
	return view
}
