package services

import (
	"time"

	"wellnesshub/internal/models"
)

// StreakCalculator counts consecutive active days ending today. Days are UTC
// calendar days, both when bucketing records and when walking back from today.
type StreakCalculator struct {
	now func() time.Time
}

// NewStreakCalculator returns a calculator using the given clock; nil means time.Now
func NewStreakCalculator(now func() time.Time) *StreakCalculator {
	if now == nil {
		now = time.Now
	}
	return &StreakCalculator{now: now}
}

// ComputeStreakDays walks backward from today while each day has at least one
// record. A day without activity today yields 0. Records with no timestamps
// are ignored.
func (s *StreakCalculator) ComputeStreakDays(records []models.ActivityTimestamps) int {
	if len(records) == 0 {
		return 0
	}

	days := make(map[time.Time]struct{}, len(records))
	for _, record := range records {
		anchor, ok := record.Anchor()
		if !ok {
			continue
		}
		days[utcDay(anchor)] = struct{}{}
	}

	streak := 0
	for day := utcDay(s.now()); ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			break
		}
		streak++
	}

	return streak
}

// utcDay truncates t to midnight of its UTC calendar day
func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
