package models

import "time"

// ActivityKind names one of the activity collections badge metrics read from.
type ActivityKind string

const (
	ActivityMeditation ActivityKind = "meditation"
	ActivitySleep      ActivityKind = "sleep"
	ActivityExercise   ActivityKind = "exercise"
)

// ActivityTimestamps holds the time columns of one activity record. Any of them
// may be missing depending on how the session was logged.
type ActivityTimestamps struct {
	StartedAt *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt *time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Anchor returns the instant that decides which calendar day the record belongs
// to. Precedence: StartedAt, then EndedAt, then CreatedAt. ok is false when all
// three are missing.
func (a ActivityTimestamps) Anchor() (t time.Time, ok bool) {
	switch {
	case a.StartedAt != nil:
		return *a.StartedAt, true
	case a.EndedAt != nil:
		return *a.EndedAt, true
	case a.CreatedAt != nil:
		return *a.CreatedAt, true
	default:
		return time.Time{}, false
	}
}
