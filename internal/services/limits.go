package services

import (
	"math"
	"strconv"
	"strings"
)

// Limit bounds for the badge read paths
const (
	DefaultHighlightLimit = 3
	MinHighlightLimit     = 1
	MaxHighlightLimit     = 20

	MinBadgeListLimit = 1
	MaxBadgeListLimit = 50
)

// ResolveLimit clamps limit into [min, max]. A nil limit yields fallback
// unchanged, and a nil fallback means no limit at all.
func ResolveLimit(limit *int, fallback *int, min, max int) *int {
	if limit == nil {
		if fallback == nil {
			return nil
		}
		v := *fallback
		return &v
	}

	v := *limit
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return &v
}

// ParseLimit reads a query-string limit. Empty, non-numeric, NaN and infinite
// values count as absent. Fractions are truncated toward zero.
func ParseLimit(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	f = math.Trunc(f)
	// keep the conversion defined; ResolveLimit clamps afterwards
	if f > math.MaxInt32 {
		f = math.MaxInt32
	}
	if f < math.MinInt32 {
		f = math.MinInt32
	}

	v := int(f)
	return &v
}

func intPtr(v int) *int {
	return &v
}
