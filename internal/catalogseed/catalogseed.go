// Package catalogseed reads badge definitions from a TOML seed file.
//
// A seed file holds one [[badges]] table per definition:
//
//	[[badges]]
//	slug = "first-meditation"
//	title_key = "badges.first_meditation.title"
//	description_key = "badges.first_meditation.description"
//	icon_key = "icons.lotus"
//	metric = "TOTAL_MEDITATION_SESSIONS"
//	threshold = 1
//	sort_order = 10
//	highlight_duration_hours = 48
//
// is_active defaults to true when omitted.
package catalogseed

import (
	"fmt"
	"io"
	"os"
	"strings"

	"wellnesshub/internal/models"
	"wellnesshub/internal/validation"

	"github.com/BurntSushi/toml"
)

type seedFile struct {
	Badges []seedBadge `toml:"badges"`
}

// seedBadge mirrors models.BadgeDefinition with is_active optional
type seedBadge struct {
	Slug                   string `toml:"slug"`
	TitleKey               string `toml:"title_key"`
	DescriptionKey         string `toml:"description_key"`
	IconKey                string `toml:"icon_key"`
	Metric                 string `toml:"metric"`
	Threshold              int64  `toml:"threshold"`
	IsActive               *bool  `toml:"is_active"`
	SortOrder              int    `toml:"sort_order"`
	HighlightDurationHours *int   `toml:"highlight_duration_hours"`
}

// LoadFile parses and validates the seed file at path
func LoadFile(path string) ([]*models.BadgeDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	badges, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return badges, nil
}

// Load parses and validates a seed document. Unknown keys are rejected so a
// typo never silently drops a field.
func Load(r io.Reader) ([]*models.BadgeDefinition, error) {
	var doc seedFile
	meta, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("unknown keys in seed file: %s", strings.Join(keys, ", "))
	}

	seen := make(map[string]int, len(doc.Badges))
	badges := make([]*models.BadgeDefinition, 0, len(doc.Badges))
	for i, entry := range doc.Badges {
		badge := entry.toDefinition()

		if err := validation.ValidateStruct(badge); err != nil {
			return nil, fmt.Errorf("badge #%d (%q): %w", i+1, badge.Slug, err)
		}
		if prev, dup := seen[badge.Slug]; dup {
			return nil, fmt.Errorf("badge #%d: slug %q already defined by badge #%d", i+1, badge.Slug, prev)
		}
		seen[badge.Slug] = i + 1

		badges = append(badges, badge)
	}

	return badges, nil
}

func (s seedBadge) toDefinition() *models.BadgeDefinition {
	active := true
	if s.IsActive != nil {
		active = *s.IsActive
	}

	return &models.BadgeDefinition{
		Slug:                   strings.TrimSpace(s.Slug),
		TitleKey:               s.TitleKey,
		DescriptionKey:         s.DescriptionKey,
		IconKey:                s.IconKey,
		Metric:                 models.MetricType(strings.ToUpper(strings.TrimSpace(s.Metric))),
		Threshold:              s.Threshold,
		IsActive:               active,
		SortOrder:              s.SortOrder,
		HighlightDurationHours: s.HighlightDurationHours,
	}
}
