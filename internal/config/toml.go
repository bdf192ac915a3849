// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/stats"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Stats   StatsConfig   `toml:"stats"`
	Route   RouteConfig   `toml:"route"`
	Splits  SplitsConfig  `toml:"splits"`
	Profile ProfileConfig `toml:"profile"`
	Records RecordsConfig `toml:"records"`
}

// StatsConfig maps aggregation settings.
type StatsConfig struct {
	Granularity  *string `toml:"granularity"`
	WeekRule     *string `toml:"week-rule"`
	FirstWeekday *string `toml:"first-weekday"`
	Timezone     *string `toml:"timezone"`
}

// RouteConfig maps route segmentation settings.
type RouteConfig struct {
	SegmentLength *float64 `toml:"segment-length"`
	MaxColorStops *int     `toml:"max-color-stops"`
}

// SplitsConfig maps split settings.
type SplitsConfig struct {
	Unit           *string `toml:"unit"`
	IncludePartial *bool   `toml:"include-partial"`
}

// ProfileConfig names the local user.
type ProfileConfig struct {
	User *string `toml:"user"`
	Name *string `toml:"name"`
}

// RecordsConfig overrides the personal-record distance classes.
type RecordsConfig struct {
	Classes []model.DistanceClass `toml:"classes"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that do not depend on CLI flags.
func (c FileConfig) Validate() error {
	if c.Stats.Granularity != nil {
		if _, err := model.ParseGranularity(*c.Stats.Granularity); err != nil {
			return err
		}
	}
	if _, err := c.Stats.Calendar(); err != nil {
		return err
	}
	if c.Route.SegmentLength != nil && *c.Route.SegmentLength <= 0 {
		return fmt.Errorf("route.segment-length must be > 0")
	}
	if c.Route.MaxColorStops != nil && *c.Route.MaxColorStops < 2 {
		return fmt.Errorf("route.max-color-stops must be >= 2")
	}
	if c.Splits.Unit != nil {
		switch *c.Splits.Unit {
		case "km", "mi":
		default:
			return fmt.Errorf("splits.unit must be km or mi")
		}
	}
	if c.Profile.User != nil && strings.TrimSpace(*c.Profile.User) == "" {
		return fmt.Errorf("profile.user must not be empty")
	}
	if len(c.Records.Classes) > 0 {
		if err := stats.ValidateClasses(c.Records.Classes); err != nil {
			return fmt.Errorf("records.classes: %w", err)
		}
	}
	return nil
}

// DistanceClasses returns the configured classes or the defaults.
func (c FileConfig) DistanceClasses() []model.DistanceClass {
	if len(c.Records.Classes) > 0 {
		return c.Records.Classes
	}
	return stats.DefaultDistanceClasses()
}

// Calendar builds the aggregation calendar. Unset values default to ISO weeks in the
// local timezone.
func (s StatsConfig) Calendar() (model.Calendar, error) {
	cal := model.DefaultCalendar(time.Local)
	if s.Timezone != nil && *s.Timezone != "" {
		loc, err := time.LoadLocation(*s.Timezone)
		if err != nil {
			return model.Calendar{}, fmt.Errorf("stats.timezone: %w", err)
		}
		cal.Location = loc
	}
	if s.WeekRule != nil {
		rule, err := model.ParseWeekRule(*s.WeekRule)
		if err != nil {
			return model.Calendar{}, err
		}
		cal.WeekRule = rule
	}
	if s.FirstWeekday != nil {
		day, err := model.ParseWeekday(*s.FirstWeekday)
		if err != nil {
			return model.Calendar{}, fmt.Errorf("stats.first-weekday: %w", err)
		}
		cal.FirstWeekday = day
	}
	return cal, nil
}

// UserID returns the configured user or the default one.
func (c FileConfig) UserID() string {
	if c.Profile.User != nil && strings.TrimSpace(*c.Profile.User) != "" {
		return strings.TrimSpace(*c.Profile.User)
	}
	return model.DefaultUserID
}
