package model

import (
	"fmt"
	"strings"
	"time"
)

// Granularity selects the bucket size for aggregation.
type Granularity string

const (
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
	Yearly  Granularity = "year"
)

// ParseGranularity accepts week, month or year (plural forms too).
func ParseGranularity(s string) (Granularity, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "week", "weekly":
		return Weekly, nil
	case "month", "monthly":
		return Monthly, nil
	case "year", "yearly":
		return Yearly, nil
	}
	return "", fmt.Errorf("unknown granularity %q (use week, month or year)", s)
}

// WeekRule decides which week a date belongs to.
type WeekRule string

const (
	// WeekISO uses ISO-8601 weeks: Monday start, week 1 holds the first Thursday.
	WeekISO WeekRule = "iso"
	// WeekFirstWeekday starts weeks on Calendar.FirstWeekday; week 1 holds January 1.
	WeekFirstWeekday WeekRule = "first-weekday"
)

// ParseWeekRule parses a configured week rule.
func ParseWeekRule(s string) (WeekRule, error) {
	switch WeekRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeekISO:
		return WeekISO, nil
	case WeekFirstWeekday:
		return WeekFirstWeekday, nil
	}
	return "", fmt.Errorf("unknown week rule %q (use iso or first-weekday)", s)
}

// ParseWeekday parses an English weekday name.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return time.Monday, fmt.Errorf("unknown weekday %q", s)
}

// Calendar carries the rules used to assign records to periods.
type Calendar struct {
	Location     *time.Location
	WeekRule     WeekRule
	FirstWeekday time.Weekday
}

// DefaultCalendar returns ISO weeks in the given location.
func DefaultCalendar(loc *time.Location) Calendar {
	return Calendar{Location: loc, WeekRule: WeekISO, FirstWeekday: time.Monday}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// In converts t to the calendar's location.
func (c Calendar) In(t time.Time) time.Time {
	return t.In(c.location())
}

// Key returns the period key of t at the given granularity.
func (c Calendar) Key(t time.Time, g Granularity) PeriodKey {
	t = t.In(c.location())
	switch g {
	case Weekly:
		year, week := c.week(t)
		return PeriodKey{Granularity: Weekly, Year: year, Week: week}
	case Yearly:
		return PeriodKey{Granularity: Yearly, Year: t.Year()}
	default:
		return PeriodKey{Granularity: Monthly, Year: t.Year(), Month: t.Month()}
	}
}

func (c Calendar) week(t time.Time) (int, int) {
	if c.WeekRule != WeekFirstWeekday {
		return t.ISOWeek()
	}
	start := c.weekStart(t)
	year := start.AddDate(0, 0, 6).Year()
	first := c.weekStart(time.Date(year, time.January, 1, 0, 0, 0, 0, c.location()))
	return year, daysBetween(first, start)/7 + 1
}

func (c Calendar) weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) - int(c.FirstWeekday) + 7) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, c.location())
}

// daysBetween counts calendar days, ignoring DST-shortened days.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// PeriodKey identifies a week, month or year. It is comparable and usable as a map key.
// Weekly keys store the week-year in Year.
type PeriodKey struct {
	Granularity Granularity
	Year        int
	Month       time.Month
	Week        int
}

// Start returns the first instant of the period.
func (k PeriodKey) Start(c Calendar) time.Time {
	loc := c.location()
	switch k.Granularity {
	case Yearly:
		return time.Date(k.Year, time.January, 1, 0, 0, 0, 0, loc)
	case Weekly:
		if c.WeekRule == WeekFirstWeekday {
			first := c.weekStart(time.Date(k.Year, time.January, 1, 0, 0, 0, 0, loc))
			return time.Date(first.Year(), first.Month(), first.Day()+(k.Week-1)*7, 0, 0, 0, 0, loc)
		}
		jan4 := time.Date(k.Year, time.January, 4, 0, 0, 0, 0, loc)
		offset := (int(jan4.Weekday()) + 6) % 7
		return time.Date(k.Year, time.January, 4-offset+(k.Week-1)*7, 0, 0, 0, 0, loc)
	default:
		return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, loc)
	}
}

// End returns the first instant after the period.
func (k PeriodKey) End(c Calendar) time.Time {
	start := k.Start(c)
	switch k.Granularity {
	case Yearly:
		return start.AddDate(1, 0, 0)
	case Weekly:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Compare orders keys chronologically.
func (k PeriodKey) Compare(o PeriodKey) int {
	switch {
	case k.Year != o.Year:
		return cmpInt(k.Year, o.Year)
	case k.Month != o.Month:
		return cmpInt(int(k.Month), int(o.Month))
	case k.Week != o.Week:
		return cmpInt(k.Week, o.Week)
	}
	return strings.Compare(string(k.Granularity), string(o.Granularity))
}

// String renders the key as 2026, 2026-03 or 2026-W05.
func (k PeriodKey) String() string {
	switch k.Granularity {
	case Yearly:
		return fmt.Sprintf("%04d", k.Year)
	case Weekly:
		return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
	default:
		return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// BucketStats aggregates the records of one period.
type BucketStats struct {
	Key           PeriodKey
	TotalDistance float64 // meters
	TotalDuration float64 // seconds
	RunCount      int
	TotalCalories float64
	RecordIDs     []string
}

// AveragePace returns seconds per km over the whole bucket.
func (b BucketStats) AveragePace() (float64, bool) {
	if b.TotalDistance <= 0 || b.TotalDuration <= 0 {
		return 0, false
	}
	return b.TotalDuration / (b.TotalDistance / 1000), true
}

// AverageDistance returns meters per run.
func (b BucketStats) AverageDistance() float64 {
	if b.RunCount == 0 {
		return 0
	}
	return b.TotalDistance / float64(b.RunCount)
}

// DistanceClass is a closed-open distance range [MinKm, MaxKm) tracked for personal records.
type DistanceClass struct {
	Name  string  `toml:"name"`
	MinKm float64 `toml:"min-km"`
	MaxKm float64 `toml:"max-km"`
}

// Contains reports whether a distance in meters falls in the class.
func (c DistanceClass) Contains(meters float64) bool {
	km := meters / 1000
	return km >= c.MinKm && km < c.MaxKm
}

// PersonalRecord is the fastest record of a class; Record is nil when none qualifies.
type PersonalRecord struct {
	Class  DistanceClass
	Record *RunningRecord
}
