// Package model defines shared data structures.
package model

import "time"

// DefaultUserID owns records imported without an explicit user.
const DefaultUserID = "me"

// RawWorkout is a workout summary as delivered by a data source, before validation.
type RawWorkout struct {
	ID            string
	UserID        string
	Start         time.Time
	TotalDistance float64 // meters
	TotalDuration float64 // seconds
	Calories      *float64
	AvgHeartRate  *float64
	MaxHeartRate  *float64
	MinHeartRate  *float64
	Cadence       *float64 // steps/min
	StrideLength  *float64 // meters
	StepCount     *int
	Route         []LocationFix
	HeartRates    []HeartRateSample
}

// LocationFix is one raw GPS reading.
type LocationFix struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
}

// RunningRecord is one completed, validated workout.
type RunningRecord struct {
	ID           string
	UserID       string
	Start        time.Time
	Distance     float64 // meters
	Duration     float64 // seconds
	Calories     *float64
	AvgHeartRate *float64
	MaxHeartRate *float64
	MinHeartRate *float64
	Cadence      *float64
	StrideLength *float64
	StepCount    *int
}

// Pace returns seconds per kilometer. It is undefined for zero distance or duration.
func (r RunningRecord) Pace() (float64, bool) {
	if r.Distance <= 0 || r.Duration <= 0 {
		return 0, false
	}
	return r.Duration / (r.Distance / 1000), true
}

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// RouteSample is one GPS fix of a record's track.
type RouteSample struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Distance  float64 // accumulated meters from track start
}

// Coordinate returns the sample position.
func (s RouteSample) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// RouteSegment is a fixed-length slice of a track.
type RouteSegment struct {
	Coordinates   []Coordinate
	StartDistance float64
	EndDistance   float64
	Start         time.Time
	End           time.Time
	Pace          float64 // seconds per km, valid when HasPace
	HasPace       bool
}

// Distance returns the segment length in meters.
func (s RouteSegment) Distance() float64 {
	return s.EndDistance - s.StartDistance
}

// HeartRateSample is one heart-rate reading.
type HeartRateSample struct {
	Time time.Time
	BPM  float64
}

// Split is one kilometer (or mile) of a run.
type Split struct {
	Index        int
	Distance     float64 // meters covered between boundary samples
	Start        time.Time
	End          time.Time
	Elapsed      float64 // seconds
	Pace         float64 // seconds per split unit
	AvgHeartRate *float64
	MaxHeartRate *float64
	Partial      bool
}

// Goal is a distance target for a year or a month.
type Goal struct {
	UserID         string
	Type           GoalType
	Year           int
	Month          time.Month // zero for yearly goals
	TargetDistance float64    // meters
}

// GoalType distinguishes monthly and yearly goals.
type GoalType string

const (
	GoalMonthly GoalType = "monthly"
	GoalYearly  GoalType = "yearly"
)

// Progress returns achieved/target for the matching bucket, or 0 without a target.
func (g Goal) Progress(b BucketStats) float64 {
	if g.TargetDistance <= 0 {
		return 0
	}
	return b.TotalDistance / g.TargetDistance
}

// Key returns the period key the goal is measured against.
func (g Goal) Key() PeriodKey {
	if g.Type == GoalMonthly {
		return PeriodKey{Granularity: Monthly, Year: g.Year, Month: g.Month}
	}
	return PeriodKey{Granularity: Yearly, Year: g.Year}
}

// Profile is a named user known to the store.
type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// FriendStatus is the state of a friendship edge.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

// Friendship is a directed social edge from UserID to FriendID.
type Friendship struct {
	UserID    string
	FriendID  string
	Status    FriendStatus
	CreatedAt time.Time
}

// RecordFilter narrows record listings.
type RecordFilter struct {
	UserID string
	Since  *time.Time
	Until  *time.Time
	Last   int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID      string
	Since       *time.Time
	Granularity Granularity
	Calendar    Calendar
	Classes     []DistanceClass
	TrendWindow int // moving-average window over buckets
}
