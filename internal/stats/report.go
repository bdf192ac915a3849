package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Config          model.StatsConfig
	Records         []model.RunningRecord
	Buckets         []model.BucketStats // oldest first
	Totals          model.BucketStats
	Highlights      Highlights
	PersonalRecords []model.PersonalRecord
}

// BuildReport loads the user's records and computes every rollup for rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	if cfg.UserID == "" {
		cfg.UserID = model.DefaultUserID
	}
	if cfg.Granularity == "" {
		cfg.Granularity = model.Monthly
	}
	if len(cfg.Classes) == 0 {
		cfg.Classes = DefaultDistanceClasses()
	}
	records, err := st.ListRecords(ctx, model.RecordFilter{UserID: cfg.UserID, Since: cfg.Since})
	if err != nil {
		return Report{}, fmt.Errorf("failed to load records: %w", err)
	}
	return NewReport(records, cfg), nil
}

// NewReport computes a report over records already in memory.
func NewReport(records []model.RunningRecord, cfg model.StatsConfig) Report {
	records = FilterSince(records, cfg.Since)
	return Report{
		Config:          cfg,
		Records:         records,
		Buckets:         SortBuckets(Aggregate(records, cfg.Granularity, cfg.Calendar), false),
		Totals:          Totals(records),
		Highlights:      BuildHighlights(records, cfg.Calendar),
		PersonalRecords: PersonalRecords(records, cfg.Classes),
	}
}

// DistanceSeries returns kilometers per bucket smoothed over window.
func (r Report) DistanceSeries(window int) []float64 {
	values := make([]float64, len(r.Buckets))
	for i, b := range r.Buckets {
		values[i] = b.TotalDistance / 1000
	}
	return MovingAverage(values, window)
}

// PaceSeries returns the average pace per bucket in seconds per km, smoothed over window.
// Buckets without a pace carry the previous value forward.
func (r Report) PaceSeries(window int) []float64 {
	values := make([]float64, len(r.Buckets))
	last := 0.0
	for i, b := range r.Buckets {
		if pace, ok := b.AveragePace(); ok {
			last = pace
		}
		values[i] = last
	}
	return MovingAverage(values, window)
}
