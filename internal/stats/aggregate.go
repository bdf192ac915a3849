package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/runrun/internal/model"
)

// Aggregate groups records by period key and sums their totals. Only periods that hold at
// least one record get a bucket.
func Aggregate(records []model.RunningRecord, g model.Granularity, cal model.Calendar) map[model.PeriodKey]model.BucketStats {
	buckets := make(map[model.PeriodKey]model.BucketStats)
	for _, rec := range records {
		key := cal.Key(rec.Start, g)
		b := buckets[key]
		b.Key = key
		b.TotalDistance += rec.Distance
		b.TotalDuration += rec.Duration
		b.RunCount++
		if rec.Calories != nil {
			b.TotalCalories += *rec.Calories
		}
		b.RecordIDs = append(b.RecordIDs, rec.ID)
		buckets[key] = b
	}
	return buckets
}

// SortBuckets returns the buckets ordered by period.
func SortBuckets(buckets map[model.PeriodKey]model.BucketStats, descending bool) []model.BucketStats {
	out := make([]model.BucketStats, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		c := out[i].Key.Compare(out[j].Key)
		if descending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// MonthsOfYear returns twelve monthly buckets for year, filling months without runs
// with zero placeholders.
func MonthsOfYear(year int, buckets map[model.PeriodKey]model.BucketStats) []model.BucketStats {
	out := make([]model.BucketStats, 0, 12)
	for m := time.January; m <= time.December; m++ {
		key := model.PeriodKey{Granularity: model.Monthly, Year: year, Month: m}
		b, ok := buckets[key]
		if !ok {
			b = model.BucketStats{Key: key}
		}
		out = append(out, b)
	}
	return out
}

// FilterSince keeps records starting at or after since; nil keeps everything.
func FilterSince(records []model.RunningRecord, since *time.Time) []model.RunningRecord {
	if since == nil {
		return records
	}
	out := make([]model.RunningRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Start.Before(*since) {
			out = append(out, rec)
		}
	}
	return out
}

// Totals sums every record into one unkeyed bucket.
func Totals(records []model.RunningRecord) model.BucketStats {
	var b model.BucketStats
	for _, rec := range records {
		b.TotalDistance += rec.Distance
		b.TotalDuration += rec.Duration
		b.RunCount++
		if rec.Calories != nil {
			b.TotalCalories += *rec.Calories
		}
		b.RecordIDs = append(b.RecordIDs, rec.ID)
	}
	return b
}
