package stats

import "github.com/verte-zerg/runrun/internal/model"

// MinPaceDistance is the shortest run considered for the fastest-pace highlight, in meters.
const MinPaceDistance = 1000.0

// Highlights bundles the extremal records and periods of a record set. Nil fields mean
// no candidate qualified.
type Highlights struct {
	LongestRun      *model.RunningRecord
	LongestDuration *model.RunningRecord
	FastestRun      *model.RunningRecord
	MostActiveWeek  *model.BucketStats
	MostActiveMonth *model.BucketStats
	BiggestMonth    *model.BucketStats
}

// BestByDistance returns the longest record. Ties go to the earliest start, then to the
// first occurrence.
func BestByDistance(records []model.RunningRecord) *model.RunningRecord {
	return pickRecord(records, func(r model.RunningRecord) (float64, bool) {
		return r.Distance, true
	}, true)
}

// BestByDuration returns the record with the longest duration.
func BestByDuration(records []model.RunningRecord) *model.RunningRecord {
	return pickRecord(records, func(r model.RunningRecord) (float64, bool) {
		return r.Duration, true
	}, true)
}

// FastestByPace returns the record with the lowest pace among runs of at least
// MinPaceDistance.
func FastestByPace(records []model.RunningRecord) *model.RunningRecord {
	return pickRecord(records, func(r model.RunningRecord) (float64, bool) {
		if r.Distance < MinPaceDistance {
			return 0, false
		}
		return r.Pace()
	}, false)
}

func pickRecord(records []model.RunningRecord, value func(model.RunningRecord) (float64, bool), highest bool) *model.RunningRecord {
	best := -1
	bestVal := 0.0
	for i, rec := range records {
		v, ok := value(rec)
		if !ok {
			continue
		}
		if best < 0 || better(v, bestVal, highest) || (v == bestVal && rec.Start.Before(records[best].Start)) {
			best, bestVal = i, v
		}
	}
	if best < 0 {
		return nil
	}
	out := records[best]
	return &out
}

func better(v, current float64, highest bool) bool {
	if highest {
		return v > current
	}
	return v < current
}

// MostFrequentBucket returns the bucket with the most runs. Ties go to the earliest period.
func MostFrequentBucket(buckets []model.BucketStats) *model.BucketStats {
	return pickBucket(buckets, func(b model.BucketStats) float64 { return float64(b.RunCount) })
}

// LongestBucket returns the bucket with the most distance. Ties go to the earliest period.
func LongestBucket(buckets []model.BucketStats) *model.BucketStats {
	return pickBucket(buckets, func(b model.BucketStats) float64 { return b.TotalDistance })
}

func pickBucket(buckets []model.BucketStats, value func(model.BucketStats) float64) *model.BucketStats {
	best := -1
	for i, b := range buckets {
		if b.RunCount <= 0 {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		v, bv := value(b), value(buckets[best])
		if v > bv || (v == bv && b.Key.Compare(buckets[best].Key) < 0) {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	out := buckets[best]
	return &out
}

// BuildHighlights computes every highlight over records.
func BuildHighlights(records []model.RunningRecord, cal model.Calendar) Highlights {
	weeks := SortBuckets(Aggregate(records, model.Weekly, cal), false)
	months := SortBuckets(Aggregate(records, model.Monthly, cal), false)
	return Highlights{
		LongestRun:      BestByDistance(records),
		LongestDuration: BestByDuration(records),
		FastestRun:      FastestByPace(records),
		MostActiveWeek:  MostFrequentBucket(weeks),
		MostActiveMonth: MostFrequentBucket(months),
		BiggestMonth:    LongestBucket(months),
	}
}
