// Package normalize turns raw workout data into validated running records.
package normalize

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/verte-zerg/runrun/internal/geo"
	"github.com/verte-zerg/runrun/internal/model"
)

// Record validates a raw workout. It returns false when the workout has no usable
// duration, a negative distance or no start time; such workouts are dropped, not reported.
func Record(raw model.RawWorkout) (model.RunningRecord, bool) {
	if !finite(raw.TotalDuration) || raw.TotalDuration <= 0 {
		return model.RunningRecord{}, false
	}
	if !finite(raw.TotalDistance) || raw.TotalDistance < 0 {
		return model.RunningRecord{}, false
	}
	if raw.Start.IsZero() {
		return model.RunningRecord{}, false
	}

	rec := model.RunningRecord{
		ID:           raw.ID,
		UserID:       raw.UserID,
		Start:        raw.Start,
		Distance:     raw.TotalDistance,
		Duration:     raw.TotalDuration,
		Calories:     nonNegative(raw.Calories),
		AvgHeartRate: positive(raw.AvgHeartRate),
		MaxHeartRate: positive(raw.MaxHeartRate),
		MinHeartRate: positive(raw.MinHeartRate),
		Cadence:      positive(raw.Cadence),
		StrideLength: positive(raw.StrideLength),
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UserID == "" {
		rec.UserID = model.DefaultUserID
	}
	if raw.StepCount != nil && *raw.StepCount > 0 {
		steps := *raw.StepCount
		rec.StepCount = &steps
		if rec.Cadence == nil {
			cadence := float64(steps) / (raw.TotalDuration / 60)
			rec.Cadence = &cadence
		}
		if rec.StrideLength == nil && raw.TotalDistance > 0 {
			stride := raw.TotalDistance / float64(steps)
			rec.StrideLength = &stride
		}
	}
	if rec.AvgHeartRate == nil || rec.MaxHeartRate == nil || rec.MinHeartRate == nil {
		fillHeartRate(&rec, raw.HeartRates)
	}
	return rec, true
}

// Records normalizes a batch, silently skipping excluded workouts.
func Records(raws []model.RawWorkout) []model.RunningRecord {
	out := make([]model.RunningRecord, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := Record(raw); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Track orders location fixes by time, drops invalid coordinates and annotates each
// sample with the accumulated great-circle distance from the first one.
func Track(fixes []model.LocationFix) []model.RouteSample {
	valid := make([]model.LocationFix, 0, len(fixes))
	for _, f := range fixes {
		if f.Time.IsZero() || !geo.ValidCoordinate(f.Latitude, f.Longitude) {
			continue
		}
		valid = append(valid, f)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Time.Before(valid[j].Time)
	})

	samples := make([]model.RouteSample, len(valid))
	total := 0.0
	for i, f := range valid {
		if i > 0 {
			prev := valid[i-1]
			total += geo.HaversineMeters(prev.Latitude, prev.Longitude, f.Latitude, f.Longitude)
		}
		samples[i] = model.RouteSample{
			Time:      f.Time,
			Latitude:  f.Latitude,
			Longitude: f.Longitude,
			Distance:  total,
		}
	}
	return samples
}

// HeartRates orders samples by time and drops non-positive readings.
func HeartRates(samples []model.HeartRateSample) []model.HeartRateSample {
	out := make([]model.HeartRateSample, 0, len(samples))
	for _, s := range samples {
		if s.Time.IsZero() || !finite(s.BPM) || s.BPM <= 0 {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

func fillHeartRate(rec *model.RunningRecord, samples []model.HeartRateSample) {
	samples = HeartRates(samples)
	if len(samples) == 0 {
		return
	}
	sum := 0.0
	minBPM, maxBPM := samples[0].BPM, samples[0].BPM
	for _, s := range samples {
		sum += s.BPM
		minBPM = math.Min(minBPM, s.BPM)
		maxBPM = math.Max(maxBPM, s.BPM)
	}
	if rec.AvgHeartRate == nil {
		avg := sum / float64(len(samples))
		rec.AvgHeartRate = &avg
	}
	if rec.MaxHeartRate == nil {
		rec.MaxHeartRate = &maxBPM
	}
	if rec.MinHeartRate == nil {
		rec.MinHeartRate = &minBPM
	}
}

func positive(v *float64) *float64 {
	if v == nil || !finite(*v) || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}

func nonNegative(v *float64) *float64 {
	if v == nil || !finite(*v) || *v < 0 {
		return nil
	}
	out := *v
	return &out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
