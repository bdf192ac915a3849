// Package splits derives per-kilometer (or per-mile) splits from a GPS track.
package splits

import (
	"math"
	"time"

	"github.com/verte-zerg/runrun/internal/geo"
	"github.com/verte-zerg/runrun/internal/model"
)

const (
	// DefaultUnit is one kilometer.
	DefaultUnit = 1000.0
	// MileUnit is one statute mile in meters.
	MileUnit = 1609.344

	boundaryTolerance = 1e-6
)

// Options controls split calculation.
type Options struct {
	Unit           float64 // meters per split; DefaultUnit when zero
	IncludePartial bool
}

// UnitFor maps km or mi to a split length in meters.
func UnitFor(name string) (float64, bool) {
	switch name {
	case "", "km":
		return DefaultUnit, true
	case "mi", "mile":
		return MileUnit, true
	}
	return 0, false
}

// Calculate closes a split at each sample whose accumulated distance reaches the next
// unit multiple. Elapsed time runs from the previous boundary sample and pace is
// normalized to seconds per unit, so a split stretched by sparse samples still reports
// its true pace. Index is the last unit the split completes; a split spanning several
// multiples skips the indexes it covers. Heart-rate samples in [start, end) of each split
// give its average and maximum.
//
// The trailing remainder is dropped unless opts.IncludePartial is set.
func Calculate(track []model.RouteSample, heartRates []model.HeartRateSample, opts Options) []model.Split {
	unit := opts.Unit
	if unit <= 0 {
		unit = DefaultUnit
	}
	if len(track) < 2 {
		return nil
	}

	var out []model.Split
	acc := 0.0
	next := unit
	completed := 0
	startIdx, startDist := 0, 0.0
	for i := 1; i < len(track); i++ {
		prev, p := track[i-1], track[i]
		acc += geo.HaversineMeters(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
		if acc < next-boundaryTolerance {
			continue
		}
		for next <= acc+boundaryTolerance {
			next += unit
			completed++
		}
		out = append(out, newSplit(completed, track[startIdx], p, acc-startDist, unit))
		startIdx, startDist = i, acc
	}

	if opts.IncludePartial && startIdx < len(track)-1 && acc-startDist > boundaryTolerance {
		split := newSplit(completed+1, track[startIdx], track[len(track)-1], acc-startDist, unit)
		split.Partial = true
		out = append(out, split)
	}

	for i := range out {
		out[i].AvgHeartRate, out[i].MaxHeartRate = heartRateIn(heartRates, out[i].Start, out[i].End)
	}
	return out
}

func newSplit(index int, from, to model.RouteSample, meters, unit float64) model.Split {
	elapsed := to.Time.Sub(from.Time).Seconds()
	return model.Split{
		Index:    index,
		Distance: meters,
		Start:    from.Time,
		End:      to.Time,
		Elapsed:  elapsed,
		Pace:     elapsed / (meters / unit),
	}
}

func heartRateIn(samples []model.HeartRateSample, start, end time.Time) (*float64, *float64) {
	sum, count := 0.0, 0
	maxBPM := math.Inf(-1)
	for _, s := range samples {
		if s.Time.Before(start) || !s.Time.Before(end) {
			continue
		}
		sum += s.BPM
		count++
		maxBPM = math.Max(maxBPM, s.BPM)
	}
	if count == 0 {
		return nil, nil
	}
	avg := sum / float64(count)
	return &avg, &maxBPM
}
