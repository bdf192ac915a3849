package stats

import (
	"sort"

	"github.com/verte-zerg/runrun/internal/model"
)

// TopRuns returns the n longest runs. Equal distances keep the earlier run first.
func TopRuns(records []model.RunningRecord, n int) []model.RunningRecord {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	items := make([]model.RunningRecord, len(records))
	copy(items, records)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Distance == items[j].Distance {
			return items[i].Start.Before(items[j].Start)
		}
		return items[i].Distance > items[j].Distance
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// SlowestSegments returns the indexes of the top slowest paced segments, slowest first.
// Segments without a pace are skipped; equal paces keep track order.
func SlowestSegments(segments []model.RouteSegment, top int) []int {
	idx := make([]int, 0, len(segments))
	for i, s := range segments {
		if s.HasPace {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return segments[idx[i]].Pace > segments[idx[j]].Pace
	})
	if top > 0 && top < len(idx) {
		idx = idx[:top]
	}
	return idx
}
