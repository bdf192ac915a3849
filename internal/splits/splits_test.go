package splits

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/verte-zerg/runrun/internal/geo"
	"github.com/verte-zerg/runrun/internal/model"
)

var runStart = time.Date(2026, 4, 12, 6, 30, 0, 0, time.UTC)

// evenTrack samples every stepMeters, every stepSeconds, up to total meters.
func evenTrack(total, stepMeters float64, stepSeconds int) []model.RouteSample {
	var out []model.RouteSample
	for i := 0; float64(i)*stepMeters <= total+1e-9; i++ {
		d := float64(i) * stepMeters
		out = append(out, model.RouteSample{
			Time:     runStart.Add(time.Duration(i*stepSeconds) * time.Second),
			Latitude: geo.MetersToLatitude(d),
			Distance: d,
		})
	}
	return out
}

func TestCalculateDropsPartialByDefault(t *testing.T) {
	track := evenTrack(2500, 100, 30)
	got := Calculate(track, nil, Options{})
	if len(got) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(got))
	}
	for i, s := range got {
		if s.Index != i+1 {
			t.Fatalf("expected index %d, got %d", i+1, s.Index)
		}
		if math.Abs(s.Elapsed-300) > 1e-9 || math.Abs(s.Pace-s.Elapsed) > 1e-6 {
			t.Fatalf("split %d: expected 300s, got %v (pace %v)", s.Index, s.Elapsed, s.Pace)
		}
		if s.Partial {
			t.Fatalf("unexpected partial split")
		}
	}
	if !got[1].Start.Equal(got[0].End) {
		t.Fatalf("expected contiguous splits")
	}
}

func TestCalculateSparseSamplesNormalizePace(t *testing.T) {
	var track []model.RouteSample
	for _, d := range []float64{0, 500, 2600, 3100} {
		track = append(track, model.RouteSample{
			Time:     runStart.Add(time.Duration(d*300) * time.Millisecond),
			Latitude: geo.MetersToLatitude(d),
			Distance: d,
		})
	}
	got := Calculate(track, nil, Options{})
	if len(got) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(got))
	}
	if got[0].Index != 2 || got[1].Index != 3 {
		t.Fatalf("expected indexes 2 and 3, got %d and %d", got[0].Index, got[1].Index)
	}
	if math.Abs(got[0].Distance-2600) > 1e-6 || math.Abs(got[0].Elapsed-780) > 1e-6 {
		t.Fatalf("unexpected first split %+v", got[0])
	}
	for _, s := range got {
		if math.Abs(s.Pace-300) > 1e-6 {
			t.Fatalf("split %d: expected 300 s/km, got %v", s.Index, s.Pace)
		}
	}

	partial := Calculate(track, nil, Options{IncludePartial: true})
	if len(partial) != 2 {
		t.Fatalf("expected no partial after the last boundary sample, got %d splits", len(partial))
	}
}

func TestCalculateIncludePartial(t *testing.T) {
	track := evenTrack(2500, 100, 30)
	got := Calculate(track, nil, Options{IncludePartial: true})
	if len(got) != 3 {
		t.Fatalf("expected 3 splits, got %d", len(got))
	}
	last := got[2]
	if !last.Partial || math.Abs(last.Distance-500) > 1e-6 {
		t.Fatalf("expected 500m partial, got %+v", last)
	}
	if math.Abs(last.Elapsed-150) > 1e-9 || math.Abs(last.Pace-300) > 1e-6 {
		t.Fatalf("expected 150s elapsed normalized to 300s/km, got %v/%v", last.Elapsed, last.Pace)
	}
}

func TestCalculateNoPartialOnExactBoundary(t *testing.T) {
	got := Calculate(evenTrack(2000, 100, 30), nil, Options{IncludePartial: true})
	if len(got) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(got))
	}
}

func TestCalculateHeartRateWindows(t *testing.T) {
	track := evenTrack(2000, 100, 30)
	hr := []model.HeartRateSample{
		{Time: runStart, BPM: 120},
		{Time: runStart.Add(100 * time.Second), BPM: 140},
		{Time: runStart.Add(300 * time.Second), BPM: 150}, // first instant of split 2
	}
	got := Calculate(track, hr, Options{})
	if len(got) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(got))
	}
	if got[0].AvgHeartRate == nil || *got[0].AvgHeartRate != 130 || *got[0].MaxHeartRate != 140 {
		t.Fatalf("unexpected split 1 heart rate: %v/%v", got[0].AvgHeartRate, got[0].MaxHeartRate)
	}
	if got[1].AvgHeartRate == nil || *got[1].AvgHeartRate != 150 {
		t.Fatalf("expected split 2 avg 150")
	}

	none := Calculate(track, nil, Options{})
	if none[0].AvgHeartRate != nil || none[0].MaxHeartRate != nil {
		t.Fatalf("expected absent heart rate without samples")
	}
}

func TestCalculateMiles(t *testing.T) {
	unit, ok := UnitFor("mi")
	if !ok || unit != MileUnit {
		t.Fatalf("expected mile unit")
	}
	var distances []float64
	for d := 0.0; d <= 5000; d += 100 {
		distances = append(distances, d)
	}
	distances = append(distances, MileUnit, 2*MileUnit)
	track := make([]model.RouteSample, 0, len(distances))
	sort.Float64s(distances)
	for _, d := range distances {
		track = append(track, model.RouteSample{
			Time:     runStart.Add(time.Duration(d*300) * time.Millisecond),
			Latitude: geo.MetersToLatitude(d),
			Distance: d,
		})
	}
	got := Calculate(track, nil, Options{Unit: unit})
	if len(got) != 3 {
		t.Fatalf("expected 3 mile splits, got %d", len(got))
	}
	if math.Abs(got[0].Distance-MileUnit) > 1e-6 {
		t.Fatalf("expected first split of one mile, got %v", got[0].Distance)
	}
}

func TestCalculateShortTrack(t *testing.T) {
	if got := Calculate(evenTrack(0, 100, 30), nil, Options{IncludePartial: true}); got != nil {
		t.Fatalf("expected no splits for single sample")
	}
	if got := Calculate(evenTrack(600, 100, 30), nil, Options{}); len(got) != 0 {
		t.Fatalf("expected no whole splits under one unit")
	}
}
