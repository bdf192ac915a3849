package route

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/runrun/internal/geo"
	"github.com/verte-zerg/runrun/internal/model"
)

// northTrack places samples along the prime meridian at the given distances,
// one sample every five seconds.
func northTrack(distances []float64) []model.RouteSample {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	out := make([]model.RouteSample, len(distances))
	for i, d := range distances {
		out[i] = model.RouteSample{
			Time:     start.Add(time.Duration(i) * 5 * time.Second),
			Latitude: geo.MetersToLatitude(d),
			Distance: d,
		}
	}
	return out
}

func scenarioCDistances() []float64 {
	var d []float64
	for m := 0.0; m <= 1000; m += 50 {
		d = append(d, m)
	}
	return append(d, 1012.5, 1025, 1037.5, 1050)
}

func TestSegmentKeepsFinalPartial(t *testing.T) {
	track := northTrack(scenarioCDistances())
	if len(track) != 25 {
		t.Fatalf("expected 25 samples, got %d", len(track))
	}
	segs := Segment(track, 500)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	want := []float64{500, 500, 50}
	for i, seg := range segs {
		if math.Abs(seg.Distance()-want[i]) > 1e-6 {
			t.Fatalf("segment %d: expected %vm, got %v", i, want[i], seg.Distance())
		}
		if !seg.HasPace {
			t.Fatalf("segment %d: expected pace", i)
		}
	}
}

func TestSegmentCoverage(t *testing.T) {
	track := northTrack([]float64{0, 3, 7, 12, 18, 19, 25, 33, 34, 41, 50, 52})
	segs := Segment(track, 10)
	var joined []model.Coordinate
	for i, seg := range segs {
		coords := seg.Coordinates
		if i > 0 {
			if coords[0] != segs[i-1].Coordinates[len(segs[i-1].Coordinates)-1] {
				t.Fatalf("segment %d does not start at previous boundary", i)
			}
			coords = coords[1:]
		}
		joined = append(joined, coords...)
	}
	if len(joined) != len(track) {
		t.Fatalf("expected %d coordinates, got %d", len(track), len(joined))
	}
	for i, p := range track {
		if joined[i] != p.Coordinate() {
			t.Fatalf("coordinate %d differs", i)
		}
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].StartDistance != segs[i-1].EndDistance {
			t.Fatalf("gap between segments %d and %d", i-1, i)
		}
	}
}

func TestSegmentSparseSamplesSkipMultiples(t *testing.T) {
	segs := Segment(northTrack([]float64{0, 35, 40}), 10)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if math.Abs(segs[0].Distance()-35) > 1e-6 || math.Abs(segs[1].Distance()-5) > 1e-6 {
		t.Fatalf("unexpected distances %v %v", segs[0].Distance(), segs[1].Distance())
	}
}

func TestSegmentZeroDistanceHasNoPace(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	track := []model.RouteSample{
		{Time: start, Latitude: 1, Longitude: 1},
		{Time: start, Latitude: 1, Longitude: 1},
	}
	segs := Segment(track, 10)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].HasPace {
		t.Fatalf("expected no pace for zero-distance segment")
	}
	scale := NewColorScale(segs)
	if got := scale.Color(segs[0]); got != NeutralColor {
		t.Fatalf("expected neutral color, got %s", got)
	}
}

func TestSegmentEmptyTrack(t *testing.T) {
	if segs := Segment(nil, 10); segs != nil {
		t.Fatalf("expected nil segments")
	}
	if segs := Segment(northTrack([]float64{0, 10}), 0); segs != nil {
		t.Fatalf("expected nil segments for zero length")
	}
}

func pacedSegments(paces ...float64) []model.RouteSegment {
	segs := make([]model.RouteSegment, len(paces))
	for i, p := range paces {
		segs[i] = model.RouteSegment{
			StartDistance: float64(i) * 10,
			EndDistance:   float64(i+1) * 10,
			Pace:          p,
			HasPace:       true,
		}
	}
	return segs
}

func TestPaceThresholdsInterpolate(t *testing.T) {
	segs := pacedSegments(1000, 100, 500, 300, 200, 400, 600, 700, 800, 900)
	segs = append(segs, model.RouteSegment{})
	fast, slow, ok := PaceThresholds(segs)
	if !ok {
		t.Fatalf("expected thresholds")
	}
	if math.Abs(fast-190) > 1e-9 || math.Abs(slow-910) > 1e-9 {
		t.Fatalf("expected 190/910, got %v/%v", fast, slow)
	}
	if fast > slow {
		t.Fatalf("expected fast <= slow")
	}
}

func TestColorScaleFractionClamped(t *testing.T) {
	segs := pacedSegments(1000, 100, 500, 300, 200, 400, 600, 700, 800, 900)
	scale := NewColorScale(segs)
	if scale.Uniform {
		t.Fatalf("expected spread scale")
	}
	for _, seg := range segs {
		f := scale.Fraction(seg.Pace)
		if f < 0 || f > 1 {
			t.Fatalf("fraction %v out of range", f)
		}
	}
	if scale.Fraction(50) != 0 || scale.Fraction(5000) != 1 {
		t.Fatalf("expected clamping at extremes")
	}
	if scale.Color(segs[1]) == scale.Color(segs[0]) {
		t.Fatalf("expected fast and slow segments to differ in color")
	}
}

func TestColorScaleUniformFallback(t *testing.T) {
	segs := pacedSegments(300, 300, 300)
	scale := NewColorScale(segs)
	if !scale.Uniform {
		t.Fatalf("expected uniform scale")
	}
	for _, seg := range segs {
		if scale.Color(seg) != UniformColor {
			t.Fatalf("expected uniform color")
		}
	}
}

func TestGradientStopsKeepEndpoints(t *testing.T) {
	paces := make([]float64, 1000)
	for i := range paces {
		paces[i] = 250 + float64(i%60)
	}
	segs := pacedSegments(paces...)
	stops := GradientStops(segs, NewColorScale(segs), DefaultMaxStops)
	if len(stops) != DefaultMaxStops {
		t.Fatalf("expected %d stops, got %d", DefaultMaxStops, len(stops))
	}
	if stops[0].Location != 0 || stops[len(stops)-1].Location != 1 {
		t.Fatalf("expected stops to span 0..1, got %v..%v", stops[0].Location, stops[len(stops)-1].Location)
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Location < stops[i-1].Location {
			t.Fatalf("stops out of order at %d", i)
		}
	}

	few := GradientStops(segs[:3], NewColorScale(segs[:3]), DefaultMaxStops)
	if len(few) != 4 || few[3].Location != 1 {
		t.Fatalf("expected 4 stops ending at 1, got %+v", few)
	}
}
