package route

import (
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/verte-zerg/runrun/internal/model"
)

const (
	fastPercentile = 0.10
	slowPercentile = 0.90

	fastHue = 120.0 // green
	slowHue = 0.0   // red

	// UniformColor is used for every segment when paces do not spread.
	UniformColor = "#3478f6"
	// NeutralColor is used for segments without a pace.
	NeutralColor = "#8e8e93"

	// DefaultMaxStops caps gradient stops for rendering.
	DefaultMaxStops = 200
)

// Percentile returns the p-quantile (0..1) of sorted values using linear
// interpolation between order statistics.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// PaceThresholds returns the 10th (fast) and 90th (slow) percentile of segment paces.
// ok is false when no segment has a pace.
func PaceThresholds(segments []model.RouteSegment) (fast, slow float64, ok bool) {
	paces := make([]float64, 0, len(segments))
	for _, s := range segments {
		if s.HasPace {
			paces = append(paces, s.Pace)
		}
	}
	if len(paces) == 0 {
		return 0, 0, false
	}
	sort.Float64s(paces)
	return Percentile(paces, fastPercentile), Percentile(paces, slowPercentile), true
}

// ColorScale maps paces onto a green-to-red scale.
type ColorScale struct {
	Fast    float64
	Slow    float64
	Uniform bool
}

// NewColorScale derives the scale from segment paces. The scale is uniform when no
// pace exists or the slow threshold does not exceed the fast one.
func NewColorScale(segments []model.RouteSegment) ColorScale {
	fast, slow, ok := PaceThresholds(segments)
	return ColorScale{
		Fast:    fast,
		Slow:    slow,
		Uniform: !ok || slow <= fast,
	}
}

// Fraction places a pace on the scale: 0 is fast, 1 is slow, clamped.
func (c ColorScale) Fraction(pace float64) float64 {
	if c.Uniform {
		return 0
	}
	f := (pace - c.Fast) / (c.Slow - c.Fast)
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}

// Color returns the hex color of a segment.
func (c ColorScale) Color(seg model.RouteSegment) string {
	if !seg.HasPace {
		return NeutralColor
	}
	if c.Uniform {
		return UniformColor
	}
	return hueColor(c.Fraction(seg.Pace))
}

func hueColor(fraction float64) string {
	hue := fastHue + (slowHue-fastHue)*fraction
	return colorful.Hsv(hue, 0.85, 0.9).Hex()
}

// ColorStop is one gradient stop along the track; Location runs from 0 to 1.
type ColorStop struct {
	Location float64
	Fraction float64
	Color    string
	Neutral  bool
}

// GradientStops builds one stop per segment start plus a closing stop, then
// subsamples evenly to at most maxStops. The first stop is always at 0 and the
// last at 1.
func GradientStops(segments []model.RouteSegment, scale ColorScale, maxStops int) []ColorStop {
	if len(segments) == 0 {
		return nil
	}
	if maxStops < 2 {
		maxStops = 2
	}
	origin := segments[0].StartDistance
	total := segments[len(segments)-1].EndDistance - origin

	stops := make([]ColorStop, 0, len(segments)+1)
	for i, seg := range segments {
		loc := float64(i) / float64(len(segments))
		if total > 0 {
			loc = (seg.StartDistance - origin) / total
		}
		stops = append(stops, stopFor(seg, scale, loc))
	}
	stops = append(stops, stopFor(segments[len(segments)-1], scale, 1))
	stops[0].Location = 0

	if len(stops) <= maxStops {
		return stops
	}
	sampled := make([]ColorStop, 0, maxStops)
	last := len(stops) - 1
	for j := 0; j < maxStops; j++ {
		idx := int(math.Round(float64(j) * float64(last) / float64(maxStops-1)))
		sampled = append(sampled, stops[idx])
	}
	return sampled
}

func stopFor(seg model.RouteSegment, scale ColorScale, loc float64) ColorStop {
	stop := ColorStop{
		Location: loc,
		Color:    scale.Color(seg),
		Neutral:  !seg.HasPace,
	}
	if seg.HasPace {
		stop.Fraction = scale.Fraction(seg.Pace)
	}
	return stop
}
