// Package route splits GPS tracks into fixed-length segments and color-codes them by pace.
package route

import (
	"github.com/verte-zerg/runrun/internal/geo"
	"github.com/verte-zerg/runrun/internal/model"
)

// DefaultSegmentLength is the segment length in meters used for map coloring.
const DefaultSegmentLength = 10.0

// boundaryTolerance absorbs floating point drift when a sample sits exactly on a boundary.
const boundaryTolerance = 1e-6

// Segment walks a time-ordered track and closes a segment at the first sample whose
// accumulated great-circle distance reaches the next multiple of lengthMeters. The
// closing sample is shared with the following segment. A trailing partial segment is kept.
func Segment(track []model.RouteSample, lengthMeters float64) []model.RouteSegment {
	if len(track) == 0 || lengthMeters <= 0 {
		return nil
	}

	var segments []model.RouteSegment
	cur := openSegment(track[0], 0)
	acc := 0.0
	next := lengthMeters
	for i := 1; i < len(track); i++ {
		prev, p := track[i-1], track[i]
		acc += geo.HaversineMeters(prev.Latitude, prev.Longitude, p.Latitude, p.Longitude)
		cur.Coordinates = append(cur.Coordinates, p.Coordinate())
		if acc < next-boundaryTolerance {
			continue
		}
		segments = append(segments, closeSegment(cur, p, acc))
		for next <= acc+boundaryTolerance {
			next += lengthMeters
		}
		cur = openSegment(p, acc)
	}
	if len(cur.Coordinates) > 1 || len(segments) == 0 {
		segments = append(segments, closeSegment(cur, track[len(track)-1], acc))
	}
	return segments
}

func openSegment(p model.RouteSample, distance float64) model.RouteSegment {
	return model.RouteSegment{
		Coordinates:   []model.Coordinate{p.Coordinate()},
		StartDistance: distance,
		Start:         p.Time,
	}
}

func closeSegment(seg model.RouteSegment, last model.RouteSample, distance float64) model.RouteSegment {
	seg.EndDistance = distance
	seg.End = last.Time
	meters := seg.EndDistance - seg.StartDistance
	elapsed := seg.End.Sub(seg.Start).Seconds()
	if meters > 0 && elapsed > 0 {
		seg.Pace = elapsed / (meters / 1000)
		seg.HasPace = true
	}
	return seg
}
