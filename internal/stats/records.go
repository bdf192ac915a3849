package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/runrun/internal/model"
)

// DefaultDistanceClasses are the tracked race distances. Ranges are wide enough to catch
// GPS-measured runs that land near, not on, the nominal distance.
func DefaultDistanceClasses() []model.DistanceClass {
	return []model.DistanceClass{
		{Name: "5K", MinKm: 4.75, MaxKm: 5.25},
		{Name: "10K", MinKm: 9.5, MaxKm: 10.5},
		{Name: "Half", MinKm: 20.5, MaxKm: 21.5},
		{Name: "Marathon", MinKm: 41, MaxKm: 43},
	}
}

// ValidateClasses checks that classes are named, well-formed and pairwise disjoint.
func ValidateClasses(classes []model.DistanceClass) error {
	names := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("distance class needs a name")
		}
		if _, dup := names[strings.ToLower(name)]; dup {
			return fmt.Errorf("duplicate distance class %q", c.Name)
		}
		names[strings.ToLower(name)] = struct{}{}
		if math.IsNaN(c.MinKm) || math.IsInf(c.MinKm, 0) || math.IsNaN(c.MaxKm) || math.IsInf(c.MaxKm, 0) {
			return fmt.Errorf("distance class %q has non-finite bounds", c.Name)
		}
		if c.MinKm < 0 || c.MinKm >= c.MaxKm {
			return fmt.Errorf("distance class %q: min-km must be >= 0 and below max-km", c.Name)
		}
	}

	sorted := make([]model.DistanceClass, len(classes))
	copy(sorted, classes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinKm < sorted[j].MinKm })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinKm < sorted[i-1].MaxKm {
			return fmt.Errorf("distance classes %q and %q overlap", sorted[i-1].Name, sorted[i].Name)
		}
	}
	return nil
}

// ClassFor returns the class containing a distance in meters.
func ClassFor(meters float64, classes []model.DistanceClass) (model.DistanceClass, bool) {
	for _, c := range classes {
		if c.Contains(meters) {
			return c, true
		}
	}
	return model.DistanceClass{}, false
}

// PersonalRecords returns one entry per class in class order holding the fastest record of
// that class, or a nil record when nothing qualifies. Ties go to the earliest start.
func PersonalRecords(records []model.RunningRecord, classes []model.DistanceClass) []model.PersonalRecord {
	out := make([]model.PersonalRecord, len(classes))
	for i, c := range classes {
		class := c
		out[i] = model.PersonalRecord{
			Class: class,
			Record: pickRecord(records, func(r model.RunningRecord) (float64, bool) {
				if !class.Contains(r.Distance) {
					return 0, false
				}
				return r.Pace()
			}, false),
		}
	}
	return out
}
