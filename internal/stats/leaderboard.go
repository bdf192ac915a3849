package stats

import (
	"sort"

	"github.com/verte-zerg/runrun/internal/model"
)

// Standing is one user's position on a period leaderboard.
type Standing struct {
	Rank     int
	UserID   string
	Distance float64
	Duration float64
	RunCount int
}

// Leaderboard ranks users by distance within the period identified by key. Every user in
// users appears, with zero totals when they have no runs; records of other users are
// ignored. Equal distances share a rank.
func Leaderboard(records []model.RunningRecord, users []string, key model.PeriodKey, cal model.Calendar) []Standing {
	byUser := make(map[string]*Standing, len(users))
	out := make([]*Standing, 0, len(users))
	for _, u := range users {
		if _, ok := byUser[u]; ok {
			continue
		}
		s := &Standing{UserID: u}
		byUser[u] = s
		out = append(out, s)
	}
	for _, rec := range records {
		s, ok := byUser[rec.UserID]
		if !ok || cal.Key(rec.Start, key.Granularity) != key {
			continue
		}
		s.Distance += rec.Distance
		s.Duration += rec.Duration
		s.RunCount++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance == out[j].Distance {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Distance > out[j].Distance
	})
	standings := make([]Standing, len(out))
	for i, s := range out {
		s.Rank = i + 1
		if i > 0 && s.Distance == out[i-1].Distance {
			s.Rank = out[i-1].Rank
		}
		standings[i] = *s
	}
	return standings
}

// GoalProgress pairs a goal with the distance run in its period.
type GoalProgress struct {
	Goal     model.Goal
	Achieved float64 // meters
	Fraction float64
}

// GoalsProgress measures each goal against the owner's records.
func GoalsProgress(goals []model.Goal, records []model.RunningRecord, cal model.Calendar) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		key := g.Key()
		var owned []model.RunningRecord
		for _, rec := range records {
			if rec.UserID == g.UserID {
				owned = append(owned, rec)
			}
		}
		bucket := Aggregate(owned, key.Granularity, cal)[key]
		out = append(out, GoalProgress{
			Goal:     g,
			Achieved: bucket.TotalDistance,
			Fraction: g.Progress(bucket),
		})
	}
	return out
}
