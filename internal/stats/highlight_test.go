package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/runrun/internal/model"
)

func TestBestByDistanceIsContained(t *testing.T) {
	recs := sampleYear()
	best := BestByDistance(recs)
	if best == nil {
		t.Fatalf("expected a result")
	}
	found := false
	for _, r := range recs {
		if r.ID == best.ID {
			found = true
		}
		if r.Distance > best.Distance {
			t.Fatalf("record %s is longer than best %s", r.ID, best.ID)
		}
	}
	if !found {
		t.Fatalf("best record not in input")
	}
}

func TestBestByDistanceTieGoesToEarliest(t *testing.T) {
	recs := []model.RunningRecord{
		run("late", day(time.May, 10), 8000, 2400),
		run("early", day(time.May, 1), 8000, 2600),
		run("early-dup", day(time.May, 1), 8000, 2500),
	}
	if got := BestByDistance(recs); got.ID != "early" {
		t.Fatalf("expected early, got %s", got.ID)
	}
	if got := BestByDuration(recs); got.ID != "early" {
		t.Fatalf("expected early for duration, got %s", got.ID)
	}
}

func TestFastestByPaceExcludesShortRuns(t *testing.T) {
	recs := []model.RunningRecord{
		run("sprint", day(time.June, 1), 400, 60),
		run("tempo", day(time.June, 2), 5000, 1400),
		run("easy", day(time.June, 3), 8000, 2880),
		run("empty", day(time.June, 4), 0, 600),
	}
	got := FastestByPace(recs)
	if got == nil || got.ID != "tempo" {
		t.Fatalf("expected tempo, got %+v", got)
	}
	if got.Distance < MinPaceDistance {
		t.Fatalf("short run selected: %+v", got)
	}
}

func TestFastestByPaceAbsentForShortRuns(t *testing.T) {
	recs := []model.RunningRecord{
		run("a", day(time.June, 1), 400, 60),
		run("b", day(time.June, 2), 999, 200),
	}
	if got := FastestByPace(recs); got != nil {
		t.Fatalf("expected no fastest run, got %s", got.ID)
	}
	if got := BestByDistance(nil); got != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestMostFrequentBucketTieGoesToEarliestPeriod(t *testing.T) {
	recs := []model.RunningRecord{
		run("a", day(time.April, 2), 5000, 1500),
		run("b", day(time.April, 9), 5000, 1500),
		run("c", day(time.February, 2), 5000, 1500),
		run("d", day(time.February, 3), 5000, 1500),
		run("e", day(time.March, 3), 15000, 4500),
	}
	months := SortBuckets(Aggregate(recs, model.Monthly, model.DefaultCalendar(time.UTC)), true)
	got := MostFrequentBucket(months)
	if got == nil || got.Key.Month != time.February {
		t.Fatalf("expected february, got %+v", got)
	}
	longest := LongestBucket(months)
	if longest == nil || longest.Key.Month != time.March {
		t.Fatalf("expected march as longest month, got %+v", longest)
	}
	if MostFrequentBucket([]model.BucketStats{{RunCount: 0}}) != nil {
		t.Fatalf("expected nil for empty buckets")
	}
}

func TestBuildHighlightsDeterministic(t *testing.T) {
	recs := sampleYear()
	cal := model.DefaultCalendar(time.UTC)
	first := BuildHighlights(recs, cal)
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, BuildHighlights(recs, cal)) {
			t.Fatalf("highlights differ between calls")
		}
	}
	if first.LongestRun == nil || first.FastestRun == nil || first.MostActiveWeek == nil || first.BiggestMonth == nil {
		t.Fatalf("expected all highlights, got %+v", first)
	}
}
