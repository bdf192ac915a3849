package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/runrun/internal/model"
)

func run(id string, start time.Time, meters, seconds float64) model.RunningRecord {
	return model.RunningRecord{ID: id, UserID: model.DefaultUserID, Start: start, Distance: meters, Duration: seconds}
}

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 7, 0, 0, 0, time.UTC)
}

func sampleYear() []model.RunningRecord {
	var recs []model.RunningRecord
	for i := 0; i < 40; i++ {
		start := time.Date(2026, 1, 3, 6, 0, 0, 0, time.UTC).AddDate(0, 0, i*9)
		recs = append(recs, run(string(rune('a'+i%26))+start.Format("0102"), start, 3000+float64(i*377%9000), 900+float64(i*53%3000)))
	}
	return recs
}

func TestAggregateMonthlyScenario(t *testing.T) {
	recs := []model.RunningRecord{
		run("a", day(time.January, 5), 5000, 1500),
		run("b", day(time.January, 20), 10000, 3000),
	}
	buckets := Aggregate(recs, model.Monthly, model.DefaultCalendar(time.UTC))
	if len(buckets) != 1 {
		t.Fatalf("expected one bucket, got %d", len(buckets))
	}
	jan := buckets[model.PeriodKey{Granularity: model.Monthly, Year: 2026, Month: time.January}]
	if jan.TotalDistance != 15000 || jan.RunCount != 2 || jan.TotalDuration != 4500 {
		t.Fatalf("unexpected january bucket: %+v", jan)
	}
	if pace, ok := jan.AveragePace(); !ok || pace != 300 {
		t.Fatalf("expected 300s/km, got %v", pace)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, model.Weekly, model.DefaultCalendar(nil)); len(got) != 0 {
		t.Fatalf("expected empty result, got %d buckets", len(got))
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	recs := sampleYear()
	cal := model.DefaultCalendar(time.UTC)
	for _, g := range []model.Granularity{model.Weekly, model.Monthly, model.Yearly} {
		first := Aggregate(recs, g, cal)
		second := Aggregate(recs, g, cal)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s aggregation differs between calls", g)
		}
	}
}

func TestMonthlySumsMatchYear(t *testing.T) {
	recs := sampleYear()
	cal := model.DefaultCalendar(time.UTC)
	years := Aggregate(recs, model.Yearly, cal)
	months := Aggregate(recs, model.Monthly, cal)
	for key, y := range years {
		sum, count := 0.0, 0
		for _, m := range MonthsOfYear(key.Year, months) {
			sum += m.TotalDistance
			count += m.RunCount
		}
		if math.Abs(sum-y.TotalDistance) > 1e-6 || count != y.RunCount {
			t.Fatalf("%d: months sum to %v/%d, year has %v/%d", key.Year, sum, count, y.TotalDistance, y.RunCount)
		}
	}
}

func TestSortBucketsAndPlaceholders(t *testing.T) {
	recs := []model.RunningRecord{
		run("a", day(time.March, 2), 5000, 1500),
		run("b", day(time.January, 2), 5000, 1500),
		run("c", day(time.July, 2), 5000, 1500),
	}
	buckets := Aggregate(recs, model.Monthly, model.DefaultCalendar(time.UTC))
	desc := SortBuckets(buckets, true)
	if desc[0].Key.Month != time.July || desc[2].Key.Month != time.January {
		t.Fatalf("unexpected descending order: %v %v %v", desc[0].Key, desc[1].Key, desc[2].Key)
	}
	months := MonthsOfYear(2026, buckets)
	if len(months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(months))
	}
	if months[1].RunCount != 0 || months[1].Key.Month != time.February {
		t.Fatalf("expected empty february placeholder, got %+v", months[1])
	}
	if months[2].RunCount != 1 {
		t.Fatalf("expected march to hold one run")
	}
}

func TestFilterSinceAndTotals(t *testing.T) {
	recs := []model.RunningRecord{
		run("a", day(time.January, 2), 5000, 1500),
		run("b", day(time.March, 2), 3000, 900),
	}
	since := day(time.February, 1)
	kept := FilterSince(recs, &since)
	if len(kept) != 1 || kept[0].ID != "b" {
		t.Fatalf("unexpected filter result: %+v", kept)
	}
	total := Totals(recs)
	if total.TotalDistance != 8000 || total.RunCount != 2 {
		t.Fatalf("unexpected totals: %+v", total)
	}
}
