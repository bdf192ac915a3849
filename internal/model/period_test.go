package model

import (
	"testing"
	"time"
)

func TestCalendarISOWeekAcrossYearBoundary(t *testing.T) {
	cal := DefaultCalendar(time.UTC)
	key := cal.Key(time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), Weekly)
	if key.String() != "2026-W53" {
		t.Fatalf("expected 2026-W53, got %s", key)
	}
	key = cal.Key(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Weekly)
	if key.String() != "2026-W09" {
		t.Fatalf("expected 2026-W09, got %s", key)
	}
}

func TestCalendarFirstWeekdayRule(t *testing.T) {
	cal := Calendar{Location: time.UTC, WeekRule: WeekFirstWeekday, FirstWeekday: time.Sunday}
	key := cal.Key(time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC), Weekly)
	if key.String() != "2027-W01" {
		t.Fatalf("expected 2027-W01, got %s", key)
	}
	key = cal.Key(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Weekly)
	if key.String() != "2026-W10" {
		t.Fatalf("expected 2026-W10, got %s", key)
	}
}

func TestCalendarUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ts := time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC)
	if got := DefaultCalendar(time.UTC).Key(ts, Monthly).String(); got != "2026-01" {
		t.Fatalf("expected 2026-01 in UTC, got %s", got)
	}
	if got := DefaultCalendar(tokyo).Key(ts, Monthly).String(); got != "2026-02" {
		t.Fatalf("expected 2026-02 in JST, got %s", got)
	}
}

func TestPeriodKeyBoundsContainMembers(t *testing.T) {
	cals := []Calendar{
		DefaultCalendar(time.UTC),
		{Location: time.UTC, WeekRule: WeekFirstWeekday, FirstWeekday: time.Sunday},
		{Location: time.UTC, WeekRule: WeekFirstWeekday, FirstWeekday: time.Saturday},
	}
	day := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		ts := day.AddDate(0, 0, i)
		for _, cal := range cals {
			for _, g := range []Granularity{Weekly, Monthly, Yearly} {
				key := cal.Key(ts, g)
				start, end := key.Start(cal), key.End(cal)
				if ts.Before(start) || !ts.Before(end) {
					t.Fatalf("%s %s: %v outside [%v,%v)", cal.WeekRule, key, ts, start, end)
				}
				if cal.Key(start, g) != key {
					t.Fatalf("%s: start %v maps to %s", key, start, cal.Key(start, g))
				}
			}
		}
	}
}

func TestPeriodKeyCompare(t *testing.T) {
	a := PeriodKey{Granularity: Monthly, Year: 2025, Month: time.December}
	b := PeriodKey{Granularity: Monthly, Year: 2026, Month: time.January}
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Fatalf("unexpected ordering")
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"week": Weekly, "Months": Monthly, " yearly ": Yearly} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Fatalf("ParseGranularity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseGranularity("day"); err == nil {
		t.Fatalf("expected error for day")
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("sun")
	if err != nil || d != time.Sunday {
		t.Fatalf("expected sunday, got %v %v", d, err)
	}
	if _, err := ParseWeekday("funday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDistanceClassClosedOpen(t *testing.T) {
	c := DistanceClass{Name: "5K", MinKm: 4.75, MaxKm: 5.25}
	if !c.Contains(4750) || c.Contains(5250) || c.Contains(4749.9) {
		t.Fatalf("expected [4.75,5.25) semantics")
	}
}
