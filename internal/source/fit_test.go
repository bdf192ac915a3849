package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

var fitStart = time.Date(2026, 5, 3, 6, 0, 0, 0, time.UTC)

func buildRunFIT(t *testing.T, sport fit.Sport) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	session := fit.NewSessionMsg()
	session.Timestamp = fitStart.Add(10 * time.Minute)
	session.StartTime = fitStart
	session.Sport = sport
	session.TotalTimerTime = 600 * 1000
	session.TotalDistance = 2000 * 100
	session.TotalCalories = 150
	session.AvgHeartRate = 145
	session.MaxHeartRate = 171
	session.TotalCycles = 900
	activity.Sessions = append(activity.Sessions, session)

	for i := 0; i < 4; i++ {
		rec := fit.NewRecordMsg()
		rec.Timestamp = fitStart.Add(time.Duration(i) * 10 * time.Second)
		rec.PositionLat = fit.NewLatitudeDegrees(52.5 + float64(i)*0.0005)
		rec.PositionLong = fit.NewLongitudeDegrees(13.4)
		rec.Distance = uint32(i * 55 * 100)
		if i != 2 {
			rec.HeartRate = uint8(130 + i)
		}
		activity.Records = append(activity.Records, rec)
	}
	// A record without a position fix still carries heart rate.
	noFix := fit.NewRecordMsg()
	noFix.Timestamp = fitStart.Add(40 * time.Second)
	noFix.HeartRate = 140
	activity.Records = append(activity.Records, noFix)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestReadFITSummaryAndSeries(t *testing.T) {
	data := buildRunFIT(t, fit.SportRunning)
	raw, err := ReadFIT(bytes.NewReader(data), "me")
	if err != nil {
		t.Fatalf("read fit: %v", err)
	}
	if !raw.Start.Equal(fitStart) {
		t.Fatalf("expected start %v, got %v", fitStart, raw.Start)
	}
	if math.Abs(raw.TotalDistance-2000) > 1e-6 || math.Abs(raw.TotalDuration-600) > 1e-6 {
		t.Fatalf("unexpected totals: %v m / %v s", raw.TotalDistance, raw.TotalDuration)
	}
	if raw.Calories == nil || *raw.Calories != 150 {
		t.Fatalf("expected calories 150, got %v", raw.Calories)
	}
	if raw.AvgHeartRate == nil || *raw.AvgHeartRate != 145 || *raw.MaxHeartRate != 171 {
		t.Fatalf("unexpected heart rate summary")
	}
	if raw.StepCount == nil || *raw.StepCount != 1800 {
		t.Fatalf("expected 1800 steps, got %v", raw.StepCount)
	}
	if len(raw.Route) != 4 {
		t.Fatalf("expected 4 location fixes, got %d", len(raw.Route))
	}
	if math.Abs(raw.Route[3].Latitude-52.5015) > 1e-5 {
		t.Fatalf("unexpected latitude %v", raw.Route[3].Latitude)
	}
	if len(raw.HeartRates) != 4 {
		t.Fatalf("expected 4 heart-rate samples, got %d", len(raw.HeartRates))
	}

	again, err := ReadFIT(bytes.NewReader(data), "me")
	if err != nil {
		t.Fatalf("read fit again: %v", err)
	}
	if again.ID != raw.ID || raw.ID == "" {
		t.Fatalf("expected stable content id, got %q and %q", raw.ID, again.ID)
	}
	if raw.UserID != "me" {
		t.Fatalf("expected owner me, got %q", raw.UserID)
	}
}

func TestReadFITIDDependsOnOwner(t *testing.T) {
	data := buildRunFIT(t, fit.SportRunning)
	mine, err := ReadFIT(bytes.NewReader(data), "me")
	if err != nil {
		t.Fatalf("read fit: %v", err)
	}
	theirs, err := ReadFIT(bytes.NewReader(data), "ana")
	if err != nil {
		t.Fatalf("read fit: %v", err)
	}
	if mine.ID == theirs.ID {
		t.Fatalf("expected distinct ids per owner, both got %q", mine.ID)
	}
}

func TestReadFITRejectsOtherSports(t *testing.T) {
	data := buildRunFIT(t, fit.SportCycling)
	if _, err := ReadFIT(bytes.NewReader(data), "me"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadFile(filepath.Join(dir, "missing.fit"), "me"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	junk := filepath.Join(dir, "junk.fit")
	if err := os.WriteFile(junk, []byte("not a fit file"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if _, err := ReadFile(junk, "me"); err == nil {
		t.Fatalf("expected decode error")
	}

	good := filepath.Join(dir, "run.fit")
	if err := os.WriteFile(good, buildRunFIT(t, fit.SportRunning), 0o644); err != nil {
		t.Fatalf("write fit: %v", err)
	}
	if _, err := ReadFile(good, "me"); err != nil {
		t.Fatalf("read file: %v", err)
	}
}
