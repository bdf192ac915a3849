package export

import (
	"encoding/csv"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/route"
)

func fixtures() ([]model.Split, []model.RouteSegment, route.ColorScale) {
	start := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	hr := 150.0
	splits := []model.Split{
		{Index: 1, Distance: 1000, Start: start, End: start.Add(300 * time.Second), Elapsed: 300, Pace: 300, AvgHeartRate: &hr, MaxHeartRate: &hr},
		{Index: 2, Distance: 1000, Start: start.Add(300 * time.Second), End: start.Add(590 * time.Second), Elapsed: 290, Pace: 290},
	}
	segments := []model.RouteSegment{
		{Coordinates: []model.Coordinate{{Latitude: 1, Longitude: 2}, {Latitude: 1.0001, Longitude: 2}}, StartDistance: 0, EndDistance: 10, Pace: 280, HasPace: true},
		{Coordinates: []model.Coordinate{{Latitude: 1.0001, Longitude: 2}, {Latitude: 1.0002, Longitude: 2}}, StartDistance: 10, EndDistance: 20, Pace: 320, HasPace: true},
		{Coordinates: []model.Coordinate{{Latitude: 1.0002, Longitude: 2}}, StartDistance: 20, EndDistance: 20},
	}
	return splits, segments, route.NewColorScale(segments)
}

func TestWriteCSV(t *testing.T) {
	splits, segments, scale := fixtures()
	dir := t.TempDir()
	res, err := Write(splits, segments, scale, Options{OutDir: dir, Format: "CSV"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	splitRecords := readCSV(t, res.SplitsPath)
	if len(splitRecords) != 3 {
		t.Fatalf("expected header + 2 split rows, got %d", len(splitRecords))
	}
	if splitRecords[2][6] != "" || splitRecords[1][6] != "150.000" {
		t.Fatalf("unexpected heart-rate cells: %q %q", splitRecords[1][6], splitRecords[2][6])
	}
	segRecords := readCSV(t, res.SegmentsPath)
	if len(segRecords) != 4 {
		t.Fatalf("expected header + 3 segment rows, got %d", len(segRecords))
	}
	if segRecords[3][9] != route.NeutralColor || segRecords[3][7] != "false" {
		t.Fatalf("expected neutral pace-less segment, got %v", segRecords[3])
	}
	if !strings.HasPrefix(segRecords[1][9], "#") {
		t.Fatalf("expected hex color, got %q", segRecords[1][9])
	}
}

func TestWriteParquet(t *testing.T) {
	splits, segments, scale := fixtures()
	dir := t.TempDir()
	res, err := Write(splits, segments, scale, Options{OutDir: dir})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(res.SplitsPath, "splits.parquet") {
		t.Fatalf("expected parquet default, got %s", res.SplitsPath)
	}

	fr, err := local.NewLocalFileReader(res.SplitsPath)
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	defer func() {
		_ = fr.Close()
	}()
	pr, err := reader.NewParquetReader(fr, new(SplitRow), 1)
	if err != nil {
		t.Fatalf("parquet reader: %v", err)
	}
	defer pr.ReadStop()
	if n := pr.GetNumRows(); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	rows := make([]SplitRow, 2)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if rows[1].Index != 2 || rows[1].PaceS != 290 || rows[1].ValidHR || !math.IsNaN(rows[1].AvgHRBPM) {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	splits, segments, scale := fixtures()
	if _, err := Write(splits, segments, scale, Options{OutDir: t.TempDir(), Format: "xlsx"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := Write(splits, segments, scale, Options{}); err == nil {
		t.Fatalf("expected error without output dir")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer func() {
		_ = f.Close()
	}()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}
