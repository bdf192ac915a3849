// Package export writes splits and route segments as Parquet or CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/route"
)

// Supported output formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// Options selects the output directory and format.
type Options struct {
	OutDir string
	Format string
}

// Result lists the written files.
type Result struct {
	SplitsPath   string
	SegmentsPath string
}

// SplitRow is one split as stored in export files.
type SplitRow struct {
	Index     int64   `parquet:"name=index, type=INT64"`
	StartUTC  string  `parquet:"name=start_utc, type=BYTE_ARRAY, convertedtype=UTF8"`
	EndUTC    string  `parquet:"name=end_utc, type=BYTE_ARRAY, convertedtype=UTF8"`
	DistanceM float64 `parquet:"name=distance_m, type=DOUBLE"`
	ElapsedS  float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	PaceS     float64 `parquet:"name=pace_s, type=DOUBLE"`
	AvgHRBPM  float64 `parquet:"name=avg_hr_bpm, type=DOUBLE"`
	MaxHRBPM  float64 `parquet:"name=max_hr_bpm, type=DOUBLE"`
	ValidHR   bool    `parquet:"name=valid_hr, type=BOOLEAN"`
	Partial   bool    `parquet:"name=partial, type=BOOLEAN"`
}

// SegmentRow is one route segment as stored in export files.
type SegmentRow struct {
	Index      int64   `parquet:"name=index, type=INT64"`
	StartM     float64 `parquet:"name=start_m, type=DOUBLE"`
	EndM       float64 `parquet:"name=end_m, type=DOUBLE"`
	StartLat   float64 `parquet:"name=start_lat, type=DOUBLE"`
	StartLon   float64 `parquet:"name=start_lon, type=DOUBLE"`
	Points     int64   `parquet:"name=points, type=INT64"`
	PaceSPerKm float64 `parquet:"name=pace_s_per_km, type=DOUBLE"`
	HasPace    bool    `parquet:"name=has_pace, type=BOOLEAN"`
	Fraction   float64 `parquet:"name=fraction, type=DOUBLE"`
	Color      string  `parquet:"name=color, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// Write exports splits and segments into opts.OutDir.
func Write(splits []model.Split, segments []model.RouteSegment, scale route.ColorScale, opts Options) (Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return Result{}, fmt.Errorf("output directory is required")
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatParquet
	}
	if format != FormatParquet && format != FormatCSV {
		return Result{}, fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	res := Result{
		SplitsPath:   filepath.Join(opts.OutDir, "splits."+format),
		SegmentsPath: filepath.Join(opts.OutDir, "segments."+format),
	}
	splitRows := SplitRows(splits)
	segmentRows := SegmentRows(segments, scale)
	switch format {
	case FormatCSV:
		if err := writeSplitsCSV(res.SplitsPath, splitRows); err != nil {
			return Result{}, fmt.Errorf("write splits csv: %w", err)
		}
		if err := writeSegmentsCSV(res.SegmentsPath, segmentRows); err != nil {
			return Result{}, fmt.Errorf("write segments csv: %w", err)
		}
	default:
		if err := writeParquet(res.SplitsPath, new(SplitRow), splitRows); err != nil {
			return Result{}, fmt.Errorf("write splits parquet: %w", err)
		}
		if err := writeParquet(res.SegmentsPath, new(SegmentRow), segmentRows); err != nil {
			return Result{}, fmt.Errorf("write segments parquet: %w", err)
		}
	}
	return res, nil
}

// SplitRows flattens splits; missing heart rate becomes NaN with ValidHR false.
func SplitRows(splits []model.Split) []SplitRow {
	rows := make([]SplitRow, 0, len(splits))
	for _, s := range splits {
		rows = append(rows, SplitRow{
			Index:     int64(s.Index),
			StartUTC:  s.Start.UTC().Format(time.RFC3339),
			EndUTC:    s.End.UTC().Format(time.RFC3339),
			DistanceM: s.Distance,
			ElapsedS:  s.Elapsed,
			PaceS:     s.Pace,
			AvgHRBPM:  valueOrNaN(s.AvgHeartRate),
			MaxHRBPM:  valueOrNaN(s.MaxHeartRate),
			ValidHR:   s.AvgHeartRate != nil,
			Partial:   s.Partial,
		})
	}
	return rows
}

// SegmentRows flattens segments with their scale colors.
func SegmentRows(segments []model.RouteSegment, scale route.ColorScale) []SegmentRow {
	rows := make([]SegmentRow, 0, len(segments))
	for i, seg := range segments {
		row := SegmentRow{
			Index:      int64(i + 1),
			StartM:     seg.StartDistance,
			EndM:       seg.EndDistance,
			Points:     int64(len(seg.Coordinates)),
			PaceSPerKm: math.NaN(),
			HasPace:    seg.HasPace,
			Color:      scale.Color(seg),
		}
		if len(seg.Coordinates) > 0 {
			row.StartLat = seg.Coordinates[0].Latitude
			row.StartLon = seg.Coordinates[0].Longitude
		}
		if seg.HasPace {
			row.PaceSPerKm = seg.Pace
			row.Fraction = scale.Fraction(seg.Pace)
		}
		rows = append(rows, row)
	}
	return rows
}

func writeParquet[T any](path string, schema *T, rows []T) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	pw, err := writer.NewParquetWriter(fw, schema, 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

func writeSplitsCSV(path string, rows []SplitRow) error {
	header := []string{"index", "start_utc", "end_utc", "distance_m", "elapsed_s", "pace_s", "avg_hr_bpm", "max_hr_bpm", "valid_hr", "partial"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.Index, 10),
			r.StartUTC,
			r.EndUTC,
			formatFloat(r.DistanceM),
			formatFloat(r.ElapsedS),
			formatFloat(r.PaceS),
			formatFloat(r.AvgHRBPM),
			formatFloat(r.MaxHRBPM),
			strconv.FormatBool(r.ValidHR),
			strconv.FormatBool(r.Partial),
		})
	}
	return writeCSV(path, header, records)
}

func writeSegmentsCSV(path string, rows []SegmentRow) error {
	header := []string{"index", "start_m", "end_m", "start_lat", "start_lon", "points", "pace_s_per_km", "has_pace", "fraction", "color"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatInt(r.Index, 10),
			formatFloat(r.StartM),
			formatFloat(r.EndM),
			strconv.FormatFloat(r.StartLat, 'f', 7, 64),
			strconv.FormatFloat(r.StartLon, 'f', 7, 64),
			strconv.FormatInt(r.Points, 10),
			formatFloat(r.PaceSPerKm),
			strconv.FormatBool(r.HasPace),
			formatFloat(r.Fraction),
			r.Color,
		})
	}
	return writeCSV(path, header, records)
}

func writeCSV(path string, header []string, records [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}

// formatFloat leaves NaN cells empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
