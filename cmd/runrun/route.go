package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/runrun/internal/config"
	"github.com/verte-zerg/runrun/internal/export"
	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/route"
	"github.com/verte-zerg/runrun/internal/splits"
	"github.com/verte-zerg/runrun/internal/stats"
	"github.com/verte-zerg/runrun/internal/store"
)

var (
	splitsUnit    string
	splitsPartial bool

	segmentsLength float64
	segmentsTop    int
	segmentsStops  int

	exportOut     string
	exportFormat  string
	exportUnit    string
	exportLength  float64
	exportPartial bool
)

// runData is a stored run with its series.
type runData struct {
	record model.RunningRecord
	track  []model.RouteSample
	hr     []model.HeartRateSample
}

func loadRun(ctx context.Context, st *store.Store, id string) (runData, error) {
	rec, err := st.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return runData{}, fmt.Errorf("run %s not found", id)
		}
		return runData{}, fmt.Errorf("failed to load run: %w", err)
	}
	track, err := st.GetTrack(ctx, id)
	if err != nil {
		return runData{}, fmt.Errorf("failed to load track: %w", err)
	}
	hr, err := st.GetHeartRates(ctx, id)
	if err != nil {
		return runData{}, fmt.Errorf("failed to load heart rate: %w", err)
	}
	return runData{record: rec, track: track, hr: hr}, nil
}

func splitOptions(unitName string, partial bool) (splits.Options, error) {
	unit, ok := splits.UnitFor(unitName)
	if !ok {
		return splits.Options{}, fmt.Errorf("invalid --unit %q (expected km|mi)", unitName)
	}
	return splits.Options{Unit: unit, IncludePartial: partial}, nil
}

func newSplitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splits ID",
		Short: "Show per-kilometer or per-mile splits of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runSplitsCmd,
	}
	cmd.Flags().StringVar(&splitsUnit, "unit", defaultUnit, "km|mi")
	cmd.Flags().BoolVar(&splitsPartial, "partial", false, "include the trailing partial split")
	return cmd
}

func runSplitsCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "unit", &splitsUnit, fileCfg.Splits.Unit)
	applyBoolConfig(cmd, "partial", &splitsPartial, fileCfg.Splits.IncludePartial)
	opts, err := splitOptions(splitsUnit, splitsPartial)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	run, err := loadRun(context.Background(), st, args[0])
	if err != nil {
		return err
	}
	return stats.RenderSplits(cmd.OutOrStdout(), splits.Calculate(run.track, run.hr, opts), splitsUnit)
}

func newSegmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments ID",
		Short: "Show route segment paces and color thresholds",
		Args:  cobra.ExactArgs(1),
		RunE:  runSegmentsCmd,
	}
	cmd.Flags().Float64Var(&segmentsLength, "length", route.DefaultSegmentLength, "segment length in meters")
	cmd.Flags().IntVar(&segmentsTop, "top", 0, "only list the N slowest segments")
	cmd.Flags().IntVar(&segmentsStops, "stops", route.DefaultMaxStops, "maximum gradient stops")
	return cmd
}

func runSegmentsCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyFloatConfig(cmd, "length", &segmentsLength, fileCfg.Route.SegmentLength)
	if segmentsLength <= 0 {
		return fmt.Errorf("--length must be > 0")
	}
	applyIntConfig(cmd, "stops", &segmentsStops, fileCfg.Route.MaxColorStops)
	if segmentsTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if segmentsStops < 2 {
		return fmt.Errorf("--stops must be >= 2")
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	run, err := loadRun(context.Background(), st, args[0])
	if err != nil {
		return err
	}
	segments := route.Segment(run.track, segmentsLength)
	scale := route.NewColorScale(segments)
	out := cmd.OutOrStdout()
	stops := route.GradientStops(segments, scale, segmentsStops)
	if err := stats.RenderGradient(out, stops, gradientWidth); err != nil {
		return err
	}
	return stats.RenderSegments(out, segments, scale, segmentsTop)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write splits and segments of a run to Parquet or CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output directory (default: $XDG_DATA_HOME/runrun/exports/ID)")
	cmd.Flags().StringVar(&exportFormat, "format", defaultFormat, "parquet|csv")
	cmd.Flags().StringVar(&exportUnit, "unit", defaultUnit, "split unit km|mi")
	cmd.Flags().Float64Var(&exportLength, "length", route.DefaultSegmentLength, "segment length in meters")
	cmd.Flags().BoolVar(&exportPartial, "partial", false, "include the trailing partial split")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "unit", &exportUnit, fileCfg.Splits.Unit)
	applyBoolConfig(cmd, "partial", &exportPartial, fileCfg.Splits.IncludePartial)
	applyFloatConfig(cmd, "length", &exportLength, fileCfg.Route.SegmentLength)
	opts, err := splitOptions(exportUnit, exportPartial)
	if err != nil {
		return err
	}
	if exportLength <= 0 {
		return fmt.Errorf("--length must be > 0")
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	run, err := loadRun(context.Background(), st, args[0])
	if err != nil {
		return err
	}
	if len(run.track) == 0 {
		logErrln("run has no GPS track; writing empty tables")
	}
	out := exportOut
	if out == "" {
		out = config.DefaultExportDir(run.record.ID)
	}
	segments := route.Segment(run.track, exportLength)
	res, err := export.Write(
		splits.Calculate(run.track, run.hr, opts),
		segments,
		route.NewColorScale(segments),
		export.Options{OutDir: out, Format: exportFormat},
	)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nWrote %s\n", res.SplitsPath, res.SegmentsPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
