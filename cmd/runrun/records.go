package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/normalize"
	"github.com/verte-zerg/runrun/internal/source"
	"github.com/verte-zerg/runrun/internal/stats"
	"github.com/verte-zerg/runrun/internal/statsui"
	"github.com/verte-zerg/runrun/internal/store"
)

var (
	listSince string
	listLast  int

	statsSince       string
	statsGranularity string
	statsTrendWindow int
	statsPlain       bool
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import FIT activity files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	userID := currentUser(fileCfg)
	if err := ensureProfile(ctx, st, userID, fileCfg.Profile.Name); err != nil {
		return err
	}
	classes := fileCfg.DistanceClasses()
	imported, failed := 0, 0
	for _, path := range args {
		rec, err := importFile(ctx, st, path, userID)
		switch {
		case errors.Is(err, store.ErrExists):
			logErrf("Skipping %s (already imported)\n", path)
		case errors.Is(err, source.ErrNotRunning):
			logErrf("Skipping %s (not a run)\n", path)
		case errors.Is(err, errInvalidWorkout):
			logErrf("Skipping %s (no usable duration or distance)\n", path)
		case err != nil:
			logErrf("Failed to import %s: %v\n", path, err)
			failed++
		default:
			imported++
			line := fmt.Sprintf("%s  %s  %s km", rec.ID, rec.Start.Local().Format("2006-01-02 15:04"), stats.FormatKm(rec.Distance))
			if class, ok := stats.ClassFor(rec.Distance, classes); ok {
				line += "  " + class.Name
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	logErrf("Imported %d of %d files\n", imported, len(args))
	if failed > 0 {
		return fmt.Errorf("%d files failed to import", failed)
	}
	return nil
}

var errInvalidWorkout = errors.New("invalid workout")

// importFile decodes, normalizes and stores one file.
func importFile(ctx context.Context, st *store.Store, path, userID string) (model.RunningRecord, error) {
	raw, err := source.ReadFile(path, userID)
	if err != nil {
		return model.RunningRecord{}, err
	}
	rec, ok := normalize.Record(raw)
	if !ok {
		return model.RunningRecord{}, errInvalidWorkout
	}
	track := normalize.Track(raw.Route)
	hr := normalize.HeartRates(raw.HeartRates)
	if err := st.InsertRecord(ctx, rec, track, hr); err != nil {
		return model.RunningRecord{}, err
	}
	return rec, nil
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
	cmd.Flags().StringVar(&listSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&listLast, "last", 0, "limit to last N runs")
	return cmd
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	if listLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Stats.Calendar()
	if err != nil {
		return err
	}
	since, err := parseDate("since", listSince, cal.Location)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := st.ListRecords(context.Background(), model.RecordFilter{
		UserID: currentUser(fileCfg),
		Since:  since,
		Last:   listLast,
	})
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	return stats.RenderRecordList(cmd.OutOrStdout(), records, cal)
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a run with its track",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteCmd,
	}
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.DeleteRecord(context.Background(), args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %s not found", args[0])
		}
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0]); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show period stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsGranularity, "granularity", defaultGranularity, "week|month|year")
	cmd.Flags().IntVar(&statsTrendWindow, "trend-window", defaultTrendWindow, "moving average window over periods")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveStatsConfig(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if !statsPlain {
		ui := statsui.NewModel(st, cfg)
		program := tea.NewProgram(ui, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return err
	}
	if err := stats.RenderBuckets(out, report); err != nil {
		return err
	}
	return stats.RenderTrend(out, report, stats.PlotOptions{})
}

// resolveStatsConfig merges stats flags over the config file.
func resolveStatsConfig(cmd *cobra.Command) (model.StatsConfig, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return model.StatsConfig{}, err
	}
	applyStringConfig(cmd, "granularity", &statsGranularity, fileCfg.Stats.Granularity)
	granularity, err := model.ParseGranularity(statsGranularity)
	if err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid --granularity: %w", err)
	}
	if statsTrendWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--trend-window must be >= 1")
	}
	cal, err := fileCfg.Stats.Calendar()
	if err != nil {
		return model.StatsConfig{}, err
	}
	since, err := parseDate("since", statsSince, cal.Location)
	if err != nil {
		return model.StatsConfig{}, err
	}
	return model.StatsConfig{
		UserID:      currentUser(fileCfg),
		Since:       since,
		Granularity: granularity,
		Calendar:    cal,
		Classes:     fileCfg.DistanceClasses(),
		TrendWindow: statsTrendWindow,
	}, nil
}

func newRecordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Show personal records and highlights",
		Args:  cobra.NoArgs,
		RunE:  runRecordsCmd,
	}
}

func runRecordsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Stats.Calendar()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := stats.BuildReport(context.Background(), st, model.StatsConfig{
		UserID:      currentUser(fileCfg),
		Granularity: model.Monthly,
		Calendar:    cal,
		Classes:     fileCfg.DistanceClasses(),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderRecords(out, report); err != nil {
		return err
	}
	if longest := stats.TopRuns(report.Records, 5); len(longest) > 0 {
		if _, err := fmt.Fprintln(out, "Longest runs"); err != nil {
			return err
		}
		return stats.RenderRecordList(out, longest, cal)
	}
	return nil
}

func newYearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "year [YEAR]",
		Short: "Show a month-by-month grid for a year",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runYearCmd,
	}
}

func runYearCmd(cmd *cobra.Command, args []string) error {
	year := time.Now().Year()
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid year %q", args[0])
		}
		year = parsed
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cal, err := fileCfg.Stats.Calendar()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	key := model.PeriodKey{Granularity: model.Yearly, Year: year}
	since, until := key.Start(cal), key.End(cal)
	records, err := st.ListRecords(context.Background(), model.RecordFilter{
		UserID: currentUser(fileCfg),
		Since:  &since,
		Until:  &until,
	})
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	return stats.RenderYear(cmd.OutOrStdout(), year, records, cal)
}
