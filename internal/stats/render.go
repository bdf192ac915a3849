package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/runrun/internal/model"
	"github.com/verte-zerg/runrun/internal/route"
)

const dateLayout = "2006-01-02"

func writeTable(w io.Writer, title string, headers []string, rows [][]string, rightAlign map[int]bool) error {
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSummary prints totals over the report window.
func RenderSummary(w io.Writer, r Report) error {
	if len(r.Records) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	pace, _ := r.Totals.AveragePace()
	rows := [][]string{
		{"Runs", strconv.Itoa(r.Totals.RunCount)},
		{"Distance", FormatKm(r.Totals.TotalDistance) + " km"},
		{"Time", FormatDuration(r.Totals.TotalDuration)},
		{"Avg pace", FormatPace(pace) + " /km"},
		{"Avg run", FormatKm(r.Totals.AverageDistance()) + " km"},
	}
	if r.Totals.TotalCalories > 0 {
		rows = append(rows, []string{"Calories", fmt.Sprintf("%.0f kcal", r.Totals.TotalCalories)})
	}
	if len(r.Buckets) > 1 {
		rows = append(rows, []string{"Trend", Sparkline(r.DistanceSeries(r.Config.TrendWindow))})
	}
	return writeTable(w, "Summary", nil, rows, nil)
}

// RenderBuckets prints one row per period, oldest first.
func RenderBuckets(w io.Writer, r Report) error {
	if len(r.Buckets) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		pace, _ := b.AveragePace()
		rows = append(rows, []string{
			b.Key.String(),
			strconv.Itoa(b.RunCount),
			FormatKm(b.TotalDistance),
			FormatDuration(b.TotalDuration),
			FormatPace(pace),
		})
	}
	title := fmt.Sprintf("Per %s", r.Config.Granularity)
	headers := []string{"Period", "Runs", "Distance (km)", "Time", "Pace (/km)"}
	return writeTable(w, title, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// RenderYear prints a twelve-month grid for year. Months without runs show as --.
func RenderYear(w io.Writer, year int, records []model.RunningRecord, cal model.Calendar) error {
	months := MonthsOfYear(year, Aggregate(records, model.Monthly, cal))
	rows := make([][]string, 0, len(months)+1)
	distances := make([]float64, len(months))
	var total model.BucketStats
	for i, b := range months {
		distances[i] = b.TotalDistance
		total.TotalDistance += b.TotalDistance
		total.TotalDuration += b.TotalDuration
		total.RunCount += b.RunCount
		if b.RunCount == 0 {
			rows = append(rows, []string{b.Key.Month.String()[:3], "0", "--", "--", "--"})
			continue
		}
		pace, _ := b.AveragePace()
		rows = append(rows, []string{
			b.Key.Month.String()[:3],
			strconv.Itoa(b.RunCount),
			FormatKm(b.TotalDistance),
			FormatDuration(b.TotalDuration),
			FormatPace(pace),
		})
	}
	totalPace, _ := total.AveragePace()
	rows = append(rows, []string{
		"Total",
		strconv.Itoa(total.RunCount),
		FormatKm(total.TotalDistance),
		FormatDuration(total.TotalDuration),
		FormatPace(totalPace),
	})
	headers := []string{"Month", "Runs", "Distance (km)", "Time", "Pace (/km)"}
	if err := writeTable(w, fmt.Sprintf("Year %04d", year), headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Distance by month  %s\n", Sparkline(distances))
	return err
}

// RenderTrend plots distance and pace per period, smoothed by the report's trend window.
func RenderTrend(w io.Writer, r Report, opts PlotOptions) error {
	if len(r.Buckets) < 2 {
		return nil
	}
	opts.XLabels = []string{r.Buckets[0].Key.String(), r.Buckets[len(r.Buckets)-1].Key.String()}
	if err := PlotSeries(w, "Distance per period", []Series{
		{Name: "Distance", Unit: "km", Values: r.DistanceSeries(r.Config.TrendWindow)},
	}, opts); err != nil {
		return err
	}
	opts.Invert = true
	return PlotSeries(w, "Pace per period", []Series{
		{Name: "Pace", Unit: "s/km", Values: r.PaceSeries(r.Config.TrendWindow)},
	}, opts)
}

// RenderRecords prints the personal-record table followed by highlights.
func RenderRecords(w io.Writer, r Report) error {
	cal := r.Config.Calendar
	rows := make([][]string, 0, len(r.PersonalRecords))
	for _, pr := range r.PersonalRecords {
		if pr.Record == nil {
			rows = append(rows, []string{pr.Class.Name, "--", "--", "--", "--"})
			continue
		}
		pace, _ := pr.Record.Pace()
		rows = append(rows, []string{
			pr.Class.Name,
			FormatKm(pr.Record.Distance),
			FormatDuration(pr.Record.Duration),
			FormatPace(pace),
			cal.In(pr.Record.Start).Format(dateLayout),
		})
	}
	headers := []string{"Class", "Distance (km)", "Time", "Pace (/km)", "Date"}
	if err := writeTable(w, "Personal records", headers, rows, map[int]bool{1: true, 2: true, 3: true}); err != nil {
		return err
	}
	return RenderHighlights(w, r.Highlights, cal)
}

// RenderHighlights prints the highlight list; absent highlights show as --.
func RenderHighlights(w io.Writer, h Highlights, cal model.Calendar) error {
	runLine := func(rec *model.RunningRecord) string {
		if rec == nil {
			return "--"
		}
		pace, _ := rec.Pace()
		return fmt.Sprintf("%s km in %s (%s /km) on %s", FormatKm(rec.Distance), FormatDuration(rec.Duration),
			FormatPace(pace), cal.In(rec.Start).Format(dateLayout))
	}
	bucketLine := func(b *model.BucketStats) string {
		if b == nil {
			return "--"
		}
		return fmt.Sprintf("%s: %d runs, %s km", b.Key, b.RunCount, FormatKm(b.TotalDistance))
	}
	rows := [][]string{
		{"Longest run", runLine(h.LongestRun)},
		{"Longest time", runLine(h.LongestDuration)},
		{"Fastest run", runLine(h.FastestRun)},
		{"Most active week", bucketLine(h.MostActiveWeek)},
		{"Most active month", bucketLine(h.MostActiveMonth)},
		{"Biggest month", bucketLine(h.BiggestMonth)},
	}
	return writeTable(w, "Highlights", nil, rows, nil)
}

// RenderSplits prints the split table. unitName labels the pace column.
func RenderSplits(w io.Writer, splits []model.Split, unitName string) error {
	if len(splits) == 0 {
		_, err := fmt.Fprintln(w, "No splits: the run has no GPS track or is shorter than one unit.")
		return err
	}
	rows := make([][]string, 0, len(splits))
	for _, s := range splits {
		label := strconv.Itoa(s.Index)
		if s.Partial {
			label += "*"
		}
		rows = append(rows, []string{
			label,
			fmt.Sprintf("%.0f", s.Distance),
			FormatDuration(s.Elapsed),
			FormatPace(s.Pace),
			formatOptional(s.AvgHeartRate, "%.0f"),
			formatOptional(s.MaxHeartRate, "%.0f"),
		})
	}
	headers := []string{"#", "Meters", "Time", "Pace (/" + unitName + ")", "Avg HR", "Max HR"}
	return writeTable(w, "Splits", headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true})
}

// RenderSegments prints the color thresholds and the segment table. With top > 0 only
// the slowest top segments are listed.
func RenderSegments(w io.Writer, segments []model.RouteSegment, scale route.ColorScale, top int) error {
	if len(segments) == 0 {
		_, err := fmt.Fprintln(w, "No segments: the run has no GPS track.")
		return err
	}
	if scale.Uniform {
		if _, err := fmt.Fprintf(w, "Pace spread too small; every segment is %s\n", route.UniformColor); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "Fast (p10): %s /km  Slow (p90): %s /km\n",
			FormatPace(scale.Fast), FormatPace(scale.Slow)); err != nil {
			return err
		}
	}
	order := make([]int, len(segments))
	for i := range order {
		order[i] = i
	}
	title := fmt.Sprintf("Segments (%d)", len(segments))
	if top > 0 {
		order = SlowestSegments(segments, top)
		title = fmt.Sprintf("Slowest %d of %d segments", len(order), len(segments))
	}
	rows := make([][]string, 0, len(order))
	for _, i := range order {
		s := segments[i]
		pace := "--"
		if s.HasPace {
			pace = FormatPace(s.Pace)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.0f", s.StartDistance),
			fmt.Sprintf("%.0f", s.EndDistance),
			pace,
			scale.Color(s),
		})
	}
	headers := []string{"#", "From (m)", "To (m)", "Pace (/km)", "Color"}
	return writeTable(w, title, headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true})
}

// RenderGradient draws the route color gradient as a bar of width cells. Each cell takes
// the last stop at or before its center.
func RenderGradient(w io.Writer, stops []route.ColorStop, width int) error {
	if len(stops) == 0 || width <= 0 {
		return nil
	}
	var b strings.Builder
	next := 0
	for i := 0; i < width; i++ {
		center := (float64(i) + 0.5) / float64(width)
		for next+1 < len(stops) && stops[next+1].Location <= center {
			next++
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(stops[next].Color))
		b.WriteString(style.Render("█"))
	}
	_, err := fmt.Fprintf(w, "Route  %s\n\n", b.String())
	return err
}

// RenderGoals prints goal progress.
func RenderGoals(w io.Writer, progress []GoalProgress) error {
	if len(progress) == 0 {
		_, err := fmt.Fprintln(w, "No goals set.")
		return err
	}
	rows := make([][]string, 0, len(progress))
	for _, p := range progress {
		rows = append(rows, []string{
			p.Goal.Key().String(),
			string(p.Goal.Type),
			FormatKm(p.Achieved),
			FormatKm(p.Goal.TargetDistance),
			fmt.Sprintf("%.1f%%", p.Fraction*100),
		})
	}
	headers := []string{"Period", "Type", "Done (km)", "Target (km)", "Progress"}
	return writeTable(w, "Goals", headers, rows, map[int]bool{2: true, 3: true, 4: true})
}

// RenderLeaderboard prints standings for a period.
func RenderLeaderboard(w io.Writer, key model.PeriodKey, standings []Standing) error {
	rows := make([][]string, 0, len(standings))
	for _, s := range standings {
		rows = append(rows, []string{
			strconv.Itoa(s.Rank),
			s.UserID,
			FormatKm(s.Distance),
			strconv.Itoa(s.RunCount),
			FormatDuration(s.Duration),
		})
	}
	headers := []string{"Rank", "User", "Distance (km)", "Runs", "Time"}
	return writeTable(w, "Leaderboard "+key.String(), headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true})
}

// RenderRecordList prints one line per record.
func RenderRecordList(w io.Writer, records []model.RunningRecord, cal model.Calendar) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		pace, _ := rec.Pace()
		rows = append(rows, []string{
			rec.ID,
			cal.In(rec.Start).Format("2006-01-02 15:04"),
			FormatKm(rec.Distance),
			FormatDuration(rec.Duration),
			FormatPace(pace),
			formatOptional(rec.AvgHeartRate, "%.0f"),
		})
	}
	headers := []string{"ID", "Start", "Distance (km)", "Time", "Pace (/km)", "Avg HR"}
	return writeTable(w, "", headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true})
}
