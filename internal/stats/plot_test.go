package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Distance", []Series{
		{Name: "km", Unit: "km", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "pace", Unit: "s/km", Values: []float64{300, 310, 290, 305, 280}},
	}, PlotOptions{Width: 12, Height: 4, XLabels: []string{"2026-01", "2026-05"}})
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Distance") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") || !strings.Contains(out, "s/km") {
		t.Fatalf("expected legend with units in output")
	}
	if !strings.Contains(out, "2026-01") || !strings.Contains(out, "2026-05") {
		t.Fatalf("expected x labels in output")
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color for a buffer")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1+4+1+1 {
		t.Fatalf("expected 7 lines of output, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "3.0") || !strings.Contains(lines[4], "1.0") {
		t.Fatalf("expected axis of first series, got %q / %q", lines[1], lines[4])
	}
	for _, line := range lines[1:5] {
		if got := runewidth.StringWidth(line); got != axisLabelWidth+runewidth.StringWidth(axisSeparator)+12 {
			t.Fatalf("unexpected plot row width %d: %q", got, line)
		}
	}
}

func TestPlotSeriesInvertedAxis(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "", []Series{{Name: "pace", Values: []float64{240, 360}}},
		PlotOptions{Width: 10, Height: 3, Invert: true}); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.Contains(lines[0], "240.0") || !strings.Contains(lines[2], "360.0") {
		t.Fatalf("expected fastest pace on top, got %q", buf.String())
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Empty", []Series{{Name: "x"}}, PlotOptions{}); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	expected := 80 - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if got := PlotWidthFor(80); got != expected {
		t.Fatalf("expected width %d, got %d", expected, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
	if got := PlotWidthFor(12); got != minPlotWidth {
		t.Fatalf("expected min width for narrow terminals, got %d", got)
	}
}

func TestResampleSeries(t *testing.T) {
	down := resampleSeries([]float64{1, 3, 5, 7}, 2)
	if down[0] != 2 || down[1] != 6 {
		t.Fatalf("unexpected downsample: %v", down)
	}
	up := resampleSeries([]float64{0, 10}, 3)
	if up[0] != 0 || up[1] != 5 || up[2] != 10 {
		t.Fatalf("unexpected upsample: %v", up)
	}
}
