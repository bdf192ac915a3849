package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Unit   string
	Values []float64
}

// PlotOptions controls plot size and decoration. Zero values pick defaults.
type PlotOptions struct {
	Width      int // plot columns, excluding the axis
	Height     int // plot rows
	ForceColor bool
	// XLabels name the first and last sample; only the ends are drawn.
	XLabels []string
	// Invert draws lower values higher, as for pace.
	Invert bool
}

type lineStyle struct {
	name   string
	period int
	on     int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 7
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
}

var colorPalette = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
}

// brailleDots maps a dot position inside a 2x4 braille cell to its bit.
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// canvas is a grid of braille cells addressed in dot coordinates.
type canvas struct {
	cols  int
	rows  int
	cells []uint8
}

func newCanvas(cols, rows int) *canvas {
	return &canvas{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
}

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row*c.cols+col] |= brailleDots[x%2][y%4]
}

func (c *canvas) mask(col, row int) uint8 {
	return c.cells[row*c.cols+col]
}

// line draws a Bresenham line, skipping dots the style leaves out.
func (c *canvas) line(x0, y0, x1, y1 int, style lineStyle) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if style.shouldPlot(x0) {
			c.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	return absInt(x)%ls.period < ls.on
}

// PlotSeries renders a braille line chart. Every series is scaled to its own range and the
// axis shows the range of the first series.
func PlotSeries(w io.Writer, title string, series []Series, opts PlotOptions) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	canvases := make([]*canvas, len(series))
	ranges := make([][2]float64, len(series))
	for i, s := range series {
		values := resampleSeries(s.Values, width)
		lo, hi := valueRange(values)
		ranges[i] = [2]float64{lo, hi}
		canvases[i] = newCanvas(width, height)
		style := lineStyles[i%len(lineStyles)]
		prevX, prevY := -1, -1
		for x, v := range values {
			px, py := x*2, valueToDot(v, lo, hi, height*4, opts.Invert)
			if prevX < 0 {
				prevX, prevY = px, py
			}
			canvases[i].line(prevX, prevY, px, py, style)
			prevX, prevY = px, py
		}
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	labels := axisLabels(ranges[0], height, opts.Invert)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(padCell(labels[y], axisLabelWidth, true))
		row.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, cv := range canvases {
				if m := cv.mask(x, y); m != 0 {
					if owner < 0 {
						owner = i
					}
					mask |= m
				}
			}
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				row.WriteString(colorPalette[owner%len(colorPalette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if len(opts.XLabels) > 0 {
		if _, err := fmt.Fprintln(w, xAxisLine(opts.XLabels, width)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, ranges, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func axisLabels(r [2]float64, height int, invert bool) []string {
	labels := make([]string, height)
	top, bottom := r[1], r[0]
	if invert {
		top, bottom = bottom, top
	}
	labels[0] = formatAxis(top)
	if height > 2 {
		labels[height/2] = formatAxis((top + bottom) / 2)
	}
	if height > 1 {
		labels[height-1] = formatAxis(bottom)
	}
	return labels
}

func formatAxis(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func xAxisLine(labels []string, width int) string {
	first := labels[0]
	last := labels[len(labels)-1]
	prefix := strings.Repeat(" ", axisLabelWidth+runewidth.StringWidth(axisSeparator))
	if len(labels) == 1 {
		return prefix + first
	}
	gap := width - runewidth.StringWidth(first) - runewidth.StringWidth(last)
	if gap < 1 {
		gap = 1
	}
	return prefix + first + strings.Repeat(" ", gap) + last
}

// resampleSeries averages down or linearly interpolates up to width points.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	switch {
	case len(values) == width:
		copy(out, values)
	case len(values) > width:
		for i := range out {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case len(values) == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(len(values)-1) / float64(width-1)
			idx := int(pos)
			if idx >= len(values)-1 {
				out[i] = values[len(values)-1]
				continue
			}
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

// valueRange returns min and max, widened when flat so the line sits mid-chart.
func valueRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi-lo < 1e-9 {
		return lo - 1, hi + 1
	}
	return lo, hi
}

func valueToDot(v, lo, hi float64, dots int, invert bool) int {
	if dots <= 1 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	if invert {
		pos = 1 - pos
	}
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return max(0, min(dots-1, row))
}

func renderLegend(series []Series, ranges [][2]float64, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%s) %s..%s", rune(0x2800+int(brailleDots[0][0])), s.Name,
			lineStyles[i%len(lineStyles)].name, formatAxis(ranges[i][0]), formatAxis(ranges[i][1]))
		if s.Unit != "" {
			label += " " + s.Unit
		}
		if useColor {
			label = colorPalette[i%len(colorPalette)] + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
