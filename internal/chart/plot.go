// Package chart renders panel views as terminal text.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/usagechart/internal/analytics"
	"github.com/verte-zerg/usagechart/internal/model"
)

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 8
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	seriesColor         = "\x1b[36m"
	markerRune          = '•'
	targetRune          = '┄'
	terminalWidthBackup = 80
)

// Options controls plot size and color output.
type Options struct {
	Width      int // total width including the axis; 0 means terminal width
	Height     int // plot rows; 0 means default
	ForceColor bool
}

type plotPoint struct {
	x int
	y float64
}

// RenderChart draws the selected series with its target overlay.
func RenderChart(w io.Writer, spec analytics.ChartSpec, opts Options) error {
	points := validPoints(spec.Series.Points)
	if len(points) == 0 {
		name := spec.Series.ID
		if name == "" {
			name = "selection"
		}
		_, err := fmt.Fprintf(w, "No data for %s.\n", name)
		return err
	}

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	total := opts.Width
	if total <= 0 {
		total = terminalWidth()
	}
	width := PlotWidthFor(total)

	minVal, maxVal := yRange(points, spec.Target.Value)
	cells := makeCells(height, width)
	markers := makeMarkers(height, width)
	dotWidth := width * 2
	dotHeight := height * 4

	prevX, prevY := -1, -1
	for i, p := range points {
		px := pointColumn(p.x, len(spec.Series.Points), dotWidth)
		py := valueToRow(p.y, minVal, maxVal, dotHeight)
		if prevX >= 0 && points[i-1].x == p.x-1 {
			drawLine(prevX, prevY, px, py, func(dx, dy int) {
				setBrailleDot(cells, dx, dy)
			})
		} else {
			setBrailleDot(cells, px, py)
		}
		if spec.PointMarkers {
			markers[py/4][px/2] = true
		}
		prevX, prevY = px, py
	}

	targetRow := valueToRow(spec.Target.Value, minVal, maxVal, dotHeight) / 4
	targetCols := int(math.Ceil(float64(width)*spec.Target.WidthFrac - 1e-9))
	if targetCols > width {
		targetCols = width
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	targetCode := ansiForColor(spec.Target.Color)

	if _, err := fmt.Fprintln(w, spec.LeftAxis); err != nil {
		return err
	}
	labels := makeAxisLabels(height, minVal, maxVal)
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, labels[y], axisSeparator))
		for x := 0; x < width; x++ {
			switch {
			case markers[y][x]:
				writeCell(&row, markerRune, seriesColor, useColor)
			case cells[y][x] != 0:
				writeCell(&row, brailleFromMask(cells[y][x]), seriesColor, useColor)
			case y == targetRow && x < targetCols:
				writeCell(&row, targetRune, targetCode, useColor)
			default:
				row.WriteRune(' ')
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(row.String(), " ")); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, xAxisLine(spec.Series.Points, width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, centered(spec.BottomAxis, axisLabelWidth+runewidth.StringWidth(axisSeparator), width)); err != nil {
		return err
	}
	if spec.Legend {
		if _, err := fmt.Fprintln(w, renderLegend(spec, useColor, targetCode)); err != nil {
			return err
		}
	}
	return nil
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

// TargetRow returns the plot row the target line lands on for a view, or
// -1 when there is nothing to plot.
func TargetRow(spec analytics.ChartSpec, height int) int {
	points := validPoints(spec.Series.Points)
	if len(points) == 0 {
		return -1
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	minVal, maxVal := yRange(points, spec.Target.Value)
	return valueToRow(spec.Target.Value, minVal, maxVal, height*4) / 4
}

func validPoints(points []model.PlotPoint) []plotPoint {
	out := make([]plotPoint, 0, len(points))
	for i, p := range points {
		if !p.Y.Valid || math.IsNaN(p.Y.Value) || math.IsInf(p.Y.Value, 0) {
			continue
		}
		out = append(out, plotPoint{x: i, y: p.Y.Value})
	}
	return out
}

func yRange(points []plotPoint, target float64) (float64, float64) {
	minVal, maxVal := target, target
	for _, p := range points {
		if p.y < minVal {
			minVal = p.y
		}
		if p.y > maxVal {
			maxVal = p.y
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		minVal--
		maxVal++
	}
	return minVal, maxVal
}

func pointColumn(idx, count, dotWidth int) int {
	if count <= 1 || dotWidth <= 1 {
		return 0
	}
	return int(math.Round(float64(idx) * float64(dotWidth-1) / float64(count-1)))
}

func writeCell(b *strings.Builder, r rune, code string, useColor bool) {
	if useColor && code != "" {
		b.WriteString(code)
		b.WriteRune(r)
		b.WriteString(colorReset)
		return
	}
	b.WriteRune(r)
}

// ansiForColor converts a CSS hex color into a truecolor escape. Unparseable
// colors render with the terminal default.
func ansiForColor(c string) string {
	col, err := colorful.Hex(strings.TrimSpace(c))
	if err != nil {
		return ""
	}
	r, g, b := col.RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

func xAxisLine(points []model.PlotPoint, width int) string {
	indent := strings.Repeat(" ", axisLabelWidth+runewidth.StringWidth(axisSeparator))
	if len(points) == 0 {
		return indent
	}
	first := points[0].X
	if len(points) == 1 {
		return indent + first
	}
	last := points[len(points)-1].X
	gap := width - runewidth.StringWidth(first) - runewidth.StringWidth(last)
	if gap < 1 {
		gap = 1
	}
	return indent + first + strings.Repeat(" ", gap) + last
}

func centered(label string, indent, width int) string {
	pad := (width - runewidth.StringWidth(label)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", indent+pad) + label
}

func renderLegend(spec analytics.ChartSpec, useColor bool, targetCode string) string {
	series := fmt.Sprintf("%c %s", markerRune, spec.Series.ID)
	target := fmt.Sprintf("%c Target %s (%s)", targetRune, formatValue(spec.Target.Value), spec.Target.Color)
	if useColor {
		series = seriesColor + series + colorReset
		if targetCode != "" {
			target = targetCode + target + colorReset
		}
	}
	return "Legend: " + series + "  " + target
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

func makeAxisLabels(height int, minVal, maxVal float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatValue(maxVal)
	if height > 2 {
		labels[height/2] = formatValue((minVal + maxVal) / 2)
	}
	if height > 1 {
		labels[height-1] = formatValue(minVal)
	}
	return labels
}

func formatValue(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func makeMarkers(height, width int) [][]bool {
	markers := make([][]bool, height)
	for y := 0; y < height; y++ {
		markers[y] = make([]bool, width)
	}
	return markers
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
