// Package export writes panel views to image and spreadsheet files.
package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/verte-zerg/usagechart/internal/analytics"
)

const (
	// DefaultImageWidth is the exported chart width.
	DefaultImageWidth = 10 * vg.Inch
	// DefaultImageHeight is the exported chart height.
	DefaultImageHeight = 5 * vg.Inch
)

var seriesLineColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// BuildPlot turns a chart spec into a gonum plot with the target overlay.
func BuildPlot(spec analytics.ChartSpec) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Series.ID
	p.Y.Label.Text = spec.LeftAxis
	p.X.Label.Text = spec.BottomAxis
	p.Add(plotter.NewGrid())

	points := spec.Series.Points
	n := len(points)
	names := make([]string, n)
	for i, pt := range points {
		names[i] = pt.X
	}
	if n > 0 {
		p.NominalX(names...)
	}
	p.X.Min = -0.5
	p.X.Max = float64(n) - 0.5
	if n == 0 {
		p.X.Max = 0.5
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	minY, maxY := spec.Target.Value, spec.Target.Value
	var legendLine *plotter.Line
	var legendPoints *plotter.Scatter
	for _, run := range validRuns(spec) {
		for _, xy := range run {
			minY = math.Min(minY, xy.Y)
			maxY = math.Max(maxY, xy.Y)
		}
		line, scatter, err := plotter.NewLinePoints(run)
		if err != nil {
			return nil, fmt.Errorf("failed to build series line: %w", err)
		}
		line.Color = seriesLineColor
		line.Width = vg.Points(2)
		scatter.Shape = draw.CircleGlyph{}
		scatter.Color = seriesLineColor
		scatter.Radius = vg.Points(3)
		p.Add(line)
		if spec.PointMarkers {
			p.Add(scatter)
		}
		if legendLine == nil {
			legendLine, legendPoints = line, scatter
		}
	}
	if maxY-minY < 1e-9 {
		minY--
		maxY++
	}
	pad := (maxY - minY) * 0.05
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	span := (p.X.Max - p.X.Min) * spec.Target.WidthFrac
	target, err := plotter.NewLine(plotter.XYs{
		{X: p.X.Min, Y: spec.Target.Value},
		{X: p.X.Min + span, Y: spec.Target.Value},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build target line: %w", err)
	}
	target.Color = parseColor(spec.Target.Color)
	target.Width = vg.Points(2)
	target.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(target)

	if spec.Legend {
		p.Legend.Top = true
		if legendLine != nil {
			if spec.PointMarkers {
				p.Legend.Add(spec.Series.ID, legendLine, legendPoints)
			} else {
				p.Legend.Add(spec.Series.ID, legendLine)
			}
		}
		p.Legend.Add("Target", target)
	}
	return p, nil
}

// WriteChart renders the chart in format (png, svg, pdf, ...) to w.
func WriteChart(w io.Writer, spec analytics.ChartSpec, format string, width, height vg.Length) error {
	p, err := BuildPlot(spec)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// SaveChart writes the chart to path. The format follows the extension.
func SaveChart(path string, spec analytics.ChartSpec, width, height vg.Length) error {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		return fmt.Errorf("chart path %q has no extension", path)
	}
	p, err := BuildPlot(spec)
	if err != nil {
		return err
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}

// validRuns splits the series into runs of consecutive valid points; a
// missing or non-finite value breaks the line.
func validRuns(spec analytics.ChartSpec) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	for i, pt := range spec.Series.Points {
		if !pt.Y.Valid || math.IsNaN(pt.Y.Value) || math.IsInf(pt.Y.Value, 0) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(i), Y: pt.Y.Value})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func parseColor(s string) color.Color {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return color.Black
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
