// Package render draws placement results as PNG images.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/smartcity/sensorplan/internal/domain"
)

const circleSegments = 72

var (
	coverageFill = color.RGBA{R: 0, G: 128, B: 0, A: 77}
	sensorColor  = color.RGBA{R: 220, G: 0, B: 0, A: 255}
	labelColor   = color.RGBA{R: 139, G: 0, B: 0, A: 255}
	mainColor    = color.RGBA{R: 0, G: 0, B: 220, A: 255}
)

// PlacementPNG writes a PNG of one shape: the area bounds, a translucent disk
// per sensor labeled NS1..NSk, and the main unit at the area center.
func PlacementPNG(w io.Writer, shape domain.ShapeResult) error {
	if !(shape.Length > 0) || !(shape.Width > 0) {
		return fmt.Errorf("render: %w: %vx%v", domain.ErrInvalidDimension, shape.Length, shape.Width)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%.0f m²)", shape.Label, shape.Length*shape.Width)
	p.X.Label.Text = "Length (m)"
	p.Y.Label.Text = "Width (m)"
	p.Add(plotter.NewGrid())

	sensorPts := make(plotter.XYs, len(shape.Sensors))
	names := make([]string, len(shape.Sensors))
	for i, s := range shape.Sensors {
		disk, err := plotter.NewPolygon(circle(s, shape.Radius))
		if err != nil {
			return fmt.Errorf("render: sensor %d disk: %w", i+1, err)
		}
		disk.Color = coverageFill
		disk.LineStyle.Width = 0
		p.Add(disk)

		sensorPts[i] = plotter.XY{X: s.X, Y: s.Y}
		names[i] = fmt.Sprintf("NS%d", i+1)
	}

	if len(sensorPts) > 0 {
		if err := addMarkers(p, sensorPts, names, sensorColor, labelColor); err != nil {
			return err
		}
	}
	unit := plotter.XYs{{X: shape.MainUnit.X, Y: shape.MainUnit.Y}}
	if err := addMarkers(p, unit, []string{"Main Unit"}, mainColor, mainColor); err != nil {
		return err
	}

	// Data ranges grew with the disks; pin the axes back to the area.
	p.X.Min, p.X.Max = 0, shape.Length
	p.Y.Min, p.Y.Max = 0, shape.Width

	width := 6 * vg.Inch
	height := vg.Length(clamp(6*shape.Width/shape.Length, 3, 12)) * vg.Inch
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render: failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render: failed to write png: %w", err)
	}
	return nil
}

func addMarkers(p *plot.Plot, pts plotter.XYs, names []string, glyph, ink color.Color) error {
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("render: markers: %w", err)
	}
	sc.GlyphStyle.Color = glyph
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(3)
	p.Add(sc)

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: names})
	if err != nil {
		return fmt.Errorf("render: labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = ink
		labels.TextStyle[i].XAlign = text.XCenter
	}
	labels.Offset = vg.Point{Y: vg.Points(4)}
	p.Add(labels)
	return nil
}

func circle(c domain.Coordinate, radius float64) plotter.XYs {
	pts := make(plotter.XYs, circleSegments)
	for k := range pts {
		theta := 2 * math.Pi * float64(k) / circleSegments
		pts[k] = plotter.XY{X: c.X + radius*math.Cos(theta), Y: c.Y + radius*math.Sin(theta)}
	}
	return pts
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
