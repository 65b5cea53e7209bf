package service

import (
	"math"
)

// Shape labels reported for every simulation
const (
	LabelSquare = "Square"
	LabelWide   = "Length > Width (2:1)"
	LabelTall   = "Width > Length (1:2)"
)

// ShapeSpec is one concrete rectangle derived from an area
type ShapeSpec struct {
	Label  string
	Length float64
	Width  float64
}

// ShapesForArea derives the square, 2:1 and 1:2 rectangles of the given area
func ShapesForArea(area float64) []ShapeSpec {
	side := math.Sqrt(area)
	long := math.Sqrt(2 * area)
	short := math.Sqrt(area / 2)
	return []ShapeSpec{
		{Label: LabelSquare, Length: side, Width: side},
		{Label: LabelWide, Length: long, Width: long / 2},
		{Label: LabelTall, Length: short, Width: short * 2},
	}
}
