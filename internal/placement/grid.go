package placement

import (
	"fmt"
	"math"

	"github.com/smartcity/sensorplan/internal/domain"
)

// Grid is the discretized set of candidate sensor sites. Positions and Coords
// share one index: position k is (k / NY, k % NY).
type Grid struct {
	NX, NY     int
	Resolution float64
	Positions  []domain.GridPosition
	Coords     []domain.Coordinate
}

// NewGrid discretizes a length × width area into cells of the given resolution.
// Sites sit at cell centers and are enumerated with i outer, j inner.
func NewGrid(length, width, resolution float64) (*Grid, error) {
	if !positive(length) || !positive(width) || !positive(resolution) {
		return nil, fmt.Errorf("%w: length=%v width=%v resolution=%v",
			domain.ErrInvalidDimension, length, width, resolution)
	}

	nx := int(math.Ceil(length / resolution))
	ny := int(math.Ceil(width / resolution))
	g := &Grid{
		NX:         nx,
		NY:         ny,
		Resolution: resolution,
		Positions:  make([]domain.GridPosition, 0, nx*ny),
		Coords:     make([]domain.Coordinate, 0, nx*ny),
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			g.Positions = append(g.Positions, domain.GridPosition{I: i, J: j})
			g.Coords = append(g.Coords, g.Center(i, j))
		}
	}
	return g, nil
}

// Len returns the number of candidate sites
func (g *Grid) Len() int { return len(g.Positions) }

// Index maps a position to its array index
func (g *Grid) Index(p domain.GridPosition) int { return p.I*g.NY + p.J }

// Center returns the cell-center coordinate of (i, j)
func (g *Grid) Center(i, j int) domain.Coordinate {
	return domain.Coordinate{
		X: float64(i)*g.Resolution + g.Resolution/2,
		Y: float64(j)*g.Resolution + g.Resolution/2,
	}
}
