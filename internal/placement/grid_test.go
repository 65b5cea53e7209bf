package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/sensorplan/internal/domain"
)

func TestNewGridDimensions(t *testing.T) {
	tests := []struct {
		name          string
		length, width float64
		nx, ny        int
	}{
		{"exact multiple", 100, 100, 40, 40},
		{"partial cell", 7, 7, 3, 3},
		{"rectangle", 14.14, 7.07, 6, 3},
		{"smaller than a cell", 1, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.length, tt.width, DefaultResolution)
			require.NoError(t, err)
			assert.Equal(t, tt.nx, g.NX)
			assert.Equal(t, tt.ny, g.NY)
			assert.Equal(t, tt.nx*tt.ny, g.Len())
		})
	}
}

func TestNewGridOrderAndCenters(t *testing.T) {
	g, err := NewGrid(7, 5, DefaultResolution)
	require.NoError(t, err)

	for k, p := range g.Positions {
		assert.Equal(t, k, g.Index(p))
		assert.Equal(t, g.Center(p.I, p.J), g.Coords[k])
	}
	assert.Equal(t, domain.GridPosition{I: 0, J: 1}, g.Positions[1])
	assert.Equal(t, domain.Coordinate{X: 1.25, Y: 1.25}, g.Coords[0])
	assert.Equal(t, domain.Coordinate{X: 6.25, Y: 3.75}, g.Coords[g.Len()-1])
}

func TestNewGridRejectsBadDimensions(t *testing.T) {
	for _, dims := range [][3]float64{{0, 5, 2.5}, {5, -1, 2.5}, {5, 5, 0}} {
		_, err := NewGrid(dims[0], dims[1], dims[2])
		assert.ErrorIs(t, err, domain.ErrInvalidDimension, "%v", dims)
	}
}
