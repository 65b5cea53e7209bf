package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/sensorplan/internal/domain"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestPlacementPNGWritesImage(t *testing.T) {
	shape := domain.ShapeResult{
		Label:    "Square",
		Length:   20,
		Width:    20,
		Radius:   7.0,
		Sensors:  []domain.Coordinate{{X: 3.75, Y: 3.75}, {X: 13.75, Y: 13.75}},
		MainUnit: domain.Coordinate{X: 10, Y: 10},
	}

	var buf bytes.Buffer
	require.NoError(t, PlacementPNG(&buf, shape))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlacementPNGWithoutSensors(t *testing.T) {
	var buf bytes.Buffer
	err := PlacementPNG(&buf, domain.ShapeResult{Label: "Empty", Length: 10, Width: 5, MainUnit: domain.Coordinate{X: 5, Y: 2.5}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestPlacementPNGRejectsDegenerateArea(t *testing.T) {
	var buf bytes.Buffer
	err := PlacementPNG(&buf, domain.ShapeResult{Length: 0, Width: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidDimension)
}
