package placement

import (
	"fmt"
	"math"

	"github.com/smartcity/sensorplan/internal/domain"
)

// EstimateGap samples [0,length) × [0,width) every step meters and returns the
// percentage of samples farther than radius from every sensor. It only
// reports; it never feeds back into the selection.
func EstimateGap(sensors []domain.Coordinate, radius, length, width, step float64) (float64, error) {
	if !positive(step) {
		return 0, fmt.Errorf("%w: sample step must be positive, got %v", domain.ErrInvalidSampling, step)
	}

	total, uncovered := 0, 0
	for a := 0; float64(a)*step < length; a++ {
		x := float64(a) * step
		for b := 0; float64(b)*step < width; b++ {
			y := float64(b) * step
			total++
			if !withinAny(sensors, x, y, radius) {
				uncovered++
			}
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: no sample points in %vx%v area", domain.ErrInvalidSampling, length, width)
	}
	return 100 * float64(uncovered) / float64(total), nil
}

func withinAny(sensors []domain.Coordinate, x, y, radius float64) bool {
	for _, s := range sensors {
		if math.Hypot(x-s.X, y-s.Y) <= radius {
			return true
		}
	}
	return false
}
