package placement

import (
	"fmt"
	"math"
	"time"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/solver"
)

// Defaults used when the caller does not override them
const (
	DefaultFootprintArea = 154.0 // m² covered by one sensor
	DefaultResolution    = 2.5   // candidate grid spacing in meters
	DefaultSampleStep    = 0.5   // gap estimator spacing in meters
	DefaultSolveTimeout  = 60 * time.Second
)

// Config carries every tunable of one pipeline run. It is passed by value so
// concurrent requests with different parameters never share state.
type Config struct {
	FootprintArea float64       `json:"sensor_footprint_area"`
	Resolution    float64       `json:"resolution"`
	SampleStep    float64       `json:"sample_step"`
	Backend       string        `json:"backend"`
	SolveTimeout  time.Duration `json:"solve_timeout"`
}

// DefaultConfig returns the stock parameters
func DefaultConfig() Config {
	return Config{
		FootprintArea: DefaultFootprintArea,
		Resolution:    DefaultResolution,
		SampleStep:    DefaultSampleStep,
		Backend:       solver.BackendBranchAndBound,
		SolveTimeout:  DefaultSolveTimeout,
	}
}

// Radius is the sensing radius whose disk has the footprint area
func (c Config) Radius() float64 {
	return math.Sqrt(c.FootprintArea / math.Pi)
}

// Validate rejects parameters no pipeline run could use
func (c Config) Validate() error {
	if !positive(c.FootprintArea) {
		return fmt.Errorf("%w: sensor footprint area must be positive, got %v", domain.ErrInvalidDimension, c.FootprintArea)
	}
	if !positive(c.Resolution) {
		return fmt.Errorf("%w: resolution must be positive, got %v", domain.ErrInvalidDimension, c.Resolution)
	}
	if !positive(c.SampleStep) {
		return fmt.Errorf("%w: sample step must be positive, got %v", domain.ErrInvalidSampling, c.SampleStep)
	}
	if c.SolveTimeout < 0 {
		return fmt.Errorf("%w: solve timeout must not be negative, got %s", domain.ErrInvalidDimension, c.SolveTimeout)
	}
	return nil
}

// solveTimeout never returns an unbounded budget
func (c Config) solveTimeout() time.Duration {
	if c.SolveTimeout <= 0 {
		return DefaultSolveTimeout
	}
	return c.SolveTimeout
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
