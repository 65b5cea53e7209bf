// Package observability exposes Prometheus metrics for placement solves.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Solve outcomes used as the "outcome" label
const (
	OutcomeOptimal  = "optimal"
	OutcomeFeasible = "feasible"
	OutcomeTimeout  = "timeout"
	OutcomeError    = "error"
)

// SolverCollector bundles the solver metrics
type SolverCollector struct {
	Solves    *prometheus.CounterVec
	Durations *prometheus.HistogramVec
	Variables prometheus.Histogram
}

// NewSolverCollector registers solver metrics against reg, defaulting to the
// global registry when nil. Re-registering returns the existing collectors.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	solves, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sensorplan_solves_total",
		Help: "Placement solves, labeled by solver backend and outcome.",
	}, []string{"backend", "outcome"}), "sensorplan_solves_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sensorplan_solve_duration_seconds",
		Help:    "Wall-clock time spent in the solver backend.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"backend"}), "sensorplan_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	variables, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensorplan_model_variables",
		Help:    "Candidate positions per solved model.",
		Buckets: prometheus.ExponentialBuckets(4, 4, 8),
	}), "sensorplan_model_variables")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		Solves:    solves,
		Durations: durations,
		Variables: variables,
	}, nil
}

// ObserveSolve records one solver invocation
func (c *SolverCollector) ObserveSolve(backend, outcome string, variables int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Solves.WithLabelValues(backend, outcome).Inc()
	c.Durations.WithLabelValues(backend).Observe(elapsed.Seconds())
	c.Variables.Observe(float64(variables))
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
