// Package placement plans minimal sensor placements over a rectangular area:
// it discretizes candidate sites, builds their coverage relation, solves the
// set-cover program and estimates the remaining coverage gap.
package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/observability"
	"github.com/smartcity/sensorplan/internal/solver"
)

// SolveObserver receives one call per solver invocation
type SolveObserver interface {
	ObserveSolve(backend, outcome string, variables int, elapsed time.Duration)
}

// Planner runs grid → coverage → model → solve for one area at a time.
// It holds no per-request state and is safe for concurrent use as long as
// its solver is.
type Planner struct {
	solver   solver.Solver
	log      logging.Logger
	observer SolveObserver
}

// Option customizes a Planner
type Option func(*Planner)

// WithLogger sets the planner logger
func WithLogger(l logging.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.log = l
		}
	}
}

// WithObserver sets the solve metrics sink
func WithObserver(o SolveObserver) Option {
	return func(p *Planner) { p.observer = o }
}

// NewPlanner creates a planner around the given solver backend
func NewPlanner(s solver.Solver, opts ...Option) *Planner {
	p := &Planner{solver: s, log: logging.Noop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan computes a minimum placement for a length × width area, or one within
// the back-end's optimality gap when it reports Optimal false. The solve is
// always bounded: by cfg.SolveTimeout, or DefaultSolveTimeout when it is zero.
// Exceeding the bound yields ErrSolverTimeout.
func (p *Planner) Plan(ctx context.Context, cfg Config, length, width float64) (domain.PlacementResult, error) {
	if err := cfg.Validate(); err != nil {
		return domain.PlacementResult{}, err
	}

	grid, err := NewGrid(length, width, cfg.Resolution)
	if err != nil {
		return domain.PlacementResult{}, err
	}
	radius := cfg.Radius()
	rel, err := BuildCoverage(grid, radius)
	if err != nil {
		return domain.PlacementResult{}, err
	}
	model := BuildModel(rel)

	ctx, cancel := context.WithTimeout(ctx, cfg.solveTimeout())
	defer cancel()

	log := p.log.With(
		logging.String("backend", p.solver.Name()),
		logging.Int("variables", model.NumVars()),
		logging.Int("constraints", model.NumConstraints()),
	)

	start := time.Now()
	sol, err := p.solver.Solve(ctx, model)
	elapsed := time.Since(start)
	if err == nil && !model.Covers(sol.Selected) {
		err = fmt.Errorf("%w: %s returned a selection that leaves sites uncovered", domain.ErrSolverError, p.solver.Name())
	}
	p.observe(outcomeOf(sol, err), model.NumVars(), elapsed)

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSolverTimeout):
		log.Warn(ctx, "placement solve timed out", logging.Duration("elapsed", elapsed))
		return domain.PlacementResult{}, fmt.Errorf("placement: %vx%v area: %w", length, width, err)
	default:
		log.Error(ctx, "placement solve failed", logging.Err(err))
		if !errors.Is(err, domain.ErrSolverError) {
			err = fmt.Errorf("%w: %w", domain.ErrSolverError, err)
		}
		return domain.PlacementResult{}, fmt.Errorf("placement: %vx%v area: %w", length, width, err)
	}

	sensors := make([]domain.Coordinate, 0, len(sol.Selected))
	for _, idx := range sol.Selected {
		sensors = append(sensors, grid.Coords[idx])
	}

	log.Debug(ctx, "placement solved",
		logging.Int("sensors", len(sensors)),
		logging.Int("nodes", sol.Nodes),
		logging.Duration("elapsed", elapsed),
	)

	return domain.PlacementResult{
		Length:     length,
		Width:      width,
		Radius:     radius,
		Resolution: cfg.Resolution,
		Candidates: grid.Len(),
		Sensors:    sensors,
		Backend:    p.solver.Name(),
	}, nil
}

func (p *Planner) observe(outcome string, variables int, elapsed time.Duration) {
	if p.observer != nil {
		p.observer.ObserveSolve(p.solver.Name(), outcome, variables, elapsed)
	}
}

func outcomeOf(sol solver.Solution, err error) string {
	switch {
	case err == nil && sol.Optimal:
		return observability.OutcomeOptimal
	case err == nil:
		return observability.OutcomeFeasible
	case errors.Is(err, domain.ErrSolverTimeout):
		return observability.OutcomeTimeout
	default:
		return observability.OutcomeError
	}
}
