package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/placement"
	"github.com/smartcity/sensorplan/pkg/utils"
)

const (
	// DefaultHistoryLimit caps history listings
	DefaultHistoryLimit = 50

	saveTimeout = 5 * time.Second
)

// SimulationService runs the placement pipeline for every shape of an area
// and keeps the simulation history
type SimulationService struct {
	planner *placement.Planner
	cfg     placement.Config
	repo    SimulationRepository
	log     logging.Logger
	now     func() time.Time
}

// NewSimulationService creates a new simulation service
func NewSimulationService(
	planner *placement.Planner,
	cfg placement.Config,
	repo SimulationRepository,
	log logging.Logger,
) *SimulationService {
	if log == nil {
		log = logging.Noop()
	}
	return &SimulationService{
		planner: planner,
		cfg:     cfg,
		repo:    repo,
		log:     log,
		now:     time.Now,
	}
}

// Config returns the pipeline parameters the service runs with
func (s *SimulationService) Config() placement.Config { return s.cfg }

// Run evaluates the square, 2:1 and 1:2 shapes of req.Area concurrently and
// stores the simulation before returning it. Shapes share no mutable state;
// the first shape to fail cancels its siblings and fails the whole run.
func (s *SimulationService) Run(ctx context.Context, req domain.SimulationRequest) (domain.Simulation, error) {
	if !(req.Area > 0) || math.IsInf(req.Area, 0) {
		return domain.Simulation{}, fmt.Errorf("%w: area must be positive, got %v", domain.ErrInvalidDimension, req.Area)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	shapes := ShapesForArea(req.Area)
	results := make([]domain.ShapeResult, len(shapes))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, shape := range shapes {
		wg.Add(1)
		go func(i int, shape ShapeSpec) {
			defer wg.Done()
			res, err := s.Evaluate(runCtx, shape.Label, shape.Length, shape.Width)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("simulation: shape %q: %w", shape.Label, err)
					cancel()
				}
				mu.Unlock()
				return
			}
			results[i] = res
		}(i, shape)
	}
	wg.Wait()

	if firstErr != nil {
		return domain.Simulation{}, firstErr
	}

	sim := domain.Simulation{
		ID:         uuid.NewString(),
		RegionName: req.RegionName,
		Area:       req.Area,
		CreatedAt:  s.now().UTC(),
		Results:    results,
	}

	// A client that goes away after the solve still gets its run recorded.
	saveCtx, cancelSave := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancelSave()
	if err := s.repo.SaveSimulation(saveCtx, sim); err != nil {
		s.log.Error(ctx, "failed to save simulation", logging.String("id", sim.ID), logging.Err(err))
		return domain.Simulation{}, fmt.Errorf("simulation: failed to save %s: %w", sim.ID, err)
	}

	s.log.Info(ctx, "simulation finished",
		logging.String("id", sim.ID),
		logging.Float("area", req.Area),
	)
	return sim, nil
}

// Evaluate runs the full pipeline for one rectangle and shapes the result for
// display: coordinates and the gap percentage are rounded to 2 decimals after
// the full-precision computation.
func (s *SimulationService) Evaluate(ctx context.Context, label string, length, width float64) (domain.ShapeResult, error) {
	placed, err := s.planner.Plan(ctx, s.cfg, length, width)
	if err != nil {
		return domain.ShapeResult{}, err
	}

	gap, err := placement.EstimateGap(placed.Sensors, placed.Radius, length, width, s.cfg.SampleStep)
	if err != nil {
		return domain.ShapeResult{}, err
	}

	rounded := make([]domain.Coordinate, len(placed.Sensors))
	for i, c := range placed.Sensors {
		rounded[i] = domain.Coordinate{X: utils.RoundTo(c.X, 2), Y: utils.RoundTo(c.Y, 2)}
	}

	return domain.ShapeResult{
		Label:            label,
		Length:           length,
		Width:            width,
		Radius:           placed.Radius,
		Candidates:       placed.Candidates,
		Sensors:          rounded,
		SensorCount:      len(rounded),
		UncoveredPercent: utils.RoundTo(utils.Clamp(gap, 0, 100), 2),
		MainUnit:         domain.Coordinate{X: length / 2, Y: width / 2},
	}, nil
}

// Place evaluates a single caller-supplied rectangle without storing it
func (s *SimulationService) Place(ctx context.Context, req domain.PlacementRequest) (domain.ShapeResult, error) {
	return s.Evaluate(ctx, "Custom", req.Length, req.Width)
}

// History returns stored simulations, newest first
func (s *SimulationService) History(ctx context.Context, limit int) ([]domain.Simulation, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return s.repo.ListSimulations(ctx, limit)
}

// Get returns one stored simulation
func (s *SimulationService) Get(ctx context.Context, id string) (domain.Simulation, error) {
	return s.repo.GetSimulation(ctx, id)
}

// Delete removes one stored simulation
func (s *SimulationService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteSimulation(ctx, id)
}

// Health checks the history store
func (s *SimulationService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}
