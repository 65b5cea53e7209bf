package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/placement"
	"github.com/smartcity/sensorplan/internal/repository/memory"
	"github.com/smartcity/sensorplan/internal/solver"
)

func newTestService(repo SimulationRepository) *SimulationService {
	planner := placement.NewPlanner(solver.NewBranchAndBound())
	return NewSimulationService(planner, placement.DefaultConfig(), repo, nil)
}

type failingRepo struct{ *memory.Repository }

func (failingRepo) SaveSimulation(context.Context, domain.Simulation) error {
	return errors.New("disk full")
}

func TestShapesForArea(t *testing.T) {
	shapes := ShapesForArea(200)
	require.Len(t, shapes, 3)

	assert.Equal(t, []string{LabelSquare, LabelWide, LabelTall},
		[]string{shapes[0].Label, shapes[1].Label, shapes[2].Label})
	for _, s := range shapes {
		assert.InDelta(t, 200, s.Length*s.Width, 1e-9, s.Label)
	}
	assert.InDelta(t, shapes[0].Length, shapes[0].Width, 1e-12)
	assert.InDelta(t, 20, shapes[1].Length, 1e-9)
	assert.InDelta(t, 10, shapes[1].Width, 1e-9)
	assert.InDelta(t, 10, shapes[2].Length, 1e-9)
	assert.InDelta(t, 20, shapes[2].Width, 1e-9)
}

func TestRunStoresSimulation(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(repo)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	svc.now = func() time.Time { return fixed }

	sim, err := svc.Run(context.Background(), domain.SimulationRequest{RegionName: "Old Town", Area: 49})
	require.NoError(t, err)

	assert.NotEmpty(t, sim.ID)
	assert.Equal(t, "Old Town", sim.RegionName)
	assert.Equal(t, time.UTC, sim.CreatedAt.Location())
	assert.True(t, sim.CreatedAt.Equal(fixed))
	require.Len(t, sim.Results, 3)

	square := sim.Results[0]
	assert.Equal(t, LabelSquare, square.Label)
	assert.Equal(t, 1, square.SensorCount)
	assert.Len(t, square.Sensors, 1)
	assert.Equal(t, 9, square.Candidates)
	assert.Zero(t, square.UncoveredPercent)
	assert.Equal(t, domain.Coordinate{X: 3.5, Y: 3.5}, square.MainUnit)

	for _, r := range sim.Results {
		assert.Equal(t, len(r.Sensors), r.SensorCount, r.Label)
		assert.GreaterOrEqual(t, r.UncoveredPercent, 0.0)
		assert.LessOrEqual(t, r.UncoveredPercent, 100.0)
	}

	stored, err := svc.Get(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.Equal(t, sim.ID, stored.ID)

	history, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)

	require.NoError(t, svc.Delete(context.Background(), sim.ID))
	_, err = svc.Get(context.Background(), sim.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunRejectsBadArea(t *testing.T) {
	svc := newTestService(memory.NewRepository())
	for _, area := range []float64{0, -10} {
		_, err := svc.Run(context.Background(), domain.SimulationRequest{Area: area})
		assert.ErrorIs(t, err, domain.ErrInvalidDimension, "area %v", area)
	}
}

func TestRunReportsSaveFailure(t *testing.T) {
	svc := newTestService(failingRepo{memory.NewRepository()})
	_, err := svc.Run(context.Background(), domain.SimulationRequest{Area: 49})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunIsReadableImmediately(t *testing.T) {
	svc := newTestService(memory.NewRepository())
	sim, err := svc.Run(context.Background(), domain.SimulationRequest{Area: 49})
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), sim.ID)
	require.NoError(t, err)
	assert.Equal(t, sim.Results, stored.Results)
}

// squareCrashSolver fails the 8x8 square of a 400 m² run and blocks every
// other shape until its context ends.
type squareCrashSolver struct{}

func (squareCrashSolver) Name() string { return "crash" }

func (squareCrashSolver) Solve(ctx context.Context, m *solver.Model) (solver.Solution, error) {
	if m.NumVars() == 64 {
		return solver.Solution{}, errors.New("backend crashed")
	}
	<-ctx.Done()
	return solver.Solution{}, fmt.Errorf("%w: %w", domain.ErrSolverTimeout, ctx.Err())
}

func TestRunCancelsSiblingsOnFirstFailure(t *testing.T) {
	cfg := placement.DefaultConfig()
	cfg.SolveTimeout = time.Minute
	svc := NewSimulationService(placement.NewPlanner(squareCrashSolver{}), cfg, memory.NewRepository(), nil)

	start := time.Now()
	_, err := svc.Run(context.Background(), domain.SimulationRequest{Area: 400})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSolverError)
	assert.Contains(t, err.Error(), LabelSquare)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunPropagatesTimeout(t *testing.T) {
	planner := placement.NewPlanner(solver.NewBranchAndBound())
	cfg := placement.DefaultConfig()
	cfg.SolveTimeout = time.Nanosecond
	svc := NewSimulationService(planner, cfg, memory.NewRepository(), nil)

	_, err := svc.Run(context.Background(), domain.SimulationRequest{Area: 10000})
	assert.ErrorIs(t, err, domain.ErrSolverTimeout)
}

func TestEvaluateRoundsForDisplay(t *testing.T) {
	svc := newTestService(memory.NewRepository())
	res, err := svc.Evaluate(context.Background(), "Custom", 14.14, 7.07)
	require.NoError(t, err)

	for _, c := range res.Sensors {
		assert.InDelta(t, c.X, float64(int(c.X*100+0.5))/100, 1e-9)
		assert.InDelta(t, c.Y, float64(int(c.Y*100+0.5))/100, 1e-9)
	}
	assert.Equal(t, domain.Coordinate{X: 7.07, Y: 3.535}, res.MainUnit)
	assert.Equal(t, 18, res.Candidates)
}

func TestPlaceUsesCustomLabel(t *testing.T) {
	svc := newTestService(memory.NewRepository())
	res, err := svc.Place(context.Background(), domain.PlacementRequest{Length: 7, Width: 7})
	require.NoError(t, err)
	assert.Equal(t, "Custom", res.Label)
	assert.Equal(t, 1, res.SensorCount)

	_, err = svc.Place(context.Background(), domain.PlacementRequest{Length: 7, Width: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidDimension)
}

func TestHistoryClampsLimit(t *testing.T) {
	repo := memory.NewRepository()
	svc := newTestService(repo)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		require.NoError(t, repo.SaveSimulation(context.Background(), domain.Simulation{
			ID:        fmt.Sprintf("sim-%02d", i),
			Area:      49,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := svc.History(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, all, DefaultHistoryLimit)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	few, err := svc.History(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, few, 3)
}
