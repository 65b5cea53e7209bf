package solver

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/sensorplan/internal/domain"
)

// randomModel builds a feasible covering model with numVars variables
func randomModel(rng *rand.Rand, numVars, numRows int, cost func(int) float64) *Model {
	m := &Model{Cost: make([]float64, numVars)}
	for j := range m.Cost {
		m.Cost[j] = cost(j)
	}
	for r := 0; r < numRows; r++ {
		size := 1 + rng.Intn(4)
		seen := make(map[int]bool)
		var row []int
		for len(row) < size {
			v := rng.Intn(numVars)
			if !seen[v] {
				seen[v] = true
				row = append(row, v)
			}
		}
		m.AddCover(row)
	}
	return m
}

// bruteForce enumerates every subset and returns the cheapest cover cost
func bruteForce(m *Model) float64 {
	n := m.NumVars()
	best := math.Inf(1)
	for mask := 0; mask < 1<<n; mask++ {
		var sel []int
		cost := 0.0
		for j := 0; j < n; j++ {
			if mask&(1<<j) != 0 {
				sel = append(sel, j)
				cost += m.Cost[j]
			}
		}
		if cost < best && m.Covers(sel) {
			best = cost
		}
	}
	return best
}

func TestBranchAndBoundMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	costs := map[string]func(int) float64{
		"unit":       func(int) float64 { return 1 },
		"integer":    func(j int) float64 { return float64(1 + (j*7)%5) },
		"fractional": func(j int) float64 { return 0.5 + float64((j*3)%4)*0.35 },
	}

	// models this small are exhausted well inside the exact work budget
	bnb := NewBranchAndBound()
	for name, cost := range costs {
		for trial := 0; trial < 15; trial++ {
			m := randomModel(rng, 11, 14, cost)
			want := bruteForce(m)

			sol, err := bnb.Solve(context.Background(), m)
			require.NoError(t, err, "%s trial %d", name, trial)
			assert.True(t, m.Covers(sol.Selected), "%s trial %d", name, trial)
			assert.True(t, sol.Optimal)
			assert.InDelta(t, want, sol.Objective, 1e-9, "%s trial %d", name, trial)
			assert.InDelta(t, m.Objective(sol.Selected), sol.Objective, 1e-9)
		}
	}
}

func TestBranchAndBoundWithoutLP(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	defaults := &BranchAndBound{} // zero limits fall back to defaults, zero gap stays exact
	noLP := &BranchAndBound{LPRowLimit: 1}

	for trial := 0; trial < 10; trial++ {
		m := randomModel(rng, 10, 12, func(int) float64 { return 1 })
		want := bruteForce(m)

		for _, s := range []*BranchAndBound{defaults, noLP} {
			sol, err := s.Solve(context.Background(), m)
			require.NoError(t, err)
			assert.Equal(t, want, sol.Objective)
		}
	}
}

func TestBranchAndBoundIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m := randomModel(rng, 12, 16, func(int) float64 { return 1 })

	first, err := NewBranchAndBound().Solve(context.Background(), m)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := NewBranchAndBound().Solve(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, first.Selected, again.Selected)
	}
}

func TestBranchAndBoundExpiredContext(t *testing.T) {
	m := randomModel(rand.New(rand.NewSource(1)), 8, 8, func(int) float64 { return 1 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := NewBranchAndBound().Solve(ctx, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSolverTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmptyModelSelectsNothing(t *testing.T) {
	m := NewUnitModel(4)
	for _, s := range []Solver{NewBranchAndBound(), NewGreedy()} {
		sol, err := s.Solve(context.Background(), m)
		require.NoError(t, err, s.Name())
		assert.Empty(t, sol.Selected, s.Name())
	}
}

func TestGreedyProducesCover(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := NewGreedy()
	for trial := 0; trial < 20; trial++ {
		m := randomModel(rng, 15, 25, func(j int) float64 { return float64(1 + j%3) })
		sol, err := g.Solve(context.Background(), m)
		require.NoError(t, err)
		assert.True(t, m.Covers(sol.Selected))
		assert.GreaterOrEqual(t, sol.Objective, bruteForceOrZero(m, 15))
	}
}

// bruteForceOrZero skips the exhaustive check for models too large to enumerate
func bruteForceOrZero(m *Model, limit int) float64 {
	if m.NumVars() > limit {
		return 0
	}
	return bruteForce(m)
}

func TestValidateRejectsBrokenModels(t *testing.T) {
	cases := map[string]*Model{
		"empty row":     {Cost: []float64{1}, Rows: [][]int{{}}},
		"out of range":  {Cost: []float64{1}, Rows: [][]int{{3}}},
		"negative cost": {Cost: []float64{-1}, Rows: [][]int{{0}}},
		"unsorted row":  {Cost: []float64{1, 1}, Rows: [][]int{{1, 0}}},
	}
	for name, m := range cases {
		err := m.Validate()
		assert.ErrorIs(t, err, domain.ErrSolverError, name)

		_, err = NewBranchAndBound().Solve(context.Background(), m)
		assert.ErrorIs(t, err, domain.ErrSolverError, name)
	}
}

func TestNewResolvesBackends(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	assert.Equal(t, BackendBranchAndBound, s.Name())

	s, err = New(" Greedy ")
	require.NoError(t, err)
	assert.Equal(t, BackendGreedy, s.Name())

	_, err = New("cplex")
	assert.Error(t, err)
}
