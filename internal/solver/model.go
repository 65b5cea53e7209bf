package solver

import (
	"fmt"
	"math"
	"sort"

	"github.com/smartcity/sensorplan/internal/domain"
)

// Model is a weighted covering program kept in array form:
//
//	minimize   Σ Cost[j]·x[j]
//	subject to Σ_{j ∈ Rows[i]} x[j] ≥ 1   for every row i
//	           x[j] ∈ {0, 1}
//
// Variables and rows are addressed by integer index only.
type Model struct {
	Cost []float64
	Rows [][]int
}

// NewUnitModel creates a model with numVars variables of cost 1 and no rows
func NewUnitModel(numVars int) *Model {
	cost := make([]float64, numVars)
	for i := range cost {
		cost[i] = 1
	}
	return &Model{Cost: cost}
}

// AddCover appends the constraint "at least one of vars is selected".
// The slice is copied and sorted.
func (m *Model) AddCover(vars []int) {
	row := append([]int(nil), vars...)
	sort.Ints(row)
	m.Rows = append(m.Rows, row)
}

// NumVars returns the number of decision variables
func (m *Model) NumVars() int { return len(m.Cost) }

// NumConstraints returns the number of covering rows
func (m *Model) NumConstraints() int { return len(m.Rows) }

// Validate checks indices and costs and rejects rows nobody can cover
func (m *Model) Validate() error {
	for j, c := range m.Cost {
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: variable %d has invalid cost %v", domain.ErrSolverError, j, c)
		}
	}
	for i, row := range m.Rows {
		if len(row) == 0 {
			return fmt.Errorf("%w: row %d has no covering variable", domain.ErrSolverError, i)
		}
		for k, v := range row {
			if v < 0 || v >= len(m.Cost) {
				return fmt.Errorf("%w: row %d references variable %d out of %d", domain.ErrSolverError, i, v, len(m.Cost))
			}
			if k > 0 && row[k-1] >= v {
				return fmt.Errorf("%w: row %d is not strictly ascending", domain.ErrSolverError, i)
			}
		}
	}
	return nil
}

// Covers reports whether selection satisfies every row
func (m *Model) Covers(selection []int) bool {
	chosen := make([]bool, len(m.Cost))
	for _, v := range selection {
		if v >= 0 && v < len(chosen) {
			chosen[v] = true
		}
	}
	for _, row := range m.Rows {
		ok := false
		for _, v := range row {
			if chosen[v] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Objective returns the total cost of selection
func (m *Model) Objective(selection []int) float64 {
	total := 0.0
	for _, v := range selection {
		total += m.Cost[v]
	}
	return total
}

// integralCosts reports whether every cost is a whole number, which lets
// the search round relaxation bounds up.
func (m *Model) integralCosts() bool {
	for _, c := range m.Cost {
		if c != math.Trunc(c) {
			return false
		}
	}
	return true
}

// uniformCost returns the shared cost when every variable costs the same
// positive amount.
func (m *Model) uniformCost() (float64, bool) {
	if len(m.Cost) == 0 || m.Cost[0] <= 0 {
		return 0, false
	}
	for _, c := range m.Cost[1:] {
		if c != m.Cost[0] {
			return 0, false
		}
	}
	return m.Cost[0], true
}
