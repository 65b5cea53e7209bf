package solver

import (
	"context"
	"fmt"
	"sort"

	"github.com/smartcity/sensorplan/internal/domain"
)

// Greedy picks, until every row is covered, the variable covering the most
// open rows per unit cost. It is an approximation and must be requested
// explicitly; the pipeline never swaps it in on its own.
type Greedy struct{}

// NewGreedy creates the greedy backend
func NewGreedy() *Greedy { return &Greedy{} }

// Name returns the backend name
func (g *Greedy) Name() string { return BackendGreedy }

// Solve returns a valid but not necessarily minimal cover
func (g *Greedy) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}
	selected, err := greedyCover(ctx, m)
	if err != nil {
		return Solution{}, err
	}
	selected = dropRedundant(m, selected)
	return Solution{
		Selected:  selected,
		Objective: m.Objective(selected),
		Optimal:   len(m.Rows) == 0,
	}, nil
}

// greedyCover assumes a validated model. Ties go to the lowest index and the
// selection is returned in pick order.
func greedyCover(ctx context.Context, m *Model) ([]int, error) {
	colRows := make([][]int, len(m.Cost))
	for r, row := range m.Rows {
		for _, v := range row {
			colRows[v] = append(colRows[v], r)
		}
	}

	covered := make([]bool, len(m.Rows))
	open := len(m.Rows)
	selected := make([]int, 0)
	for open > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSolverTimeout, err)
		}

		bestVar, bestGain, bestScore := -1, 0, 0.0
		for v, rows := range colRows {
			gain := 0
			for _, r := range rows {
				if !covered[r] {
					gain++
				}
			}
			if gain == 0 {
				continue
			}
			// zero-cost columns are always worth taking first
			score := float64(gain) * 1e12
			if c := m.Cost[v]; c > 0 {
				score = float64(gain) / c
			}
			if bestVar < 0 || score > bestScore || (score == bestScore && gain > bestGain) {
				bestVar, bestGain, bestScore = v, gain, score
			}
		}
		if bestVar < 0 {
			return nil, fmt.Errorf("%w: %d rows cannot be covered", domain.ErrSolverError, open)
		}

		selected = append(selected, bestVar)
		for _, r := range colRows[bestVar] {
			if !covered[r] {
				covered[r] = true
				open--
			}
		}
	}
	return selected, nil
}

// dropRedundant removes selected variables whose rows all stay covered
// without them. The most expensive go first and, among equal costs, the
// latest picked. The result is ascending.
func dropRedundant(m *Model, selection []int) []int {
	count := make([]int, len(m.Rows))
	colRows := make(map[int][]int, len(selection))
	for r, row := range m.Rows {
		for _, v := range row {
			colRows[v] = append(colRows[v], r)
		}
	}
	for _, v := range selection {
		for _, r := range colRows[v] {
			count[r]++
		}
	}

	order := make([]int, len(selection))
	for i := range order {
		order[i] = len(selection) - 1 - i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.Cost[selection[order[a]]] > m.Cost[selection[order[b]]]
	})

	kept := make([]bool, len(selection))
	for i := range kept {
		kept[i] = true
	}
	for _, k := range order {
		v := selection[k]
		redundant := true
		for _, r := range colRows[v] {
			if count[r] < 2 {
				redundant = false
				break
			}
		}
		if !redundant {
			continue
		}
		kept[k] = false
		for _, r := range colRows[v] {
			count[r]--
		}
	}

	out := make([]int, 0, len(selection))
	for k, v := range selection {
		if kept[k] {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
