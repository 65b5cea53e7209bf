package solver

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/smartcity/sensorplan/internal/domain"
)

const (
	// DefaultRootIterations bounds the subgradient steps spent on the root node
	DefaultRootIterations = 1000

	nodeIterations   = 60
	subgradientStall = 20
	minStepScale     = 1e-3
)

// lagrangian is the best dual found for a covering subproblem. Relaxing every
// row with a multiplier u ≥ 0 leaves Σu + Σ min(0, c_j - Σ_{i∋j} u_i), which
// is a lower bound on any cover for every choice of u.
type lagrangian struct {
	bound   float64
	reduced map[int]float64 // variable -> reduced cost at the best multipliers
}

// dualBound runs subgradient ascent on the row multipliers. upper is the cost
// of the best known cover of rows and steers the step length; the ascent stops
// once the bound reaches target, the step scale collapses or maxIter is spent.
func dualBound(ctx context.Context, rows [][]int, cost []float64, upper, target float64, maxIter int) (lagrangian, error) {
	cols, local, colRows := compactColumns(rows)
	m, n := len(rows), len(cols)

	u := make([]float64, m)
	for i, row := range local {
		u[i] = math.Inf(1)
		for _, k := range row {
			if q := cost[cols[k]] / float64(len(colRows[k])); q < u[i] {
				u[i] = q
			}
		}
	}

	rc := make([]float64, n)
	bestRC := make([]float64, n)
	sub := make([]float64, m)
	best := math.Inf(-1)
	scale, stall := 2.0, 0

	for it := 0; it < maxIter; it++ {
		if err := ctx.Err(); err != nil {
			return lagrangian{}, fmt.Errorf("%w: %w", domain.ErrSolverTimeout, err)
		}

		value := 0.0
		for _, ui := range u {
			value += ui
		}
		for k := range cols {
			rc[k] = cost[cols[k]]
			for _, i := range colRows[k] {
				rc[k] -= u[i]
			}
			if rc[k] < 0 {
				value += rc[k]
			}
		}

		if value > best+boundEps {
			best = value
			copy(bestRC, rc)
			stall = 0
		} else if stall++; stall >= subgradientStall {
			scale /= 2
			stall = 0
		}
		if best >= target || scale < minStepScale || upper <= value {
			break
		}

		norm := 0.0
		for i, row := range local {
			s := 1.0
			for _, k := range row {
				if rc[k] < 0 {
					s--
				}
			}
			if s < 0 && u[i] == 0 {
				s = 0
			}
			sub[i] = s
			norm += s * s
		}
		if norm == 0 {
			// the relaxed selection covers every row exactly once: the bound is tight
			break
		}

		step := scale * (upper - value) / norm
		for i := range u {
			u[i] = math.Max(0, u[i]+step*sub[i])
		}
	}

	reduced := make(map[int]float64, n)
	for k, v := range cols {
		reduced[v] = bestRC[k]
	}
	return lagrangian{bound: best, reduced: reduced}, nil
}

// compactColumns renumbers the variables appearing in rows as 0..n-1.
// It returns the original ids, the rows in local ids and the rows of every
// local column.
func compactColumns(rows [][]int) (cols []int, local [][]int, colRows [][]int) {
	index := make(map[int]int)
	for _, row := range rows {
		for _, v := range row {
			if _, ok := index[v]; !ok {
				index[v] = 0
				cols = append(cols, v)
			}
		}
	}
	sort.Ints(cols)
	for k, v := range cols {
		index[v] = k
	}

	local = make([][]int, len(rows))
	colRows = make([][]int, len(cols))
	for i, row := range rows {
		local[i] = make([]int, len(row))
		for p, v := range row {
			k := index[v]
			local[i][p] = k
			colRows[k] = append(colRows[k], i)
		}
	}
	return cols, local, colRows
}
