package solver

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const simplexTol = 1e-10

// relaxation is the LP optimum of an open subproblem
type relaxation struct {
	value  float64
	values map[int]float64 // variable -> fractional value
}

// integral reports whether every variable sits within tol of 0 or 1
func (r relaxation) integral(tol float64) bool {
	for _, x := range r.values {
		if x > tol && x < 1-tol {
			return false
		}
	}
	return true
}

// selection returns the variables whose value rounds to 1, ascending
func (r relaxation) selection() []int {
	out := make([]int, 0)
	for v, x := range r.values {
		if x > 0.5 {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// relax solves the LP relaxation of rows in standard form. Each covering row
// gets a surplus column so the system reads [C | -I]·[x; s] = 1 with x, s ≥ 0.
// The upper bound x ≤ 1 is never binding for non-negative costs and is left out.
func relax(rows [][]int, cost []float64) (relaxation, error) {
	index := make(map[int]int)
	var cols []int
	for _, row := range rows {
		for _, v := range row {
			if _, ok := index[v]; !ok {
				index[v] = -1
				cols = append(cols, v)
			}
		}
	}
	sort.Ints(cols)
	for k, v := range cols {
		index[v] = k
	}

	m, n := len(rows), len(cols)
	a := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	c := make([]float64, n+m)
	for k, v := range cols {
		c[k] = cost[v]
	}
	for r, row := range rows {
		for _, v := range row {
			a.Set(r, index[v], 1)
		}
		a.Set(r, n+r, -1)
		b[r] = 1
	}

	opt, x, err := lp.Simplex(c, a, b, simplexTol, nil)
	if err != nil {
		return relaxation{}, fmt.Errorf("simplex on %dx%d: %w", m, n, err)
	}

	values := make(map[int]float64, n)
	for k, v := range cols {
		values[v] = x[k]
	}
	return relaxation{value: opt, values: values}, nil
}
