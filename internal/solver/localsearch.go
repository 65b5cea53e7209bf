package solver

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/smartcity/sensorplan/internal/domain"
)

// rowWeighting shrinks a cover of a uniform-cost model. Whenever the current
// selection covers every row it is recorded and its least useful variable is
// dropped; otherwise one variable is swapped out, a variable covering a random
// open row is swapped in, and every open row gains weight so that rows which
// stay open keep pulling the search towards them.
//
// The run is deterministic for a given seed. It returns the smallest cover
// seen and stops early once that cover reaches target variables.
func rowWeighting(ctx context.Context, m *Model, start []int, target, steps int, seed int64) ([]int, error) {
	best := append([]int(nil), start...)
	sort.Ints(best)
	if len(m.Rows) == 0 || len(best) <= target {
		return best, nil
	}

	ls := newWeightedCover(m, start)
	rng := rand.New(rand.NewSource(seed))
	for step := 1; step <= steps; step++ {
		if step&255 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrSolverTimeout, err)
			}
		}

		for len(ls.open) == 0 {
			if len(ls.sol) < len(best) {
				best = ls.selection()
				if len(best) <= target {
					return best, nil
				}
			}
			ls.remove(ls.leastUseful(), step)
		}

		if len(ls.sol) > 0 {
			ls.remove(ls.leastUseful(), step)
		}
		row := ls.open[rng.Intn(len(ls.open))]
		ls.add(ls.mostUseful(row), step)
		ls.bumpOpenRows()
	}
	if len(ls.open) == 0 && len(ls.sol) < len(best) {
		best = ls.selection()
	}
	return best, nil
}

// weightedCover is the incremental state of rowWeighting. For a selected
// variable score is minus the weight it alone covers; for an unselected one it
// is the weight of open rows it would cover.
type weightedCover struct {
	rows    [][]int
	colRows [][]int

	weight []int
	count  []int // selected variables covering each row
	score  []int
	stamp  []int // step of the last change per variable
	canAdd []bool

	sol    []int
	solPos []int // -1 when unselected
	open   []int
	openAt []int // -1 when covered
}

func newWeightedCover(m *Model, start []int) *weightedCover {
	n, rowsN := m.NumVars(), len(m.Rows)
	ls := &weightedCover{
		rows:    m.Rows,
		colRows: make([][]int, n),
		weight:  make([]int, rowsN),
		count:   make([]int, rowsN),
		score:   make([]int, n),
		stamp:   make([]int, n),
		canAdd:  make([]bool, n),
		solPos:  make([]int, n),
		openAt:  make([]int, rowsN),
	}
	for r, row := range m.Rows {
		ls.weight[r] = 1
		ls.openAt[r] = -1
		for _, v := range row {
			ls.colRows[v] = append(ls.colRows[v], r)
		}
	}
	for v := range ls.solPos {
		ls.solPos[v] = -1
		ls.canAdd[v] = true
	}
	for _, v := range start {
		if ls.solPos[v] >= 0 {
			continue
		}
		ls.solPos[v] = len(ls.sol)
		ls.sol = append(ls.sol, v)
		for _, r := range ls.colRows[v] {
			ls.count[r]++
		}
	}
	for r, c := range ls.count {
		if c == 0 {
			ls.openAt[r] = len(ls.open)
			ls.open = append(ls.open, r)
		}
	}
	for v := range ls.score {
		for _, r := range ls.colRows[v] {
			switch {
			case ls.solPos[v] >= 0 && ls.count[r] == 1:
				ls.score[v] -= ls.weight[r]
			case ls.solPos[v] < 0 && ls.count[r] == 0:
				ls.score[v] += ls.weight[r]
			}
		}
	}
	return ls
}

func (ls *weightedCover) add(v, step int) {
	ls.solPos[v] = len(ls.sol)
	ls.sol = append(ls.sol, v)
	ls.score[v] = -ls.score[v]
	ls.stamp[v] = step

	for _, r := range ls.colRows[v] {
		ls.count[r]++
		switch ls.count[r] {
		case 1:
			ls.closeRow(r)
			for _, u := range ls.rows[r] {
				if u != v {
					ls.score[u] -= ls.weight[r]
				}
			}
		case 2:
			for _, u := range ls.rows[r] {
				if u != v && ls.solPos[u] >= 0 {
					ls.score[u] += ls.weight[r]
					break
				}
			}
		}
	}
}

func (ls *weightedCover) remove(v, step int) {
	last := ls.sol[len(ls.sol)-1]
	ls.sol[ls.solPos[v]] = last
	ls.solPos[last] = ls.solPos[v]
	ls.sol = ls.sol[:len(ls.sol)-1]
	ls.solPos[v] = -1
	ls.score[v] = -ls.score[v]
	ls.stamp[v] = step

	for _, r := range ls.colRows[v] {
		ls.count[r]--
		switch ls.count[r] {
		case 0:
			ls.openRow(r)
			for _, u := range ls.rows[r] {
				if u != v {
					ls.score[u] += ls.weight[r]
				}
			}
		case 1:
			for _, u := range ls.rows[r] {
				if ls.solPos[u] >= 0 {
					ls.score[u] -= ls.weight[r]
					break
				}
			}
		}
	}

	for _, r := range ls.colRows[v] {
		for _, u := range ls.rows[r] {
			ls.canAdd[u] = true
		}
	}
	ls.canAdd[v] = false
}

// leastUseful picks the selected variable whose removal loses the least
// weight. Ties go to the variable unchanged for longest, then the lowest index.
func (ls *weightedCover) leastUseful() int {
	best := -1
	for _, v := range ls.sol {
		if best < 0 || ls.better(v, best) {
			best = v
		}
	}
	return best
}

// mostUseful picks the variable of row r that gains the most weight, skipping
// variables whose neighbourhood has not changed since they were removed.
func (ls *weightedCover) mostUseful(r int) int {
	best := -1
	for _, v := range ls.rows[r] {
		if ls.canAdd[v] && (best < 0 || ls.better(v, best)) {
			best = v
		}
	}
	if best >= 0 {
		return best
	}
	for _, v := range ls.rows[r] {
		if best < 0 || ls.better(v, best) {
			best = v
		}
	}
	return best
}

func (ls *weightedCover) better(a, b int) bool {
	if ls.score[a] != ls.score[b] {
		return ls.score[a] > ls.score[b]
	}
	if ls.stamp[a] != ls.stamp[b] {
		return ls.stamp[a] < ls.stamp[b]
	}
	return a < b
}

func (ls *weightedCover) bumpOpenRows() {
	for _, r := range ls.open {
		ls.weight[r]++
		for _, u := range ls.rows[r] {
			ls.score[u]++
		}
	}
}

func (ls *weightedCover) openRow(r int) {
	ls.openAt[r] = len(ls.open)
	ls.open = append(ls.open, r)
}

func (ls *weightedCover) closeRow(r int) {
	at := ls.openAt[r]
	last := ls.open[len(ls.open)-1]
	ls.open[at] = last
	ls.openAt[last] = at
	ls.open = ls.open[:len(ls.open)-1]
	ls.openAt[r] = -1
}

func (ls *weightedCover) selection() []int {
	out := append([]int(nil), ls.sol...)
	sort.Ints(out)
	return out
}
