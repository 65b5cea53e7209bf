package solver

import (
	"sort"
)

// subproblem is the part of a model still open at a search node. Rows hold
// candidate variables in ascending order.
type subproblem struct {
	rows     [][]int
	selected []int
	cost     float64
}

// reduce applies forced selections, row dominance and column dominance until
// nothing changes. It returns false when some row can no longer be covered.
func reduce(sp subproblem, cost []float64) (subproblem, bool) {
	for {
		for _, row := range sp.rows {
			if len(row) == 0 {
				return sp, false
			}
		}

		forced := -1
		for _, row := range sp.rows {
			if len(row) == 1 {
				forced = row[0]
				break
			}
		}
		if forced >= 0 {
			sp.selected = append(sp.selected, forced)
			sp.cost += cost[forced]
			sp.rows = dropCoveredRows(sp.rows, forced)
			continue
		}

		var changed bool
		sp.rows, changed = dropDominatedRows(sp.rows)
		var colsChanged bool
		sp.rows, colsChanged = dropDominatedColumns(sp.rows, cost)
		if !changed && !colsChanged {
			return sp, true
		}
	}
}

// dropCoveredRows removes every row containing v
func dropCoveredRows(rows [][]int, v int) [][]int {
	out := make([][]int, 0, len(rows))
	for _, row := range rows {
		if !containsSorted(row, v) {
			out = append(out, row)
		}
	}
	return out
}

// excludeColumns removes the given variables from every row
func excludeColumns(rows [][]int, excluded map[int]bool) [][]int {
	if len(excluded) == 0 {
		return rows
	}
	out := make([][]int, len(rows))
	for i, row := range rows {
		kept := make([]int, 0, len(row))
		for _, v := range row {
			if !excluded[v] {
				kept = append(kept, v)
			}
		}
		out[i] = kept
	}
	return out
}

// dropDominatedRows removes rows that are implied by a smaller row: any
// selection covering a subset row covers its superset too. The result is
// ordered by ascending row length.
func dropDominatedRows(rows [][]int) ([][]int, bool) {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(rows[order[a]]) < len(rows[order[b]])
	})
	rank := make([]int, len(rows))
	for pos, idx := range order {
		rank[idx] = pos
	}

	// a subset of row must start with one of row's variables
	byFirst := make(map[int][]int)
	for i, row := range rows {
		if len(row) > 0 {
			byFirst[row[0]] = append(byFirst[row[0]], i)
		}
	}

	kept := make([][]int, 0, len(rows))
	for _, idx := range order {
		row := rows[idx]
		dominated := false
	scan:
		for _, v := range row {
			for _, k := range byFirst[v] {
				if rank[k] < rank[idx] && isSubset(rows[k], row) {
					dominated = true
					break scan
				}
			}
		}
		if !dominated {
			kept = append(kept, row)
		}
	}
	return kept, len(kept) != len(rows)
}

// dropDominatedColumns removes variables whose rows are a subset of another
// variable's rows at no lower cost. Equal columns keep the lower index.
func dropDominatedColumns(rows [][]int, cost []float64) ([][]int, bool) {
	colRows := make(map[int][]int)
	for r, row := range rows {
		for _, v := range row {
			colRows[v] = append(colRows[v], r)
		}
	}

	cols := make([]int, 0, len(colRows))
	for v := range colRows {
		cols = append(cols, v)
	}
	sort.Slice(cols, func(a, b int) bool {
		ca, cb := cols[a], cols[b]
		if la, lb := len(colRows[ca]), len(colRows[cb]); la != lb {
			return la > lb
		}
		if cost[ca] != cost[cb] {
			return cost[ca] < cost[cb]
		}
		return ca < cb
	})
	rank := make(map[int]int, len(cols))
	for pos, v := range cols {
		rank[v] = pos
	}

	// a dominating column shares every row of j, in particular its first one
	excluded := make(map[int]bool)
	for _, j := range cols {
		mine := colRows[j]
		for _, k := range rows[mine[0]] {
			if k != j && rank[k] < rank[j] && cost[k] <= cost[j] && isSubset(mine, colRows[k]) {
				excluded[j] = true
				break
			}
		}
	}
	if len(excluded) == 0 {
		return rows, false
	}
	return excludeColumns(rows, excluded), true
}

// disjointRowsBound sums the cheapest candidate of a set of rows that share no
// candidates. Each such row needs its own variable, so the sum is a valid
// lower bound.
func disjointRowsBound(rows [][]int, cost []float64) float64 {
	used := make(map[int]bool)
	bound := 0.0
	for _, row := range rows {
		free := true
		for _, v := range row {
			if used[v] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		cheapest := cost[row[0]]
		for _, v := range row {
			used[v] = true
			if cost[v] < cheapest {
				cheapest = cost[v]
			}
		}
		bound += cheapest
	}
	return bound
}

// isSubset reports whether sorted a is contained in sorted b
func isSubset(a, b []int) bool {
	if len(a) > len(b) {
		return false
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case a[i] > b[j]:
			j++
		default:
			return false
		}
	}
	return i == len(a)
}

func containsSorted(row []int, v int) bool {
	k := sort.SearchInts(row, v)
	return k < len(row) && row[k] == v
}
