package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSubset(t *testing.T) {
	assert.True(t, isSubset(nil, []int{1}))
	assert.True(t, isSubset([]int{1, 3}, []int{1, 2, 3}))
	assert.False(t, isSubset([]int{1, 4}, []int{1, 2, 3}))
	assert.False(t, isSubset([]int{1, 2, 3}, []int{1, 2}))
}

func TestDropDominatedRowsKeepsSmallest(t *testing.T) {
	rows := [][]int{{0, 1, 2}, {1}, {1, 2}, {3, 4}}
	kept, changed := dropDominatedRows(rows)
	assert.True(t, changed)
	assert.Equal(t, [][]int{{1}, {3, 4}}, kept)
}

func TestDropDominatedColumnsRespectsCost(t *testing.T) {
	rows := [][]int{{0, 1}, {1, 2}}
	unit := []float64{1, 1, 1}
	kept, changed := dropDominatedColumns(rows, unit)
	assert.True(t, changed)
	assert.Equal(t, [][]int{{1}, {1}}, kept)

	// variable 1 covers more but is too expensive to dominate 0 and 2
	costly := []float64{1, 5, 1}
	kept, changed = dropDominatedColumns(rows, costly)
	assert.False(t, changed)
	assert.Equal(t, rows, kept)
}

func TestReduceForcesSingletons(t *testing.T) {
	cost := []float64{1, 1, 1}
	sp, ok := reduce(subproblem{rows: [][]int{{0}, {0, 1}, {2}}}, cost)
	assert.True(t, ok)
	assert.Empty(t, sp.rows)
	assert.ElementsMatch(t, []int{0, 2}, sp.selected)
	assert.Equal(t, 2.0, sp.cost)

	_, ok = reduce(subproblem{rows: [][]int{{}}}, cost)
	assert.False(t, ok)
}

func TestDisjointRowsBound(t *testing.T) {
	cost := []float64{1, 2, 3, 4}
	// rows {0,1} and {2,3} are disjoint; {1,2} overlaps both
	bound := disjointRowsBound([][]int{{0, 1}, {1, 2}, {2, 3}}, cost)
	assert.Equal(t, 4.0, bound)
}
