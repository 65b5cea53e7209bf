package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/smartcity/sensorplan/internal/domain"
)

const (
	integralityTol = 1e-6
	boundEps       = 1e-9

	// DefaultLPRowLimit caps the rows handed to the dense simplex at one node.
	// Larger nodes are bounded by the Lagrangian dual instead.
	DefaultLPRowLimit = 120

	// DefaultRelativeGap accepts an incumbent within this fraction of the root
	// lower bound once the exact work budget is spent.
	DefaultRelativeGap = 0.10

	// DefaultExactWork is the number of row visits the search may spend on
	// proving optimality before the gap tolerance applies.
	DefaultExactWork = 250_000

	// DefaultLocalSearchSteps bounds the row-weighting search run on
	// uniform-cost models before branching.
	DefaultLocalSearchSteps = 200_000

	localSearchSeed = 1
)

// errGapClosed unwinds the search once the incumbent is within tolerance
var errGapClosed = errors.New("solver: gap closed")

// BranchAndBound is a covering solver with a MIP-gap stopping rule. The root
// is shrunk with forced selections and dominance rules and bounded with the
// Lagrangian dual (or the LP relaxation via gonum simplex when small enough).
// On uniform costs a row-weighting local search then tightens the greedy
// incumbent. The depth-first search branches on the shortest row and prunes
// exactly until ExactWork row visits are spent; from then on it stops as soon
// as the incumbent is within RelativeGap of the root bound.
//
// Solution.Optimal is true only when no node was cut by the tolerance. The
// search is deterministic: children are tried by descending LP value (or
// ascending reduced cost), then ascending cost, then ascending index.
type BranchAndBound struct {
	LPRowLimit       int     // 0 means DefaultLPRowLimit
	RelativeGap      float64 // 0 keeps the search exact
	ExactWork        int     // 0 means DefaultExactWork
	LocalSearchSteps int     // 0 means DefaultLocalSearchSteps, negative disables it
}

// NewBranchAndBound creates the solver with default limits
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{
		LPRowLimit:       DefaultLPRowLimit,
		RelativeGap:      DefaultRelativeGap,
		ExactWork:        DefaultExactWork,
		LocalSearchSteps: DefaultLocalSearchSteps,
	}
}

// Name returns the backend name
func (s *BranchAndBound) Name() string { return BackendBranchAndBound }

// Solve runs the search until the stopping rule is met or ctx expires. On
// expiry it returns ErrSolverTimeout without a selection; an incumbent that
// misses the gap is never handed out as an answer.
func (s *BranchAndBound) Solve(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{}, err
	}

	type outcome struct {
		sol Solution
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: branch and bound panicked: %v", domain.ErrSolverError, r)}
			}
		}()
		sol, err := s.search(ctx, m)
		done <- outcome{sol: sol, err: err}
	}()

	select {
	case res := <-done:
		return res.sol, res.err
	case <-ctx.Done():
		return Solution{}, fmt.Errorf("%w: %w", domain.ErrSolverTimeout, ctx.Err())
	}
}

func (s *BranchAndBound) search(ctx context.Context, m *Model) (Solution, error) {
	seed, err := greedyCover(ctx, m)
	if err != nil {
		return Solution{}, err
	}
	seed = dropRedundant(m, seed)

	st := &searchState{
		ctx:        ctx,
		cost:       m.Cost,
		integral:   m.integralCosts(),
		lpRowLimit: orDefault(s.LPRowLimit, DefaultLPRowLimit),
		relGap:     math.Max(0, s.RelativeGap),
		workLimit:  orDefault(s.ExactWork, DefaultExactWork),
		best:       seed,
		bestCost:   m.Objective(seed),
		rootLower:  math.Inf(-1),
	}

	rows := make([][]int, len(m.Rows))
	copy(rows, m.Rows)
	root, ok := reduce(subproblem{rows: rows}, m.Cost)
	if !ok {
		return Solution{}, fmt.Errorf("%w: reduction left a row without candidates", domain.ErrSolverError)
	}
	st.nodes++
	st.work += len(root.rows)
	if len(root.rows) == 0 {
		st.offer(root.selected, root.cost)
		return st.solution(), nil
	}

	b, err := st.bound(root, DefaultRootIterations)
	if err != nil {
		return Solution{}, err
	}
	st.rootLower = b.lower

	if unit, ok := m.uniformCost(); ok && s.LocalSearchSteps >= 0 && !st.proven() {
		target := int(math.Ceil(st.rootLower/unit - integralityTol))
		steps := orDefault(s.LocalSearchSteps, DefaultLocalSearchSteps)
		improved, err := rowWeighting(ctx, m, st.best, target, steps, localSearchSeed)
		if err != nil {
			return Solution{}, err
		}
		st.offer(improved, m.Objective(improved))
	}

	if err := st.explore(root, b); err != nil && !errors.Is(err, errGapClosed) {
		return Solution{}, err
	}
	return st.solution(), nil
}

type searchState struct {
	ctx        context.Context
	cost       []float64
	integral   bool
	lpRowLimit int
	relGap     float64
	workLimit  int

	best      []int
	bestCost  float64
	rootLower float64
	nodes     int
	work      int
	relaxed   bool // exact budget spent, tolerance in force
	gapCut    bool // some part of the tree was skipped by the tolerance
}

// nodeBound is the lower bound of a reduced node plus the guidance used to
// order its children.
type nodeBound struct {
	lower   float64
	lp      *relaxation
	reduced map[int]float64
}

func (st *searchState) visit(sp subproblem) error {
	if err := st.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSolverTimeout, err)
	}
	st.nodes++
	st.work += len(sp.rows)
	if !st.relaxed && st.work > st.workLimit {
		st.relaxed = true
	}
	if st.relaxed && st.withinGap(st.rootLower) {
		if !st.proven() {
			st.gapCut = true
		}
		return errGapClosed
	}

	sp, ok := reduce(sp, st.cost)
	if !ok {
		return nil
	}
	if len(sp.rows) == 0 {
		st.offer(sp.selected, sp.cost)
		return nil
	}

	b, err := st.bound(sp, nodeIterations)
	if err != nil {
		return err
	}
	return st.explore(sp, b)
}

func (st *searchState) explore(sp subproblem, b nodeBound) error {
	if b.lower >= st.bestCost-boundEps {
		return nil
	}
	if st.relaxed && st.withinGap(b.lower) {
		st.gapCut = true
		return nil
	}

	if b.lp != nil && b.lp.integral(integralityTol) {
		sel := append(append([]int(nil), sp.selected...), b.lp.selection()...)
		st.offer(sel, sp.cost+sumCost(b.lp.selection(), st.cost))
		return nil
	}

	branch := shortestRow(sp.rows)
	candidates := orderCandidates(branch, b, st.cost)
	excluded := make(map[int]bool, len(candidates))
	for _, v := range candidates {
		child := subproblem{
			rows:     excludeColumns(dropCoveredRows(sp.rows, v), excluded),
			selected: append(append([]int(nil), sp.selected...), v),
			cost:     sp.cost + st.cost[v],
		}
		if err := st.visit(child); err != nil {
			return err
		}
		excluded[v] = true
	}
	return nil
}

// bound computes the lower bound of a reduced, non-empty node. The root
// bound is global, so no node is ever bounded below it.
func (st *searchState) bound(sp subproblem, iterations int) (nodeBound, error) {
	b := nodeBound{lower: disjointRowsBound(sp.rows, st.cost)}
	if len(sp.rows) <= st.lpRowLimit {
		// A failed simplex only costs bound quality; the search stays exact.
		if r, err := relax(sp.rows, st.cost); err == nil {
			b.lp = &r
			b.lower = math.Max(b.lower, r.value)
		}
	} else {
		upper := st.bestCost - sp.cost
		target := upper - boundEps
		if st.integral {
			target = upper - 1 + 2*integralityTol
		}
		lg, err := dualBound(st.ctx, sp.rows, st.cost, upper, target, iterations)
		if err != nil {
			return nodeBound{}, err
		}
		b.reduced = lg.reduced
		b.lower = math.Max(b.lower, lg.bound)
	}

	b.lower += sp.cost
	if st.integral {
		b.lower = math.Ceil(b.lower - integralityTol)
	}
	b.lower = math.Max(b.lower, st.rootLower)
	return b, nil
}

// withinGap reports whether no cover cheaper than lower can improve the
// incumbent by more than the relative tolerance.
func (st *searchState) withinGap(lower float64) bool {
	return st.bestCost-lower <= st.relGap*st.bestCost+boundEps
}

// proven reports whether the incumbent meets the root bound
func (st *searchState) proven() bool {
	return st.bestCost <= st.rootLower+boundEps
}

func (st *searchState) solution() Solution {
	selected := append([]int(nil), st.best...)
	sort.Ints(selected)
	return Solution{
		Selected:  selected,
		Objective: st.bestCost,
		Optimal:   !st.gapCut || st.proven(),
		Nodes:     st.nodes,
	}
}

func (st *searchState) offer(selection []int, cost float64) {
	if cost < st.bestCost-boundEps {
		st.best = append([]int(nil), selection...)
		st.bestCost = cost
	}
}

func shortestRow(rows [][]int) []int {
	best := rows[0]
	for _, row := range rows[1:] {
		if len(row) < len(best) {
			best = row
		}
	}
	return best
}

// orderCandidates sorts a branching row so the most promising child comes first
func orderCandidates(row []int, b nodeBound, cost []float64) []int {
	out := append([]int(nil), row...)
	sort.SliceStable(out, func(i, k int) bool {
		va, vb := out[i], out[k]
		switch {
		case b.lp != nil:
			if xa, xb := b.lp.values[va], b.lp.values[vb]; math.Abs(xa-xb) > integralityTol {
				return xa > xb
			}
		case b.reduced != nil:
			if ra, rb := b.reduced[va], b.reduced[vb]; math.Abs(ra-rb) > integralityTol {
				return ra < rb
			}
		}
		if cost[va] != cost[vb] {
			return cost[va] < cost[vb]
		}
		return va < vb
	})
	return out
}

func sumCost(selection []int, cost []float64) float64 {
	total := 0.0
	for _, v := range selection {
		total += cost[v]
	}
	return total
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
