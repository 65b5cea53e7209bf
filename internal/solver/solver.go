// Package solver holds the covering-program model and the interchangeable
// back-ends that solve it.
package solver

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by New
const (
	BackendBranchAndBound = "bnb"
	BackendGreedy         = "greedy"
)

// Solution is the selection returned by a back-end
type Solution struct {
	Selected  []int   // ascending indices of variables set to 1
	Objective float64 // total cost of Selected
	Optimal   bool    // true when the back-end proved optimality
	Nodes     int     // search nodes explored, 0 for non-enumerating back-ends
}

// Solver solves a covering model. Implementations must not keep state between
// calls so one instance can serve concurrent solves.
//
// Errors wrap domain.ErrSolverTimeout when ctx expires before a solution is
// proven and domain.ErrSolverError for any other failure.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// New returns the back-end registered under name
func New(name string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendBranchAndBound:
		return NewBranchAndBound(), nil
	case BackendGreedy:
		return NewGreedy(), nil
	default:
		return nil, fmt.Errorf("solver: unknown backend %q", name)
	}
}
