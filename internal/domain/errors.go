package domain

import "errors"

var (
	// ErrInvalidDimension reports a non-positive length, width or resolution.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrInvalidSampling reports a non-positive sampling step or an empty sample grid.
	ErrInvalidSampling = errors.New("invalid sampling")

	// ErrSolverTimeout reports that a solve exceeded its time budget.
	// Callers may retry with a coarser resolution or a longer budget.
	ErrSolverTimeout = errors.New("solver timeout")

	// ErrSolverError reports an unexpected failure inside a solver backend.
	ErrSolverError = errors.New("solver error")

	// ErrNotFound is returned by repositories for unknown simulation IDs.
	ErrNotFound = errors.New("not found")
)
