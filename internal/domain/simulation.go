package domain

import (
	"context"
	"time"
)

// Simulation is one orchestrated run over every shape variant of an area
type Simulation struct {
	ID         string        `json:"id"`
	RegionName string        `json:"region_name"`
	Area       float64       `json:"area"`
	CreatedAt  time.Time     `json:"created_at"`
	Results    []ShapeResult `json:"results"`
}

// SimulationRequest is the input accepted by the orchestrator
type SimulationRequest struct {
	RegionName string  `json:"region_name"`
	Area       float64 `json:"area"`
}

// PlacementRequest asks for a single placement over concrete dimensions
type PlacementRequest struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// SimulationRepository defines the interface for simulation history persistence.
// The domain owns the interface; storage packages implement it.
type SimulationRepository interface {
	// SaveSimulation persists a finished simulation
	SaveSimulation(ctx context.Context, sim Simulation) error

	// ListSimulations returns stored simulations, newest first
	ListSimulations(ctx context.Context, limit int) ([]Simulation, error)

	// GetSimulation returns a single simulation or ErrNotFound
	GetSimulation(ctx context.Context, id string) (Simulation, error)

	// DeleteSimulation removes a simulation or returns ErrNotFound
	DeleteSimulation(ctx context.Context, id string) error

	// Health checks storage connectivity
	Health(ctx context.Context) error
}
