// Package memory keeps simulation history in process memory. It backs demo
// mode when no database is configured and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/smartcity/sensorplan/internal/domain"
)

// Repository implements domain.SimulationRepository
type Repository struct {
	mu   sync.RWMutex
	sims map[string]domain.Simulation
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{sims: make(map[string]domain.Simulation)}
}

// SaveSimulation stores or replaces sim
func (r *Repository) SaveSimulation(ctx context.Context, sim domain.Simulation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sims[sim.ID] = sim
	return nil
}

// ListSimulations returns up to limit simulations, newest first
func (r *Repository) ListSimulations(ctx context.Context, limit int) ([]domain.Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Simulation, 0, len(r.sims))
	for _, sim := range r.sims {
		out = append(out, sim)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetSimulation returns the simulation with the given id
func (r *Repository) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sim, ok := r.sims[id]
	if !ok {
		return domain.Simulation{}, domain.ErrNotFound
	}
	return sim, nil
}

// DeleteSimulation removes the simulation with the given id
func (r *Repository) DeleteSimulation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sims[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.sims, id)
	return nil
}

// Health always returns nil in memory mode
func (r *Repository) Health(ctx context.Context) error {
	return nil
}
