package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/sensorplan/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS simulations (
		id          UUID PRIMARY KEY,
		region_name TEXT NOT NULL DEFAULT '',
		area        DOUBLE PRECISION NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		results     JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS simulations_created_at_idx ON simulations (created_at DESC);
`

// PostgresRepository implements domain.SimulationRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the simulations table when missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// SaveSimulation persists a simulation to PostgreSQL
func (r *PostgresRepository) SaveSimulation(ctx context.Context, sim domain.Simulation) error {
	results, err := json.Marshal(sim.Results)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode results: %w", err)
	}

	query := `
		INSERT INTO simulations (id, region_name, area, created_at, results)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET region_name = EXCLUDED.region_name,
		    area = EXCLUDED.area,
		    created_at = EXCLUDED.created_at,
		    results = EXCLUDED.results
	`

	_, err = r.pool.Exec(ctx, query, sim.ID, sim.RegionName, sim.Area, sim.CreatedAt, results)
	if err != nil {
		return fmt.Errorf("postgres: failed to save simulation: %w", err)
	}

	return nil
}

// ListSimulations retrieves simulation history from PostgreSQL
func (r *PostgresRepository) ListSimulations(ctx context.Context, limit int) ([]domain.Simulation, error) {
	query := `
		SELECT id::text, region_name, area, created_at, results
		FROM simulations
		ORDER BY created_at DESC, id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query simulations: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Simulation, 0)
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate simulations: %w", err)
	}

	return results, nil
}

// GetSimulation retrieves one simulation by id
func (r *PostgresRepository) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	query := `
		SELECT id::text, region_name, area, created_at, results
		FROM simulations
		WHERE id::text = $1
	`

	sim, err := scanSimulation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Simulation{}, domain.ErrNotFound
	}
	return sim, err
}

// DeleteSimulation removes one simulation by id
func (r *PostgresRepository) DeleteSimulation(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM simulations WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete simulation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func scanSimulation(row pgx.Row) (domain.Simulation, error) {
	var (
		sim     domain.Simulation
		results []byte
	)
	if err := row.Scan(&sim.ID, &sim.RegionName, &sim.Area, &sim.CreatedAt, &results); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Simulation{}, err
		}
		return domain.Simulation{}, fmt.Errorf("postgres: failed to scan simulation row: %w", err)
	}
	if err := json.Unmarshal(results, &sim.Results); err != nil {
		return domain.Simulation{}, fmt.Errorf("postgres: failed to decode results: %w", err)
	}
	return sim, nil
}
