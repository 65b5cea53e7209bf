// Package sqlite stores simulation history in a local SQLite file, used when
// no PostgreSQL database is configured.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/smartcity/sensorplan/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Repository implements domain.SimulationRepository
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending migrations
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open %s: %w", path, err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// Close releases the database handle
func (r *Repository) Close() error {
	return r.db.Close()
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: failed to load migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: failed to create migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create migrate instance: %w", err)
	}
	// Closing m would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migration up failed: %w", err)
	}
	return nil
}

// SaveSimulation persists a simulation
func (r *Repository) SaveSimulation(ctx context.Context, sim domain.Simulation) error {
	results, err := json.Marshal(sim.Results)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode results: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO simulations (id, region_name, area, created_at, results)
		VALUES (?, ?, ?, ?, ?)
	`, sim.ID, sim.RegionName, sim.Area, sim.CreatedAt.UnixNano(), string(results))
	if err != nil {
		return fmt.Errorf("sqlite: failed to save simulation: %w", err)
	}
	return nil
}

// ListSimulations returns up to limit simulations, newest first
func (r *Repository) ListSimulations(ctx context.Context, limit int) ([]domain.Simulation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, region_name, area, created_at, results
		FROM simulations
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query simulations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Simulation, 0)
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate simulations: %w", err)
	}
	return out, nil
}

// GetSimulation returns one simulation or domain.ErrNotFound
func (r *Repository) GetSimulation(ctx context.Context, id string) (domain.Simulation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, region_name, area, created_at, results
		FROM simulations
		WHERE id = ?
	`, id)
	sim, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Simulation{}, domain.ErrNotFound
	}
	return sim, err
}

// DeleteSimulation removes one simulation or returns domain.ErrNotFound
func (r *Repository) DeleteSimulation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete simulation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: health check failed: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(row scanner) (domain.Simulation, error) {
	var (
		sim       domain.Simulation
		createdAt int64
		results   string
	)
	if err := row.Scan(&sim.ID, &sim.RegionName, &sim.Area, &createdAt, &results); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Simulation{}, err
		}
		return domain.Simulation{}, fmt.Errorf("sqlite: failed to scan simulation row: %w", err)
	}
	sim.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(results), &sim.Results); err != nil {
		return domain.Simulation{}, fmt.Errorf("sqlite: failed to decode results: %w", err)
	}
	return sim, nil
}
