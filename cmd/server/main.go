package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcity/sensorplan/internal/delivery/http"
	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/observability"
	"github.com/smartcity/sensorplan/internal/placement"
	"github.com/smartcity/sensorplan/internal/repository/memory"
	"github.com/smartcity/sensorplan/internal/repository/postgres"
	"github.com/smartcity/sensorplan/internal/repository/sqlite"
	"github.com/smartcity/sensorplan/internal/service"
	"github.com/smartcity/sensorplan/internal/solver"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	log := logging.NewFromEnv()
	ctx := context.Background()
	if envErr != nil {
		log.Info(ctx, "no .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig(log)

	if err := cfg.Placement.Validate(); err != nil {
		log.Error(ctx, "invalid placement configuration", logging.Err(err))
		os.Exit(1)
	}

	// Storage
	repo, closeRepo := openRepository(ctx, cfg, log)
	defer closeRepo()

	// Dependency Injection: solver, metrics, services
	backend, err := solver.New(cfg.Placement.Backend)
	if err != nil {
		log.Error(ctx, "invalid solver backend", logging.Err(err))
		os.Exit(1)
	}
	metrics, err := observability.NewSolverCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to register metrics", logging.Err(err))
		os.Exit(1)
	}
	planner := placement.NewPlanner(backend,
		placement.WithLogger(log.With(logging.String("component", "planner"))),
		placement.WithObserver(metrics),
	)
	simSvc := service.NewSimulationService(planner, cfg.Placement, repo, log)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Sensor Placement API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Placement.SolveTimeout + 10*time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, simSvc, promhttp.Handler(), log)

	// Graceful shutdown
	go func() {
		log.Info(ctx, "server starting",
			logging.String("port", cfg.Port),
			logging.String("env", cfg.Env),
			logging.String("backend", backend.Name()),
		)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error(ctx, "server error", logging.Err(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warn(ctx, "server forced to shutdown", logging.Err(err))
	}
	log.Info(ctx, "server exited gracefully")
}

type Config struct {
	DatabaseURL string
	SQLitePath  string
	Port        string
	Env         string
	Placement   placement.Config
}

func loadConfig(log logging.Logger) *Config {
	defaults := placement.DefaultConfig()
	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("GO_ENV", "development"),
		Placement: placement.Config{
			FootprintArea: getEnvFloat(log, "SENSOR_FOOTPRINT_AREA", defaults.FootprintArea),
			Resolution:    getEnvFloat(log, "GRID_RESOLUTION", defaults.Resolution),
			SampleStep:    getEnvFloat(log, "SAMPLE_STEP", defaults.SampleStep),
			Backend:       getEnv("SOLVER_BACKEND", defaults.Backend),
			SolveTimeout:  getEnvDuration(log, "SOLVER_TIMEOUT", defaults.SolveTimeout),
		},
	}
}

// openRepository picks PostgreSQL, then SQLite, then process memory
func openRepository(ctx context.Context, cfg *Config, log logging.Logger) (service.SimulationRepository, func()) {
	if cfg.DatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err == nil {
			repo := postgres.NewPostgresRepository(pool)
			if err = repo.EnsureSchema(dbCtx); err == nil {
				log.Info(ctx, "connected to PostgreSQL")
				return repo, pool.Close
			}
			pool.Close()
		}
		log.Warn(ctx, "could not connect to database, falling back", logging.Err(err))
	}

	if cfg.SQLitePath != "" {
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err == nil {
			log.Info(ctx, "using SQLite history store", logging.String("path", cfg.SQLitePath))
			return repo, closer(log, repo)
		}
		log.Warn(ctx, "could not open SQLite store, falling back", logging.Err(err))
	}

	log.Info(ctx, "running with in-memory history only")
	return memory.NewRepository(), func() {}
}

func closer(log logging.Logger, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn(context.Background(), "failed to close store", logging.Err(err))
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(log logging.Logger, key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Warn(context.Background(), "ignoring malformed setting", logging.String("key", key), logging.Err(err))
		return defaultValue
	}
	return v
}

func getEnvDuration(log logging.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn(context.Background(), "ignoring malformed setting", logging.String("key", key), logging.Err(err))
		return defaultValue
	}
	if v <= 0 {
		log.Warn(context.Background(), "ignoring non-positive duration", logging.String("key", key), logging.String("value", raw))
		return defaultValue
	}
	return v
}
