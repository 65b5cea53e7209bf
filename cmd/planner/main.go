// Command planner runs one area simulation from the command line and prints
// the result as JSON. With -png it also writes one placement plot per shape.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/placement"
	"github.com/smartcity/sensorplan/internal/render"
	"github.com/smartcity/sensorplan/internal/repository/memory"
	"github.com/smartcity/sensorplan/internal/service"
	"github.com/smartcity/sensorplan/internal/solver"
)

func main() {
	cfg := placement.DefaultConfig()

	area := flag.Float64("area", 10000, "area to simulate in m²")
	region := flag.String("region", "", "optional region name")
	pngDir := flag.String("png", "", "directory to write placement plots into")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "solver backend: bnb or greedy")
	flag.DurationVar(&cfg.SolveTimeout, "timeout", cfg.SolveTimeout, "time limit per shape solve")
	flag.Float64Var(&cfg.FootprintArea, "footprint", cfg.FootprintArea, "sensor footprint area in m²")
	flag.Float64Var(&cfg.Resolution, "resolution", cfg.Resolution, "candidate grid spacing in meters")
	flag.Float64Var(&cfg.SampleStep, "step", cfg.SampleStep, "gap estimator spacing in meters")
	flag.Parse()

	if err := run(cfg, *area, *region, *pngDir); err != nil {
		fmt.Fprintln(os.Stderr, "planner:", err)
		os.Exit(1)
	}
}

func run(cfg placement.Config, area float64, region, pngDir string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.NewFromEnv()
	backend, err := solver.New(cfg.Backend)
	if err != nil {
		return err
	}

	planner := placement.NewPlanner(backend, placement.WithLogger(log))
	svc := service.NewSimulationService(planner, cfg, memory.NewRepository(), log)

	sim, err := svc.Run(context.Background(), domain.SimulationRequest{RegionName: region, Area: area})
	if err != nil {
		return err
	}

	if pngDir != "" {
		if err := writePlots(pngDir, sim); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sim)
}

func writePlots(dir string, sim domain.Simulation) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, shape := range sim.Results {
		path := filepath.Join(dir, fmt.Sprintf("%s-shape-%d.png", sim.ID, i))
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = render.PlacementPNG(f, shape)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("plot %q: %w", shape.Label, err)
		}
	}
	return nil
}
