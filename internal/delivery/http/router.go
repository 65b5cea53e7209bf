package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/service"
)

// SetupRoutes configures all HTTP routes. metrics may be nil.
func SetupRoutes(app *fiber.App, simSvc *service.SimulationService, metrics nethttp.Handler, log logging.Logger) {
	handler := NewHandler(simSvc, log)

	// Health check
	app.Get("/health", handler.HealthCheck)
	if metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics))
	}

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Area simulations over the square, 2:1 and 1:2 shapes
		api.Post("/simulations", handler.CreateSimulation)
		api.Get("/simulations", handler.ListSimulations)
		api.Get("/simulations/:id", handler.GetSimulation)
		api.Delete("/simulations/:id", handler.DeleteSimulation)
		api.Get("/simulations/:id/shapes/:index/plot.png", handler.GetShapePlot)

		// Single rectangle placement
		api.Post("/placements", handler.CreatePlacement)
	}
}
