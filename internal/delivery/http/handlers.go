package http

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/render"
	"github.com/smartcity/sensorplan/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	simSvc *service.SimulationService
	log    logging.Logger
}

// NewHandler creates a new handler
func NewHandler(simSvc *service.SimulationService, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	return &Handler{simSvc: simSvc, log: log}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.simSvc.Health(c.Context()); err != nil {
		h.log.Warn(c.Context(), "history store unhealthy", logging.Err(err))
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "sensorplan",
		"version": "1.0.0",
	})
}

// CreateSimulation runs every shape variant for an area and returns the results
func (h *Handler) CreateSimulation(c *fiber.Ctx) error {
	ctx, _ := logging.EnsureRequestID(c.Context())

	var req domain.SimulationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	sim, err := h.simSvc.Run(ctx, req)
	if err != nil {
		h.log.Warn(ctx, "simulation failed", logging.Float("area", req.Area), logging.Err(err))
		return toFiberError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    sim,
	})
}

// CreatePlacement solves a single length × width rectangle
func (h *Handler) CreatePlacement(c *fiber.Ctx) error {
	ctx, _ := logging.EnsureRequestID(c.Context())

	var req domain.PlacementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.simSvc.Place(ctx, req)
	if err != nil {
		h.log.Warn(ctx, "placement failed",
			logging.Float("length", req.Length),
			logging.Float("width", req.Width),
			logging.Err(err),
		)
		return toFiberError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// ListSimulations returns simulation history, newest first
func (h *Handler) ListSimulations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultHistoryLimit)

	data, err := h.simSvc.History(c.Context(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch simulation history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetSimulation returns one stored simulation
func (h *Handler) GetSimulation(c *fiber.Ctx) error {
	sim, err := h.simSvc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return toFiberError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sim,
	})
}

// DeleteSimulation removes one stored simulation
func (h *Handler) DeleteSimulation(c *fiber.Ctx) error {
	if err := h.simSvc.Delete(c.Context(), c.Params("id")); err != nil {
		return toFiberError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetShapePlot renders one shape of a stored simulation as PNG
func (h *Handler) GetShapePlot(c *fiber.Ctx) error {
	sim, err := h.simSvc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return toFiberError(err)
	}

	idx, err := c.ParamsInt("index")
	if err != nil || idx < 0 || idx >= len(sim.Results) {
		return fiber.NewError(fiber.StatusNotFound, "Shape not found")
	}

	var buf bytes.Buffer
	if err := render.PlacementPNG(&buf, sim.Results[idx]); err != nil {
		h.log.Error(c.Context(), "render failed", logging.String("id", sim.ID), logging.Err(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render plot")
	}

	c.Type("png")
	return c.Send(buf.Bytes())
}

// toFiberError maps domain error kinds onto HTTP statuses
func toFiberError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidDimension), errors.Is(err, domain.ErrInvalidSampling):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Simulation not found")
	case errors.Is(err, domain.ErrSolverTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, "Solver timed out; retry with a coarser resolution or a longer timeout")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to compute placement")
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
