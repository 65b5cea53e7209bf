package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/sensorplan/internal/domain"
	"github.com/smartcity/sensorplan/internal/logging"
	"github.com/smartcity/sensorplan/internal/observability"
	"github.com/smartcity/sensorplan/internal/placement"
	"github.com/smartcity/sensorplan/internal/repository/memory"
	"github.com/smartcity/sensorplan/internal/service"
	"github.com/smartcity/sensorplan/internal/solver"
)

type testEnv struct {
	app    *fiber.App
	simSvc *service.SimulationService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector, err := observability.NewSolverCollector(reg)
	require.NoError(t, err)

	cfg := placement.DefaultConfig()
	cfg.SolveTimeout = 30 * time.Second
	planner := placement.NewPlanner(solver.NewBranchAndBound(), placement.WithObserver(collector))
	simSvc := service.NewSimulationService(planner, cfg, memory.NewRepository(), logging.Noop())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, simSvc, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logging.Noop())
	return testEnv{app: app, simSvc: simSvc}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*nethttp.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	resp, body := doJSON(t, env.app, nethttp.MethodGet, "/health", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestSimulationLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := doJSON(t, env.app, nethttp.MethodPost, "/api/v1/simulations",
		domain.SimulationRequest{RegionName: "Plot A", Area: 49})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	id := data["id"].(string)
	results := data["results"].([]any)
	require.Len(t, results, 3)

	square := results[0].(map[string]any)
	assert.Equal(t, service.LabelSquare, square["label"])
	assert.Equal(t, float64(1), square["sensor_count"])
	assert.Equal(t, float64(0), square["uncovered_percent"])

	resp, body = doJSON(t, env.app, nethttp.MethodGet, "/api/v1/simulations", nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, body = doJSON(t, env.app, nethttp.MethodGet, "/api/v1/simulations/"+id, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Plot A", body["data"].(map[string]any)["region_name"])

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/simulations/"+id+"/shapes/0/plot.png", nil)
	plotResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, plotResp.StatusCode)
	assert.Equal(t, "image/png", plotResp.Header.Get("Content-Type"))

	resp, _ = doJSON(t, env.app, nethttp.MethodGet, "/api/v1/simulations/"+id+"/shapes/7/plot.png", nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, env.app, nethttp.MethodDelete, "/api/v1/simulations/"+id, nil)
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, env.app, nethttp.MethodGet, "/api/v1/simulations/"+id, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, true, body["error"])
}

func TestCreateSimulationRejectsBadArea(t *testing.T) {
	env := newTestEnv(t)

	resp, body := doJSON(t, env.app, nethttp.MethodPost, "/api/v1/simulations",
		domain.SimulationRequest{RegionName: "Nowhere", Area: -5})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, true, body["error"])
}

func TestCreateSimulationRejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/simulations", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestCreatePlacement(t *testing.T) {
	env := newTestEnv(t)

	resp, body := doJSON(t, env.app, nethttp.MethodPost, "/api/v1/placements",
		domain.PlacementRequest{Length: 7, Width: 7})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["sensor_count"])
	assert.Equal(t, float64(9), data["candidates"])
}

func TestMetricsEndpointExposesSolverCounters(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := doJSON(t, env.app, nethttp.MethodPost, "/api/v1/placements",
		domain.PlacementRequest{Length: 7, Width: 7})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	metricsResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `sensorplan_solves_total{backend="bnb",outcome="optimal"} 1`)
}

func TestToFiberErrorMapsKinds(t *testing.T) {
	cases := map[error]int{
		domain.ErrInvalidDimension: fiber.StatusBadRequest,
		domain.ErrInvalidSampling:  fiber.StatusBadRequest,
		domain.ErrNotFound:         fiber.StatusNotFound,
		domain.ErrSolverTimeout:    fiber.StatusGatewayTimeout,
		domain.ErrSolverError:      fiber.StatusInternalServerError,
	}
	for in, want := range cases {
		var fe *fiber.Error
		require.ErrorAs(t, toFiberError(in), &fe)
		assert.Equal(t, want, fe.Code, in.Error())
	}
}
