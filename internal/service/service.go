package service

import (
	"github.com/smartcity/sensorplan/internal/domain"
)

// SimulationRepository is re-exported from domain for convenience
type SimulationRepository = domain.SimulationRepository
