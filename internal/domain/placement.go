package domain

// GridPosition identifies a cell of the candidate placement grid
type GridPosition struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Coordinate is a point in meters within the planned area
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlacementResult is the outcome of one solved placement problem.
// Sensors are kept at full precision; rounding is a display concern.
type PlacementResult struct {
	Length     float64      `json:"length"`
	Width      float64      `json:"width"`
	Radius     float64      `json:"radius"`
	Resolution float64      `json:"resolution"`
	Candidates int          `json:"candidates"`
	Sensors    []Coordinate `json:"sensors"`
	Backend    string       `json:"backend"`
}

// ShapeResult is the per-shape output gathered by the scenario orchestrator
type ShapeResult struct {
	Label            string       `json:"label"`
	Length           float64      `json:"length"`
	Width            float64      `json:"width"`
	Radius           float64      `json:"radius"`
	Candidates       int          `json:"candidates"`
	Sensors          []Coordinate `json:"sensors"`
	SensorCount      int          `json:"sensor_count"`
	UncoveredPercent float64      `json:"uncovered_percent"`
	MainUnit         Coordinate   `json:"main_unit"`
}
