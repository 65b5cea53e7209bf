package placement

import "github.com/smartcity/sensorplan/internal/solver"

// BuildModel turns a coverage relation into the set-cover program: one unit
// cost variable per site and one "covered at least once" row per site.
func BuildModel(rel CoverageRelation) *solver.Model {
	m := solver.NewUnitModel(len(rel))
	for _, covering := range rel {
		m.AddCover(covering)
	}
	return m
}
