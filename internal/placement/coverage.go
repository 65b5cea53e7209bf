package placement

import (
	"fmt"
	"math"

	"github.com/smartcity/sensorplan/internal/domain"
)

// CoverageRelation lists, for every grid index, the ascending grid indices
// whose sites lie within sensing range. The relation is symmetric, so the same
// list answers "covers" and "is covered by".
type CoverageRelation [][]int

// BuildCoverage evaluates the exact predicate dx² + dy² ≤ radius² for every
// pair of sites. Pairs further apart than the radius along either axis are
// skipped without changing the result.
func BuildCoverage(g *Grid, radius float64) (CoverageRelation, error) {
	if !positive(radius) {
		return nil, fmt.Errorf("%w: radius must be positive, got %v", domain.ErrInvalidDimension, radius)
	}

	r2 := radius * radius
	reach := int(math.Ceil(radius/g.Resolution)) + 1
	rel := make(CoverageRelation, g.Len())
	for p := range g.Positions {
		rel[p] = make([]int, 0)
	}

	for p, pp := range g.Positions {
		pc := g.Coords[p]
		for q := p; q < g.Len(); q++ {
			qp := g.Positions[q]
			if qp.I-pp.I > reach {
				break
			}
			if abs(qp.J-pp.J) > reach {
				continue
			}
			qc := g.Coords[q]
			dx, dy := pc.X-qc.X, pc.Y-qc.Y
			if dx*dx+dy*dy > r2 {
				continue
			}
			rel[p] = append(rel[p], q)
			if q != p {
				rel[q] = append(rel[q], p)
			}
		}
	}
	return rel, nil
}

// Covers reports whether q is within range of p
func (r CoverageRelation) Covers(p, q int) bool {
	for _, v := range r[p] {
		if v == q {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
