package domain

import (
	"math"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

var testIssuance = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)

// testZone builds a 0.1-degree tile at the given origin with a population
// baseline. Extra attributes can be layered on afterwards.
func testZone(id, adminID string, lon, lat, population float64) Zone {
	return Zone{
		ID:      id,
		AdminID: adminID,
		Geometry: geo.Rect(lon, lat, lon+0.1, lat+0.1),
		Baseline: AttributeSet{
			AttrPopulation: population,
		},
	}
}

// fixedCounter returns a preset member count per zone ID, zero for zones it
// does not know.
type fixedCounter struct {
	covered map[string]int
}

func (c *fixedCounter) CoveredMembers(zone Zone, _ []HazardEnvelope) int {
	return c.covered[zone.ID]
}

// tableFor builds a probability table directly, bypassing coverage counting.
func tableFor(thresholdKt int, rows ...ProbabilityRow) ProbabilityTable {
	return ProbabilityTable{StormID: "AL052024", ThresholdKt: thresholdKt, Rows: rows}
}

func nan() float64 { return math.NaN() }
