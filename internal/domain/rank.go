package domain

import (
	"sort"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// TopFacilityCount is how many facilities of each kind a report highlights.
const TopFacilityCount = 5

// FacilityKind distinguishes the facility datasets a report ranks.
type FacilityKind string

const (
	FacilitySchool       FacilityKind = "school"
	FacilityHealthCenter FacilityKind = "health_center"
)

// Facility is a point of interest whose exposure a report ranks.
type Facility struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Kind     FacilityKind `json:"kind"`
	Location geo.Point    `json:"-"`
	Lon      float64      `json:"lon"`
	Lat      float64      `json:"lat"`
}

// RankedFacility is a facility together with the exceedance probability of
// the zone it sits in.
type RankedFacility struct {
	Facility    Facility `json:"facility"`
	Probability float64  `json:"probability"`
}

// TopFacilities ranks facilities by the exceedance probability of the zone
// containing each one and returns the n most exposed. Facilities outside
// every zone, or inside zones with zero probability, are excluded. Ties keep
// their input order.
func TopFacilities(facilities []Facility, table ProbabilityTable, n int) []RankedFacility {
	ranked := make([]RankedFacility, 0, len(facilities))
	for _, f := range facilities {
		p := facilityProbability(f, table)
		if p <= 0 {
			continue
		}
		f.Lon = f.Location.Lon
		f.Lat = f.Location.Lat
		ranked = append(ranked, RankedFacility{Facility: f, Probability: p})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// facilityProbability finds the zone whose tile contains the facility.
// Tiles partition the region, so the first hit wins.
func facilityProbability(f Facility, table ProbabilityTable) float64 {
	for _, row := range table.Rows {
		if row.Zone.Geometry.ContainsPlanar(f.Location) {
			return row.Probability
		}
	}
	return 0
}

// ReferenceThreshold picks the threshold facilities are ranked at: the key
// threshold when present, otherwise the lowest available.
func ReferenceThreshold(available []int) (int, bool) {
	if len(available) == 0 {
		return 0, false
	}
	lowest := available[0]
	for _, t := range available {
		if t == KeyThresholdKt {
			return t, true
		}
		if t < lowest {
			lowest = t
		}
	}
	return lowest, true
}
