package domain

import (
	"math"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// Attribute identifies one baseline column attached to a zone.
type Attribute string

const (
	AttrPopulation    Attribute = "population"
	AttrBuiltSurface  Attribute = "built_surface_m2"
	AttrSchools       Attribute = "num_schools"
	AttrSchoolAge     Attribute = "school_age_population"
	AttrInfants       Attribute = "infant_population"
	AttrHealthCenters Attribute = "num_hcs"
	AttrRWI           Attribute = "rwi"
	AttrSMOD          Attribute = "smod_class"
)

// AttributeKind tells aggregation how to combine an attribute across zones.
type AttributeKind int

const (
	// KindSum attributes are extensive quantities (people, buildings) that
	// add up across zones.
	KindSum AttributeKind = iota
	// KindMean attributes are intensive indices (wealth, settlement class)
	// that are averaged, weighted by exceedance probability.
	KindMean
)

// Attributes returns all baseline attributes in their canonical column order.
func Attributes() []Attribute {
	return []Attribute{
		AttrPopulation,
		AttrBuiltSurface,
		AttrSchools,
		AttrSchoolAge,
		AttrInfants,
		AttrHealthCenters,
		AttrRWI,
		AttrSMOD,
	}
}

// Kind returns how the attribute combines across zones.
func (a Attribute) Kind() AttributeKind {
	switch a {
	case AttrRWI, AttrSMOD:
		return KindMean
	default:
		return KindSum
	}
}

// AttributeSet maps attributes to values. Missing values are NaN, never zero;
// zero means a measured absence.
type AttributeSet map[Attribute]float64

// Get returns the value for a, or NaN when absent.
func (s AttributeSet) Get(a Attribute) float64 {
	if v, ok := s[a]; ok {
		return v
	}
	return math.NaN()
}

// Zone is one analysis tile: a small polygon with baseline exposure
// attributes and the admin region it belongs to.
type Zone struct {
	// ID is the tile identifier, typically a quadkey.
	ID string
	// AdminID is the administrative region the zone is assigned to. Empty
	// until assignment runs.
	AdminID string
	// Geometry is the tile footprint.
	Geometry geo.Polygon
	// Baseline holds the zone's exposure attributes.
	Baseline AttributeSet
}

// Centroid returns the zone's representative point for coverage tests.
func (z Zone) Centroid() geo.Point {
	return z.Geometry.Centroid()
}
