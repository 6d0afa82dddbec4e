package domain

import (
	"math"
	"sort"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// AdminRegion is one administrative subdivision of a region.
type AdminRegion struct {
	ID       string
	Name     string
	Geometry geo.MultiPolygon
}

// AssignZones assigns each zone to the admin region it overlaps most, by
// intersection area. Ties go to the lexicographically smallest admin ID so
// assignment is deterministic. Zones overlapping no admin region keep an
// empty AdminID; callers decide whether that is an error.
func AssignZones(zones []Zone, admins []AdminRegion) []Zone {
	ordered := make([]AdminRegion, len(admins))
	copy(ordered, admins)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	out := make([]Zone, len(zones))
	for i, z := range zones {
		out[i] = z
		bestArea := 0.0
		bestID := ""
		for _, admin := range ordered {
			area := 0.0
			for _, part := range admin.Geometry {
				// The zone tile is a convex rectangle, so it serves as the
				// clip polygon.
				area += geo.IntersectionAreaKm2(part, z.Geometry)
			}
			if area > bestArea {
				bestArea = area
				bestID = admin.ID
			}
		}
		out[i].AdminID = bestID
	}
	return out
}

// AdminBreakdown is one admin region's aggregated expected impact at a single
// threshold.
type AdminBreakdown struct {
	AdminID string
	// Values holds sums for extensive attributes and probability-weighted
	// means for intensive ones.
	Values AttributeSet
	// Probability is the total probability mass of the admin's zones, used
	// as the weight denominator for mean attributes.
	Probability float64
}

// RollUpByAdmin aggregates an impact view to admin regions, sorted by admin
// ID. Sum attributes add up with NaN entries skipped; mean attributes are
// probability-weighted means, NaN when no probability mass carries a value.
func RollUpByAdmin(view ImpactView) []AdminBreakdown {
	type acc struct {
		sums     AttributeSet
		seen     map[Attribute]bool
		weights  map[Attribute]float64
		probMass float64
	}
	byAdmin := make(map[string]*acc)

	for _, row := range view.Rows {
		a, ok := byAdmin[row.AdminID]
		if !ok {
			a = &acc{
				sums:    make(AttributeSet),
				seen:    make(map[Attribute]bool),
				weights: make(map[Attribute]float64),
			}
			byAdmin[row.AdminID] = a
		}
		a.probMass += row.Probability
		for _, attr := range Attributes() {
			v := row.Expected.Get(attr)
			if math.IsNaN(v) {
				continue
			}
			a.sums[attr] += v
			a.seen[attr] = true
			if attr.Kind() == KindMean {
				a.weights[attr] += row.Probability
			}
		}
	}

	out := make([]AdminBreakdown, 0, len(byAdmin))
	for id, a := range byAdmin {
		values := make(AttributeSet)
		for _, attr := range Attributes() {
			if !a.seen[attr] {
				values[attr] = math.NaN()
				continue
			}
			switch attr.Kind() {
			case KindMean:
				if w := a.weights[attr]; w > 0 {
					values[attr] = a.sums[attr] / w
				} else {
					values[attr] = math.NaN()
				}
			default:
				values[attr] = a.sums[attr]
			}
		}
		out = append(out, AdminBreakdown{AdminID: id, Values: values, Probability: a.probMass})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdminID < out[j].AdminID })
	return out
}
