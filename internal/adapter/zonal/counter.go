// Package zonal supplies the analysis zones and their coverage arithmetic:
// an HTTP client for the zonal statistics service and the centroid-based
// coverage counter the exceedance calculator runs on.
package zonal

import (
	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// CentroidCounter counts distinct ensemble members whose envelope contains
// the zone's centroid. Zones are small relative to envelope swaths, so the
// centroid stands in for the whole tile.
type CentroidCounter struct{}

var _ domain.CoverageCounter = CentroidCounter{}

// CoveredMembers implements domain.CoverageCounter.
func (CentroidCounter) CoveredMembers(zone domain.Zone, envelopes []domain.HazardEnvelope) int {
	centroid := zone.Centroid()
	seen := make(map[int]bool)
	for _, e := range envelopes {
		if seen[e.Member] {
			continue
		}
		if geo.ContainsPointAny(e.Geometry, centroid) {
			seen[e.Member] = true
		}
	}
	return len(seen)
}
