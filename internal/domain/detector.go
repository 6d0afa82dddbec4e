package domain

import (
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// GateBufferKm is how far beyond a region's boundary the storm footprint may
// sit while the region is still considered potentially affected. Envelope
// swaths routinely extend hundreds of kilometers from the track, so the gate
// is deliberately generous.
const GateBufferKm = 1500

// RegionBoundary is the geometry a region is gated on.
type RegionBoundary struct {
	Code     string
	Geometry geo.MultiPolygon
}

// RegionAffected reports whether the storm footprint comes within
// GateBufferKm of the region boundary. The boundary is buffered; if the
// buffer cannot be repaired into a valid polygon the unbuffered boundary is
// used instead, which only narrows the gate.
func RegionAffected(region RegionBoundary, footprint geo.MultiPolygon) bool {
	if region.Geometry.IsEmpty() || footprint.IsEmpty() {
		return false
	}

	gate := geo.BufferMulti(region.Geometry, GateBufferKm)
	if !gate.Valid() {
		gate = geo.Regularize(gate)
	}
	if gate.Valid() {
		return geo.IntersectsAny(gate, footprint)
	}

	for _, part := range region.Geometry {
		if geo.IntersectsAny(part, footprint) {
			return true
		}
	}
	return false
}
