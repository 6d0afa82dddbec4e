// Package geo provides the lon/lat geometry primitives the impact engine
// needs: planar polygon area and clipping for tile/admin overlap, spherical
// intersection and containment predicates, and padded-bounds buffering for
// the affected-region gate. All coordinates are WGS84 degrees.
package geo

import "math"

// kmPerDegree is the approximate length of one degree of latitude in kilometers.
const kmPerDegree = 111.32

// Point is a WGS84 lon/lat coordinate.
type Point struct {
	Lon float64
	Lat float64
}

// Ring is an ordered, open list of vertices (no repeated closing point).
type Ring []Point

// Polygon is a simple polygon described by its exterior ring.
// Interior rings (holes) are not modeled; at the tile resolutions the engine
// works with they do not change zone assignment or gating outcomes.
type Polygon struct {
	Exterior Ring
}

// MultiPolygon is a collection of polygons treated as one geometry.
type MultiPolygon []Polygon

// NewPolygon creates a polygon from vertices, dropping a repeated closing point.
func NewPolygon(pts ...Point) Polygon {
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return Polygon{Exterior: pts}
}

// IsEmpty returns true if the polygon has fewer than 3 vertices.
func (p Polygon) IsEmpty() bool {
	return len(p.Exterior) < 3
}

// Bounds returns the axis-aligned bounding box (minLon, minLat, maxLon, maxLat).
func (p Polygon) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	if len(p.Exterior) == 0 {
		return 0, 0, 0, 0
	}
	minLon, maxLon = p.Exterior[0].Lon, p.Exterior[0].Lon
	minLat, maxLat = p.Exterior[0].Lat, p.Exterior[0].Lat
	for _, v := range p.Exterior[1:] {
		minLon = math.Min(minLon, v.Lon)
		maxLon = math.Max(maxLon, v.Lon)
		minLat = math.Min(minLat, v.Lat)
		maxLat = math.Max(maxLat, v.Lat)
	}
	return minLon, minLat, maxLon, maxLat
}

// signedAreaDeg returns the signed area in squared degrees using the shoelace
// formula. Positive for counterclockwise winding.
func (p Polygon) signedAreaDeg() float64 {
	n := len(p.Exterior)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += p.Exterior[i].Lon * p.Exterior[j].Lat
		area -= p.Exterior[j].Lon * p.Exterior[i].Lat
	}
	return area / 2
}

// AreaKm2 returns the approximate unsigned area in square kilometers,
// correcting longitude spans for the polygon's mid latitude. The planar
// approximation is adequate for the tile-sized geometries it is applied to.
func (p Polygon) AreaKm2() float64 {
	if p.IsEmpty() {
		return 0
	}
	_, minLat, _, maxLat := p.Bounds()
	midLat := (minLat + maxLat) / 2
	scale := math.Cos(midLat * math.Pi / 180)
	return math.Abs(p.signedAreaDeg()) * scale * kmPerDegree * kmPerDegree
}

// Centroid returns the vertex-average centroid. Adequate for the small convex
// tiles and envelope lobes the engine works with.
func (p Polygon) Centroid() Point {
	n := len(p.Exterior)
	if n == 0 {
		return Point{}
	}
	var sumLon, sumLat float64
	for _, v := range p.Exterior {
		sumLon += v.Lon
		sumLat += v.Lat
	}
	return Point{Lon: sumLon / float64(n), Lat: sumLat / float64(n)}
}

// Valid reports whether the polygon has enough vertices, non-zero area, and
// all coordinates inside the WGS84 domain. Buffering near the antimeridian
// can push vertices outside it.
func (p Polygon) Valid() bool {
	if p.IsEmpty() {
		return false
	}
	for _, v := range p.Exterior {
		if v.Lon < -180 || v.Lon > 180 || v.Lat < -90 || v.Lat > 90 {
			return false
		}
	}
	return math.Abs(p.signedAreaDeg()) > 0
}

// Rect builds a rectangle polygon from bounds, counterclockwise.
func Rect(minLon, minLat, maxLon, maxLat float64) Polygon {
	return Polygon{Exterior: Ring{
		{Lon: minLon, Lat: minLat},
		{Lon: maxLon, Lat: minLat},
		{Lon: maxLon, Lat: maxLat},
		{Lon: minLon, Lat: maxLat},
	}}
}

// Bounds returns the combined bounding box of all parts.
func (m MultiPolygon) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	if len(m) == 0 {
		return 0, 0, 0, 0
	}
	minLon, minLat, maxLon, maxLat = m[0].Bounds()
	for _, p := range m[1:] {
		lo, la, ho, ha := p.Bounds()
		minLon = math.Min(minLon, lo)
		minLat = math.Min(minLat, la)
		maxLon = math.Max(maxLon, ho)
		maxLat = math.Max(maxLat, ha)
	}
	return minLon, minLat, maxLon, maxLat
}

// AreaKm2 returns the summed area of all parts.
func (m MultiPolygon) AreaKm2() float64 {
	total := 0.0
	for _, p := range m {
		total += p.AreaKm2()
	}
	return total
}

// IsEmpty returns true when no part has enough vertices to form a polygon.
func (m MultiPolygon) IsEmpty() bool {
	for _, p := range m {
		if !p.IsEmpty() {
			return false
		}
	}
	return true
}
