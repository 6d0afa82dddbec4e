package geo

import "github.com/golang/geo/s2"

// toS2Polygon converts a lon/lat polygon to a normalized s2 polygon. The loop
// is normalized so winding direction of the input does not matter.
func toS2Polygon(p Polygon) *s2.Polygon {
	pts := make([]s2.Point, 0, len(p.Exterior))
	for _, v := range p.Exterior {
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(v.Lat, v.Lon)))
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return s2.PolygonFromLoops([]*s2.Loop{loop})
}

// Intersects reports whether the two polygons overlap on the sphere.
func Intersects(a, b Polygon) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return toS2Polygon(a).Intersects(toS2Polygon(b))
}

// IntersectsAny reports whether the polygon overlaps any part of the multipolygon.
func IntersectsAny(a Polygon, parts MultiPolygon) bool {
	for _, part := range parts {
		if Intersects(a, part) {
			return true
		}
	}
	return false
}

// ContainsPoint reports whether the point lies inside the polygon on the sphere.
func ContainsPoint(p Polygon, pt Point) bool {
	if p.IsEmpty() {
		return false
	}
	return toS2Polygon(p).ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(pt.Lat, pt.Lon)))
}

// ContainsPointAny reports whether any part of the multipolygon contains the point.
func ContainsPointAny(parts MultiPolygon, pt Point) bool {
	for _, p := range parts {
		if ContainsPoint(p, pt) {
			return true
		}
	}
	return false
}
