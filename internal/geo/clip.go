package geo

// ClipToConvex clips the subject polygon against a convex clip polygon using
// the Sutherland-Hodgman algorithm. The clip polygon must be convex and wound
// counterclockwise. Returns an empty polygon when there is no overlap.
func ClipToConvex(subject, clip Polygon) Polygon {
	if subject.IsEmpty() || clip.IsEmpty() {
		return Polygon{}
	}

	out := append(Ring(nil), subject.Exterior...)
	n := len(clip.Exterior)
	for i := 0; i < n && len(out) > 0; i++ {
		a := clip.Exterior[i]
		b := clip.Exterior[(i+1)%n]
		out = clipAgainstEdge(out, a, b)
	}
	if len(out) < 3 {
		return Polygon{}
	}
	return Polygon{Exterior: out}
}

// IntersectionAreaKm2 returns the overlap area of subject and a convex clip
// polygon in square kilometers.
func IntersectionAreaKm2(subject, clip Polygon) float64 {
	return ClipToConvex(subject, clip).AreaKm2()
}

// clipAgainstEdge keeps the part of the ring on the left of the directed edge a->b.
func clipAgainstEdge(ring Ring, a, b Point) Ring {
	out := make(Ring, 0, len(ring)+1)
	n := len(ring)
	for i := 0; i < n; i++ {
		cur := ring[i]
		prev := ring[(i+n-1)%n]
		curIn := cross(a, b, cur) >= 0
		prevIn := cross(a, b, prev) >= 0

		switch {
		case curIn && prevIn:
			out = append(out, cur)
		case curIn && !prevIn:
			out = append(out, lineIntersection(a, b, prev, cur), cur)
		case !curIn && prevIn:
			out = append(out, lineIntersection(a, b, prev, cur))
		}
	}
	return out
}

// cross returns the z component of (b-a) x (p-a). Positive when p is left of a->b.
func cross(a, b, p Point) float64 {
	return (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
}

// lineIntersection returns the intersection of the infinite line through a,b
// with the segment p,q. Callers guarantee the segment straddles the line.
func lineIntersection(a, b, p, q Point) Point {
	d1 := cross(a, b, p)
	d2 := cross(a, b, q)
	t := d1 / (d1 - d2)
	return Point{
		Lon: p.Lon + t*(q.Lon-p.Lon),
		Lat: p.Lat + t*(q.Lat-p.Lat),
	}
}

// SegmentsIntersect reports whether the closed segments p1-p2 and q1-q2 intersect.
func SegmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// SegmentIntersectsPolygon reports whether the segment a-b crosses any edge of
// the polygon or has an endpoint inside it.
func SegmentIntersectsPolygon(a, b Point, poly Polygon) bool {
	if poly.IsEmpty() {
		return false
	}
	n := len(poly.Exterior)
	for i := 0; i < n; i++ {
		e1 := poly.Exterior[i]
		e2 := poly.Exterior[(i+1)%n]
		if SegmentsIntersect(a, b, e1, e2) {
			return true
		}
	}
	return poly.ContainsPlanar(a) || poly.ContainsPlanar(b)
}

// ContainsPlanar reports whether the point is inside the polygon using a
// planar even-odd ray cast. Boundary points may land on either side.
func (p Polygon) ContainsPlanar(pt Point) bool {
	n := len(p.Exterior)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi := p.Exterior[i]
		vj := p.Exterior[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) &&
			pt.Lon < (vj.Lon-vi.Lon)*(pt.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lon {
			inside = !inside
		}
	}
	return inside
}

func onSegment(a, b, p Point) bool {
	return min(a.Lon, b.Lon) <= p.Lon && p.Lon <= max(a.Lon, b.Lon) &&
		min(a.Lat, b.Lat) <= p.Lat && p.Lat <= max(a.Lat, b.Lat)
}
