package geo

import "math"

// BufferMulti returns a rectangle covering the combined bounds of all parts
// expanded by the given distance in kilometers. A coarse buffer is all the
// gating check needs; it only has to be a superset of the true buffered
// boundary.
func BufferMulti(m MultiPolygon, km float64) Polygon {
	minLon, minLat, maxLon, maxLat := m.Bounds()
	return bufferBounds(minLon, minLat, maxLon, maxLat, km)
}

func bufferBounds(minLon, minLat, maxLon, maxLat, km float64) Polygon {
	latPad := km / kmPerDegree

	// Scale the longitude pad by the widest latitude the box reaches so the
	// buffer never undershoots the requested distance.
	farLat := math.Max(math.Abs(minLat), math.Abs(maxLat))
	cosLat := math.Cos(farLat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonPad := km / (kmPerDegree * cosLat)

	return Rect(minLon-lonPad, minLat-latPad, maxLon+lonPad, maxLat+latPad)
}

// Regularize clamps all vertices into the WGS84 coordinate domain. It repairs
// buffers that spilled past the poles or the antimeridian; the repaired
// polygon may have zero area, in which case callers should fall back to the
// unbuffered geometry.
func Regularize(p Polygon) Polygon {
	out := make(Ring, len(p.Exterior))
	for i, v := range p.Exterior {
		out[i] = Point{
			Lon: clamp(v.Lon, -180, 180),
			Lat: clamp(v.Lat, -90, 90),
		}
	}
	return Polygon{Exterior: out}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
