package geo

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
)

// FromGeoJSON converts a decoded GeoJSON geometry into a MultiPolygon.
// Polygon and MultiPolygon geometries are accepted; interior rings are dropped.
func FromGeoJSON(g *geojson.Geometry) (MultiPolygon, error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry")
	}
	switch {
	case g.IsPolygon():
		p, err := polygonFromRings(g.Polygon)
		if err != nil {
			return nil, err
		}
		return MultiPolygon{p}, nil
	case g.IsMultiPolygon():
		out := make(MultiPolygon, 0, len(g.MultiPolygon))
		for _, rings := range g.MultiPolygon {
			p, err := polygonFromRings(rings)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

// ParseGeoJSON decodes a raw GeoJSON geometry document into a MultiPolygon.
func ParseGeoJSON(raw []byte) (MultiPolygon, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding geometry: %w", err)
	}
	return FromGeoJSON(g)
}

// PointFromGeoJSON converts a GeoJSON Point geometry.
func PointFromGeoJSON(g *geojson.Geometry) (Point, error) {
	if g == nil || !g.IsPoint() || len(g.Point) < 2 {
		return Point{}, fmt.Errorf("geometry is not a point")
	}
	return Point{Lon: g.Point[0], Lat: g.Point[1]}, nil
}

func polygonFromRings(rings [][][]float64) (Polygon, error) {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return Polygon{}, fmt.Errorf("polygon has no usable exterior ring")
	}
	pts := make([]Point, 0, len(rings[0]))
	for _, c := range rings[0] {
		if len(c) < 2 {
			return Polygon{}, fmt.Errorf("coordinate has fewer than 2 values")
		}
		pts = append(pts, Point{Lon: c[0], Lat: c[1]})
	}
	return NewPolygon(pts...), nil
}
