package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

func trackAt(hoursOut int, lon, lat, windKt float64) TrackPoint {
	return TrackPoint{
		Member:   DeterministicMember,
		Valid:    testIssuance.Add(time.Duration(hoursOut) * time.Hour),
		Position: geo.Point{Lon: lon, Lat: lat},
		WindKt:   windKt,
	}
}

func TestExpectedLandfall(t *testing.T) {
	island := geo.MultiPolygon{geo.Rect(-78.4, 17.7, -76.2, 18.5)}

	t.Run("point inside gives its valid time", func(t *testing.T) {
		points := []TrackPoint{
			trackAt(0, -74.0, 16.0, 80),
			trackAt(6, -75.5, 17.0, 90),
			trackAt(12, -77.3, 18.1, 100),
		}
		assert.Equal(t, "June 06, 2024 00:00 UTC", ExpectedLandfall(points, island))
	})

	t.Run("first point already inside", func(t *testing.T) {
		points := []TrackPoint{
			trackAt(0, -77.3, 18.1, 100),
			trackAt(6, -79.0, 19.0, 90),
		}
		assert.Equal(t, LandfallAlready, ExpectedLandfall(points, island))
	})

	t.Run("segment crossing without a point inside", func(t *testing.T) {
		// Track jumps across the island between two points.
		points := []TrackPoint{
			trackAt(0, -75.0, 18.0, 80),
			trackAt(6, -80.0, 18.2, 80),
		}
		assert.Equal(t, "June 05, 2024 18:00 UTC", ExpectedLandfall(points, island))
	})

	t.Run("track never touches region", func(t *testing.T) {
		points := []TrackPoint{
			trackAt(0, -60.0, 25.0, 80),
			trackAt(6, -62.0, 27.0, 80),
		}
		assert.Equal(t, LandfallUnknown, ExpectedLandfall(points, island))
	})

	t.Run("only deterministic member considered", func(t *testing.T) {
		inside := trackAt(0, -77.3, 18.1, 100)
		inside.Member = 3
		assert.Equal(t, LandfallUnknown, ExpectedLandfall([]TrackPoint{inside}, island))
	})

	t.Run("unsorted points ordered by time", func(t *testing.T) {
		points := []TrackPoint{
			trackAt(12, -77.3, 18.1, 100),
			trackAt(0, -74.0, 16.0, 80),
		}
		assert.Equal(t, "June 06, 2024 00:00 UTC", ExpectedLandfall(points, island))
	})

	t.Run("empty track", func(t *testing.T) {
		assert.Equal(t, LandfallUnknown, ExpectedLandfall(nil, island))
	})
}

func TestPeakCategory(t *testing.T) {
	points := []TrackPoint{
		trackAt(0, -74, 16, 45),
		trackAt(6, -75, 17, 98),
		trackAt(12, -76, 18, 70),
	}
	assert.Equal(t, "Category 3 Hurricane", PeakCategory(points))

	other := trackAt(0, -74, 16, 150)
	other.Member = 12
	assert.Equal(t, "Category 3 Hurricane", PeakCategory(append(points, other)),
		"non-deterministic members ignored")

	assert.Equal(t, "Tropical Depression", PeakCategory(nil))
}
