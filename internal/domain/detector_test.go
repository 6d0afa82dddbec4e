package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

func TestRegionAffected(t *testing.T) {
	jamaica := RegionBoundary{
		Code:     "JAM",
		Geometry: geo.MultiPolygon{geo.Rect(-78.4, 17.7, -76.2, 18.5)},
	}

	t.Run("direct hit", func(t *testing.T) {
		footprint := geo.MultiPolygon{geo.Rect(-79, 17, -76, 19)}
		assert.True(t, RegionAffected(jamaica, footprint))
	})

	t.Run("near miss inside buffer", func(t *testing.T) {
		// About 500 km east of the island, well inside the 1500 km gate.
		footprint := geo.MultiPolygon{geo.Rect(-72, 17, -70, 19)}
		assert.True(t, RegionAffected(jamaica, footprint))
	})

	t.Run("outside buffer", func(t *testing.T) {
		// Eastern Atlantic, several thousand kilometers away.
		footprint := geo.MultiPolygon{geo.Rect(-30, 15, -28, 17)}
		assert.False(t, RegionAffected(jamaica, footprint))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.False(t, RegionAffected(RegionBoundary{}, geo.MultiPolygon{geo.Rect(0, 0, 1, 1)}))
		assert.False(t, RegionAffected(jamaica, nil))
	})

	t.Run("polar buffer repairs by clamping", func(t *testing.T) {
		// Buffering a far-north boundary spills past the pole; the clamped
		// buffer must still gate correctly.
		svalbard := RegionBoundary{
			Code:     "SJM",
			Geometry: geo.MultiPolygon{geo.Rect(10, 76, 30, 81)},
		}
		near := geo.MultiPolygon{geo.Rect(35, 74, 40, 76)}
		assert.True(t, RegionAffected(svalbard, near))
	})
}
