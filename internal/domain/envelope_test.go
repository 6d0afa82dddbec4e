package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

func TestNewEnvelopeSet(t *testing.T) {
	issuance := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	swath := geo.MultiPolygon{geo.Rect(-78, 17, -75, 20)}

	t.Run("groups by threshold ascending", func(t *testing.T) {
		set, err := NewEnvelopeSet("AL052024", issuance, 52, []HazardEnvelope{
			{ThresholdKt: 64, Member: 1, Geometry: swath},
			{ThresholdKt: 34, Member: 1, Geometry: swath},
			{ThresholdKt: 34, Member: 2, Geometry: swath},
		})
		require.NoError(t, err)

		assert.Equal(t, []int{34, 64}, set.Thresholds())
		assert.Len(t, set.AtThreshold(34), 2)
		assert.Len(t, set.AtThreshold(64), 1)
		assert.Empty(t, set.AtThreshold(96))
	})

	t.Run("rejects unknown threshold", func(t *testing.T) {
		_, err := NewEnvelopeSet("AL052024", issuance, 52, []HazardEnvelope{
			{ThresholdKt: 35, Member: 1, Geometry: swath},
		})
		assert.ErrorContains(t, err, "unknown threshold")
	})

	t.Run("rejects non-positive ensemble size", func(t *testing.T) {
		_, err := NewEnvelopeSet("AL052024", issuance, 0, nil)
		assert.Error(t, err)
	})

	t.Run("footprint flattens all parts", func(t *testing.T) {
		set, err := NewEnvelopeSet("AL052024", issuance, 52, []HazardEnvelope{
			{ThresholdKt: 34, Member: 1, Geometry: swath},
			{ThresholdKt: 64, Member: 2, Geometry: geo.MultiPolygon{geo.Rect(-76, 18, -74, 19), geo.Rect(-73, 18, -72, 19)}},
		})
		require.NoError(t, err)
		assert.Len(t, set.Footprint(), 3)
	})
}
