package zonal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

func TestCentroidCounter(t *testing.T) {
	zone := domain.Zone{
		ID:       "t1",
		Geometry: geo.Rect(-77.0, 18.0, -76.9, 18.1),
	}
	covering := geo.MultiPolygon{geo.Rect(-78, 17, -76, 19)}
	missing := geo.MultiPolygon{geo.Rect(-60, 17, -58, 19)}

	t.Run("counts distinct covering members", func(t *testing.T) {
		n := CentroidCounter{}.CoveredMembers(zone, []domain.HazardEnvelope{
			{ThresholdKt: 34, Member: 1, Geometry: covering},
			{ThresholdKt: 34, Member: 2, Geometry: covering},
			{ThresholdKt: 34, Member: 3, Geometry: missing},
		})
		assert.Equal(t, 2, n)
	})

	t.Run("member counted once across multiple envelopes", func(t *testing.T) {
		n := CentroidCounter{}.CoveredMembers(zone, []domain.HazardEnvelope{
			{ThresholdKt: 34, Member: 1, Geometry: covering},
			{ThresholdKt: 34, Member: 1, Geometry: geo.MultiPolygon{geo.Rect(-77.5, 17.5, -76.5, 18.5)}},
		})
		assert.Equal(t, 1, n)
	})

	t.Run("no envelopes", func(t *testing.T) {
		assert.Zero(t, CentroidCounter{}.CoveredMembers(zone, nil))
	})
}
