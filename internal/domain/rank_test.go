package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

func TestTopFacilities(t *testing.T) {
	table := tableFor(34,
		ProbabilityRow{Zone: testZone("t1", "A1", -77.0, 18.0, 0), Probability: 0.9},
		ProbabilityRow{Zone: testZone("t2", "A1", -76.8, 18.0, 0), Probability: 0.4},
		ProbabilityRow{Zone: testZone("t3", "A1", -76.6, 18.0, 0), Probability: 0},
	)
	school := func(id, name string, lon, lat float64) Facility {
		return Facility{ID: id, Name: name, Kind: FacilitySchool, Location: geo.Point{Lon: lon, Lat: lat}}
	}

	t.Run("ranks by zone probability", func(t *testing.T) {
		got := TopFacilities([]Facility{
			school("s1", "Low School", -76.75, 18.05),
			school("s2", "High School", -76.95, 18.05),
		}, table, TopFacilityCount)
		require.Len(t, got, 2)

		assert.Equal(t, "s2", got[0].Facility.ID)
		assert.Equal(t, 0.9, got[0].Probability)
		assert.Equal(t, 0.4, got[1].Probability)
		assert.Equal(t, -76.95, got[0].Facility.Lon)
	})

	t.Run("zero probability and out-of-area excluded", func(t *testing.T) {
		got := TopFacilities([]Facility{
			school("s1", "Dry School", -76.55, 18.05),  // zero-probability zone
			school("s2", "Far School", -50.0, 18.05),   // outside every zone
		}, table, TopFacilityCount)
		assert.Empty(t, got)
	})

	t.Run("capped at n, ties keep input order", func(t *testing.T) {
		facilities := []Facility{
			school("s3", "C School", -76.96, 18.01),
			school("s1", "A School", -76.94, 18.02),
			school("s2", "B School", -76.95, 18.03),
		}
		got := TopFacilities(facilities, table, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "C School", got[0].Facility.Name)
		assert.Equal(t, "A School", got[1].Facility.Name)
	})
}

func TestReferenceThreshold(t *testing.T) {
	tests := []struct {
		name      string
		available []int
		want      int
		ok        bool
	}{
		{"key present", []int{64, 34, 96}, 34, true},
		{"key absent picks lowest", []int{96, 64}, 64, true},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReferenceThreshold(tt.available)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
