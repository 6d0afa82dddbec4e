package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedImpacts(t *testing.T) {
	t.Run("scales baseline by probability", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		z.Baseline[AttrSchools] = 4

		view := ExpectedImpacts(tableFor(34, ProbabilityRow{Zone: z, Probability: 0.25}))
		require.Len(t, view.Rows, 1)

		assert.Equal(t, 250.0, view.Rows[0].Expected.Get(AttrPopulation))
		assert.Equal(t, 1.0, view.Rows[0].Expected.Get(AttrSchools))
		assert.Equal(t, "A1", view.Rows[0].AdminID)
		assert.Equal(t, 34, view.ThresholdKt)
	})

	t.Run("missing baseline stays NaN", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		// num_hcs was never measured for this tile.
		view := ExpectedImpacts(tableFor(34, ProbabilityRow{Zone: z, Probability: 0.5}))

		assert.True(t, math.IsNaN(view.Rows[0].Expected.Get(AttrHealthCenters)))
	})

	t.Run("NaN survives zero probability", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		delete(z.Baseline, AttrPopulation)
		view := ExpectedImpacts(tableFor(34, ProbabilityRow{Zone: z, Probability: 0}))

		assert.True(t, math.IsNaN(view.Rows[0].Expected.Get(AttrPopulation)),
			"unknown baseline must not become a measured zero")
	})

	t.Run("keeps zero-probability rows", func(t *testing.T) {
		table := tableFor(34,
			ProbabilityRow{Zone: testZone("t1", "A1", -77, 18, 1000), Probability: 0.5},
			ProbabilityRow{Zone: testZone("t2", "A1", -76.9, 18, 600), Probability: 0},
		)
		view := ExpectedImpacts(table)
		assert.Len(t, view.Rows, 2)
		assert.Zero(t, view.Rows[1].Expected.Get(AttrPopulation))
	})
}

func TestImpactViewTotals(t *testing.T) {
	t.Run("sums skipping NaN", func(t *testing.T) {
		z1 := testZone("t1", "A1", -77, 18, 1000)
		z1.Baseline[AttrSchools] = 2
		z2 := testZone("t2", "A1", -76.9, 18, 600)
		// z2 has no school count.

		view := ExpectedImpacts(tableFor(34,
			ProbabilityRow{Zone: z1, Probability: 0.5},
			ProbabilityRow{Zone: z2, Probability: 1},
		))
		totals := view.Totals()

		assert.Equal(t, 1100.0, totals.Get(AttrPopulation))
		assert.Equal(t, 1.0, totals.Get(AttrSchools))
	})

	t.Run("attribute with no values totals NaN", func(t *testing.T) {
		view := ExpectedImpacts(tableFor(34,
			ProbabilityRow{Zone: testZone("t1", "A1", -77, 18, 1000), Probability: 0.5},
		))
		assert.True(t, math.IsNaN(view.Totals().Get(AttrBuiltSurface)))
	})

	t.Run("mean attributes excluded", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		z.Baseline[AttrRWI] = -0.8
		view := ExpectedImpacts(tableFor(34, ProbabilityRow{Zone: z, Probability: 1}))

		_, ok := view.Totals()[AttrRWI]
		assert.False(t, ok)
	})
}
