package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// viewAt builds a single-zone impact view at a threshold.
func viewAt(thresholdKt int, zone Zone, probability float64) ImpactView {
	return ExpectedImpacts(tableFor(thresholdKt, ProbabilityRow{Zone: zone, Probability: probability}))
}

func TestComputeSeverity(t *testing.T) {
	t.Run("exposure credited once at first threshold", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		scores, err := ComputeSeverity([]ImpactView{
			viewAt(34, z, 1),
			viewAt(64, z, 1),
		})
		require.NoError(t, err)

		// Full coverage at 34 kt and 64 kt counts the 1000 people once,
		// at the 34 kt weight: 1000 * 34^2 * 1e-6.
		assert.InDelta(t, 1.156, scores["A1"].Population, 1e-9)
		assert.InDelta(t, 1.156, scores["A1"].ExpPopulation, 1e-9)
	})

	t.Run("single high threshold credited at its own weight", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		scores, err := ComputeSeverity([]ImpactView{
			viewAt(34, z, 0),
			viewAt(64, z, 1),
		})
		require.NoError(t, err)
		assert.InDelta(t, 4.096, scores["A1"].Population, 1e-9)
	})

	t.Run("expected variant weights by probability", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		scores, err := ComputeSeverity([]ImpactView{viewAt(34, z, 0.5)})
		require.NoError(t, err)

		assert.InDelta(t, 1.156, scores["A1"].Population, 1e-9, "raw variant counts everyone in a covered zone")
		assert.InDelta(t, 0.578, scores["A1"].ExpPopulation, 1e-9)
	})

	t.Run("children split into school age and infants", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		z.Baseline[AttrSchoolAge] = 200
		z.Baseline[AttrInfants] = 50

		scores, err := ComputeSeverity([]ImpactView{viewAt(34, z, 1)})
		require.NoError(t, err)

		w := 34.0 * 34.0 * 1e-6
		assert.InDelta(t, 200*w, scores["A1"].SchoolAge, 1e-9)
		assert.InDelta(t, 50*w, scores["A1"].Infants, 1e-9)
		assert.InDelta(t, 250*w, scores["A1"].Children, 1e-9)
	})

	t.Run("missing baselines contribute zero", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		delete(z.Baseline, AttrPopulation)

		scores, err := ComputeSeverity([]ImpactView{viewAt(34, z, 1)})
		require.NoError(t, err)
		assert.Zero(t, scores["A1"].Population)
	})

	t.Run("zones sum within admin", func(t *testing.T) {
		views := []ImpactView{ExpectedImpacts(tableFor(34,
			ProbabilityRow{Zone: testZone("t1", "A1", -77, 18, 1000), Probability: 1},
			ProbabilityRow{Zone: testZone("t2", "A1", -76.9, 18, 500), Probability: 1},
			ProbabilityRow{Zone: testZone("t3", "A2", -76.8, 18, 200), Probability: 1},
		))}
		scores, err := ComputeSeverity(views)
		require.NoError(t, err)

		w := 34.0 * 34.0 * 1e-6
		assert.InDelta(t, 1500*w, scores["A1"].Population, 1e-9)
		assert.InDelta(t, 200*w, scores["A2"].Population, 1e-9)
	})

	t.Run("shrinking coverage never subtracts", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		scores, err := ComputeSeverity([]ImpactView{
			viewAt(34, z, 0.8),
			viewAt(64, z, 0.2),
		})
		require.NoError(t, err)

		// 800 expected at 34, shrinking to 200 at 64: only the first
		// threshold credits, and nothing is removed.
		assert.InDelta(t, 800*34*34*1e-6, scores["A1"].ExpPopulation, 1e-9)
	})

	t.Run("growing coverage credits the margin", func(t *testing.T) {
		z := testZone("t1", "A1", -77, 18, 1000)
		// Unusual but possible with differing member geometries.
		scores, err := ComputeSeverity([]ImpactView{
			viewAt(34, z, 0.2),
			viewAt(64, z, 0.5),
		})
		require.NoError(t, err)

		want := 200*34*34*1e-6 + 300*64*64*1e-6
		assert.InDelta(t, want, scores["A1"].ExpPopulation, 1e-9)
	})

	t.Run("missing admin assignment is a config error", func(t *testing.T) {
		z := testZone("t1", "", -77, 18, 1000)
		_, err := ComputeSeverity([]ImpactView{viewAt(34, z, 1)})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), "t1")
	})
}
