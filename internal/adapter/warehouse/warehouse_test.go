package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeFromRow(t *testing.T) {
	t.Run("polygon", func(t *testing.T) {
		raw := []byte(`{"type":"Polygon","coordinates":[[[-77,17],[-76,17],[-76,18],[-77,17]]]}`)
		env, err := envelopeFromRow(34, 7, raw)
		require.NoError(t, err)

		assert.Equal(t, 34, env.ThresholdKt)
		assert.Equal(t, 7, env.Member)
		assert.Len(t, env.Geometry, 1)
	})

	t.Run("multipolygon", func(t *testing.T) {
		raw := []byte(`{"type":"MultiPolygon","coordinates":[
			[[[-77,17],[-76,17],[-76,18],[-77,17]]],
			[[[-74,17],[-73,17],[-73,18],[-74,17]]]
		]}`)
		env, err := envelopeFromRow(64, 51, raw)
		require.NoError(t, err)
		assert.Len(t, env.Geometry, 2)
	})

	t.Run("bad geometry", func(t *testing.T) {
		_, err := envelopeFromRow(34, 1, []byte(`{"type":"Point","coordinates":[1,2]}`))
		assert.Error(t, err)
	})
}
