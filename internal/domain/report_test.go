package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validReport() *Report {
	return &Report{
		StormID:      "AL052024",
		StormName:    "ERNESTO",
		RegionCode:   "JAM",
		IssuedAt:     testIssuance,
		IssuedLabel:  testIssuance.Format(LandfallTimeLayout),
		GeneratedAt:  testIssuance.Add(20 * time.Minute),
		Category:     "Category 2 Hurricane",
		EnsembleSize: 52,
		Thresholds: []ThresholdBreakdown{
			{ThresholdKt: 34, Category: "Tropical Storm"},
			{ThresholdKt: 64, Category: "Category 1 Hurricane"},
		},
		Admins: []AdminReport{
			{AdminID: "JAM-01"},
			{AdminID: "JAM-02"},
		},
	}
}

func TestReportFilename(t *testing.T) {
	r := validReport()
	assert.Equal(t, "JAM_AL052024_20240605T1200Z.json", r.Filename())
}

func TestReportValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validReport().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Report)
		want   string
	}{
		{"missing storm", func(r *Report) { r.StormID = "" }, "storm id"},
		{"missing region", func(r *Report) { r.RegionCode = "" }, "region code"},
		{"zero issuance", func(r *Report) { r.IssuedAt = time.Time{} }, "issuance"},
		{"bad ensemble", func(r *Report) { r.EnsembleSize = 0 }, "ensemble"},
		{"unknown threshold", func(r *Report) { r.Thresholds[0].ThresholdKt = 42 }, "unknown threshold"},
		{"unordered thresholds", func(r *Report) {
			r.Thresholds[0], r.Thresholds[1] = r.Thresholds[1], r.Thresholds[0]
		}, "ascending"},
		{"unsorted admins", func(r *Report) {
			r.Admins[0], r.Admins[1] = r.Admins[1], r.Admins[0]
		}, "sorted"},
		{"too many facilities", func(r *Report) {
			r.TopSchools = make([]RankedFacility, TopFacilityCount+1)
		}, "top facilities"},
		{"bad facility probability", func(r *Report) {
			r.TopSchools = []RankedFacility{{Facility: Facility{Name: "X"}, Probability: 1.5}}
		}, "probability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(r)
			assert.ErrorContains(t, r.Validate(), tt.want)
		})
	}
}

func TestNewMeasure(t *testing.T) {
	t.Run("passes finite values through", func(t *testing.T) {
		m := NewMeasure(1200, Change{Delta: 200, Percent: "+20.0%"})
		assert.Equal(t, Measure{Value: 1200, Delta: 200, Percent: "+20.0%"}, m)
	})

	t.Run("NaN becomes zero so reports marshal", func(t *testing.T) {
		m := NewMeasure(nan(), Change{Delta: nan(), Percent: NoChangeMarker})
		assert.Zero(t, m.Value)
		assert.Zero(t, m.Delta)

		r := validReport()
		r.Totals.Population = m
		_, err := json.Marshal(r)
		require.NoError(t, err)
	})
}
