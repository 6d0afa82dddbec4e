package domain

import "math"

// ImpactRow is one zone's expected impact at a single threshold: every
// baseline attribute scaled by the zone's exceedance probability. Missing
// baselines stay NaN so they are never mistaken for measured zeros.
type ImpactRow struct {
	ZoneID      string
	AdminID     string
	Probability float64
	Expected    AttributeSet
}

// ImpactView is the expected-impact table for one (storm, threshold) pair.
type ImpactView struct {
	StormID     string
	ThresholdKt int
	Rows        []ImpactRow
}

// ExpectedImpacts scales each zone's baseline by its exceedance probability.
// The view keeps one row per probability-table row, including zero-probability
// zones, so views at different thresholds line up zone for zone.
func ExpectedImpacts(table ProbabilityTable) ImpactView {
	view := ImpactView{
		StormID:     table.StormID,
		ThresholdKt: table.ThresholdKt,
		Rows:        make([]ImpactRow, 0, len(table.Rows)),
	}
	for _, r := range table.Rows {
		expected := make(AttributeSet, len(r.Zone.Baseline))
		for _, a := range Attributes() {
			v := r.Zone.Baseline.Get(a)
			// NaN * 0 is NaN, which is what we want: an unknown baseline
			// stays unknown regardless of probability.
			expected[a] = v * r.Probability
		}
		view.Rows = append(view.Rows, ImpactRow{
			ZoneID:      r.Zone.ID,
			AdminID:     r.Zone.AdminID,
			Probability: r.Probability,
			Expected:    expected,
		})
	}
	return view
}

// Totals sums the expected values of every sum-kind attribute across the
// view, skipping NaN entries. An attribute with no observed value at all
// totals to NaN.
func (v ImpactView) Totals() AttributeSet {
	totals := make(AttributeSet)
	seen := make(map[Attribute]bool)
	for _, a := range Attributes() {
		if a.Kind() != KindSum {
			continue
		}
		totals[a] = 0
	}
	for _, row := range v.Rows {
		for a := range totals {
			val := row.Expected.Get(a)
			if math.IsNaN(val) {
				continue
			}
			totals[a] += val
			seen[a] = true
		}
	}
	for a := range totals {
		if !seen[a] {
			totals[a] = math.NaN()
		}
	}
	return totals
}
