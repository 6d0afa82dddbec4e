package domain

import "math"

// Wealth and settlement cutoffs for the vulnerability splits. RWI is the
// relative wealth index, negative values poorer than the national mean. SMOD
// is the degree-of-urbanization settlement class; 20 and above is urban.
const (
	SevereRWICutoff  = -1.0
	PovertyRWICutoff = -0.5
	UrbanSMODCutoff  = 20
)

// VulnerabilitySplit breaks the expected affected population down by wealth
// band and settlement type.
type VulnerabilitySplit struct {
	SeverePovertyPopulation float64 `json:"severe_poverty_population"`
	PovertyPopulation       float64 `json:"poverty_population"`
	UrbanPopulation         float64 `json:"urban_population"`
	RuralPopulation         float64 `json:"rural_population"`
}

// Vulnerability splits the view's expected population by the zone-level
// wealth index and settlement class. The expected attribute columns carry
// probability-scaled values, so the underlying zone value is recovered by
// dividing probability back out. Zones missing an index are left out of that
// index's split.
func Vulnerability(view ImpactView) VulnerabilitySplit {
	var split VulnerabilitySplit
	for _, row := range view.Rows {
		if row.Probability <= 0 {
			continue
		}
		pop := row.Expected.Get(AttrPopulation)
		if math.IsNaN(pop) {
			continue
		}

		if rwi := row.Expected.Get(AttrRWI) / row.Probability; !math.IsNaN(rwi) {
			if rwi <= SevereRWICutoff {
				split.SeverePovertyPopulation += pop
			}
			if rwi <= PovertyRWICutoff {
				split.PovertyPopulation += pop
			}
		}
		if smod := row.Expected.Get(AttrSMOD) / row.Probability; !math.IsNaN(smod) {
			if smod >= UrbanSMODCutoff {
				split.UrbanPopulation += pop
			} else {
				split.RuralPopulation += pop
			}
		}
	}
	return split
}
