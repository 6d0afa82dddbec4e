package domain

import (
	"math"
	"sort"
)

// severityScale keeps composite index values in a human-readable range.
const severityScale = 1e-6

// SeverityScores is the composite severity index of one admin region, split
// by demographic group. The raw columns weight everyone in a covered zone;
// the Exp columns weight by exceedance probability instead.
type SeverityScores struct {
	Population float64 `json:"population"`
	Children   float64 `json:"children"`
	SchoolAge  float64 `json:"school_age"`
	Infants    float64 `json:"infants"`

	ExpPopulation float64 `json:"expected_population"`
	ExpChildren   float64 `json:"expected_children"`
	ExpSchoolAge  float64 `json:"expected_school_age"`
	ExpInfants    float64 `json:"expected_infants"`
}

func (s *SeverityScores) add(o SeverityScores) {
	s.Population += o.Population
	s.Children += o.Children
	s.SchoolAge += o.SchoolAge
	s.Infants += o.Infants
	s.ExpPopulation += o.ExpPopulation
	s.ExpChildren += o.ExpChildren
	s.ExpSchoolAge += o.ExpSchoolAge
	s.ExpInfants += o.ExpInfants
}

// ComputeSeverity rolls the per-threshold impact views into one composite
// severity index per admin region.
//
// For each zone and demographic group the thresholds are walked in ascending
// order and only the marginal exposure new to each threshold is credited,
// weighted by the square of the wind speed. People exposed at several
// thresholds are therefore counted once, at the first threshold that reaches
// them: a zone whose whole population is covered at both 34 kt and 64 kt
// contributes population * 34^2, not the sum of both bands.
//
// Every row must carry an admin assignment; a missing one is a ConfigError
// because it would silently drop exposure from the roll-up.
func ComputeSeverity(views []ImpactView) (map[string]SeverityScores, error) {
	ordered := make([]ImpactView, len(views))
	copy(ordered, views)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ThresholdKt < ordered[j].ThresholdKt })

	type zoneState struct {
		adminID string
		prev    [8]float64
		index   [8]float64
	}
	states := make(map[string]*zoneState)

	for _, view := range ordered {
		weight := float64(view.ThresholdKt) * float64(view.ThresholdKt) * severityScale
		for _, row := range view.Rows {
			if row.AdminID == "" {
				return nil, &ConfigError{Msg: "zone " + row.ZoneID + " has no admin region assignment"}
			}
			st, ok := states[row.ZoneID]
			if !ok {
				st = &zoneState{adminID: row.AdminID}
				states[row.ZoneID] = st
			}

			for i, v := range groupValues(row) {
				m := v - st.prev[i]
				if m > 0 {
					st.index[i] += m * weight
				}
				st.prev[i] = v
			}
		}
	}

	result := make(map[string]SeverityScores)
	for _, st := range states {
		scores := result[st.adminID]
		scores.add(SeverityScores{
			Population:    st.index[0],
			Children:      st.index[1],
			SchoolAge:     st.index[2],
			Infants:       st.index[3],
			ExpPopulation: st.index[4],
			ExpChildren:   st.index[5],
			ExpSchoolAge:  st.index[6],
			ExpInfants:    st.index[7],
		})
		result[st.adminID] = scores
	}
	return result, nil
}

// groupValues returns the row's exposure per demographic group at its
// threshold: indices 0-3 are the raw variant (full baseline when any member
// covers the zone), 4-7 the probability-weighted variant. Unknown baselines
// count as zero exposure.
func groupValues(row ImpactRow) [8]float64 {
	expPop := finiteOrZero(row.Expected.Get(AttrPopulation))
	expSchoolAge := finiteOrZero(row.Expected.Get(AttrSchoolAge))
	expInfants := finiteOrZero(row.Expected.Get(AttrInfants))
	expChildren := expSchoolAge + expInfants

	var rawPop, rawSchoolAge, rawInfants float64
	if row.Probability > 0 {
		rawPop = expPop / row.Probability
		rawSchoolAge = expSchoolAge / row.Probability
		rawInfants = expInfants / row.Probability
	}

	return [8]float64{
		rawPop, rawSchoolAge + rawInfants, rawSchoolAge, rawInfants,
		expPop, expChildren, expSchoolAge, expInfants,
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
