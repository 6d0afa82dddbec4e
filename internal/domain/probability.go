package domain

// CoverageCounter reports how many distinct ensemble members cover a zone.
// The envelopes passed in all belong to one threshold.
type CoverageCounter interface {
	CoveredMembers(zone Zone, envelopes []HazardEnvelope) int
}

// ProbabilityRow is one zone's exceedance probability at a single threshold.
type ProbabilityRow struct {
	Zone        Zone
	Probability float64
}

// ProbabilityTable holds per-zone exceedance probabilities for one threshold.
type ProbabilityTable struct {
	StormID     string
	ThresholdKt int
	Rows        []ProbabilityRow
}

// Sum returns the total probability mass in the table. A zero sum means the
// threshold touches no zone and higher thresholds cannot either.
func (t ProbabilityTable) Sum() float64 {
	total := 0.0
	for _, r := range t.Rows {
		total += r.Probability
	}
	return total
}

// ComputeExceedance builds the exceedance probability table for one
// threshold: each zone's probability is the count of distinct ensemble
// members whose envelope covers it, divided by the ensemble size. Zones keep
// their row even at probability zero so downstream views stay aligned.
func ComputeExceedance(zones []Zone, set *EnvelopeSet, thresholdKt int, counter CoverageCounter) ProbabilityTable {
	table := ProbabilityTable{
		StormID:     set.StormID,
		ThresholdKt: thresholdKt,
		Rows:        make([]ProbabilityRow, 0, len(zones)),
	}
	envelopes := set.AtThreshold(thresholdKt)
	for _, z := range zones {
		covered := 0
		if len(envelopes) > 0 {
			covered = counter.CoveredMembers(z, envelopes)
		}
		if covered > set.EnsembleSize {
			covered = set.EnsembleSize
		}
		table.Rows = append(table.Rows, ProbabilityRow{
			Zone:        z,
			Probability: float64(covered) / float64(set.EnsembleSize),
		})
	}
	return table
}
