package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// HazardEnvelope is one ensemble member's wind-swath polygon at a single
// threshold: the area that member forecasts to see sustained winds at or
// above ThresholdKt.
type HazardEnvelope struct {
	ThresholdKt int
	Member      int
	Geometry    geo.MultiPolygon
}

// EnvelopeSet groups all envelopes of one storm forecast issuance, indexed by
// threshold.
type EnvelopeSet struct {
	StormID      string
	Issuance     time.Time
	EnsembleSize int

	byThreshold map[int][]HazardEnvelope
}

// NewEnvelopeSet builds an EnvelopeSet from raw envelopes. EnsembleSize must
// be positive and every envelope must carry a known threshold.
func NewEnvelopeSet(stormID string, issuance time.Time, ensembleSize int, envelopes []HazardEnvelope) (*EnvelopeSet, error) {
	if ensembleSize <= 0 {
		return nil, fmt.Errorf("ensemble size must be positive, got %d", ensembleSize)
	}
	set := &EnvelopeSet{
		StormID:      stormID,
		Issuance:     issuance,
		EnsembleSize: ensembleSize,
		byThreshold:  make(map[int][]HazardEnvelope),
	}
	for _, e := range envelopes {
		if !ValidThreshold(e.ThresholdKt) {
			return nil, fmt.Errorf("envelope for storm %s has unknown threshold %d kt", stormID, e.ThresholdKt)
		}
		set.byThreshold[e.ThresholdKt] = append(set.byThreshold[e.ThresholdKt], e)
	}
	return set, nil
}

// Thresholds returns the thresholds present in the set, ascending.
func (s *EnvelopeSet) Thresholds() []int {
	out := make([]int, 0, len(s.byThreshold))
	for t := range s.byThreshold {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// AtThreshold returns all member envelopes at the given threshold.
func (s *EnvelopeSet) AtThreshold(t int) []HazardEnvelope {
	return s.byThreshold[t]
}

// Footprint returns the union of all envelope parts across all thresholds and
// members, as a flat multipolygon. Used for the affected-region gate, where
// only intersection matters.
func (s *EnvelopeSet) Footprint() geo.MultiPolygon {
	var out geo.MultiPolygon
	for _, envs := range s.byThreshold {
		for _, e := range envs {
			out = append(out, e.Geometry...)
		}
	}
	return out
}
