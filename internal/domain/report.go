package domain

import (
	"fmt"
	"math"
	"time"
)

// reportFilenameLayout keeps filenames sortable and free of separators that
// upset object stores.
const reportFilenameLayout = "20060102T1504Z"

// Measure is one reported quantity with its change since the previous issuance.
type Measure struct {
	Value   float64 `json:"value"`
	Delta   float64 `json:"delta"`
	Percent string  `json:"percent_change"`
}

// NewMeasure pairs a current value with its diff. NaN values are reported as
// zero so the report stays valid JSON.
func NewMeasure(value float64, change Change) Measure {
	return Measure{
		Value:   finiteOrZero(value),
		Delta:   finiteOrZero(change.Delta),
		Percent: change.Percent,
	}
}

// Totals are the headline expected impacts at the key threshold.
type Totals struct {
	Population     Measure `json:"population"`
	Children       Measure `json:"children"`
	Schools        Measure `json:"schools"`
	HealthCenters  Measure `json:"health_centers"`
	BuiltSurfaceM2 Measure `json:"built_surface_m2"`
}

// ThresholdBreakdown is the region-wide expected impact at one threshold.
type ThresholdBreakdown struct {
	ThresholdKt   int     `json:"threshold_kt"`
	Category      string  `json:"category"`
	Population    Measure `json:"population"`
	Children      Measure `json:"children"`
	Schools       Measure `json:"schools"`
	HealthCenters Measure `json:"health_centers"`
}

// AdminThresholdValue is one admin region's expected impact at one threshold.
type AdminThresholdValue struct {
	ThresholdKt int     `json:"threshold_kt"`
	Population  Measure `json:"population"`
	Children    Measure `json:"children"`
}

// AdminReport is one admin region's section of the report.
type AdminReport struct {
	AdminID    string                `json:"admin_id"`
	Name       string                `json:"name,omitempty"`
	Severity   SeverityScores        `json:"severity"`
	Thresholds []AdminThresholdValue `json:"thresholds"`
}

// Report is the full impact report for one (region, storm, issuance).
type Report struct {
	StormID          string    `json:"storm_id"`
	StormName        string    `json:"storm_name"`
	RegionCode       string    `json:"region"`
	IssuedAt         time.Time `json:"issued_at"`
	IssuedLabel      string    `json:"issued_label"`
	NextIssuanceAt   time.Time `json:"next_issuance_at"`
	GeneratedAt      time.Time `json:"generated_at"`
	Category         string    `json:"category"`
	ExpectedLandfall string    `json:"expected_landfall"`
	EnsembleSize     int       `json:"ensemble_size"`

	Totals         Totals               `json:"totals"`
	ChildrenChange string               `json:"children_change"`
	Thresholds     []ThresholdBreakdown `json:"thresholds"`
	Vulnerability  VulnerabilitySplit   `json:"vulnerability"`

	TopSchools       []RankedFacility `json:"top_schools"`
	TopHealthCenters []RankedFacility `json:"top_health_centers"`

	Admins []AdminReport `json:"admin_regions"`
}

// Filename returns the canonical file name for the report:
// {region}_{storm}_{issuance}.json.
func (r *Report) Filename() string {
	return fmt.Sprintf("%s_%s_%s.json", r.RegionCode, r.StormID, r.IssuedAt.UTC().Format(reportFilenameLayout))
}

// Validate checks the structural invariants every published report must hold.
func (r *Report) Validate() error {
	if r.StormID == "" {
		return fmt.Errorf("report missing storm id")
	}
	if r.RegionCode == "" {
		return fmt.Errorf("report missing region code")
	}
	if r.IssuedAt.IsZero() {
		return fmt.Errorf("report missing issuance time")
	}
	if r.EnsembleSize <= 0 {
		return fmt.Errorf("report has non-positive ensemble size %d", r.EnsembleSize)
	}

	prev := 0
	for _, tb := range r.Thresholds {
		if !ValidThreshold(tb.ThresholdKt) {
			return fmt.Errorf("report has unknown threshold %d kt", tb.ThresholdKt)
		}
		if tb.ThresholdKt <= prev {
			return fmt.Errorf("report thresholds not strictly ascending at %d kt", tb.ThresholdKt)
		}
		prev = tb.ThresholdKt
	}

	for i := 1; i < len(r.Admins); i++ {
		if r.Admins[i].AdminID <= r.Admins[i-1].AdminID {
			return fmt.Errorf("report admin regions not sorted at %q", r.Admins[i].AdminID)
		}
	}

	if len(r.TopSchools) > TopFacilityCount || len(r.TopHealthCenters) > TopFacilityCount {
		return fmt.Errorf("report lists more than %d top facilities", TopFacilityCount)
	}
	for _, f := range append(append([]RankedFacility{}, r.TopSchools...), r.TopHealthCenters...) {
		if f.Probability <= 0 || f.Probability > 1 || math.IsNaN(f.Probability) {
			return fmt.Errorf("facility %q has probability %v outside (0, 1]", f.Facility.Name, f.Probability)
		}
	}
	return nil
}
