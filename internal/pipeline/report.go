package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
)

// regionTotals are the report-level quantities extracted from one view.
type regionTotals struct {
	population    float64
	children      float64
	schools       float64
	healthCenters float64
	builtSurface  float64
}

// buildReport assembles the full report for one (region, storm, issuance)
// from the computed views, diffed against the previous issuance when one was
// materialized.
func (e *Engine) buildReport(ctx context.Context, region string, ref domain.ForecastRef, views []domain.ImpactView, tables map[int]domain.ProbabilityTable, track []domain.TrackPoint, boundary domain.RegionBoundary, logger *slog.Logger) (*domain.Report, error) {
	thresholds := make([]int, 0, len(views))
	for _, v := range views {
		thresholds = append(thresholds, v.ThresholdKt)
	}
	sort.Ints(thresholds)

	byThreshold := make(map[int]domain.ImpactView, len(views))
	for _, v := range views {
		byThreshold[v.ThresholdKt] = v
	}

	// Previous-issuance views, where materialized.
	prevIssuance := domain.PreviousIssuance(ref.Issuance)
	prevViews := make(map[int]domain.ImpactView)
	for _, t := range thresholds {
		prev, found, err := e.store.ReadView(region, ref.StormID, prevIssuance, t)
		if err != nil {
			return nil, fmt.Errorf("reading previous view at %d kt: %w", t, err)
		}
		if found {
			prevViews[t] = prev
		}
	}

	keyThreshold, ok := domain.ReferenceThreshold(thresholds)
	if !ok {
		return nil, fmt.Errorf("no thresholds to report on")
	}
	keyView := byThreshold[keyThreshold]

	severity, err := domain.ComputeSeverity(views)
	if err != nil {
		return nil, fmt.Errorf("computing severity: %w", err)
	}
	if err := e.store.WriteSeverity(region, ref.StormID, ref.Issuance, severity); err != nil {
		return nil, fmt.Errorf("writing severity table: %w", err)
	}

	rollups := make(map[int][]domain.AdminBreakdown, len(thresholds))
	for _, t := range thresholds {
		rollups[t] = domain.RollUpByAdmin(byThreshold[t])
		if err := e.store.WriteAdminRollup(region, ref.StormID, ref.Issuance, t, rollups[t]); err != nil {
			return nil, fmt.Errorf("writing admin roll-up at %d kt: %w", t, err)
		}
	}

	report := &domain.Report{
		StormID:          ref.StormID,
		StormName:        ref.StormName,
		RegionCode:       region,
		IssuedAt:         ref.Issuance.UTC(),
		IssuedLabel:      ref.Issuance.UTC().Format(domain.LandfallTimeLayout),
		NextIssuanceAt:   domain.NextIssuance(ref.Issuance).UTC(),
		GeneratedAt:      domain.Now().UTC(),
		Category:         domain.PeakCategory(track),
		ExpectedLandfall: domain.ExpectedLandfall(track, boundary.Geometry),
		EnsembleSize:     ref.EnsembleSize,
		Vulnerability:    domain.Vulnerability(keyView),
	}

	// Headline totals at the key threshold. The previous report, when one was
	// published, is the authoritative baseline; its key threshold may differ
	// from this issuance's when the storm weakened past 34 kt. Views are the
	// fallback for issuances that built views but produced no report.
	current := totalsOf(keyView)
	previous, hasPrev := prevTotals(prevViews, keyThreshold)
	if prevReport, found, err := e.store.ReadReport(region, ref.StormID, prevIssuance); err != nil {
		return nil, fmt.Errorf("reading previous report: %w", err)
	} else if found {
		previous = reportTotals(prevReport)
		hasPrev = true
	}
	popChange := domain.DiffValue(current.population, previous.population, hasPrev)
	childrenChange := domain.DiffValue(current.children, previous.children, hasPrev)
	report.Totals = domain.Totals{
		Population:     domain.NewMeasure(current.population, popChange),
		Children:       domain.NewMeasure(current.children, childrenChange),
		Schools:        domain.NewMeasure(current.schools, domain.DiffValue(current.schools, previous.schools, hasPrev)),
		HealthCenters:  domain.NewMeasure(current.healthCenters, domain.DiffValue(current.healthCenters, previous.healthCenters, hasPrev)),
		BuiltSurfaceM2: domain.NewMeasure(current.builtSurface, domain.DiffValue(current.builtSurface, previous.builtSurface, hasPrev)),
	}
	report.ChildrenChange = domain.FormatSignedCount(childrenChange.Delta)

	// Per-threshold breakdowns, ascending.
	for _, t := range thresholds {
		cur := totalsOf(byThreshold[t])
		prev, has := prevTotals(prevViews, t)
		report.Thresholds = append(report.Thresholds, domain.ThresholdBreakdown{
			ThresholdKt:   t,
			Category:      domain.CategoryName(float64(t)),
			Population:    domain.NewMeasure(cur.population, domain.DiffValue(cur.population, prev.population, has)),
			Children:      domain.NewMeasure(cur.children, domain.DiffValue(cur.children, prev.children, has)),
			Schools:       domain.NewMeasure(cur.schools, domain.DiffValue(cur.schools, prev.schools, has)),
			HealthCenters: domain.NewMeasure(cur.healthCenters, domain.DiffValue(cur.healthCenters, prev.healthCenters, has)),
		})
	}

	report.Admins = buildAdminSections(rollups, prevViews, thresholds, severity)

	keyTable := tables[keyThreshold]
	report.TopSchools = e.rankFacilities(ctx, region, domain.FacilitySchool, keyTable, logger)
	report.TopHealthCenters = e.rankFacilities(ctx, region, domain.FacilityHealthCenter, keyTable, logger)

	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("assembled report invalid: %w", err)
	}
	return report, nil
}

// buildAdminSections diffs each threshold's admin roll-up against the
// previous issuance's.
func buildAdminSections(rollups map[int][]domain.AdminBreakdown, prevViews map[int]domain.ImpactView, thresholds []int, severity map[string]domain.SeverityScores) []domain.AdminReport {
	type adminKey struct {
		admin       string
		thresholdKt int
	}
	currentVals := make(map[adminKey]regionTotals)
	prevVals := make(map[adminKey]regionTotals)
	prevHas := make(map[int]bool)
	adminIDs := make(map[string]bool)

	for _, t := range thresholds {
		for _, b := range rollups[t] {
			currentVals[adminKey{b.AdminID, t}] = breakdownTotals(b)
			adminIDs[b.AdminID] = true
		}
		prev, has := prevViews[t]
		prevHas[t] = has
		if has {
			for _, b := range domain.RollUpByAdmin(prev) {
				prevVals[adminKey{b.AdminID, t}] = breakdownTotals(b)
			}
		}
	}
	for admin := range severity {
		adminIDs[admin] = true
	}

	sorted := make([]string, 0, len(adminIDs))
	for id := range adminIDs {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	out := make([]domain.AdminReport, 0, len(sorted))
	for _, admin := range sorted {
		section := domain.AdminReport{
			AdminID:  admin,
			Severity: severity[admin],
		}
		for _, t := range thresholds {
			cur := currentVals[adminKey{admin, t}]
			prev := prevVals[adminKey{admin, t}]
			section.Thresholds = append(section.Thresholds, domain.AdminThresholdValue{
				ThresholdKt: t,
				Population:  domain.NewMeasure(cur.population, domain.DiffValue(cur.population, prev.population, prevHas[t])),
				Children:    domain.NewMeasure(cur.children, domain.DiffValue(cur.children, prev.children, prevHas[t])),
			})
		}
		out = append(out, section)
	}
	return out
}

// rankFacilities fetches one facility kind and ranks it against the key
// threshold's probability table. Facility data is enrichment: when both the
// API and the cache fail the section is left empty rather than failing the
// region.
func (e *Engine) rankFacilities(ctx context.Context, region string, kind domain.FacilityKind, table domain.ProbabilityTable, logger *slog.Logger) []domain.RankedFacility {
	list, outcome, err := e.facilities.Facilities(ctx, region, kind)
	e.metrics.FacilityFetches.WithLabelValues(string(kind), string(outcome)).Inc()
	if err != nil {
		logger.Warn("facility data unavailable, section omitted", "kind", kind, "error", err)
		return nil
	}
	return domain.TopFacilities(list, table, domain.TopFacilityCount)
}

// totalsOf extracts the report-level quantities from a view. A child is
// anyone of school age plus infants; missing components count as zero.
func totalsOf(view domain.ImpactView) regionTotals {
	t := view.Totals()
	return regionTotals{
		population:    nanToZero(t.Get(domain.AttrPopulation)),
		children:      nanToZero(t.Get(domain.AttrSchoolAge)) + nanToZero(t.Get(domain.AttrInfants)),
		schools:       nanToZero(t.Get(domain.AttrSchools)),
		healthCenters: nanToZero(t.Get(domain.AttrHealthCenters)),
		builtSurface:  nanToZero(t.Get(domain.AttrBuiltSurface)),
	}
}

// reportTotals lifts a published report's headline totals back into the
// comparable form.
func reportTotals(r *domain.Report) regionTotals {
	return regionTotals{
		population:    r.Totals.Population.Value,
		children:      r.Totals.Children.Value,
		schools:       r.Totals.Schools.Value,
		healthCenters: r.Totals.HealthCenters.Value,
		builtSurface:  r.Totals.BuiltSurfaceM2.Value,
	}
}

func breakdownTotals(b domain.AdminBreakdown) regionTotals {
	return regionTotals{
		population:    nanToZero(b.Values.Get(domain.AttrPopulation)),
		children:      nanToZero(b.Values.Get(domain.AttrSchoolAge)) + nanToZero(b.Values.Get(domain.AttrInfants)),
		schools:       nanToZero(b.Values.Get(domain.AttrSchools)),
		healthCenters: nanToZero(b.Values.Get(domain.AttrHealthCenters)),
		builtSurface:  nanToZero(b.Values.Get(domain.AttrBuiltSurface)),
	}
}

// prevTotals returns the previous issuance's totals at a threshold, and
// whether that view exists at all.
func prevTotals(prevViews map[int]domain.ImpactView, thresholdKt int) (regionTotals, bool) {
	prev, ok := prevViews[thresholdKt]
	if !ok {
		return regionTotals{}, false
	}
	return totalsOf(prev), true
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
