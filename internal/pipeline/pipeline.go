// Package pipeline orchestrates one impact run: discover active forecasts,
// gate regions on the buffered boundary, compute per-threshold exceedance and
// expected-impact views, roll them up, diff against the previous issuance,
// and persist and publish the resulting reports.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/storm-impact-engine/internal/adapter/facilities"
	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/observability"
)

// Mode selects how the run discovers its regions.
type Mode string

const (
	// ModeInitialize enrolls the configured regions in the tracking tables
	// and processes them.
	ModeInitialize Mode = "initialize"
	// ModeUpdate processes the regions already enrolled in the tracking
	// tables, falling back to the configured regions when none are.
	ModeUpdate Mode = "update"
)

// ForecastSource provides forecast inputs and the region tracking tables.
type ForecastSource interface {
	ActiveForecasts(ctx context.Context, since time.Time) ([]domain.ForecastRef, error)
	FetchEnvelopeSet(ctx context.Context, ref domain.ForecastRef) (*domain.EnvelopeSet, error)
	FetchTrack(ctx context.Context, ref domain.ForecastRef) ([]domain.TrackPoint, error)
	ActiveRegions(ctx context.Context) ([]domain.RegionConfig, error)
	EnsureRegionTracked(ctx context.Context, code string, zoom int)
}

// ZoneSource provides region geometries and baseline attributes.
type ZoneSource interface {
	FetchZones(ctx context.Context, region string, zoom int) ([]domain.Zone, error)
	FetchAdminRegions(ctx context.Context, region string) ([]domain.AdminRegion, error)
	FetchBoundary(ctx context.Context, region string) (domain.RegionBoundary, error)
}

// FacilitySource provides ranked-facility inputs.
type FacilitySource interface {
	Facilities(ctx context.Context, region string, kind domain.FacilityKind) ([]domain.Facility, facilities.Outcome, error)
}

// DataStore persists views, aggregates, reports, materialized zones, and the
// state ledgers.
type DataStore interface {
	WriteView(region string, issuance time.Time, view domain.ImpactView) error
	ReadView(region, stormID string, issuance time.Time, thresholdKt int) (domain.ImpactView, bool, error)
	WriteSeverity(region, stormID string, issuance time.Time, severity map[string]domain.SeverityScores) error
	WriteAdminRollup(region, stormID string, issuance time.Time, thresholdKt int, breakdowns []domain.AdminBreakdown) error
	WriteReport(report *domain.Report) error
	ReadReport(region, stormID string, issuance time.Time) (*domain.Report, bool, error)
	WriteZones(region string, zoom int, zones []domain.Zone) error
	ReadZones(region string, zoom int) ([]domain.Zone, bool, error)
	IsInitialized(region string, zoom int) (bool, error)
	MarkInitialized(region string, zoom int) error
	IsProcessed(region, stormID string, issuance time.Time) (bool, error)
	MarkProcessed(region, stormID string, issuance time.Time) error
}

// ReportPublisher pushes finished reports downstream.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *domain.Report) error
}

// Options configure one run.
type Options struct {
	Mode Mode
	// Regions are the configured region codes, used directly in initialize
	// mode and as the fallback in update mode.
	Regions []string
	// ZoomLevel is the analysis tile zoom for regions without a tracked zoom.
	ZoomLevel int
	// Lookback bounds how far back active forecasts are discovered.
	Lookback time.Duration
	// StormID, when set, restricts the run to one storm.
	StormID string
	// Date, when set, restricts the run to forecasts issued on that UTC day.
	Date time.Time
	// Force reprocesses forecasts already marked done in the ledger and
	// rematerializes zones in initialize mode.
	Force bool
}

// RunSummary describes what one run did.
type RunSummary struct {
	RunID              string    `json:"run_id"`
	Mode               Mode      `json:"mode"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	ForecastsSeen      int       `json:"forecasts_seen"`
	RegionsInitialized int       `json:"regions_initialized"`
	RegionsEvaluated   int       `json:"regions_evaluated"`
	RegionsAffected    int       `json:"regions_affected"`
	RegionsSkipped     int       `json:"regions_skipped"`
	RegionsFailed      int       `json:"regions_failed"`
	ReportsWritten     int       `json:"reports_written"`
}

// Engine runs the impact pipeline.
type Engine struct {
	source     ForecastSource
	zones      ZoneSource
	facilities FacilitySource
	store      DataStore
	publisher  ReportPublisher
	counter    domain.CoverageCounter
	logger     *slog.Logger
	metrics    *observability.Metrics

	ready   atomic.Bool
	mu      sync.Mutex
	lastRun *RunSummary
}

// New creates an Engine. publisher may be nil when publishing is disabled.
func New(
	source ForecastSource,
	zones ZoneSource,
	facilitySource FacilitySource,
	store DataStore,
	publisher ReportPublisher,
	counter domain.CoverageCounter,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Engine {
	return &Engine{
		source:     source,
		zones:      zones,
		facilities: facilitySource,
		store:      store,
		publisher:  publisher,
		counter:    counter,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once the engine has completed a run.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// LastRun returns the most recent run summary.
func (e *Engine) LastRun() (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastRun == nil {
		return nil, false
	}
	return *e.lastRun, true
}

// Run executes one full pipeline pass. Failures in a single region are
// isolated: they are counted and logged, and the run continues with the next
// region.
func (e *Engine) Run(ctx context.Context, opts Options) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.NewString(),
		Mode:      opts.Mode,
		StartedAt: domain.Now().UTC(),
	}
	logger := e.logger.With("run_id", summary.RunID, "mode", opts.Mode)

	e.metrics.PipelineRunning.Set(1)
	defer e.metrics.PipelineRunning.Set(0)

	regions, err := e.resolveRegions(ctx, opts, logger)
	if err != nil {
		return summary, err
	}
	if opts.Mode == ModeInitialize {
		if err := e.materializeRegions(ctx, regions, opts.Force, &summary, logger); err != nil {
			return summary, err
		}
	}

	since := domain.Now().Add(-opts.Lookback)
	forecasts, err := e.source.ActiveForecasts(ctx, since)
	if err != nil {
		return summary, fmt.Errorf("discovering forecasts: %w", err)
	}
	if opts.StormID != "" {
		forecasts = filterStorm(forecasts, opts.StormID)
	}
	if !opts.Date.IsZero() {
		forecasts = filterDate(forecasts, opts.Date)
	}
	summary.ForecastsSeen = len(forecasts)
	logger.Info("run started", "forecasts", len(forecasts), "regions", len(regions))

	for _, ref := range forecasts {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := e.runForecast(ctx, ref, regions, opts, &summary, logger); err != nil {
			return summary, err
		}
		e.metrics.StormsProcessed.Inc()
	}

	summary.FinishedAt = domain.Now().UTC()
	e.mu.Lock()
	e.lastRun = &summary
	e.mu.Unlock()
	e.ready.Store(true)

	logger.Info("run finished",
		"reports_written", summary.ReportsWritten,
		"regions_affected", summary.RegionsAffected,
		"regions_failed", summary.RegionsFailed)
	return summary, nil
}

// resolveRegions decides the region list per mode.
func (e *Engine) resolveRegions(ctx context.Context, opts Options, logger *slog.Logger) ([]domain.RegionConfig, error) {
	switch opts.Mode {
	case ModeInitialize:
		regions := make([]domain.RegionConfig, 0, len(opts.Regions))
		for _, code := range opts.Regions {
			e.source.EnsureRegionTracked(ctx, code, opts.ZoomLevel)
			regions = append(regions, domain.RegionConfig{Code: code, ZoomLevel: opts.ZoomLevel})
		}
		if len(regions) == 0 {
			return nil, errors.New("initialize mode needs at least one region")
		}
		return regions, nil

	case ModeUpdate:
		tracked, err := e.source.ActiveRegions(ctx)
		if err != nil {
			logger.Warn("reading tracked regions failed, using configured regions", "error", err)
		}
		if len(tracked) > 0 {
			return tracked, nil
		}
		regions := make([]domain.RegionConfig, 0, len(opts.Regions))
		for _, code := range opts.Regions {
			regions = append(regions, domain.RegionConfig{Code: code, ZoomLevel: opts.ZoomLevel})
		}
		if len(regions) == 0 {
			return nil, errors.New("no regions tracked or configured")
		}
		return regions, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
}

// materializeRegions fetches, admin-assigns, and persists each region's base
// zone table, then sets the (region, zoom) initialization flag. Regions
// already flagged are skipped unless force is set. Failures are isolated the
// same way region processing failures are.
func (e *Engine) materializeRegions(ctx context.Context, regions []domain.RegionConfig, force bool, summary *RunSummary, logger *slog.Logger) error {
	for _, region := range regions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		regionLogger := logger.With("region", region.Code, "zoom", region.ZoomLevel)

		if !force {
			done, err := e.store.IsInitialized(region.Code, region.ZoomLevel)
			if err != nil {
				regionLogger.Warn("initialization flag read failed, rematerializing", "error", err)
			} else if done {
				regionLogger.Debug("already initialized, skipping")
				continue
			}
		}

		count, err := e.initializeRegion(ctx, region)
		if err != nil {
			summary.RegionsFailed++
			e.metrics.RegionsFailed.Inc()
			regionLogger.Error("initializing region failed", "error", err)
			continue
		}
		summary.RegionsInitialized++
		regionLogger.Info("region initialized", "zones", count)
	}
	return nil
}

// initializeRegion materializes one region's zone table and flags it done.
func (e *Engine) initializeRegion(ctx context.Context, region domain.RegionConfig) (int, error) {
	zones, err := e.zones.FetchZones(ctx, region.Code, region.ZoomLevel)
	if err != nil {
		return 0, fmt.Errorf("fetching zones: %w", err)
	}
	if len(zones) == 0 {
		return 0, fmt.Errorf("region %s has no zones at zoom %d", region.Code, region.ZoomLevel)
	}
	zones, err = e.ensureAdminAssignment(ctx, region.Code, zones)
	if err != nil {
		return 0, err
	}
	if err := e.store.WriteZones(region.Code, region.ZoomLevel, zones); err != nil {
		return 0, fmt.Errorf("materializing zones: %w", err)
	}
	if err := e.store.MarkInitialized(region.Code, region.ZoomLevel); err != nil {
		return 0, fmt.Errorf("flagging region initialized: %w", err)
	}
	return len(zones), nil
}

// runForecast evaluates one forecast issuance against every region.
func (e *Engine) runForecast(ctx context.Context, ref domain.ForecastRef, regions []domain.RegionConfig, opts Options, summary *RunSummary, logger *slog.Logger) error {
	logger = logger.With("storm", ref.StormID, "issued_at", ref.Issuance)

	set, err := e.source.FetchEnvelopeSet(ctx, ref)
	if err != nil {
		return fmt.Errorf("fetching envelopes for %s: %w", ref.StormID, err)
	}
	if len(set.Thresholds()) == 0 {
		logger.Info("forecast has no envelopes, skipping")
		return nil
	}
	track, err := e.source.FetchTrack(ctx, ref)
	if err != nil {
		return fmt.Errorf("fetching track for %s: %w", ref.StormID, err)
	}
	footprint := set.Footprint()

	for _, region := range regions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.RegionsEvaluated++
		e.metrics.RegionsEvaluated.Inc()
		regionLogger := logger.With("region", region.Code)

		if !opts.Force {
			done, err := e.store.IsProcessed(region.Code, ref.StormID, ref.Issuance)
			if err != nil {
				regionLogger.Warn("ledger read failed, reprocessing", "error", err)
			} else if done {
				summary.RegionsSkipped++
				regionLogger.Debug("already processed, skipping")
				continue
			}
		}

		boundary, err := e.zones.FetchBoundary(ctx, region.Code)
		if err != nil {
			summary.RegionsFailed++
			e.metrics.RegionsFailed.Inc()
			regionLogger.Error("fetching boundary failed", "error", err)
			continue
		}
		if !domain.RegionAffected(boundary, footprint) {
			regionLogger.Debug("outside gate, skipping")
			continue
		}
		summary.RegionsAffected++
		e.metrics.RegionsAffected.Inc()

		start := time.Now()
		written, err := e.runRegion(ctx, region, ref, set, track, boundary, regionLogger)
		e.metrics.RegionDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			summary.RegionsFailed++
			e.metrics.RegionsFailed.Inc()
			regionLogger.Error("region pipeline failed", "error", err)
			continue
		}
		if written {
			summary.ReportsWritten++
		}
	}
	return nil
}

// runRegion computes and persists one region's impact products for one
// forecast. Returns true when a report was written.
func (e *Engine) runRegion(ctx context.Context, region domain.RegionConfig, ref domain.ForecastRef, set *domain.EnvelopeSet, track []domain.TrackPoint, boundary domain.RegionBoundary, logger *slog.Logger) (bool, error) {
	zones, err := e.loadZones(ctx, region, logger)
	if err != nil {
		return false, err
	}

	views, tables, err := e.buildViews(region.Code, ref, zones, set, logger)
	if errors.Is(err, domain.ErrNoImpact) {
		// The storm passed the gate but no ensemble member covers any zone.
		logger.Info("no impacted zones, marking processed without a report")
		if err := e.store.MarkProcessed(region.Code, ref.StormID, ref.Issuance); err != nil {
			return false, fmt.Errorf("marking processed: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	report, err := e.buildReport(ctx, region.Code, ref, views, tables, track, boundary, logger)
	if err != nil {
		return false, err
	}
	if err := e.store.WriteReport(report); err != nil {
		return false, err
	}
	e.metrics.ReportsWritten.Inc()

	if e.publisher != nil {
		if err := e.publisher.PublishReport(ctx, report); err != nil {
			// The report is on disk; a publish failure must not mark the
			// forecast done or the retry would be skipped.
			return false, fmt.Errorf("publishing report: %w", err)
		}
		e.metrics.ReportsPublished.Inc()
	}

	if err := e.store.MarkProcessed(region.Code, ref.StormID, ref.Issuance); err != nil {
		return false, fmt.Errorf("marking processed: %w", err)
	}
	logger.Info("report written", "file", report.Filename())
	return true, nil
}

// loadZones prefers the zone table materialized at initialization, falling
// back to a live fetch for regions enrolled without one.
func (e *Engine) loadZones(ctx context.Context, region domain.RegionConfig, logger *slog.Logger) ([]domain.Zone, error) {
	zones, found, err := e.store.ReadZones(region.Code, region.ZoomLevel)
	if err != nil {
		logger.Warn("zone cache read failed, refetching", "error", err)
	}
	if found && len(zones) > 0 {
		return zones, nil
	}

	logger.Debug("no materialized zones, fetching")
	zones, err = e.zones.FetchZones(ctx, region.Code, region.ZoomLevel)
	if err != nil {
		return nil, fmt.Errorf("fetching zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("region %s has no zones at zoom %d", region.Code, region.ZoomLevel)
	}
	return e.ensureAdminAssignment(ctx, region.Code, zones)
}

// buildViews computes exceedance tables and expected-impact views threshold
// by threshold, ascending, stopping at the first threshold with no
// probability mass: higher thresholds are geometric subsets and cannot have
// any either. Returns ErrNoImpact when not even the lowest threshold has any.
func (e *Engine) buildViews(region string, ref domain.ForecastRef, zones []domain.Zone, set *domain.EnvelopeSet, logger *slog.Logger) ([]domain.ImpactView, map[int]domain.ProbabilityTable, error) {
	var views []domain.ImpactView
	tables := make(map[int]domain.ProbabilityTable)

	for _, thresholdKt := range set.Thresholds() {
		table := domain.ComputeExceedance(zones, set, thresholdKt, e.counter)
		if table.Sum() == 0 {
			logger.Debug("no coverage at threshold, stopping", "threshold_kt", thresholdKt)
			break
		}
		view := domain.ExpectedImpacts(table)
		if err := e.store.WriteView(region, ref.Issuance, view); err != nil {
			return nil, nil, fmt.Errorf("writing view at %d kt: %w", thresholdKt, err)
		}
		e.metrics.ViewsBuilt.Inc()
		tables[thresholdKt] = table
		views = append(views, view)
	}
	if len(views) == 0 {
		return nil, nil, domain.ErrNoImpact
	}
	return views, tables, nil
}

// ensureAdminAssignment fills in admin IDs for zones the zone source left
// unassigned, using max-overlap assignment against the admin boundaries.
func (e *Engine) ensureAdminAssignment(ctx context.Context, region string, zones []domain.Zone) ([]domain.Zone, error) {
	missing := 0
	for _, z := range zones {
		if z.AdminID == "" {
			missing++
		}
	}
	if missing == 0 {
		return zones, nil
	}

	admins, err := e.zones.FetchAdminRegions(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("fetching admin regions: %w", err)
	}
	unassigned := make([]domain.Zone, 0, missing)
	for _, z := range zones {
		if z.AdminID == "" {
			unassigned = append(unassigned, z)
		}
	}
	assigned := domain.AssignZones(unassigned, admins)

	byID := make(map[string]string, len(assigned))
	for _, z := range assigned {
		byID[z.ID] = z.AdminID
	}
	out := make([]domain.Zone, len(zones))
	for i, z := range zones {
		out[i] = z
		if z.AdminID == "" {
			out[i].AdminID = byID[z.ID]
		}
	}
	return out, nil
}

func filterStorm(refs []domain.ForecastRef, stormID string) []domain.ForecastRef {
	out := refs[:0]
	for _, ref := range refs {
		if ref.StormID == stormID {
			out = append(out, ref)
		}
	}
	return out
}

// filterDate keeps forecasts issued on the same UTC calendar day as date.
func filterDate(refs []domain.ForecastRef, date time.Time) []domain.ForecastRef {
	y, m, d := date.UTC().Date()
	out := refs[:0]
	for _, ref := range refs {
		ry, rm, rd := ref.Issuance.UTC().Date()
		if ry == y && rm == m && rd == d {
			out = append(out, ref)
		}
	}
	return out
}
