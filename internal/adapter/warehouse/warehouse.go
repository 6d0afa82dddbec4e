// Package warehouse reads forecast inputs from the analytics warehouse:
// ensemble hazard envelopes, track points, the active-forecast listing, and
// the region tracking tables. Geometry columns are returned by the warehouse
// as GeoJSON text.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// Warehouse wraps the warehouse connection.
type Warehouse struct {
	db      *sql.DB
	logger  *slog.Logger
	queries prometheus.Counter
}

// New opens and pings the warehouse. queries may be nil when the caller does
// not collect metrics.
func New(dsn string, logger *slog.Logger, queries prometheus.Counter) (*Warehouse, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging warehouse: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Warehouse{db: db, logger: logger, queries: queries}, nil
}

func (w *Warehouse) countQuery() {
	if w.queries != nil {
		w.queries.Inc()
	}
}

// Close releases the connection pool.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// ActiveForecasts lists forecasts issued since the given time, newest first.
func (w *Warehouse) ActiveForecasts(ctx context.Context, since time.Time) ([]domain.ForecastRef, error) {
	w.countQuery()
	rows, err := w.db.QueryContext(ctx, `
		SELECT storm_id, storm_name, issued_at, ensemble_size
		FROM forecasts
		WHERE issued_at >= $1
		ORDER BY issued_at DESC, storm_id`, since)
	if err != nil {
		return nil, fmt.Errorf("querying forecasts: %w", err)
	}
	defer rows.Close()

	var refs []domain.ForecastRef
	for rows.Next() {
		var ref domain.ForecastRef
		if err := rows.Scan(&ref.StormID, &ref.StormName, &ref.Issuance, &ref.EnsembleSize); err != nil {
			return nil, fmt.Errorf("scanning forecast: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// FetchEnvelopeSet loads all member envelopes of one forecast issuance.
func (w *Warehouse) FetchEnvelopeSet(ctx context.Context, ref domain.ForecastRef) (*domain.EnvelopeSet, error) {
	w.countQuery()
	rows, err := w.db.QueryContext(ctx, `
		SELECT threshold_kt, member, ST_ASGEOJSON(geom)
		FROM hazard_envelopes
		WHERE storm_id = $1 AND issued_at = $2`, ref.StormID, ref.Issuance)
	if err != nil {
		return nil, fmt.Errorf("querying envelopes: %w", err)
	}
	defer rows.Close()

	var envelopes []domain.HazardEnvelope
	for rows.Next() {
		var (
			thresholdKt, member int
			rawGeom             []byte
		)
		if err := rows.Scan(&thresholdKt, &member, &rawGeom); err != nil {
			return nil, fmt.Errorf("scanning envelope: %w", err)
		}
		env, err := envelopeFromRow(thresholdKt, member, rawGeom)
		if err != nil {
			return nil, fmt.Errorf("envelope %s/%dkt/m%d: %w", ref.StormID, thresholdKt, member, err)
		}
		envelopes = append(envelopes, env)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.NewEnvelopeSet(ref.StormID, ref.Issuance, ref.EnsembleSize, envelopes)
}

// FetchTrack loads all ensemble track points of one forecast issuance.
func (w *Warehouse) FetchTrack(ctx context.Context, ref domain.ForecastRef) ([]domain.TrackPoint, error) {
	w.countQuery()
	rows, err := w.db.QueryContext(ctx, `
		SELECT member, valid_at, lon, lat, wind_kt
		FROM track_points
		WHERE storm_id = $1 AND issued_at = $2
		ORDER BY member, valid_at`, ref.StormID, ref.Issuance)
	if err != nil {
		return nil, fmt.Errorf("querying track: %w", err)
	}
	defer rows.Close()

	var points []domain.TrackPoint
	for rows.Next() {
		var p domain.TrackPoint
		if err := rows.Scan(&p.Member, &p.Valid, &p.Position.Lon, &p.Position.Lat, &p.WindKt); err != nil {
			return nil, fmt.Errorf("scanning track point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ActiveRegions lists the regions enrolled in the pipeline tracking tables
// with their configured zoom levels.
func (w *Warehouse) ActiveRegions(ctx context.Context) ([]domain.RegionConfig, error) {
	w.countQuery()
	rows, err := w.db.QueryContext(ctx, `
		SELECT r.region_code, COALESCE(z.zoom_level, $1)
		FROM pipeline_regions r
		LEFT JOIN pipeline_region_zoom_levels z ON z.region_code = r.region_code
		ORDER BY r.region_code`, defaultZoomLevel)
	if err != nil {
		return nil, fmt.Errorf("querying pipeline regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.RegionConfig
	for rows.Next() {
		var rc domain.RegionConfig
		if err := rows.Scan(&rc.Code, &rc.ZoomLevel); err != nil {
			return nil, fmt.Errorf("scanning region: %w", err)
		}
		regions = append(regions, rc)
	}
	return regions, rows.Err()
}

const defaultZoomLevel = 14

// EnsureRegionTracked enrolls a region in the tracking tables. Failures are
// logged, not returned: tracking is best effort and must never block a run.
func (w *Warehouse) EnsureRegionTracked(ctx context.Context, code string, zoom int) {
	w.countQuery()
	_, err := w.db.ExecContext(ctx, `
		INSERT INTO pipeline_regions (region_code) VALUES ($1)
		ON CONFLICT (region_code) DO NOTHING`, code)
	if err != nil {
		w.logger.Warn("enrolling region failed", "region", code, "error", err)
		return
	}
	_, err = w.db.ExecContext(ctx, `
		INSERT INTO pipeline_region_zoom_levels (region_code, zoom_level) VALUES ($1, $2)
		ON CONFLICT (region_code) DO UPDATE SET zoom_level = EXCLUDED.zoom_level`, code, zoom)
	if err != nil {
		w.logger.Warn("recording region zoom failed", "region", code, "error", err)
	}
}

func envelopeFromRow(thresholdKt, member int, rawGeoJSON []byte) (domain.HazardEnvelope, error) {
	parts, err := geo.ParseGeoJSON(rawGeoJSON)
	if err != nil {
		return domain.HazardEnvelope{}, err
	}
	return domain.HazardEnvelope{
		ThresholdKt: thresholdKt,
		Member:      member,
		Geometry:    parts,
	}, nil
}
