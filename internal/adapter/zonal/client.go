package zonal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// Client fetches analysis zones and admin boundaries from the zonal
// statistics service as GeoJSON feature collections.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a zonal statistics client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchZones returns the region's analysis tiles at the given zoom level,
// with baseline attributes read from feature properties. Properties absent
// from a feature stay NaN on the zone.
func (c *Client) FetchZones(ctx context.Context, region string, zoom int) ([]domain.Zone, error) {
	u := fmt.Sprintf("%s/regions/%s/zones?zoom=%d", c.baseURL, url.PathEscape(region), zoom)
	fc, err := c.fetchCollection(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching zones for %s: %w", region, err)
	}

	zones := make([]domain.Zone, 0, len(fc.Features))
	for _, f := range fc.Features {
		parts, err := geo.FromGeoJSON(f.Geometry)
		if err != nil || len(parts) == 0 {
			c.logger.Warn("skipping zone with bad geometry", "region", region, "error", err)
			continue
		}
		z := domain.Zone{
			ID:       stringProp(f, "quadkey"),
			AdminID:  stringProp(f, "admin_id"),
			Geometry: parts[0],
			Baseline: make(domain.AttributeSet),
		}
		if z.ID == "" {
			c.logger.Warn("skipping zone without quadkey", "region", region)
			continue
		}
		for _, attr := range domain.Attributes() {
			z.Baseline[attr] = numberProp(f, string(attr))
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// FetchAdminRegions returns the region's administrative subdivisions.
func (c *Client) FetchAdminRegions(ctx context.Context, region string) ([]domain.AdminRegion, error) {
	u := fmt.Sprintf("%s/regions/%s/admins", c.baseURL, url.PathEscape(region))
	fc, err := c.fetchCollection(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching admin regions for %s: %w", region, err)
	}

	admins := make([]domain.AdminRegion, 0, len(fc.Features))
	for _, f := range fc.Features {
		parts, err := geo.FromGeoJSON(f.Geometry)
		if err != nil {
			c.logger.Warn("skipping admin region with bad geometry", "region", region, "error", err)
			continue
		}
		id := stringProp(f, "admin_id")
		if id == "" {
			continue
		}
		admins = append(admins, domain.AdminRegion{
			ID:       id,
			Name:     stringProp(f, "name"),
			Geometry: parts,
		})
	}
	return admins, nil
}

// FetchBoundary returns the region's outer boundary used for gating and
// landfall estimates.
func (c *Client) FetchBoundary(ctx context.Context, region string) (domain.RegionBoundary, error) {
	u := fmt.Sprintf("%s/regions/%s/boundary", c.baseURL, url.PathEscape(region))
	fc, err := c.fetchCollection(ctx, u)
	if err != nil {
		return domain.RegionBoundary{}, fmt.Errorf("fetching boundary for %s: %w", region, err)
	}

	var parts geo.MultiPolygon
	for _, f := range fc.Features {
		p, err := geo.FromGeoJSON(f.Geometry)
		if err != nil {
			return domain.RegionBoundary{}, fmt.Errorf("decoding boundary for %s: %w", region, err)
		}
		parts = append(parts, p...)
	}
	if parts.IsEmpty() {
		return domain.RegionBoundary{}, fmt.Errorf("boundary for %s is empty", region)
	}
	return domain.RegionBoundary{Code: region, Geometry: parts}, nil
}

func (c *Client) fetchCollection(ctx context.Context, fullURL string) (*geojson.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zonal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("zonal API error: status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc, nil
}

func stringProp(f *geojson.Feature, key string) string {
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}

func numberProp(f *geojson.Feature, key string) float64 {
	switch v := f.Properties[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return math.NaN()
	}
}
