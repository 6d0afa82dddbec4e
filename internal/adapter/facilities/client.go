// Package facilities fetches school and health-center locations from their
// upstream APIs, caching successful responses so a later outage degrades to
// slightly stale rankings instead of a missing report section.
package facilities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// Outcome describes where a facility list came from.
type Outcome string

const (
	OutcomeFetched     Outcome = "fetched"
	OutcomeCached      Outcome = "cached"
	OutcomeUnavailable Outcome = "unavailable"
)

// Cache persists facility lists between runs. *store.Store satisfies it.
type Cache interface {
	WriteFacilities(region string, kind domain.FacilityKind, facilities []domain.Facility) error
	ReadFacilities(region string, kind domain.FacilityKind) ([]domain.Facility, bool, error)
}

// Client fetches facility locations, falling back to the cache on failure.
type Client struct {
	schoolBaseURL string
	healthBaseURL string
	httpClient    *http.Client
	cache         Cache
	logger        *slog.Logger
}

// NewClient creates a facilities client. Either base URL may be empty, in
// which case that kind resolves from cache only.
func NewClient(schoolBaseURL, healthBaseURL string, timeout time.Duration, cache Cache, logger *slog.Logger) *Client {
	return &Client{
		schoolBaseURL: schoolBaseURL,
		healthBaseURL: healthBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:  cache,
		logger: logger,
	}
}

// Facilities returns the facility list for a region and kind, preferring the
// live API and falling back to the cache. The outcome tells callers (and
// metrics) which path served the data. An error is returned only when both
// paths fail; an empty upstream dataset is not an error.
func (c *Client) Facilities(ctx context.Context, region string, kind domain.FacilityKind) ([]domain.Facility, Outcome, error) {
	fetched, err := c.fetch(ctx, region, kind)
	if err == nil {
		if cacheErr := c.cache.WriteFacilities(region, kind, fetched); cacheErr != nil {
			c.logger.Warn("caching facilities failed", "region", region, "kind", kind, "error", cacheErr)
		}
		return fetched, OutcomeFetched, nil
	}
	c.logger.Warn("facility fetch failed, trying cache", "region", region, "kind", kind, "error", err)

	cached, found, cacheErr := c.cache.ReadFacilities(region, kind)
	if cacheErr != nil {
		return nil, OutcomeUnavailable, fmt.Errorf("fetch failed (%v) and cache unreadable: %w", err, cacheErr)
	}
	if !found {
		return nil, OutcomeUnavailable, fmt.Errorf("fetching %s facilities for %s: %w", kind, region, err)
	}
	return cached, OutcomeCached, nil
}

func (c *Client) fetch(ctx context.Context, region string, kind domain.FacilityKind) ([]domain.Facility, error) {
	base := c.schoolBaseURL
	if kind == domain.FacilityHealthCenter {
		base = c.healthBaseURL
	}
	if base == "" {
		return nil, fmt.Errorf("no API configured for %s", kind)
	}

	u := fmt.Sprintf("%s/facilities?region=%s", base, url.QueryEscape(region))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facility request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("facility API error: status %d: %s", resp.StatusCode, body)
	}

	var records []facilityRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	facilities := make([]domain.Facility, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		facilities = append(facilities, domain.Facility{
			ID:       r.ID,
			Name:     r.Name,
			Kind:     kind,
			Location: geo.Point{Lon: r.Lon, Lat: r.Lat},
			Lon:      r.Lon,
			Lat:      r.Lat,
		})
	}
	return facilities, nil
}

type facilityRecord struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}
