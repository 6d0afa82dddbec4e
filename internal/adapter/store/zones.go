package store

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// zoneRecord is the cached form of one zone. Baseline values that are NaN
// (missing, as opposed to measured zero) are omitted on write because JSON
// cannot carry NaN; absence round-trips back to NaN through AttributeSet.Get.
type zoneRecord struct {
	ID       string             `json:"id"`
	AdminID  string             `json:"admin_id,omitempty"`
	Exterior [][2]float64       `json:"exterior"`
	Baseline map[string]float64 `json:"baseline"`
}

// zonesPath is zones/{region}_z{zoom}.json.
func (s *Store) zonesPath(region string, zoom int) string {
	return filepath.Join(s.root, zonesDir, fmt.Sprintf("%s_z%d.json", region, zoom))
}

// initFlagPath is state/{region}_z{zoom}.initialized.
func (s *Store) initFlagPath(region string, zoom int) string {
	return filepath.Join(s.root, stateDir, fmt.Sprintf("%s_z%d.initialized", region, zoom))
}

// WriteZones materializes the base zone table for a (region, zoom) so update
// runs read it from disk instead of refetching.
func (s *Store) WriteZones(region string, zoom int, zones []domain.Zone) error {
	records := make([]zoneRecord, len(zones))
	for i, z := range zones {
		rec := zoneRecord{
			ID:       z.ID,
			AdminID:  z.AdminID,
			Exterior: make([][2]float64, len(z.Geometry.Exterior)),
			Baseline: make(map[string]float64, len(z.Baseline)),
		}
		for j, p := range z.Geometry.Exterior {
			rec.Exterior[j] = [2]float64{p.Lon, p.Lat}
		}
		for attr, v := range z.Baseline {
			if math.IsNaN(v) {
				continue
			}
			rec.Baseline[string(attr)] = v
		}
		records[i] = rec
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding zones: %w", err)
	}
	if err := writeAtomic(s.zonesPath(region, zoom), data); err != nil {
		return fmt.Errorf("writing zones: %w", err)
	}
	return nil
}

// ReadZones loads the materialized zone table for a (region, zoom), reporting
// found=false when the region was never initialized at that zoom.
func (s *Store) ReadZones(region string, zoom int) ([]domain.Zone, bool, error) {
	data, err := os.ReadFile(s.zonesPath(region, zoom))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading zones: %w", err)
	}
	var records []zoneRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decoding zones: %w", err)
	}

	zones := make([]domain.Zone, len(records))
	for i, rec := range records {
		z := domain.Zone{
			ID:       rec.ID,
			AdminID:  rec.AdminID,
			Baseline: make(domain.AttributeSet, len(rec.Baseline)),
		}
		z.Geometry.Exterior = make(geo.Ring, len(rec.Exterior))
		for j, c := range rec.Exterior {
			z.Geometry.Exterior[j] = geo.Point{Lon: c[0], Lat: c[1]}
		}
		for attr, v := range rec.Baseline {
			z.Baseline[domain.Attribute(attr)] = v
		}
		zones[i] = z
	}
	return zones, true, nil
}

// IsInitialized reports whether the (region, zoom) has its base zone data
// materialized, via the durable flag file set by MarkInitialized.
func (s *Store) IsInitialized(region string, zoom int) (bool, error) {
	_, err := os.Stat(s.initFlagPath(region, zoom))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading initialization flag: %w", err)
	}
	return true, nil
}

// MarkInitialized records that the (region, zoom) finished initialization.
// The flag holds the completion time for operators; only its existence matters.
func (s *Store) MarkInitialized(region string, zoom int) error {
	stamp := domain.Now().UTC().Format(issuanceLayout)
	if err := writeAtomic(s.initFlagPath(region, zoom), []byte(stamp+"\n")); err != nil {
		return fmt.Errorf("writing initialization flag: %w", err)
	}
	return nil
}
