package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
)

// ledgerKey identifies one processed (region, storm, issuance).
func ledgerKey(region, stormID string, issuance time.Time) string {
	return fmt.Sprintf("%s/%s/%s", region, stormID, issuance.UTC().Format(issuanceLayout))
}

// ledger is the processed-forecast file format: key to completion time.
type ledger map[string]time.Time

var ledgerMu sync.Mutex

// IsProcessed reports whether the (region, storm, issuance) has already been
// fully processed.
func (s *Store) IsProcessed(region, stormID string, issuance time.Time) (bool, error) {
	ledgerMu.Lock()
	defer ledgerMu.Unlock()

	l, err := s.readLedger()
	if err != nil {
		return false, err
	}
	_, ok := l[ledgerKey(region, stormID, issuance)]
	return ok, nil
}

// MarkProcessed records the (region, storm, issuance) as done so reruns skip it.
func (s *Store) MarkProcessed(region, stormID string, issuance time.Time) error {
	ledgerMu.Lock()
	defer ledgerMu.Unlock()

	l, err := s.readLedger()
	if err != nil {
		return err
	}
	l[ledgerKey(region, stormID, issuance)] = domain.Now().UTC()

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.root, ledgerFile), data); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	return nil
}

func (s *Store) readLedger() (ledger, error) {
	data, err := os.ReadFile(filepath.Join(s.root, ledgerFile))
	if os.IsNotExist(err) {
		return ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	var l ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding ledger: %w", err)
	}
	return l, nil
}

// WriteFacilities caches facility locations for a region and kind, so later
// runs can fall back when the facility API is unavailable.
func (s *Store) WriteFacilities(region string, kind domain.FacilityKind, facilities []domain.Facility) error {
	data, err := json.MarshalIndent(facilities, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding facilities: %w", err)
	}
	path := filepath.Join(s.root, facilitiesDir, fmt.Sprintf("%s_%s.json", region, kind))
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("writing facilities cache: %w", err)
	}
	return nil
}

// ReadFacilities loads the cached facility locations for a region and kind.
func (s *Store) ReadFacilities(region string, kind domain.FacilityKind) ([]domain.Facility, bool, error) {
	path := filepath.Join(s.root, facilitiesDir, fmt.Sprintf("%s_%s.json", region, kind))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading facilities cache: %w", err)
	}
	var facilities []domain.Facility
	if err := json.Unmarshal(data, &facilities); err != nil {
		return nil, false, fmt.Errorf("decoding facilities cache: %w", err)
	}
	for i := range facilities {
		facilities[i].Location.Lon = facilities[i].Lon
		facilities[i].Location.Lat = facilities[i].Lat
	}
	return facilities, true, nil
}
