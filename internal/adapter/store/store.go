// Package store persists the engine's materialized outputs on the local
// filesystem: per-threshold impact views as CSV, impact reports as JSON,
// materialized zone tables with their per-(region, zoom) initialization
// flags, a processed-forecast ledger, and cached facility locations for
// offline fallback.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
)

const (
	viewsDir      = "views"
	reportsDir    = "reports"
	facilitiesDir = "facilities"
	zonesDir      = "zones"
	stateDir      = "state"
	ledgerFile    = "processed.json"

	issuanceLayout = "20060102T1504Z"
)

// Store is a filesystem-backed data store rooted at a single directory.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	for _, sub := range []string{viewsDir, reportsDir, facilitiesDir, zonesDir, stateDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return &Store{root: dir}, nil
}

// viewDir is views/{region}/{storm}/{issuance}.
func (s *Store) viewDir(region, stormID string, issuance time.Time) string {
	return filepath.Join(s.root, viewsDir, region, stormID, issuance.UTC().Format(issuanceLayout))
}

// WriteReport persists the report as pretty-printed JSON under reports/,
// named by the report's canonical filename.
func (s *Store) WriteReport(report *domain.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid report: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	path := filepath.Join(s.root, reportsDir, report.Filename())
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadReport loads a previously written report, reporting found=false when
// the file does not exist.
func (s *Store) ReadReport(region, stormID string, issuance time.Time) (*domain.Report, bool, error) {
	name := fmt.Sprintf("%s_%s_%s.json", region, stormID, issuance.UTC().Format(issuanceLayout))
	data, err := os.ReadFile(filepath.Join(s.root, reportsDir, name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("decoding report: %w", err)
	}
	return &report, true, nil
}

// writeAtomic writes via a temp file and rename so readers never see a
// partial file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
