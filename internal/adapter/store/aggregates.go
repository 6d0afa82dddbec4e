package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
)

// WriteSeverity materializes the composite severity index as CSV next to the
// threshold views, one row per admin region.
func (s *Store) WriteSeverity(region, stormID string, issuance time.Time, severity map[string]domain.SeverityScores) error {
	admins := make([]string, 0, len(severity))
	for id := range severity {
		admins = append(admins, id)
	}
	sort.Strings(admins)

	records := [][]string{{
		"admin_id",
		"population", "children", "school_age", "infants",
		"expected_population", "expected_children", "expected_school_age", "expected_infants",
	}}
	for _, id := range admins {
		sc := severity[id]
		records = append(records, []string{
			id,
			formatFloat(sc.Population), formatFloat(sc.Children),
			formatFloat(sc.SchoolAge), formatFloat(sc.Infants),
			formatFloat(sc.ExpPopulation), formatFloat(sc.ExpChildren),
			formatFloat(sc.ExpSchoolAge), formatFloat(sc.ExpInfants),
		})
	}
	return s.writeCSV(s.viewDir(region, stormID, issuance), "severity.csv", records)
}

// WriteAdminRollup materializes one threshold's admin-level aggregate as CSV.
func (s *Store) WriteAdminRollup(region, stormID string, issuance time.Time, thresholdKt int, breakdowns []domain.AdminBreakdown) error {
	header := []string{"admin_id", "probability_mass"}
	for _, attr := range domain.Attributes() {
		header = append(header, "e_"+string(attr))
	}
	records := [][]string{header}
	for _, b := range breakdowns {
		rec := []string{b.AdminID, formatFloat(b.Probability)}
		for _, attr := range domain.Attributes() {
			rec = append(rec, formatFloat(b.Values.Get(attr)))
		}
		records = append(records, rec)
	}
	name := fmt.Sprintf("admin_%03d.csv", thresholdKt)
	return s.writeCSV(s.viewDir(region, stormID, issuance), name, records)
}

func (s *Store) writeCSV(dir, name string, records [][]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer os.Remove(f.Name())

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(dir, name))
}
