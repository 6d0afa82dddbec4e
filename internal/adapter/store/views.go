package store

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
)

// WriteView materializes one impact view as CSV under
// views/{region}/{storm}/{issuance}/impact_{threshold}.csv. Missing values
// are written as empty cells, never zeros.
func (s *Store) WriteView(region string, issuance time.Time, view domain.ImpactView) error {
	dir := s.viewDir(region, view.StormID, issuance)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating view directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating view file: %w", err)
	}
	defer os.Remove(f.Name())

	w := csv.NewWriter(f)
	header := []string{"zone_id", "admin_id", "probability"}
	for _, attr := range domain.Attributes() {
		header = append(header, "e_"+string(attr))
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing view header: %w", err)
	}

	for _, row := range view.Rows {
		record := []string{
			row.ZoneID,
			row.AdminID,
			formatFloat(row.Probability),
		}
		for _, attr := range domain.Attributes() {
			record = append(record, formatFloat(row.Expected.Get(attr)))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("writing view row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing view: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), filepath.Join(dir, viewFilename(view.ThresholdKt)))
}

// ReadView loads a materialized view, reporting found=false when it was
// never written.
func (s *Store) ReadView(region, stormID string, issuance time.Time, thresholdKt int) (domain.ImpactView, bool, error) {
	path := filepath.Join(s.viewDir(region, stormID, issuance), viewFilename(thresholdKt))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return domain.ImpactView{}, false, nil
	}
	if err != nil {
		return domain.ImpactView{}, false, fmt.Errorf("opening view: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return domain.ImpactView{}, false, fmt.Errorf("reading view: %w", err)
	}
	if len(records) == 0 {
		return domain.ImpactView{}, false, fmt.Errorf("view %s has no header", path)
	}

	view := domain.ImpactView{StormID: stormID, ThresholdKt: thresholdKt}
	attrs := domain.Attributes()
	for _, rec := range records[1:] {
		if len(rec) != 3+len(attrs) {
			return domain.ImpactView{}, false, fmt.Errorf("view %s has malformed row of %d fields", path, len(rec))
		}
		row := domain.ImpactRow{
			ZoneID:   rec[0],
			AdminID:  rec[1],
			Expected: make(domain.AttributeSet, len(attrs)),
		}
		row.Probability = parseFloat(rec[2])
		if math.IsNaN(row.Probability) {
			row.Probability = 0
		}
		for i, attr := range attrs {
			row.Expected[attr] = parseFloat(rec[3+i])
		}
		view.Rows = append(view.Rows, row)
	}
	return view, true, nil
}

func viewFilename(thresholdKt int) string {
	return fmt.Sprintf("impact_%03d.csv", thresholdKt)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
