package store

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

var issuance = time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func sampleView() domain.ImpactView {
	return domain.ImpactView{
		StormID:     "AL052024",
		ThresholdKt: 34,
		Rows: []domain.ImpactRow{
			{
				ZoneID:      "0320101",
				AdminID:     "JAM-01",
				Probability: 0.5,
				Expected: domain.AttributeSet{
					domain.AttrPopulation: 600,
					domain.AttrSchools:    1.5,
					domain.AttrRWI:        math.NaN(),
				},
			},
			{
				ZoneID:      "0320102",
				AdminID:     "JAM-02",
				Probability: 0,
				Expected: domain.AttributeSet{
					domain.AttrPopulation: 0,
				},
			},
		},
	}
}

func TestViewRoundTrip(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteView("JAM", issuance, sampleView()))

	got, found, err := s.ReadView("JAM", "AL052024", issuance, 34)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.Rows, 2)

	assert.Equal(t, "0320101", got.Rows[0].ZoneID)
	assert.Equal(t, "JAM-01", got.Rows[0].AdminID)
	assert.Equal(t, 0.5, got.Rows[0].Probability)
	assert.Equal(t, 600.0, got.Rows[0].Expected.Get(domain.AttrPopulation))
	assert.True(t, math.IsNaN(got.Rows[0].Expected.Get(domain.AttrRWI)), "NaN survives the round trip")

	assert.Zero(t, got.Rows[1].Probability)
	assert.Zero(t, got.Rows[1].Expected.Get(domain.AttrPopulation), "measured zero stays zero")
	assert.True(t, math.IsNaN(got.Rows[1].Expected.Get(domain.AttrSchools)), "unmeasured value stays missing")
}

func TestReadView_Missing(t *testing.T) {
	s := newStore(t)
	_, found, err := s.ReadView("JAM", "AL052024", issuance, 34)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWriteView_OverwriteIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteView("JAM", issuance, sampleView()))
	require.NoError(t, s.WriteView("JAM", issuance, sampleView()))

	got, found, err := s.ReadView("JAM", "AL052024", issuance, 34)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, got.Rows, 2)
}

func TestWriteSeverity(t *testing.T) {
	s := newStore(t)
	severity := map[string]domain.SeverityScores{
		"JAM-02": {Population: 0.5, ExpPopulation: 0.25},
		"JAM-01": {Population: 1.156, ExpPopulation: 0.6936},
	}
	require.NoError(t, s.WriteSeverity("JAM", "AL052024", issuance, severity))

	records := readCSV(t, filepath.Join(s.viewDir("JAM", "AL052024", issuance), "severity.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, "admin_id", records[0][0])
	assert.Equal(t, "JAM-01", records[1][0], "rows sorted by admin id")
	assert.Equal(t, "1.156", records[1][1])
	assert.Equal(t, "JAM-02", records[2][0])
}

func TestWriteAdminRollup(t *testing.T) {
	s := newStore(t)
	breakdowns := []domain.AdminBreakdown{{
		AdminID:     "JAM-01",
		Probability: 1.5,
		Values: domain.AttributeSet{
			domain.AttrPopulation: 600,
			domain.AttrRWI:        math.NaN(),
		},
	}}
	require.NoError(t, s.WriteAdminRollup("JAM", "AL052024", issuance, 34, breakdowns))

	records := readCSV(t, filepath.Join(s.viewDir("JAM", "AL052024", issuance), "admin_034.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, "JAM-01", records[1][0])
	assert.Equal(t, "1.5", records[1][1])
	assert.Equal(t, "600", records[1][2], "e_population column")

	rwiCol := 0
	for i, h := range records[0] {
		if h == "e_rwi" {
			rwiCol = i
		}
	}
	require.NotZero(t, rwiCol)
	assert.Empty(t, records[1][rwiCol], "missing values stay empty cells")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestReportRoundTrip(t *testing.T) {
	s := newStore(t)
	report := &domain.Report{
		StormID:      "AL052024",
		StormName:    "ERNESTO",
		RegionCode:   "JAM",
		IssuedAt:     issuance,
		EnsembleSize: 52,
	}
	require.NoError(t, s.WriteReport(report))

	got, found, err := s.ReadReport("JAM", "AL052024", issuance)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ERNESTO", got.StormName)
	assert.True(t, got.IssuedAt.Equal(issuance))

	_, found, err = s.ReadReport("JAM", "AL052024", issuance.Add(6*time.Hour))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWriteReport_RejectsInvalid(t *testing.T) {
	s := newStore(t)
	err := s.WriteReport(&domain.Report{RegionCode: "JAM"})
	assert.ErrorContains(t, err, "invalid report")
}

func TestProcessedLedger(t *testing.T) {
	s := newStore(t)

	done, err := s.IsProcessed("JAM", "AL052024", issuance)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkProcessed("JAM", "AL052024", issuance))

	done, err = s.IsProcessed("JAM", "AL052024", issuance)
	require.NoError(t, err)
	assert.True(t, done)

	// Other issuances of the same storm stay unprocessed.
	done, err = s.IsProcessed("JAM", "AL052024", issuance.Add(6*time.Hour))
	require.NoError(t, err)
	assert.False(t, done)
}

func TestZonesRoundTrip(t *testing.T) {
	s := newStore(t)

	_, found, err := s.ReadZones("JAM", 14)
	require.NoError(t, err)
	assert.False(t, found)

	in := []domain.Zone{{
		ID:       "0320101",
		AdminID:  "JAM-01",
		Geometry: geo.Rect(-77.1, 18.0, -77.0, 18.1),
		Baseline: domain.AttributeSet{
			domain.AttrPopulation: 1000,
			domain.AttrSchools:    0,
			domain.AttrRWI:        math.NaN(),
		},
	}}
	require.NoError(t, s.WriteZones("JAM", 14, in))

	got, found, err := s.ReadZones("JAM", 14)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)

	assert.Equal(t, "0320101", got[0].ID)
	assert.Equal(t, "JAM-01", got[0].AdminID)
	assert.Equal(t, 1000.0, got[0].Baseline.Get(domain.AttrPopulation))
	assert.Zero(t, got[0].Baseline.Get(domain.AttrSchools), "measured zero stays zero")
	assert.True(t, math.IsNaN(got[0].Baseline.Get(domain.AttrRWI)), "missing value stays missing")

	c := got[0].Centroid()
	assert.InDelta(t, -77.05, c.Lon, 1e-9)
	assert.InDelta(t, 18.05, c.Lat, 1e-9)

	// Other zoom levels stay independent.
	_, found, err = s.ReadZones("JAM", 15)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInitializationFlag(t *testing.T) {
	s := newStore(t)

	done, err := s.IsInitialized("JAM", 14)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkInitialized("JAM", 14))

	done, err = s.IsInitialized("JAM", 14)
	require.NoError(t, err)
	assert.True(t, done)

	// The flag is per (region, zoom).
	done, err = s.IsInitialized("JAM", 15)
	require.NoError(t, err)
	assert.False(t, done)
	done, err = s.IsInitialized("DOM", 14)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestFacilitiesCache(t *testing.T) {
	s := newStore(t)

	_, found, err := s.ReadFacilities("JAM", domain.FacilitySchool)
	require.NoError(t, err)
	assert.False(t, found)

	in := []domain.Facility{{
		ID:       "s1",
		Name:     "Kingston Primary",
		Kind:     domain.FacilitySchool,
		Location: geo.Point{Lon: -76.8, Lat: 18.0},
		Lon:      -76.8,
		Lat:      18.0,
	}}
	require.NoError(t, s.WriteFacilities("JAM", domain.FacilitySchool, in))

	got, found, err := s.ReadFacilities("JAM", domain.FacilitySchool)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "Kingston Primary", got[0].Name)
	assert.Equal(t, -76.8, got[0].Location.Lon, "location rebuilt from cached lon/lat")
	assert.Equal(t, 18.0, got[0].Location.Lat)
}
