// Command genmock generates a synthetic storm scenario for local runs and
// test fixtures: a zone grid with baseline attributes, ensemble hazard
// envelopes, and a deterministic track. It runs the actual domain calculators
// over the generated data so the printed expected values match real engine
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -region JAM -grid 8 -members 52
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/storm-impact-engine/internal/adapter/zonal"
	"github.com/couchcryptid/storm-impact-engine/internal/domain"
	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

var baseIssuance = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "output directory for fixture files")
	region := flag.String("region", "JAM", "region code stamped on the fixtures")
	grid := flag.Int("grid", 8, "zone grid size (grid x grid tiles)")
	members := flag.Int("members", 52, "ensemble size")
	seed := flag.Int64("seed", 1, "random seed for reproducible baselines")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	// A grid of 0.05 degree tiles centered on eastern Jamaica.
	const originLon, originLat, tile = -77.2, 17.8, 0.05
	zones := makeZones(rng, *grid, originLon, originLat, tile)
	track := makeTrack(originLon, originLat)
	envelopes := makeEnvelopes(rng, *members, originLon, originLat)

	if err := writeJSON(filepath.Join(*outDir, "zones.geojson"), zonesToGeoJSON(zones)); err != nil {
		return fmt.Errorf("writing zones: %w", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "envelopes.json"), envelopesToRecords(envelopes)); err != nil {
		return fmt.Errorf("writing envelopes: %w", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "track.json"), track); err != nil {
		return fmt.Errorf("writing track: %w", err)
	}
	log.Printf("wrote fixtures for %s: %d zones, %d envelopes, %d track points",
		*region, len(zones), len(envelopes), len(track))

	return printExpected(*region, zones, envelopes, track, *members)
}

// makeZones builds the tile grid. Two admin regions split the grid down the
// middle; a handful of tiles get no wealth index to exercise missing-value
// paths.
func makeZones(rng *rand.Rand, grid int, originLon, originLat, tile float64) []domain.Zone {
	zones := make([]domain.Zone, 0, grid*grid)
	for row := 0; row < grid; row++ {
		for col := 0; col < grid; col++ {
			lon := originLon + float64(col)*tile
			lat := originLat + float64(row)*tile
			admin := "MOCK-01"
			if col >= grid/2 {
				admin = "MOCK-02"
			}
			z := domain.Zone{
				ID:       fmt.Sprintf("mock-%02d%02d", row, col),
				AdminID:  admin,
				Geometry: geo.Rect(lon, lat, lon+tile, lat+tile),
				Baseline: domain.AttributeSet{
					domain.AttrPopulation:    float64(rng.Intn(5000)),
					domain.AttrBuiltSurface:  float64(rng.Intn(200000)),
					domain.AttrSchools:       float64(rng.Intn(4)),
					domain.AttrSchoolAge:     float64(rng.Intn(900)),
					domain.AttrInfants:       float64(rng.Intn(200)),
					domain.AttrHealthCenters: float64(rng.Intn(2)),
					domain.AttrSMOD:          float64(10 + rng.Intn(20)),
				},
			}
			if rng.Float64() > 0.15 {
				z.Baseline[domain.AttrRWI] = rng.Float64()*3 - 1.5
			}
			zones = append(zones, z)
		}
	}
	return zones
}

// makeEnvelopes builds per-member swaths at each threshold. Higher thresholds
// get narrower swaths and fewer members, so exceedance probabilities fall off
// the way real ensembles do.
func makeEnvelopes(rng *rand.Rand, members int, originLon, originLat float64) []domain.HazardEnvelope {
	var envelopes []domain.HazardEnvelope
	for i, thresholdKt := range domain.WindThresholds {
		covering := members >> i // halve the member count per threshold step
		halfWidth := 0.6 / float64(i+1)
		for m := 1; m <= covering; m++ {
			jitterLon := (rng.Float64() - 0.5) * 0.2
			jitterLat := (rng.Float64() - 0.5) * 0.2
			centerLon := originLon + 0.2 + jitterLon
			centerLat := originLat + 0.2 + jitterLat
			envelopes = append(envelopes, domain.HazardEnvelope{
				ThresholdKt: thresholdKt,
				Member:      m,
				Geometry: geo.MultiPolygon{geo.Rect(
					centerLon-halfWidth, centerLat-halfWidth,
					centerLon+halfWidth, centerLat+halfWidth,
				)},
			})
		}
	}
	return envelopes
}

func makeTrack(originLon, originLat float64) []domain.TrackPoint {
	points := make([]domain.TrackPoint, 0, 8)
	winds := []float64{45, 60, 75, 90, 100, 95, 80, 60}
	for i, wind := range winds {
		points = append(points, domain.TrackPoint{
			Member:   domain.DeterministicMember,
			Valid:    baseIssuance.Add(time.Duration(i*6) * time.Hour),
			Position: geo.Point{Lon: originLon + 1.5 - float64(i)*0.4, Lat: originLat - 0.8 + float64(i)*0.25},
			WindKt:   wind,
		})
	}
	return points
}

func zonesToGeoJSON(zones []domain.Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		ring := make([][]float64, 0, len(z.Geometry.Exterior)+1)
		for _, p := range z.Geometry.Exterior {
			ring = append(ring, []float64{p.Lon, p.Lat})
		}
		ring = append(ring, ring[0])
		f := geojson.NewPolygonFeature([][][]float64{ring})
		f.Properties["quadkey"] = z.ID
		f.Properties["admin_id"] = z.AdminID
		for attr, v := range z.Baseline {
			f.Properties[string(attr)] = v
		}
		fc.AddFeature(f)
	}
	return fc
}

// envelopeRecord is the flat envelope form the warehouse loader ingests.
type envelopeRecord struct {
	StormID     string          `json:"storm_id"`
	IssuedAt    time.Time       `json:"issued_at"`
	ThresholdKt int             `json:"threshold_kt"`
	Member      int             `json:"member"`
	Geometry    json.RawMessage `json:"geometry"`
}

func envelopesToRecords(envelopes []domain.HazardEnvelope) []envelopeRecord {
	records := make([]envelopeRecord, 0, len(envelopes))
	for _, e := range envelopes {
		coords := make([][][][]float64, 0, len(e.Geometry))
		for _, part := range e.Geometry {
			ring := make([][]float64, 0, len(part.Exterior)+1)
			for _, p := range part.Exterior {
				ring = append(ring, []float64{p.Lon, p.Lat})
			}
			ring = append(ring, ring[0])
			coords = append(coords, [][][]float64{ring})
		}
		raw, _ := json.Marshal(geojson.NewMultiPolygonGeometry(coords...))
		records = append(records, envelopeRecord{
			StormID:     "MOCK012024",
			IssuedAt:    baseIssuance,
			ThresholdKt: e.ThresholdKt,
			Member:      e.Member,
			Geometry:    raw,
		})
	}
	return records
}

// printExpected runs the real calculators over the fixtures and prints the
// values test assertions should expect.
func printExpected(region string, zones []domain.Zone, envelopes []domain.HazardEnvelope, track []domain.TrackPoint, members int) error {
	set, err := domain.NewEnvelopeSet("MOCK012024", baseIssuance, members, envelopes)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Expected values for test assertions ===")
	fmt.Printf("Region: %s, storm MOCK012024, issued %s\n", region, baseIssuance.Format(time.RFC3339))
	fmt.Printf("Peak category: %s\n", domain.PeakCategory(track))

	var views []domain.ImpactView
	for _, thresholdKt := range set.Thresholds() {
		table := domain.ComputeExceedance(zones, set, thresholdKt, zonal.CentroidCounter{})
		if table.Sum() == 0 {
			fmt.Printf("%3d kt: no coverage, stopping\n", thresholdKt)
			break
		}
		view := domain.ExpectedImpacts(table)
		views = append(views, view)
		totals := view.Totals()
		fmt.Printf("%3d kt: probability mass %.3f, expected population %.1f, schools %.1f\n",
			thresholdKt, table.Sum(), totals.Get(domain.AttrPopulation), totals.Get(domain.AttrSchools))
	}

	severity, err := domain.ComputeSeverity(views)
	if err != nil {
		return err
	}
	for admin, scores := range severity {
		fmt.Printf("severity %s: population %.4f, expected %.4f\n", admin, scores.Population, scores.ExpPopulation)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
