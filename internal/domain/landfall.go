package domain

import (
	"sort"
	"time"

	"github.com/couchcryptid/storm-impact-engine/internal/geo"
)

// DeterministicMember is the ensemble member carrying the deterministic
// (control) track, used for landfall timing and the headline category.
const DeterministicMember = 51

// Landfall status strings used when a timestamp cannot be given.
const (
	LandfallAlready = "Already landed"
	LandfallUnknown = "Unknown"
)

// LandfallTimeLayout formats landfall and issuance timestamps for reports.
const LandfallTimeLayout = "January 02, 2006 15:04 UTC"

// TrackPoint is one forecast position of one ensemble member.
type TrackPoint struct {
	Member   int
	Valid    time.Time
	Position geo.Point
	WindKt   float64
}

// DeterministicTrack filters the track to the deterministic member, sorted by
// valid time.
func DeterministicTrack(points []TrackPoint) []TrackPoint {
	track := make([]TrackPoint, 0, len(points))
	for _, p := range points {
		if p.Member == DeterministicMember {
			track = append(track, p)
		}
	}
	sort.Slice(track, func(i, j int) bool { return track[i].Valid.Before(track[j].Valid) })
	return track
}

// ExpectedLandfall estimates when the deterministic track reaches the region
// boundary. The first track point already inside means landfall has happened.
// Otherwise the first point inside the boundary gives the landfall time; if
// no point lands but a track segment crosses the boundary, the segment's
// arrival time is used. A track that never touches the region is Unknown.
func ExpectedLandfall(points []TrackPoint, boundary geo.MultiPolygon) string {
	track := DeterministicTrack(points)
	if len(track) == 0 || boundary.IsEmpty() {
		return LandfallUnknown
	}

	for i, p := range track {
		if geo.ContainsPointAny(boundary, p.Position) {
			if i == 0 {
				return LandfallAlready
			}
			return p.Valid.UTC().Format(LandfallTimeLayout)
		}
	}

	for i := 0; i+1 < len(track); i++ {
		for _, part := range boundary {
			if geo.SegmentIntersectsPolygon(track[i].Position, track[i+1].Position, part) {
				return track[i+1].Valid.UTC().Format(LandfallTimeLayout)
			}
		}
	}
	return LandfallUnknown
}

// PeakCategory returns the storm category label for the strongest wind along
// the deterministic track.
func PeakCategory(points []TrackPoint) string {
	maxWind := 0.0
	for _, p := range DeterministicTrack(points) {
		if p.WindKt > maxWind {
			maxWind = p.WindKt
		}
	}
	return CategoryName(maxWind)
}
