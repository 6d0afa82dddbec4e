package domain

import (
	"fmt"
	"math"
	"time"
)

// ForecastInterval is the spacing between consecutive forecast issuances.
const ForecastInterval = 6 * time.Hour

// NoChangeMarker is the percent-change placeholder used when a percentage
// cannot be computed: no previous issuance, or a zero or unknown baseline.
const NoChangeMarker = "-"

// PreviousIssuance returns the issuance time one forecast cycle earlier.
func PreviousIssuance(t time.Time) time.Time {
	return t.Add(-ForecastInterval)
}

// NextIssuance returns when the next forecast cycle is expected.
func NextIssuance(t time.Time) time.Time {
	return t.Add(ForecastInterval)
}

// Change captures how a value moved between consecutive issuances.
type Change struct {
	Delta   float64 `json:"delta"`
	Percent string  `json:"percent"`
}

// DiffValue compares a current value against the previous issuance's value.
// With no previous issuance the whole current value is reported as the delta,
// matching a storm newly entering the region. The percent field falls back to
// NoChangeMarker whenever a ratio would be meaningless.
func DiffValue(current, previous float64, hasPrevious bool) Change {
	if math.IsNaN(current) {
		current = 0
	}
	if !hasPrevious {
		return Change{Delta: current, Percent: NoChangeMarker}
	}
	if math.IsNaN(previous) {
		previous = 0
	}

	delta := current - previous
	if previous == 0 {
		return Change{Delta: delta, Percent: NoChangeMarker}
	}
	return Change{
		Delta:   delta,
		Percent: fmt.Sprintf("%+.1f%%", delta/previous*100),
	}
}

// FormatSignedCount renders a people-count delta as an explicitly signed
// whole number, e.g. "+1200" or "-45". NaN renders as "+0".
func FormatSignedCount(v float64) string {
	if math.IsNaN(v) {
		v = 0
	}
	return fmt.Sprintf("%+d", int64(math.Round(v)))
}
