package domain

// WindThresholds are the sustained-wind speeds, in knots, the ensemble
// envelopes are cut at, in ascending order. They align with tropical storm
// strength bands and the Saffir-Simpson hurricane categories.
var WindThresholds = []int{34, 40, 50, 64, 83, 96, 113, 137}

// KeyThresholdKt is the threshold whose expected-impact view feeds the
// headline report totals. 34 kt is the tropical-storm floor, so it captures
// the widest plausible impact footprint.
const KeyThresholdKt = 34

var categoryNames = map[int]string{
	34:  "Tropical Storm",
	40:  "Strong Tropical Storm",
	50:  "Very Strong Tropical Storm",
	64:  "Category 1 Hurricane",
	83:  "Category 2 Hurricane",
	96:  "Category 3 Hurricane",
	113: "Category 4 Hurricane",
	137: "Category 5 Hurricane",
}

// CategoryName returns the storm category label for a sustained wind speed in
// knots: the name of the highest threshold the wind reaches, or "Tropical
// Depression" below the lowest.
func CategoryName(windKt float64) string {
	name := "Tropical Depression"
	for _, t := range WindThresholds {
		if windKt >= float64(t) {
			name = categoryNames[t]
		}
	}
	return name
}

// ValidThreshold reports whether t is one of the modeled wind thresholds.
func ValidThreshold(t int) bool {
	_, ok := categoryNames[t]
	return ok
}
