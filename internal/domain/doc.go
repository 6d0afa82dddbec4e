// Package domain holds the core impact-analysis model: wind thresholds and
// storm categories, population zones with baseline attributes, ensemble
// hazard envelopes, and the calculators that turn them into exceedance
// probabilities, expected-impact views, severity indices, administrative
// roll-ups, forecast diffs, and impact reports.
package domain
