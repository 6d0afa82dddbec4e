package domain

import "time"

// ForecastRef identifies one storm forecast issuance.
type ForecastRef struct {
	StormID      string
	StormName    string
	Issuance     time.Time
	EnsembleSize int
}

// RegionConfig is one region enrolled in the pipeline, with its analysis
// zoom level.
type RegionConfig struct {
	Code      string
	ZoomLevel int
}
