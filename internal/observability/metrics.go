package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the impact engine.
type Metrics struct {
	RegionsEvaluated prometheus.Counter
	RegionsAffected  prometheus.Counter
	RegionsFailed    prometheus.Counter
	StormsProcessed  prometheus.Counter
	ViewsBuilt       prometheus.Counter
	ReportsWritten   prometheus.Counter
	ReportsPublished prometheus.Counter
	WarehouseQueries prometheus.Counter
	PipelineRunning  prometheus.Gauge

	RegionDuration prometheus.Histogram

	// Facility fetch metrics. labels: kind={school,health}, outcome={fetched,cached,unavailable}
	FacilityFetches *prometheus.CounterVec
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RegionsEvaluated,
		m.RegionsAffected,
		m.RegionsFailed,
		m.StormsProcessed,
		m.ViewsBuilt,
		m.ReportsWritten,
		m.ReportsPublished,
		m.WarehouseQueries,
		m.PipelineRunning,
		m.RegionDuration,
		m.FacilityFetches,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RegionsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "regions_evaluated_total",
			Help:      "Total regions tested against the buffered-boundary gate.",
		}),
		RegionsAffected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "regions_affected_total",
			Help:      "Total regions whose buffered boundary intersected an envelope.",
		}),
		RegionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "regions_failed_total",
			Help:      "Total region pipelines that ended in error.",
		}),
		StormsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "storms_processed_total",
			Help:      "Total (storm, issuance) forecasts processed.",
		}),
		ViewsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "views_built_total",
			Help:      "Total per-threshold impact views written to the data store.",
		}),
		ReportsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "reports_written_total",
			Help:      "Total JSON impact reports persisted.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "reports_published_total",
			Help:      "Total JSON impact reports published to Kafka.",
		}),
		WarehouseQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "warehouse_queries_total",
			Help:      "Total queries issued to the forecast warehouse.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storm_impact",
			Name:      "pipeline_running",
			Help:      "1 when a pipeline run is active, 0 otherwise.",
		}),
		RegionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storm_impact",
			Name:      "region_processing_duration_seconds",
			Help:      "Duration of one region's full impact pipeline.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		FacilityFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storm_impact",
			Name:      "facility_fetches_total",
			Help:      "Facility location fetches by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}
