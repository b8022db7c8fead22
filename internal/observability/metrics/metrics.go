package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchRequestsTotal       metric.Int64Counter
	SearchDurationSeconds     metric.Float64Histogram
	EnrichmentDurationSeconds metric.Float64Histogram
	EnrichmentFailuresTotal   metric.Int64Counter
	ContributionsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments only once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("chaikada")
		var err error
		m := &AppMetrics{}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"search_requests_total",
			metric.WithDescription("Total number of nearby-search requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_requests_total: %v", err)
		}

		m.SearchDurationSeconds, err = meter.Float64Histogram(
			"search_duration_seconds",
			metric.WithDescription("End-to-end duration of the search pipeline"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_duration_seconds: %v", err)
		}

		m.EnrichmentDurationSeconds, err = meter.Float64Histogram(
			"enrichment_duration_seconds",
			metric.WithDescription("Duration of walking-distance enrichment calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_duration_seconds: %v", err)
		}

		m.EnrichmentFailuresTotal, err = meter.Int64Counter(
			"enrichment_failures_total",
			metric.WithDescription("Whole-batch enrichment call failures"),
			metric.WithUnit("{failure}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_failures_total: %v", err)
		}

		m.ContributionsTotal, err = meter.Int64Counter(
			"contributions_total",
			metric.WithDescription("Metadata contributions and reviews recorded"),
			metric.WithUnit("{contribution}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create contributions_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance. InitAppMetrics must have been
// called first; a nil return means metrics are disabled.
func Get() *AppMetrics {
	return appMetrics
}
