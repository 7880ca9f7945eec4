package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "platform_"

	resultSuccess  = "success"
	resultError    = "error"
	resultCacheHit = "cache_hit"
)

var (
	registerOnce sync.Once

	reportGenerateTotal   *prometheus.CounterVec
	reportGenerateLatency *prometheus.HistogramVec
	reportCacheHits       *prometheus.CounterVec
	reportDegraded        *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	periodAggregateTotal   *prometheus.CounterVec
	periodAggregateLatency *prometheus.HistogramVec
)

// Init registers reporting metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		reportGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_generate_total",
				Help: "Total report generate operations by kind and result",
			},
			[]string{"kind", "result"},
		)
		reportGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_generate_latency_seconds",
				Help:    "Report generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		reportCacheHits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_cache_hits_total",
				Help: "Generate requests answered from a stored document",
			},
			[]string{"kind"},
		)
		reportDegraded = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_degraded_total",
				Help: "Degraded-but-continue conditions by reason",
			},
			[]string{"reason"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		periodAggregateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "period_aggregate_total",
				Help: "Total period aggregations by result",
			},
			[]string{"result"},
		)
		periodAggregateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "period_aggregate_latency_seconds",
				Help:    "Period aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			reportGenerateTotal,
			reportGenerateLatency,
			reportCacheHits,
			reportDegraded,
			reportExportTotal,
			reportExportLatency,
			periodAggregateTotal,
			periodAggregateLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveReportGenerate records generate latency and result.
func ObserveReportGenerate(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportGenerateTotal != nil {
		reportGenerateTotal.WithLabelValues(kind, result).Inc()
	}
	if reportGenerateLatency != nil {
		reportGenerateLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// IncReportCacheHit counts a generate request served from a stored document.
func IncReportCacheHit(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if reportCacheHits != nil {
		reportCacheHits.WithLabelValues(kind).Inc()
	}
}

// IncReportDegraded counts a degraded-but-continue condition.
func IncReportDegraded(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if reportDegraded != nil {
		reportDegraded.WithLabelValues(reason).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObservePeriodAggregate records period aggregation latency and result.
func ObservePeriodAggregate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if periodAggregateTotal != nil {
		periodAggregateTotal.WithLabelValues(result).Inc()
	}
	if periodAggregateLatency != nil {
		periodAggregateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess  = resultSuccess
	ResultError    = resultError
	ResultCacheHit = resultCacheHit

	DegradedCheckMeter    = "check_meter"
	DegradedNoMeterData   = "no_meter_data"
	DegradedBadProfile    = "bad_profile"
	DegradedLoggerMissing = "logger_missing"
	DegradedSkippedEntry  = "skipped_entry"
	DegradedSharing       = "sharing_out_of_range"
)
