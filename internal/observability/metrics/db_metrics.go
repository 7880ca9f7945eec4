package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	for _, kind := range []string{"daily_report", "monthly_losses"} {
		kind := kind
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        metricPrefix + "report_documents",
				Help:        "Stored report documents",
				ConstLabels: prometheus.Labels{"kind": kind},
			},
			func() float64 {
				return queryCount(db, logger, "SELECT COUNT(*) FROM report_documents WHERE kind = $1", kind)
			},
		))
	}

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "meter_records",
			Help: "Ingested meter records",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM meter_records")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string, args ...any) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
