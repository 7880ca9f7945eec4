package reporting

import (
	"context"
	"time"

	metering "energy-accounting/internal/metering/domain"
)

// DailyReportRepository stores daily report documents, one per (main client, period).
// Missing documents are returned as nil, nil.
type DailyReportRepository interface {
	FindDailyReport(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*DailyReportDocument, error)
	SaveDailyReport(ctx context.Context, doc *DailyReportDocument) error
	TouchDailyReport(ctx context.Context, id string, updatedAt time.Time) error
}

// MonthlyLossesRepository stores monthly losses documents, one per (main client, period).
// Missing documents are returned as nil, nil.
type MonthlyLossesRepository interface {
	FindMonthlyLosses(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*MonthlyLossesDocument, error)
	SaveMonthlyLosses(ctx context.Context, doc *MonthlyLossesDocument) error
	TouchMonthlyLosses(ctx context.Context, id string, updatedAt time.Time) error
	ListMonthlyLosses(ctx context.Context, mainClientID string, from, to metering.BillingPeriod) ([]*MonthlyLossesDocument, error)
}
