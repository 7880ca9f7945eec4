package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	metering "energy-accounting/internal/metering/domain"
	reporting "energy-accounting/internal/reporting/domain"
)

func TestDocumentRepository_ListMonthlyLossesOrderedAndIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	for _, p := range []metering.BillingPeriod{{Year: 2025, Month: 3}, {Year: 2024, Month: 12}, {Year: 2025, Month: 1}} {
		doc := &reporting.MonthlyLossesDocument{ID: "doc-" + p.Key(), MainClientID: "main-1", Period: p, SubClientIDs: []string{"sub-a"}}
		if err := repo.SaveMonthlyLosses(ctx, doc); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.SaveMonthlyLosses(ctx, &reporting.MonthlyLossesDocument{ID: "other", MainClientID: "main-2", Period: metering.BillingPeriod{Year: 2025, Month: 1}}); err != nil {
		t.Fatalf("save other: %v", err)
	}

	docs, err := repo.ListMonthlyLosses(ctx, "main-1", metering.BillingPeriod{Year: 2025, Month: 1}, metering.BillingPeriod{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].Period.Month != 1 || docs[1].Period.Month != 3 {
		t.Fatalf("unexpected documents %+v", docs)
	}

	docs[0].SubClientIDs[0] = "mutated"
	again, _ := repo.FindMonthlyLosses(ctx, "main-1", metering.BillingPeriod{Year: 2025, Month: 1})
	if again.SubClientIDs[0] != "sub-a" {
		t.Fatalf("expected stored document to be isolated from callers")
	}
	if repo.Saves() != 4 {
		t.Fatalf("expected 4 saves, got %d", repo.Saves())
	}
}

func TestDocumentRepository_TouchAndMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	period := metering.BillingPeriod{Year: 2025, Month: 3}

	missing, err := repo.FindDailyReport(ctx, "main-1", period)
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing document, got %v %v", missing, err)
	}
	if err := repo.SaveDailyReport(ctx, nil); !errors.Is(err, reporting.ErrNilDocument) {
		t.Fatalf("expected ErrNilDocument, got %v", err)
	}
	if err := repo.TouchDailyReport(ctx, "nope", time.Now()); !errors.Is(err, reporting.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	if err := repo.SaveDailyReport(ctx, &reporting.DailyReportDocument{ID: "daily-1", MainClientID: "main-1", Period: period}); err != nil {
		t.Fatalf("save: %v", err)
	}
	touched := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	if err := repo.TouchDailyReport(ctx, "daily-1", touched); err != nil {
		t.Fatalf("touch: %v", err)
	}
	doc, _ := repo.FindDailyReport(ctx, "main-1", period)
	if !doc.UpdatedAt.Equal(touched) {
		t.Fatalf("expected UpdatedAt %s, got %s", touched, doc.UpdatedAt)
	}
}
