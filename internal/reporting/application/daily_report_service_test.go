package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	metering "energy-accounting/internal/metering/domain"
)

func TestDailyReportGenerate(t *testing.T) {
	f := newFixture(t)
	publisher := &recordingPublisher{}
	svc := f.dailyService(t, WithPublisher(publisher), WithIDGenerator(func() string { return "doc-1" }))

	res, err := svc.Generate(context.Background(), DailyReportRequest{MainClientID: "main-1", Period: march})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	doc := res.Document
	if res.CacheHit || doc.ID != "doc-1" {
		t.Fatalf("expected fresh document doc-1, got hit=%v id=%s", res.CacheHit, doc.ID)
	}
	if len(doc.SubClientIDs) != 3 {
		t.Fatalf("expected key set of all 3 subs, got %v", doc.SubClientIDs)
	}
	if len(doc.Main.Days) != 2 || !doc.Main.Totals.ExportKWh.Equal(decimal.NewFromInt(1800)) {
		t.Fatalf("unexpected main series %+v", doc.Main.Totals)
	}
	// 1000 kWh over 1,000 kWp.
	if !doc.Main.Days[0].AvgGenerationDC.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("unexpected main avg generation %s", doc.Main.Days[0].AvgGenerationDC)
	}
	if len(doc.Subs) != 2 || doc.Subs[0].Client.ID != "sub-a" || doc.Subs[1].Client.ID != "sub-b" {
		t.Fatalf("unexpected subs %+v", doc.Subs)
	}
	if len(doc.ClientsWithoutMeters) != 1 || doc.ClientsWithoutMeters[0] != "sub-c" {
		t.Fatalf("expected sub-c without meters, got %v", doc.ClientsWithoutMeters)
	}
	if len(doc.ClientsUsingCheckMeter) != 1 || doc.ClientsUsingCheckMeter[0] != "sub-a" {
		t.Fatalf("expected sub-a on check meter, got %v", doc.ClientsUsingCheckMeter)
	}

	subA := doc.Subs[0]
	if !subA.Meter.UsedCheckMeter || subA.Meter.MeterNumber != "A-CHECK" {
		t.Fatalf("unexpected sub-a meter %+v", subA.Meter)
	}
	if !subA.Days[0].InternalLoss.Equal(decimal.NewFromInt(10)) || subA.Days[0].LoggerMissing {
		t.Fatalf("unexpected sub-a day 1 %+v", subA.Days[0])
	}
	if !subA.Days[1].LoggerMissing || !subA.Days[1].InternalLoss.IsZero() {
		t.Fatalf("expected logger-missing flag on day 2, got %+v", subA.Days[1])
	}
	for _, day := range doc.Subs[1].Days {
		if !day.LoggerMissing {
			t.Fatalf("sub-b has no logger data, expected flag on %s", day.Date)
		}
	}

	if len(doc.LineLoss.Days) != 2 {
		t.Fatalf("expected a line loss figure per main date, got %d", len(doc.LineLoss.Days))
	}
	if !doc.LineLoss.Days[0].ExportDiffKWh.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected day 1 export diff %s", doc.LineLoss.Days[0].ExportDiffKWh)
	}
	if !doc.LineLoss.Days[1].ExportDiffKWh.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("unexpected day 2 export diff %s", doc.LineLoss.Days[1].ExportDiffKWh)
	}
	if len(doc.Warnings) == 0 {
		t.Fatalf("expected warnings for excluded sub and missing logger days")
	}
	if publisher.count() != 1 {
		t.Fatalf("expected one published event, got %d", publisher.count())
	}
}

func TestDailyReportCacheHitTouchesOnlyUpdatedAt(t *testing.T) {
	f := newFixture(t)
	publisher := &recordingPublisher{}
	svc := f.dailyService(t, WithPublisher(publisher))
	ctx := context.Background()

	first, err := svc.Generate(ctx, DailyReportRequest{MainClientID: "main-1", Period: march})
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := svc.Generate(ctx, DailyReportRequest{MainClientID: "main-1", Period: march, SubClientIDs: []string{"sub-c", "sub-b", "sub-a"}})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("expected cache hit for identical key set")
	}
	if f.docs.Saves() != 1 || publisher.count() != 1 {
		t.Fatalf("cache hit must not recompute: saves=%d events=%d", f.docs.Saves(), publisher.count())
	}
	a, b := first.Document, second.Document
	if a.ID != b.ID || !a.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("identity changed: %s/%s %v/%v", a.ID, b.ID, a.CreatedAt, b.CreatedAt)
	}
	if !b.UpdatedAt.After(a.UpdatedAt) {
		t.Fatalf("expected updated_at to advance, got %v then %v", a.UpdatedAt, b.UpdatedAt)
	}
	if !a.LineLoss.Totals.ExportDiffKWh.Equal(b.LineLoss.Totals.ExportDiffKWh) || !a.Main.Totals.ExportKWh.Equal(b.Main.Totals.ExportKWh) {
		t.Fatalf("figures changed on cache hit")
	}

	stored, err := svc.Get(ctx, "main-1", march)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.UpdatedAt.Equal(b.UpdatedAt) {
		t.Fatalf("touch not persisted: %v vs %v", stored.UpdatedAt, b.UpdatedAt)
	}
}

func TestDailyReportPartialKeyRecomputes(t *testing.T) {
	f := newFixture(t)
	svc := f.dailyService(t)
	ctx := context.Background()

	full, err := svc.Generate(ctx, DailyReportRequest{MainClientID: "main-1", Period: march})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	partial, err := svc.Generate(ctx, DailyReportRequest{MainClientID: "main-1", Period: march, SubClientIDs: []string{"sub-a"}})
	if err != nil {
		t.Fatalf("partial generate: %v", err)
	}
	if partial.CacheHit {
		t.Fatalf("partial key set must recompute")
	}
	if partial.Document.ID != full.Document.ID || !partial.Document.CreatedAt.Equal(full.Document.CreatedAt) {
		t.Fatalf("replacement should keep document identity")
	}
	if len(partial.Document.Subs) != 1 || len(partial.Document.SubClientIDs) != 1 {
		t.Fatalf("unexpected partial document subs %+v", partial.Document.SubClientIDs)
	}
	// 1000 - 600 on day 1; sub-b no longer counted.
	if !partial.Document.LineLoss.Days[0].ExportDiffKWh.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected partial diff %s", partial.Document.LineLoss.Days[0].ExportDiffKWh)
	}

	forced, err := svc.Generate(ctx, DailyReportRequest{MainClientID: "main-1", Period: march, SubClientIDs: []string{"sub-a"}, Force: true})
	if err != nil {
		t.Fatalf("forced generate: %v", err)
	}
	if forced.CacheHit || f.docs.Saves() != 3 {
		t.Fatalf("force must recompute: hit=%v saves=%d", forced.CacheHit, f.docs.Saves())
	}
}

func TestDailyReportMainWithoutDataFails(t *testing.T) {
	f := newFixture(t)
	svc := f.dailyService(t)
	_, err := svc.Generate(context.Background(), DailyReportRequest{MainClientID: "main-2", Period: march})
	if !errors.Is(err, metering.ErrNoMeterData) {
		t.Fatalf("expected ErrNoMeterData, got %v", err)
	}
	if f.docs.Saves() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestDailyReportValidation(t *testing.T) {
	f := newFixture(t)
	svc := f.dailyService(t)
	ctx := context.Background()
	if _, err := svc.Generate(ctx, DailyReportRequest{Period: march}); err == nil {
		t.Fatalf("expected error for empty main client")
	}
	if _, err := svc.Generate(ctx, DailyReportRequest{MainClientID: "main-1", Period: metering.BillingPeriod{Year: 2025, Month: 13}}); !errors.Is(err, metering.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
	if _, err := svc.Get(ctx, "main-1", march); err == nil {
		t.Fatalf("expected not found before generation")
	}
}

func TestNewDailyReportServiceRejectsNilDeps(t *testing.T) {
	f := newFixture(t)
	if _, err := NewDailyReportService(nil, f.resolver(t), f.loggers, f.docs); err == nil {
		t.Fatalf("expected error for nil client repository")
	}
	if _, err := NewDailyReportService(f.clients, f.resolver(t), f.loggers, nil); err == nil {
		t.Fatalf("expected error for nil repo")
	}
}
