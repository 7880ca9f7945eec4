package integration_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"energy-accounting/internal/audit"
	clients "energy-accounting/internal/clients/domain"
	clientpostgres "energy-accounting/internal/clients/infrastructure/postgres"
	meteringapp "energy-accounting/internal/metering/application"
	metering "energy-accounting/internal/metering/domain"
	meteringpostgres "energy-accounting/internal/metering/infrastructure/postgres"
	reportapp "energy-accounting/internal/reporting/application"
	reporting "energy-accounting/internal/reporting/domain"
	reportpostgres "energy-accounting/internal/reporting/infrastructure/postgres"
)

func TestReports_GenerateCacheAndAggregate(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := applyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	mainID := "main-" + suffix
	subID := "sub-" + suffix
	mainMeter := "M-" + suffix
	subMeter := "S-" + suffix
	march := metering.BillingPeriod{Year: 2025, Month: 3}

	clientRepo := clientpostgres.NewClientRepository(db)
	energy := func(dc, meter string) clients.EnergyProfile {
		return clients.EnergyProfile{MF: 1, PN: clients.PolarityDirect, DCCapacityKWp: clients.ParseCapacity(dc), MainMeter: clients.MeterSlot{MeterNumber: meter}}
	}
	if err := clientRepo.SaveMain(ctx, clients.MainClient{ID: mainID, Name: "Main", Energy: energy("1,000", mainMeter)}); err != nil {
		t.Fatalf("save main: %v", err)
	}
	if err := clientRepo.SaveSub(ctx, clients.SubClient{ID: subID, MainClientID: mainID, Name: "Sub", Energy: energy("500", subMeter)}); err != nil {
		t.Fatalf("save sub: %v", err)
	}
	if err := clientRepo.SavePart(ctx, clients.PartClient{ID: "part-" + suffix, SubClientID: subID, SharingPercentage: 100}); err != nil {
		t.Fatalf("save part: %v", err)
	}

	records := meteringpostgres.NewMeterRecordRepository(db)
	loggers := meteringpostgres.NewLoggerReadingRepository(db)
	if err := records.Save(ctx, metering.MeterRecord{MeterNumber: mainMeter, Period: march, Entries: []metering.IntervalEntry{
		{Date: "01-03-2025", ActiveExportTotal: 100, ActiveImportTotal: 40},
	}}); err != nil {
		t.Fatalf("save main record: %v", err)
	}
	if err := records.Save(ctx, metering.MeterRecord{MeterNumber: subMeter, Period: march, Entries: []metering.IntervalEntry{
		{Date: "01-03-2025", ActiveExportTotal: 100, ActiveImportTotal: 40},
	}}); err != nil {
		t.Fatalf("save sub record: %v", err)
	}
	if err := loggers.Save(ctx, metering.LoggerReading{SubClientID: subID, Period: march, Values: map[string]float64{"01-03-2025": 90}}); err != nil {
		t.Fatalf("save logger: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	resolver, err := meteringapp.NewResolver(records, logger)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	docs := reportpostgres.NewDocumentRepository(db)
	daily, err := reportapp.NewDailyReportService(clientRepo, resolver, loggers, docs, reportapp.WithLogger(logger))
	if err != nil {
		t.Fatalf("daily service: %v", err)
	}
	losses, err := reportapp.NewMonthlyLossesService(clientRepo, resolver, docs, reportapp.WithLogger(logger))
	if err != nil {
		t.Fatalf("losses service: %v", err)
	}

	first, err := daily.Generate(ctx, reportapp.DailyReportRequest{MainClientID: mainID, Period: march})
	if err != nil {
		t.Fatalf("generate daily: %v", err)
	}
	day := first.Document.Subs[0].Days[0]
	if !day.InternalLoss.Equal(decimal.NewFromInt(10)) || !day.LossPercent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected internal loss 10 and 10%%, got %s %s", day.InternalLoss, day.LossPercent)
	}
	second, err := daily.Generate(ctx, reportapp.DailyReportRequest{MainClientID: mainID, Period: march})
	if err != nil {
		t.Fatalf("regenerate daily: %v", err)
	}
	if !second.CacheHit || second.Document.ID != first.Document.ID {
		t.Fatalf("expected cache hit on stored document")
	}

	if _, err := losses.Generate(ctx, reportapp.MonthlyLossesRequest{MainClientID: mainID, Period: march}); err != nil {
		t.Fatalf("generate losses: %v", err)
	}
	period, err := reportapp.NewPeriodService(clientRepo, docs, reportapp.DefaultConfig().Limits, reportapp.WithLogger(logger))
	if err != nil {
		t.Fatalf("period service: %v", err)
	}
	report, err := period.Aggregate(ctx, reportapp.PeriodRequest{MainClientID: mainID, From: metering.BillingPeriod{Year: 2025, Month: 2}, To: march})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(report.Rows) != 2 || len(report.MissingMonths) != 1 || !report.Rows[1].Present {
		t.Fatalf("unexpected period report rows=%d missing=%v", len(report.Rows), report.MissingMonths)
	}
	if !report.Totals.Main.InjectionMWh.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("expected 0.1 MWh main injection, got %s", report.Totals.Main.InjectionMWh)
	}

	auditRepo := audit.NewRepository(db)
	meta, _ := json.Marshal(map[string]any{"kind": string(reporting.KindDailyReport)})
	if err := auditRepo.Log(ctx, audit.Entry{Action: "report.daily.generate", MainClientID: mainID, Period: march.String(), Metadata: meta}); err != nil {
		t.Fatalf("audit log: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE main_client_id = $1`, mainID).Scan(&count); err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one audit row, got %d", count)
	}
}

func applyMigrations(db *sql.DB) error {
	paths, err := filepath.Glob(filepath.Join(projectRoot(), "migrations", "*.sql"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return err
		}
	}
	return nil
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}
