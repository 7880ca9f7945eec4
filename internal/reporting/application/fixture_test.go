package application

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	clients "energy-accounting/internal/clients/domain"
	clientmemory "energy-accounting/internal/clients/infrastructure/memory"
	meteringapp "energy-accounting/internal/metering/application"
	metering "energy-accounting/internal/metering/domain"
	meteringmemory "energy-accounting/internal/metering/infrastructure/memory"
	reportmemory "energy-accounting/internal/reporting/infrastructure/memory"
)

var march = metering.BillingPeriod{Year: 2025, Month: 3}

type fixture struct {
	clients *clientmemory.ClientRepository
	records *meteringmemory.MeterRecordRepository
	loggers *meteringmemory.LoggerReadingRepository
	docs    *reportmemory.DocumentRepository
	clock   *stepClock
	logger  *log.Logger
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func profile(dc string, mainMeter, checkMeter string) clients.EnergyProfile {
	return clients.EnergyProfile{
		MF:            1,
		PN:            clients.PolarityDirect,
		DCCapacityKWp: clients.ParseCapacity(dc),
		MainMeter:     clients.MeterSlot{MeterNumber: mainMeter},
		CheckMeter:    clients.MeterSlot{MeterNumber: checkMeter},
	}
}

func entry(date string, export, imp float64) metering.IntervalEntry {
	return metering.IntervalEntry{Date: date, ActiveExportTotal: export, ActiveImportTotal: imp}
}

// newFixture seeds main-1 with sub-a (check meter only), sub-b (main meter) and
// sub-c (no meter data), plus main-2 which has no meter data at all.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		clients: clientmemory.NewClientRepository(),
		records: meteringmemory.NewMeterRecordRepository(),
		loggers: meteringmemory.NewLoggerReadingRepository(),
		docs:    reportmemory.NewDocumentRepository(),
		clock:   &stepClock{now: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		logger:  log.New(io.Discard, "", 0),
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(f.clients.SaveMain(ctx, clients.MainClient{ID: "main-1", Name: "Main One", Energy: profile("1,000", "M-MAIN", "M-CHECK")}))
	must(f.clients.SaveMain(ctx, clients.MainClient{ID: "main-2", Name: "Main Two", Energy: profile("", "X-MAIN", "")}))
	must(f.clients.SaveSub(ctx, clients.SubClient{ID: "sub-a", MainClientID: "main-1", Name: "Sub A", Energy: profile("500", "A-MAIN", "A-CHECK")}))
	must(f.clients.SaveSub(ctx, clients.SubClient{ID: "sub-b", MainClientID: "main-1", Name: "Sub B", Energy: profile("", "B-MAIN", "")}))
	must(f.clients.SaveSub(ctx, clients.SubClient{ID: "sub-c", MainClientID: "main-1", Name: "Sub C", Energy: profile("", "C-MAIN", "")}))
	must(f.clients.SavePart(ctx, clients.PartClient{ID: "part-1", SubClientID: "sub-a", SharingPercentage: 60}))
	must(f.clients.SavePart(ctx, clients.PartClient{ID: "part-2", SubClientID: "sub-a", SharingPercentage: 40}))

	must(f.records.Save(ctx, metering.MeterRecord{MeterNumber: "M-MAIN", Period: march, Entries: []metering.IntervalEntry{
		entry("01-03-2025", 600, 10),
		entry("01-03-2025", 400, 10),
		entry("02-03-2025", 800, 0),
	}}))
	must(f.records.Save(ctx, metering.MeterRecord{MeterNumber: "A-CHECK", Period: march, Entries: []metering.IntervalEntry{
		entry("01-03-2025", 600, 10),
		entry("02-03-2025", 500, 1),
	}}))
	must(f.records.Save(ctx, metering.MeterRecord{MeterNumber: "B-MAIN", Period: march, Entries: []metering.IntervalEntry{
		entry("01-03-2025", 380, 5),
	}}))
	must(f.loggers.Save(ctx, metering.LoggerReading{SubClientID: "sub-a", Period: march, Values: map[string]float64{"01-03-2025": 590}}))
	return f
}

func (f *fixture) options() []ServiceOption {
	return []ServiceOption{WithClock(f.clock), WithLogger(f.logger)}
}

func (f *fixture) resolver(t *testing.T) MeterResolver {
	t.Helper()
	resolver, err := meteringapp.NewResolver(f.records, f.logger)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return resolver
}

func (f *fixture) dailyService(t *testing.T, opts ...ServiceOption) *DailyReportService {
	t.Helper()
	svc, err := NewDailyReportService(f.clients, f.resolver(t), f.loggers, f.docs, append(f.options(), opts...)...)
	if err != nil {
		t.Fatalf("daily service: %v", err)
	}
	return svc
}

func (f *fixture) lossesService(t *testing.T, opts ...ServiceOption) *MonthlyLossesService {
	t.Helper()
	svc, err := NewMonthlyLossesService(f.clients, f.resolver(t), f.docs, append(f.options(), opts...)...)
	if err != nil {
		t.Fatalf("losses service: %v", err)
	}
	return svc
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ReportGenerated
}

func (p *recordingPublisher) PublishReportGenerated(ctx context.Context, event ReportGenerated) error {
	_ = ctx
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
