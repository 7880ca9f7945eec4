package application

import (
	"context"
	"errors"
	"time"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
	"energy-accounting/internal/observability/metrics"
	reporting "energy-accounting/internal/reporting/domain"
)

// DailyReportRequest asks for the daily report of a main client and month.
// An empty SubClientIDs selects every sub client. Force skips the stored document.
type DailyReportRequest struct {
	MainClientID string
	SubClientIDs []string
	Period       metering.BillingPeriod
	Force        bool
}

// DailyReportResult is a generated or stored document.
type DailyReportResult struct {
	Document *reporting.DailyReportDocument
	CacheHit bool
}

// DailyReportService materializes daily report documents.
type DailyReportService struct {
	clients  clients.Repository
	resolver MeterResolver
	loggers  metering.LoggerReadingRepository
	repo     reporting.DailyReportRepository
	opts     serviceOptions
}

// NewDailyReportService constructs a service.
func NewDailyReportService(
	clientRepo clients.Repository,
	resolver MeterResolver,
	loggers metering.LoggerReadingRepository,
	repo reporting.DailyReportRepository,
	opts ...ServiceOption,
) (*DailyReportService, error) {
	if clientRepo == nil {
		return nil, errors.New("daily report service: nil client repository")
	}
	if resolver == nil {
		return nil, errors.New("daily report service: nil meter resolver")
	}
	if loggers == nil {
		return nil, errors.New("daily report service: nil logger reading repository")
	}
	if repo == nil {
		return nil, errors.New("daily report service: nil repo")
	}
	return &DailyReportService{
		clients:  clientRepo,
		resolver: resolver,
		loggers:  loggers,
		repo:     repo,
		opts:     buildOptions(opts),
	}, nil
}

// Generate returns the stored document when it was built for exactly the
// requested sub client set, refreshing only its UpdatedAt. Otherwise the whole
// request is recomputed and replaces the stored document.
func (s *DailyReportService) Generate(ctx context.Context, req DailyReportRequest) (*DailyReportResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportGenerate(string(reporting.KindDailyReport), result, time.Since(start))
	}()

	if err := validateRequest(req.MainClientID, req.Period); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	hierarchy, err := clients.LoadHierarchy(ctx, s.clients, req.MainClientID, req.SubClientIDs)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	keySet := hierarchy.SubClientIDs()

	release, err := s.opts.locker.Acquire(ctx, lockKey(reporting.KindDailyReport, req.MainClientID, req.Period))
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	defer release()

	existing, err := s.repo.FindDailyReport(ctx, req.MainClientID, req.Period)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if existing != nil && !req.Force && existing.MatchesKey(keySet) {
		now := s.opts.clock.Now().UTC()
		if err := s.repo.TouchDailyReport(ctx, existing.ID, now); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		existing.UpdatedAt = now
		result = metrics.ResultCacheHit
		metrics.IncReportCacheHit(string(reporting.KindDailyReport))
		return &DailyReportResult{Document: existing, CacheHit: true}, nil
	}

	doc, err := s.build(ctx, hierarchy, req.Period)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	now := s.opts.clock.Now().UTC()
	doc.SubClientIDs = keySet
	doc.ID = s.opts.newID()
	doc.CreatedAt = now
	if existing != nil {
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	}
	doc.UpdatedAt = now

	if err := s.repo.SaveDailyReport(ctx, doc); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	s.opts.logger.Printf("daily report generated: main=%s period=%s subs=%d without_meters=%d check_meter=%d", doc.MainClientID, doc.Period, len(doc.Subs), len(doc.ClientsWithoutMeters), len(doc.ClientsUsingCheckMeter))
	s.opts.publish(ctx, ReportGenerated{
		Kind:         reporting.KindDailyReport,
		DocumentID:   doc.ID,
		MainClientID: doc.MainClientID,
		Period:       doc.Period,
		SubClientIDs: append([]string(nil), doc.SubClientIDs...),
		Warnings:     len(doc.Warnings),
		OccurredAt:   now,
	})
	return &DailyReportResult{Document: doc}, nil
}

// Get returns the stored document without generating.
func (s *DailyReportService) Get(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*reporting.DailyReportDocument, error) {
	if err := validateRequest(mainClientID, period); err != nil {
		return nil, err
	}
	doc, err := s.repo.FindDailyReport(ctx, mainClientID, period)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, reporting.ErrReportNotFound
	}
	return doc, nil
}

func (s *DailyReportService) build(ctx context.Context, h *clients.Hierarchy, period metering.BillingPeriod) (*reporting.DailyReportDocument, error) {
	notes := newOutcome()
	mainRes, err := notes.resolveMain(ctx, s.resolver, h.Main, period)
	if err != nil {
		return nil, err
	}
	mainFigures := reporting.BuildDailyFigures(mainRes.Days, h.Main.Energy)
	doc := &reporting.DailyReportDocument{
		MainClientID: h.Main.ID,
		Period:       period,
		Main: reporting.ClientSeries{
			Client:        reporting.SnapshotOf(h.Main),
			Meter:         meterUsage(mainRes),
			CapacityBasis: reporting.ResolveCapacityBasis(h.Main.Energy),
			Days:          mainFigures,
			Totals:        reporting.Summarize(mainFigures),
		},
		Subs: make([]reporting.ClientSeries, 0, len(h.Subs)),
	}

	subFigures := make([][]reporting.DailyFigure, 0, len(h.Subs))
	for _, branch := range h.Subs {
		sub := branch.Sub
		res, err := notes.resolveSub(ctx, s.resolver, sub, period)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		logger, err := s.loggers.Get(ctx, sub.ID, period)
		if err != nil {
			return nil, err
		}
		figures := reporting.ReconcileInternalLoss(reporting.BuildDailyFigures(res.Days, sub.Energy), logger)
		totals := reporting.Summarize(figures)
		if totals.MissingLoggerDays > 0 {
			notes.warn("sub client %s: logger data missing for %d of %d days", sub.ID, totals.MissingLoggerDays, totals.Days)
			metrics.IncReportDegraded(metrics.DegradedLoggerMissing)
		}
		doc.Subs = append(doc.Subs, reporting.ClientSeries{
			Client:        reporting.SnapshotOf(sub),
			Meter:         meterUsage(res),
			CapacityBasis: reporting.ResolveCapacityBasis(sub.Energy),
			Days:          figures,
			Totals:        totals,
		})
		subFigures = append(subFigures, figures)
	}

	doc.LineLoss = reporting.DiffLineLoss(mainFigures, subFigures)
	doc.ClientsUsingCheckMeter = notes.usingCheckMeter
	doc.ClientsWithoutMeters = notes.withoutMeters
	doc.Warnings = notes.warnings
	for _, w := range doc.Warnings {
		s.opts.logger.Printf("daily report warning: main=%s period=%s %s", h.Main.ID, period, w)
	}
	return doc, nil
}
