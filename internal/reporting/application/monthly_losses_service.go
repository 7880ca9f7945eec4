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

// MonthlyLossesRequest asks for the losses distribution of a main client and month.
type MonthlyLossesRequest struct {
	MainClientID string
	SubClientIDs []string
	Period       metering.BillingPeriod
	Force        bool
}

// MonthlyLossesResult is a generated or stored document.
type MonthlyLossesResult struct {
	Document *reporting.MonthlyLossesDocument
	CacheHit bool
}

// MonthlyLossesService materializes monthly losses documents.
type MonthlyLossesService struct {
	clients  clients.Repository
	resolver MeterResolver
	repo     reporting.MonthlyLossesRepository
	opts     serviceOptions
}

// NewMonthlyLossesService constructs a service.
func NewMonthlyLossesService(clientRepo clients.Repository, resolver MeterResolver, repo reporting.MonthlyLossesRepository, opts ...ServiceOption) (*MonthlyLossesService, error) {
	if clientRepo == nil {
		return nil, errors.New("monthly losses service: nil client repository")
	}
	if resolver == nil {
		return nil, errors.New("monthly losses service: nil meter resolver")
	}
	if repo == nil {
		return nil, errors.New("monthly losses service: nil repo")
	}
	return &MonthlyLossesService{
		clients:  clientRepo,
		resolver: resolver,
		repo:     repo,
		opts:     buildOptions(opts),
	}, nil
}

// Generate follows the same cache contract as the daily report: an exact key
// set match is touched and returned, anything else is recomputed in full.
func (s *MonthlyLossesService) Generate(ctx context.Context, req MonthlyLossesRequest) (*MonthlyLossesResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportGenerate(string(reporting.KindMonthlyLosses), result, time.Since(start))
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

	release, err := s.opts.locker.Acquire(ctx, lockKey(reporting.KindMonthlyLosses, req.MainClientID, req.Period))
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	defer release()

	existing, err := s.repo.FindMonthlyLosses(ctx, req.MainClientID, req.Period)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if existing != nil && !req.Force && existing.MatchesKey(keySet) {
		now := s.opts.clock.Now().UTC()
		if err := s.repo.TouchMonthlyLosses(ctx, existing.ID, now); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		existing.UpdatedAt = now
		result = metrics.ResultCacheHit
		metrics.IncReportCacheHit(string(reporting.KindMonthlyLosses))
		return &MonthlyLossesResult{Document: existing, CacheHit: true}, nil
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

	if err := s.repo.SaveMonthlyLosses(ctx, doc); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	s.opts.logger.Printf("monthly losses generated: main=%s period=%s injection_loss_mwh=%s drawl_loss_mwh=%s", doc.MainClientID, doc.Period, doc.Summary.InjectionLossMWh.StringFixed(4), doc.Summary.DrawlLossMWh.StringFixed(4))
	s.opts.publish(ctx, ReportGenerated{
		Kind:         reporting.KindMonthlyLosses,
		DocumentID:   doc.ID,
		MainClientID: doc.MainClientID,
		Period:       doc.Period,
		SubClientIDs: append([]string(nil), doc.SubClientIDs...),
		Warnings:     len(doc.Warnings),
		OccurredAt:   now,
	})
	return &MonthlyLossesResult{Document: doc}, nil
}

// Get returns the stored document without generating.
func (s *MonthlyLossesService) Get(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*reporting.MonthlyLossesDocument, error) {
	if err := validateRequest(mainClientID, period); err != nil {
		return nil, err
	}
	doc, err := s.repo.FindMonthlyLosses(ctx, mainClientID, period)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, reporting.ErrReportNotFound
	}
	return doc, nil
}

func (s *MonthlyLossesService) build(ctx context.Context, h *clients.Hierarchy, period metering.BillingPeriod) (*reporting.MonthlyLossesDocument, error) {
	notes := newOutcome()
	mainRes, err := notes.resolveMain(ctx, s.resolver, h.Main, period)
	if err != nil {
		return nil, err
	}
	in := reporting.MonthlyLossesInput{
		Main:       reporting.SnapshotOf(h.Main),
		MainMeter:  meterUsage(mainRes),
		MainEnergy: mainRes.Total(),
		Subs:       make([]reporting.SubMonthlyInput, 0, len(h.Subs)),
	}
	for _, branch := range h.Subs {
		res, err := notes.resolveSub(ctx, s.resolver, branch.Sub, period)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		in.Subs = append(in.Subs, reporting.SubMonthlyInput{
			Client: reporting.SnapshotOf(branch.Sub),
			Meter:  meterUsage(res),
			Energy: res.Total(),
			Parts:  branch.Parts,
		})
	}

	losses := reporting.ComputeMonthlyLosses(in)
	for range losses.Warnings {
		metrics.IncReportDegraded(metrics.DegradedSharing)
	}
	doc := &reporting.MonthlyLossesDocument{
		MainClientID:           h.Main.ID,
		Period:                 period,
		Main:                   losses.Main,
		Subs:                   losses.Subs,
		Summary:                losses.Summary,
		ClientsUsingCheckMeter: notes.usingCheckMeter,
		ClientsWithoutMeters:   notes.withoutMeters,
		Warnings:               append(notes.warnings, losses.Warnings...),
	}
	for _, w := range doc.Warnings {
		s.opts.logger.Printf("monthly losses warning: main=%s period=%s %s", h.Main.ID, period, w)
	}
	return doc, nil
}
