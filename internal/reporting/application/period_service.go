package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
	"energy-accounting/internal/observability/metrics"
	reporting "energy-accounting/internal/reporting/domain"
)

// PeriodRequest asks for monthly rows over an inclusive month range.
type PeriodRequest struct {
	MainClientID string
	SubClientIDs []string
	From         metering.BillingPeriod
	To           metering.BillingPeriod
}

// PeriodService derives period rows from stored monthly losses documents.
// Nothing is persisted.
type PeriodService struct {
	clients clients.Repository
	repo    reporting.MonthlyLossesRepository
	limits  Limits
	opts    serviceOptions
}

// NewPeriodService constructs a service.
func NewPeriodService(clientRepo clients.Repository, repo reporting.MonthlyLossesRepository, limits Limits, opts ...ServiceOption) (*PeriodService, error) {
	if clientRepo == nil {
		return nil, errors.New("period service: nil client repository")
	}
	if repo == nil {
		return nil, errors.New("period service: nil repo")
	}
	defaults := DefaultConfig().Limits
	if limits.MaxSubClients <= 0 {
		limits.MaxSubClients = defaults.MaxSubClients
	}
	if limits.MaxPeriodMonths <= 0 {
		limits.MaxPeriodMonths = defaults.MaxPeriodMonths
	}
	return &PeriodService{clients: clientRepo, repo: repo, limits: limits, opts: buildOptions(opts)}, nil
}

// Aggregate builds one row per calendar month in range plus a totals row.
// Months without a stored document yield zero rows.
func (s *PeriodService) Aggregate(ctx context.Context, req PeriodRequest) (*reporting.PeriodReport, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePeriodAggregate(result, time.Since(start))
	}()

	report, err := s.aggregate(ctx, req)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return report, nil
}

func (s *PeriodService) aggregate(ctx context.Context, req PeriodRequest) (*reporting.PeriodReport, error) {
	if req.MainClientID == "" {
		return nil, reporting.ErrEmptyMainClientID
	}
	if err := req.From.Validate(); err != nil {
		return nil, err
	}
	if err := req.To.Validate(); err != nil {
		return nil, err
	}
	if req.To.Before(req.From) {
		return nil, fmt.Errorf("%s..%s: %w", req.From, req.To, reporting.ErrInvalidRange)
	}
	months := metering.MonthsInRange(req.From, req.To)
	if months > s.limits.MaxPeriodMonths {
		return nil, fmt.Errorf("%d months, limit %d: %w", months, s.limits.MaxPeriodMonths, reporting.ErrRangeTooLong)
	}
	requested := reporting.NormalizeKeySet(req.SubClientIDs)
	if len(requested) > s.limits.MaxSubClients {
		return nil, fmt.Errorf("%d sub clients, limit %d: %w", len(requested), s.limits.MaxSubClients, reporting.ErrTooManySubClients)
	}

	hierarchy, err := clients.LoadHierarchy(ctx, s.clients, req.MainClientID, requested)
	if err != nil {
		return nil, err
	}
	report := &reporting.PeriodReport{
		MainClient: reporting.SnapshotOf(hierarchy.Main),
		From:       req.From,
		To:         req.To,
		Rows:       make([]reporting.PeriodRow, 0, months),
	}
	branches := hierarchy.Subs
	if len(branches) > s.limits.MaxSubClients {
		report.Warnings = append(report.Warnings, fmt.Sprintf("showing first %d of %d sub clients", s.limits.MaxSubClients, len(branches)))
		branches = branches[:s.limits.MaxSubClients]
	}
	report.SubClients = make([]reporting.ClientSnapshot, 0, len(branches))
	for _, branch := range branches {
		report.SubClients = append(report.SubClients, reporting.SnapshotOf(branch.Sub))
	}

	docs, err := s.repo.ListMonthlyLosses(ctx, req.MainClientID, req.From, req.To)
	if err != nil {
		return nil, err
	}
	byPeriod := make(map[string]*reporting.MonthlyLossesDocument, len(docs))
	for _, doc := range docs {
		if doc != nil {
			byPeriod[doc.Period.Key()] = doc
		}
	}

	for period := req.From; !req.To.Before(period); period = period.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := byPeriod[period.Key()]
		if doc == nil {
			report.MissingMonths = append(report.MissingMonths, period.Key())
		} else {
			for _, sub := range report.SubClients {
				if _, ok := doc.SubByID(sub.ID); !ok {
					report.Warnings = append(report.Warnings, fmt.Sprintf("%s: sub client %s not in monthly losses", period.Key(), sub.ID))
				}
			}
		}
		report.Rows = append(report.Rows, reporting.BuildPeriodRow(period, doc, report.MainClient, report.SubClients))
	}
	report.Totals = reporting.SumPeriodRows(report.Rows, report.MainClient, report.SubClients)
	if len(report.MissingMonths) > 0 {
		s.opts.logger.Printf("period report months missing: main=%s from=%s to=%s missing=%d", req.MainClientID, req.From, req.To, len(report.MissingMonths))
	}
	return report, nil
}
