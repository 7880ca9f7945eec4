package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	metering "energy-accounting/internal/metering/domain"
	reporting "energy-accounting/internal/reporting/domain"
)

// DocumentRepository is an in-memory store for daily reports and monthly losses.
type DocumentRepository struct {
	mu     sync.RWMutex
	daily  map[string]*reporting.DailyReportDocument
	losses map[string]*reporting.MonthlyLossesDocument
	saves  int
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		daily:  make(map[string]*reporting.DailyReportDocument),
		losses: make(map[string]*reporting.MonthlyLossesDocument),
	}
}

// FindDailyReport returns the stored document for (main client, period).
func (r *DocumentRepository) FindDailyReport(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*reporting.DailyReportDocument, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.daily[documentKey(mainClientID, period)].Clone(), nil
}

// SaveDailyReport replaces the document for its (main client, period).
func (r *DocumentRepository) SaveDailyReport(ctx context.Context, doc *reporting.DailyReportDocument) error {
	_ = ctx
	if doc == nil {
		return reporting.ErrNilDocument
	}
	r.mu.Lock()
	r.daily[documentKey(doc.MainClientID, doc.Period)] = doc.Clone()
	r.saves++
	r.mu.Unlock()
	return nil
}

// TouchDailyReport refreshes UpdatedAt.
func (r *DocumentRepository) TouchDailyReport(ctx context.Context, id string, updatedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.daily {
		if doc.ID == id {
			doc.UpdatedAt = updatedAt
			return nil
		}
	}
	return reporting.ErrReportNotFound
}

// FindMonthlyLosses returns the stored document for (main client, period).
func (r *DocumentRepository) FindMonthlyLosses(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*reporting.MonthlyLossesDocument, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.losses[documentKey(mainClientID, period)].Clone(), nil
}

// SaveMonthlyLosses replaces the document for its (main client, period).
func (r *DocumentRepository) SaveMonthlyLosses(ctx context.Context, doc *reporting.MonthlyLossesDocument) error {
	_ = ctx
	if doc == nil {
		return reporting.ErrNilDocument
	}
	r.mu.Lock()
	r.losses[documentKey(doc.MainClientID, doc.Period)] = doc.Clone()
	r.saves++
	r.mu.Unlock()
	return nil
}

// TouchMonthlyLosses refreshes UpdatedAt.
func (r *DocumentRepository) TouchMonthlyLosses(ctx context.Context, id string, updatedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.losses {
		if doc.ID == id {
			doc.UpdatedAt = updatedAt
			return nil
		}
	}
	return reporting.ErrReportNotFound
}

// ListMonthlyLosses returns documents within [from, to] ordered by period.
func (r *DocumentRepository) ListMonthlyLosses(ctx context.Context, mainClientID string, from, to metering.BillingPeriod) ([]*reporting.MonthlyLossesDocument, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*reporting.MonthlyLossesDocument
	for _, doc := range r.losses {
		if doc.MainClientID != mainClientID || doc.Period.Before(from) || to.Before(doc.Period) {
			continue
		}
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

// Saves counts successful saves of either kind.
func (r *DocumentRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

func documentKey(mainClientID string, period metering.BillingPeriod) string {
	return mainClientID + "|" + period.Key()
}
