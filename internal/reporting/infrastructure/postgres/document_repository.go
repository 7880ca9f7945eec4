package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	metering "energy-accounting/internal/metering/domain"
	reporting "energy-accounting/internal/reporting/domain"
)

const defaultDocumentsTable = "report_documents"

// DocumentRepository stores report documents as JSONB, one row per (kind, main client, period).
type DocumentRepository struct {
	db    DBTX
	table string
}

// DocumentOption configures the repository.
type DocumentOption func(*DocumentRepository)

// WithDocumentsTable overrides the default table name.
func WithDocumentsTable(table string) DocumentOption {
	return func(repo *DocumentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(db DBTX, opts ...DocumentOption) *DocumentRepository {
	repo := &DocumentRepository{db: db, table: defaultDocumentsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

type documentRow struct {
	id        string
	payload   []byte
	createdAt time.Time
	updatedAt time.Time
}

// FindDailyReport loads the daily report for (main client, period).
func (r *DocumentRepository) FindDailyReport(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*reporting.DailyReportDocument, error) {
	row, err := r.find(ctx, reporting.KindDailyReport, mainClientID, period)
	if err != nil || row == nil {
		return nil, err
	}
	var doc reporting.DailyReportDocument
	if err := json.Unmarshal(row.payload, &doc); err != nil {
		return nil, fmt.Errorf("report document repo: decode %s: %w", row.id, err)
	}
	doc.ID = row.id
	doc.CreatedAt = row.createdAt.UTC()
	doc.UpdatedAt = row.updatedAt.UTC()
	return &doc, nil
}

// SaveDailyReport upserts the daily report.
func (r *DocumentRepository) SaveDailyReport(ctx context.Context, doc *reporting.DailyReportDocument) error {
	if doc == nil {
		return reporting.ErrNilDocument
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.save(ctx, reporting.KindDailyReport, doc.ID, doc.MainClientID, doc.Period, doc.SubClientIDs, payload, doc.CreatedAt, doc.UpdatedAt)
}

// TouchDailyReport refreshes updated_at only.
func (r *DocumentRepository) TouchDailyReport(ctx context.Context, id string, updatedAt time.Time) error {
	return r.touch(ctx, reporting.KindDailyReport, id, updatedAt)
}

// FindMonthlyLosses loads the monthly losses for (main client, period).
func (r *DocumentRepository) FindMonthlyLosses(ctx context.Context, mainClientID string, period metering.BillingPeriod) (*reporting.MonthlyLossesDocument, error) {
	row, err := r.find(ctx, reporting.KindMonthlyLosses, mainClientID, period)
	if err != nil || row == nil {
		return nil, err
	}
	return decodeLosses(row)
}

// SaveMonthlyLosses upserts the monthly losses.
func (r *DocumentRepository) SaveMonthlyLosses(ctx context.Context, doc *reporting.MonthlyLossesDocument) error {
	if doc == nil {
		return reporting.ErrNilDocument
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.save(ctx, reporting.KindMonthlyLosses, doc.ID, doc.MainClientID, doc.Period, doc.SubClientIDs, payload, doc.CreatedAt, doc.UpdatedAt)
}

// TouchMonthlyLosses refreshes updated_at only.
func (r *DocumentRepository) TouchMonthlyLosses(ctx context.Context, id string, updatedAt time.Time) error {
	return r.touch(ctx, reporting.KindMonthlyLosses, id, updatedAt)
}

// ListMonthlyLosses returns documents within [from, to] ordered by period.
func (r *DocumentRepository) ListMonthlyLosses(ctx context.Context, mainClientID string, from, to metering.BillingPeriod) ([]*reporting.MonthlyLossesDocument, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report document repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, payload, created_at, updated_at
FROM %s
WHERE kind = $1 AND main_client_id = $2
  AND (period_year * 12 + period_month - 1) BETWEEN $3 AND $4
ORDER BY period_year, period_month`, r.table)
	rows, err := r.db.QueryContext(ctx, query, string(reporting.KindMonthlyLosses), mainClientID, from.Index(), to.Index())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*reporting.MonthlyLossesDocument
	for rows.Next() {
		var row documentRow
		if err := rows.Scan(&row.id, &row.payload, &row.createdAt, &row.updatedAt); err != nil {
			return nil, err
		}
		doc, err := decodeLosses(&row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) find(ctx context.Context, kind reporting.DocumentKind, mainClientID string, period metering.BillingPeriod) (*documentRow, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report document repo: nil db")
	}
	if mainClientID == "" {
		return nil, reporting.ErrEmptyMainClientID
	}
	query := fmt.Sprintf(`
SELECT id, payload, created_at, updated_at
FROM %s
WHERE kind = $1 AND main_client_id = $2 AND period_year = $3 AND period_month = $4
LIMIT 1`, r.table)
	var row documentRow
	err := r.db.QueryRowContext(ctx, query, string(kind), mainClientID, period.Year, period.Month).Scan(&row.id, &row.payload, &row.createdAt, &row.updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *DocumentRepository) save(ctx context.Context, kind reporting.DocumentKind, id, mainClientID string, period metering.BillingPeriod, subClientIDs []string, payload []byte, createdAt, updatedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("report document repo: nil db")
	}
	if id == "" {
		return errors.New("report document repo: empty id")
	}
	subs, err := json.Marshal(reporting.NormalizeKeySet(subClientIDs))
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, kind, main_client_id, period_year, period_month, sub_client_ids, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (kind, main_client_id, period_year, period_month)
DO UPDATE SET
	id = EXCLUDED.id,
	sub_client_ids = EXCLUDED.sub_client_ids,
	payload = EXCLUDED.payload,
	updated_at = EXCLUDED.updated_at`, r.table)
	_, err = r.db.ExecContext(ctx, query,
		id,
		string(kind),
		mainClientID,
		period.Year,
		period.Month,
		subs,
		payload,
		createdAt.UTC(),
		updatedAt.UTC(),
	)
	return err
}

func (r *DocumentRepository) touch(ctx context.Context, kind reporting.DocumentKind, id string, updatedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("report document repo: nil db")
	}
	query := fmt.Sprintf(`UPDATE %s SET updated_at = $1 WHERE id = $2 AND kind = $3`, r.table)
	res, err := r.db.ExecContext(ctx, query, updatedAt.UTC(), id, string(kind))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return reporting.ErrReportNotFound
	}
	return nil
}

func decodeLosses(row *documentRow) (*reporting.MonthlyLossesDocument, error) {
	var doc reporting.MonthlyLossesDocument
	if err := json.Unmarshal(row.payload, &doc); err != nil {
		return nil, fmt.Errorf("report document repo: decode %s: %w", row.id, err)
	}
	doc.ID = row.id
	doc.CreatedAt = row.createdAt.UTC()
	doc.UpdatedAt = row.updatedAt.UTC()
	return &doc, nil
}
