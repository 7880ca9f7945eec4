package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
)

const (
	defaultMeterRecordsTable   = "meter_records"
	defaultLoggerReadingsTable = "logger_readings"
)

// MeterRecordRepository persists meter records with entries as JSONB.
type MeterRecordRepository struct {
	db    DBTX
	table string
}

// MeterRecordOption configures the repository.
type MeterRecordOption func(*MeterRecordRepository)

// WithMeterRecordTable overrides the default table name.
func WithMeterRecordTable(table string) MeterRecordOption {
	return func(repo *MeterRecordRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewMeterRecordRepository constructs a repository.
func NewMeterRecordRepository(db DBTX, opts ...MeterRecordOption) *MeterRecordRepository {
	repo := &MeterRecordRepository{db: db, table: defaultMeterRecordsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads one record by (meter number, period).
func (r *MeterRecordRepository) Get(ctx context.Context, meterNumber string, period metering.BillingPeriod) (*metering.MeterRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("meter record repo: nil db")
	}
	if meterNumber == "" {
		return nil, metering.ErrEmptyMeterNumber
	}
	query := fmt.Sprintf(`
SELECT meter_number, meter_type, owner_id, owner_kind, period_year, period_month, entries, ingested_at
FROM %s
WHERE meter_number = $1 AND period_year = $2 AND period_month = $3
LIMIT 1`, r.table)

	var record metering.MeterRecord
	var meterType, ownerKind string
	var entries []byte
	err := r.db.QueryRowContext(ctx, query, meterNumber, period.Year, period.Month).Scan(
		&record.MeterNumber,
		&meterType,
		&record.OwnerID,
		&ownerKind,
		&record.Period.Year,
		&record.Period.Month,
		&entries,
		&record.IngestedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &record.Entries); err != nil {
			return nil, fmt.Errorf("meter record repo: decode entries for %s: %w", meterNumber, err)
		}
	}
	record.MeterType = metering.MeterType(meterType)
	record.OwnerKind = clients.Kind(ownerKind)
	record.IngestedAt = record.IngestedAt.UTC()
	return &record, nil
}

// Save inserts a record. Records are immutable, so an existing key is left untouched.
func (r *MeterRecordRepository) Save(ctx context.Context, record metering.MeterRecord) error {
	if r == nil || r.db == nil {
		return errors.New("meter record repo: nil db")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	entries, err := json.Marshal(record.Entries)
	if err != nil {
		return err
	}
	if record.IngestedAt.IsZero() {
		record.IngestedAt = time.Now().UTC()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (meter_number, meter_type, owner_id, owner_kind, period_year, period_month, entries, ingested_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (meter_number, period_year, period_month) DO NOTHING`, r.table)
	_, err = r.db.ExecContext(ctx, query,
		record.MeterNumber,
		string(record.MeterType),
		record.OwnerID,
		string(record.OwnerKind),
		record.Period.Year,
		record.Period.Month,
		entries,
		record.IngestedAt,
	)
	return err
}

// LoggerReadingRepository persists logger readings with values as JSONB.
type LoggerReadingRepository struct {
	db    DBTX
	table string
}

// LoggerReadingOption configures the repository.
type LoggerReadingOption func(*LoggerReadingRepository)

// WithLoggerReadingTable overrides the default table name.
func WithLoggerReadingTable(table string) LoggerReadingOption {
	return func(repo *LoggerReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewLoggerReadingRepository constructs a repository.
func NewLoggerReadingRepository(db DBTX, opts ...LoggerReadingOption) *LoggerReadingRepository {
	repo := &LoggerReadingRepository{db: db, table: defaultLoggerReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads the reading for a sub client and period.
func (r *LoggerReadingRepository) Get(ctx context.Context, subClientID string, period metering.BillingPeriod) (*metering.LoggerReading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("logger reading repo: nil db")
	}
	if subClientID == "" {
		return nil, metering.ErrEmptySubClientID
	}
	query := fmt.Sprintf(`
SELECT sub_client_id, period_year, period_month, readings, updated_at
FROM %s
WHERE sub_client_id = $1 AND period_year = $2 AND period_month = $3
LIMIT 1`, r.table)

	var reading metering.LoggerReading
	var values []byte
	err := r.db.QueryRowContext(ctx, query, subClientID, period.Year, period.Month).Scan(
		&reading.SubClientID,
		&reading.Period.Year,
		&reading.Period.Month,
		&values,
		&reading.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(values) > 0 {
		if err := json.Unmarshal(values, &reading.Values); err != nil {
			return nil, fmt.Errorf("logger reading repo: decode values for %s: %w", subClientID, err)
		}
	}
	reading.UpdatedAt = reading.UpdatedAt.UTC()
	return &reading, nil
}

// Save upserts a reading.
func (r *LoggerReadingRepository) Save(ctx context.Context, reading metering.LoggerReading) error {
	if r == nil || r.db == nil {
		return errors.New("logger reading repo: nil db")
	}
	if err := reading.Validate(); err != nil {
		return err
	}
	values, err := json.Marshal(reading.Values)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (sub_client_id, period_year, period_month, readings)
VALUES ($1, $2, $3, $4)
ON CONFLICT (sub_client_id, period_year, period_month)
DO UPDATE SET
	readings = EXCLUDED.readings,
	updated_at = NOW()`, r.table)
	_, err = r.db.ExecContext(ctx, query, reading.SubClientID, reading.Period.Year, reading.Period.Month, values)
	return err
}
