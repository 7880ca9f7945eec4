package memory

import (
	"context"
	"sync"

	metering "energy-accounting/internal/metering/domain"
)

// MeterRecordRepository is an in-memory meter record store.
type MeterRecordRepository struct {
	mu   sync.RWMutex
	data map[string]metering.MeterRecord
}

// NewMeterRecordRepository constructs a repository.
func NewMeterRecordRepository() *MeterRecordRepository {
	return &MeterRecordRepository{data: make(map[string]metering.MeterRecord)}
}

// Save stores a record. Records are immutable, so an existing key is left untouched.
func (r *MeterRecordRepository) Save(ctx context.Context, record metering.MeterRecord) error {
	_ = ctx
	if err := record.Validate(); err != nil {
		return err
	}
	key := recordKey(record.MeterNumber, record.Period)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[key]; exists {
		return nil
	}
	r.data[key] = record.Clone()
	return nil
}

// Get loads a record by meter number and period.
func (r *MeterRecordRepository) Get(ctx context.Context, meterNumber string, period metering.BillingPeriod) (*metering.MeterRecord, error) {
	_ = ctx
	r.mu.RLock()
	record, ok := r.data[recordKey(meterNumber, period)]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	clone := record.Clone()
	return &clone, nil
}

// LoggerReadingRepository is an in-memory logger reading store.
type LoggerReadingRepository struct {
	mu   sync.RWMutex
	data map[string]metering.LoggerReading
}

// NewLoggerReadingRepository constructs a repository.
func NewLoggerReadingRepository() *LoggerReadingRepository {
	return &LoggerReadingRepository{data: make(map[string]metering.LoggerReading)}
}

// Save stores a reading, replacing any reading with the same key.
func (r *LoggerReadingRepository) Save(ctx context.Context, reading metering.LoggerReading) error {
	_ = ctx
	if err := reading.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.data[recordKey(reading.SubClientID, reading.Period)] = reading.Clone()
	r.mu.Unlock()
	return nil
}

// Get loads a reading by sub client and period.
func (r *LoggerReadingRepository) Get(ctx context.Context, subClientID string, period metering.BillingPeriod) (*metering.LoggerReading, error) {
	_ = ctx
	r.mu.RLock()
	reading, ok := r.data[recordKey(subClientID, period)]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	clone := reading.Clone()
	return &clone, nil
}

func recordKey(id string, period metering.BillingPeriod) string {
	return id + "|" + period.Key()
}
