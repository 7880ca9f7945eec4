package metering

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	clients "energy-accounting/internal/clients/domain"
)

// MeterType is the ABT slot a record was captured from.
type MeterType string

const (
	MeterTypeMain  MeterType = "main"
	MeterTypeCheck MeterType = "check"
)

// MeterRecord holds a month of interval data for one physical meter.
// It is immutable once ingested and keyed by (MeterNumber, Period).
type MeterRecord struct {
	MeterNumber string          `json:"meter_number"`
	MeterType   MeterType       `json:"meter_type"`
	OwnerID     string          `json:"owner_id"`
	OwnerKind   clients.Kind    `json:"owner_kind"`
	Period      BillingPeriod   `json:"period"`
	Entries     []IntervalEntry `json:"entries"`
	IngestedAt  time.Time       `json:"ingested_at"`
}

// Validate checks the record key.
func (r MeterRecord) Validate() error {
	if r.MeterNumber == "" {
		return ErrEmptyMeterNumber
	}
	return r.Period.Validate()
}

// Clone returns a deep copy.
func (r MeterRecord) Clone() MeterRecord {
	r.Entries = append([]IntervalEntry(nil), r.Entries...)
	return r
}

// LoggerReading holds independent daily check values for one sub client and month.
// A date without a value is a gap, not a zero.
type LoggerReading struct {
	SubClientID string             `json:"sub_client_id"`
	Period      BillingPeriod      `json:"period"`
	Values      map[string]float64 `json:"values"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Validate checks the reading key.
func (l LoggerReading) Validate() error {
	if l.SubClientID == "" {
		return ErrEmptySubClientID
	}
	return l.Period.Validate()
}

// Lookup returns the value for an exact date string.
func (l *LoggerReading) Lookup(date string) (decimal.Decimal, bool) {
	if l == nil || l.Values == nil {
		return decimal.Zero, false
	}
	value, ok := l.Values[date]
	if !ok || !finite(value) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(value), true
}

// Clone returns a deep copy.
func (l LoggerReading) Clone() LoggerReading {
	values := make(map[string]float64, len(l.Values))
	for k, v := range l.Values {
		values[k] = v
	}
	l.Values = values
	return l
}

// MeterRecordRepository reads meter records. Missing records are returned as nil, nil.
type MeterRecordRepository interface {
	Get(ctx context.Context, meterNumber string, period BillingPeriod) (*MeterRecord, error)
}

// LoggerReadingRepository reads logger readings. Missing readings are returned as nil, nil.
type LoggerReadingRepository interface {
	Get(ctx context.Context, subClientID string, period BillingPeriod) (*LoggerReading, error)
}
