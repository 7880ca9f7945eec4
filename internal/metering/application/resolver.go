package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
)

// Resolution is the daily series chosen for one client and month.
type Resolution struct {
	ClientID       string                 `json:"client_id"`
	MeterNumber    string                 `json:"meter_number"`
	MeterType      metering.MeterType     `json:"meter_type"`
	UsedCheckMeter bool                   `json:"used_check_meter"`
	Days           []metering.DailyEnergy `json:"days"`
	SkippedEntries int                    `json:"skipped_entries"`
}

// Total sums the resolved days.
func (r *Resolution) Total() metering.Energy {
	if r == nil {
		return metering.SumDaily(nil)
	}
	return metering.SumDaily(slices.Values(r.Days))
}

// Resolver picks the main ABT meter and falls back to the check meter.
type Resolver struct {
	records metering.MeterRecordRepository
	logger  *log.Logger
}

// NewResolver constructs a resolver.
func NewResolver(records metering.MeterRecordRepository, logger *log.Logger) (*Resolver, error) {
	if records == nil {
		return nil, errors.New("meter resolver: nil records repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{records: records, logger: logger}, nil
}

// Resolve returns the grouped daily energy for a client. A main meter that is
// missing, empty, or yields no usable dates falls through to the check meter.
// Configuration errors in mf or pn are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, client clients.Entity, period metering.BillingPeriod) (*Resolution, error) {
	if client == nil {
		return nil, errors.New("meter resolver: nil client")
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	profile := client.Profile()
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%s client %s: %w", client.ClientKind(), client.ClientID(), err)
	}

	slots := []struct {
		meterType metering.MeterType
		slot      clients.MeterSlot
	}{
		{metering.MeterTypeMain, profile.MainMeter},
		{metering.MeterTypeCheck, profile.CheckMeter},
	}
	for _, candidate := range slots {
		if candidate.slot.Empty() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.records.Get(ctx, candidate.slot.MeterNumber, period)
		if err != nil {
			return nil, err
		}
		if record == nil {
			r.logger.Printf("meter record missing: client=%s meter=%s type=%s period=%s", client.ClientID(), candidate.slot.MeterNumber, candidate.meterType, period)
			continue
		}
		skipped := 0
		seq, err := metering.GroupDaily(record.Entries, profile.MF, profile.PN, metering.WithSkipHandler(func(s metering.SkippedEntry) {
			skipped++
			r.logger.Printf("interval entry skipped: client=%s meter=%s index=%d date=%q err=%v", client.ClientID(), candidate.slot.MeterNumber, s.Index, s.Date, s.Err)
		}))
		if err != nil {
			if errors.Is(err, metering.ErrNoIntervalData) {
				r.logger.Printf("meter record empty: client=%s meter=%s type=%s period=%s", client.ClientID(), candidate.slot.MeterNumber, candidate.meterType, period)
				continue
			}
			return nil, err
		}
		days := slices.Collect(seq)
		if len(days) == 0 {
			r.logger.Printf("meter record unusable: client=%s meter=%s type=%s period=%s skipped=%d", client.ClientID(), candidate.slot.MeterNumber, candidate.meterType, period, skipped)
			continue
		}
		return &Resolution{
			ClientID:       client.ClientID(),
			MeterNumber:    candidate.slot.MeterNumber,
			MeterType:      candidate.meterType,
			UsedCheckMeter: candidate.meterType == metering.MeterTypeCheck,
			Days:           days,
			SkippedEntries: skipped,
		}, nil
	}
	return nil, fmt.Errorf("%s client %s period=%s: %w", client.ClientKind(), client.ClientID(), period, metering.ErrNoMeterData)
}
