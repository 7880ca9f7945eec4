package metering

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"

	clients "energy-accounting/internal/clients/domain"
)

// DailyEnergy is the per-date total of one meter.
type DailyEnergy struct {
	Date      string          `json:"date"`
	Export    decimal.Decimal `json:"export_kwh"`
	Import    decimal.Decimal `json:"import_kwh"`
	Intervals int             `json:"intervals"`
}

// SkippedEntry describes an interval entry left out of the daily totals.
type SkippedEntry struct {
	Index int
	Date  string
	Err   error
}

type groupConfig struct {
	onSkip func(SkippedEntry)
}

// GroupOption configures GroupDaily.
type GroupOption func(*groupConfig)

// WithSkipHandler is called for every entry skipped on each pass over the sequence.
func WithSkipHandler(fn func(SkippedEntry)) GroupOption {
	return func(cfg *groupConfig) {
		cfg.onSkip = fn
	}
}

// GroupDaily collapses consecutive entries sharing a calendar date into one DailyEnergy.
// Input order is kept; entries are not sorted. The returned sequence is lazy and may be
// ranged over any number of times. Entries with malformed dates or non-finite readings
// are skipped.
func GroupDaily(entries []IntervalEntry, mf float64, pn clients.Polarity, opts ...GroupOption) (iter.Seq[DailyEnergy], error) {
	if len(entries) == 0 {
		return nil, ErrNoIntervalData
	}
	if err := pn.Validate(); err != nil {
		return nil, err
	}
	if !finite(mf) {
		return nil, clients.ErrInvalidMultiplyingFactor
	}
	cfg := groupConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	entries = slices.Clone(entries)

	return func(yield func(DailyEnergy) bool) {
		var current *DailyEnergy
		for i, entry := range entries {
			date, err := entry.CalendarDate()
			if err == nil {
				var energy Energy
				energy, err = Extract(entry, mf, pn)
				if err == nil {
					if current != nil && current.Date != date {
						if !yield(*current) {
							return
						}
						current = nil
					}
					if current == nil {
						current = &DailyEnergy{Date: date, Export: decimal.Zero, Import: decimal.Zero}
					}
					current.Export = current.Export.Add(energy.Export)
					current.Import = current.Import.Add(energy.Import)
					current.Intervals++
					continue
				}
			}
			if cfg.onSkip != nil {
				cfg.onSkip(SkippedEntry{Index: i, Date: entry.Date, Err: err})
			}
		}
		if current != nil {
			yield(*current)
		}
	}, nil
}

// SumDaily totals export and import over a sequence.
func SumDaily(days iter.Seq[DailyEnergy]) Energy {
	total := Energy{Export: decimal.Zero, Import: decimal.Zero}
	if days == nil {
		return total
	}
	for day := range days {
		total.Export = total.Export.Add(day.Export)
		total.Import = total.Import.Add(day.Import)
	}
	return total
}
