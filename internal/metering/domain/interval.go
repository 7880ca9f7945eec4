package metering

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	clients "energy-accounting/internal/clients/domain"
)

var calendarDateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2006-01-02",
}

// IntervalEntry is one sub-day register snapshot, normalized at ingestion.
type IntervalEntry struct {
	Date                string  `json:"Date"`
	ActiveExportTotal   float64 `json:"Active(E) Total"`
	ActiveImportTotal   float64 `json:"Active(I) Total"`
	ReactiveExportTotal float64 `json:"Reactive(E) Total"`
	ReactiveImportTotal float64 `json:"Reactive(I) Total"`
}

// CalendarDate returns the date token of the entry, e.g. "01-03-2025" for "01-03-2025 00:15".
// The token is returned verbatim; it is the join key against logger readings.
func (e IntervalEntry) CalendarDate() (string, error) {
	fields := strings.Fields(e.Date)
	if len(fields) == 0 {
		return "", ErrMalformedDate
	}
	token := fields[0]
	if i := strings.IndexByte(token, 'T'); i > 0 {
		token = token[:i]
	}
	for _, layout := range calendarDateLayouts {
		if _, err := time.Parse(layout, token); err == nil {
			return token, nil
		}
	}
	return "", ErrMalformedDate
}

// Energy is a polarity-corrected export/import pair in kWh.
type Energy struct {
	Export decimal.Decimal `json:"export_kwh"`
	Import decimal.Decimal `json:"import_kwh"`
}

// Extract applies mf and pn to one entry.
// pn = -1 reads export from Active(E); pn = +1 swaps the registers.
func Extract(entry IntervalEntry, mf float64, pn clients.Polarity) (Energy, error) {
	if err := pn.Validate(); err != nil {
		return Energy{}, err
	}
	if !finite(mf) {
		return Energy{}, clients.ErrInvalidMultiplyingFactor
	}
	if !finite(entry.ActiveExportTotal) || !finite(entry.ActiveImportTotal) {
		return Energy{}, ErrNonFiniteReading
	}
	factor := decimal.NewFromFloat(mf)
	activeE := decimal.NewFromFloat(entry.ActiveExportTotal).Mul(factor)
	activeI := decimal.NewFromFloat(entry.ActiveImportTotal).Mul(factor)
	if pn == clients.PolarityReversed {
		return Energy{Export: activeI, Import: activeE}, nil
	}
	return Energy{Export: activeE, Import: activeI}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
