package reporting

import (
	"github.com/shopspring/decimal"

	metering "energy-accounting/internal/metering/domain"
)

// PeriodEntry is one client's figures within a period row.
type PeriodEntry struct {
	ClientID      string          `json:"client_id"`
	InjectionMWh  decimal.Decimal `json:"injection_mwh"`
	DrawlMWh      decimal.Decimal `json:"drawl_mwh"`
	AvgGeneration decimal.Decimal `json:"avg_generation"`
}

// PeriodRow is one month, or the totals row when Period is nil.
type PeriodRow struct {
	Label       string                  `json:"label"`
	Period      *metering.BillingPeriod `json:"period,omitempty"`
	DaysInMonth int                     `json:"days_in_month"`
	Present     bool                    `json:"present"`
	Main        PeriodEntry             `json:"main"`
	Subs        []PeriodEntry           `json:"subs"`
}

// PeriodReport is computed on demand and never persisted.
type PeriodReport struct {
	MainClient    ClientSnapshot         `json:"main_client"`
	SubClients    []ClientSnapshot       `json:"sub_clients"`
	From          metering.BillingPeriod `json:"from"`
	To            metering.BillingPeriod `json:"to"`
	Rows          []PeriodRow            `json:"rows"`
	Totals        PeriodRow              `json:"totals"`
	MissingMonths []string               `json:"missing_months,omitempty"`
	Warnings      []string               `json:"warnings,omitempty"`
}

// BuildPeriodRow turns one month's losses document into a row. A nil document
// yields an all-zero row. Average generation is
// (injected kWh / calendar days in the month) / DC capacity; the main client uses
// gross injection and sub clients use net injection.
func BuildPeriodRow(period metering.BillingPeriod, doc *MonthlyLossesDocument, main ClientSnapshot, subs []ClientSnapshot) PeriodRow {
	p := period
	row := PeriodRow{
		Label:       period.Key(),
		Period:      &p,
		DaysInMonth: period.DaysInMonth(),
		Present:     doc != nil,
		Main:        zeroEntry(main.ID),
		Subs:        make([]PeriodEntry, len(subs)),
	}
	for i, sub := range subs {
		row.Subs[i] = zeroEntry(sub.ID)
	}
	if doc == nil {
		return row
	}
	days := decimal.NewFromInt(int64(row.DaysInMonth))

	row.Main.InjectionMWh = doc.Main.GrossInjectionMWh
	row.Main.DrawlMWh = doc.Main.GrossDrawlMWh
	row.Main.AvgGeneration = AvgGeneration(mwhToKWh(doc.Main.GrossInjectionMWh).Div(days), main.DCCapacityKWp)

	for i, sub := range subs {
		entry, ok := doc.SubByID(sub.ID)
		if !ok {
			continue
		}
		row.Subs[i].InjectionMWh = entry.NetInjectionMWh
		row.Subs[i].DrawlMWh = entry.NetDrawlMWh
		row.Subs[i].AvgGeneration = AvgGeneration(mwhToKWh(entry.NetInjectionMWh).Div(days), sub.DCCapacityKWp)
	}
	return row
}

// SumPeriodRows is a plain column-wise sum over the rows, including the
// average generation columns, so it matches a SUM() over the same cells.
func SumPeriodRows(rows []PeriodRow, main ClientSnapshot, subs []ClientSnapshot) PeriodRow {
	total := PeriodRow{
		Label: "Total",
		Main:  zeroEntry(main.ID),
		Subs:  make([]PeriodEntry, len(subs)),
	}
	for i, sub := range subs {
		total.Subs[i] = zeroEntry(sub.ID)
	}
	for _, row := range rows {
		total.DaysInMonth += row.DaysInMonth
		total.Main = addEntry(total.Main, row.Main)
		for i := range total.Subs {
			if i < len(row.Subs) {
				total.Subs[i] = addEntry(total.Subs[i], row.Subs[i])
			}
		}
	}
	total.Present = len(rows) > 0
	return total
}

func zeroEntry(clientID string) PeriodEntry {
	return PeriodEntry{
		ClientID:      clientID,
		InjectionMWh:  decimal.Zero,
		DrawlMWh:      decimal.Zero,
		AvgGeneration: decimal.Zero,
	}
}

func addEntry(a, b PeriodEntry) PeriodEntry {
	a.InjectionMWh = a.InjectionMWh.Add(b.InjectionMWh)
	a.DrawlMWh = a.DrawlMWh.Add(b.DrawlMWh)
	a.AvgGeneration = a.AvgGeneration.Add(b.AvgGeneration)
	return a
}
