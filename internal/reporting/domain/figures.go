package reporting

import (
	"github.com/shopspring/decimal"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
)

// DailyFigure is the per-date unit of every daily computation.
type DailyFigure struct {
	Date            string           `json:"date"`
	ExportKWh       decimal.Decimal  `json:"export_kwh"`
	ImportKWh       decimal.Decimal  `json:"import_kwh"`
	LoggerValue     *decimal.Decimal `json:"logger_value,omitempty"`
	LoggerMissing   bool             `json:"logger_missing,omitempty"`
	InternalLoss    decimal.Decimal  `json:"internal_loss_kwh"`
	LossPercent     decimal.Decimal  `json:"loss_percent"`
	AvgGenerationDC decimal.Decimal  `json:"avg_generation_dc"`
	AvgGenerationAC decimal.Decimal  `json:"avg_generation_ac"`
}

// BuildDailyFigures derives figures with DC and AC average generation from grouped days.
func BuildDailyFigures(days []metering.DailyEnergy, profile clients.EnergyProfile) []DailyFigure {
	figures := make([]DailyFigure, 0, len(days))
	for _, day := range days {
		figures = append(figures, DailyFigure{
			Date:            day.Date,
			ExportKWh:       day.Export,
			ImportKWh:       day.Import,
			InternalLoss:    decimal.Zero,
			LossPercent:     decimal.Zero,
			AvgGenerationDC: AvgGeneration(day.Export, profile.DCCapacityKWp),
			AvgGenerationAC: AvgGeneration(day.Export, profile.ACCapacityKW),
		})
	}
	return figures
}

// SeriesTotals summarizes a daily series.
// Average generation totals are the mean of the daily averages over the days present.
// LossPercent is computed over days with logger data only.
type SeriesTotals struct {
	Days              int             `json:"days"`
	ExportKWh         decimal.Decimal `json:"export_kwh"`
	ImportKWh         decimal.Decimal `json:"import_kwh"`
	InternalLoss      decimal.Decimal `json:"internal_loss_kwh"`
	LossPercent       decimal.Decimal `json:"loss_percent"`
	LoggerDays        int             `json:"logger_days"`
	MissingLoggerDays int             `json:"missing_logger_days"`
	AvgGenerationDC   decimal.Decimal `json:"avg_generation_dc"`
	AvgGenerationAC   decimal.Decimal `json:"avg_generation_ac"`
}

// Summarize totals a series.
func Summarize(figures []DailyFigure) SeriesTotals {
	totals := SeriesTotals{
		Days:         len(figures),
		ExportKWh:    decimal.Zero,
		ImportKWh:    decimal.Zero,
		InternalLoss: decimal.Zero,
	}
	loggedExport := decimal.Zero
	dc := make([]decimal.Decimal, 0, len(figures))
	ac := make([]decimal.Decimal, 0, len(figures))
	for _, f := range figures {
		totals.ExportKWh = totals.ExportKWh.Add(f.ExportKWh)
		totals.ImportKWh = totals.ImportKWh.Add(f.ImportKWh)
		dc = append(dc, f.AvgGenerationDC)
		ac = append(ac, f.AvgGenerationAC)
		switch {
		case f.LoggerValue != nil:
			totals.LoggerDays++
			totals.InternalLoss = totals.InternalLoss.Add(f.InternalLoss)
			loggedExport = loggedExport.Add(f.ExportKWh)
		case f.LoggerMissing:
			totals.MissingLoggerDays++
		}
	}
	totals.LossPercent = Percent(totals.InternalLoss, loggedExport)
	totals.AvgGenerationDC = MeanOf(dc)
	totals.AvgGenerationAC = MeanOf(ac)
	return totals
}

// ReconcileInternalLoss compares each figure against the logger value of the same date.
// The input slice is not modified. Dates without a logger value are flagged LoggerMissing
// with zero loss.
func ReconcileInternalLoss(figures []DailyFigure, logger *metering.LoggerReading) []DailyFigure {
	out := make([]DailyFigure, len(figures))
	for i, f := range figures {
		value, ok := logger.Lookup(f.Date)
		if !ok {
			f.LoggerValue = nil
			f.LoggerMissing = true
			f.InternalLoss = decimal.Zero
			f.LossPercent = decimal.Zero
			out[i] = f
			continue
		}
		v := value
		f.LoggerValue = &v
		f.LoggerMissing = false
		f.InternalLoss = f.ExportKWh.Sub(value)
		f.LossPercent = Percent(f.InternalLoss, f.ExportKWh)
		out[i] = f
	}
	return out
}
