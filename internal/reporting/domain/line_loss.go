package reporting

import "github.com/shopspring/decimal"

// LineLossFigure is the AC-line difference between the main client and the sum of its sub clients.
type LineLossFigure struct {
	Date              string          `json:"date"`
	MainExportKWh     decimal.Decimal `json:"main_export_kwh"`
	MainImportKWh     decimal.Decimal `json:"main_import_kwh"`
	SubExportKWh      decimal.Decimal `json:"sub_export_kwh"`
	SubImportKWh      decimal.Decimal `json:"sub_import_kwh"`
	ExportDiffKWh     decimal.Decimal `json:"export_diff_kwh"`
	ImportDiffKWh     decimal.Decimal `json:"import_diff_kwh"`
	ExportLossPercent decimal.Decimal `json:"export_loss_percent"`
	ImportLossPercent decimal.Decimal `json:"import_loss_percent"`
}

// LineLossSeries holds one figure per main-level date plus plain-sum totals.
type LineLossSeries struct {
	Days   []LineLossFigure `json:"days"`
	Totals LineLossFigure   `json:"totals"`
}

// DiffLineLoss differences the main series against every sub series by exact date.
// Sub clients without a figure for a main date contribute zero. Dates that appear
// only in sub series are ignored.
func DiffLineLoss(main []DailyFigure, subs [][]DailyFigure) LineLossSeries {
	subExport := make(map[string]decimal.Decimal)
	subImport := make(map[string]decimal.Decimal)
	for _, series := range subs {
		for _, f := range series {
			subExport[f.Date] = subExport[f.Date].Add(f.ExportKWh)
			subImport[f.Date] = subImport[f.Date].Add(f.ImportKWh)
		}
	}

	order := make([]string, 0, len(main))
	mainExport := make(map[string]decimal.Decimal, len(main))
	mainImport := make(map[string]decimal.Decimal, len(main))
	for _, f := range main {
		if _, seen := mainExport[f.Date]; !seen {
			order = append(order, f.Date)
		}
		mainExport[f.Date] = mainExport[f.Date].Add(f.ExportKWh)
		mainImport[f.Date] = mainImport[f.Date].Add(f.ImportKWh)
	}

	series := LineLossSeries{Days: make([]LineLossFigure, 0, len(order))}
	totals := LineLossFigure{
		Date:          "total",
		MainExportKWh: decimal.Zero,
		MainImportKWh: decimal.Zero,
		SubExportKWh:  decimal.Zero,
		SubImportKWh:  decimal.Zero,
		ExportDiffKWh: decimal.Zero,
		ImportDiffKWh: decimal.Zero,
	}
	for _, date := range order {
		fig := lineLossFigure(date, mainExport[date], mainImport[date], subExport[date], subImport[date])
		series.Days = append(series.Days, fig)
		totals.MainExportKWh = totals.MainExportKWh.Add(fig.MainExportKWh)
		totals.MainImportKWh = totals.MainImportKWh.Add(fig.MainImportKWh)
		totals.SubExportKWh = totals.SubExportKWh.Add(fig.SubExportKWh)
		totals.SubImportKWh = totals.SubImportKWh.Add(fig.SubImportKWh)
		totals.ExportDiffKWh = totals.ExportDiffKWh.Add(fig.ExportDiffKWh)
		totals.ImportDiffKWh = totals.ImportDiffKWh.Add(fig.ImportDiffKWh)
	}
	totals.ExportLossPercent = Percent(totals.ExportDiffKWh, totals.MainExportKWh)
	totals.ImportLossPercent = Percent(totals.ImportDiffKWh, totals.MainImportKWh)
	series.Totals = totals
	return series
}

func lineLossFigure(date string, mainExport, mainImport, subExport, subImport decimal.Decimal) LineLossFigure {
	exportDiff := mainExport.Sub(subExport)
	importDiff := mainImport.Sub(subImport)
	return LineLossFigure{
		Date:              date,
		MainExportKWh:     mainExport,
		MainImportKWh:     mainImport,
		SubExportKWh:      subExport,
		SubImportKWh:      subImport,
		ExportDiffKWh:     exportDiff,
		ImportDiffKWh:     importDiff,
		ExportLossPercent: Percent(exportDiff, mainExport),
		ImportLossPercent: Percent(importDiff, mainImport),
	}
}
