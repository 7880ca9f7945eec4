package interfaces

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	reporting "energy-accounting/internal/reporting/domain"
)

const (
	periodHeaderRow = 5
	periodFirstCol  = 3
)

// BuildPeriodXLSX renders period rows with one formula-driven totals row.
// Columns are month, days, then injection, drawl and average generation for
// the main client followed by each sub client.
func BuildPeriodXLSX(report *reporting.PeriodReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("period export: nil report")
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := "period"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Period Energy Report")
	_ = f.SetCellValue(sheet, "A2", "Main Client")
	_ = f.SetCellValue(sheet, "B2", clientLabel(report.MainClient))
	_ = f.SetCellValue(sheet, "A3", "Range")
	_ = f.SetCellValue(sheet, "B3", fmt.Sprintf("%s to %s", report.From, report.To))

	headers := []string{"Month", "Days"}
	headers = append(headers, entryHeaders(clientLabel(report.MainClient))...)
	for _, sub := range report.SubClients {
		headers = append(headers, entryHeaders(clientLabel(sub))...)
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, periodHeaderRow)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}

	row := periodHeaderRow
	for _, r := range report.Rows {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.Label)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.DaysInMonth)
		entries := append([]reporting.PeriodEntry{r.Main}, r.Subs...)
		for i, entry := range entries {
			if err := setEntry(f, sheet, periodFirstCol+i*3, row, entry); err != nil {
				return nil, err
			}
		}
	}

	totalRow := row + 1
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total")
	if row > periodHeaderRow {
		for col := 2; col <= len(headers); col++ {
			name, err := excelize.ColumnNumberToName(col)
			if err != nil {
				return nil, err
			}
			formula := fmt.Sprintf("SUM(%s%d:%s%d)", name, periodHeaderRow+1, name, row)
			if err := f.SetCellFormula(sheet, fmt.Sprintf("%s%d", name, totalRow), formula); err != nil {
				return nil, err
			}
		}
	}

	if len(report.MissingMonths) > 0 || len(report.Warnings) > 0 {
		notes := "notes"
		f.NewSheet(notes)
		_ = f.SetCellValue(notes, "A1", "Missing Months")
		for i, month := range report.MissingMonths {
			_ = f.SetCellValue(notes, fmt.Sprintf("A%d", i+2), month)
		}
		_ = f.SetCellValue(notes, "B1", "Warnings")
		for i, warning := range report.Warnings {
			_ = f.SetCellValue(notes, fmt.Sprintf("B%d", i+2), warning)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func entryHeaders(label string) []string {
	return []string{
		label + " Injection (MWh)",
		label + " Drawl (MWh)",
		label + " Avg Generation",
	}
}

func setEntry(f *excelize.File, sheet string, col, row int, entry reporting.PeriodEntry) error {
	values := []decimal.Decimal{entry.InjectionMWh, entry.DrawlMWh, entry.AvgGeneration}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+i, row)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(sheet, cell, v.InexactFloat64())
	}
	return nil
}

// BuildDailyReportXLSX renders a daily report: one sheet per client series and
// a line loss sheet.
func BuildDailyReportXLSX(doc *reporting.DailyReportDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("daily export: nil document")
	}
	f := excelize.NewFile()
	defer f.Close()
	summary := "summary"
	f.SetSheetName("Sheet1", summary)

	_ = f.SetCellValue(summary, "A1", "Daily Energy Report")
	_ = f.SetCellValue(summary, "A3", "Main Client")
	_ = f.SetCellValue(summary, "B3", clientLabel(doc.Main.Client))
	_ = f.SetCellValue(summary, "A4", "Month")
	_ = f.SetCellValue(summary, "B4", doc.Period.String())
	_ = f.SetCellValue(summary, "A5", "Generated")
	_ = f.SetCellValue(summary, "B5", doc.UpdatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summary, "A6", "Check Meter Used")
	_ = f.SetCellValue(summary, "B6", joinOrDash(doc.ClientsUsingCheckMeter))
	_ = f.SetCellValue(summary, "A7", "Without Meter Data")
	_ = f.SetCellValue(summary, "B7", joinOrDash(doc.ClientsWithoutMeters))
	for i, warning := range doc.Warnings {
		_ = f.SetCellValue(summary, fmt.Sprintf("A%d", 9+i), warning)
	}

	series := append([]reporting.ClientSeries{doc.Main}, doc.Subs...)
	for i, s := range series {
		name := sheetName(i, s.Client)
		f.NewSheet(name)
		writeSeries(f, name, s)
	}

	lineSheet := "line_loss"
	f.NewSheet(lineSheet)
	lineHeaders := []string{"Date", "Main Export (kWh)", "Main Import (kWh)", "Sub Export (kWh)", "Sub Import (kWh)", "Export Diff (kWh)", "Import Diff (kWh)", "Export Loss %", "Import Loss %"}
	for i, header := range lineHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(lineSheet, cell, header)
	}
	lines := append(append([]reporting.LineLossFigure(nil), doc.LineLoss.Days...), doc.LineLoss.Totals)
	for i, line := range lines {
		row := i + 2
		label := line.Date
		if i == len(lines)-1 {
			label = "Total"
		}
		_ = f.SetCellValue(lineSheet, fmt.Sprintf("A%d", row), label)
		values := []decimal.Decimal{line.MainExportKWh, line.MainImportKWh, line.SubExportKWh, line.SubImportKWh, line.ExportDiffKWh, line.ImportDiffKWh, line.ExportLossPercent, line.ImportLossPercent}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+2, row)
			_ = f.SetCellValue(lineSheet, cell, v.InexactFloat64())
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSeries(f *excelize.File, sheet string, s reporting.ClientSeries) {
	_ = f.SetCellValue(sheet, "A1", clientLabel(s.Client))
	_ = f.SetCellValue(sheet, "A2", "Meter")
	_ = f.SetCellValue(sheet, "B2", s.Meter.MeterNumber)
	_ = f.SetCellValue(sheet, "C2", "Capacity Basis")
	_ = f.SetCellValue(sheet, "D2", string(s.CapacityBasis))

	headers := []string{"Date", "Export (kWh)", "Import (kWh)", "Logger (kWh)", "Internal Loss (kWh)", "Loss %", "Avg Gen DC", "Avg Gen AC"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		_ = f.SetCellValue(sheet, cell, header)
	}
	row := 4
	for _, day := range s.Days {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), day.Date)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), day.ExportKWh.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), day.ImportKWh.InexactFloat64())
		switch {
		case day.LoggerValue != nil:
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), day.LoggerValue.InexactFloat64())
		case day.LoggerMissing:
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "no data")
		}
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), day.InternalLoss.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), day.LossPercent.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), day.AvgGenerationDC.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), day.AvgGenerationAC.InexactFloat64())
	}
	row++
	t := s.Totals
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), t.ExportKWh.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), t.ImportKWh.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), t.InternalLoss.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), t.LossPercent.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), t.AvgGenerationDC.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), t.AvgGenerationAC.InexactFloat64())
}

// BuildMonthlyLossesPDF renders the losses distribution of one month.
func BuildMonthlyLossesPDF(doc *reporting.MonthlyLossesDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("losses export: nil document")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Losses Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Main Client: %s", clientLabel(doc.Main.Client)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", doc.Period))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Meter: %s%s", doc.Main.Meter.MeterNumber, checkSuffix(doc.Main.Meter)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", doc.UpdatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	s := doc.Summary
	pdf.Cell(0, 6, fmt.Sprintf("Main Injection (MWh): %s   Main Drawl (MWh): %s", mwh(s.MainInjectionMWh), mwh(s.MainDrawlMWh)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sub Injection (MWh): %s   Sub Drawl (MWh): %s", mwh(s.TotalSubInjectionMWh), mwh(s.TotalSubDrawlMWh)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Injection Loss (MWh): %s (%s%%)   Drawl Loss (MWh): %s (%s%%)",
		mwh(s.InjectionLossMWh), pct(s.InjectionLossPercent), mwh(s.DrawlLossMWh), pct(s.DrawlLossPercent)))
	pdf.Ln(8)

	widths := []float64{52, 26, 26, 24, 24, 28, 28, 28, 28}
	headers := []string{"Client", "Inj (MWh)", "Drawl (MWh)", "Inj Wt %", "Drawl Wt %", "Inj Loss", "Drawl Loss", "Net Inj", "Net Drawl"}
	pdf.SetFont("Arial", "B", 9)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 6, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, sub := range doc.Subs {
		cells := []string{
			clientLabel(sub.Client) + checkSuffix(sub.Meter),
			mwh(sub.GrossInjectionMWh),
			mwh(sub.GrossDrawlMWh),
			pct(sub.InjectionWeightagePercent),
			pct(sub.DrawlWeightagePercent),
			mwh(sub.InjectionLossShareMWh),
			mwh(sub.DrawlLossShareMWh),
			mwh(sub.NetInjectionMWh),
			mwh(sub.NetDrawlMWh),
		}
		for i, cell := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		for _, part := range sub.Parts {
			pdf.CellFormat(widths[0], 6, "  "+clientLabel(part.Client), "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1]+widths[2]+widths[3], 6, fmt.Sprintf("share %s%%", pct(part.SharingPercentage)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[4]+widths[5]+widths[6], 6, "", "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[7], 6, mwh(part.NetInjectionMWh), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[8], 6, mwh(part.NetDrawlMWh), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	if len(doc.ClientsWithoutMeters) > 0 {
		pdf.Ln(4)
		pdf.Cell(0, 6, "Without meter data: "+joinOrDash(doc.ClientsWithoutMeters))
		pdf.Ln(5)
	}
	for _, warning := range doc.Warnings {
		pdf.MultiCell(0, 5, warning, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clientLabel(c reporting.ClientSnapshot) string {
	if c.Name == "" || c.Name == c.ID {
		return c.ID
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

func sheetName(i int, c reporting.ClientSnapshot) string {
	name := fmt.Sprintf("%02d_%s", i, c.ID)
	// excelize rejects sheet names over 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func checkSuffix(m reporting.MeterUsage) string {
	if m.UsedCheckMeter {
		return " [check]"
	}
	return ""
}

func mwh(v decimal.Decimal) string { return v.StringFixed(3) }

func pct(v decimal.Decimal) string { return v.StringFixed(2) }

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
