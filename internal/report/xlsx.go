package report

import (
	"fmt"
	"io"

	"indent-mcp/internal/engine"

	"github.com/xuri/excelize/v2"
)

const (
	rowsSheet    = "Recommendations"
	summarySheet = "Summary"
)

// WriteXLSX writes a workbook with a per-center sheet and a summary sheet.
func (wr *Writer) WriteXLSX(w io.Writer, run engine.Run) error {
	if err := checkFinite(run); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := setRow(f, rowsSheet, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(csvHeader), 1)
	if err := f.SetCellStyle(rowsSheet, "A1", last, bold); err != nil {
		return err
	}

	for i, r := range run.Rows {
		values := []interface{}{
			r.CenterCode, wr.Float(r.BondingPct),
			r.D1, r.D2, r.D3, r.D4,
			string(r.WeightSource), r.Occurrences,
			wr.Float(r.ForecastT3), wr.Float(r.Requirement), wr.Float(r.Adjusted),
			wr.Float(r.Net), wr.Float(r.Corrected), wr.Float(r.Recommended),
			r.LowConfidence, flags(r),
		}
		if err := setRow(f, rowsSheet, i+2, values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(rowsSheet, "A", "P", 14); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	t := run.Totals
	overrun := interface{}("undefined")
	if t.Overrun.Defined {
		overrun = wr.Float(t.Overrun.Value * 100)
	}
	summary := [][]interface{}{
		{"Run", run.Name},
		{"Run ID", run.ID},
		{"Base run ID", run.BaseRunID},
		{"Current date", engine.FormatDay(t.CurrentDate)},
		{"Forecast date", engine.FormatDay(t.ForecastDate)},
		{"Total daily requirement", wr.Float(run.Inputs.TotalDailyRequirement)},
		{"Plant capacity", wr.Float(run.Inputs.PlantCapacity)},
		{"Available stock (gate)", wr.Float(run.Inputs.AvailableStockGate)},
		{"Available stock (centre)", wr.Float(run.Inputs.AvailableStockCentre)},
		{"Standard stock (gate)", wr.Float(run.Inputs.StandardStockGate)},
		{"Standard stock (centre)", wr.Float(run.Inputs.StandardStockCentre)},
		{"Overrun %", overrun},
		{"Overrun applied", t.OverrunApplied},
		{"Total forecast T+3", wr.Float(t.TotalForecast)},
		{"Total recommended", wr.Float(t.TotalRecommended)},
		{"Low-confidence rows", t.LowConfidence},
	}
	for _, warn := range run.Warnings {
		summary = append(summary, []interface{}{"Warning", warn})
	}
	for i, values := range summary {
		if err := setRow(f, summarySheet, i+1, values); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
