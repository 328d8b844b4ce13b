package export

import (
	"fmt"
	"strings"

	"github.com/piwi3910/spoonorder/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names used in exported workbooks.
const (
	SummarySheet  = "Summary"
	LayersSheet   = "Layers"
	WarningsSheet = "Warnings"
)

// ExportXLSX writes a rewrite report to an Excel workbook with a summary
// sheet, one row per layer block, and one row per motion warning.
func ExportXLSX(path string, report model.Report, profile model.PrintProfile) error {
	if len(report.Layers) == 0 {
		return fmt.Errorf("no layers to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(LayersSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(WarningsSheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Job ID", report.JobID},
		{"Source", report.Source},
		{"Created", report.CreatedAt.Format("2006-01-02 15:04:05 MST")},
		{"Mode", string(report.Mode)},
		{"Target Marker", report.Marker},
		{"Profile", profile.Name},
		{"Relative Extrusion", profile.RelativeExtrusion},
		{"Layer Blocks", len(report.Layers)},
		{"Rewritten Layers", report.RewrittenLayers()},
		{"Target Sections Moved", report.TotalTargetSections()},
		{"Motion Warnings", report.TotalWarnings()},
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", fmt.Sprintf("A%d", len(summary)), header); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 40); err != nil {
		return err
	}

	layerRows := [][]interface{}{{"Block", "Layer", "Rewritten", "Targets", "Others", "Travel Lines", "Deferred", "Warnings"}}
	var warningRows [][]interface{}
	warningRows = append(warningRows, []interface{}{"Block", "Layer", "Warning"})
	for _, l := range report.Layers {
		var number interface{} = l.Number
		if l.Number < 0 {
			number = ""
		}
		layerRows = append(layerRows, []interface{}{
			l.Index, number, l.Rewritten, l.TargetSections, l.OtherSections,
			l.PreambleLines, l.DeferredLines, strings.Join(l.Warnings, "\n"),
		})
		for _, w := range l.Warnings {
			warningRows = append(warningRows, []interface{}{l.Index, number, w})
		}
	}
	if err := writeRows(f, LayersSheet, layerRows); err != nil {
		return err
	}
	if err := f.SetCellStyle(LayersSheet, "A1", "H1", header); err != nil {
		return err
	}
	if err := f.SetColWidth(LayersSheet, "A", "G", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(LayersSheet, "H", "H", 60); err != nil {
		return err
	}

	if err := writeRows(f, WarningsSheet, warningRows); err != nil {
		return err
	}
	if err := f.SetCellStyle(WarningsSheet, "A1", "C1", header); err != nil {
		return err
	}
	if err := f.SetColWidth(WarningsSheet, "C", "C", 80); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
