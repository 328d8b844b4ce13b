// Package export writes rewrite reports to PDF and Excel files.
package export

import (
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/spoonorder/internal/model"
)

// rowColor represents an RGB fill for a layer table row.
type rowColor struct {
	R, G, B int
}

// Row fills by layer outcome.
var (
	colorRewritten = rowColor{R: 232, G: 245, B: 233} // light green
	colorSkipped   = rowColor{R: 255, G: 255, B: 255}
	colorWarning   = rowColor{R: 255, G: 243, B: 224} // light orange
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	rowHeight    = 6.0
)

var (
	layerColWidths = []float64{18, 18, 24, 24, 24, 26, 22, 24}
	layerHeaders   = []string{"Block", "Layer", "Rewritten", "Targets", "Others", "Travel lines", "Deferred", "Warnings"}
)

// ExportPDF generates a PDF document describing a rewrite pass: a summary
// page with the job tag and the print profile used, followed by the per-layer
// table and any motion warnings.
func ExportPDF(path string, report model.Report, profile model.PrintProfile) error {
	if len(report.Layers) == 0 {
		return fmt.Errorf("no layers to export")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, report, profile); err != nil {
		return err
	}

	renderLayerTable(pdf, report.Layers)
	renderWarnings(pdf, report.Layers)

	return pdf.OutputFileAndClose(path)
}

// renderSummaryPage draws the title, job tag, totals and profile settings.
func renderSummaryPage(pdf *fpdf.Fpdf, report model.Report, profile model.PrintProfile) error {
	// Title
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight-qrSize, 10, "Spoon Reorder Report", "", 0, "L", false, 0, "")

	if err := renderJobTag(pdf, pageWidth-marginRight-qrSize, marginTop, CollectJobTag(report)); err != nil {
		return err
	}

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(marginLeft, marginTop+10)
	pdf.CellFormat(120, 5, report.Source, "", 0, "L", false, 0, "")
	pdf.SetXY(marginLeft, marginTop+15)
	pdf.CellFormat(120, 5, report.CreatedAt.Format("2006-01-02 15:04:05 MST"), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// Separator line
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	y := marginTop + qrSize + 6
	pdf.Line(marginLeft, y, pageWidth-marginRight, y)
	y += 6

	y = renderItems(pdf, y, "Overall Statistics", []summaryItem{
		{"Job ID", report.JobID},
		{"Mode", string(report.Mode)},
		{"Target Marker", report.Marker},
		{"Layer Blocks", fmt.Sprintf("%d", len(report.Layers))},
		{"Rewritten Layers", fmt.Sprintf("%d", report.RewrittenLayers())},
		{"Target Sections Moved", fmt.Sprintf("%d", report.TotalTargetSections())},
		{"Motion Warnings", fmt.Sprintf("%d", report.TotalWarnings())},
	})
	y += 5

	extrusion := "absolute"
	if profile.RelativeExtrusion {
		extrusion = "relative"
	}
	renderItems(pdf, y, "Print Profile: "+profile.Name, []summaryItem{
		{"Retraction", onOff(profile.RetractionEnabled, fmt.Sprintf("%.2f mm @ %.0f/%.0f mm/s", profile.RetractionAmount, profile.RetractionSpeed, profile.RetractionPrimeSpeed))},
		{"Z Hop", onOff(profile.HopEnabled, fmt.Sprintf("%.2f mm @ %.0f mm/s", profile.HopHeight, profile.HopSpeed))},
		{"Travel Speed", fmt.Sprintf("%.0f mm/s", profile.TravelSpeed)},
		{"Extrusion", extrusion},
		{"Initial Layer Height", fmt.Sprintf("%.2f mm", profile.InitialLayerHeight)},
	})

	renderFooter(pdf)
	return nil
}

type summaryItem struct {
	label string
	value string
}

// renderItems draws a titled list of label/value pairs and returns the next free y.
func renderItems(pdf *fpdf.Fpdf, y float64, title string, items []summaryItem) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(150, 7, title, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(55, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(110, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	return y
}

func onOff(enabled bool, detail string) string {
	if !enabled {
		return "off"
	}
	return detail
}

// renderLayerTable draws one row per layer block, continuing on new pages
// as needed.
func renderLayerTable(pdf *fpdf.Fpdf, layers []model.LayerReport) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(100, 7, "Layer Breakdown", "", 0, "L", false, 0, "")
	y := renderTableHeader(pdf, marginTop+9)

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range layers {
		if y+rowHeight > pageHeight-marginBottom {
			renderFooter(pdf)
			pdf.AddPage()
			y = renderTableHeader(pdf, marginTop)
			pdf.SetFont("Helvetica", "", 9)
		}

		col := layerRowColor(l)
		pdf.SetFillColor(col.R, col.G, col.B)

		xPos := marginLeft
		for j, cell := range layerRow(l) {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(layerColWidths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
			xPos += layerColWidths[j]
		}
		y += rowHeight
	}
	renderFooter(pdf)
}

func renderTableHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range layerHeaders {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(layerColWidths[i], rowHeight, header, "1", 0, "C", true, 0, "")
		xPos += layerColWidths[i]
	}
	return y + rowHeight
}

// layerRow formats the table cells for one layer.
func layerRow(l model.LayerReport) []string {
	layer := "-"
	if l.Number >= 0 {
		layer = fmt.Sprintf("%d", l.Number)
	}
	rewritten := "no"
	if l.Rewritten {
		rewritten = "yes"
	}
	return []string{
		fmt.Sprintf("%d", l.Index),
		layer,
		rewritten,
		fmt.Sprintf("%d", l.TargetSections),
		fmt.Sprintf("%d", l.OtherSections),
		fmt.Sprintf("%d", l.PreambleLines),
		fmt.Sprintf("%d", l.DeferredLines),
		fmt.Sprintf("%d", len(l.Warnings)),
	}
}

func layerRowColor(l model.LayerReport) rowColor {
	switch {
	case len(l.Warnings) > 0:
		return colorWarning
	case l.Rewritten:
		return colorRewritten
	default:
		return colorSkipped
	}
}

// renderWarnings lists every motion warning, if there are any.
func renderWarnings(pdf *fpdf.Fpdf, layers []model.LayerReport) {
	var lines []string
	for _, l := range layers {
		for _, w := range l.Warnings {
			lines = append(lines, fmt.Sprintf("Layer %d: %s", l.Number, w))
		}
	}
	if len(lines) == 0 {
		return
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(200, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(180, 7, "WARNING: Motion Findings", "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginTop + 9
	pdf.SetFont("Courier", "", 8)
	for _, line := range lines {
		if y+5 > pageHeight-marginBottom {
			renderFooter(pdf)
			pdf.AddPage()
			y = marginTop
			pdf.SetFont("Courier", "", 8)
		}
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(pageWidth-marginLeft-marginRight-5, 5, line, "", 0, "L", false, 0, "")
		y += 5
	}
	renderFooter(pdf)
}

func renderFooter(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by spoonorder - spoon section reordering for sliced gcode", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
