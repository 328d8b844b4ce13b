package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/spoonorder/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// JobTag holds the data encoded into the QR code printed on a report, so a
// paper copy can be matched to the rewritten file and its backup.
type JobTag struct {
	JobID     string `json:"job_id"`
	Source    string `json:"source,omitempty"`
	Profile   string `json:"profile"`
	Mode      string `json:"mode"`
	Marker    string `json:"marker"`
	Layers    int    `json:"layers"`
	Rewritten int    `json:"rewritten"`
	Targets   int    `json:"targets"`
	Warnings  int    `json:"warnings"`
}

// QR tag layout (mm).
const (
	qrSize     = 28.0
	tagPadding = 2.0
)

// CollectJobTag extracts the tag data from a report.
func CollectJobTag(report model.Report) JobTag {
	return JobTag{
		JobID:     report.JobID,
		Source:    report.Source,
		Profile:   report.Profile,
		Mode:      string(report.Mode),
		Marker:    report.Marker,
		Layers:    len(report.Layers),
		Rewritten: report.RewrittenLayers(),
		Targets:   report.TotalTargetSections(),
		Warnings:  report.TotalWarnings(),
	}
}

// renderJobTag draws the QR code for tag with its top-left corner at x, y,
// and the short job id underneath.
func renderJobTag(pdf *fpdf.Fpdf, x, y float64, tag JobTag) error {
	qrData, err := json.Marshal(tag)
	if err != nil {
		return fmt.Errorf("failed to marshal job tag: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_" + tag.JobID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions(imgName, x, y, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Courier", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(x-tagPadding, y+qrSize)
	pdf.CellFormat(qrSize+2*tagPadding, 3, shortID(tag.JobID), "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// shortID returns the first block of a uuid.
func shortID(id string) string {
	for i, c := range id {
		if c == '-' {
			return id[:i]
		}
	}
	return id
}
