package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/fieldserve/dispatch/internal/model"
)

type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

func (g *PDFGenerator) Generate(report model.AllocationReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Allocation audit trail", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period %s to %s", formatDate(report.PeriodStart), formatDate(report.PeriodEnd)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("%d entries", len(report.Rows)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	headers := []string{"Logged at", "Booking", "Postcode", "Job date", "Action", "From", "To", "Score"}
	widths := []float64{34, 52, 20, 22, 32, 34, 34, 14}
	drawTableRow(pdf, headers, widths, true)

	for _, entry := range report.Rows {
		from := "-"
		if entry.FromEngineer != nil {
			from = *entry.FromEngineer
		}
		score := "-"
		if entry.Score != nil {
			score = fmt.Sprintf("%d", *entry.Score)
		}
		row := []string{
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.BookingID.String(),
			entry.SitePostcode,
			formatDate(entry.ScheduledDate),
			string(entry.Action),
			from,
			entry.ToEngineer,
			score,
		}
		drawTableRow(pdf, row, widths, false)

		if entry.Reasons != "" {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.MultiCell(0, 4, "    "+entry.Reasons, "", "L", false)
			pdf.SetFont("Helvetica", "", 9)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	size := 9.0
	if header {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, size)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
