package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fieldserve/dispatch/internal/model"
)

// ExcelGenerator renders the allocation audit trail as a spreadsheet
// with a summary sheet and a per-action breakdown.
type ExcelGenerator struct{}

func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

func (g *ExcelGenerator) Generate(report model.AllocationReport) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Summary"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, report); err != nil {
		return nil, err
	}

	detailSheet := "Allocations"
	file.NewSheet(detailSheet)
	if err := g.writeDetail(file, detailSheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *ExcelGenerator) writeSummary(file *excelize.File, sheet string, report model.AllocationReport) error {
	counts := map[model.AllocationAction]int{}
	for _, row := range report.Rows {
		counts[row.Action]++
	}

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Report")
	set("B1", "Allocation audit trail")
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Total entries")
	set("B4", len(report.Rows))

	tableRow := 6
	set(fmt.Sprintf("A%d", tableRow), "Action")
	set(fmt.Sprintf("B%d", tableRow), "Entries")
	for i, action := range []model.AllocationAction{
		model.AllocationActionAutoAssigned,
		model.AllocationActionReallocated,
		model.AllocationActionAdminOverride,
	} {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(action))
		set(fmt.Sprintf("B%d", row), counts[action])
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func (g *ExcelGenerator) writeDetail(file *excelize.File, sheet string, report model.AllocationReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Logged at", "Booking", "Site postcode", "Job date", "Action", "From engineer", "To engineer", "Score", "Reasons"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, entry := range report.Rows {
		row := i + 2
		from := ""
		if entry.FromEngineer != nil {
			from = *entry.FromEngineer
		}
		score := ""
		if entry.Score != nil {
			score = fmt.Sprintf("%d", *entry.Score)
		}
		values := []interface{}{
			entry.CreatedAt.Format(time.RFC3339),
			entry.BookingID.String(),
			entry.SitePostcode,
			formatDate(entry.ScheduledDate),
			string(entry.Action),
			from,
			entry.ToEngineer,
			score,
			entry.Reasons,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "B", 28)
	_ = file.SetColWidth(sheet, "C", "H", 16)
	_ = file.SetColWidth(sheet, "I", "I", 60)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
