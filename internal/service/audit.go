package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldserve/dispatch/internal/model"
)

type ExcelGenerator interface {
	Generate(report model.AllocationReport) ([]byte, error)
}

type PDFGenerator interface {
	Generate(report model.AllocationReport) ([]byte, error)
}

// AuditService builds the operator-facing export of the allocation
// trail over a period.
type AuditService struct {
	allocations AllocationLogStore
	excel       ExcelGenerator
	pdf         PDFGenerator
	log         zerolog.Logger
}

func NewAuditService(allocations AllocationLogStore, excel ExcelGenerator, pdf PDFGenerator, log zerolog.Logger) *AuditService {
	return &AuditService{allocations: allocations, excel: excel, pdf: pdf, log: log}
}

type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

func (s *AuditService) buildReport(ctx context.Context, periodStart, periodEnd time.Time) (*model.AllocationReport, error) {
	start := dateOnly(periodStart)
	end := dateOnly(periodEnd)
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: period start must be before or equal to period end", ErrInvalidInput)
	}

	rows, err := s.allocations.ListForPeriod(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &model.AllocationReport{
		PeriodStart: start,
		PeriodEnd:   end,
		Rows:        rows,
	}, nil
}

func (s *AuditService) ExportExcel(ctx context.Context, periodStart, periodEnd time.Time) (*ExportResult, error) {
	report, err := s.buildReport(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName:    exportFileName(report, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func (s *AuditService) ExportPDF(ctx context.Context, periodStart, periodEnd time.Time) (*ExportResult, error) {
	report, err := s.buildReport(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName:    exportFileName(report, "pdf"),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func exportFileName(report *model.AllocationReport, extension string) string {
	return fmt.Sprintf("allocations-%s-%s.%s",
		report.PeriodStart.Format("20060102"),
		report.PeriodEnd.Format("20060102"),
		extension,
	)
}
