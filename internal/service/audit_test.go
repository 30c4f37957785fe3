package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldserve/dispatch/internal/model"
)

type fakeGenerator struct {
	content []byte
	reports []model.AllocationReport
}

func (f *fakeGenerator) Generate(report model.AllocationReport) ([]byte, error) {
	f.reports = append(f.reports, report)
	return f.content, nil
}

func TestExportExcel(t *testing.T) {
	logs := &fakeLogStore{rows: []model.AllocationAuditRow{{
		EntryID:       uuid.New(),
		BookingID:     uuid.New(),
		SitePostcode:  "SW1A 1AA",
		ScheduledDate: day(2026, 6, 2),
		Action:        model.AllocationActionAutoAssigned,
		ToEngineer:    "Engineer A",
		CreatedAt:     time.Now(),
	}}}
	excel := &fakeGenerator{content: []byte("xlsx-bytes")}
	pdf := &fakeGenerator{content: []byte("pdf-bytes")}
	audit := NewAuditService(logs, excel, pdf, testLogger())

	result, err := audit.ExportExcel(context.Background(), day(2026, 6, 1), day(2026, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, "allocations-20260601-20260630.xlsx", result.FileName)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.ContentType)
	assert.Equal(t, []byte("xlsx-bytes"), result.Content)

	require.Len(t, excel.reports, 1)
	assert.Len(t, excel.reports[0].Rows, 1)
	assert.Empty(t, pdf.reports)
}

func TestExportPDF(t *testing.T) {
	logs := &fakeLogStore{}
	pdf := &fakeGenerator{content: []byte("pdf-bytes")}
	audit := NewAuditService(logs, &fakeGenerator{}, pdf, testLogger())

	result, err := audit.ExportPDF(context.Background(), day(2026, 6, 1), day(2026, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, "allocations-20260601-20260630.pdf", result.FileName)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestExportInvalidPeriod(t *testing.T) {
	audit := NewAuditService(&fakeLogStore{}, &fakeGenerator{}, &fakeGenerator{}, testLogger())

	_, err := audit.ExportExcel(context.Background(), day(2026, 6, 30), day(2026, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = audit.ExportPDF(context.Background(), time.Time{}, day(2026, 6, 1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
