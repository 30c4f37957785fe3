package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/model"
)

// AllocationLogRepository reads the append-only audit trail. Writes
// happen inside the booking repository's assignment transactions; this
// repository never updates or deletes entries.
type AllocationLogRepository struct {
	db *gorm.DB
}

func NewAllocationLogRepository(db *gorm.DB) *AllocationLogRepository {
	return &AllocationLogRepository{db: db}
}

func (r *AllocationLogRepository) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]model.AllocationLogEntry, error) {
	var entries []model.AllocationLogEntry
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, booking_id, action, from_engineer_id, to_engineer_id, score, reasons, created_at
		FROM allocation_log
		WHERE booking_id = ?
		ORDER BY created_at ASC, id ASC
	`, bookingID).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListForPeriod returns audit rows joined with booking and engineer
// context for the operator export. The period is inclusive of both
// calendar days.
func (r *AllocationLogRepository) ListForPeriod(ctx context.Context, from, to time.Time) ([]model.AllocationAuditRow, error) {
	endExclusive := to.Add(24 * time.Hour)

	var rows []model.AllocationAuditRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			l.id AS entry_id,
			l.booking_id,
			s.postcode AS site_postcode,
			b.scheduled_date,
			l.action,
			from_eng.name AS from_engineer,
			to_eng.name AS to_engineer,
			l.score,
			l.reasons,
			l.created_at
		FROM allocation_log l
		JOIN bookings b ON b.id = l.booking_id
		JOIN sites s ON s.id = b.site_id
		LEFT JOIN engineer_profiles from_eng ON from_eng.id = l.from_engineer_id
		JOIN engineer_profiles to_eng ON to_eng.id = l.to_engineer_id
		WHERE l.created_at >= ?
			AND l.created_at < ?
		ORDER BY l.created_at ASC, l.id ASC
	`, from, endExclusive).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
