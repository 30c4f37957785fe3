package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/model"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			site_id,
			service_id,
			engineer_id,
			status,
			scheduled_date,
			slot,
			quantity,
			original_price,
			discount_percent,
			quoted_price,
			started_at,
			completed_at,
			created_at,
			updated_at
		FROM bookings
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&booking).Error
	if err != nil {
		return nil, err
	}
	if booking.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &booking, nil
}

// ListActiveWithSites returns active bookings scheduled within
// [from, to] inclusive, joined with their site's postcode and any
// resolved coordinates.
func (r *BookingRepository) ListActiveWithSites(ctx context.Context, from, to time.Time) ([]model.NearbyBooking, error) {
	query := fmt.Sprintf(`
		SELECT
			b.id AS booking_id,
			b.site_id,
			b.scheduled_date,
			b.status,
			b.slot,
			s.postcode,
			s.latitude,
			s.longitude
		FROM bookings b
		JOIN sites s ON s.id = b.site_id
		WHERE b.scheduled_date >= ?
			AND b.scheduled_date <= ?
			AND b.status IN (%s)
		ORDER BY b.scheduled_date ASC, b.id ASC
	`, activeStatusPlaceholders())

	args := []interface{}{from, to}
	args = append(args, activeStatusArgs()...)

	var rows []model.NearbyBooking
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveForEngineerDate returns the engineer's active bookings on
// one calendar day, with site context for clustering and routing.
func (r *BookingRepository) ListActiveForEngineerDate(ctx context.Context, engineerID uuid.UUID, date time.Time) ([]model.NearbyBooking, error) {
	query := fmt.Sprintf(`
		SELECT
			b.id AS booking_id,
			b.site_id,
			b.scheduled_date,
			b.status,
			b.slot,
			s.postcode,
			s.latitude,
			s.longitude
		FROM bookings b
		JOIN sites s ON s.id = b.site_id
		WHERE b.engineer_id = ?
			AND b.scheduled_date = ?
			AND b.status IN (%s)
		ORDER BY b.id ASC
	`, activeStatusPlaceholders())

	args := []interface{}{engineerID, date}
	args = append(args, activeStatusArgs()...)

	var rows []model.NearbyBooking
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignEngineer binds the engineer and the new status in a single
// UPDATE and appends the allocation log entry in the same transaction,
// so a CONFIRMED booking with a stale engineer is never observable.
func (r *BookingRepository) AssignEngineer(
	ctx context.Context,
	bookingID uuid.UUID,
	engineerID uuid.UUID,
	status model.BookingStatus,
	entry model.AllocationLogEntry,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE bookings
			SET engineer_id = ?, status = ?, updated_at = NOW()
			WHERE id = ?
		`, engineerID, status, bookingID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return appendLogEntry(tx, entry)
	})
}

// ClaimIfUnassigned is the atomic self-assignment: the update only
// matches while engineer_id is NULL, so exactly one concurrent claimer
// wins. Returns false when the row was already taken.
func (r *BookingRepository) ClaimIfUnassigned(
	ctx context.Context,
	bookingID uuid.UUID,
	engineerID uuid.UUID,
	entry model.AllocationLogEntry,
) (bool, error) {
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE bookings
			SET engineer_id = ?, status = ?, updated_at = NOW()
			WHERE id = ? AND engineer_id IS NULL
		`, engineerID, model.BookingStatusConfirmed, bookingID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		claimed = true
		return appendLogEntry(tx, entry)
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// UpdateStatus writes the new status. Lifecycle timestamps are guarded
// with COALESCE so they are write-once even under a racing re-entry.
func (r *BookingRepository) UpdateStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	status model.BookingStatus,
	startedAt *time.Time,
	completedAt *time.Time,
) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE bookings
		SET
			status = ?,
			started_at = COALESCE(started_at, ?),
			completed_at = COALESCE(completed_at, ?),
			updated_at = NOW()
		WHERE id = ?
	`, status, startedAt, completedAt, bookingID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func appendLogEntry(tx *gorm.DB, entry model.AllocationLogEntry) error {
	return tx.Exec(`
		INSERT INTO allocation_log (booking_id, action, from_engineer_id, to_engineer_id, score, reasons)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.BookingID, entry.Action, entry.FromEngineerID, entry.ToEngineerID, entry.Score, entry.Reasons).Error
}

func activeStatusPlaceholders() string {
	placeholders := make([]string, len(model.ActiveBookingStatuses))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return strings.Join(placeholders, ",")
}

func activeStatusArgs() []interface{} {
	args := make([]interface{}, len(model.ActiveBookingStatuses))
	for i, status := range model.ActiveBookingStatuses {
		args[i] = status
	}
	return args
}
