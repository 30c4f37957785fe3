package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/model"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// anyArg matches any SQL argument.
type anyArg struct{}

func (anyArg) Match(v driver.Value) bool { return true }

func TestClaimIfUnassigned_WinsRace(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewBookingRepository(gormDB)

	bookingID := uuid.New()
	engineerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(engineerID, "CONFIRMED", bookingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO allocation_log`)).
		WithArgs(bookingID, "AUTO_ASSIGNED", nil, engineerID, nil, "engineer self-claim").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	claimed, err := repo.ClaimIfUnassigned(context.Background(), bookingID, engineerID, model.AllocationLogEntry{
		BookingID:    bookingID,
		Action:       model.AllocationActionAutoAssigned,
		ToEngineerID: engineerID,
		Reasons:      "engineer self-claim",
	})
	assert.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimIfUnassigned_LosesRace(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewBookingRepository(gormDB)

	bookingID := uuid.New()
	engineerID := uuid.New()

	// The conditional update matches zero rows: no log entry is written
	// and the caller observes claimed=false.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(engineerID, "CONFIRMED", bookingID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	claimed, err := repo.ClaimIfUnassigned(context.Background(), bookingID, engineerID, model.AllocationLogEntry{
		BookingID:    bookingID,
		Action:       model.AllocationActionAutoAssigned,
		ToEngineerID: engineerID,
	})
	assert.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignEngineer_WritesBookingAndLogTogether(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewBookingRepository(gormDB)

	bookingID := uuid.New()
	fromEngineer := uuid.New()
	toEngineer := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(toEngineer, "CONFIRMED", bookingID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO allocation_log`)).
		WithArgs(bookingID, "REALLOCATED", anyArg{}, toEngineer, nil, "customer requested a different visit time").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AssignEngineer(context.Background(), bookingID, toEngineer, model.BookingStatusConfirmed, model.AllocationLogEntry{
		BookingID:      bookingID,
		Action:         model.AllocationActionReallocated,
		FromEngineerID: &fromEngineer,
		ToEngineerID:   toEngineer,
		Reasons:        "customer requested a different visit time",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignEngineer_MissingBooking(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewBookingRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE bookings`)).
		WithArgs(anyArg{}, "CONFIRMED", anyArg{}).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AssignEngineer(context.Background(), uuid.New(), uuid.New(), model.BookingStatusConfirmed, model.AllocationLogEntry{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
