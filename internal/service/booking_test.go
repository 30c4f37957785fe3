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

func seedBooking(store *fakeBookingStore, status model.BookingStatus) uuid.UUID {
	id := uuid.New()
	store.bookings[id] = &model.Booking{
		ID:            id,
		CustomerID:    uuid.New(),
		SiteID:        uuid.New(),
		ServiceID:     uuid.New(),
		Status:        status,
		ScheduledDate: day(2026, 4, 1),
		Slot:          model.SlotMorning,
		Quantity:      10,
	}
	return id
}

func TestTransitionTable(t *testing.T) {
	all := []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusInProgress,
		model.BookingStatusCompleted,
		model.BookingStatusCancelled,
	}
	allowed := map[model.BookingStatus][]model.BookingStatus{
		model.BookingStatusPending:    {model.BookingStatusConfirmed, model.BookingStatusCancelled},
		model.BookingStatusConfirmed:  {model.BookingStatusInProgress, model.BookingStatusCancelled, model.BookingStatusPending},
		model.BookingStatusInProgress: {model.BookingStatusCompleted, model.BookingStatusCancelled},
		model.BookingStatusCompleted:  {},
		model.BookingStatusCancelled:  {model.BookingStatusPending},
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				store := newFakeBookingStore()
				svc := NewBookingService(store, testLogger())
				id := seedBooking(store, from)

				updated, err := svc.Transition(context.Background(), id, to)

				legal := false
				for _, a := range allowed[from] {
					if a == to {
						legal = true
					}
				}
				if legal {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
				} else {
					assert.ErrorIs(t, err, ErrInvalidTransition)
					assert.Equal(t, from, store.bookings[id].Status)
				}
			})
		}
	}
}

func TestTransitionStampsStartedAt(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusConfirmed)

	updated, err := svc.Transition(context.Background(), id, model.BookingStatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, updated.StartedAt)
	assert.Nil(t, updated.CompletedAt)
}

func TestTransitionStampsCompletedAt(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusInProgress)
	started := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	store.bookings[id].StartedAt = &started

	updated, err := svc.Transition(context.Background(), id, model.BookingStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, started, *updated.StartedAt)
}

func TestTransitionTimestampsAreWriteOnce(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusConfirmed)

	_, err := svc.Transition(context.Background(), id, model.BookingStatusInProgress)
	require.NoError(t, err)
	first := store.bookings[id].StartedAt
	require.NotNil(t, first)

	// Cancel, reopen, and restart the job: the original startedAt must
	// survive the second IN_PROGRESS entry.
	for _, step := range []model.BookingStatus{
		model.BookingStatusCancelled,
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusInProgress,
	} {
		_, err := svc.Transition(context.Background(), id, step)
		require.NoError(t, err)
	}
	assert.Equal(t, first, store.bookings[id].StartedAt)

	// The second attempt must not pass a fresh timestamp down either.
	last := store.updates[len(store.updates)-1]
	assert.Equal(t, model.BookingStatusInProgress, last.status)
	assert.Nil(t, last.startedAt)
}

func TestTransitionAsOps(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusPending)
	ops := model.Principal{UserID: uuid.New(), Role: "OPS"}

	updated, err := svc.TransitionAs(context.Background(), ops, id, model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, updated.Status)
}

func TestTransitionAsAssignedEngineer(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusConfirmed)
	engineerID := uuid.New()
	store.bookings[id].EngineerID = &engineerID

	principal := model.Principal{UserID: uuid.New(), Role: "ENGINEER", EngineerID: &engineerID}
	updated, err := svc.TransitionAs(context.Background(), principal, id, model.BookingStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusInProgress, updated.Status)
}

func TestTransitionAsOtherEngineerDenied(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusConfirmed)
	assigned := uuid.New()
	store.bookings[id].EngineerID = &assigned

	other := uuid.New()
	principal := model.Principal{UserID: uuid.New(), Role: "ENGINEER", EngineerID: &other}
	_, err := svc.TransitionAs(context.Background(), principal, id, model.BookingStatusInProgress)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, model.BookingStatusConfirmed, store.bookings[id].Status)
}

func TestTransitionAsCustomerDenied(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusPending)

	principal := model.Principal{UserID: uuid.New(), Role: "CUSTOMER"}
	_, err := svc.TransitionAs(context.Background(), principal, id, model.BookingStatusCancelled)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestTransitionUnknownStatus(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())
	id := seedBooking(store, model.BookingStatusPending)

	_, err := svc.Transition(context.Background(), id, model.BookingStatus("DONE"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransitionBookingNotFound(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, testLogger())

	_, err := svc.Transition(context.Background(), uuid.New(), model.BookingStatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}
