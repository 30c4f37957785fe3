package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/model"
)

// BookingService applies lifecycle transitions. Every status change in
// the system goes through Transition; nothing writes status directly.
type BookingService struct {
	bookings BookingStore
	log      zerolog.Logger
}

func NewBookingService(bookings BookingStore, log zerolog.Logger) *BookingService {
	return &BookingService{bookings: bookings, log: log}
}

// TransitionAs applies the caller's permissions before transitioning:
// operators and admins may move any booking, an engineer only one
// assigned to them.
func (s *BookingService) TransitionAs(ctx context.Context, principal model.Principal, bookingID uuid.UUID, target model.BookingStatus) (*model.Booking, error) {
	if principal.IsAdmin() || principal.IsOps() {
		return s.Transition(ctx, bookingID, target)
	}
	if !principal.IsEngineer() || principal.EngineerID == nil {
		return nil, fmt.Errorf("%w: role %s cannot change booking status", ErrPermissionDenied, principal.Role)
	}

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if booking.EngineerID == nil || *booking.EngineerID != *principal.EngineerID {
		return nil, fmt.Errorf("%w: booking is not assigned to this engineer", ErrPermissionDenied)
	}
	return s.Transition(ctx, bookingID, target)
}

// Transition validates the requested change against the lifecycle
// table and applies it, stamping startedAt/completedAt write-once.
func (s *BookingService) Transition(ctx context.Context, bookingID uuid.UUID, target model.BookingStatus) (*model.Booking, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, target)
	}

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return nil, err
	}

	if !booking.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	var startedAt, completedAt *time.Time
	now := time.Now().UTC()
	if target == model.BookingStatusInProgress && booking.StartedAt == nil {
		startedAt = &now
	}
	if target == model.BookingStatusCompleted && booking.CompletedAt == nil {
		completedAt = &now
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, target, startedAt, completedAt); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("booking_id", booking.ID.String()).
		Str("from", string(booking.Status)).
		Str("to", string(target)).
		Msg("booking status transitioned")

	booking.Status = target
	if startedAt != nil {
		booking.StartedAt = startedAt
	}
	if completedAt != nil {
		booking.CompletedAt = completedAt
	}
	return booking, nil
}
