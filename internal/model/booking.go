package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
)

type Slot string

const (
	SlotMorning   Slot = "MORNING"
	SlotAfternoon Slot = "AFTERNOON"
	SlotFullDay   Slot = "FULL_DAY"
)

// ActiveBookingStatuses are the statuses that count as competing demand
// for pricing and same-day clustering.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
}

// allowedTransitions is the full lifecycle table. COMPLETED is terminal;
// CANCELLED can only be reopened back to PENDING.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled, BookingStatusPending},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted:  {},
	BookingStatusCancelled:  {BookingStatusPending},
}

func (s BookingStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s Slot) IsValid() bool {
	switch s {
	case SlotMorning, SlotAfternoon, SlotFullDay:
		return true
	}
	return false
}

type Booking struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	SiteID          uuid.UUID
	ServiceID       uuid.UUID
	EngineerID      *uuid.UUID
	Status          BookingStatus
	ScheduledDate   time.Time
	Slot            Slot
	Quantity        int
	OriginalPrice   float64
	DiscountPercent float64
	QuotedPrice     float64
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NearbyBooking is a booking row joined with the postcode and resolved
// coordinates of its site, as used by the pricing and clustering checks.
type NearbyBooking struct {
	BookingID     uuid.UUID
	SiteID        uuid.UUID
	ScheduledDate time.Time
	Status        BookingStatus
	Slot          Slot
	Postcode      string
	Latitude      *float64
	Longitude     *float64
}
