package model

import (
	"time"

	"github.com/google/uuid"
)

type EngineerStatus string

const (
	EngineerStatusPendingApproval EngineerStatus = "PENDING_APPROVAL"
	EngineerStatusApproved        EngineerStatus = "APPROVED"
	EngineerStatusSuspended       EngineerStatus = "SUSPENDED"
	EngineerStatusRejected        EngineerStatus = "REJECTED"
)

// EngineerProfile carries everything the allocator needs to score one
// engineer. Only APPROVED profiles participate in allocation.
type EngineerProfile struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Status         EngineerStatus
	Competencies   []Competency
	CoverageAreas  []CoverageArea
	Qualifications []Qualification
}

type Competency struct {
	ID              uuid.UUID
	EngineerID      uuid.UUID
	ServiceID       uuid.UUID
	YearsExperience int
	Certified       bool
}

// CoverageArea is a postcode-prefix plus travel radius. The center
// coordinates are resolved lazily and may be absent.
type CoverageArea struct {
	ID         uuid.UUID
	EngineerID uuid.UUID
	AreaPrefix string
	RadiusKm   float64
	Latitude   *float64
	Longitude  *float64
}

type Qualification struct {
	ID          uuid.UUID
	EngineerID  uuid.UUID
	Name        string
	IssuingBody string
	ExpiryDate  *time.Time
}

// ValidOn reports whether the qualification is in date for the given
// day. A nil expiry never expires.
func (q Qualification) ValidOn(day time.Time) bool {
	return q.ExpiryDate == nil || !q.ExpiryDate.Before(day)
}

// AvailabilityRecord is an explicit per-date, per-slot declaration.
// Absence of a record means the engineer is available.
type AvailabilityRecord struct {
	ID         uuid.UUID
	EngineerID uuid.UUID
	Date       time.Time
	Slot       Slot
	Available  bool
}

// Covers reports whether this record applies to a booking in the given
// slot. A FULL_DAY record covers every slot, and a FULL_DAY booking is
// covered by any record on the day.
func (a AvailabilityRecord) Covers(slot Slot) bool {
	return a.Slot == slot || a.Slot == SlotFullDay || slot == SlotFullDay
}
