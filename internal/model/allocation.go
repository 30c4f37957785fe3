package model

import (
	"time"

	"github.com/google/uuid"
)

type AllocationAction string

const (
	AllocationActionAutoAssigned  AllocationAction = "AUTO_ASSIGNED"
	AllocationActionReallocated   AllocationAction = "REALLOCATED"
	AllocationActionAdminOverride AllocationAction = "ADMIN_OVERRIDE"
)

// AllocationLogEntry is one immutable audit record. Entries are only
// ever appended, never updated or deleted.
type AllocationLogEntry struct {
	ID             uuid.UUID
	BookingID      uuid.UUID
	Action         AllocationAction
	FromEngineerID *uuid.UUID
	ToEngineerID   uuid.UUID
	Score          *int
	Reasons        string
	CreatedAt      time.Time
}

// CandidateEvaluation is the scored (or rejected) outcome for a single
// engineer during selection.
type CandidateEvaluation struct {
	EngineerID      uuid.UUID
	EngineerName    string
	Score           int
	Reasons         []string
	Rejected        bool
	RejectionReason string
}

// AllocationDecision is the full result of a selection pass, including
// every candidate for diagnostics.
type AllocationDecision struct {
	SelectedEngineerID *uuid.UUID
	Score              int
	Reasons            []string
	Candidates         []CandidateEvaluation
}

// RouteStop is one entry in an engineer's grouped day plan.
type RouteStop struct {
	BookingID uuid.UUID
	SiteID    uuid.UUID
	Postcode  string
	Area      string
	Slot      Slot
}

// AllocationAuditRow is a log entry joined with booking and engineer
// context for the operator-facing audit export.
type AllocationAuditRow struct {
	EntryID       uuid.UUID
	BookingID     uuid.UUID
	SitePostcode  string
	ScheduledDate time.Time
	Action        AllocationAction
	FromEngineer  *string
	ToEngineer    string
	Score         *int
	Reasons       string
	CreatedAt     time.Time
}

type AllocationReport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Rows        []AllocationAuditRow
}
