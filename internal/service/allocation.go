package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/config"
	"github.com/fieldserve/dispatch/internal/geo"
	"github.com/fieldserve/dispatch/internal/model"
	"github.com/fieldserve/dispatch/internal/postcode"
)

type AllocationService struct {
	bookings    BookingStore
	engineers   EngineerStore
	catalog     CatalogStore
	allocations AllocationLogStore
	postcodes   postcode.Lookup
	cfg         *config.Config
	log         zerolog.Logger
}

func NewAllocationService(
	bookings BookingStore,
	engineers EngineerStore,
	catalog CatalogStore,
	allocations AllocationLogStore,
	postcodes postcode.Lookup,
	cfg *config.Config,
	log zerolog.Logger,
) *AllocationService {
	return &AllocationService{
		bookings:    bookings,
		engineers:   engineers,
		catalog:     catalog,
		allocations: allocations,
		postcodes:   postcodes,
		cfg:         cfg,
		log:         log,
	}
}

// FindBestEngineer scores every approved engineer for the booking and
// returns the full decision. SelectedEngineerID is nil when no
// candidate scored above zero.
func (s *AllocationService) FindBestEngineer(ctx context.Context, bookingID uuid.UUID) (*model.AllocationDecision, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.decide(ctx, booking)
}

func (s *AllocationService) decide(ctx context.Context, booking *model.Booking) (*model.AllocationDecision, error) {
	svc, err := s.catalog.GetService(ctx, booking.ServiceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: service %s", ErrNotFound, booking.ServiceID)
		}
		return nil, err
	}
	site, err := s.catalog.GetSite(ctx, booking.SiteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: site %s", ErrNotFound, booking.SiteID)
		}
		return nil, err
	}

	day := dateOnly(booking.ScheduledDate)

	profiles, err := s.engineers.ListApproved(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.engineers.ListAvailabilityForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	availability := make(map[uuid.UUID][]model.AvailabilityRecord, len(records))
	for _, record := range records {
		availability[record.EngineerID] = append(availability[record.EngineerID], record)
	}

	siteLat, siteLon := resolveSiteCoordinates(ctx, site, s.postcodes, s.catalog, s.log)
	sc := scoringContext{
		service:      svc,
		site:         site,
		siteLat:      siteLat,
		siteLon:      siteLon,
		date:         day,
		slot:         booking.Slot,
		availability: availability,
	}

	candidates := make([]model.CandidateEvaluation, 0, len(profiles))
	for _, profile := range profiles {
		eval, err := s.evaluate(ctx, profile, sc)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, eval)
	}

	// Descending score; ascending engineer id as the deterministic
	// tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].EngineerID.String() < candidates[j].EngineerID.String()
	})

	decision := &model.AllocationDecision{Candidates: candidates}
	if len(candidates) > 0 && !candidates[0].Rejected && candidates[0].Score > 0 {
		winner := candidates[0]
		decision.SelectedEngineerID = &winner.EngineerID
		decision.Score = winner.Score
		decision.Reasons = winner.Reasons
	}
	return decision, nil
}

// AutoAllocate runs selection and, on success, binds the winner and
// confirms the booking in one atomic write, appending the audit entry.
// On failure it returns the decision with per-candidate diagnostics
// alongside ErrNoEligibleCandidate.
func (s *AllocationService) AutoAllocate(ctx context.Context, bookingID uuid.UUID) (*model.AllocationDecision, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.EngineerID != nil {
		return nil, fmt.Errorf("%w: booking %s", ErrAlreadyAssigned, bookingID)
	}
	if booking.Status != model.BookingStatusPending {
		return nil, fmt.Errorf("%w: cannot auto-allocate booking in status %s", ErrInvalidTransition, booking.Status)
	}

	decision, err := s.decide(ctx, booking)
	if err != nil {
		return nil, err
	}
	if decision.SelectedEngineerID == nil {
		return decision, fmt.Errorf("%w: %d candidate(s) evaluated, none scored above zero", ErrNoEligibleCandidate, len(decision.Candidates))
	}

	score := decision.Score
	entry := model.AllocationLogEntry{
		BookingID:    booking.ID,
		Action:       model.AllocationActionAutoAssigned,
		ToEngineerID: *decision.SelectedEngineerID,
		Score:        &score,
		Reasons:      strings.Join(decision.Reasons, "; "),
	}
	if err := s.bookings.AssignEngineer(ctx, booking.ID, *decision.SelectedEngineerID, model.BookingStatusConfirmed, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("booking_id", booking.ID.String()).
		Str("engineer_id", decision.SelectedEngineerID.String()).
		Int("score", score).
		Msg("booking auto-allocated")
	return decision, nil
}

// Reallocate rebinds the booking to an explicit engineer without
// scoring, logging the previous assignee.
func (s *AllocationService) Reallocate(ctx context.Context, bookingID, newEngineerID uuid.UUID, reason string) error {
	return s.rebind(ctx, bookingID, newEngineerID, reason, model.AllocationActionReallocated)
}

// AdminOverride is a reallocation recorded under the ADMIN_OVERRIDE
// action so audits can tell operator routing from admin intervention.
func (s *AllocationService) AdminOverride(ctx context.Context, bookingID, newEngineerID uuid.UUID, reason string) error {
	return s.rebind(ctx, bookingID, newEngineerID, reason, model.AllocationActionAdminOverride)
}

func (s *AllocationService) rebind(ctx context.Context, bookingID, newEngineerID uuid.UUID, reason string, action model.AllocationAction) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a reason is required", ErrInvalidInput)
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != model.BookingStatusPending && booking.Status != model.BookingStatusConfirmed {
		return fmt.Errorf("%w: cannot reallocate booking in status %s", ErrInvalidTransition, booking.Status)
	}

	engineer, err := s.getApprovedEngineer(ctx, newEngineerID)
	if err != nil {
		return err
	}

	entry := model.AllocationLogEntry{
		BookingID:      booking.ID,
		Action:         action,
		FromEngineerID: booking.EngineerID,
		ToEngineerID:   engineer.ID,
		Reasons:        reason,
	}
	return s.bookings.AssignEngineer(ctx, booking.ID, engineer.ID, model.BookingStatusConfirmed, entry)
}

// ClaimJob is an engineer's atomic self-assignment. Exactly one of two
// concurrent claimers succeeds; the other observes ErrAlreadyAssigned.
func (s *AllocationService) ClaimJob(ctx context.Context, bookingID, engineerID uuid.UUID) error {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.EngineerID != nil {
		return fmt.Errorf("%w: booking %s", ErrAlreadyAssigned, bookingID)
	}
	if booking.Status != model.BookingStatusPending {
		return fmt.Errorf("%w: cannot claim booking in status %s", ErrInvalidTransition, booking.Status)
	}

	engineer, err := s.getApprovedEngineer(ctx, engineerID)
	if err != nil {
		return err
	}

	entry := model.AllocationLogEntry{
		BookingID:    booking.ID,
		Action:       model.AllocationActionAutoAssigned,
		ToEngineerID: engineer.ID,
		Reasons:      "engineer self-claim",
	}
	claimed, err := s.bookings.ClaimIfUnassigned(ctx, booking.ID, engineer.ID, entry)
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("%w: booking %s", ErrAlreadyAssigned, bookingID)
	}
	return nil
}

// OptimizedRoute groups the engineer's active bookings on one day by
// postcode area, ordered by area and then by slot. This is a grouping
// heuristic, not a distance-minimizing solver.
func (s *AllocationService) OptimizedRoute(ctx context.Context, engineerID uuid.UUID, date time.Time) ([]model.RouteStop, error) {
	if _, err := s.engineers.Get(ctx, engineerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: engineer %s", ErrNotFound, engineerID)
		}
		return nil, err
	}

	jobs, err := s.bookings.ListActiveForEngineerDate(ctx, engineerID, dateOnly(date))
	if err != nil {
		return nil, err
	}

	stops := make([]model.RouteStop, 0, len(jobs))
	for _, job := range jobs {
		stops = append(stops, model.RouteStop{
			BookingID: job.BookingID,
			SiteID:    job.SiteID,
			Postcode:  job.Postcode,
			Area:      geo.PostcodeArea(job.Postcode),
			Slot:      job.Slot,
		})
	}

	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].Area != stops[j].Area {
			return stops[i].Area < stops[j].Area
		}
		if stops[i].Slot != stops[j].Slot {
			return slotOrder(stops[i].Slot) < slotOrder(stops[j].Slot)
		}
		return stops[i].BookingID.String() < stops[j].BookingID.String()
	})
	return stops, nil
}

func slotOrder(slot model.Slot) int {
	switch slot {
	case model.SlotMorning:
		return 0
	case model.SlotAfternoon:
		return 1
	default:
		return 2
	}
}

func (s *AllocationService) getBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
		}
		return nil, err
	}
	return booking, nil
}

func (s *AllocationService) getApprovedEngineer(ctx context.Context, id uuid.UUID) (*model.EngineerProfile, error) {
	engineer, err := s.engineers.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: engineer %s", ErrNotFound, id)
		}
		return nil, err
	}
	if engineer.Status != model.EngineerStatusApproved {
		return nil, fmt.Errorf("%w: engineer %s is not approved", ErrInvalidInput, id)
	}
	return engineer, nil
}

// History returns the append-only allocation trail for one booking.
func (s *AllocationService) History(ctx context.Context, bookingID uuid.UUID) ([]model.AllocationLogEntry, error) {
	if _, err := s.getBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.allocations.ListForBooking(ctx, bookingID)
}
