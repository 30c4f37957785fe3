package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldserve/dispatch/internal/model"
	"github.com/fieldserve/dispatch/internal/postcode"
)

// The engine consumes the persistent store through these narrow
// interfaces, implemented by the gorm repositories.

type BookingStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListActiveWithSites(ctx context.Context, from, to time.Time) ([]model.NearbyBooking, error)
	ListActiveForEngineerDate(ctx context.Context, engineerID uuid.UUID, date time.Time) ([]model.NearbyBooking, error)
	AssignEngineer(ctx context.Context, bookingID, engineerID uuid.UUID, status model.BookingStatus, entry model.AllocationLogEntry) error
	ClaimIfUnassigned(ctx context.Context, bookingID, engineerID uuid.UUID, entry model.AllocationLogEntry) (bool, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status model.BookingStatus, startedAt, completedAt *time.Time) error
}

type EngineerStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.EngineerProfile, error)
	ListApproved(ctx context.Context) ([]model.EngineerProfile, error)
	ListAvailabilityForDate(ctx context.Context, date time.Time) ([]model.AvailabilityRecord, error)
}

type CatalogStore interface {
	GetSite(ctx context.Context, id uuid.UUID) (*model.Site, error)
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	SaveSiteCoordinates(ctx context.Context, siteID uuid.UUID, latitude, longitude float64) error
}

type AllocationLogStore interface {
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]model.AllocationLogEntry, error)
	ListForPeriod(ctx context.Context, from, to time.Time) ([]model.AllocationAuditRow, error)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// resolveSiteCoordinates returns stored coordinates, or resolves them
// through the postcode lookup and persists the answer best-effort. A
// failed lookup leaves callers on prefix-string matching.
func resolveSiteCoordinates(
	ctx context.Context,
	site *model.Site,
	lookup postcode.Lookup,
	catalog CatalogStore,
	log zerolog.Logger,
) (*float64, *float64) {
	if site.Latitude != nil && site.Longitude != nil {
		return site.Latitude, site.Longitude
	}

	result := lookup.Lookup(ctx, site.Postcode)
	if !result.Found {
		return nil, nil
	}

	if err := catalog.SaveSiteCoordinates(ctx, site.ID, result.Latitude, result.Longitude); err != nil {
		log.Warn().Err(err).Str("site_id", site.ID.String()).Msg("failed to persist resolved site coordinates")
	}
	return &result.Latitude, &result.Longitude
}

// bookingCoordinates returns the stored site coordinates of a nearby
// booking, falling back to the cached postcode lookup.
func bookingCoordinates(ctx context.Context, b model.NearbyBooking, lookup postcode.Lookup) (*float64, *float64) {
	if b.Latitude != nil && b.Longitude != nil {
		return b.Latitude, b.Longitude
	}
	result := lookup.Lookup(ctx, b.Postcode)
	if !result.Found {
		return nil, nil
	}
	return &result.Latitude, &result.Longitude
}
