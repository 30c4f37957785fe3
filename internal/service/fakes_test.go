package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/config"
	"github.com/fieldserve/dispatch/internal/model"
	"github.com/fieldserve/dispatch/internal/postcode"
)

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{
			SameSiteDiscount:      50,
			AreaDiscount:          25,
			AdjacentDayDiscount:   10,
			ProximityDriveMinutes: 20,
		},
		Allocation: config.AllocationConfig{
			NearbyKm:        10,
			MaxDayJobs:      3,
			ExperienceYears: 5,
		},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type statusUpdate struct {
	bookingID   uuid.UUID
	status      model.BookingStatus
	startedAt   *time.Time
	completedAt *time.Time
}

type fakeBookingStore struct {
	bookings     map[uuid.UUID]*model.Booking
	nearby       []model.NearbyBooking
	engineerJobs map[uuid.UUID][]model.NearbyBooking
	logged       []model.AllocationLogEntry
	updates      []statusUpdate
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings:     make(map[uuid.UUID]*model.Booking),
		engineerJobs: make(map[uuid.UUID][]model.NearbyBooking),
	}
}

func (f *fakeBookingStore) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) ListActiveWithSites(ctx context.Context, from, to time.Time) ([]model.NearbyBooking, error) {
	var rows []model.NearbyBooking
	for _, b := range f.nearby {
		if b.ScheduledDate.Before(from) || b.ScheduledDate.After(to) {
			continue
		}
		rows = append(rows, b)
	}
	return rows, nil
}

func (f *fakeBookingStore) ListActiveForEngineerDate(ctx context.Context, engineerID uuid.UUID, date time.Time) ([]model.NearbyBooking, error) {
	var rows []model.NearbyBooking
	for _, b := range f.engineerJobs[engineerID] {
		if b.ScheduledDate.Equal(date) {
			rows = append(rows, b)
		}
	}
	return rows, nil
}

func (f *fakeBookingStore) AssignEngineer(ctx context.Context, bookingID, engineerID uuid.UUID, status model.BookingStatus, entry model.AllocationLogEntry) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	booking.EngineerID = &engineerID
	booking.Status = status
	f.logged = append(f.logged, entry)
	return nil
}

func (f *fakeBookingStore) ClaimIfUnassigned(ctx context.Context, bookingID, engineerID uuid.UUID, entry model.AllocationLogEntry) (bool, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if booking.EngineerID != nil {
		return false, nil
	}
	booking.EngineerID = &engineerID
	booking.Status = model.BookingStatusConfirmed
	f.logged = append(f.logged, entry)
	return true, nil
}

func (f *fakeBookingStore) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status model.BookingStatus, startedAt, completedAt *time.Time) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	booking.Status = status
	if booking.StartedAt == nil {
		booking.StartedAt = startedAt
	}
	if booking.CompletedAt == nil {
		booking.CompletedAt = completedAt
	}
	f.updates = append(f.updates, statusUpdate{bookingID: bookingID, status: status, startedAt: startedAt, completedAt: completedAt})
	return nil
}

type fakeEngineerStore struct {
	profiles     []model.EngineerProfile
	availability []model.AvailabilityRecord
}

func (f *fakeEngineerStore) Get(ctx context.Context, id uuid.UUID) (*model.EngineerProfile, error) {
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			copied := f.profiles[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEngineerStore) ListApproved(ctx context.Context) ([]model.EngineerProfile, error) {
	var approved []model.EngineerProfile
	for _, p := range f.profiles {
		if p.Status == model.EngineerStatusApproved {
			approved = append(approved, p)
		}
	}
	return approved, nil
}

func (f *fakeEngineerStore) ListAvailabilityForDate(ctx context.Context, date time.Time) ([]model.AvailabilityRecord, error) {
	var records []model.AvailabilityRecord
	for _, r := range f.availability {
		if r.Date.Equal(date) {
			records = append(records, r)
		}
	}
	return records, nil
}

type fakeCatalogStore struct {
	sites    map[uuid.UUID]*model.Site
	services map[uuid.UUID]*model.Service
	saved    []uuid.UUID
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		sites:    make(map[uuid.UUID]*model.Site),
		services: make(map[uuid.UUID]*model.Service),
	}
}

func (f *fakeCatalogStore) GetSite(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	site, ok := f.sites[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *site
	return &copied, nil
}

func (f *fakeCatalogStore) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *svc
	return &copied, nil
}

func (f *fakeCatalogStore) SaveSiteCoordinates(ctx context.Context, siteID uuid.UUID, latitude, longitude float64) error {
	if site, ok := f.sites[siteID]; ok {
		site.Latitude = &latitude
		site.Longitude = &longitude
	}
	f.saved = append(f.saved, siteID)
	return nil
}

type fakeLogStore struct {
	entries []model.AllocationLogEntry
	rows    []model.AllocationAuditRow
}

func (f *fakeLogStore) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]model.AllocationLogEntry, error) {
	var entries []model.AllocationLogEntry
	for _, e := range f.entries {
		if e.BookingID == bookingID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (f *fakeLogStore) ListForPeriod(ctx context.Context, from, to time.Time) ([]model.AllocationAuditRow, error) {
	return f.rows, nil
}

// fakeLookup resolves postcodes from a fixed map, keyed without
// spacing.
type fakeLookup struct {
	coords map[string][2]float64
}

func (f *fakeLookup) Lookup(ctx context.Context, pc string) postcode.Result {
	key := strings.ToUpper(strings.Join(strings.Fields(pc), ""))
	if coords, ok := f.coords[key]; ok {
		return postcode.Result{Found: true, Latitude: coords[0], Longitude: coords[1]}
	}
	return postcode.Result{}
}
