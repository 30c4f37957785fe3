package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/config"
	"github.com/fieldserve/dispatch/internal/geo"
	"github.com/fieldserve/dispatch/internal/model"
	"github.com/fieldserve/dispatch/internal/postcode"
)

// maxQuoteRangeDays bounds the batch path; a year covers any calendar
// display the UI asks for.
const maxQuoteRangeDays = 366

type PricingService struct {
	bookings  BookingStore
	catalog   CatalogStore
	postcodes postcode.Lookup
	cfg       *config.Config
	log       zerolog.Logger
}

func NewPricingService(
	bookings BookingStore,
	catalog CatalogStore,
	postcodes postcode.Lookup,
	cfg *config.Config,
	log zerolog.Logger,
) *PricingService {
	return &PricingService{
		bookings:  bookings,
		catalog:   catalog,
		postcodes: postcodes,
		cfg:       cfg,
		log:       log,
	}
}

type Quote struct {
	Date            time.Time `json:"date"`
	OriginalPrice   float64   `json:"original_price"`
	DiscountPercent float64   `json:"discount_percent"`
	DiscountedPrice float64   `json:"discounted_price"`
	Reason          string    `json:"reason,omitempty"`
}

// Quote computes the price for one service visit on one day. A missing
// site or service yields a nil quote rather than an error: pricing is
// advisory until a booking exists.
func (s *PricingService) Quote(ctx context.Context, serviceID, siteID uuid.UUID, date time.Time, quantity int) (*Quote, error) {
	svc, site, err := s.loadCatalog(ctx, serviceID, siteID, quantity)
	if err != nil || svc == nil {
		return nil, err
	}

	day := dateOnly(date)
	nearby, err := s.bookings.ListActiveWithSites(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	siteLat, siteLon := resolveSiteCoordinates(ctx, site, s.postcodes, s.catalog, s.log)
	quote := s.quoteDay(ctx, svc, site, siteLat, siteLon, day, quantity, groupByDate(nearby))
	return &quote, nil
}

// QuoteRange computes a quote for every day in [start, end] from a
// single prefetch of the surrounding bookings. Per-day results are
// identical to calling Quote once per day.
func (s *PricingService) QuoteRange(ctx context.Context, serviceID, siteID uuid.UUID, start, end time.Time, quantity int) ([]Quote, error) {
	startDay := dateOnly(start)
	endDay := dateOnly(end)
	if startDay.After(endDay) {
		return nil, fmt.Errorf("%w: start date must be before or equal to end date", ErrInvalidInput)
	}
	if endDay.Sub(startDay) > maxQuoteRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: date range exceeds %d days", ErrInvalidInput, maxQuoteRangeDays)
	}

	svc, site, err := s.loadCatalog(ctx, serviceID, siteID, quantity)
	if err != nil || svc == nil {
		return nil, err
	}

	nearby, err := s.bookings.ListActiveWithSites(ctx, startDay.AddDate(0, 0, -1), endDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	byDate := groupByDate(nearby)

	siteLat, siteLon := resolveSiteCoordinates(ctx, site, s.postcodes, s.catalog, s.log)

	var quotes []Quote
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		quotes = append(quotes, s.quoteDay(ctx, svc, site, siteLat, siteLon, day, quantity, byDate))
	}
	return quotes, nil
}

func (s *PricingService) loadCatalog(ctx context.Context, serviceID, siteID uuid.UUID, quantity int) (*model.Service, *model.Site, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	site, err := s.catalog.GetSite(ctx, siteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return svc, site, nil
}

func (s *PricingService) quoteDay(
	ctx context.Context,
	svc *model.Service,
	site *model.Site,
	siteLat, siteLon *float64,
	day time.Time,
	quantity int,
	byDate map[string][]model.NearbyBooking,
) Quote {
	base := svc.BasePrice * float64(quantity)
	if base < svc.MinCharge {
		base = svc.MinCharge
	}

	discount, reason := s.resolveDiscount(ctx, site, siteLat, siteLon, day, byDate)

	return Quote{
		Date:            day,
		OriginalPrice:   base,
		DiscountPercent: discount,
		DiscountedPrice: base * (1 - discount/100),
		Reason:          reason,
	}
}

// resolveDiscount walks the tiers most-generous-first; the first match
// wins.
func (s *PricingService) resolveDiscount(
	ctx context.Context,
	site *model.Site,
	siteLat, siteLon *float64,
	day time.Time,
	byDate map[string][]model.NearbyBooking,
) (float64, string) {
	sameDay := byDate[dateKey(day)]

	for _, other := range sameDay {
		if other.SiteID == site.ID {
			return s.cfg.Pricing.SameSiteDiscount,
				fmt.Sprintf("another visit is already booked at this site on %s", dateKey(day))
		}
	}

	for _, other := range sameDay {
		if other.SiteID == site.ID {
			continue
		}
		if s.isNearby(ctx, site, siteLat, siteLon, other) {
			return s.cfg.Pricing.AreaDiscount,
				fmt.Sprintf("an engineer is already scheduled near %s on %s", site.Postcode, dateKey(day))
		}
	}

	before := byDate[dateKey(day.AddDate(0, 0, -1))]
	after := byDate[dateKey(day.AddDate(0, 0, 1))]
	adjacent := make([]model.NearbyBooking, 0, len(before)+len(after))
	adjacent = append(adjacent, before...)
	adjacent = append(adjacent, after...)
	for _, other := range adjacent {
		if other.SiteID == site.ID || s.isNearby(ctx, site, siteLat, siteLon, other) {
			return s.cfg.Pricing.AdjacentDayDiscount,
				fmt.Sprintf("work is scheduled near %s the day before or after", site.Postcode)
		}
	}

	return 0, ""
}

// isNearby matches on shared postcode area, or on drive time when both
// sides have resolvable coordinates.
func (s *PricingService) isNearby(ctx context.Context, site *model.Site, siteLat, siteLon *float64, other model.NearbyBooking) bool {
	area := geo.PostcodeArea(site.Postcode)
	if area != "" && area == geo.PostcodeArea(other.Postcode) {
		return true
	}

	if siteLat == nil || siteLon == nil {
		return false
	}
	otherLat, otherLon := bookingCoordinates(ctx, other, s.postcodes)
	if otherLat == nil || otherLon == nil {
		return false
	}

	distance := geo.DistanceKm(*siteLat, *siteLon, *otherLat, *otherLon)
	return geo.EstimatedDriveMinutes(distance) <= s.cfg.Pricing.ProximityDriveMinutes
}

func groupByDate(bookings []model.NearbyBooking) map[string][]model.NearbyBooking {
	byDate := make(map[string][]model.NearbyBooking, len(bookings))
	for _, b := range bookings {
		key := dateKey(dateOnly(b.ScheduledDate))
		byDate[key] = append(byDate[key], b)
	}
	return byDate
}
