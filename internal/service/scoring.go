package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldserve/dispatch/internal/geo"
	"github.com/fieldserve/dispatch/internal/model"
)

// Score weights. The relative order matters more than the exact
// values: competency dominates, clustering rewards route efficiency,
// experience is a nudge.
const (
	competencyPoints    = 30
	qualificationPoints = 10

	geoVeryClosePoints = 25
	geoClosePoints     = 20
	geoModeratePoints  = 15
	geoInRangePoints   = 10
	geoPrefixPoints    = 10

	availabilityPoints = 10

	clusterNearbyPoints   = 25
	clusterLightDayPoints = 10
	clusterFreeDayPoints  = 5

	experiencePoints = 5
)

const (
	geoVeryCloseKm = 5.0
	geoCloseKm     = 10.0
	geoModerateKm  = 25.0
)

// serviceQualificationKeywords associates a service-name token with
// the qualification names that satisfy it. A service matching no entry
// accepts any in-date qualification. Ordered so matching is
// deterministic.
var serviceQualificationKeywords = []struct {
	serviceToken string
	keywords     []string
}{
	{"pat", []string{"pat", "portable appliance"}},
	{"eicr", []string{"eicr", "electrical", "wiring"}},
	{"electrical", []string{"eicr", "electrical", "wiring"}},
	{"gas", []string{"gas"}},
	{"fire", []string{"fire"}},
	{"legionella", []string{"legionella", "water"}},
	{"water", []string{"legionella", "water"}},
	{"epc", []string{"epc", "energy"}},
	{"energy", []string{"epc", "energy"}},
}

// relevantQualifications filters an engineer's qualifications down to
// those associated with the service by name. Services with no keyword
// mapping accept any qualification.
func relevantQualifications(serviceName string, qualifications []model.Qualification) []model.Qualification {
	name := strings.ToLower(serviceName)
	var keywords []string
	for _, entry := range serviceQualificationKeywords {
		if strings.Contains(name, entry.serviceToken) {
			keywords = entry.keywords
			break
		}
	}
	if keywords == nil {
		return qualifications
	}

	var relevant []model.Qualification
	for _, q := range qualifications {
		qualName := strings.ToLower(q.Name)
		for _, keyword := range keywords {
			if strings.Contains(qualName, keyword) {
				relevant = append(relevant, q)
				break
			}
		}
	}
	return relevant
}

// scoringContext is the shared per-booking input for evaluating every
// candidate.
type scoringContext struct {
	service      *model.Service
	site         *model.Site
	siteLat      *float64
	siteLon      *float64
	date         time.Time
	slot         model.Slot
	availability map[uuid.UUID][]model.AvailabilityRecord
}

// evaluate scores one engineer. Hard filters reject with score zero
// and skip the remaining checks.
func (s *AllocationService) evaluate(ctx context.Context, engineer model.EngineerProfile, sc scoringContext) (model.CandidateEvaluation, error) {
	eval := model.CandidateEvaluation{
		EngineerID:   engineer.ID,
		EngineerName: engineer.Name,
	}

	var competency *model.Competency
	for i := range engineer.Competencies {
		if engineer.Competencies[i].ServiceID == sc.service.ID {
			competency = &engineer.Competencies[i]
			break
		}
	}
	if competency == nil {
		eval.Rejected = true
		eval.RejectionReason = fmt.Sprintf("no competency for service %q", sc.service.Name)
		return eval, nil
	}

	relevant := relevantQualifications(sc.service.Name, engineer.Qualifications)
	if len(relevant) == 0 {
		eval.Rejected = true
		eval.RejectionReason = fmt.Sprintf("no relevant qualification for service %q", sc.service.Name)
		return eval, nil
	}
	valid := false
	for _, q := range relevant {
		if q.ValidOn(sc.date) {
			valid = true
			break
		}
	}
	if !valid {
		eval.Rejected = true
		eval.RejectionReason = "qualification expired before job date"
		return eval, nil
	}

	availabilityConfirmed := false
	for _, record := range sc.availability[engineer.ID] {
		if !record.Covers(sc.slot) {
			continue
		}
		if !record.Available {
			eval.Rejected = true
			eval.RejectionReason = fmt.Sprintf("not available for %s slot on %s", sc.slot, dateKey(sc.date))
			return eval, nil
		}
		availabilityConfirmed = true
	}

	eval.Score += competencyPoints
	eval.Reasons = append(eval.Reasons, fmt.Sprintf("competent in %q", sc.service.Name))

	eval.Score += qualificationPoints
	eval.Reasons = append(eval.Reasons, "holds a valid qualification")

	if points, reason := s.geographicFit(engineer, sc); points > 0 {
		eval.Score += points
		eval.Reasons = append(eval.Reasons, reason)
	}

	if availabilityConfirmed {
		eval.Score += availabilityPoints
		eval.Reasons = append(eval.Reasons, "availability confirmed for the slot")
	}

	points, reason, err := s.clusteringBonus(ctx, engineer.ID, sc)
	if err != nil {
		return eval, err
	}
	if points > 0 {
		eval.Score += points
		eval.Reasons = append(eval.Reasons, reason)
	}

	if competency.YearsExperience >= s.cfg.Allocation.ExperienceYears {
		eval.Score += experiencePoints
		eval.Reasons = append(eval.Reasons, fmt.Sprintf("%d years' experience", competency.YearsExperience))
	}

	return eval, nil
}

// geographicFit tiers the bonus by distance from the nearest coverage
// area center when coordinates are known, falling back to a flat bonus
// for a bare postcode-prefix match.
func (s *AllocationService) geographicFit(engineer model.EngineerProfile, sc scoringContext) (int, string) {
	siteArea := geo.PostcodeArea(sc.site.Postcode)

	prefixMatch := false
	bestDistance := -1.0
	inRange := false

	for _, area := range engineer.CoverageAreas {
		if siteArea != "" && strings.EqualFold(area.AreaPrefix, siteArea) {
			prefixMatch = true
		}
		if sc.siteLat == nil || sc.siteLon == nil || area.Latitude == nil || area.Longitude == nil {
			continue
		}
		d := geo.DistanceKm(*area.Latitude, *area.Longitude, *sc.siteLat, *sc.siteLon)
		if bestDistance < 0 || d < bestDistance {
			bestDistance = d
		}
		if d <= area.RadiusKm {
			inRange = true
		}
	}

	if bestDistance >= 0 {
		switch {
		case bestDistance <= geoVeryCloseKm:
			return geoVeryClosePoints, fmt.Sprintf("very close to site (%.1f km)", bestDistance)
		case bestDistance <= geoCloseKm:
			return geoClosePoints, fmt.Sprintf("close to site (%.1f km)", bestDistance)
		case bestDistance <= geoModerateKm:
			return geoModeratePoints, fmt.Sprintf("moderate distance to site (%.1f km)", bestDistance)
		case inRange:
			return geoInRangePoints, fmt.Sprintf("site within travel radius (%.1f km)", bestDistance)
		}
	}
	if prefixMatch {
		return geoPrefixPoints, fmt.Sprintf("covers postcode area %s", siteArea)
	}
	return 0, ""
}

// clusteringBonus rewards route efficiency: a big bonus for an
// existing job nearby on the same day, a smaller one for a lightly
// loaded day, a nudge for an empty one.
func (s *AllocationService) clusteringBonus(ctx context.Context, engineerID uuid.UUID, sc scoringContext) (int, string, error) {
	dayJobs, err := s.bookings.ListActiveForEngineerDate(ctx, engineerID, sc.date)
	if err != nil {
		return 0, "", err
	}

	siteArea := geo.PostcodeArea(sc.site.Postcode)
	for _, job := range dayJobs {
		if siteArea != "" && siteArea == geo.PostcodeArea(job.Postcode) {
			return clusterNearbyPoints, "existing job in the same postcode area that day", nil
		}
		if sc.siteLat == nil || sc.siteLon == nil {
			continue
		}
		jobLat, jobLon := bookingCoordinates(ctx, job, s.postcodes)
		if jobLat == nil || jobLon == nil {
			continue
		}
		if geo.DistanceKm(*sc.siteLat, *sc.siteLon, *jobLat, *jobLon) <= s.cfg.Allocation.NearbyKm {
			return clusterNearbyPoints, "existing job nearby that day", nil
		}
	}

	switch {
	case len(dayJobs) == 0:
		return clusterFreeDayPoints, "no other jobs that day", nil
	case len(dayJobs) <= s.cfg.Allocation.MaxDayJobs:
		return clusterLightDayPoints, fmt.Sprintf("%d other job(s) that day", len(dayJobs)), nil
	}
	return 0, "", nil
}
