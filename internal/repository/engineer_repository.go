package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/model"
)

type EngineerRepository struct {
	db *gorm.DB
}

func NewEngineerRepository(db *gorm.DB) *EngineerRepository {
	return &EngineerRepository{db: db}
}

func (r *EngineerRepository) Get(ctx context.Context, id uuid.UUID) (*model.EngineerProfile, error) {
	var profile model.EngineerProfile
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, name, status
		FROM engineer_profiles
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &profile, nil
}

// ListApproved returns every APPROVED profile with its competencies,
// coverage areas and qualifications attached, ordered by id so the
// allocator's evaluation order is stable.
func (r *EngineerRepository) ListApproved(ctx context.Context) ([]model.EngineerProfile, error) {
	var profiles []model.EngineerProfile
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, user_id, name, status
		FROM engineer_profiles
		WHERE status = ?
		ORDER BY id ASC
	`, model.EngineerStatusApproved).Scan(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return profiles, nil
	}

	index := make(map[uuid.UUID]int, len(profiles))
	for i, p := range profiles {
		index[p.ID] = i
	}

	var competencies []model.Competency
	if err := r.db.WithContext(ctx).Raw(`
		SELECT c.id, c.engineer_id, c.service_id, c.years_experience, c.certified
		FROM engineer_competencies c
		JOIN engineer_profiles p ON p.id = c.engineer_id
		WHERE p.status = ?
	`, model.EngineerStatusApproved).Scan(&competencies).Error; err != nil {
		return nil, err
	}
	for _, c := range competencies {
		if i, ok := index[c.EngineerID]; ok {
			profiles[i].Competencies = append(profiles[i].Competencies, c)
		}
	}

	var areas []model.CoverageArea
	if err := r.db.WithContext(ctx).Raw(`
		SELECT a.id, a.engineer_id, a.area_prefix, a.radius_km, a.latitude, a.longitude
		FROM engineer_coverage_areas a
		JOIN engineer_profiles p ON p.id = a.engineer_id
		WHERE p.status = ?
	`, model.EngineerStatusApproved).Scan(&areas).Error; err != nil {
		return nil, err
	}
	for _, a := range areas {
		if i, ok := index[a.EngineerID]; ok {
			profiles[i].CoverageAreas = append(profiles[i].CoverageAreas, a)
		}
	}

	var qualifications []model.Qualification
	if err := r.db.WithContext(ctx).Raw(`
		SELECT q.id, q.engineer_id, q.name, q.issuing_body, q.expiry_date
		FROM engineer_qualifications q
		JOIN engineer_profiles p ON p.id = q.engineer_id
		WHERE p.status = ?
	`, model.EngineerStatusApproved).Scan(&qualifications).Error; err != nil {
		return nil, err
	}
	for _, q := range qualifications {
		if i, ok := index[q.EngineerID]; ok {
			profiles[i].Qualifications = append(profiles[i].Qualifications, q)
		}
	}

	return profiles, nil
}

// ListAvailabilityForDate returns every explicit availability record
// on one calendar day across all engineers.
func (r *EngineerRepository) ListAvailabilityForDate(ctx context.Context, date time.Time) ([]model.AvailabilityRecord, error) {
	var records []model.AvailabilityRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, engineer_id, date, slot, available
		FROM engineer_availability
		WHERE date = ?
	`, date).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
