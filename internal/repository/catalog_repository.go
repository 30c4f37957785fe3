package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldserve/dispatch/internal/model"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetSite(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var site model.Site
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, customer_id, name, postcode, latitude, longitude
		FROM sites
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&site).Error
	if err != nil {
		return nil, err
	}
	if site.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &site, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var service model.Service
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, unit, base_price, min_charge, base_minutes, minutes_per_unit
		FROM services
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&service).Error
	if err != nil {
		return nil, err
	}
	if service.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &service, nil
}

// SaveSiteCoordinates persists lazily resolved coordinates so later
// quotes skip the upstream lookup.
func (r *CatalogRepository) SaveSiteCoordinates(ctx context.Context, siteID uuid.UUID, latitude, longitude float64) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE sites
		SET latitude = ?, longitude = ?
		WHERE id = ?
	`, latitude, longitude, siteID).Error
}
