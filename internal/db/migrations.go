package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'booking_status') THEN
			CREATE TYPE booking_status AS ENUM ('PENDING', 'CONFIRMED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'booking_slot') THEN
			CREATE TYPE booking_slot AS ENUM ('MORNING', 'AFTERNOON', 'FULL_DAY');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'engineer_status') THEN
			CREATE TYPE engineer_status AS ENUM ('PENDING_APPROVAL', 'APPROVED', 'SUSPENDED', 'REJECTED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'allocation_action') THEN
			CREATE TYPE allocation_action AS ENUM ('AUTO_ASSIGNED', 'REALLOCATED', 'ADMIN_OVERRIDE');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS sites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		customer_id UUID NOT NULL REFERENCES customers(id),
		name VARCHAR(255) NOT NULL,
		postcode VARCHAR(16) NOT NULL,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS services (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		unit VARCHAR(64) NOT NULL,
		base_price NUMERIC(18,2) NOT NULL,
		min_charge NUMERIC(18,2) NOT NULL,
		base_minutes INT NOT NULL DEFAULT 0,
		minutes_per_unit INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS engineer_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		status engineer_status NOT NULL DEFAULT 'PENDING_APPROVAL',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS engineer_competencies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		engineer_id UUID NOT NULL REFERENCES engineer_profiles(id) ON DELETE CASCADE,
		service_id UUID NOT NULL REFERENCES services(id),
		years_experience INT NOT NULL DEFAULT 0,
		certified BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (engineer_id, service_id)
	);`,
	`CREATE TABLE IF NOT EXISTS engineer_coverage_areas (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		engineer_id UUID NOT NULL REFERENCES engineer_profiles(id) ON DELETE CASCADE,
		area_prefix VARCHAR(4) NOT NULL,
		radius_km DOUBLE PRECISION NOT NULL DEFAULT 25,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION
	);`,
	`CREATE TABLE IF NOT EXISTS engineer_qualifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		engineer_id UUID NOT NULL REFERENCES engineer_profiles(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		issuing_body VARCHAR(255) NOT NULL DEFAULT '',
		expiry_date DATE
	);`,
	`CREATE TABLE IF NOT EXISTS engineer_availability (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		engineer_id UUID NOT NULL REFERENCES engineer_profiles(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		slot booking_slot NOT NULL,
		available BOOLEAN NOT NULL,
		UNIQUE (engineer_id, date, slot)
	);`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		customer_id UUID NOT NULL REFERENCES customers(id),
		site_id UUID NOT NULL REFERENCES sites(id),
		service_id UUID NOT NULL REFERENCES services(id),
		engineer_id UUID REFERENCES engineer_profiles(id),
		status booking_status NOT NULL DEFAULT 'PENDING',
		scheduled_date DATE NOT NULL,
		slot booking_slot NOT NULL DEFAULT 'FULL_DAY',
		quantity INT NOT NULL,
		original_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
		quoted_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_scheduled_date ON bookings (scheduled_date);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_site_id ON bookings (site_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_engineer_id ON bookings (engineer_id) WHERE engineer_id IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status);`,
	`CREATE TABLE IF NOT EXISTS allocation_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		booking_id UUID NOT NULL REFERENCES bookings(id),
		action allocation_action NOT NULL,
		from_engineer_id UUID REFERENCES engineer_profiles(id),
		to_engineer_id UUID NOT NULL REFERENCES engineer_profiles(id),
		score INT,
		reasons TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_log_booking_id ON allocation_log (booking_id);`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_log_created_at ON allocation_log (created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
