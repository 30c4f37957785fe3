package model

import "github.com/google/uuid"

// Site is a physical location owned by one customer. Coordinates are
// resolved lazily from the postcode and may be absent.
type Site struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Name       string
	Postcode   string
	Latitude   *float64
	Longitude  *float64
}

// Service is a catalog entry. Read-only to the engine.
type Service struct {
	ID             uuid.UUID
	Name           string
	Unit           string
	BasePrice      float64
	MinCharge      float64
	BaseMinutes    int
	MinutesPerUnit int
}
