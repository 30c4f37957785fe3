package model

import "github.com/google/uuid"

// Principal is the authenticated caller extracted from the gateway's
// access token.
type Principal struct {
	UserID     uuid.UUID
	Role       string
	EngineerID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

func (p Principal) IsOps() bool {
	return p.Role == "OPS"
}

func (p Principal) IsEngineer() bool {
	return p.Role == "ENGINEER"
}

func (p Principal) IsCustomer() bool {
	return p.Role == "CUSTOMER"
}
