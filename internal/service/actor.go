package service

import "github.com/google/uuid"

// Actor identifies the staff member performing an operation, extracted from the
// JWT by the auth middleware.
type Actor struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          string
	Role           string
}
