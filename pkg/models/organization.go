package models

import "time"

// Organization is the tenant boundary. It is derived from user records
// rather than persisted as its own collection: every entity carries an
// OrganizationID and all reads are scoped to it.
type Organization struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
