package models

import "time"

// Note is a free-form organization-scoped note. No state machine.
type Note struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Body           string    `json:"body" db:"body"`
	UserID         string    `json:"userId" db:"user_id"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// NoteCreateRequest represents the request payload for note creation
type NoteCreateRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
