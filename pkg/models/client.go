package models

import "time"

// ClientState 客户生命周期状态
type ClientState string

const (
	ClientLead    ClientState = "lead"
	ClientActive  ClientState = "active"
	ClientPaused  ClientState = "paused"
	ClientChurned ClientState = "churned"
)

// ValidClientState 检查客户状态是否合法
func ValidClientState(s ClientState) bool {
	switch s {
	case ClientLead, ClientActive, ClientPaused, ClientChurned:
		return true
	}
	return false
}

// Client represents an agency client. It belongs to exactly one rep
// (UserID, stored as the rep's email) within one organization. Soft
// deletion happens through the Archived flag; hard delete is owner-only.
type Client struct {
	ID             string      `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	Email          string      `json:"email" db:"email"`
	ClientState    ClientState `json:"clientState" db:"client_state"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UserID         string      `json:"userId" db:"user_id"`
	OrganizationID string      `json:"organizationId" db:"organization_id"`
	Archived       bool        `json:"archived" db:"archived"`
	// Demo records stay visible to every role so seeded onboarding data
	// shows up for new staff.
	Demo bool `json:"demo,omitempty" db:"demo"`
}

// ClientCreateRequest represents the request payload for client creation
type ClientCreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ClientUpdateRequest represents the request payload for client updates.
// Empty fields are left untouched.
type ClientUpdateRequest struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	ClientState ClientState `json:"clientState"`
	UserID      string      `json:"userId"`
}
