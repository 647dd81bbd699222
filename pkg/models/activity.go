package models

import (
	"errors"
	"strings"
	"time"
)

// ActivityStatus 活动状态
type ActivityStatus string

const (
	ActivityScheduled ActivityStatus = "scheduled"
	ActivityCompleted ActivityStatus = "completed"
	ActivityMissed    ActivityStatus = "missed"
	ActivityCancelled ActivityStatus = "cancelled"
)

// ValidActivityStatus 检查活动状态是否合法
func ValidActivityStatus(s ActivityStatus) bool {
	switch s {
	case ActivityScheduled, ActivityCompleted, ActivityMissed, ActivityCancelled:
		return true
	}
	return false
}

// Canonical activity types. Anything else is treated as a bounded
// custom type, resolved through ResolveActivityType.
const (
	ActivityCall     = "call"
	ActivityMeeting  = "meeting"
	ActivityProposal = "proposal"
	ActivityTask     = "task"
)

// MaxCustomTypeLen bounds user-supplied custom activity types.
const MaxCustomTypeLen = 50

var (
	ErrMissingCustomType = errors.New(`Missing customType for "other" type`)
	ErrCustomTypeTooLong = errors.New("customType too long")
	ErrInvalidType       = errors.New("Invalid type")
)

// IsCanonicalActivityType 检查是否为预定义活动类型
func IsCanonicalActivityType(t string) bool {
	switch t {
	case ActivityCall, ActivityMeeting, ActivityProposal, ActivityTask:
		return true
	}
	return false
}

// ResolveActivityType validates the (type, customType) pair from a
// create/update payload and returns the final stored type string.
// Accepted forms: a canonical type; "other" with a non-empty bounded
// customType; or any other non-empty trimmed string as a custom type.
func ResolveActivityType(typ, customType string) (string, error) {
	if typ == "other" {
		custom := strings.TrimSpace(customType)
		if custom == "" {
			return "", ErrMissingCustomType
		}
		if len(custom) > MaxCustomTypeLen {
			return "", ErrCustomTypeTooLong
		}
		return custom, nil
	}
	if IsCanonicalActivityType(typ) {
		return typ, nil
	}
	custom := strings.TrimSpace(typ)
	if custom == "" {
		return "", ErrInvalidType
	}
	if len(custom) > MaxCustomTypeLen {
		return "", ErrCustomTypeTooLong
	}
	return custom, nil
}

// Activity represents a logged interaction with a client. Date is the
// event timestamp and is distinct from CreatedAt; the state machine in
// the store flips overdue scheduled activities to completed.
type Activity struct {
	ID             string         `json:"id" db:"id"`
	Type           string         `json:"type" db:"type"`
	Description    string         `json:"description" db:"description"`
	Date           time.Time      `json:"date" db:"date"`
	ClientID       string         `json:"clientId" db:"client_id"`
	UserID         string         `json:"userId" db:"user_id"`
	OrganizationID string         `json:"organizationId" db:"organization_id"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	ActivityStatus ActivityStatus `json:"activityStatus" db:"activity_status"`
}

// ActivityCreateRequest represents the request payload for activity creation
type ActivityCreateRequest struct {
	Type        string     `json:"type"`
	CustomType  string     `json:"customType"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
	ClientID    string     `json:"clientId"`
}

// ActivityUpdateRequest represents the request payload for activity
// updates. Nil/empty fields are left untouched.
type ActivityUpdateRequest struct {
	Type           string         `json:"type"`
	CustomType     string         `json:"customType"`
	Description    *string        `json:"description"`
	Date           *time.Time     `json:"date"`
	ClientID       string         `json:"clientId"`
	ActivityStatus ActivityStatus `json:"activityStatus"`
}
