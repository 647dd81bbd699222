package metrics

import (
	"time"

	"agency-crm-backend/pkg/models"
)

// Business status labels, used for list badges. Independent of the
// health status computed by ComputeClientHealth.
const (
	BusinessActive   = "active"
	BusinessAtRisk   = "at-risk"
	BusinessInactive = "inactive"
)

// Business status day thresholds.
const (
	atRiskDays   = 14
	inactiveDays = 30
)

// DaysSinceLastContact returns the rounded day count since the client
// was last touched. The reference point is the most recent activity
// date, falling back to the client's creation date when no activities
// exist.
func DaysSinceLastContact(client *models.Client, lastActivityAt *time.Time, now time.Time) int {
	reference := client.CreatedAt
	if lastActivityAt != nil {
		reference = *lastActivityAt
	}
	return roundDays(now.Sub(reference))
}

// BusinessStatusFor classifies a day count: active within 14 days,
// at-risk within 30, inactive beyond that.
func BusinessStatusFor(daysSinceLast int) string {
	switch {
	case daysSinceLast <= atRiskDays:
		return BusinessActive
	case daysSinceLast <= inactiveDays:
		return BusinessAtRisk
	default:
		return BusinessInactive
	}
}

// IsAtRiskDays reports whether a day count falls in the at-risk band
// (strictly more than 14 days, at most 30).
func IsAtRiskDays(daysSinceLast int) bool {
	return daysSinceLast > atRiskDays && daysSinceLast <= inactiveDays
}
