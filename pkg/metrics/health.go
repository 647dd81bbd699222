// Package metrics computes derived client metrics: the weighted health
// score, the recency-based business status, and the next-action
// suggestion. All functions are pure; callers pass the client, its
// activities and the evaluation time.
package metrics

import (
	"math"
	"time"

	"agency-crm-backend/pkg/models"
)

// Health status labels. Distinct value set from BusinessStatus.
const (
	HealthHealthy  = "Healthy"
	HealthAtRisk   = "At Risk"
	HealthInactive = "Inactive"
)

// Weights holds the health score component weights. The defaults are
// behavioral constants; treat them as tunable configuration rather than
// derived values.
type Weights struct {
	Recency     float64
	Interaction float64
	Pending     float64
	Age         float64
}

// DefaultWeights are the stock component weights.
var DefaultWeights = Weights{
	Recency:     0.4,
	Interaction: 0.25,
	Pending:     0.2,
	Age:         0.15,
}

// Health score status thresholds.
const (
	healthyThreshold  = 70
	inactiveThreshold = 40
	recencyCutoffDays = 30
)

// ClientHealth is the full health report for one client.
type ClientHealth struct {
	Score            int        `json:"score"`
	Status           string     `json:"status"`
	LastActivityAt   *time.Time `json:"lastActivityAt"`
	DaysSinceLast    int        `json:"daysSinceLast"`
	InteractionCount int        `json:"interactionCount"`
	PendingCount     int        `json:"pendingCount"`
	AgeDays          int        `json:"ageDays"`
}

// ComputeClientHealth scores a client with the default weights.
func ComputeClientHealth(client *models.Client, activities []models.Activity, now time.Time) ClientHealth {
	return ComputeClientHealthWeighted(client, activities, now, DefaultWeights)
}

// ComputeClientHealthWeighted scores a client from its activity history.
// Each component is normalized to [0,1], combined by weight and scaled
// to a 0-100 score. The 30-day recency rule and a churned client state
// both force Inactive status regardless of score.
func ComputeClientHealthWeighted(client *models.Client, activities []models.Activity, now time.Time, w Weights) ClientHealth {
	lastActivityAt := LastActivityDate(activities)
	daysSinceLast := DaysSinceLastContact(client, lastActivityAt, now)

	// interactions inside the trailing 90-day window
	window90 := now.Add(-90 * 24 * time.Hour)
	interactionCount := 0
	for _, a := range activities {
		if !a.Date.Before(window90) {
			interactionCount++
		}
	}

	// scheduled activities still in the future
	pendingCount := 0
	for _, a := range activities {
		if a.ActivityStatus == models.ActivityScheduled && a.Date.After(now) {
			pendingCount++
		}
	}

	ageDays := roundDays(now.Sub(client.CreatedAt))

	recencyScore := recencyComponent(daysSinceLast)
	interactionScore := interactionComponent(interactionCount)
	pendingScore := math.Min(1, float64(pendingCount)/3)
	// new clients slightly favored
	ageScore := math.Max(0.7, 1-(float64(ageDays)/365)*0.3)

	score := int(math.Round(100 * (w.Recency*recencyScore +
		w.Interaction*interactionScore +
		w.Pending*pendingScore +
		w.Age*ageScore)))

	// Recency and churn override the computed score: a client untouched
	// for more than 30 days is Inactive even if the score says Healthy.
	var status string
	switch {
	case daysSinceLast > recencyCutoffDays || client.ClientState == models.ClientChurned:
		status = HealthInactive
	case score >= healthyThreshold:
		status = HealthHealthy
	case score < inactiveThreshold:
		status = HealthInactive
	default:
		status = HealthAtRisk
	}

	return ClientHealth{
		Score:            score,
		Status:           status,
		LastActivityAt:   lastActivityAt,
		DaysSinceLast:    daysSinceLast,
		InteractionCount: interactionCount,
		PendingCount:     pendingCount,
		AgeDays:          ageDays,
	}
}

func recencyComponent(daysSinceLast int) float64 {
	switch {
	case daysSinceLast <= 7:
		return 1
	case daysSinceLast <= 14:
		return 0.9
	case daysSinceLast <= 30:
		return 0.75
	case daysSinceLast <= 60:
		return 0.5
	case daysSinceLast <= 90:
		return 0.3
	default:
		return 0.1
	}
}

func interactionComponent(count int) float64 {
	switch {
	case count >= 10:
		return 1
	case count >= 5:
		return 0.8
	case count >= 3:
		return 0.6
	case count >= 1:
		return 0.3
	default:
		return 0
	}
}

// LastActivityDate returns the most recent activity date, or nil when
// the client has no activities.
func LastActivityDate(activities []models.Activity) *time.Time {
	var last *time.Time
	for i := range activities {
		d := activities[i].Date
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last
}

func roundDays(d time.Duration) int {
	return int(math.Round(d.Hours() / 24))
}
