package metrics

import (
	"testing"
	"time"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newClient(state models.ClientState, createdDaysAgo int) *models.Client {
	return &models.Client{
		ID:             "c-1",
		Name:           "Test Client",
		ClientState:    state,
		CreatedAt:      now.AddDate(0, 0, -createdDaysAgo),
		OrganizationID: "org-1",
	}
}

func completedActivity(daysAgo int) models.Activity {
	return models.Activity{
		ID:             "a",
		Type:           models.ActivityCall,
		Date:           now.AddDate(0, 0, -daysAgo),
		ClientID:       "c-1",
		OrganizationID: "org-1",
		ActivityStatus: models.ActivityCompleted,
	}
}

func scheduledActivity(daysAhead int) models.Activity {
	return models.Activity{
		ID:             "a",
		Type:           models.ActivityMeeting,
		Date:           now.AddDate(0, 0, daysAhead),
		ClientID:       "c-1",
		OrganizationID: "org-1",
		ActivityStatus: models.ActivityScheduled,
	}
}

func TestComputeClientHealthScoreRange(t *testing.T) {
	cases := [][]models.Activity{
		nil,
		{completedActivity(1)},
		{completedActivity(1), completedActivity(2), completedActivity(3), scheduledActivity(2), scheduledActivity(5), scheduledActivity(9)},
		{completedActivity(400)},
	}
	for _, acts := range cases {
		h := ComputeClientHealth(newClient(models.ClientActive, 500), acts, now)
		assert.GreaterOrEqual(t, h.Score, 0)
		assert.LessOrEqual(t, h.Score, 100)
	}
}

func TestChurnedClientAlwaysInactive(t *testing.T) {
	// plenty of recent activity, score would be Healthy
	acts := []models.Activity{
		completedActivity(1), completedActivity(3), completedActivity(5),
		completedActivity(8), completedActivity(10), completedActivity(12),
		completedActivity(15), completedActivity(20), completedActivity(25),
		completedActivity(28), scheduledActivity(3), scheduledActivity(6), scheduledActivity(10),
	}
	h := ComputeClientHealth(newClient(models.ClientChurned, 30), acts, now)
	assert.Equal(t, HealthInactive, h.Status)
	assert.GreaterOrEqual(t, h.Score, 70, "score itself should be high, proving the override fired")
}

func TestRecencyOverridesScore(t *testing.T) {
	// last touch 35 days ago forces Inactive regardless of score
	acts := []models.Activity{completedActivity(35), completedActivity(40), completedActivity(45)}
	h := ComputeClientHealth(newClient(models.ClientActive, 60), acts, now)
	assert.Equal(t, HealthInactive, h.Status)
	assert.Equal(t, 35, h.DaysSinceLast)
}

func TestHealthyStatusForFreshClient(t *testing.T) {
	acts := []models.Activity{
		completedActivity(1), completedActivity(3), completedActivity(5),
		completedActivity(7), completedActivity(9),
		scheduledActivity(2), scheduledActivity(4), scheduledActivity(6),
	}
	h := ComputeClientHealth(newClient(models.ClientActive, 10), acts, now)
	require.Equal(t, HealthHealthy, h.Status)
	assert.GreaterOrEqual(t, h.Score, 70)
}

func TestHealthCounters(t *testing.T) {
	acts := []models.Activity{
		completedActivity(5),
		completedActivity(100), // outside the 90-day window
		scheduledActivity(3),
		scheduledActivity(-2), // past scheduled, not pending
	}
	h := ComputeClientHealth(newClient(models.ClientActive, 200), acts, now)
	// the most recent date wins even when it lies in the future
	assert.Equal(t, -3, h.DaysSinceLast)
	assert.Equal(t, 3, h.InteractionCount, "everything after the 90-day cutoff counts, future included")
	assert.Equal(t, 1, h.PendingCount, "only future scheduled activities are pending")
	assert.Equal(t, 200, h.AgeDays)
}

func TestHealthNoActivities(t *testing.T) {
	h := ComputeClientHealth(newClient(models.ClientActive, 10), nil, now)
	assert.Nil(t, h.LastActivityAt)
	assert.Equal(t, 10, h.DaysSinceLast, "creation date is the fallback reference")
	assert.Equal(t, 0, h.InteractionCount)
}

func TestBusinessStatusBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{0, BusinessActive},
		{14, BusinessActive},
		{15, BusinessAtRisk},
		{30, BusinessAtRisk},
		{31, BusinessInactive},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BusinessStatusFor(tc.days), "days=%d", tc.days)
	}
}

func TestIsAtRiskDays(t *testing.T) {
	assert.False(t, IsAtRiskDays(14))
	assert.True(t, IsAtRiskDays(15))
	assert.True(t, IsAtRiskDays(30))
	assert.False(t, IsAtRiskDays(31))
}

func TestDaysSinceLastContactFallsBackToCreation(t *testing.T) {
	c := newClient(models.ClientActive, 42)
	assert.Equal(t, 42, DaysSinceLastContact(c, nil, now))

	last := now.AddDate(0, 0, -3)
	assert.Equal(t, 3, DaysSinceLastContact(c, &last, now))
}
