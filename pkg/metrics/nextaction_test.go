package metrics

import (
	"testing"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestNextActionUpcomingTakesPrecedence(t *testing.T) {
	acts := []models.Activity{
		completedActivity(40), // would otherwise be win_back
		scheduledActivity(9),
		scheduledActivity(2),
	}
	na := SuggestNextAction(newClient(models.ClientActive, 100), acts, now)
	assert.Equal(t, "prepare_meeting", na.Action)
	assert.Equal(t, 0.95, na.Score)
	// nearest upcoming wins the label
	wantDate := now.AddDate(0, 0, 2).Format("2006-01-02")
	assert.Contains(t, na.Label, wantDate)
	assert.Contains(t, na.Label, models.ActivityMeeting)
}

func TestNextActionPastScheduledIgnored(t *testing.T) {
	acts := []models.Activity{scheduledActivity(-1)}
	na := SuggestNextAction(newClient(models.ClientActive, 100), acts, now)
	assert.NotEqual(t, "prepare_meeting", na.Action)
}

func TestNextActionTiers(t *testing.T) {
	cases := []struct {
		name       string
		state      models.ClientState
		daysAgo    int
		wantAction string
		wantScore  float64
	}{
		{"fresh lead", models.ClientLead, 3, "send_intro_email", 0.6},
		{"fresh active client", models.ClientActive, 3, "nurture", 0.25},
		{"week-old contact", models.ClientActive, 10, "follow_up_call", 0.8},
		{"lead outside intro window", models.ClientLead, 10, "follow_up_call", 0.8},
		{"month-old contact", models.ClientActive, 25, "reengage_offer", 0.7},
		{"stale contact", models.ClientActive, 45, "win_back", 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			acts := []models.Activity{completedActivity(tc.daysAgo)}
			na := SuggestNextAction(newClient(tc.state, 200), acts, now)
			assert.Equal(t, tc.wantAction, na.Action)
			assert.Equal(t, tc.wantScore, na.Score)
			assert.Equal(t, tc.daysAgo, na.DaysSinceLast)
		})
	}
}

func TestNextActionNoActivities(t *testing.T) {
	// creation date is the reference; a brand-new client is "recent"
	na := SuggestNextAction(newClient(models.ClientActive, 0), nil, now)
	assert.Equal(t, "nurture", na.Action)
	assert.Nil(t, na.LastActivityAt)

	stale := SuggestNextAction(newClient(models.ClientActive, 90), nil, now)
	assert.Equal(t, "win_back", stale.Action)
}

func TestLastActivityDate(t *testing.T) {
	assert.Nil(t, LastActivityDate(nil))

	acts := []models.Activity{completedActivity(10), completedActivity(2), completedActivity(30)}
	last := LastActivityDate(acts)
	if assert.NotNil(t, last) {
		assert.True(t, last.Equal(now.AddDate(0, 0, -2)))
	}
}
