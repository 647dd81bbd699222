package metrics

import (
	"fmt"
	"time"

	"agency-crm-backend/pkg/models"
)

// NextAction is a heuristic suggestion for the next touchpoint with a
// client. Score is the suggestion's confidence, not a priority rank.
type NextAction struct {
	Action         string     `json:"action"`
	Label          string     `json:"label"`
	Score          float64    `json:"score"`
	DaysSinceLast  int        `json:"daysSinceLast"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
}

// SuggestNextAction evaluates the suggestion rules in strict order;
// the first matching rule wins. An upcoming scheduled activity always
// takes precedence. The remaining tiers key off recency and client
// state; the lead-specific rule must be checked before the general
// 7-day rule to preserve the intended ordering.
func SuggestNextAction(client *models.Client, activities []models.Activity, now time.Time) NextAction {
	lastActivityAt := LastActivityDate(activities)
	daysSinceLast := DaysSinceLastContact(client, lastActivityAt, now)

	base := NextAction{
		DaysSinceLast:  daysSinceLast,
		LastActivityAt: lastActivityAt,
	}

	if upcoming := nearestUpcoming(activities, now); upcoming != nil {
		base.Action = "prepare_meeting"
		base.Label = fmt.Sprintf("Prepare for %s on %s", upcoming.Type, upcoming.Date.Format("2006-01-02"))
		base.Score = 0.95
		return base
	}

	switch {
	case client.ClientState == models.ClientLead && daysSinceLast <= 7:
		base.Action = "send_intro_email"
		base.Label = "Send intro email"
		base.Score = 0.6
	case daysSinceLast <= 7:
		base.Action = "nurture"
		base.Label = "Keep nurturing — recent activity"
		base.Score = 0.25
	case daysSinceLast <= 14:
		base.Action = "follow_up_call"
		base.Label = "Schedule a follow-up call"
		base.Score = 0.8
	case daysSinceLast <= 30:
		base.Action = "reengage_offer"
		base.Label = "Send a re-engagement offer"
		base.Score = 0.7
	default:
		base.Action = "win_back"
		base.Label = "Start a win-back campaign"
		base.Score = 0.9
	}
	return base
}

// nearestUpcoming returns the soonest scheduled activity still in the
// future, or nil.
func nearestUpcoming(activities []models.Activity, now time.Time) *models.Activity {
	var best *models.Activity
	for i := range activities {
		a := &activities[i]
		if a.ActivityStatus != models.ActivityScheduled || !a.Date.After(now) {
			continue
		}
		if best == nil || a.Date.Before(best.Date) {
			best = a
		}
	}
	return best
}
