package store

import (
	"testing"
	"time"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSampleForOrgOnEmptyOrg(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateUser(&models.User{
		Username:       "Zoe",
		Email:          "zoe@other.test",
		Role:           models.RoleOwner,
		OrganizationID: "org-9",
	}))

	summary, err := EnsureSampleForOrg(s, "org-9", now)
	require.NoError(t, err)
	assert.Equal(t, 6, summary.AddedClients)
	assert.Equal(t, 0, summary.UpdatedClients)
	// BrightCo gets 5 touchpoints, OldTown 2, the rest 1 each
	assert.Equal(t, 11, summary.AddedActivities)

	clients, err := s.ListClientsByOrganization("org-9")
	require.NoError(t, err)
	require.Len(t, clients, 6)
	for _, c := range clients {
		assert.True(t, c.Demo, "sample client %s must be demo", c.Name)
		assert.Equal(t, "zoe@other.test", c.UserID)
	}

	// idempotent: second run adds nothing
	again, err := EnsureSampleForOrg(s, "org-9", now)
	require.NoError(t, err)
	assert.Equal(t, SeedSummary{}, again)
}

func TestEnsureSampleForOrgMarksExistingClientsDemo(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	summary, err := EnsureSampleForOrg(s, "org-1", now)
	require.NoError(t, err)
	// all six sample names already exist in the fixtures
	assert.Equal(t, 0, summary.AddedClients)
	assert.Equal(t, 6, summary.UpdatedClients)

	client, err := s.GetClient("cli-1")
	require.NoError(t, err)
	assert.True(t, client.Demo)

	// non-sample clients are untouched
	solo, err := s.GetClient("cli-7")
	require.NoError(t, err)
	assert.False(t, solo.Demo)

	// Holiday Homes regains a future scheduled meeting once the
	// fixture one has passed
	acts, err := s.ListActivitiesByClient("cli-6")
	require.NoError(t, err)
	hasFuture := false
	for _, a := range acts {
		if a.Date.After(now) && a.ActivityStatus == models.ActivityScheduled {
			hasFuture = true
		}
	}
	assert.True(t, hasFuture)

	again, err := EnsureSampleForOrg(s, "org-1", now)
	require.NoError(t, err)
	assert.Zero(t, again.AddedActivities)
	assert.Zero(t, again.UpdatedClients)
}

func TestSeedAllOrgs(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateUser(&models.User{
		Username:       "Zoe",
		Email:          "zoe@other.test",
		Role:           models.RoleOwner,
		OrganizationID: "org-9",
	}))

	summary, err := SeedAllOrgs(s, now)
	require.NoError(t, err)
	require.Contains(t, summary, "org-1")
	require.Contains(t, summary, "org-9")
	assert.Equal(t, 6, summary["org-9"].AddedClients)
}
