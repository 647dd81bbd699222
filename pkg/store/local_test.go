package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	return NewLocalStore(t.TempDir())
}

func TestLocalStoreSeedsDefaults(t *testing.T) {
	s := newTestStore(t)

	users, err := s.ListUsersByOrganization("org-1")
	require.NoError(t, err)
	assert.Len(t, users, 5)

	clients, err := s.ListClientsByOrganization("org-1")
	require.NoError(t, err)
	assert.Len(t, clients, 7)

	activities, err := s.ListActivitiesByOrganization("org-1")
	require.NoError(t, err)
	assert.Len(t, activities, 17)

	// notes have no fixtures
	notes, err := s.ListNotesByOrganization("org-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestLocalStoreSeedsOnCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clients.json"), []byte("{not json"), 0644))

	s := NewLocalStore(dir)
	clients, err := s.ListClientsByOrganization("org-1")
	require.NoError(t, err)
	assert.Len(t, clients, 7)
}

func TestLocalStoreClientCRUD(t *testing.T) {
	s := newTestStore(t)

	client := &models.Client{
		ID:             "c-new",
		Name:           "Fresh Co",
		Email:          "hi@fresh.co",
		ClientState:    models.ClientLead,
		CreatedAt:      time.Now().UTC(),
		UserID:         "carla@agency.test",
		OrganizationID: "org-2",
	}
	require.NoError(t, s.CreateClient(client))

	got, err := s.GetClient("c-new")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Co", got.Name)

	got.Name = "Fresh Company"
	require.NoError(t, s.UpdateClient(got))
	got, err = s.GetClient("c-new")
	require.NoError(t, err)
	assert.Equal(t, "Fresh Company", got.Name)

	// org scoping
	scoped, err := s.ListClientsByOrganization("org-2")
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "c-new", scoped[0].ID)

	require.NoError(t, s.DeleteClient("c-new"))
	_, err = s.GetClient("c-new")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient("c-new"), ErrNotFound)
}

func TestLocalStoreUpdateMissingRecords(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.UpdateClient(&models.Client{ID: "nope"}), ErrNotFound)
	assert.ErrorIs(t, s.UpdateActivity(&models.Activity{ID: "nope"}), ErrNotFound)
	assert.ErrorIs(t, s.UpdateUser(&models.User{Email: "nobody@agency.test"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteNote("nope"), ErrNotFound)
}

func TestLocalStoreUserEmailLookupIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	u, err := s.GetUserByEmail("ALICE@Agency.Test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, u.Role)

	err = s.CreateUser(&models.User{Email: "Alice@agency.test", Username: "Dup"})
	assert.Error(t, err)
}

func TestLocalStoreListOrganizationIDs(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(&models.User{
		Username:       "Zoe",
		Email:          "zoe@other.test",
		Role:           models.RoleOwner,
		OrganizationID: "org-9",
	}))

	orgs, err := s.ListOrganizationIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"org-1", "org-9"}, orgs)
}

func TestReconcileActivityStatuses(t *testing.T) {
	s := newTestStore(t)

	scheduled := mustTime("2026-01-03T09:00:00Z") // fixture act-15

	// before the scheduled date nothing changes
	changed, err := s.ReconcileActivityStatuses(scheduled.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	// exactly at the scheduled instant still counts as upcoming
	changed, err = s.ReconcileActivityStatuses(scheduled)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	changed, err = s.ReconcileActivityStatuses(scheduled.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	act, err := s.GetActivity("act-15")
	require.NoError(t, err)
	assert.Equal(t, models.ActivityCompleted, act.ActivityStatus)

	// idempotent
	changed, err = s.ReconcileActivityStatuses(scheduled.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestLocalStoreNotes(t *testing.T) {
	s := newTestStore(t)

	note := &models.Note{
		ID:             "n-1",
		Title:          "Quarterly prep",
		Body:           "Collect renewal numbers",
		UserID:         "carla@agency.test",
		OrganizationID: "org-1",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.CreateNote(note))

	got, err := s.GetNote("n-1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly prep", got.Title)

	notes, err := s.ListNotesByOrganization("org-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, s.DeleteNote("n-1"))
	_, err = s.GetNote("n-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreHealthCheck(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.HealthCheck())
}
