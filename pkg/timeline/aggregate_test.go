package timeline

import (
	"testing"
	"time"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMondayWeekStart(t *testing.T) {
	// 2025-06-04 is a Wednesday
	wed := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-02", DayKey(MondayWeekStart(wed)))

	mon := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-02", DayKey(MondayWeekStart(mon)), "Monday maps to itself")

	sun := time.Date(2025, 6, 8, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-02", DayKey(MondayWeekStart(sun)))
}

func TestActivitiesPerWeekBinsAreHalfOpen(t *testing.T) {
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC) // Wednesday
	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	acts := []models.Activity{
		act("a1", weekStart, "call"),                              // first instant of the current week
		act("a2", weekStart.Add(-time.Second), "call"),            // last instant of the prior week
		act("a3", weekStart.AddDate(0, 0, 7), "call"),             // outside every bin (future week)
		act("a4", weekStart.AddDate(0, 0, 7).Add(-1*time.Second), "call"), // end of current week
	}

	bins := ActivitiesPerWeek(acts, 2, now)
	require.Len(t, bins, 2)
	assert.Equal(t, "2025-06-02", bins[0].WeekStart)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, "2025-06-09", bins[1].WeekStart)
	assert.Equal(t, 2, bins[1].Count)
}

func TestActivityFrequency(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	acts := []models.Activity{
		act("a1", time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC), "call"),
		act("a2", time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC), "call"),
		act("a3", time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC), "call"),
		act("a4", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), "call"), // outside window
	}

	bins := ActivityFrequency(acts, 3, now)
	require.Len(t, bins, 3)
	assert.Equal(t, DayBin{Date: "2025-06-08", Count: 0}, bins[0])
	assert.Equal(t, DayBin{Date: "2025-06-09", Count: 1}, bins[1])
	assert.Equal(t, DayBin{Date: "2025-06-10", Count: 2}, bins[2])
}

func TestClientsOverTimeFoldsBaseline(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	clients := []models.Client{
		{ID: "c1", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, // before window
		{ID: "c2", CreatedAt: time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC)},
		{ID: "c3", CreatedAt: time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC)},
	}

	series := ClientsOverTime(clients, 3, now)
	require.Len(t, series, 3)
	assert.Equal(t, CumulativeBin{Date: "2025-06-08", Total: 2}, series[0], "baseline client plus same-day creation")
	assert.Equal(t, CumulativeBin{Date: "2025-06-09", Total: 2}, series[1])
	assert.Equal(t, CumulativeBin{Date: "2025-06-10", Total: 3}, series[2])
}

func TestCountByTypeSortedByName(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	acts := []models.Activity{
		act("a1", since.AddDate(0, 0, 1), "meeting"),
		act("a2", since.AddDate(0, 0, 2), "call"),
		act("a3", since.AddDate(0, 0, 3), "call"),
		act("a4", since.AddDate(0, 0, -5), "proposal"), // before cutoff
	}

	counts := CountByType(acts, since)
	require.Len(t, counts, 2)
	assert.Equal(t, TypeCount{Type: "call", Count: 2}, counts[0])
	assert.Equal(t, TypeCount{Type: "meeting", Count: 1}, counts[1])
}

func TestMostFrequentActivities(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	acts := []models.Activity{
		act("a1", since.AddDate(0, 0, 1), "meeting"),
		act("a2", since.AddDate(0, 0, 2), "call"),
		act("a3", since.AddDate(0, 0, 3), "call"),
		act("a4", since.AddDate(0, 0, 4), "task"),
	}

	top := MostFrequentActivities(acts, since, 2)
	require.Len(t, top, 2)
	assert.Equal(t, TypeCount{Type: "call", Count: 2}, top[0])
}

func TestAvgTimeBetweenContacts(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	clients := []models.Client{
		{ID: "c1", Name: "Steady"},
		{ID: "c2", Name: "Sparse"},
		{ID: "c3", Name: "Quiet"},
	}
	acts := []models.Activity{
		// c1: 10-day cadence, three activities -> avg 10, samples 2
		{ID: "a1", ClientID: "c1", Date: base, Type: "call"},
		{ID: "a2", ClientID: "c1", Date: base.AddDate(0, 0, 10), Type: "call"},
		{ID: "a3", ClientID: "c1", Date: base.AddDate(0, 0, 20), Type: "call"},
		// c2: 20-day gap, two activities -> avg 20, samples 1
		{ID: "a4", ClientID: "c2", Date: base, Type: "call"},
		{ID: "a5", ClientID: "c2", Date: base.AddDate(0, 0, 20), Type: "call"},
		// c3: single activity -> nil average
		{ID: "a6", ClientID: "c3", Date: base, Type: "call"},
	}

	report := AvgTimeBetweenContacts(clients, acts, since)
	require.Len(t, report.PerClient, 3)

	// ascending by average, nil last
	assert.Equal(t, "c1", report.PerClient[0].ClientID)
	require.NotNil(t, report.PerClient[0].AvgDays)
	assert.InDelta(t, 10, *report.PerClient[0].AvgDays, 0.001)
	assert.Equal(t, 2, report.PerClient[0].Samples)

	assert.Equal(t, "c2", report.PerClient[1].ClientID)
	assert.InDelta(t, 20, *report.PerClient[1].AvgDays, 0.001)

	assert.Equal(t, "c3", report.PerClient[2].ClientID)
	assert.Nil(t, report.PerClient[2].AvgDays)
	assert.Equal(t, 1, report.PerClient[2].Samples)

	// mean of per-client means: (10 + 20) / 2, not activity-weighted
	require.NotNil(t, report.OverallAvgDays)
	assert.InDelta(t, 15, *report.OverallAvgDays, 0.001)
}

func TestAvgTimeBetweenContactsEmpty(t *testing.T) {
	report := AvgTimeBetweenContacts(nil, nil, time.Time{})
	assert.Nil(t, report.OverallAvgDays)
	assert.Empty(t, report.PerClient)
}

func TestChurnedPerMonth(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	clients := []models.Client{
		{ID: "c1", ClientState: models.ClientChurned, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "c2", ClientState: models.ClientActive, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "c3", ClientState: models.ClientActive, CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	acts := []models.Activity{
		// c1 churned, last activity in April
		{ID: "a1", ClientID: "c1", Date: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), Type: "call"},
		// c2 active but stale (>30 days) -> counted in its last-activity month
		{ID: "a2", ClientID: "c2", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Type: "call"},
		// c3 recently touched -> not churned
		{ID: "a3", ClientID: "c3", Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), Type: "call"},
	}

	bins := ChurnedPerMonth(clients, acts, 4, now)
	require.Len(t, bins, 4)
	assert.Equal(t, MonthBin{Month: "2025-03", Count: 0}, bins[0])
	assert.Equal(t, MonthBin{Month: "2025-04", Count: 1}, bins[1])
	assert.Equal(t, MonthBin{Month: "2025-05", Count: 1}, bins[2])
	assert.Equal(t, MonthBin{Month: "2025-06", Count: 0}, bins[3])
}
