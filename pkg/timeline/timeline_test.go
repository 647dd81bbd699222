package timeline

import (
	"testing"
	"time"

	"agency-crm-backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func act(id string, date time.Time, typ string) models.Activity {
	return models.Activity{
		ID:             id,
		Type:           typ,
		Date:           date,
		ClientID:       "c-1",
		OrganizationID: "org-1",
		ActivityStatus: models.ActivityCompleted,
	}
}

func TestISOWeekKey(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2025-01-01", "2025-W01"},
		{"2025-01-06", "2025-W02"},
		{"2024-12-30", "2025-W01"}, // ISO year rolls forward at the boundary
		{"2026-01-01", "2026-W01"},
		{"2021-01-01", "2020-W53"}, // and backward
	}
	for _, tc := range cases {
		d, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ISOWeekKey(d), "date=%s", tc.date)
	}
}

func TestDayAndMonthKeys(t *testing.T) {
	d := time.Date(2025, 3, 7, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-07", DayKey(d))
	assert.Equal(t, "2025-03", MonthKey(d))
}

func TestBuildTimelineGroupsByDayDescending(t *testing.T) {
	acts := []models.Activity{
		act("a1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), "call"),
		act("a2", time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC), "meeting"),
		act("a3", time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC), "call"),
	}

	result := BuildTimeline(acts, Query{GroupBy: "day"})
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "2025-06-03", result.Groups[0].Key, "newest bucket first")
	assert.Equal(t, "2025-06-01", result.Groups[1].Key)
	assert.Len(t, result.Groups[1].Items, 2)
}

func TestBuildTimelineGroupByNone(t *testing.T) {
	acts := []models.Activity{
		act("a1", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), "call"),
		act("a2", time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), "call"),
	}
	result := BuildTimeline(acts, Query{GroupBy: "none", Order: "asc"})
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "all", result.Groups[0].Key)
	assert.Equal(t, "a1", result.Groups[0].Items[0].ID, "ascending order")
}

func TestBuildTimelineWeekGrouping(t *testing.T) {
	acts := []models.Activity{
		act("a1", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), "call"),  // 2025-W01
		act("a2", time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC), "call"),  // 2025-W02
		act("a3", time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC), "call"), // 2025-W02
	}
	result := BuildTimeline(acts, Query{GroupBy: "week"})
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "2025-W02", result.Groups[0].Key)
	assert.Len(t, result.Groups[0].Items, 2)
	assert.Equal(t, "2025-W01", result.Groups[1].Key)
}

func TestBuildTimelineFilters(t *testing.T) {
	acts := []models.Activity{
		act("a1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "call"),
		act("a2", time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), "meeting"),
		act("a3", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), "call"),
	}

	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	result := BuildTimeline(acts, Query{GroupBy: "none", Start: &start, End: &end})
	require.Len(t, result.Groups, 1)
	require.Len(t, result.Groups[0].Items, 1)
	assert.Equal(t, "a2", result.Groups[0].Items[0].ID)

	byType := BuildTimeline(acts, Query{GroupBy: "none", Types: []string{"call"}})
	assert.Equal(t, 2, byType.Total)
}

func TestBuildTimelineLimit(t *testing.T) {
	var acts []models.Activity
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		acts = append(acts, act("a", base.AddDate(0, 0, i), "call"))
	}

	result := BuildTimeline(acts, Query{GroupBy: "none", Limit: 3})
	assert.Equal(t, 3, result.Total)

	// zero limit falls back to the default
	unbounded := BuildTimeline(acts, Query{GroupBy: "none"})
	assert.Equal(t, 10, unbounded.Total)
}
