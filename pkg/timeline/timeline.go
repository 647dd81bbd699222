// Package timeline groups and buckets activities for client timelines
// and the statistics dashboards. Functions are pure: callers pass
// pre-scoped activity slices and the evaluation time.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"agency-crm-backend/pkg/models"
)

// Timeline limits.
const (
	DefaultLimit = 200
	MaxLimit     = 500
)

// Query controls filtering and grouping of a client timeline.
type Query struct {
	Types   []string
	GroupBy string // "day", "week" or "none"
	Start   *time.Time
	End     *time.Time
	Limit   int
	Order   string // "asc" or "desc"
}

// Group is one bucket of timeline activities.
type Group struct {
	Key   string            `json:"key"`
	Label string            `json:"label"`
	Items []models.Activity `json:"items"`
}

// Result is a grouped timeline response.
type Result struct {
	Total  int     `json:"total"`
	Groups []Group `json:"groups"`
}

// BuildTimeline filters, sorts, truncates and groups activities. The
// inclusive date window is [Start, End]; groups are sorted by key
// descending so the newest bucket comes first.
func BuildTimeline(activities []models.Activity, q Query) Result {
	filtered := make([]models.Activity, 0, len(activities))
	for _, a := range activities {
		if len(q.Types) > 0 && !containsType(q.Types, a.Type) {
			continue
		}
		if q.Start != nil && a.Date.Before(*q.Start) {
			continue
		}
		if q.End != nil && a.Date.After(*q.End) {
			continue
		}
		filtered = append(filtered, a)
	}

	asc := q.Order == "asc"
	sort.SliceStable(filtered, func(i, j int) bool {
		if asc {
			return filtered[i].Date.Before(filtered[j].Date)
		}
		return filtered[i].Date.After(filtered[j].Date)
	})

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	result := Result{Total: len(filtered)}

	switch q.GroupBy {
	case "none":
		result.Groups = []Group{{Key: "all", Label: "All", Items: filtered}}
	case "week":
		result.Groups = groupByKey(filtered, ISOWeekKey)
	default:
		result.Groups = groupByKey(filtered, DayKey)
	}
	return result
}

func groupByKey(activities []models.Activity, keyFn func(time.Time) string) []Group {
	byKey := map[string]*Group{}
	var order []string
	for _, a := range activities {
		key := keyFn(a.Date)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, Label: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.Items = append(g.Items, a)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(order)))
	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	return groups
}

// DayKey formats a time as its UTC calendar date, e.g. "2025-01-15".
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ISOWeekKey formats a time as its ISO-8601 week, e.g. "2025-W03".
// Dates near year boundaries can map into the prior or next ISO year.
func ISOWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey formats a time as its UTC calendar month, e.g. "2025-01".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func containsType(types []string, typ string) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}
