package timeline

import (
	"math"
	"sort"
	"time"

	"agency-crm-backend/pkg/models"
)

// WeekBin is one week of activity counts. WeekStart is the Monday the
// week begins on.
type WeekBin struct {
	WeekStart string `json:"weekStart"`
	Count     int    `json:"count"`
}

// DayBin is one day of counts.
type DayBin struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MonthBin is one calendar month of counts.
type MonthBin struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CumulativeBin carries a running total per day.
type CumulativeBin struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// TypeCount counts activities of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ContactGap is the average gap between consecutive contacts for one
// client. AvgDays is nil when the client has fewer than two activities
// inside the window.
type ContactGap struct {
	ClientID string   `json:"clientId"`
	Name     string   `json:"name"`
	AvgDays  *float64 `json:"avgDays"`
	Samples  int      `json:"samples"`
}

// ContactGapReport is the org-wide inter-contact gap summary. The
// overall average is the mean of per-client means, deliberately not
// weighted by activity count.
type ContactGapReport struct {
	OverallAvgDays *float64     `json:"overallAvgDays"`
	PerClient      []ContactGap `json:"perClient"`
}

// MondayWeekStart returns UTC midnight of the Monday on or before t.
func MondayWeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := (int(t.Weekday()) + 6) % 7 // Monday=0
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.AddDate(0, 0, -day)
}

// ActivitiesPerWeek bins activities into the trailing `weeks`
// Monday-anchored weeks. Bins are half-open [start, start+7d) and
// ordered oldest first.
func ActivitiesPerWeek(activities []models.Activity, weeks int, now time.Time) []WeekBin {
	type bin struct {
		start time.Time
		count int
	}
	bins := make([]bin, 0, weeks)
	for i := weeks - 1; i >= 0; i-- {
		start := MondayWeekStart(now.AddDate(0, 0, -i*7))
		bins = append(bins, bin{start: start})
	}

	for _, a := range activities {
		d := a.Date
		for j := range bins {
			start := bins[j].start
			end := start.AddDate(0, 0, 7)
			if !d.Before(start) && d.Before(end) {
				bins[j].count++
				break
			}
		}
	}

	result := make([]WeekBin, len(bins))
	for i, b := range bins {
		result[i] = WeekBin{WeekStart: DayKey(b.start), Count: b.count}
	}
	return result
}

// ActivityFrequency bins activities by UTC calendar day over the
// trailing `days` days, oldest first.
func ActivityFrequency(activities []models.Activity, days int, now time.Time) []DayBin {
	bins := make([]DayBin, 0, days)
	index := map[string]int{}
	for i := days - 1; i >= 0; i-- {
		key := DayKey(now.AddDate(0, 0, -i))
		index[key] = len(bins)
		bins = append(bins, DayBin{Date: key})
	}

	for _, a := range activities {
		if i, ok := index[DayKey(a.Date)]; ok {
			bins[i].Count++
		}
	}
	return bins
}

// ClientsOverTime returns the cumulative client count per day over the
// trailing `days` days. Clients created before the window are folded
// into the starting total so the series never undercounts.
func ClientsOverTime(clients []models.Client, days int, now time.Time) []CumulativeBin {
	keys := make([]string, 0, days)
	index := map[string]int{}
	counts := make([]int, days)
	for i := days - 1; i >= 0; i-- {
		key := DayKey(now.AddDate(0, 0, -i))
		index[key] = len(keys)
		keys = append(keys, key)
	}

	windowStart := now.UTC().AddDate(0, 0, -(days - 1))
	windowStart = time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, time.UTC)

	baseline := 0
	for _, c := range clients {
		if c.CreatedAt.Before(windowStart) {
			baseline++
			continue
		}
		if i, ok := index[DayKey(c.CreatedAt)]; ok {
			counts[i]++
		}
	}

	result := make([]CumulativeBin, days)
	acc := baseline
	for i, key := range keys {
		acc += counts[i]
		result[i] = CumulativeBin{Date: key, Total: acc}
	}
	return result
}

// CountByType counts activities per type on or after `since`, sorted
// by type name for stable output.
func CountByType(activities []models.Activity, since time.Time) []TypeCount {
	counts := map[string]int{}
	for _, a := range activities {
		if a.Date.Before(since) {
			continue
		}
		counts[a.Type]++
	}

	result := make([]TypeCount, 0, len(counts))
	for typ, count := range counts {
		result = append(result, TypeCount{Type: typ, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// MostFrequentActivities returns the top `limit` activity types by
// count on or after `since`, most frequent first.
func MostFrequentActivities(activities []models.Activity, since time.Time, limit int) []TypeCount {
	result := CountByType(activities, since)
	sort.SliceStable(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// AvgTimeBetweenContacts computes, per client, the mean gap in days
// between consecutive activities on or after `since`, plus the org-wide
// mean of those per-client means. Clients with fewer than two
// activities contribute a nil average and are excluded from the
// overall mean. PerClient is sorted by ascending average, nils last.
func AvgTimeBetweenContacts(clients []models.Client, activities []models.Activity, since time.Time) ContactGapReport {
	byClient := map[string][]time.Time{}
	for _, a := range activities {
		if a.Date.Before(since) {
			continue
		}
		byClient[a.ClientID] = append(byClient[a.ClientID], a.Date)
	}

	perClient := make([]ContactGap, 0, len(clients))
	var sum float64
	var valid int
	for _, c := range clients {
		dates := byClient[c.ID]
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		if len(dates) < 2 {
			perClient = append(perClient, ContactGap{ClientID: c.ID, Name: c.Name, Samples: len(dates)})
			continue
		}

		var gapSum float64
		for i := 1; i < len(dates); i++ {
			gapSum += dates[i].Sub(dates[i-1]).Hours() / 24
		}
		avg := gapSum / float64(len(dates)-1)
		perClient = append(perClient, ContactGap{ClientID: c.ID, Name: c.Name, AvgDays: &avg, Samples: len(dates) - 1})
		sum += avg
		valid++
	}

	sort.SliceStable(perClient, func(i, j int) bool {
		return gapSortValue(perClient[i]) < gapSortValue(perClient[j])
	})

	report := ContactGapReport{PerClient: perClient}
	if valid > 0 {
		overall := sum / float64(valid)
		report.OverallAvgDays = &overall
	}
	return report
}

func gapSortValue(g ContactGap) float64 {
	if g.AvgDays == nil {
		return math.Inf(1)
	}
	return *g.AvgDays
}

// ChurnedPerMonth bins churned clients by the calendar month of their
// last activity (or creation date, if no activities exist) over the
// trailing `months` months. A client counts as churned when its state
// is churned or its last contact is more than 30 days old.
func ChurnedPerMonth(clients []models.Client, activities []models.Activity, months int, now time.Time) []MonthBin {
	bins := make([]MonthBin, 0, months)
	index := map[string]int{}
	// anchor on the first of the month so AddDate never normalizes
	// across month boundaries
	firstOfMonth := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := months - 1; i >= 0; i-- {
		key := MonthKey(firstOfMonth.AddDate(0, -i, 0))
		index[key] = len(bins)
		bins = append(bins, MonthBin{Month: key})
	}

	lastByClient := map[string]time.Time{}
	for _, a := range activities {
		if cur, ok := lastByClient[a.ClientID]; !ok || a.Date.After(cur) {
			lastByClient[a.ClientID] = a.Date
		}
	}

	for _, c := range clients {
		last, hasLast := lastByClient[c.ID]

		churned := c.ClientState == models.ClientChurned
		if !churned && hasLast {
			daysSinceLast := int(math.Round(now.Sub(last).Hours() / 24))
			churned = daysSinceLast > 30
		}
		if !churned {
			continue
		}

		key := MonthKey(c.CreatedAt)
		if hasLast {
			key = MonthKey(last)
		}
		if i, ok := index[key]; ok {
			bins[i].Count++
		}
	}
	return bins
}
