package stats

import (
	"cmp"
	"slices"
	"time"

	"github.com/ademuri/streaming-stats/internal/history"
)

// HoursPerHourOfDay is the share of listening time per UTC hour of the day.
func HoursPerHourOfDay(events []history.Event) Table {
	table := Table{
		Name:    "hours_played_percent_per_hour_of_the_day",
		Columns: []string{"hour of the day", "percent of play time"},
	}

	hours := make(map[int]float64)
	sum := 0.0
	for _, e := range events {
		hours[e.Hour()] += e.HoursPlayed
		sum += e.HoursPlayed
	}
	for _, h := range sortedKeys(hours) {
		table.Data = append(table.Data, []any{h, Round(ratio(hours[h], sum)*100, 2)})
	}
	return table
}

// DayRange returns the first and last calendar day with any event.
func DayRange(events []history.Event) (first, last time.Time, ok bool) {
	for i, e := range events {
		d := e.Day()
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}
	return first, last, len(events) > 0
}

// period buckets days for the average-hours tables.
type period[K comparable] struct {
	name    string
	column  string
	bucket  func(time.Time) K
	compare func(a, b K) int
	label   func(K) any
}

var (
	perYearMonth = period[history.MonthBucket]{
		name:    "year_month",
		column:  "year month",
		bucket:  history.MonthOf,
		compare: history.MonthBucket.Compare,
		label:   func(m history.MonthBucket) any { return m.String() },
	}
	perYear = period[int]{
		name:    "year",
		column:  "year",
		bucket:  func(t time.Time) int { return t.Year() },
		compare: cmp.Compare[int],
		label:   func(y int) any { return y },
	}
	perMonth = period[time.Month]{
		name:    "month",
		column:  "month",
		bucket:  func(t time.Time) time.Month { return t.Month() },
		compare: cmp.Compare[time.Month],
		label:   func(m time.Month) any { return m.String() },
	}
	perDayName = period[history.Weekday]{
		name:    "day_name",
		column:  "day name",
		bucket:  func(t time.Time) history.Weekday { return history.WeekdayOf(t.Weekday()) },
		compare: cmp.Compare[history.Weekday],
		label:   func(d history.Weekday) any { return d.String() },
	}
)

// AvgHoursPerDay averages daily listening hours per calendar month, year,
// month of the year, and weekday. Each bucket is divided by the number of its
// days between the first and the last day of listening, so partial months and
// years at either end use their real length.
func AvgHoursPerDay(events []history.Event) []Table {
	first, last, ok := DayRange(events)
	return []Table{
		avgHoursPerDay(events, first, last, ok, perYearMonth),
		avgHoursPerDay(events, first, last, ok, perYear),
		avgHoursPerDay(events, first, last, ok, perMonth),
		avgHoursPerDay(events, first, last, ok, perDayName),
	}
}

func avgHoursPerDay[K comparable](events []history.Event, first, last time.Time, ok bool, p period[K]) Table {
	table := Table{
		Name:    "avg_hours_played_per_" + p.name,
		Columns: []string{p.column, "avg hours played per day"},
	}
	if !ok {
		return table
	}

	days := make(map[K]int)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days[p.bucket(d)]++
	}
	hours := make(map[K]float64)
	for _, e := range events {
		hours[p.bucket(e.Timestamp)] += e.HoursPlayed
	}

	buckets := make([]K, 0, len(days))
	for k := range days {
		buckets = append(buckets, k)
	}
	slices.SortFunc(buckets, p.compare)
	for _, k := range buckets {
		table.Data = append(table.Data, []any{p.label(k), hours[k] / float64(days[k])})
	}
	return table
}
