package stats

import (
	"fmt"
	"math/rand/v2"

	"github.com/ademuri/streaming-stats/internal/history"
)

var sampleFields = []struct {
	name  string
	value func(e history.Event) any
}{
	{"track", func(e history.Event) any { return e.Track.Name }},
	{"artist", func(e history.Event) any { return e.Artist }},
	{"album", func(e history.Event) any { return e.Album.Name }},
	{"track id", func(e history.Event) any { return e.TrackID }},
	{"timestamp", func(e history.Event) any { return e.Timestamp.Format("2006-01-02 15:04:05") }},
	{"minutes played", func(e history.Event) any { return e.MinutesPlayed }},
	{"reason start", func(e history.Event) any { return e.ReasonStart }},
	{"reason end", func(e history.Event) any { return e.ReasonEnd }},
	{"full play", func(e history.Event) any { return e.FullPlay }},
	{"shuffle", func(e history.Event) any { return e.Shuffle }},
	{"offline", func(e history.Event) any { return e.Offline }},
	{"incognito mode", func(e history.Event) any { return e.Incognito }},
	{"platform", func(e history.Event) any { return e.Platform }},
	{"country", func(e history.Event) any { return CountryCode(e.ConnCountry) }},
	{"month", func(e history.Event) any { return e.YearMonth.String() }},
	{"day name", func(e history.Event) any { return e.DayName.String() }},
}

// Sample draws n distinct events at random and lays them out one per column,
// with the field names in the first column. n is capped at len(events).
func Sample(events []history.Event, n int, rng *rand.Rand) Table {
	n = min(max(n, 0), len(events))
	picked := rng.Perm(len(events))[:n]

	table := Table{Name: "random_sample", Columns: []string{"columns"}}
	for i := range picked {
		table.Columns = append(table.Columns, fmt.Sprintf("sample %d", i+1))
	}
	for _, f := range sampleFields {
		row := []any{f.name}
		for _, i := range picked {
			row = append(row, f.value(events[i]))
		}
		table.Data = append(table.Data, row)
	}
	return table
}
