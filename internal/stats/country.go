package stats

import (
	"cmp"

	"github.com/ademuri/streaming-stats/internal/history"
)

// PlaysPerCountry counts full plays per connection country, most first.
func PlaysPerCountry(events []history.Event) Table {
	table := Table{
		Name:    "plays_per_county_total",
		Columns: []string{"country", playCountColumn},
	}
	key := func(e history.Event) CountryCode { return CountryCode(e.ConnCountry) }
	for _, c := range counts(fullPlays(events), key, cmp.Compare[CountryCode]) {
		table.Data = append(table.Data, []any{c.key, c.plays})
	}
	return table
}
