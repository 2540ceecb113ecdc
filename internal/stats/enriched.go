package stats

import (
	"cmp"

	"github.com/ademuri/streaming-stats/internal/history"
)

// TrackInfo is catalog metadata joined onto events by track id.
type TrackInfo struct {
	Explicit   bool
	Popularity int
	// ReleaseYear is zero when the album release date is unknown.
	ReleaseYear int
	// Genres of the track's primary artist.
	Genres []string
}

// Catalog looks up metadata by track id.
type Catalog interface {
	Track(id string) (TrackInfo, bool)
}

// MostPlayedGenres ranks the genres of the played artists by full plays.
// An event counts towards every genre of its artist.
func MostPlayedGenres(events []history.Event, catalog Catalog, k int) Table {
	table := Table{
		Name:    "most_played_genres_total",
		Columns: []string{"genre", playCountColumn, hoursPlayedColumn},
	}

	index := make(map[string]int)
	var genres []total[string]
	for _, e := range events {
		info, ok := catalog.Track(e.TrackID)
		if !ok {
			continue
		}
		for _, g := range info.Genres {
			i, ok := index[g]
			if !ok {
				i = len(genres)
				index[g] = i
				genres = append(genres, total[string]{key: g})
			}
			if e.FullPlay {
				genres[i].plays++
			}
			genres[i].hours += e.HoursPlayed
		}
	}
	sortByPlays(genres, cmp.Compare[string])
	if len(genres) > k {
		genres = genres[:k]
	}
	for _, g := range genres {
		table.Data = append(table.Data, []any{g.key, g.plays, g.hours})
	}
	return table
}

// PlaysPerReleaseYear counts full plays by the release year of the album.
func PlaysPerReleaseYear(events []history.Event, catalog Catalog) Table {
	table := Table{
		Name:    "plays_per_release_year",
		Columns: []string{"release year", playCountColumn},
	}

	plays := make(map[int]int)
	for _, e := range fullPlays(events) {
		info, ok := catalog.Track(e.TrackID)
		if !ok || info.ReleaseYear == 0 {
			continue
		}
		plays[info.ReleaseYear]++
	}
	for _, year := range sortedKeys(plays) {
		table.Data = append(table.Data, []any{year, plays[year]})
	}
	return table
}
