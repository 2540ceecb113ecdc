package stats

import (
	"fmt"
	"slices"

	"github.com/ademuri/streaming-stats/internal/history"
)

// MostPlayedMonthly finds the artist, track and album played most often in
// each month, counting every play. Newest month first.
func MostPlayedMonthly(events []history.Event) Table {
	table := Table{
		Name:    "most_played_artists_track_album_monthly",
		Columns: []string{"year_month", "most played artist", "most played track", "most played album"},
	}

	byMonth := make(map[history.MonthBucket][]history.Event)
	for _, e := range events {
		byMonth[e.YearMonth] = append(byMonth[e.YearMonth], e)
	}
	months := make([]history.MonthBucket, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	slices.SortFunc(months, func(a, b history.MonthBucket) int { return b.Compare(a) })

	for _, m := range months {
		monthEvents := byMonth[m]
		artist := counts(monthEvents, artists.key, artists.compare)[0]
		track := counts(monthEvents, tracks.key, tracks.compare)[0]
		album := counts(monthEvents, albums.key, albums.compare)[0]
		table.Data = append(table.Data, []any{
			m.String(),
			fmt.Sprintf("%s (%d times)", artist.key, artist.plays),
			fmt.Sprintf("%s (by %s, %d times)", track.key.Name, track.key.Artist, track.plays),
			fmt.Sprintf("%s (by %s, %d times)", album.key.Name, album.key.Artist, album.plays),
		})
	}
	return table
}

// AvgTrackLengthMonthly is the mean length in minutes of fully played tracks
// per month.
func AvgTrackLengthMonthly(events []history.Event) Table {
	table := Table{
		Name:    "avg_track_length_monthly",
		Columns: []string{"year_month", "minutes played"},
	}

	type acc struct {
		minutes float64
		n       int
	}
	byMonth := make(map[history.MonthBucket]*acc)
	var months []history.MonthBucket
	for _, e := range fullPlays(events) {
		a, ok := byMonth[e.YearMonth]
		if !ok {
			a = &acc{}
			byMonth[e.YearMonth] = a
			months = append(months, e.YearMonth)
		}
		a.minutes += e.MinutesPlayed
		a.n++
	}
	slices.SortFunc(months, history.MonthBucket.Compare)

	for _, m := range months {
		a := byMonth[m]
		table.Data = append(table.Data, []any{m.String(), a.minutes / float64(a.n)})
	}
	return table
}
