package stats

import (
	"fmt"
	"slices"

	"github.com/ademuri/streaming-stats/internal/history"
)

// AvgPlayCountPerSongYearly is, per year, the mean number of full plays of
// the tracks played that year.
func AvgPlayCountPerSongYearly(events []history.Event) Table {
	table := Table{
		Name:    "avg_play_count_per_song_yearly",
		Columns: []string{"year", playCountColumn},
	}

	type yearTrack struct {
		year  int
		track history.EntityKey
	}
	plays := make(map[yearTrack]int)
	for _, e := range fullPlays(events) {
		plays[yearTrack{e.Year, e.Track}]++
	}

	sum := make(map[int]int)
	n := make(map[int]int)
	for k, c := range plays {
		sum[k.year] += c
		n[k.year]++
	}
	for _, year := range sortedKeys(sum) {
		table.Data = append(table.Data, []any{year, float64(sum[year]) / float64(n[year])})
	}
	return table
}

// PlayCountDistribution counts how many tracks have each number of full plays,
// highest play count first.
func PlayCountDistribution(events []history.Event) Table {
	table := Table{
		Name:    "play_count_distribution",
		Columns: []string{playCountColumn, "num of songs"},
	}

	numSongs := make(map[int]int)
	for _, t := range counts(fullPlays(events), tracks.key, tracks.compare) {
		numSongs[t.plays]++
	}
	keys := sortedKeys(numSongs)
	slices.Reverse(keys)
	for _, plays := range keys {
		table.Data = append(table.Data, []any{plays, numSongs[plays]})
	}
	return table
}

// YearlyTrackPlayCount reports per year the full plays, the distinct tracks
// played, and the tracks played for the first time ever.
func YearlyTrackPlayCount(events []history.Event) Table {
	table := Table{
		Name:    "yearly_track_play_count",
		Columns: []string{"year", "total", "unique per year", "new"},
	}

	type yearStats struct {
		total, new int
		unique     map[history.EntityKey]bool
	}
	years := make(map[int]*yearStats)
	seen := make(map[history.EntityKey]bool)
	// Events are in chronological order, so the first sighting is the first play.
	for _, e := range fullPlays(events) {
		y, ok := years[e.Year]
		if !ok {
			y = &yearStats{unique: make(map[history.EntityKey]bool)}
			years[e.Year] = y
		}
		y.total++
		y.unique[e.Track] = true
		if !seen[e.Track] {
			seen[e.Track] = true
			y.new++
		}
	}
	for _, year := range sortedKeys(years) {
		y := years[year]
		table.Data = append(table.Data, []any{year, y.total, len(y.unique), y.new})
	}
	return table
}

// CumulativePercentTracks is the share of full plays covered by the n most
// played tracks, for every n.
func CumulativePercentTracks(events []history.Event) Table {
	return cumulativePercent(events, tracks)
}

// CumulativePercentArtists is CumulativePercentTracks for artists.
func CumulativePercentArtists(events []history.Event) Table {
	return cumulativePercent(events, artists)
}

func cumulativePercent[K comparable](events []history.Event, d dimension[K]) Table {
	table := Table{
		Name:    "cumulative_percent_play_count_" + d.column,
		Columns: []string{fmt.Sprintf("number of %ss", d.column), "percent of played songs"},
		Data:    [][]any{{0, 0.0}},
	}

	full := fullPlays(events)
	ranked := counts(full, d.key, d.compare)
	cumulative := 0
	for i, t := range ranked {
		cumulative += t.plays
		table.Data = append(table.Data, []any{i + 1, float64(cumulative) / float64(len(full)) * 100})
	}
	return table
}

// TopPercent reads the share of full plays covered by the n most played
// entities from a cumulative table, clamped to the last ranked entity.
func TopPercent(t Table, n int) float64 {
	if len(t.Data) < 2 {
		return 0
	}
	f, _ := t.Data[min(n, len(t.Data)-2)][1].(float64)
	return f
}
